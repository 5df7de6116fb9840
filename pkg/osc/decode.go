package osc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image/color"
	"math"
)

const maxBundleDepth = 8

// Decode parses one packet and returns its messages in order. Bundles,
// nested ones included, are flattened and their timetags ignored. On error
// the messages decoded before the failure are still returned; a message cut
// short by an unknown type tag keeps the arguments that preceded it.
func Decode(b []byte) ([]*Message, error) {
	return appendPacket(nil, b, 0)
}

// DecodeColors parses one packet and appends every color argument to dst
// in arrival order, skipping arguments of any other type. On error dst
// still holds the colors decoded before the failure.
func DecodeColors(dst []color.RGBA, b []byte) ([]color.RGBA, error) {
	msgs, err := Decode(b)
	return AppendColors(dst, msgs...), err
}

func appendPacket(dst []*Message, b []byte, depth int) ([]*Message, error) {
	if len(b) == 0 {
		return dst, fmt.Errorf("%w: empty packet", ErrMalformed)
	}
	switch b[0] {
	case '/':
		m, err := DecodeMessage(b)
		if m != nil {
			dst = append(dst, m)
		}
		return dst, err
	case '#':
		if depth >= maxBundleDepth {
			return dst, fmt.Errorf("%w: bundles nested deeper than %d", ErrMalformed, maxBundleDepth)
		}
		return appendBundle(dst, b, depth)
	}
	return dst, fmt.Errorf("%w: packet starts with %q", ErrMalformed, b[0])
}

func appendBundle(dst []*Message, b []byte, depth int) ([]*Message, error) {
	r := reader{b: b}
	tag, err := r.string()
	if err != nil {
		return dst, err
	}
	if tag != bundleTag {
		return dst, fmt.Errorf("%w: bad bundle tag %q", ErrMalformed, tag)
	}
	if _, err := r.next(8); err != nil {
		return dst, err
	}

	for r.remaining() > 0 {
		raw, err := r.next(4)
		if err != nil {
			return dst, err
		}
		size := int(binary.BigEndian.Uint32(raw))
		elem, err := r.next(size)
		if err != nil {
			return dst, err
		}
		if dst, err = appendPacket(dst, elem, depth+1); err != nil {
			return dst, err
		}
	}
	return dst, nil
}

// DecodeMessage parses a single message. A message without a type tag
// string has no arguments. An unknown type tag ends decoding: the message
// is returned with the arguments before it, together with ErrUnknownTag.
func DecodeMessage(b []byte) (*Message, error) {
	r := reader{b: b}
	addr, err := r.string()
	if err != nil {
		return nil, err
	}
	if len(addr) == 0 || addr[0] != '/' {
		return nil, fmt.Errorf("%w: address %q", ErrMalformed, addr)
	}
	m := &Message{Address: addr}
	if r.remaining() == 0 {
		return m, nil
	}

	tags, err := r.string()
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 || tags[0] != ',' {
		return nil, fmt.Errorf("%w: type tags %q", ErrMalformed, tags)
	}
	tags = tags[1:]

	m.Args = make([]any, 0, len(tags))
	for _, tag := range []byte(tags) {
		arg, skip, err := r.arg(tag)
		if errors.Is(err, ErrUnknownTag) {
			return m, fmt.Errorf("message %s: %w", addr, err)
		}
		if err != nil {
			return nil, fmt.Errorf("message %s: %w", addr, err)
		}
		if !skip {
			m.Args = append(m.Args, arg)
		}
	}
	return m, nil
}

type reader struct {
	b   []byte
	off int
}

func (r *reader) remaining() int {
	return len(r.b) - r.off
}

func (r *reader) next(n int) ([]byte, error) {
	if n < 0 || n > r.remaining() {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrMalformed, n, r.off, r.remaining())
	}
	p := r.b[r.off : r.off+n]
	r.off += n
	return p, nil
}

func (r *reader) string() (string, error) {
	i := bytes.IndexByte(r.b[r.off:], 0)
	if i < 0 {
		return "", fmt.Errorf("%w: unterminated string at offset %d", ErrMalformed, r.off)
	}
	p, err := r.next(pad4(i + 1))
	if err != nil {
		return "", err
	}
	return string(p[:i]), nil
}

func (r *reader) uint32() (uint32, error) {
	p, err := r.next(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(p), nil
}

func (r *reader) uint64() (uint64, error) {
	p, err := r.next(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(p), nil
}

// arg decodes one argument. skip is set for array delimiters, which carry
// no value.
func (r *reader) arg(tag byte) (v any, skip bool, err error) {
	switch tag {
	case 'i':
		u, err := r.uint32()
		return int32(u), false, err
	case 'f':
		u, err := r.uint32()
		return math.Float32frombits(u), false, err
	case 'c':
		u, err := r.uint32()
		return Char(u), false, err
	case 'r':
		p, err := r.next(4)
		if err != nil {
			return nil, false, err
		}
		return color.RGBA{p[0], p[1], p[2], p[3]}, false, nil
	case 'm':
		p, err := r.next(4)
		if err != nil {
			return nil, false, err
		}
		return MIDI{p[0], p[1], p[2], p[3]}, false, nil
	case 'h':
		u, err := r.uint64()
		return int64(u), false, err
	case 'd':
		u, err := r.uint64()
		return math.Float64frombits(u), false, err
	case 't':
		u, err := r.uint64()
		return Timetag(u), false, err
	case 's', 'S':
		s, err := r.string()
		return s, false, err
	case 'b':
		n, err := r.uint32()
		if err != nil {
			return nil, false, err
		}
		p, err := r.next(pad4(int(n)))
		if err != nil {
			return nil, false, err
		}
		return bytes.Clone(p[:n]), false, nil
	case 'T':
		return true, false, nil
	case 'F':
		return false, false, nil
	case 'N':
		return nil, false, nil
	case 'I':
		return Impulse{}, false, nil
	case '[', ']':
		return nil, true, nil
	}
	return nil, false, fmt.Errorf("%w %q", ErrUnknownTag, tag)
}
