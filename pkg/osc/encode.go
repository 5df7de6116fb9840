package osc

import (
	"encoding/binary"
	"fmt"
	"image/color"
	"math"
)

const bundleTag = "#bundle"

// ColorMessageSize returns the exact encoded size of a message at addr
// carrying n color arguments.
func ColorMessageSize(addr string, n int) int {
	return stringSize(addr) + pad4(n+2) + 4*n
}

// AppendColorMessage appends a message at addr carrying one 'r' argument
// per color.
func AppendColorMessage(dst []byte, addr string, colors []color.RGBA) []byte {
	dst = appendString(dst, addr)

	dst = append(dst, ',')
	for range colors {
		dst = append(dst, 'r')
	}
	dst = append(dst, 0)
	dst = appendPadding(dst, len(colors)+2)

	for _, c := range colors {
		dst = append(dst, c.R, c.G, c.B, c.A)
	}
	return dst
}

// AppendMessage appends the encoding of m to dst.
func AppendMessage(dst []byte, m *Message) ([]byte, error) {
	if len(m.Address) == 0 || m.Address[0] != '/' {
		return dst, fmt.Errorf("encode message: address %q must start with '/'", m.Address)
	}
	dst = appendString(dst, m.Address)

	tags := make([]byte, 1, len(m.Args)+1)
	tags[0] = ','
	for _, a := range m.Args {
		tag, err := typeTag(a)
		if err != nil {
			return dst, fmt.Errorf("encode message %s: %w", m.Address, err)
		}
		tags = append(tags, tag)
	}
	dst = appendString(dst, string(tags))

	for _, a := range m.Args {
		dst = appendArg(dst, a)
	}
	return dst, nil
}

// AppendBundle appends the encoding of b to dst. Every element is prefixed
// with its size.
func AppendBundle(dst []byte, b *Bundle) ([]byte, error) {
	dst = appendString(dst, bundleTag)
	dst = binary.BigEndian.AppendUint64(dst, uint64(b.Timetag))

	for _, e := range b.Elements {
		at := len(dst)
		dst = append(dst, 0, 0, 0, 0)

		var err error
		switch e := e.(type) {
		case *Message:
			dst, err = AppendMessage(dst, e)
		case *Bundle:
			dst, err = AppendBundle(dst, e)
		default:
			err = fmt.Errorf("unsupported bundle element %T", e)
		}
		if err != nil {
			return dst, fmt.Errorf("encode bundle: %w", err)
		}
		binary.BigEndian.PutUint32(dst[at:], uint32(len(dst)-at-4))
	}
	return dst, nil
}

func typeTag(a any) (byte, error) {
	switch a := a.(type) {
	case int32:
		return 'i', nil
	case float32:
		return 'f', nil
	case string:
		return 's', nil
	case []byte:
		return 'b', nil
	case int64:
		return 'h', nil
	case float64:
		return 'd', nil
	case Timetag:
		return 't', nil
	case Char:
		return 'c', nil
	case color.RGBA:
		return 'r', nil
	case MIDI:
		return 'm', nil
	case bool:
		if a {
			return 'T', nil
		}
		return 'F', nil
	case nil:
		return 'N', nil
	case Impulse:
		return 'I', nil
	}
	return 0, fmt.Errorf("unsupported argument type %T", a)
}

func appendArg(dst []byte, a any) []byte {
	switch a := a.(type) {
	case int32:
		return binary.BigEndian.AppendUint32(dst, uint32(a))
	case float32:
		return binary.BigEndian.AppendUint32(dst, math.Float32bits(a))
	case string:
		return appendString(dst, a)
	case []byte:
		dst = binary.BigEndian.AppendUint32(dst, uint32(len(a)))
		dst = append(dst, a...)
		return appendPadding(dst, len(a))
	case int64:
		return binary.BigEndian.AppendUint64(dst, uint64(a))
	case float64:
		return binary.BigEndian.AppendUint64(dst, math.Float64bits(a))
	case Timetag:
		return binary.BigEndian.AppendUint64(dst, uint64(a))
	case Char:
		return binary.BigEndian.AppendUint32(dst, uint32(a))
	case color.RGBA:
		return append(dst, a.R, a.G, a.B, a.A)
	case MIDI:
		return append(dst, a[:]...)
	}
	// bool, nil and Impulse carry no data.
	return dst
}

// appendString appends s, its terminator and padding to a multiple of four.
func appendString(dst []byte, s string) []byte {
	dst = append(dst, s...)
	dst = append(dst, 0)
	return appendPadding(dst, len(s)+1)
}

// appendPadding pads a field of n bytes to a multiple of four.
func appendPadding(dst []byte, n int) []byte {
	for range pad4(n) - n {
		dst = append(dst, 0)
	}
	return dst
}
