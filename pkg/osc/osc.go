// Package osc encodes and decodes Open Sound Control 1.0 packets.
//
// Every OSC 1.0 argument type can be decoded so that unexpected arguments
// are skipped instead of failing the packet. Encoding is optimised for the
// one shape the LED stream uses: a fixed address followed by one RGBA color
// ('r') argument per LED.
package osc

import (
	"errors"
	"image/color"
)

var (
	// ErrMalformed reports a truncated or badly padded packet.
	ErrMalformed = errors.New("malformed OSC packet")

	// ErrUnknownTag reports a type tag whose size is unknown. The rest of
	// the message cannot be parsed.
	ErrUnknownTag = errors.New("unknown OSC type tag")
)

// Argument types without a natural Go representation.
type (
	// Timetag is an NTP timestamp: seconds since 1900 in the high 32 bits,
	// fraction in the low 32.
	Timetag uint64

	// MIDI is a 4-byte MIDI message: port id, status, data1, data2.
	MIDI [4]byte

	// Char is an ASCII character sent as a 32-bit value.
	Char rune

	// Impulse is the data-less "bang" argument.
	Impulse struct{}
)

// Immediately is the special timetag meaning "now".
const Immediately Timetag = 1

// Message is one OSC message. Args hold int32, float32, string, []byte,
// int64, float64, Timetag, Char, color.RGBA, MIDI, bool, nil or Impulse.
type Message struct {
	Address string
	Args    []any
}

// Colors returns the color arguments of m in order, skipping all others.
func (m *Message) Colors() []color.RGBA {
	return AppendColors(nil, m)
}

// AppendColors appends the color arguments of msgs to dst in order.
func AppendColors(dst []color.RGBA, msgs ...*Message) []color.RGBA {
	for _, m := range msgs {
		for _, a := range m.Args {
			if c, ok := a.(color.RGBA); ok {
				dst = append(dst, c)
			}
		}
	}
	return dst
}

// Bundle groups messages and nested bundles under one timetag.
type Bundle struct {
	Timetag  Timetag
	Elements []any // *Message or *Bundle
}

func pad4(n int) int {
	return (n + 3) &^ 3
}

// stringSize is the padded size of an OSC string including its terminator.
func stringSize(s string) int {
	return pad4(len(s) + 1)
}
