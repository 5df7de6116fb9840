package osc

import (
	"encoding/binary"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendColorMessageBytes(t *testing.T) {
	got := AppendColorMessage(nil, "/", []color.RGBA{{1, 2, 3, 4}})
	want := []byte{
		'/', 0, 0, 0,
		',', 'r', 0, 0,
		1, 2, 3, 4,
	}
	assert.Equal(t, want, got)
}

func TestColorMessageSize(t *testing.T) {
	for _, addr := range []string{"/", "/led", "/monolith/strip"} {
		for n := range 12 {
			colors := make([]color.RGBA, n)
			got := AppendColorMessage(nil, addr, colors)
			assert.Len(t, got, ColorMessageSize(addr, n), "addr %q n %d", addr, n)
			assert.Zero(t, len(got)%4, "packet not padded")
		}
	}
}

func TestColorRoundTrip(t *testing.T) {
	colors := make([]color.RGBA, 626)
	for i := range colors {
		colors[i] = color.RGBA{uint8(i), uint8(i >> 8), uint8(255 - i), 255}
	}
	b := AppendColorMessage(nil, "/", colors)

	got, err := DecodeColors(nil, b)
	require.NoError(t, err)
	assert.Equal(t, colors, got)
}

func TestMessageRoundTrip(t *testing.T) {
	m := &Message{
		Address: "/mixed",
		Args: []any{
			int32(-7),
			float32(1.5),
			"hello",
			[]byte{9, 8, 7, 6, 5},
			int64(1) << 40,
			3.25,
			Immediately,
			Char('x'),
			color.RGBA{10, 20, 30, 40},
			MIDI{1, 0x90, 60, 127},
			true,
			false,
			nil,
			Impulse{},
		},
	}
	b, err := AppendMessage(nil, m)
	require.NoError(t, err)
	assert.Zero(t, len(b)%4)

	msgs, err := Decode(b)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, m, msgs[0])
	assert.Equal(t, []color.RGBA{{10, 20, 30, 40}}, msgs[0].Colors())
}

func TestNonColorArgumentsAreSkipped(t *testing.T) {
	m := &Message{Address: "/", Args: []any{
		color.RGBA{1, 1, 1, 1},
		int32(5),
		"noise",
		color.RGBA{2, 2, 2, 2},
		[]byte{1},
		color.RGBA{3, 3, 3, 3},
	}}
	b, err := AppendMessage(nil, m)
	require.NoError(t, err)

	got, err := DecodeColors(nil, b)
	require.NoError(t, err)
	assert.Equal(t, []color.RGBA{{1, 1, 1, 1}, {2, 2, 2, 2}, {3, 3, 3, 3}}, got)
}

func TestBundleIsFlattened(t *testing.T) {
	inner := &Bundle{Timetag: Immediately, Elements: []any{
		&Message{Address: "/b", Args: []any{color.RGBA{2, 0, 0, 255}}},
	}}
	outer := &Bundle{Timetag: 42, Elements: []any{
		&Message{Address: "/a", Args: []any{color.RGBA{1, 0, 0, 255}, int32(9)}},
		inner,
		&Message{Address: "/c", Args: []any{color.RGBA{3, 0, 0, 255}}},
	}}
	b, err := AppendBundle(nil, outer)
	require.NoError(t, err)

	msgs, err := Decode(b)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "/a", msgs[0].Address)
	assert.Equal(t, "/b", msgs[1].Address)
	assert.Equal(t, "/c", msgs[2].Address)

	got, err := DecodeColors(nil, b)
	require.NoError(t, err)
	assert.Equal(t, []color.RGBA{{1, 0, 0, 255}, {2, 0, 0, 255}, {3, 0, 0, 255}}, got)
}

func TestMessageWithoutTypeTags(t *testing.T) {
	msgs, err := Decode([]byte{'/', 'x', 0, 0})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "/x", msgs[0].Address)
	assert.Empty(t, msgs[0].Args)
}

func TestArrayDelimitersAreIgnored(t *testing.T) {
	b := []byte{
		'/', 0, 0, 0,
		',', '[', 'r', ']', 0, 0, 0, 0,
		5, 6, 7, 8,
	}
	got, err := DecodeColors(nil, b)
	require.NoError(t, err)
	assert.Equal(t, []color.RGBA{{5, 6, 7, 8}}, got)
}

func TestDecodeErrors(t *testing.T) {
	valid := AppendColorMessage(nil, "/", []color.RGBA{{1, 2, 3, 4}, {5, 6, 7, 8}})

	tests := []struct {
		name string
		b    []byte
		want error
	}{
		{"empty", nil, ErrMalformed},
		{"not a packet", []byte("xyz\x00"), ErrMalformed},
		{"truncated color", valid[:len(valid)-2], ErrMalformed},
		{"unterminated address", []byte("/abc"), ErrMalformed},
		{"tags without comma", []byte("/\x00\x00\x00r\x00\x00\x00"), ErrMalformed},
		{"unknown tag", []byte("/\x00\x00\x00,z\x00\x00\x01\x02\x03\x04"), ErrUnknownTag},
		{"bad bundle tag", []byte("#bungle\x00\x00\x00\x00\x00\x00\x00\x00\x01"), ErrMalformed},
		{"bundle element overruns", append([]byte("#bundle\x00\x00\x00\x00\x00\x00\x00\x00\x01"), 0, 0, 0, 99), ErrMalformed},
		{"empty bundle element", append([]byte("#bundle\x00\x00\x00\x00\x00\x00\x00\x00\x01"), 0, 0, 0, 0), ErrMalformed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.b)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestDecodeColorsKeepsArgumentsBeforeUnknownTag(t *testing.T) {
	// Two colors, then a tag this decoder does not know, then a third color.
	b := []byte("/\x00\x00\x00,rrzr\x00\x00\x00")
	b = append(b, 1, 2, 3, 4, 5, 6, 7, 8, 0, 0, 0, 0, 9, 9, 9, 9)

	got, err := DecodeColors(nil, b)
	assert.ErrorIs(t, err, ErrUnknownTag)
	assert.Equal(t, []color.RGBA{{1, 2, 3, 4}, {5, 6, 7, 8}}, got)

	msgs, err := Decode(b)
	assert.ErrorIs(t, err, ErrUnknownTag)
	require.Len(t, msgs, 1)
	assert.Equal(t, "/", msgs[0].Address)
}

func TestDecodeColorsKeepsEarlierBundleElements(t *testing.T) {
	good := AppendColorMessage(nil, "/", []color.RGBA{{1, 1, 1, 1}})
	bad := []byte("/\x00\x00\x00,z\x00\x00")

	b := []byte("#bundle\x00\x00\x00\x00\x00\x00\x00\x00\x01")
	for _, elem := range [][]byte{good, bad} {
		b = binary.BigEndian.AppendUint32(b, uint32(len(elem)))
		b = append(b, elem...)
	}

	got, err := DecodeColors(nil, b)
	assert.ErrorIs(t, err, ErrUnknownTag)
	assert.Equal(t, []color.RGBA{{1, 1, 1, 1}}, got)
}

func TestDecodeColorsDropsMalformedMessage(t *testing.T) {
	valid := AppendColorMessage(nil, "/", []color.RGBA{{1, 2, 3, 4}, {5, 6, 7, 8}})
	got, err := DecodeColors(nil, valid[:len(valid)-2])
	assert.ErrorIs(t, err, ErrMalformed)
	assert.Empty(t, got)
}

func TestDecodeEveryPrefix(t *testing.T) {
	b, err := AppendBundle(nil, &Bundle{Elements: []any{
		&Message{Address: "/a", Args: []any{"s", []byte{1, 2, 3}, color.RGBA{1, 2, 3, 4}}},
	}})
	require.NoError(t, err)

	for n := range len(b) {
		assert.NotPanics(t, func() { _, _ = Decode(b[:n]) }, "prefix %d", n)
	}
}

func TestDeeplyNestedBundle(t *testing.T) {
	b := &Bundle{Elements: []any{&Message{Address: "/x"}}}
	for range maxBundleDepth + 1 {
		b = &Bundle{Elements: []any{b}}
	}
	raw, err := AppendBundle(nil, b)
	require.NoError(t, err)

	_, err = Decode(raw)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestAppendMessageErrors(t *testing.T) {
	_, err := AppendMessage(nil, &Message{Address: "nope"})
	assert.Error(t, err)

	_, err = AppendMessage(nil, &Message{Address: "/x", Args: []any{struct{}{}}})
	assert.Error(t, err)

	_, err = AppendBundle(nil, &Bundle{Elements: []any{"not an element"}})
	assert.Error(t, err)
}

func FuzzDecode(f *testing.F) {
	f.Add(AppendColorMessage(nil, "/", []color.RGBA{{1, 2, 3, 4}}))
	f.Add([]byte("#bundle\x00\x00\x00\x00\x00\x00\x00\x00\x01\x00\x00\x00\x04/\x00\x00\x00"))
	f.Fuzz(func(t *testing.T, b []byte) {
		_, _ = Decode(b)
	})
}

func BenchmarkAppendColorMessage(b *testing.B) {
	colors := make([]color.RGBA, 684)
	buf := make([]byte, 0, ColorMessageSize("/", len(colors)))
	for b.Loop() {
		buf = AppendColorMessage(buf[:0], "/", colors)
	}
}

func BenchmarkDecodeColors(b *testing.B) {
	colors := make([]color.RGBA, 684)
	packet := AppendColorMessage(nil, "/", colors)
	dst := make([]color.RGBA, 0, len(colors))
	for b.Loop() {
		dst, _ = DecodeColors(dst[:0], packet)
	}
}
