package stream

import (
	"context"
	"errors"
	"image"
	"image/color"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/monolith/pkg/osc"
)

func TestGammaIdentity(t *testing.T) {
	g, err := NewGamma(1)
	require.NoError(t, err)
	assert.True(t, g.Identity())

	src := []color.RGBA{{0, 1, 2, 3}, {128, 200, 255, 0}}
	dst := make([]color.RGBA, len(src))
	g.Apply(dst, src)
	assert.Equal(t, src, dst)

	// Applying twice changes nothing either.
	g.Apply(dst, dst)
	assert.Equal(t, src, dst)
}

func TestGammaMonotonic(t *testing.T) {
	for _, gamma := range []float64{0.45, 1.8, 2.2, 2.8} {
		g, err := NewGamma(gamma)
		require.NoError(t, err)
		assert.Equal(t, uint8(0), g[0])
		assert.Equal(t, uint8(255), g[255])
		for i := 1; i < len(g); i++ {
			require.GreaterOrEqual(t, g[i], g[i-1], "gamma %v not monotonic at %d", gamma, i)
		}
		assert.False(t, g.Identity())
	}
}

func TestGammaKeepsAlpha(t *testing.T) {
	g, err := NewGamma(2.2)
	require.NoError(t, err)
	frame := []color.RGBA{{128, 128, 128, 77}}
	g.Apply(frame, frame)
	assert.Equal(t, uint8(77), frame[0].A)
	assert.Less(t, frame[0].R, uint8(128))
}

func TestGammaRejectsBadValues(t *testing.T) {
	for _, g := range []float64{0, -1} {
		_, err := NewGamma(g)
		assert.Error(t, err, "gamma %v", g)
	}
}

func TestMailboxKeepsNewest(t *testing.T) {
	m := newMailbox()
	m.Publish([]color.RGBA{{1, 0, 0, 0}})
	m.Publish([]color.RGBA{{2, 0, 0, 0}})
	m.Publish([]color.RGBA{{3, 0, 0, 0}})

	frame, ok := m.Take()
	require.True(t, ok)
	assert.Equal(t, uint8(3), frame[0].R)
	assert.Equal(t, uint64(2), m.Drops())
}

func TestMailboxCloseUnblocksTake(t *testing.T) {
	m := newMailbox()
	done := make(chan bool)
	go func() {
		_, ok := m.Take()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	m.Close()
	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Take did not return after Close")
	}

	m.Publish([]color.RGBA{{1, 1, 1, 1}})
	_, ok := m.Take()
	assert.False(t, ok, "closed mailbox accepts nothing")
}

func TestTestPattern(t *testing.T) {
	p := TestPattern(TestLEDs)
	require.Len(t, p, TestLEDs)

	white := color.RGBA{255, 255, 255, 255}
	black := color.RGBA{0, 0, 0, 255}
	assert.Equal(t, white, p[0])
	assert.Equal(t, white, p[83])
	assert.Equal(t, black, p[84])
	assert.Equal(t, black, p[155])
	assert.Equal(t, white, p[156])

	rotateRight(p)
	assert.Equal(t, white, p[84], "white run grew by one at its end")
	assert.Equal(t, black, p[85])
	assert.Equal(t, black, p[156])
	assert.Equal(t, TestPattern(TestLEDs)[TestLEDs-1], p[0])
}

// recordingSink keeps a copy of every frame.
type recordingSink struct {
	mu     sync.Mutex
	frames [][]color.RGBA
	err    error
	closed bool
}

func (s *recordingSink) Write(colors []color.RGBA) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, append([]color.RGBA(nil), colors...))
	return s.err
}

func (s *recordingSink) Close() error {
	s.closed = true
	return nil
}

func (s *recordingSink) snapshot() [][]color.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]color.RGBA(nil), s.frames...)
}

func TestRunTestRotates(t *testing.T) {
	sink := &recordingSink{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- RunTest(ctx, sink, 200, time.Millisecond) }()

	require.Eventually(t, func() bool { return len(sink.snapshot()) >= 3 }, 2*time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	frames := sink.snapshot()
	want := append([]color.RGBA(nil), frames[0]...)
	rotateRight(want)
	assert.Equal(t, want, frames[1])
}

func TestDeviceSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strip")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	d, err := OpenDevice(path, DefaultPin, DefaultDMA)
	require.NoError(t, err)
	require.NoError(t, d.Write([]color.RGBA{{1, 2, 3, 255}, {4, 5, 6, 255}}))
	require.NoError(t, d.Write([]color.RGBA{{7, 8, 9, 0}}))
	require.NoError(t, d.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 1, 3, 5, 4, 6, 8, 7, 9}, got)
}

func TestOpenDeviceErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strip")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	_, err := OpenDevice(path, 7, DefaultDMA)
	assert.Error(t, err, "unsupported pin")
	_, err = OpenDevice(path, DefaultPin, 15)
	assert.Error(t, err, "dma out of range")
	_, err = OpenDevice(filepath.Join(t.TempDir(), "missing", "dev"), DefaultPin, DefaultDMA)
	assert.Error(t, err, "missing device")
}

func TestMultiSink(t *testing.T) {
	boom := errors.New("boom")
	a := &recordingSink{err: boom}
	b := &recordingSink{}
	m := MultiSink{a, b, DiscardSink{}}

	err := m.Write([]color.RGBA{{1, 1, 1, 1}})
	assert.ErrorIs(t, err, boom)
	assert.Len(t, a.snapshot(), 1)
	assert.Len(t, b.snapshot(), 1, "failing sink does not stop the rest")

	require.NoError(t, m.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

// fakeScreen records cells; the embedded screen is never used.
type fakeScreen struct {
	uv.Screen
	cells map[image.Point]*uv.Cell
}

func (s *fakeScreen) SetCell(x, y int, c *uv.Cell) {
	s.cells[image.Pt(x, y)] = c
}

func TestSwatchSink(t *testing.T) {
	scr := &fakeScreen{cells: map[image.Point]*uv.Cell{}}
	flushed := 0
	area := image.Rect(0, 0, 4, 2)
	s := &SwatchSink{
		Screen: scr,
		Area:   func() uv.Rectangle { return area },
		Flush:  func() error { flushed++; return nil },
	}

	colors := make([]color.RGBA, 10)
	for i := range colors {
		colors[i] = color.RGBA{uint8(i * 20), 0, 0, 0}
	}
	require.NoError(t, s.Write(colors))
	assert.Equal(t, 1, flushed)
	assert.Len(t, scr.cells, 8)

	// LED 5 sits below LED 1 in the first cell row.
	cell := scr.cells[image.Pt(1, 0)]
	require.NotNil(t, cell)
	assert.Equal(t, color.RGBA{20, 0, 0, 255}, cell.Style.Fg)
	assert.Equal(t, color.RGBA{100, 0, 0, 255}, cell.Style.Bg)

	// A resized terminal is picked up by the next write.
	area = image.Rect(0, 0, 10, 1)
	clear(scr.cells)
	require.NoError(t, s.Write(colors))
	assert.Equal(t, 2, flushed)
	assert.Len(t, scr.cells, 10)
	cell = scr.cells[image.Pt(9, 0)]
	require.NotNil(t, cell)
	assert.Equal(t, color.RGBA{180, 0, 0, 255}, cell.Style.Fg)
}

func startReceiver(t *testing.T, cfg Config, sink Sink) (*Receiver, context.CancelFunc, <-chan error) {
	t.Helper()
	r, err := Listen(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, sink) }()
	t.Cleanup(cancel)
	return r, cancel, done
}

func dialReceiver(t *testing.T, r *Receiver) *net.UDPConn {
	t.Helper()
	addr := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: r.LocalAddr().Port}
	conn, err := net.DialUDP("udp", nil, addr)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestReceiverAppliesFrames(t *testing.T) {
	sink := &recordingSink{}
	r, cancel, done := startReceiver(t, Config{Port: 0}, sink)
	conn := dialReceiver(t, r)

	frame := []color.RGBA{{1, 2, 3, 255}, {4, 5, 6, 255}, {7, 8, 9, 255}}
	_, err := conn.Write(osc.AppendColorMessage(nil, "/", frame))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 1 }, 2*time.Second, time.Millisecond)
	assert.Equal(t, frame, sink.snapshot()[0])

	// Undecodable and oversize packets are dropped without stopping the loop.
	_, err = conn.Write([]byte("garbage"))
	require.NoError(t, err)
	_, err = conn.Write(make([]byte, DefaultMTU+100))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return r.Stats().Rejected == 2 }, 2*time.Second, time.Millisecond)

	_, err = conn.Write(osc.AppendColorMessage(nil, "/", frame[:1]))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(sink.snapshot()) == 2 }, 2*time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}

	st := r.Stats()
	assert.Equal(t, uint64(4), st.Packets)
	assert.Equal(t, uint64(2), st.Applied)
}

func TestReceiverGamma(t *testing.T) {
	sink := &recordingSink{}
	r, _, _ := startReceiver(t, Config{Port: 0, Gamma: 2.2}, sink)
	conn := dialReceiver(t, r)

	_, err := conn.Write(osc.AppendColorMessage(nil, "/", []color.RGBA{{128, 255, 0, 9}}))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 1 }, 2*time.Second, time.Millisecond)
	g, err := NewGamma(2.2)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{g[128], 255, 0, 9}, sink.snapshot()[0][0])
}

func TestReceiverSinkFailureContinues(t *testing.T) {
	sink := &recordingSink{err: errors.New("strip unplugged")}
	r, _, _ := startReceiver(t, Config{Port: 0}, sink)
	conn := dialReceiver(t, r)

	for range 2 {
		_, err := conn.Write(osc.AppendColorMessage(nil, "/", []color.RGBA{{1, 1, 1, 1}}))
		require.NoError(t, err)
		time.Sleep(20 * time.Millisecond)
	}
	require.Eventually(t, func() bool { return r.Stats().Failed == 2 }, 2*time.Second, time.Millisecond)
}

func TestListenErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"port out of range", Config{Port: 70000}},
		{"negative gamma", Config{Port: 0, Gamma: -2}},
		{"negative mtu", Config{Port: 0, MTU: -5}},
		{"mtu above datagram", Config{Port: 0, MTU: 70000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Listen(tt.cfg)
			assert.Error(t, err)
			assert.Nil(t, r)
		})
	}
}

func TestRunTestRejectsBadInput(t *testing.T) {
	sink := &recordingSink{}
	assert.Error(t, RunTest(context.Background(), sink, -1, TestDelay))
	assert.Error(t, RunTest(context.Background(), sink, 0, TestDelay))
	assert.Error(t, RunTest(context.Background(), sink, TestLEDs, 0))
	assert.Empty(t, sink.snapshot())
}

func TestReceiverAppliesTruncatedPacket(t *testing.T) {
	sink := &recordingSink{}
	r, _, _ := startReceiver(t, Config{Port: 0}, sink)
	conn := dialReceiver(t, r)

	// Two colors, then an argument type the decoder does not know.
	packet := []byte("/\x00\x00\x00,rrz\x00\x00\x00\x00")
	packet = append(packet, 1, 2, 3, 4, 5, 6, 7, 8, 0, 0, 0, 0)
	_, err := conn.Write(packet)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 1 }, 2*time.Second, time.Millisecond)
	assert.Equal(t, []color.RGBA{{1, 2, 3, 4}, {5, 6, 7, 8}}, sink.snapshot()[0])
	st := r.Stats()
	assert.Equal(t, uint64(1), st.Truncated)
	assert.Equal(t, uint64(0), st.Rejected)
}
