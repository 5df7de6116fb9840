package render

import (
	"context"
	"fmt"
	"image"
	"sync"

	uv "github.com/charmbracelet/ultraviolet"
)

// Terminal is an alternate-screen terminal used for debug previews. Key
// presses of esc, q or ctrl+c call the quit function passed to
// OpenTerminal.
type Terminal struct {
	term *uv.Terminal

	mu            sync.Mutex
	width, height int
}

// OpenTerminal takes over the controlling terminal.
func OpenTerminal(quit func()) (*Terminal, error) {
	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return nil, fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return nil, fmt.Errorf("start terminal: %w", err)
	}
	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	t := &Terminal{term: term, width: width, height: height}
	go t.events(quit)
	return t, nil
}

func (t *Terminal) events(quit func()) {
	for ev := range t.term.Events() {
		switch ev := ev.(type) {
		case uv.WindowSizeEvent:
			t.mu.Lock()
			t.width, t.height = ev.Width, ev.Height
			t.term.Erase()
			t.term.Resize(ev.Width, ev.Height)
			t.mu.Unlock()
		case uv.KeyPressEvent:
			if ev.MatchString("escape", "q", "ctrl+c") {
				quit()
			}
		}
	}
}

// Area returns the full screen rectangle in cells.
func (t *Terminal) Area() uv.Rectangle {
	t.mu.Lock()
	defer t.mu.Unlock()
	return image.Rect(0, 0, t.width, t.height)
}

// Screen returns the drawable screen.
func (t *Terminal) Screen() uv.Screen {
	return t.term
}

// Flush pushes drawn cells to the terminal.
func (t *Terminal) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.term.Display()
}

// Close restores the terminal.
func (t *Terminal) Close() error {
	t.term.ExitAltScreen()
	t.term.ShowCursor()
	return t.term.Shutdown(context.Background())
}
