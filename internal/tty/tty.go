// Package tty is a text frontend for machines without a display server.
// It draws the screen with half-block glyphs and reads keys from a raw
// terminal.
package tty

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
	"unicode"

	"github.com/kapitanov/chip8engine/internal/vm"
	"golang.org/x/term"
)

var (
	ErrReboot = errors.New("reboot")
	ErrQuit   = errors.New("quit")
)

// Terminals report key presses only, so a key is held for holdTime after
// its last byte arrives. Auto-repeat keeps a held physical key down.
const holdTime = 150 * time.Millisecond

const (
	ctrlC     = 0x03
	backspace = 0x08
	del       = 0x7f
)

type Terminal struct {
	out   io.Writer
	input <-chan byte
	now   func() time.Time

	release [vm.KeyCount]time.Time
	frame   bytes.Buffer

	restore func()
}

// New switches stdin to raw mode and starts reading it. Shutdown puts
// the terminal back.
func New() (*Terminal, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("stdin is not a terminal")
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to set raw mode: %w", err)
	}
	slog.Debug("tty: raw mode")

	input := make(chan byte, 64)
	go readInput(os.Stdin, input)

	t := newTerminal(os.Stdout, input, time.Now)
	t.restore = func() {
		if err := term.Restore(fd, oldState); err != nil {
			slog.Error("failed to restore terminal", "err", err)
		}
	}

	// clear, hide cursor
	fmt.Fprint(t.out, "\x1b[2J\x1b[?25l")
	return t, nil
}

func newTerminal(out io.Writer, input <-chan byte, now func() time.Time) *Terminal {
	return &Terminal{
		out:   out,
		input: input,
		now:   now,
	}
}

func readInput(r io.Reader, input chan<- byte) {
	buf := make([]byte, 16)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			select {
			case input <- b:
			default:
			}
		}
		if err != nil {
			close(input)
			return
		}
	}
}

func (t *Terminal) Shutdown() {
	fmt.Fprint(t.out, "\x1b[?25h\r\n")
	if t.restore != nil {
		t.restore()
	}
}

func (t *Terminal) ReadInput(keypad *vm.Keypad) error {
	now := t.now()

drain:
	for {
		select {
		case b, ok := <-t.input:
			if !ok {
				return ErrQuit
			}
			switch b {
			case ctrlC:
				slog.Debug("tty: exit requested")
				return ErrQuit
			case backspace, del:
				slog.Debug("tty: reboot requested")
				return ErrReboot
			}
			if key, ok := keyMap(b); ok {
				keypad.SetPressed(key, true)
				t.release[key] = now.Add(holdTime)
			}
		default:
			break drain
		}
	}

	for i, deadline := range t.release {
		if !deadline.IsZero() && !now.Before(deadline) {
			keypad.SetPressed(vm.Key(i), false)
			t.release[i] = time.Time{}
		}
	}

	return nil
}

// keyMap uses the same layout as the SDL frontend:
//
//	1 2 3 4      1 2 3 C
//	q w e r  =>  4 5 6 D
//	a s d f      7 8 9 E
//	z x c v      A 0 B F
func keyMap(b byte) (vm.Key, bool) {
	switch unicode.ToLower(rune(b)) {
	case 'x':
		return vm.Key0, true
	case '1':
		return vm.Key1, true
	case '2':
		return vm.Key2, true
	case '3':
		return vm.Key3, true
	case 'q':
		return vm.Key4, true
	case 'w':
		return vm.Key5, true
	case 'e':
		return vm.Key6, true
	case 'a':
		return vm.Key7, true
	case 's':
		return vm.Key8, true
	case 'd':
		return vm.Key9, true
	case 'z':
		return vm.KeyA, true
	case 'c':
		return vm.KeyB, true
	case '4':
		return vm.KeyC, true
	case 'r':
		return vm.KeyD, true
	case 'f':
		return vm.KeyE, true
	case 'v':
		return vm.KeyF, true
	default:
		return 0, false
	}
}

func (t *Terminal) Draw(display *vm.Display) error {
	t.frame.Reset()
	t.frame.WriteString("\x1b[H")
	render(&t.frame, display.Pixels())

	_, err := t.out.Write(t.frame.Bytes())
	return err
}

// render writes two pixel rows per text row. Lines end in CRLF because
// the terminal is in raw mode.
func render(buf *bytes.Buffer, gfx []uint8) {
	for y := 0; y < vm.ScreenHeight; y += 2 {
		for x := 0; x < vm.ScreenWidth; x++ {
			top := gfx[y*vm.ScreenWidth+x] != 0
			bottom := gfx[(y+1)*vm.ScreenWidth+x] != 0

			switch {
			case top && bottom:
				buf.WriteRune('█')
			case top:
				buf.WriteRune('▀')
			case bottom:
				buf.WriteRune('▄')
			default:
				buf.WriteByte(' ')
			}
		}
		buf.WriteString("\r\n")
	}
}

func (t *Terminal) SetTone(on bool) error {
	if !on {
		return nil
	}
	_, err := io.WriteString(t.out, "\a")
	return err
}
