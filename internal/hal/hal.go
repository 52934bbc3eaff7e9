package hal

import (
	"errors"
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/kapitanov/chip8engine/internal/vm"
	"github.com/veandco/go-sdl2/sdl"
)

const DefaultScale = 16

type HAL struct {
	window          *sdl.Window
	renderer        *sdl.Renderer
	texture         *sdl.Texture
	backBuffer      []uint32
	backBufferPitch int

	beeper *beeper
}

var (
	ErrReboot = errors.New("reboot")
	ErrQuit   = errors.New("quit")
)

// New opens a window of ScreenWidth x ScreenHeight pixels magnified by
// scale. Audio is optional: without a device the machine runs silent.
func New(scale int) (*HAL, error) {
	if scale <= 0 {
		scale = DefaultScale
	}
	width, height := int32(vm.ScreenWidth*scale), int32(vm.ScreenHeight*scale)

	if err := sdl.Init(sdl.INIT_EVERYTHING); err != nil {
		return nil, fmt.Errorf("failed to init sdl: %w", err)
	}

	window, err := sdl.CreateWindow("CHIP-8", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, width, height, sdl.WINDOW_SHOWN|sdl.WINDOW_UTILITY)
	if err != nil {
		return nil, fmt.Errorf("failed to create sdl window: %w", err)
	}
	slog.Debug("hal: create window", "width", width, "height", height)
	window.Show()

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		return nil, fmt.Errorf("failed to create sdl renderer: %w", err)
	}
	err = renderer.SetLogicalSize(width, height)
	if err != nil {
		return nil, fmt.Errorf("failed to resize sdl renderer: %w", err)
	}
	slog.Debug("hal: create renderer")

	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_ARGB8888, sdl.TEXTUREACCESS_STREAMING, vm.ScreenWidth, vm.ScreenHeight)
	if err != nil {
		return nil, fmt.Errorf("failed to create sdl texture: %w", err)
	}
	slog.Debug("hal: create texture")

	b, err := newBeeper()
	if err != nil {
		slog.Warn("hal: audio unavailable", "err", err)
	} else {
		slog.Debug("hal: open audio device")
	}

	return &HAL{
		window:          window,
		renderer:        renderer,
		texture:         texture,
		backBuffer:      make([]uint32, vm.ScreenWidth*vm.ScreenHeight),
		backBufferPitch: int(vm.ScreenWidth) * int(unsafe.Sizeof(uint32(0))),
		beeper:          b,
	}, nil
}

func (hal *HAL) Shutdown() {
	if hal.beeper != nil {
		hal.beeper.close()
	}

	if err := hal.texture.Destroy(); err != nil {
		slog.Error("failed to destroy sdl texture", "err", err)
	}

	if err := hal.renderer.Destroy(); err != nil {
		slog.Error("failed to destroy sdl renderer", "err", err)
	}

	if err := hal.window.Destroy(); err != nil {
		slog.Error("failed to destroy sdl window", "err", err)
	}

	sdl.Quit()
}

func (hal *HAL) ReadInput(keypad *vm.Keypad) error {
	for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
		switch e.GetType() {
		case sdl.QUIT:
			slog.Debug("hal: exit requested")
			return ErrQuit

		case sdl.KEYDOWN:
			ke := e.(*sdl.KeyboardEvent)
			if ke.Keysym.Scancode == sdl.SCANCODE_BACKSPACE {
				slog.Debug("hal: reboot requested")
				return ErrReboot
			}
			if key, ok := keyMap(ke.Keysym.Scancode); ok {
				keypad.SetPressed(key, true)
			}

		case sdl.KEYUP:
			ke := e.(*sdl.KeyboardEvent)
			if key, ok := keyMap(ke.Keysym.Scancode); ok {
				keypad.SetPressed(key, false)
			}
		}
	}

	return nil
}

func keyMap(code sdl.Scancode) (vm.Key, bool) {
	// Physical                Logical
	// ================        =================
	// | 1 | 2 | 3 | 4 |       | 1 | 2 | 3 | C |
	// | q | w | e | r |       | 4 | 5 | 6 | D |
	// | a | s | d | f |  <=>  | 7 | 8 | 9 | E |
	// | z | x | c | v |       | A | 0 | B | F |
	// ================        =================

	switch code {
	case sdl.SCANCODE_X:
		return vm.Key0, true
	case sdl.SCANCODE_1:
		return vm.Key1, true
	case sdl.SCANCODE_2:
		return vm.Key2, true
	case sdl.SCANCODE_3:
		return vm.Key3, true
	case sdl.SCANCODE_Q:
		return vm.Key4, true
	case sdl.SCANCODE_W:
		return vm.Key5, true
	case sdl.SCANCODE_E:
		return vm.Key6, true
	case sdl.SCANCODE_A:
		return vm.Key7, true
	case sdl.SCANCODE_S:
		return vm.Key8, true
	case sdl.SCANCODE_D:
		return vm.Key9, true
	case sdl.SCANCODE_Z:
		return vm.KeyA, true
	case sdl.SCANCODE_C:
		return vm.KeyB, true
	case sdl.SCANCODE_4:
		return vm.KeyC, true
	case sdl.SCANCODE_R:
		return vm.KeyD, true
	case sdl.SCANCODE_F:
		return vm.KeyE, true
	case sdl.SCANCODE_V:
		return vm.KeyF, true
	default:
		return 0, false
	}
}

const (
	bgColor = uint32(0x000000)
	fgColor = uint32(0xbea700)
)

// fillBackBuffer converts the frame buffer to ARGB pixels.
func fillBackBuffer(dst []uint32, gfx []uint8) {
	for i, p := range gfx {
		color := bgColor
		if p != 0 {
			color = fgColor
		}
		dst[i] = color
	}
}

func (hal *HAL) Draw(display *vm.Display) error {
	fillBackBuffer(hal.backBuffer, display.Pixels())

	backBufferPtr := unsafe.Pointer(&hal.backBuffer[0])
	if err := hal.texture.Update(nil, backBufferPtr, hal.backBufferPitch); err != nil {
		return fmt.Errorf("failed to update sdl texture: %w", err)
	}

	if err := hal.renderer.Clear(); err != nil {
		return fmt.Errorf("failed to clear sdl renderer: %w", err)
	}

	if err := hal.renderer.Copy(hal.texture, nil, nil); err != nil {
		return fmt.Errorf("failed to copy sdl texture to renderer: %w", err)
	}

	hal.renderer.Present()
	return nil
}

func (hal *HAL) SetTone(on bool) error {
	if hal.beeper == nil {
		return nil
	}
	return hal.beeper.set(on)
}
