package vm

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	TimerFrequency = 60
	DefaultSpeed   = 700

	framePeriod = time.Second / TimerFrequency

	// maxElapsed caps how much wall time one iteration may catch up on,
	// so a stalled frontend does not cause a burst of instructions.
	maxElapsed = 250 * time.Millisecond
)

// HAL is the frontend the run loop drives: it feeds the keypad, paints
// the display and plays the tone.
type HAL interface {
	ReadInput(keypad *Keypad) error
	Draw(display *Display) error
	SetTone(on bool) error
}

type RunOptions struct {
	// Speed is the instruction rate in steps per second.
	Speed int

	Now   func() time.Time
	Sleep func(time.Duration)
}

// Run steps the machine at opts.Speed and ticks the timers at 60 Hz until
// ctx is done, the HAL fails or an instruction fails.
func (vm *VM) Run(ctx context.Context, hal HAL, opts RunOptions) error {
	if opts.Speed <= 0 {
		opts.Speed = DefaultSpeed
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}

	stepPeriod := time.Second / time.Duration(opts.Speed)
	slog.Debug("run", "speed", opts.Speed, "step", stepPeriod, "frame", framePeriod)

	var (
		stepAcc  time.Duration
		timerAcc time.Duration
		tone     bool
		last     = opts.Now()
	)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := hal.ReadInput(&vm.keypad); err != nil {
			return err
		}

		now := opts.Now()
		elapsed := now.Sub(last)
		last = now
		if elapsed > maxElapsed {
			elapsed = maxElapsed
		}
		stepAcc += elapsed
		timerAcc += elapsed

		for stepAcc >= stepPeriod {
			stepAcc -= stepPeriod
			if err := vm.Step(); err != nil {
				return err
			}
		}

		for timerAcc >= framePeriod {
			timerAcc -= framePeriod
			vm.TickTimers()
		}

		if on := vm.timers.Sound() > 0; on != tone {
			if err := hal.SetTone(on); err != nil {
				return fmt.Errorf("set tone: %w", err)
			}
			tone = on
		}

		if vm.display.Dirty() {
			if err := hal.Draw(&vm.display); err != nil {
				return err
			}
			vm.display.ClearDirty()
		}

		opts.Sleep(min(stepPeriod-stepAcc, framePeriod-timerAcc))
	}
}
