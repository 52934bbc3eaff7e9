package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/kapitanov/chip8engine/internal/hal"
	"github.com/kapitanov/chip8engine/internal/tty"
	"github.com/kapitanov/chip8engine/internal/vm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type frontend interface {
	vm.HAL
	Shutdown()
}

type runFlags struct {
	speed     int
	seed      uint64
	scale     int
	tty       bool
	shiftVY   bool
	loadStore bool
}

func (f *runFlags) register(fs *pflag.FlagSet) {
	fs.IntVar(&f.speed, "speed", vm.DefaultSpeed, "instructions per second")
	fs.Uint64Var(&f.seed, "seed", 0, "random seed for the rand instruction (0 picks one)")
	fs.IntVar(&f.scale, "scale", hal.DefaultScale, "window scale factor")
	fs.BoolVar(&f.tty, "tty", false, "render in the terminal instead of a window")
	fs.BoolVar(&f.shiftVY, "quirk-shift-vy", false, "8xy6/8xyE shift vy into vx")
	fs.BoolVar(&f.loadStore, "quirk-load-store", false, "fx55/fx65 advance I past the last register")
}

func (f *runFlags) options() []vm.Option {
	opts := []vm.Option{
		vm.WithQuirks(vm.Quirks{
			ShiftUsesVY:          f.shiftVY,
			LoadStoreIncrementsI: f.loadStore,
		}),
	}
	if f.seed != 0 {
		opts = append(opts, vm.WithSeed(f.seed))
	}
	return opts
}

func main() {
	cmd := &cobra.Command{
		Use:           fmt.Sprintf("%s PATH_TO_ROM_FILE", filepath.Base(os.Args[0])),
		Short:         "Run emulator",
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
	}

	verbose := cmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose logging")
	cmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		loggerOpts := &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}
		if *verbose {
			loggerOpts.Level = slog.LevelDebug
		}

		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, loggerOpts)))
	}

	var flags runFlags
	flags.register(cmd.Flags())

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		bs, err := readROM(args[0])
		if err != nil {
			return err
		}

		var h frontend
		if flags.tty {
			h, err = tty.New()
		} else {
			h, err = hal.New(flags.scale)
		}
		if err != nil {
			return fmt.Errorf("unable to initialize hal: %w", err)
		}
		defer h.Shutdown()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		machine := vm.New(flags.options()...)

		for {
			if err := machine.LoadROM(bs); err != nil {
				return fmt.Errorf("unable to load rom: %w", err)
			}

			err = machine.Run(ctx, h, vm.RunOptions{Speed: flags.speed})

			if errors.Is(err, hal.ErrQuit) || errors.Is(err, tty.ErrQuit) || errors.Is(err, context.Canceled) {
				return nil
			}

			if errors.Is(err, hal.ErrReboot) || errors.Is(err, tty.ErrReboot) {
				slog.Info("reboot")
				machine.Reset()
				continue
			}

			return err
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "disasm PATH_TO_ROM_FILE",
		Short: "Print a listing of a rom",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bs, err := readROM(args[0])
			if err != nil {
				return err
			}
			return vm.Disassemble(cmd.OutOrStdout(), bs)
		},
	})

	cmd.SetArgs(os.Args[1:])
	if err := cmd.Execute(); err != nil {
		slog.Error("fatal error", "err", err)
		os.Exit(1)
	}
}

func readROM(path string) ([]byte, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to load file %q: %w", path, err)
	}
	return bs, nil
}
