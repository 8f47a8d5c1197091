// Package cli assembles the vm1600 command-line interface: the run,
// step, and version subcommands, and the global flags shared across
// them.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/urfave/cli.v2"

	"vm1600/internal/console"
	"vm1600/internal/display"
	"vm1600/internal/image"
	"vm1600/internal/log"
	"vm1600/internal/monitor"
	"vm1600/internal/vm"
)

// Version is the program version, set at build time via -ldflags.
var Version = "dev"

// App builds the top-level *cli.App.
func App() *cli.App {
	return &cli.App{
		Name:    "vm1600",
		Usage:   "fixed-width word simulator",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "trace",
				Usage: "write a line per executor event (redraw or failure) to `FILE`",
			},
			&cli.BoolFlag{
				Name:  "sdl",
				Usage: "attach the SDL window instead of the console bridge",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			runCommand,
			stepCommand,
			versionCommand,
		},
	}
}

func setup(c *cli.Context) error {
	if c.Bool("debug") {
		log.LogLevel.Set(log.Debug)
	}

	logger := log.NewFormattedLogger(os.Stderr)
	log.SetDefault(logger)
	log.DefaultLogger = func() *log.Logger { return logger }

	return nil
}

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "load an image and run it to completion",
	ArgsUsage: "<image>",
	Action:    runAction,
}

var stepCommand = &cli.Command{
	Name:      "step",
	Usage:     "load an image and drop into the interactive monitor",
	ArgsUsage: "<image>",
	Action:    stepAction,
}

var versionCommand = &cli.Command{
	Name:   "version",
	Usage:  "print the vm1600 version",
	Action: versionAction,
}

func versionAction(c *cli.Context) error {
	fmt.Fprintln(c.App.Writer, c.App.Version)
	return nil
}

func loadEnvironment(c *cli.Context) (*vm.Environment, error) {
	path := c.Args().First()
	if path == "" {
		return nil, errors.New("usage: vm1600 " + c.Command.Name + " <image>")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	mem, err := image.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	env := vm.New()
	env.Memory = mem

	return env, nil
}

func openTrace(c *cli.Context) (io.WriteCloser, error) {
	path := c.String("trace")
	if path == "" {
		return nil, nil
	}

	return os.Create(path)
}

func attachBridge(ctx context.Context, c *cli.Context, env *vm.Environment) (context.Context, func()) {
	if c.Bool("sdl") {
		return display.WithDisplay(ctx, env.Vga(), env.Keyboard())
	}

	ctx, _, cancel := console.WithConsole(ctx, env.Keyboard())

	return ctx, cancel
}

func runAction(c *cli.Context) error {
	env, err := loadEnvironment(c)
	if err != nil {
		return err
	}

	trace, err := openTrace(c)
	if err != nil {
		return err
	}

	if trace != nil {
		defer trace.Close()
	}

	exec, handle := vm.NewExecutor(env)

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	bridgeCtx, bridgeCancel := attachBridge(ctx, c, env)
	defer bridgeCancel()

	go exec.Run(bridgeCtx)

	handle.Start()

	for {
		select {
		case ev, ok := <-handle.Events():
			if !ok {
				return nil
			}

			if trace != nil {
				fmt.Fprintf(trace, "%#v\n", ev)
			}

			if fail, ok := ev.(vm.FailureEvent); ok {
				if errors.Is(fail.Err, vm.ErrHalted) {
					return nil
				}

				return fail.Err
			}
		case <-bridgeCtx.Done():
			if err := context.Cause(bridgeCtx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Warn("bridge stopped: " + err.Error())
			}

			return nil
		}
	}
}

func stepAction(c *cli.Context) error {
	env, err := loadEnvironment(c)
	if err != nil {
		return err
	}

	_, handle := vm.NewExecutor(env)

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	mon := monitor.New(handle, c.App.Writer)

	return mon.Run(ctx)
}
