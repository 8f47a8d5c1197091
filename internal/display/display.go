// Package display pins an SDL2 window and renderer to a dedicated
// goroutine and bridges it to a running Environment: it drains the
// VGA device's draw-command queue into filled rectangles and delivers
// keyboard events to the Keyboard device, matching the thread-pinning
// rule that devices never call SDL directly. Mouse events are not
// handled.
package display

import (
	"context"
	"errors"
	"runtime"

	"github.com/veandco/go-sdl2/sdl"

	"vm1600/internal/log"
	"vm1600/internal/vm"
)

const (
	windowWidth  = 640
	windowHeight = 480
	windowTitle  = "vm1600"
)

// WithDisplay opens a window on its own OS thread and starts pumping
// draw commands from vga and input events into kbd, until ctx is
// cancelled or the window is closed. The returned cancel func stops
// the pump and tears down the window; callers must call it exactly
// once.
func WithDisplay(parent context.Context, vga *vm.VGA, kbd *vm.Keyboard) (context.Context, func()) {
	ctx, cause := context.WithCancelCause(parent)

	ready := make(chan error, 1)

	go run(ctx, cause, ready, vga, kbd)

	if err := <-ready; err != nil {
		cause(err)
		return ctx, func() { cause(context.Canceled) }
	}

	return ctx, func() { cause(context.Canceled) }
}

func run(ctx context.Context, cause context.CancelCauseFunc, ready chan<- error, vga *vm.VGA, kbd *vm.Keyboard) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	logger := log.DefaultLogger()

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		ready <- err
		return
	}
	defer sdl.Quit()

	window, err := sdl.CreateWindow(windowTitle,
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		windowWidth, windowHeight, sdl.WINDOW_SHOWN)
	if err != nil {
		ready <- err
		return
	}
	defer window.Destroy()

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		ready <- err
		return
	}
	defer renderer.Destroy()

	ready <- nil

	commands := vga.Commands()

	logger.Info("display attached")

	for {
		if ctx.Err() != nil {
			return
		}

		redrawn := false

		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch ev := event.(type) {
			case *sdl.QuitEvent:
				cause(errors.New("display: window closed"))
				return
			case *sdl.KeyboardEvent:
				down := ev.Type == sdl.KEYDOWN
				kbd.Update(down, vm.Word(ev.Keysym.Sym))
			}
		}

	drain:
		for {
			select {
			case cmd, ok := <-commands:
				if !ok {
					break drain
				}

				drawRect(renderer, cmd)
				redrawn = true
			default:
				break drain
			}
		}

		if redrawn {
			renderer.Present()
		}

		sdl.Delay(16) // ~60Hz poll/drain cadence
	}
}

func drawRect(renderer *sdl.Renderer, cmd vm.DrawCommand) {
	renderer.SetDrawColor(cmd.R, cmd.G, cmd.B, 255)

	rect := sdl.Rect{
		X: int32(cmd.X1),
		Y: int32(cmd.Y1),
		W: int32(cmd.X2 - cmd.X1),
		H: int32(cmd.Y2 - cmd.Y1),
	}

	renderer.FillRect(&rect)
}
