// Package console adapts a real Unix terminal, in raw mode, to the
// simulated Keyboard device, so the simulator can run without the SDL
// window attached. It only feeds keystrokes in; it does not render the
// LcdDisplay or HexDisplay state to the terminal.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"vm1600/internal/vm"
)

// Console is a simulated teletype using Unix terminal I/O.
type Console struct {
	in    *os.File
	out   *term.Terminal
	fd    int
	state *term.State
	keyCh chan byte
}

// ErrNoTTY is returned if standard input is not a terminal.
var ErrNoTTY = errors.New("console: not a TTY")

// WithConsole creates a Console over the standard streams and starts its
// background goroutines. Calling the returned cancel func restores the
// terminal state.
func WithConsole(parent context.Context, keyboard *vm.Keyboard) (context.Context, *Console, context.CancelFunc) {
	ctx, cause := context.WithCancelCause(parent)

	cons, err := NewConsole(os.Stdin, os.Stdout)
	if err != nil {
		cause(err)
		return ctx, cons, func() { cause(context.Canceled) }
	}

	go cons.readTerminal(ctx, cons.Restore)
	go cons.updateKeyboard(ctx, keyboard)

	return ctx, cons, cons.Restore
}

// NewConsole puts sin into raw mode and wraps sout for output. Callers
// must call Restore to return the terminal to its initial state.
func NewConsole(sin, sout *os.File) (*Console, error) {
	fd := int(sin.Fd())

	if !term.IsTerminal(fd) {
		return nil, ErrNoTTY
	}

	saved, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoTTY, err)
	}

	cons := &Console{
		fd:    fd,
		in:    sin,
		out:   term.NewTerminal(sout, ""),
		state: saved,
		keyCh: make(chan byte, 1),
	}

	if err := cons.setTerminalParams(1, 0); err != nil {
		return nil, err
	}

	return cons, nil
}

// Writer returns an io.Writer that writes to the terminal.
func (c *Console) Writer() io.Writer { return c.out }

// Restore returns the terminal to its initial state.
func (c *Console) Restore() {
	_ = os.Stdin.SetReadDeadline(time.Now())
	_ = term.Restore(c.fd, c.state)
}

func (c *Console) setTerminalParams(vmin, vtime byte) error {
	_ = syscall.SetNonblock(c.fd, true)

	termIO, err := unix.IoctlGetTermios(c.fd, getTermiosIoctl)
	if err != nil {
		return err
	}

	termIO.Cc[unix.VMIN] = vmin
	termIO.Cc[unix.VTIME] = vtime

	if err := unix.IoctlSetTermios(c.fd, setTermiosIoctl, termIO); err != nil {
		return err
	}

	_ = os.Stdin.SetReadDeadline(time.Time{})

	return nil
}

func (c *Console) readTerminal(ctx context.Context, cancel context.CancelFunc) {
	buf := bufio.NewReader(c.in)

	_ = syscall.SetNonblock(c.fd, false)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			b, err := buf.ReadByte()
			if err != nil {
				cancel()
				return
			}

			c.keyCh <- b
		}
	}
}

func (c *Console) updateKeyboard(ctx context.Context, kbd *vm.Keyboard) {
	for {
		select {
		case key := <-c.keyCh:
			kbd.Update(true, vm.Word(key))
		case <-ctx.Done():
			return
		}
	}
}
