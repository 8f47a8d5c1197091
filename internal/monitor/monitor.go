// Package monitor implements the interactive line-mode debugger: a
// liner-backed REPL that drives an Executor's Handle with step, run,
// stop, reset, load, and dump commands.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"vm1600/internal/image"
	"vm1600/internal/vm"
)

const prompt = "vm1600> "

// command is one REPL verb: a prefix-matched name and the func that
// executes it against the shared Handle.
type command struct {
	name string
	min  int // minimum unambiguous prefix length
	help string
	run  func(mon *Monitor, args []string) error
}

var commands = []command{
	{name: "step", min: 1, help: "step [n]            execute n steps (default 1)", run: cmdStep},
	{name: "run", min: 2, help: "run                  start free-running execution", run: cmdRun},
	{name: "stop", min: 2, help: "stop                 pause execution", run: cmdStop},
	{name: "reset", min: 3, help: "reset                reset IAR and memory to zero, then reload the last `load` file", run: cmdReset},
	{name: "load", min: 1, help: "load <file>          parse a program image into memory", run: cmdLoad},
	{name: "dump", min: 2, help: "dump <addr> [count]  print memory starting at addr", run: cmdDump},
	{name: "help", min: 1, help: "help                 list commands", run: cmdHelp},
	{name: "quit", min: 1, help: "quit                 exit the monitor", run: cmdQuit},
}

// Monitor is the REPL's state: the Handle it drives, the image path
// last loaded (for reset), and the output stream for dump/help.
type Monitor struct {
	handle *vm.Handle
	out    io.Writer

	imagePath string
}

// New creates a Monitor over handle, writing command output to out.
func New(handle *vm.Handle, out io.Writer) *Monitor {
	return &Monitor{
		handle: handle,
		out:    out,
	}
}

// Run reads commands from stdin until the user quits, ctx is
// cancelled, or the input stream is exhausted.
func (mon *Monitor) Run(ctx context.Context) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(mon.complete)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		text, err := line.Prompt(prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}

			return err
		}

		if strings.TrimSpace(text) == "" {
			continue
		}

		line.AppendHistory(text)

		quit, err := mon.dispatch(text)
		if err != nil {
			fmt.Fprintln(mon.out, "error:", err)
		}

		if quit {
			return nil
		}
	}
}

func (mon *Monitor) dispatch(text string) (quit bool, err error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false, nil
	}

	name, args := fields[0], fields[1:]

	match := matchCommands(name)

	switch len(match) {
	case 0:
		return false, fmt.Errorf("unknown command: %s", name)
	case 1:
		// fallthrough below
	default:
		return false, fmt.Errorf("ambiguous command: %s", name)
	}

	if match[0].name == "quit" {
		return true, nil
	}

	return false, match[0].run(mon, args)
}

func (mon *Monitor) complete(text string) []string {
	var matches []string

	for _, c := range commands {
		if strings.HasPrefix(c.name, text) {
			matches = append(matches, c.name)
		}
	}

	return matches
}

func matchCommands(name string) []command {
	name = strings.ToLower(name)

	var match []command

	for _, c := range commands {
		if len(name) >= c.min && strings.HasPrefix(c.name, name) {
			match = append(match, c)
		}
	}

	return match
}

func cmdStep(mon *Monitor, args []string) error {
	n := 1

	if len(args) > 0 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("step count: %w", err)
		}

		n = parsed
	}

	for i := 0; i < n; i++ {
		report, err := mon.handle.Step()
		if err != nil {
			return err
		}

		env := mon.handle.View()

		if report.Changed != nil {
			fmt.Fprintf(mon.out, "IAR=%s changed=%s\n", env.IAR, *report.Changed)
		}
	}

	return nil
}

func cmdRun(mon *Monitor, _ []string) error {
	mon.handle.Start()
	fmt.Fprintln(mon.out, "running")

	return nil
}

func cmdStop(mon *Monitor, _ []string) error {
	mon.handle.Stop()
	fmt.Fprintln(mon.out, "stopped")

	return nil
}

func cmdReset(mon *Monitor, _ []string) error {
	env := vm.New()

	if mon.imagePath != "" {
		if err := loadImage(mon.imagePath, env); err != nil {
			return err
		}
	}

	mon.handle.Reset(env)
	fmt.Fprintln(mon.out, "reset")

	return nil
}

func cmdLoad(mon *Monitor, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: load <file>")
	}

	env := mon.handle.View()
	if err := loadImage(args[0], &env); err != nil {
		return err
	}

	mon.handle.Reset(&env)
	mon.imagePath = args[0]

	fmt.Fprintln(mon.out, "loaded", args[0])

	return nil
}

func loadImage(path string, env *vm.Environment) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	mem, err := image.Parse(file)
	if err != nil {
		return err
	}

	env.Memory = mem

	return nil
}

func cmdDump(mon *Monitor, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: dump <addr> [count]")
	}

	addr, err := strconv.ParseUint(args[0], 0, 32)
	if err != nil {
		return fmt.Errorf("address: %w", err)
	}

	count := 8

	if len(args) > 1 {
		count, err = strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("count: %w", err)
		}
	}

	env := mon.handle.View()

	for i := 0; i < count; i++ {
		a := vm.Addr(addr) + vm.Addr(i)
		if uint32(a) >= vm.NumWords {
			break
		}

		fmt.Fprintf(mon.out, "%s: %s\n", a, env.Memory[a])
	}

	return nil
}

func cmdHelp(mon *Monitor, _ []string) error {
	for _, c := range commands {
		fmt.Fprintln(mon.out, c.help)
	}

	return nil
}

func cmdQuit(_ *Monitor, _ []string) error {
	return nil
}
