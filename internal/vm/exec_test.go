package vm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"vm1600/internal/vm"
)

const execTimeout = time.Second

func TestExecutorRunsUntilHaltAndReportsRedraw(t *testing.T) {
	env := vm.New()
	hexAddr := vm.HexDisplayLowAddr // a variable, so the conversion wraps instead of overflowing
	load(env, 0, vm.Word(vm.MOV), vm.Word(hexAddr), 8, 0)
	load(env, 8, 0x42)
	// IAR 4 is all zero: HLT.

	exec, handle := vm.NewExecutor(env)

	ctx, cancel := context.WithTimeout(context.Background(), execTimeout)
	defer cancel()

	go exec.Run(ctx)

	handle.Start()

	sawRedraw := false

	for {
		select {
		case ev := <-handle.Events():
			switch e := ev.(type) {
			case vm.RedrawEvent:
				sawRedraw = true
			case vm.FailureEvent:
				if !errors.Is(e.Err, vm.ErrHalted) {
					t.Fatalf("FailureEvent.Err = %v, want ErrHalted", e.Err)
				}

				if !sawRedraw {
					t.Error("halted without observing a RedrawEvent for the hex display write")
				}

				return
			}
		case <-ctx.Done():
			t.Fatal("executor did not halt before the test timeout")
		}
	}
}

func TestExecutorStopPausesBeforeNextStep(t *testing.T) {
	env := vm.New()
	// An unconditional self-jump: BEQ target=0, a2=a3=0 compares equal forever.
	load(env, 0, vm.Word(vm.BEQ), 0, 0, 0)

	exec, handle := vm.NewExecutor(env)

	ctx, cancel := context.WithTimeout(context.Background(), execTimeout)
	defer cancel()

	go exec.Run(ctx)

	handle.Start()
	time.Sleep(10 * time.Millisecond)
	handle.Stop()

	view := handle.View()
	if view.IAR != 0 {
		t.Errorf("IAR = %s, want 0 (BEQ jumps to itself)", view.IAR)
	}
}

func TestHandleResetReplacesEnvironment(t *testing.T) {
	env := vm.New()
	load(env, 0, 0, 0, 0, 0) // HLT

	_, handle := vm.NewExecutor(env)

	fresh := vm.New(vm.WithIAR(4))
	handle.Reset(fresh)

	view := handle.View()
	if view.IAR != 4 {
		t.Errorf("IAR after Reset = %s, want 4", view.IAR)
	}
}

func TestHandleStep(t *testing.T) {
	env := vm.New()
	load(env, 0, vm.Word(vm.MOV), 4, 8, 0)
	load(env, 8, 99)

	_, handle := vm.NewExecutor(env)

	report, err := handle.Step()
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}

	if report.Changed == nil || *report.Changed != 4 {
		t.Errorf("Report.Changed = %v, want Some(4)", report.Changed)
	}

	if handle.View().Memory[4] != 99 {
		t.Errorf("M[4] = %s, want 99", handle.View().Memory[4])
	}
}
