package vm_test

import (
	"errors"
	"testing"
	"time"

	"vm1600/internal/vm"
)

func TestHexDisplayAlwaysRedraws(t *testing.T) {
	hex := vm.NewHexDisplay()

	redraw, err := hex.Write(vm.HexDisplayLowAddr, 0x1234)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if !redraw {
		t.Error("HexDisplay write did not request a redraw")
	}

	if _, err := hex.Read(vm.HexDisplayLowAddr); err == nil {
		t.Error("HexDisplay.Read() should be unreadable")
	}
}

func TestLcdDisplayCommitsPendingCell(t *testing.T) {
	lcd := vm.NewLcdDisplay()

	if _, err := lcd.Write(vm.LcdCursorXAddr, 3); err != nil {
		t.Fatalf("write cursor X: %v", err)
	}

	if _, err := lcd.Write(vm.LcdCursorYAddr, 1); err != nil {
		t.Fatalf("write cursor Y: %v", err)
	}

	if _, err := lcd.Write(vm.LcdCharAddr, vm.Word('Q')); err != nil {
		t.Fatalf("write char: %v", err)
	}

	redraw, err := lcd.Write(vm.LcdCommitAddr, 1)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	if !redraw {
		t.Error("LCD commit did not request a redraw")
	}

	deadline := time.After(time.Second)

	for {
		if lcd.Grid()[1][3] == 'Q' {
			break
		}

		select {
		case <-deadline:
			t.Fatal("commit never landed in the grid")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestLcdCharRegisterMasksToLowByte(t *testing.T) {
	lcd := vm.NewLcdDisplay()

	// 0x141 ('A' | high garbage) must land as 0x41 ('A'), not overflow rune.
	if _, err := lcd.Write(vm.LcdCharAddr, 0x141); err != nil {
		t.Fatalf("write char: %v", err)
	}

	if _, err := lcd.Write(vm.LcdCursorXAddr, 0); err != nil {
		t.Fatalf("write cursor X: %v", err)
	}

	if _, err := lcd.Write(vm.LcdCursorYAddr, 0); err != nil {
		t.Fatalf("write cursor Y: %v", err)
	}

	pending, err := lcd.Read(vm.LcdCharAddr)
	if err != nil {
		t.Fatalf("read char: %v", err)
	}

	if pending != 0x41 {
		t.Errorf("pending char = %#x, want 0x41", pending)
	}
}

func TestKeyboardBusyWhileArmed(t *testing.T) {
	kbd := vm.NewKeyboard()

	if _, err := kbd.Write(vm.KeyboardTurnAddr, 1); err != nil {
		t.Fatalf("arm: %v", err)
	}

	_, err := kbd.Read(vm.KeyboardKeycodeAddr)

	var devErr *vm.DeviceError
	if !errors.As(err, &devErr) || devErr.Kind != vm.Busy {
		t.Fatalf("Read() while armed = %v, want Busy", err)
	}

	kbd.Update(true, 'x')

	val, err := kbd.Read(vm.KeyboardKeycodeAddr)
	if err != nil {
		t.Fatalf("Read() after Update: %v", err)
	}

	if val != vm.Word('x') {
		t.Errorf("keycode = %s, want 'x'", val)
	}

	turn, err := kbd.Read(vm.KeyboardTurnAddr)
	if err != nil {
		t.Fatalf("Read(turn): %v", err)
	}

	if turn != 0 {
		t.Error("turn bit still set after Update")
	}
}

func TestKeyboardArmRejectsNonOneValues(t *testing.T) {
	kbd := vm.NewKeyboard()

	for _, val := range []vm.Word{0, 2, -1} {
		_, err := kbd.Write(vm.KeyboardTurnAddr, val)

		var devErr *vm.DeviceError
		if !errors.As(err, &devErr) || devErr.Kind != vm.Unwritable {
			t.Errorf("Write(turn, %s) = %v, want Unwritable", val, err)
		}
	}
}

func TestVgaCommitPostsDrawCommandAndDoesNotRedraw(t *testing.T) {
	vga := vm.NewVGA()

	writes := []struct {
		addr vm.Addr
		val  vm.Word
	}{
		{vm.VgaModeAddr, 1},
		{vm.VgaX1Addr, 10},
		{vm.VgaY1Addr, 20},
		{vm.VgaX2Addr, 110},
		{vm.VgaY2Addr, 80},
		{vm.VgaColorAddr, 0x0000FF},
	}

	for _, w := range writes {
		if _, err := vga.Write(w.addr, w.val); err != nil {
			t.Fatalf("write %s: %v", w.addr, err)
		}
	}

	redraw, err := vga.Write(vm.VgaCommitAddr, 1)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	if redraw {
		t.Error("VGA commit reported Redraw = true, want false")
	}

	select {
	case cmd := <-vga.Commands():
		if cmd.X1 != 10 || cmd.Y1 != 20 || cmd.X2 != 110 || cmd.Y2 != 80 {
			t.Errorf("draw command rect = %+v, want {10,20,110,80}", cmd)
		}

		if cmd.R != 0xFF || cmd.G != 0x00 || cmd.B != 0x00 {
			t.Errorf("draw command color = {%#x,%#x,%#x}, want {0xFF,0x00,0x00} (low-byte-first)", cmd.R, cmd.G, cmd.B)
		}
	default:
		t.Fatal("no draw command posted")
	}
}

func TestVgaCommitReadReturnsTurnBit(t *testing.T) {
	vga := vm.NewVGA()

	val, err := vga.Read(vm.VgaCommitAddr)
	if err != nil {
		t.Fatalf("Read(commit) error = %v", err)
	}

	if val != 0 {
		t.Errorf("Read(commit) = %s, want 0", val)
	}
}

func TestVgaCommitZeroIsUnwritable(t *testing.T) {
	vga := vm.NewVGA()

	if _, err := vga.Write(vm.VgaModeAddr, 1); err != nil {
		t.Fatalf("enable write mode: %v", err)
	}

	_, err := vga.Write(vm.VgaCommitAddr, 0)

	var devErr *vm.DeviceError
	if !errors.As(err, &devErr) || devErr.Kind != vm.Unwritable {
		t.Fatalf("commit of 0 = %v, want Unwritable", err)
	}
}

func TestVgaCommitWithoutWriteModeIsDead(t *testing.T) {
	vga := vm.NewVGA()

	_, err := vga.Write(vm.VgaCommitAddr, 1)

	var devErr *vm.DeviceError
	if !errors.As(err, &devErr) || devErr.Kind != vm.Dead {
		t.Fatalf("commit without write mode = %v, want Dead", err)
	}
}

func TestVgaCommitDeadWhenQueueFull(t *testing.T) {
	vga := vm.NewVGA()

	if _, err := vga.Write(vm.VgaModeAddr, 1); err != nil {
		t.Fatalf("enable write mode: %v", err)
	}

	var lastErr error

	for i := 0; i < 16; i++ {
		_, lastErr = vga.Write(vm.VgaCommitAddr, 1)
	}

	var devErr *vm.DeviceError
	if !errors.As(lastErr, &devErr) || devErr.Kind != vm.Dead {
		t.Fatalf("commit into full queue = %v, want Dead", lastErr)
	}
}

func TestDeviceBusRegisterPanicsOnOverlap(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Register did not panic on overlapping claim")
		}
	}()

	bus := vm.NewDeviceBus()
	bus.Register(vm.NewHexDisplay())
	bus.Register(vm.NewHexDisplay())
}

func TestDeviceBusReadWriteUnmapped(t *testing.T) {
	bus := vm.NewDeviceBus()

	_, mapped, err := bus.Read(0x80000099)
	if mapped {
		t.Error("unmapped address reported mapped")
	}

	if err != nil {
		t.Errorf("unmapped read error = %v, want nil (mapped=false instead)", err)
	}

	_, mapped, err = bus.Write(0x80000099, 1)
	if mapped {
		t.Error("unmapped address reported mapped on write")
	}

	if err != nil {
		t.Errorf("unmapped write error = %v, want nil (mapped=false instead)", err)
	}
}
