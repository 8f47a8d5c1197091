package vm

// lcd.go has the LCD text display: a 14x2 character grid, a cursor
// position, and a commit register that dispatches the pending character
// into the grid asynchronously, the way the hex display's predecessor,
// the CRT Display, notified its listeners without blocking the writer.

import (
	"fmt"
	"sync"
)

// LcdDisplay addresses.
const (
	LcdCommitAddr  Addr = 0x80000010
	LcdCursorXAddr Addr = 0x80000011
	LcdCursorYAddr Addr = 0x80000012
	LcdCharAddr    Addr = 0x80000013
)

const (
	lcdCols = 14
	lcdRows = 2
)

// LcdDisplay is a small character grid. Writing the cursor and character
// registers stages a pending cell; writing a non-zero value to the commit
// register dispatches the staged cell into the grid on its own goroutine.
type LcdDisplay struct {
	mut  sync.Mutex
	grid [lcdRows][lcdCols]rune

	curX, curY int
	pending    rune
}

// NewLcdDisplay creates an LCD display with a blank grid.
func NewLcdDisplay() *LcdDisplay {
	d := &LcdDisplay{}

	for y := range d.grid {
		for x := range d.grid[y] {
			d.grid[y][x] = ' '
		}
	}

	return d
}

func (d *LcdDisplay) ClaimedAddresses() []Addr {
	return []Addr{LcdCursorXAddr, LcdCursorYAddr, LcdCharAddr, LcdCommitAddr}
}

func (d *LcdDisplay) Read(addr Addr) (Word, error) {
	d.mut.Lock()
	defer d.mut.Unlock()

	switch addr {
	case LcdCursorXAddr:
		return Word(d.curX), nil
	case LcdCursorYAddr:
		return Word(d.curY), nil
	case LcdCharAddr:
		return Word(d.pending), nil
	case LcdCommitAddr:
		return 0, nil // commits are fire-and-forget, never busy
	default:
		return 0, newDeviceError(Unreadable, addr)
	}
}

func (d *LcdDisplay) Write(addr Addr, val Word) (bool, error) {
	switch addr {
	case LcdCursorXAddr:
		d.mut.Lock()
		d.curX = int(uint32(val)) % lcdCols
		d.mut.Unlock()

		return false, nil
	case LcdCursorYAddr:
		d.mut.Lock()
		d.curY = int(uint32(val)) % lcdRows
		d.mut.Unlock()

		return false, nil
	case LcdCharAddr:
		d.mut.Lock()
		d.pending = rune(val & 0xff)
		d.mut.Unlock()

		return false, nil
	case LcdCommitAddr:
		if val == 0 {
			return false, newDeviceError(Unwritable, addr)
		}

		d.mut.Lock()
		x, y, ch := d.curX, d.curY, d.pending
		d.mut.Unlock()

		go d.commit(x, y, ch)

		return true, nil
	default:
		return false, newDeviceError(Unwritable, addr)
	}
}

func (d *LcdDisplay) commit(x, y int, ch rune) {
	d.mut.Lock()
	defer d.mut.Unlock()

	d.grid[y][x] = ch
}

// Grid returns a copy of the character grid.
func (d *LcdDisplay) Grid() [lcdRows][lcdCols]rune {
	d.mut.Lock()
	defer d.mut.Unlock()

	return d.grid
}

func (d *LcdDisplay) String() string {
	d.mut.Lock()
	defer d.mut.Unlock()

	return fmt.Sprintf("LcdDisplay(cursor:(%d,%d))", d.curX, d.curY)
}
