package vm

// hexdisplay.go has the hex display: two write-only cells, each atomically
// updated, always asking for a redraw.

import (
	"fmt"
	"sync/atomic"
)

// HexDisplay addresses.
const (
	HexDisplayLowAddr  Addr = 0x80000003
	HexDisplayHighAddr Addr = 0x80000004
)

// HexDisplay is a pair of write-only registers rendered as hexadecimal
// digits. Every write requests a redraw; reads are unsupported.
type HexDisplay struct {
	low, high atomic.Uint32
}

// NewHexDisplay creates a hex display with both cells at zero.
func NewHexDisplay() *HexDisplay {
	return &HexDisplay{}
}

func (h *HexDisplay) ClaimedAddresses() []Addr {
	return []Addr{HexDisplayLowAddr, HexDisplayHighAddr}
}

func (h *HexDisplay) Read(addr Addr) (Word, error) {
	return 0, newDeviceError(Unreadable, addr)
}

func (h *HexDisplay) Write(addr Addr, val Word) (bool, error) {
	switch addr {
	case HexDisplayLowAddr:
		h.low.Store(uint32(val) & 0xffff)
	case HexDisplayHighAddr:
		h.high.Store(uint32(val) & 0xffff)
	default:
		return false, newDeviceError(Unwritable, addr)
	}

	return true, nil
}

func (h *HexDisplay) String() string {
	return fmt.Sprintf("HexDisplay(low:%#04x, high:%#04x)", h.low.Load(), h.high.Load())
}
