package vm

// vga.go has the VGA-style framebuffer device: a filled-rectangle command
// assembled from six registers and posted, non-blocking, to whatever is
// driving the window.

import (
	"fmt"
)

// VGA addresses.
const (
	VgaCommitAddr Addr = 0x80000060
	VgaModeAddr   Addr = 0x80000061
	VgaX1Addr     Addr = 0x80000062
	VgaY1Addr     Addr = 0x80000063
	VgaX2Addr     Addr = 0x80000064
	VgaY2Addr     Addr = 0x80000065
	VgaColorAddr  Addr = 0x80000066
)

// drawQueueCapacity bounds how far the simulated CPU can get ahead of the
// window before a commit reports the device Dead.
const drawQueueCapacity = 10

// DrawCommand is one filled rectangle, posted to the draw queue by a VGA
// commit. Colour is 24-bit RGB.
type DrawCommand struct {
	X1, Y1, X2, Y2 int
	R, G, B        uint8
}

// VGA holds the six staged registers and the bounded queue that the
// display subsystem drains.
type VGA struct {
	turn      bool
	writeMode bool
	x1, y1    Word
	x2, y2    Word
	color     Word

	queue chan DrawCommand
}

// NewVGA creates a VGA device with a draw queue of the standard capacity.
func NewVGA() *VGA {
	return &VGA{queue: make(chan DrawCommand, drawQueueCapacity)}
}

// Commands exposes the draw queue to the display subsystem. It must be
// drained continuously or commits will report the device Dead.
func (v *VGA) Commands() <-chan DrawCommand {
	return v.queue
}

func (v *VGA) ClaimedAddresses() []Addr {
	return []Addr{
		VgaCommitAddr, VgaModeAddr, VgaX1Addr, VgaY1Addr, VgaX2Addr, VgaY2Addr, VgaColorAddr,
	}
}

func (v *VGA) Read(addr Addr) (Word, error) {
	switch addr {
	case VgaModeAddr:
		if v.writeMode {
			return 1, nil
		}

		return 0, nil
	case VgaCommitAddr:
		if v.turn {
			return 1, nil
		}

		return 0, nil
	default:
		return 0, newDeviceError(Unreadable, addr)
	}
}

func (v *VGA) Write(addr Addr, val Word) (bool, error) {
	switch addr {
	case VgaModeAddr:
		v.writeMode = val != 0
		return false, nil
	case VgaX1Addr:
		v.x1 = val & 0x3ff // 10 bits
		return false, nil
	case VgaY1Addr:
		v.y1 = val & 0x1ff // 9 bits
		return false, nil
	case VgaX2Addr:
		v.x2 = val & 0x3ff
		return false, nil
	case VgaY2Addr:
		v.y2 = val & 0x1ff
		return false, nil
	case VgaColorAddr:
		v.color = val & 0xffffff // 24 bits
		return false, nil
	case VgaCommitAddr:
		if val == 0 {
			return false, newDeviceError(Unwritable, addr)
		}

		if !v.writeMode {
			return false, newDeviceError(Dead, addr)
		}

		cmd := DrawCommand{
			X1: int(v.x1), Y1: int(v.y1), X2: int(v.x2), Y2: int(v.y2),
			// low-byte-first: R is the low byte of the 24-bit colour.
			R: uint8(v.color), G: uint8(v.color >> 8), B: uint8(v.color >> 16),
		}

		select {
		case v.queue <- cmd:
			// redraw is driven by the display subsystem once it has
			// actually drawn the rectangle, not by the commit itself.
			return false, nil
		default:
			return false, newDeviceError(Dead, addr)
		}
	default:
		return false, newDeviceError(Unwritable, addr)
	}
}

func (v *VGA) String() string {
	return fmt.Sprintf("VGA(mode:%t, rect:(%d,%d)-(%d,%d), color:%#06x)",
		v.writeMode, v.x1, v.y1, v.x2, v.y2, v.color)
}
