package vm

// io.go contains the DeviceBus, which routes device-space addresses to
// registered peripherals.

import (
	"fmt"

	"vm1600/internal/log"
)

// Device is the contract every memory-mapped peripheral implements.
type Device interface {
	// ClaimedAddresses returns the fixed set of addresses this device
	// answers for. It is called once, at registration.
	ClaimedAddresses() []Addr

	Read(addr Addr) (Word, error)
	Write(addr Addr, val Word) (redraw bool, err error)
}

// DeviceBus routes reads and writes in device space to the device that
// claimed the address. Registration is append-only and claimed addresses
// must not overlap.
type DeviceBus struct {
	devices []Device
	index   map[Addr]int

	log *log.Logger
}

// NewDeviceBus creates an empty bus.
func NewDeviceBus() *DeviceBus {
	return &DeviceBus{
		index: make(map[Addr]int),
		log:   log.DefaultLogger(),
	}
}

// Register adds a device to the bus. It panics if any of the device's
// claimed addresses is already claimed by another device: overlapping
// claims are a wiring bug, not a runtime fault.
func (bus *DeviceBus) Register(dev Device) {
	idx := len(bus.devices)
	addrs := dev.ClaimedAddresses()

	for _, addr := range addrs {
		if other, ok := bus.index[addr]; ok {
			panic(fmt.Sprintf("vm: address %s already claimed by device %d", addr, other))
		}

		bus.index[addr] = idx
	}

	bus.devices = append(bus.devices, dev)

	bus.log.Debug("registered device",
		log.String("ADDRS", fmt.Sprint(addrs)))
}

// Read dispatches addr to its claiming device. mapped is false if no
// device claims addr.
func (bus *DeviceBus) Read(addr Addr) (val Word, mapped bool, err error) {
	idx, ok := bus.index[addr]
	if !ok {
		return 0, false, nil
	}

	val, err = bus.devices[idx].Read(addr)

	return val, true, err
}

// Write dispatches addr to its claiming device. mapped is false if no
// device claims addr.
func (bus *DeviceBus) Write(addr Addr, val Word) (redraw, mapped bool, err error) {
	idx, ok := bus.index[addr]
	if !ok {
		return false, false, nil
	}

	redraw, err = bus.devices[idx].Write(addr, val)

	return redraw, true, err
}
