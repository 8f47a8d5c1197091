package vm

// mem.go contains the Environment's memory access primitives, which split
// addresses between local memory and the DeviceBus.

import (
	"errors"
	"fmt"
)

// read loads one word, routing device addresses to the DeviceBus.
func (env *Environment) read(addr Addr) (Word, error) {
	if !addr.IsDevice() {
		return env.Memory[addr], nil
	}

	val, mapped, err := env.Devices.Read(addr)
	if err != nil {
		return 0, &DeviceFailureError{Addr: addr, Err: err}
	}

	if !mapped {
		return 0, &InvalidIndexError{Addr: addr}
	}

	return val, nil
}

// write stores one word, routing device addresses to the DeviceBus. A write
// to local memory never faults and never requests a redraw.
func (env *Environment) write(addr Addr, val Word) (redraw bool, err error) {
	if !addr.IsDevice() {
		env.Memory[addr] = val
		return false, nil
	}

	redraw, mapped, err := env.Devices.Write(addr, val)
	if err != nil {
		return false, &DeviceFailureError{Addr: addr, Err: err}
	}

	if !mapped {
		return false, &InvalidIndexError{Addr: addr}
	}

	return redraw, nil
}

// InvalidIndexError is the fault raised when an address in device space is
// not claimed by any registered device.
type InvalidIndexError struct{ Addr Addr }

func (e *InvalidIndexError) Error() string {
	return fmt.Sprintf("invalid index: %s: no device mapped", e.Addr)
}

// DeviceFailureError wraps a device's own error, identifying the address
// that was being accessed when it occurred.
type DeviceFailureError struct {
	Addr Addr
	Err  error
}

func (e *DeviceFailureError) Error() string {
	return fmt.Sprintf("device failure at %s: %s", e.Addr, e.Err)
}

func (e *DeviceFailureError) Unwrap() error { return e.Err }

func (e *DeviceFailureError) Is(target error) bool {
	var other *DeviceFailureError
	return errors.As(target, &other)
}
