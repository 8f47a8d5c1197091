package vm

// env.go defines the Environment and assembles it from its devices.

import (
	"fmt"

	"vm1600/internal/log"
)

// Environment is the complete state of one simulated machine: the
// instruction address register, local memory, and the bus of devices
// mapped above it.
type Environment struct {
	IAR    Addr
	Memory [NumWords]Word

	Devices *DeviceBus

	poison bool

	log *log.Logger

	hex *HexDisplay
	lcd *LcdDisplay
	kbd *Keyboard
	vga *VGA
}

// New creates an Environment with its peripherals registered on the
// DeviceBus. Options are applied after devices are registered, so an
// option may replace or reconfigure a device before first use.
func New(opts ...OptionFn) *Environment {
	env := &Environment{
		Devices: NewDeviceBus(),
		log:     log.DefaultLogger(),

		hex: NewHexDisplay(),
		lcd: NewLcdDisplay(),
		kbd: NewKeyboard(),
		vga: NewVGA(),
	}

	env.Devices.Register(env.hex)
	env.Devices.Register(env.lcd)
	env.Devices.Register(env.kbd)
	env.Devices.Register(env.vga)

	for _, fn := range opts {
		fn(env)
	}

	return env
}

// HexDisplay returns the environment's hex display device, for bridges
// that poll its state directly rather than through the bus.
func (env *Environment) HexDisplay() *HexDisplay { return env.hex }

// Lcd returns the environment's LCD display device.
func (env *Environment) Lcd() *LcdDisplay { return env.lcd }

// Keyboard returns the environment's keyboard device, so a console or
// SDL bridge can feed it keystrokes directly.
func (env *Environment) Keyboard() *Keyboard { return env.kbd }

// Vga returns the environment's VGA device, so the SDL bridge can drain
// its draw-command channel.
func (env *Environment) Vga() *VGA { return env.vga }

func (env *Environment) String() string {
	return fmt.Sprintf("IAR: %s poisoned: %t", env.IAR, env.poison)
}

// OptionFn modifies an Environment during construction.
type OptionFn func(*Environment)

// WithLogger overrides the Environment's logger.
func WithLogger(logger *log.Logger) OptionFn {
	return func(env *Environment) { env.log = logger }
}

// WithIAR sets the initial instruction address.
func WithIAR(addr Addr) OptionFn {
	return func(env *Environment) { env.IAR = addr }
}
