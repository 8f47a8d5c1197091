package vm

import (
	"vm1600/internal/log"
)

// LogValue renders an Environment's headline state for structured
// logging: the IAR and the poison flag, instead of the full 16384-word
// array.
func (env *Environment) LogValue() log.Value {
	return log.GroupValue(
		log.String("IAR", env.IAR.String()),
		log.Any("POISON", env.poison),
	)
}
