package vm

// words.go defines the basic data types the interpreter operates on.

import (
	"fmt"
	"math"
)

// Word is the base data type a quad operates on: a 32-bit two's-complement
// integer. Arithmetic wraps except for Mul, which saturates.
type Word int32

func (w Word) String() string {
	return fmt.Sprintf("%#08x", int32(w))
}

// Addr is a memory address. Addresses below NumWords index local memory;
// addresses at or above NumWords are routed to the DeviceBus.
type Addr uint32

func (a Addr) String() string {
	return fmt.Sprintf("%#08x", uint32(a))
}

// NumWords is the size of local, non-device memory.
const NumWords = 16384

// IsDevice reports whether addr falls in device space.
func (a Addr) IsDevice() bool {
	return uint32(a) >= NumWords
}

// Add wraps on overflow, matching two's-complement addition.
func (w Word) Add(other Word) Word {
	return Word(int32(w) + int32(other))
}

// Sub wraps on overflow.
func (w Word) Sub(other Word) Word {
	return Word(int32(w) - int32(other))
}

// Mul saturates at the int32 bounds instead of wrapping.
func (w Word) Mul(other Word) Word {
	prod := int64(w) * int64(other)

	switch {
	case prod > math.MaxInt32:
		return Word(math.MaxInt32)
	case prod < math.MinInt32:
		return Word(math.MinInt32)
	default:
		return Word(prod)
	}
}

// ErrDivisionByZero is returned by Div when the divisor is zero.
var ErrDivisionByZero = fmt.Errorf("division by zero")

// Div wraps for the single representable overflow case, MinInt32 / -1, the
// same way the other arithmetic ops wrap, instead of panicking as Go's own
// integer division would.
func (w Word) Div(other Word) (Word, error) {
	if other == 0 {
		return 0, ErrDivisionByZero
	}

	if w == math.MinInt32 && other == -1 {
		return Word(math.MinInt32), nil
	}

	return Word(int32(w) / int32(other)), nil
}

// And is bitwise AND.
func (w Word) And(other Word) Word { return w & other }

// Or is bitwise OR.
func (w Word) Or(other Word) Word { return w | other }

// Not is bitwise complement; other is ignored by callers that model NOT as
// a binary-shaped opcode, but the operation itself is unary.
func (w Word) Not() Word { return ^w }

// Shl is a logical left shift. Shift counts outside [0,31] yield zero.
func (w Word) Shl(n Word) Word {
	if n < 0 || n > 31 {
		return 0
	}

	return Word(uint32(w) << uint32(n))
}

// Shr is an arithmetic (sign-extending) right shift. Shift counts outside
// [0,31] saturate to the sign of w.
func (w Word) Shr(n Word) Word {
	if n < 0 || n > 31 {
		if w < 0 {
			return -1
		}

		return 0
	}

	return Word(int32(w) >> uint32(n))
}
