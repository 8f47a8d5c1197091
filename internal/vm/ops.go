package vm

// ops.go implements Step, the interpreter's single fetch-decode-execute
// cycle, and the fault taxonomy it returns.

import (
	"errors"
	"fmt"
)

// Sentinel faults. Wrap these with errors.Is/errors.As; InvalidInstruction
// and InvalidIAR carry the offending value, as do InvalidIndex and
// DeviceFailure in mem.go.
var (
	ErrHalted          = errors.New("halted")
	ErrAlreadyPoisoned = errors.New("already poisoned")
)

// InvalidInstructionError reports an opcode outside the defined table.
type InvalidInstructionError struct{ Op Op }

func (e *InvalidInstructionError) Error() string {
	return fmt.Sprintf("invalid instruction: %s", e.Op)
}

// InvalidIARError reports an IAR that cannot address a full quad.
type InvalidIARError struct{ IAR Addr }

func (e *InvalidIARError) Error() string {
	return fmt.Sprintf("invalid iar: %s", e.IAR)
}

// Step fetches the quad at IAR, executes it, and advances IAR. It returns
// a Report on success.
//
// Step sets the poison flag before doing any work and clears it only if
// the whole step completes without error; a Step that returns an error
// leaves the Environment poisoned, and any further Step on it fails fast
// with ErrAlreadyPoisoned — there is no well-defined "next" state to
// continue from once something has gone wrong mid-instruction.
func (env *Environment) Step() (Report, error) {
	if env.poison {
		return Report{}, ErrAlreadyPoisoned
	}

	env.poison = true

	if uint64(env.IAR)+4 > NumWords {
		return Report{}, &InvalidIARError{IAR: env.IAR}
	}

	q := Quad{
		Op: Op(env.Memory[env.IAR]),
		A1: Addr(env.Memory[env.IAR+1]),
		A2: Addr(env.Memory[env.IAR+2]),
		A3: Addr(env.Memory[env.IAR+3]),
	}

	if !q.Op.Valid() {
		return Report{}, &InvalidInstructionError{Op: q.Op}
	}

	report, err := env.execute(q)
	if err != nil {
		return Report{}, err
	}

	env.poison = false

	return report, nil
}

func (env *Environment) execute(q Quad) (Report, error) {
	switch q.Op {
	case HLT:
		return Report{}, ErrHalted
	case ADD, SUB, MUL, DIV, AND, OR, SHL, SHR:
		return env.ternary(q)
	case MOV, NOT:
		return env.binary(q)
	case LDX, STX:
		return env.indexed(q)
	case BEQ, BNE, BLT:
		return env.branch(q)
	case CAL:
		return env.call(q)
	case RET:
		target, err := env.read(q.A1)
		if err != nil {
			return Report{}, err
		}

		return env.jump(Addr(uint32(target)))
	default:
		return Report{}, &InvalidInstructionError{Op: q.Op}
	}
}

// ternary covers the three-operand ops: M[a1] := M[a2] op M[a3].
func (env *Environment) ternary(q Quad) (Report, error) {
	lhs, err := env.read(q.A2)
	if err != nil {
		return Report{}, err
	}

	rhs, err := env.read(q.A3)
	if err != nil {
		return Report{}, err
	}

	var result Word

	switch q.Op {
	case ADD:
		result = lhs.Add(rhs)
	case SUB:
		result = lhs.Sub(rhs)
	case MUL:
		result = lhs.Mul(rhs)
	case DIV:
		result, err = lhs.Div(rhs)
		if err != nil {
			return Report{}, err
		}
	case AND:
		result = lhs.And(rhs)
	case OR:
		result = lhs.Or(rhs)
	case SHL:
		result = lhs.Shl(rhs)
	case SHR:
		result = lhs.Shr(rhs)
	}

	return env.writeResult(q.A1, result)
}

// binary covers the two-operand ops: M[a1] := op(M[a2]).
func (env *Environment) binary(q Quad) (Report, error) {
	val, err := env.read(q.A2)
	if err != nil {
		return Report{}, err
	}

	var result Word

	switch q.Op {
	case MOV:
		result = val
	case NOT:
		result = val.Not()
	}

	return env.writeResult(q.A1, result)
}

// indexed implements LDX/STX, whose effective address is M[a2] + M[a3]:
//
//	LDX: M[a1] := M[M[a2] + M[a3]]
//	STX: M[M[a2] + M[a3]] := M[a1]
func (env *Environment) indexed(q Quad) (Report, error) {
	base, err := env.read(q.A2)
	if err != nil {
		return Report{}, err
	}

	idx, err := env.read(q.A3)
	if err != nil {
		return Report{}, err
	}

	addr := Addr(int64(uint32(base)) + int64(idx))

	switch q.Op {
	case LDX:
		val, err := env.read(addr)
		if err != nil {
			return Report{}, err
		}

		return env.writeResult(q.A1, val)
	case STX:
		val, err := env.read(q.A1)
		if err != nil {
			return Report{}, err
		}

		redraw, err := env.write(addr, val)
		if err != nil {
			return Report{}, err
		}

		env.IAR += 4
		changed := addr

		return Report{Changed: &changed, Redraw: redraw}, nil
	default:
		return Report{}, &InvalidInstructionError{Op: q.Op}
	}
}

// branch implements BEQ/BNE/BLT: compare M[a2] and M[a3], jump to the
// literal address a1 if taken.
func (env *Environment) branch(q Quad) (Report, error) {
	lhs, err := env.read(q.A2)
	if err != nil {
		return Report{}, err
	}

	rhs, err := env.read(q.A3)
	if err != nil {
		return Report{}, err
	}

	var taken bool

	switch q.Op {
	case BEQ:
		taken = lhs == rhs
	case BNE:
		taken = lhs != rhs
	case BLT:
		taken = lhs < rhs
	}

	if taken {
		return env.jump(q.A1)
	}

	env.IAR += 4

	return Report{}, nil
}

// call implements CAL: M[a2] := iar + 4 (the return address); iar := a1
// (literal target).
func (env *Environment) call(q Quad) (Report, error) {
	link := Word(env.IAR + 4)

	redraw, err := env.write(q.A2, link)
	if err != nil {
		return Report{}, err
	}

	if _, err := env.jump(q.A1); err != nil {
		return Report{}, err
	}

	changed := q.A2

	return Report{Changed: &changed, Redraw: redraw}, nil
}

// jump sets IAR to target, unchecked; an out-of-range target is caught by
// the next Step's top-of-loop bounds check, not here.
func (env *Environment) jump(target Addr) (Report, error) {
	env.IAR = target

	return Report{}, nil
}

// writeResult writes val to dest, advances IAR, and reports the change.
func (env *Environment) writeResult(dest Addr, val Word) (Report, error) {
	redraw, err := env.write(dest, val)
	if err != nil {
		return Report{}, err
	}

	env.IAR += 4
	changed := dest

	return Report{Changed: &changed, Redraw: redraw}, nil
}
