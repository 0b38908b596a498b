package expr

import "fmt"

type inst struct {
	_ [0]func() // no equality

	op  byte
	arg uint32
}

const (
	// nop
	instNop = iota

	// operands
	instPushNum // push(nums[arg])
	instCall    // push(call(funcs[arg>>8], arg&0xFF arguments))

	// unary operators
	instNeg    // push(-pop())
	instPos    // push(+pop())
	instInvert // push(~pop())

	// binary operators
	instAdd      // push(pop() + pop())
	instSub      // push(pop() - pop())
	instMul      // push(pop() * pop())
	instDiv      // push(pop() / pop())
	instFloorDiv // push(pop() // pop())
	instMod      // push(pop() % pop())
	instPow      // push(pop() ** pop())
	instShl      // push(pop() << pop())
	instShr      // push(pop() >> pop())
	instAnd      // push(pop() & pop())
	instOr       // push(pop() | pop())
	instXor      // push(pop() ^ pop())
)

var instNames = [...]string{
	instNeg:      "neg",
	instPos:      "pos",
	instInvert:   "invert",
	instAdd:      "add",
	instSub:      "sub",
	instMul:      "mul",
	instDiv:      "div",
	instFloorDiv: "floordiv",
	instMod:      "mod",
	instPow:      "pow",
	instShl:      "shl",
	instShr:      "shr",
	instAnd:      "and",
	instOr:       "or",
	instXor:      "xor",
}

func (i inst) String() string {
	switch i.op {
	case instNop:
		return "nop"
	case instPushNum:
		return fmt.Sprintf("(pushNum %d)", i.arg)
	case instCall:
		return fmt.Sprintf("(call %d %d)", i.arg>>8, i.arg&0xFF)
	default:
		if int(i.op) < len(instNames) && instNames[i.op] != "" {
			return instNames[i.op]
		}
		return fmt.Sprintf("(op%d %d)", i.op, i.arg)
	}
}
