package datapath

import (
	"errors"

	"github.com/Dimankarp/stack-arch/isa"
)

// ErrDataAsInstruction is raised when IRLatch reads a cell that is not
// an instruction record.
var ErrDataAsInstruction = errors.New("datapath: IR latched a data cell")

// ErrInstructionAsData is raised when TOSLatch.MEM reads a cell that is
// an instruction record, or TOSLatch.IR/PCLatch.IR finds no operand to
// read.
var ErrInstructionAsData = errors.New("datapath: TOS latched an instruction cell")

// RSMux selects the source latched onto the return stack by RSPush.
type RSMux int

const (
	RSPushALU RSMux = iota
	RSPushPC
)

// TOSMux selects the source latched into TOS.
type TOSMux int

const (
	TOSLatchDS TOSMux = iota
	TOSLatchMEM
	TOSLatchIR
	TOSLatchALU
)

// PCMux selects the source latched into PC.
type PCMux int

const (
	PCLatchALU PCMux = iota
	PCLatchIR
	PCLatchPLUS1
)

// ALUFunc is a pure function over the datapath's current register
// state, evaluated before flags/ALU are updated. It returns the
// mathematically exact result (not yet truncated to 32 bits), so the
// overflow check in ComputeALU can tell a genuine wrap from a result
// that merely looks like one after truncation.
type ALUFunc func(d *Datapath) int64

// Datapath holds the dual-stack register file: two bounded stacks, the
// TOS/ALU scalar registers, the N/Z/V flags, and the fetch registers
// IR/PC.
type Datapath struct {
	DS *Stack
	RS *Stack

	TOS int32
	ALU int32

	N, Z, V bool

	IR isa.Instruction
	PC int32

	// memLatch is the most recent cell read from the memory unit's data
	// latch, consulted by TOSLatch.MEM and IRLatch.
	memLatch    isa.Cell
	haveMemData bool
}

// New builds a datapath with both stacks at StackCapacity and PC set to
// the program's entry address. Z starts true and N/V false, matching a
// zero-valued ALU before the first computation.
func New(startAddr int32) *Datapath {
	return &Datapath{
		DS: NewStack(StackCapacity),
		RS: NewStack(StackCapacity),
		PC: startAddr,
		Z:  true,
	}
}

// LatchMemory records the cell most recently read by the memory unit,
// for a subsequent TOSLatch.MEM or IRLatch to consume (in the
// microprogram, the micro-instruction right after the MemRead).
func (d *Datapath) LatchMemory(cell isa.Cell) {
	d.memLatch = cell
	d.haveMemData = true
}

// ComputeALU evaluates op over the current register state, then
// updates ALU and the N/Z/V flags from the result: V is set when the
// mathematical result falls outside a signed 32-bit range, in which
// case the stored result is the 32-bit two's-complement reinterpretation
// of the low 32 bits; Z and N always describe the stored (post-wrap)
// result.
func (d *Datapath) ComputeALU(op ALUFunc) {
	result := op(d)

	const maxI32 = 1<<31 - 1
	const minI32 = -(1 << 31)

	if result > maxI32 || result < minI32 {
		d.V = true
		result = int64(int32(uint32(result & 0xFFFFFFFF)))
	} else {
		d.V = false
	}

	d.Z = result == 0
	d.N = result < 0
	d.ALU = int32(result)
}

// DSPush pushes ALU onto the data stack.
func (d *Datapath) DSPush() error {
	return d.DS.Push(d.ALU)
}

// DSPop pops the data stack.
func (d *Datapath) DSPop() error {
	return d.DS.Pop()
}

// DSPeek peeks the data stack.
func (d *Datapath) DSPeek() error {
	return d.DS.Peek()
}

// RSPop pops the return stack.
func (d *Datapath) RSPop() error {
	return d.RS.Pop()
}

// RSPeek peeks the return stack.
func (d *Datapath) RSPeek() error {
	return d.RS.Peek()
}

// RSPush pushes ALU or PC onto the return stack, per mux.
func (d *Datapath) RSPush(mux RSMux) error {
	if mux == RSPushPC {
		return d.RS.Push(d.PC)
	}
	return d.RS.Push(d.ALU)
}

// LatchTOS latches TOS from the selected source. TOSLatchMEM fails with
// ErrInstructionAsData if the latched memory cell is an instruction;
// TOSLatchIR fails the same way if IR carries no operand.
func (d *Datapath) LatchTOS(mux TOSMux) error {
	switch mux {
	case TOSLatchDS:
		d.TOS = d.DS.Data()
	case TOSLatchMEM:
		if !d.haveMemData || d.memLatch.IsInst {
			return ErrInstructionAsData
		}
		d.TOS = d.memLatch.Word
	case TOSLatchIR:
		if !d.IR.HasOper {
			return ErrInstructionAsData
		}
		d.TOS = d.IR.Operand
	case TOSLatchALU:
		d.TOS = d.ALU
	}
	return nil
}

// LatchIR reads the memory data latch into IR. Fails with
// ErrDataAsInstruction if the latched cell is not an instruction
// record.
func (d *Datapath) LatchIR() error {
	if !d.haveMemData || !d.memLatch.IsInst {
		return ErrDataAsInstruction
	}
	d.IR = d.memLatch.Instr
	return nil
}

// LatchPC latches PC from the selected source. PCLatchIR fails with
// ErrInstructionAsData if IR carries no operand.
func (d *Datapath) LatchPC(mux PCMux) error {
	switch mux {
	case PCLatchALU:
		d.PC = d.ALU
	case PCLatchIR:
		if !d.IR.HasOper {
			return ErrInstructionAsData
		}
		d.PC = d.IR.Operand
	case PCLatchPLUS1:
		d.PC = d.PC + 1
	}
	return nil
}
