package controlunit

import (
	"github.com/Dimankarp/stack-arch/datapath"
	"github.com/Dimankarp/stack-arch/isa"
)

// microProgram is the fixed 64-entry table spec.md §4.2 pins by index:
// indices 0-2 implement the fetch-decode step, and mPCLatch.IR jumps to
// these exact addresses, so the layout is non-negotiable. JMPZ (39-40)
// deliberately falls through into JMP's own entry point (41-42) when
// its branch is taken - that reuse, not a copy of the same two
// signals, is the mechanism and must not be "cleaned up."
var microProgram = [64][]Signal{
	// 0-2: fetch
	0: {arLatch(ARLatchPC), memRead()},
	1: {irLatch(), pcLatch(datapath.PCLatchPLUS1)},
	2: {dispatch()},

	// 3-4: PUSH
	3: {aluOp(tosVal), dsPush(), tosLatch(datapath.TOSLatchIR)},
	4: {jump(0, true, false)},

	// 5-6: POP
	5: {dsPop(), tosLatch(datapath.TOSLatchDS)},
	6: {jump(0, true, false)},

	// 7-8: DUP
	7: {aluOp(tosVal), dsPush()},
	8: {jump(0, true, false)},

	// 9-11: SWAP
	9:  {aluOp(tosVal), rsPush(datapath.RSPushALU), dsPop(), tosLatch(datapath.TOSLatchDS)},
	10: {rsPop(), aluOp(rsVal), dsPush()},
	11: {jump(0, true, false)},

	// 12-14: FETCH
	12: {aluOp(tosVal), arLatch(ARLatchALU), memRead()},
	13: {tosLatch(datapath.TOSLatchMEM)},
	14: {jump(0, true, false)},

	// 15-18: STORE
	15: {aluOp(tosVal), arLatch(ARLatchALU)},
	16: {dsPop(), aluOp(dsVal), memWrite()},
	17: {dsPop(), tosLatch(datapath.TOSLatchDS)},
	18: {jump(0, true, false)},

	// 19-20: ADD
	19: {dsPop(), aluOp(add), tosLatch(datapath.TOSLatchALU)},
	20: {jump(0, true, false)},
	// 21-22: SUB
	21: {dsPop(), aluOp(sub), tosLatch(datapath.TOSLatchALU)},
	22: {jump(0, true, false)},
	// 23-24: MUL
	23: {dsPop(), aluOp(mul), tosLatch(datapath.TOSLatchALU)},
	24: {jump(0, true, false)},
	// 25-26: DIV
	25: {dsPop(), aluOp(div), tosLatch(datapath.TOSLatchALU)},
	26: {jump(0, true, false)},
	// 27-28: MOD
	27: {dsPop(), aluOp(mod), tosLatch(datapath.TOSLatchALU)},
	28: {jump(0, true, false)},
	// 29-30: OR
	29: {dsPop(), aluOp(or), tosLatch(datapath.TOSLatchALU)},
	30: {jump(0, true, false)},
	// 31-32: AND
	31: {dsPop(), aluOp(and), tosLatch(datapath.TOSLatchALU)},
	32: {jump(0, true, false)},

	// 33-38: EQUAL
	33: {dsPop(), aluOp(sub)},
	34: {jump(37, false, true)},
	35: {aluOp(zero), tosLatch(datapath.TOSLatchALU)},
	36: {jump(0, true, false)},
	37: {aluOp(one), tosLatch(datapath.TOSLatchALU)},
	38: {jump(0, true, false)},

	// 39-40: JMPZ (falls through into JMP's own entry at 41 when taken)
	39: {aluOp(tosVal), dsPop(), tosLatch(datapath.TOSLatchDS)},
	40: {jump(42, false, false)},

	// 41-42: JMP (also JMPZ's taken-branch continuation)
	41: {pcLatch(datapath.PCLatchIR)},
	42: {jump(0, true, false)},

	// 43-44: STASH
	43: {aluOp(tosVal), rsPush(datapath.RSPushALU), dsPop(), tosLatch(datapath.TOSLatchDS)},
	44: {jump(0, true, false)},

	// 45-47: UNSTASH
	45: {aluOp(tosVal), dsPush()},
	46: {rsPop(), aluOp(rsVal), tosLatch(datapath.TOSLatchALU)},
	47: {jump(0, true, false)},

	// 48-50: CPSTASH
	48: {aluOp(tosVal), dsPush()},
	49: {rsPeek(), aluOp(rsVal), tosLatch(datapath.TOSLatchALU)},
	50: {jump(0, true, false)},

	// 51-58: LOOP
	51: {aluOp(tosVal), dsPush()},
	52: {rsPop(), aluOp(rsVal), tosLatch(datapath.TOSLatchALU)},
	53: {rsPeek(), aluOp(counterMinusLimit)},
	54: {jump(57, false, false)},
	55: {rsPop(), dsPop(), tosLatch(datapath.TOSLatchDS)},
	56: {jump(0, true, false)},
	57: {aluOp(counterPlus1), rsPush(datapath.RSPushALU), pcLatch(datapath.PCLatchIR), dsPop(), tosLatch(datapath.TOSLatchDS)},
	58: {jump(0, true, false)},

	// 59-60: CALL
	59: {rsPush(datapath.RSPushPC), pcLatch(datapath.PCLatchIR)},
	60: {jump(0, true, false)},

	// 61-62: RET
	61: {rsPop(), aluOp(rsVal), pcLatch(datapath.PCLatchALU)},
	62: {jump(0, true, false)},

	// 63: HALT
	63: {halt()},
}

// opcodeToMProg is the opcode-decode dispatch table mPCLatch.IR
// consults. The indices must match microProgram's layout exactly.
var opcodeToMProg = map[isa.Opcode]int{
	isa.PUSH:    3,
	isa.POP:     5,
	isa.DUP:     7,
	isa.SWAP:    9,
	isa.FETCH:   12,
	isa.STORE:   15,
	isa.ADD:     19,
	isa.SUB:     21,
	isa.MUL:     23,
	isa.DIV:     25,
	isa.MOD:     27,
	isa.OR:      29,
	isa.AND:     31,
	isa.EQUAL:   33,
	isa.JMPZ:    39,
	isa.JMP:     41,
	isa.STASH:   43,
	isa.UNSTASH: 45,
	isa.CPSTASH: 48,
	isa.LOOP:    51,
	isa.CALL:    59,
	isa.RET:     61,
	isa.HALT:    63,
}

// ALU closures. Each is a pure function over the datapath's pre-compute
// register state; ComputeALU evaluates it and then updates the
// ALU/N/Z/V registers from the (possibly wrapping) result.
func tosVal(d *datapath.Datapath) int64 { return int64(d.TOS) }
func rsVal(d *datapath.Datapath) int64  { return int64(d.RS.Data()) }
func dsVal(d *datapath.Datapath) int64  { return int64(d.DS.Data()) }
func zero(d *datapath.Datapath) int64   { return 0 }
func one(d *datapath.Datapath) int64    { return 1 }

func add(d *datapath.Datapath) int64 { return int64(d.DS.Data()) + int64(d.TOS) }
func sub(d *datapath.Datapath) int64 { return int64(d.DS.Data()) - int64(d.TOS) }
func mul(d *datapath.Datapath) int64 { return int64(d.DS.Data()) * int64(d.TOS) }

// div is floor division; mod takes the sign of the divisor. Host `/`
// and `%` in Go truncate toward zero, so both need an adjustment when
// the operands' signs differ and the remainder is non-zero.
func div(d *datapath.Datapath) int64 {
	a, b := int64(d.DS.Data()), int64(d.TOS)
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func mod(d *datapath.Datapath) int64 {
	a, b := int64(d.DS.Data()), int64(d.TOS)
	r := a % b
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}

func or(d *datapath.Datapath) int64  { return int64(d.DS.Data()) | int64(d.TOS) }
func and(d *datapath.Datapath) int64 { return int64(d.DS.Data()) & int64(d.TOS) }

// counterMinusLimit and counterPlus1 back LOOP's termination test and
// restart increment: at that point TOS holds the popped counter value
// (latched by step 52) and RS.Data() holds the peeked limit (step 53).
func counterMinusLimit(d *datapath.Datapath) int64 {
	return int64(d.TOS) - int64(d.RS.Data())
}

func counterPlus1(d *datapath.Datapath) int64 {
	return int64(d.TOS) + 1
}
