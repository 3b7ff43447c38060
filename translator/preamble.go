package translator

import "github.com/Dimankarp/stack-arch/isa"

// Preamble words are compiled lazily into the word section on first
// use, the way the original compiler only pays for "." or ." support
// when a program actually calls them.

// addPrintWord compiles `."`: given a Pascal-style string address on
// the stack (length cell followed by that many character cells), emit
// every character to the I/O port and return.
func (t *translator) addPrintWord() {
	printStart := t.word.pushInstr(isa.Instruction{Opcode: isa.DUP})
	t.word.pushInstr(isa.Instruction{Opcode: isa.FETCH})
	t.word.pushInstr(isa.Instruction{Opcode: isa.STASH})
	t.word.pushInstrConst(isa.PUSH, 1)
	t.word.pushInstr(isa.Instruction{Opcode: isa.STASH})

	cycleStart := t.word.pushInstr(isa.Instruction{Opcode: isa.DUP})
	t.word.pushInstr(isa.Instruction{Opcode: isa.CPSTASH})
	t.word.pushInstr(isa.Instruction{Opcode: isa.ADD})
	t.word.pushInstr(isa.Instruction{Opcode: isa.FETCH})
	t.word.pushInstrConst(isa.PUSH, t.ioAdr)
	t.word.pushInstr(isa.Instruction{Opcode: isa.STORE})
	t.word.pushInstrAddrOperand(isa.LOOP, cycleStart)
	t.word.pushInstr(isa.Instruction{Opcode: isa.POP})
	t.word.pushInstr(isa.Instruction{Opcode: isa.RET})

	t.wordStart[`."`] = printStart
}

// addPrintNum compiles ".": print the signed decimal value on top of
// the stack. A sign check handles negative input (emit '-', negate);
// digits come out least-significant first from repeated mod 10 / 10,
// so each is stashed on the return stack above a -1 sentinel and then
// unstashed and emitted in reverse (most-significant first). Negating
// the minimum 32-bit value overflows back to itself, so that one input
// prints its digits as if still negative - a known two's-complement
// asymmetry, not handled specially here.
func (t *translator) addPrintNum() {
	printStart := t.word.pushInstrConst(isa.PUSH, -1)
	t.word.pushInstr(isa.Instruction{Opcode: isa.STASH})

	t.word.pushInstr(isa.Instruction{Opcode: isa.DUP})
	t.word.pushInstrConst(isa.PUSH, int32(-2147483648))
	t.word.pushInstr(isa.Instruction{Opcode: isa.AND})
	signJmp := t.word.pushInstr(isa.Instruction{Opcode: isa.JMPZ})

	t.word.pushInstrConst(isa.PUSH, int32('-'))
	t.word.pushInstrConst(isa.PUSH, t.ioAdr)
	t.word.pushInstr(isa.Instruction{Opcode: isa.STORE})
	t.word.pushInstrConst(isa.PUSH, -1)
	t.word.pushInstr(isa.Instruction{Opcode: isa.MUL})

	digitLoop := t.word.here()
	t.word.patchOperand(signJmp, digitLoop)

	t.word.pushInstr(isa.Instruction{Opcode: isa.DUP})
	t.word.pushInstrConst(isa.PUSH, 10)
	t.word.pushInstr(isa.Instruction{Opcode: isa.MOD})
	t.word.pushInstrConst(isa.PUSH, int32('0'))
	t.word.pushInstr(isa.Instruction{Opcode: isa.ADD})
	t.word.pushInstr(isa.Instruction{Opcode: isa.STASH})

	t.word.pushInstr(isa.Instruction{Opcode: isa.DUP})
	t.word.pushInstrConst(isa.PUSH, 10)
	t.word.pushInstr(isa.Instruction{Opcode: isa.DIV})
	t.word.pushInstr(isa.Instruction{Opcode: isa.SWAP})
	t.word.pushInstr(isa.Instruction{Opcode: isa.POP})

	t.word.pushInstr(isa.Instruction{Opcode: isa.DUP})
	t.word.pushInstrConst(isa.PUSH, 0)
	t.word.pushInstr(isa.Instruction{Opcode: isa.EQUAL})
	t.word.pushInstrAddrOperand(isa.JMPZ, digitLoop)

	t.word.pushInstr(isa.Instruction{Opcode: isa.POP})

	printLoop := t.word.here()
	t.word.pushInstr(isa.Instruction{Opcode: isa.UNSTASH})
	t.word.pushInstr(isa.Instruction{Opcode: isa.DUP})
	t.word.pushInstrConst(isa.PUSH, -1)
	t.word.pushInstr(isa.Instruction{Opcode: isa.EQUAL})
	doneJmp := t.word.pushInstr(isa.Instruction{Opcode: isa.JMPZ})

	t.word.pushInstr(isa.Instruction{Opcode: isa.POP})
	t.word.pushInstr(isa.Instruction{Opcode: isa.RET})

	emitDigit := t.word.here()
	t.word.patchOperand(doneJmp, emitDigit)
	t.word.pushInstrConst(isa.PUSH, t.ioAdr)
	t.word.pushInstr(isa.Instruction{Opcode: isa.STORE})
	t.word.pushInstrAddrOperand(isa.JMP, printLoop)

	t.wordStart["."] = printStart
}
