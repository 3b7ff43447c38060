/*
   translator - Source text to program image compiler.

   Copyright (c) 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   RICHARD CORNWELL BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*/

// Package translator compiles the stack language's source text into a
// linear, addressed program image: a three-section layout
// (instructions, word, data) assembled independently with
// deferred/back-patched addressing, then concatenated and relocated to
// their final absolute offsets once every section's length is known.
package translator

import "github.com/Dimankarp/stack-arch/isa"

// sectionStart is a boxed base address a section's cells reference
// before the final layout is known. It is resolved in place once
// Translate has measured every section's length, so a MemoryAddress
// captured early (a forward jump target, a variable's home) reads the
// correct value after relocation.
type sectionStart struct {
	val int32
}

// MemoryAddress is a deferred absolute address: a section-relative
// offset plus a pointer to that section's not-yet-known base. Jump
// operands and variable addresses are captured as MemoryAddress values
// during compilation and only resolved to a plain int32 by Resolve,
// called once per cell during final assembly.
type MemoryAddress struct {
	base   *sectionStart
	offset int32
}

// Resolve computes the address's final absolute value.
func (a MemoryAddress) Resolve() int32 {
	return a.base.val + a.offset
}

// cellSlot is a pending program cell: either an instruction (with an
// operand that may still be a deferred MemoryAddress) or a data word,
// tagged with the section-relative MemoryAddress it was emitted at.
type cellSlot struct {
	addr  MemoryAddress
	instr isa.Instruction
	hasOperAddr bool
	operAddr    MemoryAddress
	word  int32
	isInstr bool
}

// section accumulates cells with section-relative offsets, deferring
// the section's own base address until every section's length is
// known (mirrors the original compiler's MemorySection/push pattern).
type section struct {
	start  sectionStart
	offset int32
	cells  []cellSlot
}

// here returns a MemoryAddress for the next cell this section will
// receive - used to capture jump/variable targets before they are
// actually pushed.
func (s *section) here() MemoryAddress {
	return MemoryAddress{base: &s.start, offset: s.offset}
}

// pushInstr appends an instruction cell and returns its address.
func (s *section) pushInstr(instr isa.Instruction) MemoryAddress {
	addr := s.here()
	s.cells = append(s.cells, cellSlot{addr: addr, instr: instr, isInstr: true})
	s.offset++
	return addr
}

// pushInstrAddrOperand appends an instruction whose operand is a
// deferred address, resolved at assembly time.
func (s *section) pushInstrAddrOperand(op isa.Opcode, operand MemoryAddress) MemoryAddress {
	addr := s.here()
	s.cells = append(s.cells, cellSlot{addr: addr, instr: isa.Instruction{Opcode: op}, isInstr: true, hasOperAddr: true, operAddr: operand})
	s.offset++
	return addr
}

// patchOperand rewrites the operand of the instruction previously
// emitted at addr to target, for back-patching forward jumps (if/else/
// then, begin/until, do/loop/leave).
func (s *section) patchOperand(addr MemoryAddress, target MemoryAddress) {
	for i := range s.cells {
		if s.cells[i].addr == addr {
			s.cells[i].hasOperAddr = true
			s.cells[i].operAddr = target
			return
		}
	}
}

// pushInstrConst appends an instruction carrying an already-resolved
// int32 operand (an I/O address or a parsed literal), not a deferred
// MemoryAddress.
func (s *section) pushInstrConst(op isa.Opcode, operand int32) MemoryAddress {
	addr := s.here()
	s.cells = append(s.cells, cellSlot{addr: addr, instr: isa.Instruction{Opcode: op, Operand: operand, HasOper: true}, isInstr: true})
	s.offset++
	return addr
}

// pushWord appends a data word and returns its address.
func (s *section) pushWord(word int32) MemoryAddress {
	addr := s.here()
	s.cells = append(s.cells, cellSlot{addr: addr, word: word})
	s.offset++
	return addr
}

// setStart fixes the section's base address, resolving every
// MemoryAddress handed out by here()/push* calls against this section.
func (s *section) setStart(start int32) {
	s.start.val = start
}

// allocate resolves every pending cell to an isa.Cell with an absolute
// offset and operand.
func (s *section) allocate() []isa.Cell {
	out := make([]isa.Cell, len(s.cells))
	for i, c := range s.cells {
		offset := int(c.addr.Resolve())
		if c.isInstr {
			instr := c.instr
			if c.hasOperAddr {
				instr.Operand = c.operAddr.Resolve()
				instr.HasOper = true
			}
			out[i] = isa.NewInstructionCell(instr, offset)
		} else {
			out[i] = isa.NewWordCell(c.word, offset)
		}
	}
	return out
}
