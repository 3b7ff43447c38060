/*
   isa - Opcode enumeration and program image record shapes.

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

// Package isa defines the closed opcode set of the stack machine and the
// on-disk shape of a program image: a JSON array of addressed records,
// each either a data word or an instruction.
package isa

// Opcode names an instruction. The wire value written to the program
// image is the mnemonic itself.
type Opcode string

// The closed set of opcodes the translator emits and the control unit
// dispatches on.
const (
	PUSH    Opcode = "PUSH"
	POP     Opcode = "POP"
	DUP     Opcode = "DUP"
	SWAP    Opcode = "SWAP"
	FETCH   Opcode = "FETCH"
	STORE   Opcode = "STORE"
	ADD     Opcode = "ADD"
	SUB     Opcode = "SUB"
	MUL     Opcode = "MUL"
	DIV     Opcode = "DIV"
	MOD     Opcode = "MOD"
	OR      Opcode = "OR"
	AND     Opcode = "AND"
	EQUAL   Opcode = "EQUAL"
	JMPZ    Opcode = "JMPZ"
	JMP     Opcode = "JMP"
	STASH   Opcode = "STASH"
	UNSTASH Opcode = "UNSTASH"
	CPSTASH Opcode = "CPSTASH"
	LOOP    Opcode = "LOOP"
	CALL    Opcode = "CALL"
	RET     Opcode = "RET"
	HALT    Opcode = "HALT"
)

// HasOperand reports whether instructions of this opcode carry an
// operand word.
func (op Opcode) HasOperand() bool {
	switch op {
	case PUSH, JMPZ, JMP, LOOP, CALL:
		return true
	default:
		return false
	}
}

// Valid reports whether op is one of the 23 defined mnemonics.
func (op Opcode) Valid() bool {
	switch op {
	case PUSH, POP, DUP, SWAP, FETCH, STORE, ADD, SUB, MUL, DIV, MOD, OR, AND,
		EQUAL, JMPZ, JMP, STASH, UNSTASH, CPSTASH, LOOP, CALL, RET, HALT:
		return true
	default:
		return false
	}
}

// TokenMeta records the source position of the token an instruction was
// compiled from, for debugging and datapath disassembly (spec.md
// datapath __repr__ equivalent).
type TokenMeta struct {
	Value string `json:"val"`
	Line  int    `json:"line"`
	Word  int    `json:"num"`
}

// Instruction is one instruction-cell's payload.
type Instruction struct {
	Opcode   Opcode
	Operand  int32
	HasOper  bool
	Token    *TokenMeta
	HasToken bool
}
