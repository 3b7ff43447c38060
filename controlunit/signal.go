/*
   controlunit - Microprogrammed fetch-decode-execute loop.

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

// Package controlunit drives the dual-stack datapath and memory unit
// through a fixed 64-entry microprogram, one micro-instruction per
// tick. Signals are a closed sum type, represented as a single tagged
// struct and dispatched by an exhaustive switch - not an interface
// hierarchy (spec.md's design notes call this out explicitly; see
// isa/cell.go for the same pattern applied to program image records).
package controlunit

import "github.com/Dimankarp/stack-arch/datapath"

// Kind tags which variant a Signal carries.
type Kind int

const (
	KindDSPush Kind = iota
	KindDSPop
	KindDSPeek
	KindRSPop
	KindRSPeek
	KindRSPush
	KindTOSLatch
	KindPCLatch
	KindARLatch
	KindIRLatch
	KindALU
	KindMemRead
	KindMemWrite
	KindHalt
	KindDispatch // mPCLatch.IR
	KindJump     // mPCJump{adr, uncond, z}
)

// ARMux selects the source latched into the memory unit's address
// register.
type ARMux int

const (
	ARLatchPC ARMux = iota
	ARLatchALU
)

// Signal is one micro-instruction output. Exactly the fields relevant
// to Kind are meaningful; the rest are zero.
type Signal struct {
	Kind Kind

	ALU datapath.ALUFunc
	RS  datapath.RSMux
	TOS datapath.TOSMux
	PC  datapath.PCMux
	AR  ARMux

	JumpAddr    int
	JumpUncond  bool
	JumpExpectZ bool
}

func dsPush() Signal { return Signal{Kind: KindDSPush} }
func dsPop() Signal  { return Signal{Kind: KindDSPop} }
func dsPeek() Signal { return Signal{Kind: KindDSPeek} }
func rsPop() Signal  { return Signal{Kind: KindRSPop} }
func rsPeek() Signal { return Signal{Kind: KindRSPeek} }

func rsPush(mux datapath.RSMux) Signal { return Signal{Kind: KindRSPush, RS: mux} }
func tosLatch(mux datapath.TOSMux) Signal { return Signal{Kind: KindTOSLatch, TOS: mux} }
func pcLatch(mux datapath.PCMux) Signal   { return Signal{Kind: KindPCLatch, PC: mux} }
func arLatch(mux ARMux) Signal            { return Signal{Kind: KindARLatch, AR: mux} }
func irLatch() Signal                     { return Signal{Kind: KindIRLatch} }

func aluOp(f datapath.ALUFunc) Signal { return Signal{Kind: KindALU, ALU: f} }

func memRead() Signal  { return Signal{Kind: KindMemRead} }
func memWrite() Signal { return Signal{Kind: KindMemWrite} }
func halt() Signal      { return Signal{Kind: KindHalt} }
func dispatch() Signal  { return Signal{Kind: KindDispatch} }

func jump(addr int, uncond, expectZ bool) Signal {
	return Signal{Kind: KindJump, JumpAddr: addr, JumpUncond: uncond, JumpExpectZ: expectZ}
}
