package translator

import (
	"errors"
	"testing"

	"github.com/Dimankarp/stack-arch/cache"
	"github.com/Dimankarp/stack-arch/controlunit"
	"github.com/Dimankarp/stack-arch/datapath"
	"github.com/Dimankarp/stack-arch/isa"
	"github.com/Dimankarp/stack-arch/memimage"
	"github.com/Dimankarp/stack-arch/memunit"
)

func cellAt(t *testing.T, cells []isa.Cell, offset int) isa.Cell {
	t.Helper()
	for _, c := range cells {
		if c.Offset == offset {
			return c
		}
	}
	t.Fatalf("no cell at offset %d", offset)
	return isa.Cell{}
}

func TestSimpleArithmeticEmitsPushAddHalt(t *testing.T) {
	cells, err := Translate("2 3 +", 10, 0)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	c0 := cellAt(t, cells, 10)
	if !c0.IsInst || c0.Instr.Opcode != isa.PUSH || c0.Instr.Operand != 2 {
		t.Fatalf("offset 10 = %+v, want PUSH 2", c0)
	}
	c1 := cellAt(t, cells, 11)
	if !c1.IsInst || c1.Instr.Opcode != isa.PUSH || c1.Instr.Operand != 3 {
		t.Fatalf("offset 11 = %+v, want PUSH 3", c1)
	}
	c2 := cellAt(t, cells, 12)
	if !c2.IsInst || c2.Instr.Opcode != isa.ADD {
		t.Fatalf("offset 12 = %+v, want ADD", c2)
	}
	c3 := cellAt(t, cells, 13)
	if !c3.IsInst || c3.Instr.Opcode != isa.HALT {
		t.Fatalf("offset 13 = %+v, want HALT", c3)
	}
}

func TestIfElseThenPatchesBothBranches(t *testing.T) {
	cells, err := Translate(": f if 1 else 2 then ; 0 f", 0, 0)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	// word section starts right after "0 f" (2 instructions) + HALT = offset 3.
	jz := cellAt(t, cells, 3)
	if jz.Instr.Opcode != isa.JMPZ {
		t.Fatalf("word[0] = %+v, want JMPZ", jz)
	}
	// if-branch: PUSH 1 (4), JMP (5) -> jz should target 6 (else branch start)
	if jz.Instr.Operand != 6 {
		t.Fatalf("JMPZ operand = %d, want 6", jz.Instr.Operand)
	}
	jmp := cellAt(t, cells, 5)
	if jmp.Instr.Opcode != isa.JMP {
		t.Fatalf("word[2] = %+v, want JMP", jmp)
	}
	// then should have patched the JMP to land after the else-branch (offset 7, RET).
	if jmp.Instr.Operand != 7 {
		t.Fatalf("JMP operand = %d, want 7", jmp.Instr.Operand)
	}
	ret := cellAt(t, cells, 7)
	if ret.Instr.Opcode != isa.RET {
		t.Fatalf("word[4] = %+v, want RET", ret)
	}
}

func TestBeginUntilLoopsBackward(t *testing.T) {
	cells, err := Translate(": f begin 1 until ; f", 0, 0)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	// instructions: CALL(0), HALT(1). word: PUSH1(2), JMPZ(3)->back to 2, RET(4).
	jz := cellAt(t, cells, 3)
	if jz.Instr.Opcode != isa.JMPZ || jz.Instr.Operand != 2 {
		t.Fatalf("word JMPZ = %+v, want operand 2", jz)
	}
}

func TestDoLoopEmitsSwapStashStashAndLeavePatchesToExit(t *testing.T) {
	cells, err := Translate(": f 5 0 do i leave loop ; f", 0, 0)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	// instructions: CALL(0), HALT(1)
	// word starts at 2: PUSH5(2) PUSH0(3) SWAP(4) STASH(5) STASH(6) CPSTASH(7)
	// leave drains the RS pair it found there: UNSTASH(8) POP(9) UNSTASH(10) POP(11) JMP(12)
	// LOOP(13)->7 RET(14)
	sw := cellAt(t, cells, 4)
	if sw.Instr.Opcode != isa.SWAP {
		t.Fatalf("word[2] = %+v, want SWAP", sw)
	}
	st1 := cellAt(t, cells, 5)
	st2 := cellAt(t, cells, 6)
	if st1.Instr.Opcode != isa.STASH || st2.Instr.Opcode != isa.STASH {
		t.Fatalf("want two STASH at 5,6; got %+v %+v", st1, st2)
	}
	cpstash := cellAt(t, cells, 7)
	if cpstash.Instr.Opcode != isa.CPSTASH {
		t.Fatalf("word[5] = %+v, want CPSTASH", cpstash)
	}
	unstash1 := cellAt(t, cells, 8)
	pop1 := cellAt(t, cells, 9)
	unstash2 := cellAt(t, cells, 10)
	pop2 := cellAt(t, cells, 11)
	if unstash1.Instr.Opcode != isa.UNSTASH || pop1.Instr.Opcode != isa.POP ||
		unstash2.Instr.Opcode != isa.UNSTASH || pop2.Instr.Opcode != isa.POP {
		t.Fatalf("leave must drain do's [limit, counter] pair with UNSTASH;POP;UNSTASH;POP before its JMP; got %+v %+v %+v %+v",
			unstash1, pop1, unstash2, pop2)
	}
	leaveJmp := cellAt(t, cells, 12)
	if leaveJmp.Instr.Opcode != isa.JMP {
		t.Fatalf("word[10] = %+v, want JMP (leave)", leaveJmp)
	}
	loop := cellAt(t, cells, 13)
	if loop.Instr.Opcode != isa.LOOP || loop.Instr.Operand != 7 {
		t.Fatalf("word[11] = %+v, want LOOP operand 7 (the loop body's start, right after the two STASHes)", loop)
	}
	// leave's JMP must target right after LOOP (the loop's exit point).
	if leaveJmp.Instr.Operand != 14 {
		t.Fatalf("leave JMP operand = %d, want 14", leaveJmp.Instr.Operand)
	}
}

func TestVariableAndSallotShareDataSection(t *testing.T) {
	cells, err := Translate("variable x sallot 3 variable y 42 x !", 0, 0)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	var dataCells []isa.Cell
	for _, c := range cells {
		if !c.IsInst {
			dataCells = append(dataCells, c)
		}
	}
	if len(dataCells) != 2 {
		t.Fatalf("got %d data cells, want 2 (sallot reserves space without emitting cells)", len(dataCells))
	}
	if dataCells[1].Offset-dataCells[0].Offset != 4 {
		t.Fatalf("y's offset = %d, x's = %d; want a gap of 4 (1 cell + 3 sallot'd)", dataCells[1].Offset, dataCells[0].Offset)
	}
}

func TestNestedWordIsRejected(t *testing.T) {
	_, err := Translate(": a : b ; ;", 0, 0)
	if !errors.Is(err, ErrNestedWord) {
		t.Fatalf("err = %v, want ErrNestedWord", err)
	}
}

func TestBareConditionalIsRejected(t *testing.T) {
	_, err := Translate("if 1 then", 0, 0)
	if !errors.Is(err, ErrBareConditional) {
		t.Fatalf("err = %v, want ErrBareConditional", err)
	}
}

func TestBareLeaveIsRejected(t *testing.T) {
	_, err := Translate(": f leave ; f", 0, 0)
	if !errors.Is(err, ErrBareLeave) {
		t.Fatalf("err = %v, want ErrBareLeave", err)
	}
}

func TestUnclosedWordIsRejected(t *testing.T) {
	_, err := Translate(": f 1 2 +", 0, 0)
	if !errors.Is(err, ErrUnclosedWords) {
		t.Fatalf("err = %v, want ErrUnclosedWords", err)
	}
}

func TestUnknownWordIsRejected(t *testing.T) {
	_, err := Translate("frobnicate", 0, 0)
	if !errors.Is(err, ErrUnknownWord) {
		t.Fatalf("err = %v, want ErrUnknownWord", err)
	}
}

func TestInvalidIntLiteralIsRejected(t *testing.T) {
	_, err := Translate("99999999999999", 0, 0)
	if !errors.Is(err, ErrInvalidIntLiteral) {
		t.Fatalf("err = %v, want ErrInvalidIntLiteral", err)
	}
}

func TestPrintWordCompiledOnce(t *testing.T) {
	cells, err := Translate(`." hi" ." yo"`, 0, 0)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	count := 0
	var targets []int32
	for _, c := range cells {
		if c.IsInst && c.Instr.Opcode == isa.CALL {
			count++
			targets = append(targets, c.Instr.Operand)
		}
	}
	if count != 2 {
		t.Fatalf("got %d CALLs, want 2 (one per use, preamble shared)", count)
	}
	if targets[0] != targets[1] {
		t.Fatalf("CALL targets = %v, want both to call the one shared print routine", targets)
	}
}

func TestExpectedStringLiteralIsRejected(t *testing.T) {
	_, err := Translate(`."`, 0, 0)
	if !errors.Is(err, ErrExpectedStringLiteral) {
		t.Fatalf("err = %v, want ErrExpectedStringLiteral", err)
	}
}

// runProgram assembles and runs src to completion, returning the I/O
// port's accumulated output.
func runProgram(t *testing.T, src string, input string) string {
	t.Helper()
	const startAddr, ioAdr = 10, 0
	cells, err := Translate(src, startAddr, ioAdr)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	img := memimage.New(1024)
	img.Load(cells)
	c, err := cache.New(32)
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	mem := memunit.New(img, c, ioAdr, input)
	dp := datapath.New(startAddr)
	cu := controlunit.New(dp, mem)
	res, err := cu.Simulate(1_000_000)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if !res.Halted {
		t.Fatalf("program did not halt: %+v", res)
	}
	return string(res.Output)
}

func TestEndToEndPrintDecimal(t *testing.T) {
	out := runProgram(t, "50 60 + .", "")
	if out != "110" {
		t.Fatalf("output = %q, want \"110\"", out)
	}
}

func TestEndToEndPrintNegativeDecimal(t *testing.T) {
	out := runProgram(t, "3 50 - .", "")
	if out != "-47" {
		t.Fatalf("output = %q, want \"-47\"", out)
	}
}

func TestEndToEndPrintString(t *testing.T) {
	out := runProgram(t, `." hello"`, "")
	if out != "hello" {
		t.Fatalf("output = %q, want \"hello\"", out)
	}
}

func TestEndToEndDoLoopSum(t *testing.T) {
	// Sums 0..4 via a custom word that accumulates into a variable, then prints it.
	// LOOP runs i from the start up to and including the limit, so "4 0 do" covers 0..4.
	out := runProgram(t, "variable sum 0 sum ! : s 4 0 do i sum @ + sum ! loop ; s sum @ .", "")
	if out != "10" {
		t.Fatalf("output = %q, want \"10\"", out)
	}
}
