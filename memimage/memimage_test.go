package memimage

import (
	"testing"

	"github.com/Dimankarp/stack-arch/isa"
)

func TestNewDefaultsEveryCellToAZeroWord(t *testing.T) {
	img := New(4)
	if img.Size() != 4 {
		t.Fatalf("Size = %d, want 4", img.Size())
	}
	for i := 0; i < 4; i++ {
		c := img.Get(i)
		if c.IsInst || c.Word != 0 || c.Offset != i {
			t.Fatalf("cell %d = %+v, want zero word at its own offset", i, c)
		}
	}
}

func TestLoadPlacesRecordsAtTheirOffset(t *testing.T) {
	img := New(8)
	records := []isa.Cell{
		isa.NewInstructionCell(isa.Instruction{Opcode: isa.HALT}, 3),
		isa.NewWordCell(42, 5),
	}
	img.Load(records)

	if c := img.Get(3); !c.IsInst || c.Instr.Opcode != isa.HALT {
		t.Fatalf("offset 3 = %+v, want HALT instruction", c)
	}
	if c := img.Get(5); c.IsInst || c.Word != 42 {
		t.Fatalf("offset 5 = %+v, want word 42", c)
	}
	if c := img.Get(0); c.IsInst || c.Word != 0 {
		t.Fatalf("offset 0 = %+v, want untouched zero word", c)
	}
}

func TestLoadPanicsOnOutOfRangeOffset(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("Load with an out-of-range offset didn't panic")
		}
	}()
	img := New(4)
	img.Load([]isa.Cell{isa.NewWordCell(1, 10)})
}

func TestInBounds(t *testing.T) {
	img := New(4)
	if !img.InBounds(0) || !img.InBounds(3) {
		t.Fatalf("InBounds wrongly rejected an edge index")
	}
	if img.InBounds(-1) || img.InBounds(4) {
		t.Fatalf("InBounds wrongly accepted an out-of-range index")
	}
}

func TestSetPreservesOffsetTag(t *testing.T) {
	img := New(4)
	img.Set(2, isa.NewWordCell(7, 999))
	c := img.Get(2)
	if c.Word != 7 || c.Offset != 2 {
		t.Fatalf("Set at 2 = %+v, want Word 7 and Offset 2 (not the stale 999)", c)
	}
}
