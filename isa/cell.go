package isa

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedCell is returned when a decoded JSON record is neither a
// well-formed data-word record nor a well-formed instruction record.
var ErrMalformedCell = errors.New("isa: malformed cell record")

// Cell is a tagged variant holding either a data word or an instruction.
// A cell loaded as an instruction must be used as such and vice versa;
// callers that load the wrong variant get a zero value, and the
// datapath/memory unit are responsible for raising the fatal faults
// spec.md §7 describes (DataAsInstruction / InstructionAsData).
type Cell struct {
	Word   int32
	Instr  Instruction
	IsInst bool

	// Offset is the absolute address this cell is placed at in the
	// image. It is resolved by the translator before emission.
	Offset int
}

// wireRecord is the on-disk JSON shape for one cell, matching spec.md
// §4.1's "Output format": instructions get {"opcode", "operand"?,
// "token"?, "offset"}, data cells get {"word", "offset"}.
type wireRecord struct {
	Opcode  *Opcode    `json:"opcode,omitempty"`
	Operand *int32     `json:"operand,omitempty"`
	Data    *int32     `json:"data,omitempty"`
	Token   *TokenMeta `json:"token,omitempty"`
	Word    *int32     `json:"word,omitempty"`
	Offset  int        `json:"offset"`
}

// MarshalJSON encodes the cell per spec.md §4.1.
func (c Cell) MarshalJSON() ([]byte, error) {
	rec := wireRecord{Offset: c.Offset}
	if c.IsInst {
		op := c.Instr.Opcode
		rec.Opcode = &op
		if c.Instr.HasOper {
			v := c.Instr.Operand
			rec.Operand = &v
		}
		if c.Instr.HasToken {
			rec.Token = c.Instr.Token
		}
	} else {
		w := c.Word
		rec.Word = &w
	}
	return json.Marshal(rec)
}

// UnmarshalJSON decodes one image record. Per spec.md §9, an operand may
// be carried under the key "operand" or "data"; both are normalized to
// Instr.Operand.
func (c *Cell) UnmarshalJSON(b []byte) error {
	var rec wireRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return err
	}
	c.Offset = rec.Offset
	switch {
	case rec.Opcode != nil:
		if !rec.Opcode.Valid() {
			return fmt.Errorf("%w: unknown opcode %q", ErrMalformedCell, *rec.Opcode)
		}
		c.IsInst = true
		c.Instr = Instruction{Opcode: *rec.Opcode, Token: rec.Token, HasToken: rec.Token != nil}
		switch {
		case rec.Operand != nil:
			c.Instr.Operand = *rec.Operand
			c.Instr.HasOper = true
		case rec.Data != nil:
			c.Instr.Operand = *rec.Data
			c.Instr.HasOper = true
		}
	case rec.Word != nil:
		c.IsInst = false
		c.Word = *rec.Word
	default:
		return ErrMalformedCell
	}
	return nil
}

// NewWordCell builds a data-word cell at the given absolute offset.
func NewWordCell(word int32, offset int) Cell {
	return Cell{Word: word, Offset: offset}
}

// NewInstructionCell builds an instruction cell at the given absolute
// offset.
func NewInstructionCell(instr Instruction, offset int) Cell {
	return Cell{Instr: instr, IsInst: true, Offset: offset}
}
