/*
   memimage - Low level memory.

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

// Package memimage holds the linear cell array a translated program is
// loaded into, and the backing store the cache/memory unit read and
// write lines from.
package memimage

import "github.com/Dimankarp/stack-arch/isa"

// Image is a flat array of cells, indexed by absolute address. Cells
// not covered by any emitted record default to an integer-0 word cell.
type Image struct {
	cells []isa.Cell
}

// New allocates an Image of the given size (in cells), all zero words.
func New(size int) *Image {
	img := &Image{cells: make([]isa.Cell, size)}
	for i := range img.cells {
		img.cells[i] = isa.NewWordCell(0, i)
	}
	return img
}

// Load places every decoded record at its own Offset. Panics if an
// offset falls outside the image - that is a loader misconfiguration
// (mem_size too small for the image), not a runtime fault.
func (img *Image) Load(records []isa.Cell) {
	for _, rec := range records {
		if rec.Offset < 0 || rec.Offset >= len(img.cells) {
			panic("memimage: record offset out of range of configured memory size")
		}
		img.cells[rec.Offset] = rec
	}
}

// Size returns the number of addressable cells.
func (img *Image) Size() int {
	return len(img.cells)
}

// InBounds reports whether addr is a valid index into the image.
func (img *Image) InBounds(addr int) bool {
	return addr >= 0 && addr < len(img.cells)
}

// Get returns the cell at addr without bounds checking. Callers must
// have already checked InBounds.
func (img *Image) Get(addr int) isa.Cell {
	return img.cells[addr]
}

// Set stores a cell at addr without bounds checking, preserving the
// offset tag for consistency.
func (img *Image) Set(addr int, c isa.Cell) {
	c.Offset = addr
	img.cells[addr] = c
}
