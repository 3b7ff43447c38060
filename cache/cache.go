/*
   cache - Set-associative data cache with pseudo-LRU-by-exhaustion
   replacement, write-back + write-allocate, and one-line prefetch
   accounting.

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

// Package cache implements the machine's data cache exactly as spec.md
// §4.3/§9 describe it: not a textbook N-way set-associative cache, but a
// "slot-wise round-robin-ish" scheme where each of S sets holds one
// entry per line-slot (0..LineSize-1), and replacement for a given
// line-slot picks among the S sets rather than among entries within one
// set. Implementers changing this structure will diverge from the
// golden miss-count/eviction-order tests; see spec.md §9's note.
//
// A line holds whole cells, not bare words: the fetch micro-instruction
// (AR←PC; MemRead; IR←Mem) goes through this same cache, so a resident
// line may carry instruction cells as readily as data words.
package cache

import (
	"errors"

	"github.com/Dimankarp/stack-arch/isa"
)

const (
	// LineSize is the number of cells held in one cache line.
	LineSize = 4
	// EntriesPerSet is the number of line-slots in each set.
	EntriesPerSet = 4

	emptyTag int32 = -1
)

// ErrBadGeometry is returned by New when the requested capacity isn't a
// power of two strictly greater than LineSize*EntriesPerSet.
var ErrBadGeometry = errors.New("cache: capacity must be a power of two greater than LineSize*EntriesPerSet")

type entry struct {
	tag   int32
	line  [LineSize]isa.Cell
	dirty bool
}

// Cache is a set-associative cache over a linear cell address space.
type Cache struct {
	sets  [][EntriesPerSet]entry
	plrum [][EntriesPerSet]bool

	prefetchEnd uint64

	requests uint64
	hits     uint64
}

// New builds a cache over capacityCells addressable cells.
func New(capacityCells int) (*Cache, error) {
	if capacityCells <= LineSize*EntriesPerSet || capacityCells&(capacityCells-1) != 0 {
		return nil, ErrBadGeometry
	}
	setCount := capacityCells / (LineSize * EntriesPerSet)
	c := &Cache{
		sets:  make([][EntriesPerSet]entry, setCount),
		plrum: make([][EntriesPerSet]bool, setCount),
	}
	for s := range c.sets {
		for l := range c.sets[s] {
			c.sets[s][l].tag = emptyTag
		}
	}
	return c, nil
}

// decode splits a linear cell address into its word-in-line, line-slot
// and tag fields, per spec.md §4.3.
func decode(addr int32) (word, line, tag int32) {
	word = addr % LineSize
	line = (addr / LineSize) % EntriesPerSet
	tag = addr / (LineSize * EntriesPerSet)
	return
}

// findSet returns the index of the set whose entry at the given
// line-slot currently holds tag, or -1 if none does.
func (c *Cache) findSet(line, tag int32) int {
	for s := range c.sets {
		if c.sets[s][line].tag == tag {
			return s
		}
	}
	return -1
}

// touch marks the just-accessed (set, line) as recently used, applying
// the "pseudo-LRU by exhaustion" rule: if every set now has its bit set
// for this line-slot, clear them all and re-set only the one just hit.
func (c *Cache) touch(setIdx int, line int32) {
	c.plrum[setIdx][line] = true
	allSet := true
	for s := range c.plrum {
		if !c.plrum[s][line] {
			allSet = false
			break
		}
	}
	if allSet {
		for s := range c.plrum {
			c.plrum[s][line] = false
		}
		c.plrum[setIdx][line] = true
	}
}

// victim picks the first set whose bit is clear for the given
// line-slot. The invariant maintained by touch guarantees one exists.
func (c *Cache) victim(line int32) int {
	for s := range c.plrum {
		if !c.plrum[s][line] {
			return s
		}
	}
	// Unreachable if touch's invariant holds; fall back to set 0 rather
	// than panic on a logic bug elsewhere.
	return 0
}

// Access looks up addr. On a hit it returns the resident cell, bumps
// the pLRU bit, and counts towards the hit rate.
func (c *Cache) Access(addr int32) (cell isa.Cell, hit bool) {
	c.requests++
	word, line, tag := decode(addr)
	setIdx := c.findSet(line, tag)
	if setIdx < 0 {
		return isa.Cell{}, false
	}
	c.hits++
	c.touch(setIdx, line)
	return c.sets[setIdx][line].line[word], true
}

// Store writes cell to addr if it is resident, marking the line dirty.
// It does not perform the write-allocate itself; callers must Swap the
// line in on a miss before calling Store again.
func (c *Cache) Store(addr int32, cell isa.Cell) (hit bool) {
	c.requests++
	word, line, tag := decode(addr)
	setIdx := c.findSet(line, tag)
	if setIdx < 0 {
		return false
	}
	c.hits++
	c.sets[setIdx][line].line[word] = cell
	c.sets[setIdx][line].dirty = true
	c.touch(setIdx, line)
	return true
}

// Eviction describes the line displaced by a Swap, so the caller can
// write it back to backing memory if it was dirty.
type Eviction struct {
	Valid bool
	Addr  int32
	Line  [LineSize]isa.Cell
}

// Swap installs newLine (read from backing memory by the caller) as the
// resident line for addr's (line-slot, tag), evicting whatever
// previously held that slot across the S sets. It does not touch the
// pLRU bits itself beyond what's needed to pick a victim; the caller
// marks the now-resident line used afterwards, either with Touch or
// WriteDirty (which leave the request/hit counters alone) or with a
// counted Access/Store.
func (c *Cache) Swap(addr int32, newLine [LineSize]isa.Cell) Eviction {
	_, line, tag := decode(addr)
	setIdx := c.victim(line)
	old := c.sets[setIdx][line]

	var ev Eviction
	if old.tag != emptyTag {
		ev.Valid = old.dirty
		ev.Addr = old.tag*int32(LineSize*EntriesPerSet) + line*int32(LineSize)
		ev.Line = old.line
	}

	c.sets[setIdx][line] = entry{tag: tag, line: newLine}
	return ev
}

// Peek reports whether addr is currently resident and, if so, its cell.
// Unlike Access, it does not affect the request/hit counters or the
// pLRU bits: it exists for the prefetch path (spec.md §4.3), which must
// not perturb the miss-rate statistics a real CPU access would.
func (c *Cache) Peek(addr int32) (cell isa.Cell, hit bool) {
	word, line, tag := decode(addr)
	setIdx := c.findSet(line, tag)
	if setIdx < 0 {
		return isa.Cell{}, false
	}
	return c.sets[setIdx][line].line[word], true
}

// Touch marks addr's resident line as recently used without affecting
// the request/hit counters. Callers use this right after Swap installs
// a line that a miss already brought in: the miss itself was counted by
// the Access/Store call that discovered it, so the retry against the
// now-resident line must not be counted again, but it still has to
// update the pLRU state or the newly filled line would look as stale as
// the one it just replaced.
func (c *Cache) Touch(addr int32) {
	_, line, tag := decode(addr)
	setIdx := c.findSet(line, tag)
	if setIdx < 0 {
		return
	}
	c.touch(setIdx, line)
}

// WriteDirty stores cell into addr's resident line, marks it dirty, and
// touches its pLRU bit, all without affecting the request/hit counters.
// Callers use this after Swap installs a line a write-miss brought in:
// the miss was already counted by the Store call that discovered it.
func (c *Cache) WriteDirty(addr int32, cell isa.Cell) {
	word, line, tag := decode(addr)
	setIdx := c.findSet(line, tag)
	if setIdx < 0 {
		return
	}
	c.sets[setIdx][line].line[word] = cell
	c.sets[setIdx][line].dirty = true
	c.touch(setIdx, line)
}

// Stats returns the cumulative request and hit counters.
func (c *Cache) Stats() (requests, hits uint64) {
	return c.requests, c.hits
}

// MissRate returns (requests-hits)/requests, or 0 if there were no
// requests yet.
func (c *Cache) MissRate() float64 {
	if c.requests == 0 {
		return 0
	}
	return float64(c.requests-c.hits) / float64(c.requests)
}

// PrefetchEnd returns the tick at which any in-flight prefetch
// completes.
func (c *Cache) PrefetchEnd() uint64 {
	return c.prefetchEnd
}

// SetPrefetchEnd records the tick at which the most recently scheduled
// prefetch will complete.
func (c *Cache) SetPrefetchEnd(tick uint64) {
	c.prefetchEnd = tick
}
