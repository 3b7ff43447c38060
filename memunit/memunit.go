/*
   memunit - Address register, cache front, and memory-mapped I/O port.

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

// Package memunit implements the machine's single memory port: an
// address register, a cache front-end over the linear image, and the
// one memory-mapped I/O address's read/write buffers.
//
// Read returns whole cells, not bare words: AR←PC; MemRead; IR←Mem is
// the same micro-step as FETCH's AR←ALU; MemRead; TOS←MEM, so the cache
// and backing image must carry instruction cells as readily as data
// words. It is the datapath's latches (IRLatch, TOSLatch.MEM), not this
// package, that reject a cell of the wrong kind.
package memunit

import (
	"errors"

	"github.com/Dimankarp/stack-arch/cache"
	"github.com/Dimankarp/stack-arch/isa"
	"github.com/Dimankarp/stack-arch/memimage"
)

// Timing constants, spec.md §4.4.
const (
	IOExtraTicks    = 10
	MemExtraTicks   = 10
	CacheExtraTicks = 1
)

// ErrBufferEmpty is returned by Read when the I/O port's input buffer
// has been exhausted. It is a non-fatal stop condition (spec.md §7).
var ErrBufferEmpty = errors.New("memunit: input buffer empty")

// Unit is the memory port: address register, cache, backing image, and
// I/O buffers.
type Unit struct {
	ar int32

	image *memimage.Image
	cache *cache.Cache

	ioAdr int32

	readBuffer  []byte
	writeBuffer []byte
}

// New builds a memory unit over an already-loaded image, with ioAdr as
// the memory-mapped I/O port address and input pre-loaded into the read
// buffer.
func New(image *memimage.Image, c *cache.Cache, ioAdr int32, input string) *Unit {
	return &Unit{
		image:      image,
		cache:      c,
		ioAdr:      ioAdr,
		readBuffer: []byte(input),
	}
}

// SetAR latches the address register.
func (u *Unit) SetAR(addr int32) {
	u.ar = addr
}

// AR returns the current address register value.
func (u *Unit) AR() int32 {
	return u.ar
}

// Output returns everything written to the I/O port so far.
func (u *Unit) Output() []byte {
	return u.writeBuffer
}

// CacheStats exposes the underlying cache's request/hit counters and
// miss rate, for the simulator's "Cache miss rate" report.
func (u *Unit) CacheStats() (requests, hits uint64, missRate float64) {
	requests, hits = u.cache.Stats()
	return requests, hits, u.cache.MissRate()
}

// Read performs a read from AR, returning the fetched cell and the
// number of extra ticks (beyond the one tick already charged by the
// control unit for this micro-step) the access cost.
func (u *Unit) Read(curTick uint64) (cell isa.Cell, extraTicks uint64, err error) {
	if u.ar == u.ioAdr {
		if len(u.readBuffer) == 0 {
			return isa.Cell{}, 0, ErrBufferEmpty
		}
		b := u.readBuffer[0]
		u.readBuffer = u.readBuffer[1:]
		return isa.NewWordCell(int32(b), int(u.ar)), IOExtraTicks - 1, nil
	}

	wait := u.prefetchWait(curTick)
	if c, hit := u.cache.Access(u.ar); hit {
		return c, wait + CacheExtraTicks - 1, nil
	}

	missExtra := u.fetchAndInsert(u.ar)
	c, _ := u.cache.Peek(u.ar)
	u.cache.Touch(u.ar)
	total := wait + CacheExtraTicks + missExtra
	completion := curTick + 1 + total
	u.schedulePrefetch(completion)
	return c, total - 1, nil
}

// Write performs a write of value to AR as a data word. STORE is the
// machine's only write path, and it only ever writes words (spec.md
// §7's "no self-modifying code beyond what STORE naturally permits"
// means the written cell is always a plain word, even if it displaces
// what used to be an instruction cell at that address).
func (u *Unit) Write(curTick uint64, value int32) (extraTicks uint64, err error) {
	if u.ar == u.ioAdr {
		u.writeBuffer = append(u.writeBuffer, byte(value))
		return IOExtraTicks - 1, nil
	}

	cell := isa.NewWordCell(value, int(u.ar))
	wait := u.prefetchWait(curTick)
	if u.cache.Store(u.ar, cell) {
		return wait + CacheExtraTicks - 1, nil
	}

	missExtra := u.fetchAndInsert(u.ar)
	u.cache.WriteDirty(u.ar, cell)
	total := wait + CacheExtraTicks + missExtra
	completion := curTick + 1 + total
	u.schedulePrefetch(completion)
	return total - 1, nil
}

// prefetchWait returns the outstanding portion of any scheduled
// prefetch, charged to this access per spec.md §4.3/§9.
func (u *Unit) prefetchWait(curTick uint64) uint64 {
	end := u.cache.PrefetchEnd()
	if end > curTick {
		return end - curTick
	}
	return 0
}

// fetchAndInsert brings the line containing addr into the cache,
// writing back any evicted dirty line first. It returns the extra
// ticks the memory-side portion of the miss cost (beyond the cache
// lookup already counted by the caller).
func (u *Unit) fetchAndInsert(addr int32) uint64 {
	lineStart := addr - addr%cache.LineSize
	var line [cache.LineSize]isa.Cell
	for i := 0; i < cache.LineSize; i++ {
		line[i] = u.readBackingCell(int(lineStart) + i)
	}

	evicted := u.cache.Swap(addr, line)
	if evicted.Valid {
		for i := 0; i < cache.LineSize; i++ {
			u.writeBackingCell(int(evicted.Addr)+i, evicted.Line[i])
		}
	}
	return MemExtraTicks
}

// schedulePrefetch schedules the forward line for prefetch, as if it
// started executing the instant this access completes. Per spec.md
// §4.3, the prefetch probe itself never touches the cache's
// request/hit counters or inserts data - only its timing is modeled,
// so a later real access to that line still performs its own
// fetch-and-insert (see spec.md §8 scenario 6: every access on a fresh
// line is still a counted miss, even immediately after its line was the
// target of a prefetch).
func (u *Unit) schedulePrefetch(startTick uint64) {
	nextAddr := (u.ar - u.ar%cache.LineSize) + cache.LineSize
	cost := uint64(CacheExtraTicks)
	if _, hit := u.cache.Peek(nextAddr); !hit {
		cost += MemExtraTicks
	}
	u.cache.SetPrefetchEnd(startTick + cost)
}

func (u *Unit) readBackingCell(addr int) isa.Cell {
	if !u.image.InBounds(addr) {
		return isa.NewWordCell(0, addr)
	}
	return u.image.Get(addr)
}

func (u *Unit) writeBackingCell(addr int, cell isa.Cell) {
	if !u.image.InBounds(addr) {
		return
	}
	u.image.Set(addr, cell)
}
