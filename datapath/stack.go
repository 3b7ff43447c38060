/*
   datapath - Dual-stack register file, ALU, and latch muxes.

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

package datapath

import "errors"

// StackCapacity bounds both the data stack and the return stack.
const StackCapacity = 128

// ErrStackOverflow is raised by Push once a stack holds StackCapacity
// items.
var ErrStackOverflow = errors.New("datapath: stack overflow")

// ErrStackUnderflow is raised by Pop/Peek on an empty stack.
var ErrStackUnderflow = errors.New("datapath: stack underflow")

// Stack is a bounded i32 stack that also remembers the last value
// touched by Push, Pop, or Peek - the "data latch" the ALU reads from
// when a microinstruction latches TOS or ALU off DS/RS without a
// separate explicit register for it.
type Stack struct {
	items []int32
	data  int32
}

// NewStack allocates an empty stack of the given capacity.
func NewStack(capacity int) *Stack {
	return &Stack{items: make([]int32, 0, capacity)}
}

// Data returns the value latched by the most recent Push, Pop, or Peek.
func (s *Stack) Data() int32 {
	return s.data
}

// Push appends v, latching it as Data().
func (s *Stack) Push(v int32) error {
	if len(s.items) >= cap(s.items) {
		return ErrStackOverflow
	}
	s.items = append(s.items, v)
	s.data = v
	return nil
}

// Pop removes and latches the top value.
func (s *Stack) Pop() error {
	if len(s.items) == 0 {
		return ErrStackUnderflow
	}
	top := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	s.data = top
	return nil
}

// Peek latches the top value without removing it.
func (s *Stack) Peek() error {
	if len(s.items) == 0 {
		return ErrStackUnderflow
	}
	s.data = s.items[len(s.items)-1]
	return nil
}

// Len reports the current depth, for disassembly/journaling.
func (s *Stack) Len() int {
	return len(s.items)
}

// Top returns up to n values counting down from the top, most recent
// first, for the control unit's per-tick journal line.
func (s *Stack) Top(n int) []int32 {
	if n > len(s.items) {
		n = len(s.items)
	}
	out := make([]int32, n)
	for i := 0; i < n; i++ {
		out[i] = s.items[len(s.items)-1-i]
	}
	return out
}
