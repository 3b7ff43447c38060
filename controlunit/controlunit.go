package controlunit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dimankarp/stack-arch/datapath"
	"github.com/Dimankarp/stack-arch/memunit"
)

// ErrMicrocodeJumpFail is raised when mPCLatch.IR finds no dispatch
// entry for the fetched opcode, or the fetched cell was never
// successfully latched as an instruction.
var ErrMicrocodeJumpFail = errors.New("controlunit: microcode dispatch has no entry for current IR")

// RunResult reports how a run ended. Exactly one of Halted,
// BufferEmptied, TickLimitHit is true on a non-fatal stop; Simulate
// returns a non-nil error only for a fatal fault, in which case
// RunResult still carries whatever output and tick count accrued
// before the fault.
type RunResult struct {
	Output       []byte
	Ticks        uint64
	CacheReqs    uint64
	CacheHits    uint64
	MissRate     float64
	Halted       bool
	BufferEmptied bool
	TickLimitHit bool
}

// ControlUnit drives a Datapath and Unit through the fixed
// microprogram, one micro-instruction per tick.
type ControlUnit struct {
	mPC   int
	ticks uint64

	dp  *datapath.Datapath
	mem *memunit.Unit
}

// New builds a control unit over an already-constructed datapath and
// memory unit, starting micro-execution at the fetch entry (mPC=0).
func New(dp *datapath.Datapath, mem *memunit.Unit) *ControlUnit {
	return &ControlUnit{dp: dp, mem: mem}
}

// Simulate runs the fetch-decode-execute loop for up to tickLimit
// ticks, returning normally (nil error) on Halt, input-buffer
// exhaustion, or hitting the tick limit - per spec.md §7 none of those
// are errors. A non-nil error means a fatal fault (stack over/underflow,
// a data/instruction type mismatch, or a microcode dispatch failure)
// and carries sentinel values from the datapath/controlunit packages
// identifiable with errors.Is.
func (cu *ControlUnit) Simulate(tickLimit uint64) (RunResult, error) {
	for cu.ticks < tickLimit {
		cu.journal()
		cu.ticks++

		steps := microProgram[cu.mPC]
		nextMPC := cu.mPC + 1

		for _, sig := range steps {
			if err := cu.apply(sig, &nextMPC); err != nil {
				if errors.Is(err, errHalt) {
					return cu.result(true, false, false), nil
				}
				if errors.Is(err, memunit.ErrBufferEmpty) {
					return cu.result(false, true, false), nil
				}
				return cu.result(false, false, false), err
			}
		}
		cu.mPC = nextMPC
	}
	return cu.result(false, false, true), nil
}

// errHalt is an internal sentinel distinguishing a Halt signal from a
// real error; Simulate never returns it to its caller.
var errHalt = errors.New("controlunit: halt")

// apply executes one signal, updating *nextMPC in place for KindJump
// and KindDispatch. It returns errHalt for Halt so Simulate's loop can
// treat it uniformly alongside real faults.
func (cu *ControlUnit) apply(sig Signal, nextMPC *int) error {
	switch sig.Kind {
	case KindDSPush:
		return cu.dp.DSPush()
	case KindDSPop:
		return cu.dp.DSPop()
	case KindDSPeek:
		return cu.dp.DSPeek()
	case KindRSPop:
		return cu.dp.RSPop()
	case KindRSPeek:
		return cu.dp.RSPeek()
	case KindRSPush:
		return cu.dp.RSPush(sig.RS)
	case KindTOSLatch:
		return cu.dp.LatchTOS(sig.TOS)
	case KindPCLatch:
		return cu.dp.LatchPC(sig.PC)
	case KindARLatch:
		if sig.AR == ARLatchPC {
			cu.mem.SetAR(cu.dp.PC)
		} else {
			cu.mem.SetAR(cu.dp.ALU)
		}
		return nil
	case KindIRLatch:
		return cu.dp.LatchIR()
	case KindALU:
		cu.dp.ComputeALU(sig.ALU)
		return nil
	case KindMemRead:
		cell, extra, err := cu.mem.Read(cu.ticks)
		if err != nil {
			return err
		}
		cu.ticks += extra
		cu.dp.LatchMemory(cell)
		return nil
	case KindMemWrite:
		extra, err := cu.mem.Write(cu.ticks, cu.dp.ALU)
		if err != nil {
			return err
		}
		cu.ticks += extra
		return nil
	case KindHalt:
		return errHalt
	case KindDispatch:
		mprog, ok := opcodeToMProg[cu.dp.IR.Opcode]
		if !ok {
			return fmt.Errorf("%w: opcode %q", ErrMicrocodeJumpFail, cu.dp.IR.Opcode)
		}
		*nextMPC = mprog
		return nil
	case KindJump:
		if sig.JumpUncond || cu.dp.Z == sig.JumpExpectZ {
			*nextMPC = sig.JumpAddr
		}
		return nil
	}
	return nil
}

func (cu *ControlUnit) result(halted, bufferEmpty, tickLimit bool) RunResult {
	reqs, hits, missRate := cu.mem.CacheStats()
	return RunResult{
		Output:        cu.mem.Output(),
		Ticks:         cu.ticks,
		CacheReqs:     reqs,
		CacheHits:     hits,
		MissRate:      missRate,
		Halted:        halted,
		BufferEmptied: bufferEmpty,
		TickLimitHit:  tickLimit,
	}
}

func (cu *ControlUnit) journal() {
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	slog.Debug("tick",
		"tick", cu.ticks,
		"mPC", cu.mPC,
		"PC", cu.dp.PC,
		"TOS", cu.dp.TOS,
		"ALU", cu.dp.ALU,
		"N", cu.dp.N, "Z", cu.dp.Z, "V", cu.dp.V,
		"DS", cu.dp.DS.Top(4),
		"RS", cu.dp.RS.Top(4),
		"IR", cu.dp.IR.Opcode,
	)
}
