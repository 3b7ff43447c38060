/*
   simulator - Command-line machine driver.

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

// Command simulator loads a compiled program image and runs it on the
// stack machine, reporting ticks, output, and cache miss rate.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"github.com/Dimankarp/stack-arch/cache"
	"github.com/Dimankarp/stack-arch/controlunit"
	"github.com/Dimankarp/stack-arch/datapath"
	"github.com/Dimankarp/stack-arch/isa"
	"github.com/Dimankarp/stack-arch/memimage"
	"github.com/Dimankarp/stack-arch/memunit"
	"github.com/Dimankarp/stack-arch/util/logger"
)

// cacheCapacity is the data cache's total capacity in cells. The CLI
// exposes no flag for it - spec.md's external interface only
// configures overall memory size - so it is fixed at a power of two
// comfortably above the 16-cell bound (LineSize * EntriesPerSet) that
// the capacity must exceed.
const cacheCapacity = 128

func main() {
	optInput := getopt.StringLong("input", 'i', "", "Input fed to the I/O port")
	optTicks := getopt.Uint64Long("ticks", 't', 100000, "Tick limit")
	optMemSize := getopt.Int64Long("mem", 'm', 1024, "Memory size in cells")
	optStart := getopt.Int64Long("start", 's', 10, "Instruction section start address")
	optIOAdr := getopt.Int64Long("io", 'd', 0, "I/O port address")
	optJournal := getopt.BoolLong("journal", 'j', "Per-tick journal output (very large)")
	optOutFile := getopt.StringLong("out", 'o', "", "Log file for the per-tick journal")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var journalFile *os.File
	if *optOutFile != "" {
		var err error
		journalFile, err = os.Create(*optOutFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "creating log file:", err)
			os.Exit(1)
		}
	}
	programLevel := new(slog.LevelVar)
	if *optJournal {
		programLevel.Set(slog.LevelDebug)
	} else {
		programLevel.Set(slog.LevelInfo)
	}
	slog.SetDefault(slog.New(logger.NewHandler(journalFile, &slog.HandlerOptions{Level: programLevel}, optJournal)))

	args := getopt.Args()
	if len(args) != 1 {
		slog.Error("usage: simulator SOURCE [-i INPUT] [-t TICKS] [-m MEM_SIZE] [-s START_ADR] [-d IO_ADR] [-j] [-o OUT_FILE]")
		os.Exit(1)
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		slog.Error("reading image", "error", err)
		os.Exit(1)
	}

	var cells []isa.Cell
	if err := json.Unmarshal(raw, &cells); err != nil {
		slog.Error("decoding image", "error", err)
		os.Exit(1)
	}

	img := memimage.New(int(*optMemSize))
	for _, cell := range cells {
		if !img.InBounds(cell.Offset) {
			slog.Error("image does not fit in configured memory", "offset", cell.Offset, "mem_size", *optMemSize)
			os.Exit(1)
		}
	}
	img.Load(cells)

	c, err := cache.New(cacheCapacity)
	if err != nil {
		slog.Error("constructing cache", "error", err)
		os.Exit(1)
	}

	mem := memunit.New(img, c, int32(*optIOAdr), *optInput)
	dp := datapath.New(int32(*optStart))
	cu := controlunit.New(dp, mem)

	result, err := cu.Simulate(*optTicks)
	if err != nil {
		slog.Error("run faulted", "error", err)
		fmt.Printf("Ticks: %d\n%s", result.Ticks, result.Output)
		os.Exit(1)
	}

	fmt.Printf("Ticks: %d\n%s", result.Ticks, result.Output)
	fmt.Printf("Cache miss rate: %.2f%%\n", result.MissRate*100)
}
