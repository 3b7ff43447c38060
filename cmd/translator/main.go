/*
   translator - Command-line compiler driver.

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

// Command translator reads a source file, compiles it, and writes the
// resulting program image as JSON.
package main

import (
	"encoding/json"
	"log/slog"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"github.com/Dimankarp/stack-arch/translator"
	"github.com/Dimankarp/stack-arch/util/logger"
)

func main() {
	optStart := getopt.Int64Long("start", 's', 10, "Instruction section start address")
	optIOAdr := getopt.Int64Long("io", 'd', 0, "I/O port address")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	falseFlag := false
	slog.SetDefault(slog.New(logger.NewHandler(nil, nil, &falseFlag)))

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	args := getopt.Args()
	if len(args) != 2 {
		slog.Error("usage: translator SOURCE TARGET [-s START_ADR] [-d IO_ADR]")
		os.Exit(1)
	}
	source, target := args[0], args[1]

	src, err := os.ReadFile(source)
	if err != nil {
		slog.Error("reading source", "error", err)
		os.Exit(1)
	}

	cells, err := translator.Translate(string(src), int32(*optStart), int32(*optIOAdr))
	if err != nil {
		slog.Error("translate", "error", err)
		os.Exit(1)
	}

	out, err := json.Marshal(cells)
	if err != nil {
		slog.Error("encoding image", "error", err)
		os.Exit(1)
	}

	if err := os.WriteFile(target, out, 0o644); err != nil {
		slog.Error("writing target", "error", err)
		os.Exit(1)
	}
}
