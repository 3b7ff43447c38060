package translator

import "github.com/Dimankarp/stack-arch/isa"

// Translate compiles src into a linear program image. startAddr fixes
// where the instruction section begins; the word and data sections
// follow immediately after, in that order. ioAdr is compiled directly
// into every emitted I/O PUSH, matching the simulator's memory-mapped
// port address.
//
// Unlike the reference compiler, startAddr is used as the instruction
// section's base exactly as given, rather than always being io_adr+10:
// the two addresses are independent command-line flags here, and
// coupling them would silently break programs that set them apart.
func Translate(src string, startAddr, ioAdr int32) ([]isa.Cell, error) {
	tokens, literals := tokenize(src)
	t := newTranslator(tokens, literals, ioAdr)

	if err := t.run(); err != nil {
		return nil, err
	}

	t.instructions.setStart(startAddr)
	wordBase := startAddr + t.instructions.offset
	t.word.setStart(wordBase)
	dataBase := wordBase + t.word.offset
	t.data.setStart(dataBase)

	cells := make([]isa.Cell, 0, len(t.instructions.cells)+len(t.word.cells)+len(t.data.cells))
	cells = append(cells, t.instructions.allocate()...)
	cells = append(cells, t.word.allocate()...)
	cells = append(cells, t.data.allocate()...)
	return cells, nil
}
