package translator

import (
	"errors"
	"strconv"

	"github.com/Dimankarp/stack-arch/isa"
)

// primitiveWords maps a one-token primitive directly to its opcode, no
// further processing needed.
var primitiveWords = map[string]isa.Opcode{
	"dup":  isa.DUP,
	"drop": isa.POP,
	"swap": isa.SWAP,
	"@":    isa.FETCH,
	"!":    isa.STORE,
	"+":    isa.ADD,
	"-":    isa.SUB,
	"*":    isa.MUL,
	"/":    isa.DIV,
	"mod":  isa.MOD,
	"or":   isa.OR,
	"and":  isa.AND,
	"=":    isa.EQUAL,
}

// frameKind tags a structured-control stack entry.
type frameKind int

const (
	frameWord frameKind = iota
	frameIf
	frameElse
	frameBegin
	frameDo
)

// frame is one entry of the structured-control stack, covering word
// definitions (":"), if/else/then, begin/until, and do/loop. patchAddr
// is the forward jump instruction this frame will back-patch; target
// is the backward jump address a later until/loop patches into. leaves
// accumulates every "leave" JMP emitted inside a do frame, each
// patched to the loop's exit point once its matching "loop" is seen -
// a do frame can hold any number of them.
type frame struct {
	kind      frameKind
	patchAddr MemoryAddress
	target    MemoryAddress
	leaves    []MemoryAddress
}

// translator holds compilation state for a single source translation.
type translator struct {
	instructions section
	word         section
	data         section

	tokens  []Token
	pos     int
	literal []string
	litPos  int

	variables map[string]MemoryAddress
	wordStart map[string]MemoryAddress

	frames []frame
	cur    *section

	ioAdr int32
}

func newTranslator(tokens []Token, literals []string, ioAdr int32) *translator {
	t := &translator{
		tokens:    tokens,
		literal:   literals,
		variables: make(map[string]MemoryAddress),
		wordStart: make(map[string]MemoryAddress),
		ioAdr:     ioAdr,
	}
	t.cur = &t.instructions
	return t
}

// nextToken consumes the next token from the queue, used by word
// processors that expect a following name (":", "variable", "sallot").
func (t *translator) nextToken() (Token, bool) {
	if t.pos >= len(t.tokens) {
		return Token{}, false
	}
	tok := t.tokens[t.pos]
	t.pos++
	return tok, true
}

func hasWordFrame(frames []frame) bool {
	for _, f := range frames {
		if f.kind == frameWord {
			return true
		}
	}
	return false
}

func hasDoFrame(frames []frame) bool {
	for _, f := range frames {
		if f.kind == frameDo {
			return true
		}
	}
	return false
}

// parseIntLit parses a literal the way the language spells 32-bit
// signed integers: base 10, no surrounding whitespace, range-checked.
func parseIntLit(s string) (int32, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidIntLiteral
	}
	if v < -(1<<31) || v > (1<<31)-1 {
		return 0, ErrInvalidIntLiteral
	}
	return int32(v), nil
}

// run drains the token queue, dispatching each token to its processor
// and appending a closing HALT once every word definition and control
// structure has balanced out.
func (t *translator) run() error {
	for t.pos < len(t.tokens) {
		tok, _ := t.nextToken()

		if op, ok := primitiveWords[tok.Val]; ok {
			t.cur.pushInstr(isa.Instruction{Opcode: op})
			continue
		}

		if tok.Val == "(" {
			for t.pos < len(t.tokens) {
				next, _ := t.nextToken()
				if len(next.Val) > 0 && next.Val[len(next.Val)-1] == ')' {
					break
				}
			}
			continue
		}

		if proc, ok := wordProcessors[tok.Val]; ok {
			if err := proc(t, tok); err != nil {
				return err
			}
			continue
		}

		if err := t.processLitAndCustom(tok); err != nil {
			return err
		}
	}

	if len(t.frames) != 0 {
		return ErrUnclosedWords
	}
	t.instructions.pushInstr(isa.Instruction{Opcode: isa.HALT})
	return nil
}

// wordProcessors dispatches every word with dedicated compile-time
// behavior; anything else falls through to processLitAndCustom.
var wordProcessors = map[string]func(*translator, Token) error{
	`."`:      (*translator).processPrint,
	"emit":    (*translator).processEmit,
	".":       (*translator).processDot,
	"key":     (*translator).processKey,
	"variable": (*translator).processVariable,
	"sallot":  (*translator).processSallot,
	":":       (*translator).processColon,
	";":       (*translator).processSemicolon,
	"if":      (*translator).processIf,
	"else":    (*translator).processElse,
	"then":    (*translator).processThen,
	"begin":   (*translator).processBegin,
	"until":   (*translator).processUntil,
	"do":      (*translator).processDo,
	"i":       (*translator).processI,
	"loop":    (*translator).processLoop,
	"leave":   (*translator).processLeave,
}

func (t *translator) processEmit(tok Token) error {
	t.cur.pushInstrConst(isa.PUSH, t.ioAdr)
	t.cur.pushInstr(isa.Instruction{Opcode: isa.STORE})
	return nil
}

func (t *translator) processKey(tok Token) error {
	t.cur.pushInstrConst(isa.PUSH, t.ioAdr)
	t.cur.pushInstr(isa.Instruction{Opcode: isa.FETCH})
	return nil
}

func (t *translator) processDot(tok Token) error {
	if _, ok := t.wordStart["."]; !ok {
		t.addPrintNum()
	}
	addr, ok := t.wordStart["."]
	if !ok {
		return tokenErr(ErrMissingPreambleWord, tok)
	}
	t.cur.pushInstrAddrOperand(isa.CALL, addr)
	return nil
}

func (t *translator) processPrint(tok Token) error {
	if t.litPos >= len(t.literal) {
		return tokenErr(ErrExpectedStringLiteral, tok)
	}
	if _, ok := t.wordStart[`."`]; !ok {
		t.addPrintWord()
	}
	lit := t.literal[t.litPos]
	t.litPos++

	dataAddr := t.data.pushWord(int32(len(lit)))
	for _, ch := range lit {
		t.data.pushWord(int32(ch))
	}

	addr, ok := t.wordStart[`."`]
	if !ok {
		return tokenErr(ErrMissingPreambleWord, tok)
	}
	t.cur.pushInstrAddrOperand(isa.PUSH, dataAddr)
	t.cur.pushInstrAddrOperand(isa.CALL, addr)
	return nil
}

func (t *translator) processVariable(tok Token) error {
	name, ok := t.nextToken()
	if !ok {
		return tokenErr(ErrUnknownWord, tok)
	}
	t.variables[name.Val] = t.data.pushWord(0)
	return nil
}

func (t *translator) processSallot(tok Token) error {
	query, ok := t.nextToken()
	if !ok {
		return tokenErr(ErrSallotQuery, tok)
	}
	n, err := parseIntLit(query.Val)
	if err != nil {
		return tokenErr(ErrSallotQuery, query)
	}
	t.data.offset += n
	return nil
}

func (t *translator) processColon(tok Token) error {
	if hasWordFrame(t.frames) {
		return tokenErr(ErrNestedWord, tok)
	}
	name, ok := t.nextToken()
	if !ok {
		return tokenErr(ErrUnknownWord, tok)
	}
	t.wordStart[name.Val] = t.word.here()
	t.frames = append(t.frames, frame{kind: frameWord})
	t.cur = &t.word
	return nil
}

func (t *translator) processSemicolon(tok Token) error {
	if len(t.frames) == 0 || t.frames[len(t.frames)-1].kind != frameWord {
		return tokenErr(ErrWordEnd, tok)
	}
	t.cur.pushInstr(isa.Instruction{Opcode: isa.RET})
	t.frames = t.frames[:len(t.frames)-1]
	t.cur = &t.instructions
	return nil
}

func (t *translator) processIf(tok Token) error {
	if !hasWordFrame(t.frames) {
		return tokenErr(ErrBareConditional, tok)
	}
	addr := t.cur.pushInstr(isa.Instruction{Opcode: isa.JMPZ})
	t.frames = append(t.frames, frame{kind: frameIf, patchAddr: addr})
	return nil
}

func (t *translator) processElse(tok Token) error {
	if len(t.frames) == 0 || t.frames[len(t.frames)-1].kind != frameIf {
		return tokenErr(ErrIfElseTree, tok)
	}
	top := t.frames[len(t.frames)-1]
	jmpAddr := t.cur.pushInstr(isa.Instruction{Opcode: isa.JMP})
	t.cur.patchOperand(top.patchAddr, t.cur.here())
	t.frames = append(t.frames, frame{kind: frameElse, patchAddr: jmpAddr})
	return nil
}

func (t *translator) processThen(tok Token) error {
	if len(t.frames) == 0 {
		return tokenErr(ErrIfElseTree, tok)
	}
	top := t.frames[len(t.frames)-1]
	if top.kind != frameIf && top.kind != frameElse {
		return tokenErr(ErrIfElseTree, tok)
	}
	t.cur.patchOperand(top.patchAddr, t.cur.here())
	if top.kind == frameElse {
		t.frames = t.frames[:len(t.frames)-1]
	}
	t.frames = t.frames[:len(t.frames)-1]
	return nil
}

func (t *translator) processBegin(tok Token) error {
	if !hasWordFrame(t.frames) {
		return tokenErr(ErrBareBeginUntil, tok)
	}
	t.frames = append(t.frames, frame{kind: frameBegin, target: t.cur.here()})
	return nil
}

func (t *translator) processUntil(tok Token) error {
	if len(t.frames) == 0 || t.frames[len(t.frames)-1].kind != frameBegin {
		return tokenErr(ErrBeginUntilTree, tok)
	}
	top := t.frames[len(t.frames)-1]
	t.frames = t.frames[:len(t.frames)-1]
	t.cur.pushInstrAddrOperand(isa.JMPZ, top.target)
	return nil
}

func (t *translator) processDo(tok Token) error {
	if !hasWordFrame(t.frames) {
		return tokenErr(ErrBareDoLoop, tok)
	}
	// First on the data stack is the start value, and it must end up
	// last (topmost) on the return stack.
	t.cur.pushInstr(isa.Instruction{Opcode: isa.SWAP})
	t.cur.pushInstr(isa.Instruction{Opcode: isa.STASH})
	t.cur.pushInstr(isa.Instruction{Opcode: isa.STASH})
	t.frames = append(t.frames, frame{kind: frameDo, target: t.cur.here()})
	return nil
}

func (t *translator) processI(tok Token) error {
	if !hasDoFrame(t.frames) {
		return tokenErr(ErrLoopVar, tok)
	}
	t.cur.pushInstr(isa.Instruction{Opcode: isa.CPSTASH})
	return nil
}

func (t *translator) processLeave(tok Token) error {
	idx := -1
	for i := len(t.frames) - 1; i >= 0; i-- {
		if t.frames[i].kind == frameDo {
			idx = i
			break
		}
	}
	if idx == -1 {
		return tokenErr(ErrBareLeave, tok)
	}
	// processDo pushed [limit, counter] onto the return stack with
	// SWAP;STASH;STASH; leaving the loop early must drain that pair
	// before the enclosing word's RET pops its return address.
	t.cur.pushInstr(isa.Instruction{Opcode: isa.UNSTASH})
	t.cur.pushInstr(isa.Instruction{Opcode: isa.POP})
	t.cur.pushInstr(isa.Instruction{Opcode: isa.UNSTASH})
	t.cur.pushInstr(isa.Instruction{Opcode: isa.POP})
	addr := t.cur.pushInstr(isa.Instruction{Opcode: isa.JMP})
	t.frames[idx].leaves = append(t.frames[idx].leaves, addr)
	return nil
}

func (t *translator) processLoop(tok Token) error {
	if len(t.frames) == 0 || t.frames[len(t.frames)-1].kind != frameDo {
		return tokenErr(ErrDoLoopTree, tok)
	}
	top := t.frames[len(t.frames)-1]
	t.frames = t.frames[:len(t.frames)-1]
	t.cur.pushInstrAddrOperand(isa.LOOP, top.target)
	exit := t.cur.here()
	for _, leaveAddr := range top.leaves {
		t.cur.patchOperand(leaveAddr, exit)
	}
	return nil
}

func (t *translator) processLitAndCustom(tok Token) error {
	if addr, ok := t.variables[tok.Val]; ok {
		t.cur.pushInstrAddrOperand(isa.PUSH, addr)
		return nil
	}
	if addr, ok := t.wordStart[tok.Val]; ok {
		t.cur.pushInstrAddrOperand(isa.CALL, addr)
		return nil
	}
	n, err := parseIntLit(tok.Val)
	if err != nil {
		// A decimal literal outside the signed 32-bit range is reported as
		// such; anything that isn't a decimal literal is an unknown word.
		if _, perr := strconv.ParseInt(tok.Val, 10, 64); perr == nil || errors.Is(perr, strconv.ErrRange) {
			return tokenErr(ErrInvalidIntLiteral, tok)
		}
		return tokenErr(ErrUnknownWord, tok)
	}
	t.cur.pushInstrConst(isa.PUSH, n)
	return nil
}
