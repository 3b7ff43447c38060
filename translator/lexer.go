package translator

import (
	"regexp"
	"strings"
)

// Token is one whitespace-delimited word from the source, tagged with
// its 1-based source line and word-within-line position for
// diagnostics.
type Token struct {
	Val  string
	Line int
	Word int
}

// strLitRE finds `." literal text"` spans. It does not match across
// newlines, so a string literal must fit on one line.
var strLitRE = regexp.MustCompile(`\." (.*?)"`)

// tokenize extracts ." ..." string literals ahead of whitespace
// splitting (so quoted text containing arbitrary punctuation never
// confuses the tokenizer), replacing each literal's span with a bare
// `."` marker, then splits what remains on whitespace with 1-based
// line/word-in-line numbering matching the original source layout.
func tokenize(src string) ([]Token, []string) {
	var literals []string
	for _, m := range strLitRE.FindAllStringSubmatch(src, -1) {
		literals = append(literals, m[1])
	}
	src = strLitRE.ReplaceAllString(src, `."`)

	var tokens []Token
	for lineN, line := range strings.Split(src, "\n") {
		fields := strings.Fields(line)
		for wordN, f := range fields {
			tokens = append(tokens, Token{Val: f, Line: lineN + 1, Word: wordN + 1})
		}
	}
	return tokens, literals
}
