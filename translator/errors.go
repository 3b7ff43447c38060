package translator

import (
	"errors"
	"fmt"
)

// Sentinel errors identifying each translation failure, matched with
// errors.Is; TokenError carries the offending token for diagnostics.
var (
	ErrInvalidIntLiteral     = errors.New("translator: literal doesn't fit into a 32-bit signed integer")
	ErrExpectedStringLiteral = errors.New(`translator: no string literal provided after ."`)
	ErrSallotQuery           = errors.New("translator: couldn't parse sallot query")
	ErrNestedWord            = errors.New("translator: nested word definition is forbidden")
	ErrWordEnd               = errors.New(`translator: failed to end word definition, check for an opened ":"`)
	ErrBareConditional       = errors.New("translator: conditionals are allowed only inside word definitions")
	ErrIfElseTree            = errors.New(`translator: failed to complete if-else-then, check for an opened "if"`)
	ErrBareBeginUntil        = errors.New("translator: begin-until is allowed only inside word definitions")
	ErrBeginUntilTree        = errors.New(`translator: failed to complete begin-until, check for an opened "begin"`)
	ErrBareDoLoop            = errors.New("translator: do-loop is allowed only inside word definitions")
	ErrLoopVar               = errors.New(`translator: "i" is only valid inside a do-loop`)
	ErrDoLoopTree            = errors.New(`translator: failed to complete do-loop, check for an opened "do"`)
	ErrBareLeave             = errors.New(`translator: "leave" is only valid inside a do-loop`)
	ErrUnknownWord           = errors.New("translator: unrecognized word")
	ErrUnclosedWords         = errors.New("translator: some tokens weren't closed")
	ErrMissingPreambleWord   = errors.New("translator: preamble word was not registered before first use")
)

// TokenError reports a sentinel error together with the token being
// processed when it occurred.
type TokenError struct {
	Err   error
	Token Token
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("%s: %q (ln:%d, wrd num:%d)", e.Err, e.Token.Val, e.Token.Line, e.Token.Word)
}

func (e *TokenError) Unwrap() error { return e.Err }

func tokenErr(err error, tok Token) error {
	return &TokenError{Err: err, Token: tok}
}
