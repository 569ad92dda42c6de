package parser

import "github.com/uwbmrb/SAS/token"

// A Lexer is the token stream consumed by the parser. scanner.Scanner
// satisfies it; so does anything else that yields the token set.
type Lexer interface {
	Scan() token.Token
}

// source wraps a Lexer with a one-slot pushback buffer. Certain tokens
// (data_, save_, loop_, a tag name) terminate the current construct and open
// the next one; the inner parser emits its implicit end event, unreads the
// token and returns, and the caller observes the same token on its next
// read.
type source struct {
	lx     Lexer
	buf    token.Token
	buffed bool
}

func (s *source) next() token.Token {
	if s.buffed {
		s.buffed = false
		return s.buf
	}
	return s.lx.Scan()
}

// unread pushes tok back so the following next returns it. Only one token
// may be pending at a time.
func (s *source) unread(tok token.Token) {
	if s.buffed {
		panic("parser: token already pushed back")
	}
	s.buf = tok
	s.buffed = true
}
