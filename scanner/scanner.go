// Package scanner implements a scanner for STAR source text. It takes a
// []byte as a source which can then be tokenized through repeated calls to
// the Scan method.
//
// The scanner is flat: inside a delimited value it keeps emitting ordinary
// tokens (Characters, NL) whose Text concatenates verbatim to the
// source. Matching an opening delimiter with its close is the parser's job.
package scanner

import (
	"strings"
	"unicode/utf8"

	"github.com/uwbmrb/SAS/token"
)

const (
	eof = -1
	bom = 0xFEFF // byte order mark, only permitted as the first character
)

// An ErrorHandler may be provided to Scanner.Init. If a lexical error is
// encountered and a handler was installed, the handler is called with the
// line number and an error message.
type ErrorHandler func(line int, msg string)

// region tracks which kind of delimited value the scanner is inside, so the
// matching close token can be recognized.
type region int

const (
	regNone region = iota
	regSingle
	regDouble
	regTSingle
	regTDouble
	regSemi
)

// A Scanner holds the scanner's internal state while processing a given
// text. It can be allocated as part of another data structure but must be
// initialized via Init before use.
type Scanner struct {
	// immutable state
	src []byte       // source
	err ErrorHandler // error reporting; or nil

	// scanning state
	ch         rune   // current character
	offset     int    // character offset
	rdOffset   int    // reading offset (position after current character)
	lineOffset int    // offset of the first character of the current line
	line       int    // current line, 1-based
	reg        region // delimited-value region, or regNone

	// first pending lexical error, surfaced as one Illegal token
	errMsg  string
	errLine int

	// public state - ok to modify
	ErrorCount int // number of errors encountered
}

// Init prepares the scanner s to tokenize the text src by setting the
// scanner at the beginning of src. Calls to Scan will invoke the error
// handler err if they encounter a lexical error and err is not nil. Also,
// for each error encountered, the Scanner field ErrorCount is incremented
// by one.
func (s *Scanner) Init(src []byte, err ErrorHandler) {
	// Explicitly initialize all fields since a scanner may be reused.
	s.src = src
	s.err = err

	s.ch = ' '
	s.offset = 0
	s.rdOffset = 0
	s.lineOffset = 0
	s.line = 1
	s.reg = regNone
	s.errMsg = ""
	s.errLine = 0
	s.ErrorCount = 0

	s.next()
	if s.ch == bom {
		s.next() // ignore BOM at the file beginning
	}
}

// Read the next Unicode char into s.ch.
// s.ch < 0 means end-of-file.
func (s *Scanner) next() {
	if s.rdOffset < len(s.src) {
		s.offset = s.rdOffset
		if s.ch == '\n' {
			s.lineOffset = s.offset
			s.line++
		}
		r, w := rune(s.src[s.rdOffset]), 1
		switch {
		case r == 0:
			s.error("illegal character NUL")
		case r >= utf8.RuneSelf:
			// not ASCII
			r, w = utf8.DecodeRune(s.src[s.rdOffset:])
			if r == utf8.RuneError && w == 1 {
				s.error("illegal UTF-8 encoding")
			} else if r == bom && s.offset > 0 {
				s.error("illegal byte order mark")
			}
		}
		s.rdOffset += w
		s.ch = r
	} else {
		s.offset = len(s.src)
		if s.ch == '\n' {
			s.lineOffset = s.offset
			s.line++
		}
		s.ch = eof
	}
}

func (s *Scanner) error(msg string) {
	if s.err != nil {
		s.err(s.line, msg)
	}
	if s.errMsg == "" {
		s.errMsg = msg
		s.errLine = s.line
	}
	s.ErrorCount++
}

// peek returns the byte following the most recently read character without
// advancing the scanner. If the scanner is at EOF, peek returns 0.
func (s *Scanner) peek() byte {
	if s.rdOffset < len(s.src) {
		return s.src[s.rdOffset]
	}
	return 0
}

// peek2 returns the byte after peek, or 0.
func (s *Scanner) peek2() byte {
	if s.rdOffset+1 < len(s.src) {
		return s.src[s.rdOffset+1]
	}
	return 0
}

// atLineStart reports whether the current character is the first on its line.
func (s *Scanner) atLineStart() bool {
	return s.offset == s.lineOffset
}

func isSpace(ch rune) bool   { return ch == ' ' || ch == '\t' || ch == '\r' }
func isByteWS(b byte) bool   { return b == ' ' || b == '\t' || b == '\r' || b == '\n' || b == 0 }
func isWordEnd(ch rune) bool { return ch == eof || ch == '\n' || isSpace(ch) }

func (s *Scanner) tok(kind token.Kind, text string, line int) token.Token {
	return token.Token{Kind: kind, Text: text, Line: line, End: s.offset}
}

// Scan scans the next token. The source end is indicated by token.EOF; Scan
// keeps returning EOF once the source is exhausted, so a pushed-back EOF is
// harmless.
//
// A lexical error (NUL byte, malformed UTF-8, stray BOM) is reported once
// as an Illegal token whose Text is the message; the parser treats those as
// fatal.
func (s *Scanner) Scan() token.Token {
	if s.errMsg != "" {
		tok := token.Token{Kind: token.Illegal, Text: s.errMsg, Line: s.errLine, End: s.offset}
		s.errMsg = ""
		return tok
	}
	switch s.reg {
	case regNone:
		return s.scanDefault()
	case regSemi:
		return s.scanInHeredoc()
	default:
		return s.scanInQuote()
	}
}

func (s *Scanner) scanDefault() token.Token {
	line := s.line
	switch {
	case s.ch == eof:
		return s.tok(token.EOF, "", line)

	case s.ch == '\n':
		s.next()
		return s.tok(token.NL, "\n", line)

	case isSpace(s.ch):
		return s.tok(token.Space, s.scanSpace(), line)

	case s.ch == '#':
		return s.tok(token.Comment, s.scanComment(), line)

	case s.ch == ';' && s.atLineStart():
		s.next()
		// A newline right after the opening semicolon belongs to the
		// delimiter, not the value. Content on the same line does not.
		if s.ch == '\n' {
			s.next()
		}
		s.reg = regSemi
		return s.tok(token.SemiStart, ";", line)

	case s.ch == '\'':
		s.next()
		if s.ch == '\'' && s.peek() == '\'' {
			s.next()
			s.next()
			s.reg = regTSingle
			return s.tok(token.TSingleStart, "'''", line)
		}
		s.reg = regSingle
		return s.tok(token.SingleStart, "'", line)

	case s.ch == '"':
		s.next()
		if s.ch == '"' && s.peek() == '"' {
			s.next()
			s.next()
			s.reg = regTDouble
			return s.tok(token.TDoubleStart, `"""`, line)
		}
		s.reg = regDouble
		return s.tok(token.DoubleStart, `"`, line)

	case s.ch == '_':
		return s.tok(token.TagName, s.scanWord(), line)

	case s.ch == '$':
		return s.tok(token.FrameCode, s.scanWord(), line)

	default:
		word := s.scanWord()
		kind, text := classifyWord(word)
		return s.tok(kind, text, line)
	}
}

// classifyWord maps a bareword onto the structural keyword tokens. The
// data_/save_ name is returned without its prefix.
func classifyWord(word string) (token.Kind, string) {
	lower := strings.ToLower(word)
	switch {
	case strings.HasPrefix(lower, "data_") && len(word) > len("data_"):
		return token.DataStart, word[len("data_"):]
	case lower == "save_":
		return token.SaveEnd, word
	case strings.HasPrefix(lower, "save_"):
		return token.SaveStart, word[len("save_"):]
	case lower == "loop_":
		return token.LoopStart, word
	case lower == "stop_":
		return token.Stop, word
	}
	return token.Characters, word
}

func (s *Scanner) scanSpace() string {
	offs := s.offset
	for isSpace(s.ch) {
		s.next()
	}
	return string(s.src[offs:s.offset])
}

func (s *Scanner) scanWord() string {
	offs := s.offset
	for !isWordEnd(s.ch) {
		s.next()
	}
	return string(s.src[offs:s.offset])
}

func (s *Scanner) scanComment() string {
	s.next() // initial '#'
	offs := s.offset
	for s.ch != '\n' && s.ch != eof {
		s.next()
	}
	return string(s.src[offs:s.offset])
}

// scanInQuote emits tokens inside a quoted value. A single-line quote closes
// on the quote character followed by whitespace or EOF; a triple quote
// closes only on the full triple sequence.
func (s *Scanner) scanInQuote() token.Token {
	line := s.line
	q, triple := s.regionQuote()

	switch {
	case s.ch == eof:
		return s.tok(token.EOF, "", line)

	case s.ch == '\n':
		s.next()
		return s.tok(token.NL, "\n", line)

	case !triple && s.ch == q && isByteWS(s.peek()):
		s.next()
		kind := token.SingleEnd
		if q == '"' {
			kind = token.DoubleEnd
		}
		s.reg = regNone
		return s.tok(kind, string(q), line)

	case triple && s.ch == q && s.peek() == byte(q) && s.peek2() == byte(q):
		s.next()
		s.next()
		s.next()
		kind := token.TSingleEnd
		if q == '"' {
			kind = token.TDoubleEnd
		}
		s.reg = regNone
		return s.tok(kind, strings.Repeat(string(q), 3), line)
	}

	// Content chunk: up to the end of line or a possible close.
	offs := s.offset
	for s.ch != eof && s.ch != '\n' {
		if s.ch == q {
			if triple && s.peek() == byte(q) && s.peek2() == byte(q) {
				break
			}
			if !triple && isByteWS(s.peek()) {
				break
			}
		}
		s.next()
	}
	return s.tok(token.Characters, string(s.src[offs:s.offset]), line)
}

func (s *Scanner) regionQuote() (q rune, triple bool) {
	switch s.reg {
	case regSingle:
		return '\'', false
	case regDouble:
		return '"', false
	case regTSingle:
		return '\'', true
	case regTDouble:
		return '"', true
	}
	panic("scanner: not in a quoted region")
}

// scanInHeredoc emits tokens inside a semicolon heredoc. The close is a
// semicolon in column zero; content after the opening semicolon on the same
// line belongs to the value, and the newline before the close is emitted as
// an ordinary NL token (the parser strips it off the assembled value).
func (s *Scanner) scanInHeredoc() token.Token {
	line := s.line
	switch {
	case s.ch == eof:
		return s.tok(token.EOF, "", line)

	case s.ch == '\n':
		s.next()
		return s.tok(token.NL, "\n", line)

	case s.ch == ';' && s.atLineStart():
		s.next()
		s.reg = regNone
		return s.tok(token.SemiEnd, ";", line)
	}

	offs := s.offset
	for s.ch != eof && s.ch != '\n' {
		s.next()
	}
	return s.tok(token.Characters, string(s.src[offs:s.offset]), line)
}
