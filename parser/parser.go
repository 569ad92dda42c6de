// Package parser implements the event-driven core of the SAS family of STAR
// parsers. It consumes a lexical token stream and reports data blocks,
// save-frames, loops, data items and comments to a ContentHandler, matching
// loop values with their header tags as it goes. Grammar violations go to an
// ErrorHandler whose boolean returns decide whether parsing continues.
package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/uwbmrb/SAS/token"
)

// The parser structure holds the parser's internal state.
type parser struct {
	src *source
	ch  ContentHandler
	eh  ErrorHandler

	dialect  Dialect
	dataName string // current data block, or FileBlockName
	saveName string // current save-frame, or UnnamedSaveframe

	verbose bool
	trace   io.Writer
}

func (p *parser) tracef(format string, args ...any) {
	if p.verbose {
		fmt.Fprintf(p.trace, "parser."+format+"\n", args...)
	}
}

// fatalLexer reports a token-source failure. Lexical errors always abort.
func (p *parser) fatalLexer(tok token.Token) {
	p.eh.FatalError(tok.Line, "Lexer error: "+tok.Text)
}

// parseFile is the top (file) level parse.
func (p *parser) parseFile() {
	p.tracef("parseFile()")

	ln := -1
	for {
		tok := p.src.next()
		switch {
		case tok.Kind == token.EOF:
			p.ch.EndData(ln, p.dataName)
			return
		case tok.Kind == token.Illegal:
			p.fatalLexer(tok)
			return
		}
		ln = tok.Line

		switch tok.Kind {
		case token.NL, token.Space:

		case token.Comment:
			if p.ch.Comment(tok.Line, tok.Text) {
				return
			}

		case token.DataStart:
			if p.ch.StartData(tok.Line, tok.Text) {
				return
			}
			p.dataName = tok.Text
			if p.parseData() {
				return
			}

		default:
			if p.eh.Error(tok.Line, fmt.Sprintf("invalid token at file level: %s : %s", tok.Kind, tok.Text)) {
				return
			}
		}
	}
}

// parseData parses one data block. It returns a stop sign: if true, stop
// parsing.
func (p *parser) parseData() bool {
	if p.dialect == NMRStar {
		return p.parseDataNMR()
	}
	return p.parseItems(ctxBlock)
}

// parseDataNMR parses a data block whose only permitted content is
// save-frames.
func (p *parser) parseDataNMR() bool {
	p.tracef("parseDataNMR()")

	ln := -1
	for {
		tok := p.src.next()
		switch {
		case tok.Kind == token.EOF:
			p.ch.EndData(ln, p.dataName)
			return true
		case tok.Kind == token.Illegal:
			p.fatalLexer(tok)
			return true
		}
		ln = tok.Line

		switch tok.Kind {
		case token.NL, token.Space:

		case token.Comment:
			if p.ch.Comment(tok.Line, tok.Text) {
				return true
			}

		case token.SaveStart:
			if p.ch.StartSaveframe(tok.Line, tok.Text) {
				return true
			}
			p.saveName = tok.Text
			if p.parseItems(ctxSave) {
				return true
			}

		default:
			if p.eh.Error(tok.Line, fmt.Sprintf("invalid token in data block: %s : %s", tok.Kind, tok.Text)) {
				return true
			}
		}
	}
}

// itemContext says whether parseItems is reading a data block's free items
// or a save-frame body. The two differ only in their exit tokens and EOF
// behavior.
type itemContext int

const (
	ctxBlock itemContext = iota
	ctxSave
)

// parseItems parses a run of tag/value pairs, loops and comments. In a DDL
// data block it exits by pushing back a data_ starter; in a save-frame it
// exits on the closing save_. Returns a stop sign.
func (p *parser) parseItems(ctx itemContext) bool {
	if ctx == ctxSave {
		p.tracef("parseSave(%s)", p.saveName)
	} else {
		p.tracef("parseData(%s)", p.dataName)
	}

	needValue := false
	var tagName string
	var tagLine int
	ln := -1

	for {
		tok := p.src.next()
		switch {
		case tok.Kind == token.EOF:
			return p.itemsEOF(ctx, ln, needValue)
		case tok.Kind == token.Illegal:
			p.fatalLexer(tok)
			return true
		}
		ln = tok.Line

		switch {
		case tok.Kind == token.NL || tok.Kind == token.Space:

		case tok.Kind == token.Comment:
			if p.ch.Comment(tok.Line, tok.Text) {
				return true
			}

		case tok.Kind == token.DataStart && ctx == ctxBlock:
			// Implicit end of the current block. Push the starter back so
			// the file level re-dispatches it.
			if needValue {
				if p.eh.Error(tok.Line, fmt.Sprintf("found data_%s, expected value", tok.Text)) {
					return true
				}
			}
			p.ch.EndData(tok.Line, p.dataName)
			p.dataName = FileBlockName
			p.src.unread(tok)
			return false

		case tok.Kind == token.SaveStart && ctx == ctxBlock:
			if needValue {
				if p.eh.Error(tok.Line, fmt.Sprintf("found save_%s, expected value", tok.Text)) {
					return true
				}
			}
			if p.ch.StartSaveframe(tok.Line, tok.Text) {
				return true
			}
			p.saveName = tok.Text
			if p.parseItems(ctxSave) {
				return true
			}

		case tok.Kind == token.SaveEnd && ctx == ctxSave:
			if needValue {
				if p.eh.Error(tok.Line, "found save_, expected value") {
					return true
				}
			}
			if p.ch.EndSaveframe(tok.Line, p.saveName) {
				return true
			}
			p.saveName = UnnamedSaveframe
			return false

		case tok.Kind == token.LoopStart:
			if needValue {
				if p.eh.Error(tok.Line, "found loop_, expected value") {
					return true
				}
			}
			if p.ch.StartLoop(tok.Line) {
				return true
			}
			if p.parseLoop() {
				return true
			}

		case tok.Kind == token.TagName:
			if needValue {
				if p.eh.Error(tok.Line, fmt.Sprintf("found tag: %s, expected value", tok.Text)) {
					return true
				}
			}
			tagName, tagLine = tok.Text, tok.Line
			needValue = true

		case tok.Kind.IsValue():
			if !needValue {
				if p.eh.Error(tok.Line, fmt.Sprintf("value not expected here: %s", tok.Text)) {
					return true
				}
			}
			if p.ch.Data(tagName, tagLine, tok.Text, tok.Line, tok.Kind.DelimSymbol(), false) {
				return true
			}
			needValue = false

		case tok.Kind.IsDelimStart():
			if !needValue {
				if p.eh.Error(tok.Line, "value not expected here (found delimiter)") {
					return true
				}
			}
			val, stop := p.readValue(tok)
			if stop {
				return true
			}
			if p.ch.Data(tagName, tagLine, val, tok.Line, tok.Kind.DelimSymbol(), false) {
				return true
			}
			needValue = false

		default:
			where := "data block"
			if ctx == ctxSave {
				where = "saveframe"
			}
			if p.eh.Error(tok.Line, fmt.Sprintf("invalid token in %s: %s : %s", where, tok.Kind, tok.Text)) {
				return true
			}
		}
	}
}

// itemsEOF handles end of input inside a data block or save-frame.
func (p *parser) itemsEOF(ctx itemContext, ln int, needValue bool) bool {
	if ctx == ctxSave {
		if p.dialect == NMRStar {
			if needValue {
				p.eh.FatalError(ln, fmt.Sprintf("EOF in saveframe: %s (expected value)", p.saveName))
			} else {
				p.eh.FatalError(ln, fmt.Sprintf("EOF in saveframe: %s (no closing save_)", p.saveName))
			}
			return true
		}
		if needValue {
			p.eh.FatalError(ln, "premature EOF, expected value")
		} else {
			p.eh.FatalError(ln, "premature EOF (no closing save_)")
		}
		return true
	}
	if needValue {
		p.eh.FatalError(ln, "premature EOF, expected value")
		return true
	}
	p.ch.EndData(ln, p.dataName)
	return true
}

// A loopTag is one column of a loop header.
type loopTag struct {
	name string
	line int
}

func (p *parser) parseLoop() bool {
	if p.dialect == NMRStar {
		return p.parseLoopNMR()
	}
	return p.parseLoopDDL()
}

// checkArity reports a loop count error unless the value count divides
// evenly over the tags. Returns true to stop.
func (p *parser) checkArity(line, numVals int, tags []loopTag) bool {
	if len(tags) > 0 && numVals%len(tags) != 0 {
		return p.eh.Error(line, "Loop count error")
	}
	return false
}

// parseLoopDDL parses a loop where stop_ is optional: another loop, a data
// block, a tag, a save_ or EOF after values also ends it. Returns a stop
// sign.
func (p *parser) parseLoopDDL() bool {
	p.tracef("parseLoop()")

	readingTags := true
	var tags []loopTag
	tagIdx := -1
	numVals := 0
	ln := -1

	for {
		tok := p.src.next()
		switch {
		case tok.Kind == token.EOF:
			if len(tags) < 1 {
				if p.eh.Error(ln, "Loop with no tags") {
					return true
				}
			}
			if numVals < 1 {
				if p.eh.Error(ln, "Loop with no values") {
					return true
				}
			}
			if p.checkArity(ln, numVals, tags) {
				return true
			}
			p.ch.EndLoop(ln)
			// We may be in a saveframe.
			if p.saveName != UnnamedSaveframe {
				p.eh.FatalError(ln, "Premature EOF (no closing save_)")
				return true
			}
			p.ch.EndData(ln, p.dataName)
			return true
		case tok.Kind == token.Illegal:
			p.fatalLexer(tok)
			return true
		}
		ln = tok.Line

		switch {
		case tok.Kind == token.NL || tok.Kind == token.Space:

		case tok.Kind == token.Comment:
			if p.ch.Comment(tok.Line, tok.Text) {
				return true
			}

		case tok.Kind == token.Stop:
			if readingTags && len(tags) < 1 {
				if p.eh.Error(tok.Line, "Loop with no tags") {
					return true
				}
			}
			if numVals < 1 {
				if p.eh.Error(tok.Line, "Loop with no values") {
					return true
				}
			}
			if p.checkArity(tok.Line, numVals, tags) {
				return true
			}
			p.ch.EndLoop(tok.Line)
			return false

		case tok.Kind == token.DataStart || tok.Kind == token.SaveStart:
			if readingTags {
				if len(tags) < 1 {
					if p.eh.Error(tok.Line, "Loop with no tags") {
						return true
					}
				}
				if p.eh.Error(tok.Line, fmt.Sprintf("found data_%s, expected value", tok.Text)) {
					return true
				}
			} else if p.checkArity(tok.Line, numVals, tags) {
				return true
			}
			p.ch.EndLoop(tok.Line)
			p.src.unread(tok)
			return false

		case tok.Kind == token.SaveEnd || tok.Kind == token.LoopStart:
			if readingTags {
				if len(tags) < 1 {
					if p.eh.Error(tok.Line, "Loop with no tags") {
						return true
					}
				}
				if p.eh.Error(tok.Line, fmt.Sprintf("found %s, expected value", tok.Text)) {
					return true
				}
			} else if p.checkArity(tok.Line, numVals, tags) {
				return true
			}
			p.ch.EndLoop(tok.Line)
			p.src.unread(tok)
			return false

		case tok.Kind == token.TagName:
			if !readingTags {
				// A tag after values implicitly ends the loop; the caller
				// re-dispatches it as a free data item.
				if p.checkArity(tok.Line, numVals, tags) {
					return true
				}
				p.ch.EndLoop(tok.Line)
				p.src.unread(tok)
				return false
			}
			tags = append(tags, loopTag{tok.Text, tok.Line})

		case tok.Kind.IsValue() || tok.Kind.IsDelimStart():
			readingTags = false
			if len(tags) < 1 {
				if p.eh.Error(tok.Line, "Loop with no tags") {
					return true
				}
				tags = append(tags, loopTag{SentinelTag, tok.Line})
			}
			numVals++
			tagIdx++
			if tagIdx >= len(tags) {
				tagIdx = 0
			}

			val := tok.Text
			if tok.Kind.IsDelimStart() {
				var stop bool
				val, stop = p.readValue(tok)
				if stop {
					return true
				}
			}
			t := tags[tagIdx]
			if p.ch.Data(t.name, t.line, val, tok.Line, tok.Kind.DelimSymbol(), true) {
				return true
			}

		default:
			if p.eh.Error(tok.Line, fmt.Sprintf("invalid token in loop: %s : %s", tok.Kind, tok.Text)) {
				return true
			}
		}
	}
}

// parseLoopNMR parses a loop whose stop_ is mandatory. Structural tokens
// inside the loop are plain errors, a tag after values is an error rather
// than an implicit end, and EOF is fatal. Returns a stop sign.
func (p *parser) parseLoopNMR() bool {
	p.tracef("parseLoop()")

	needTag := true
	var tags []loopTag
	tagIdx := -1
	numVals := 0
	ln := -1

	for {
		tok := p.src.next()
		switch {
		case tok.Kind == token.EOF:
			if len(tags) < 1 {
				p.eh.FatalError(ln, "EOF in loop (no tags)")
				return true
			}
			if numVals < 1 {
				p.eh.FatalError(ln, "EOF in loop (no values)")
				return true
			}
			if numVals%len(tags) != 0 {
				p.eh.Error(ln, "Loop count error")
			}
			p.eh.FatalError(ln, "EOF in loop (no closing stop_)")
			return true
		case tok.Kind == token.Illegal:
			p.fatalLexer(tok)
			return true
		}
		ln = tok.Line

		switch {
		case tok.Kind == token.NL || tok.Kind == token.Space:

		case tok.Kind == token.Comment:
			if p.ch.Comment(tok.Line, tok.Text) {
				return true
			}

		case tok.Kind == token.Stop:
			if needTag {
				if p.eh.Error(tok.Line, "Loop with no tags") {
					return true
				}
			}
			if numVals < 1 {
				if p.eh.Error(tok.Line, "Loop with no values") {
					return true
				}
			}
			if p.checkArity(tok.Line, numVals, tags) {
				return true
			}
			p.ch.EndLoop(tok.Line)
			return false

		case tok.Kind == token.TagName:
			if !needTag {
				if p.eh.Error(tok.Line, fmt.Sprintf("tag not expected here: %s", tok.Text)) {
					return true
				}
			}
			tags = append(tags, loopTag{tok.Text, tok.Line})

		case tok.Kind.IsValue() || tok.Kind.IsDelimStart():
			needTag = false
			if len(tags) < 1 {
				if p.eh.Error(tok.Line, "Loop with no tags") {
					return true
				}
				tags = append(tags, loopTag{SentinelTag, tok.Line})
			}
			numVals++
			tagIdx++
			if tagIdx >= len(tags) {
				tagIdx = 0
			}

			val := tok.Text
			if tok.Kind.IsDelimStart() {
				var stop bool
				val, stop = p.readValue(tok)
				if stop {
					return true
				}
			}
			t := tags[tagIdx]
			if p.ch.Data(t.name, t.line, val, tok.Line, tok.Kind.DelimSymbol(), true) {
				return true
			}

		default:
			if p.eh.Error(tok.Line, fmt.Sprintf("invalid token in loop: %s : %s", tok.Kind, tok.Text)) {
				return true
			}
		}
	}
}

// readValue consumes tokens from just past the opening delimiter up to its
// matching close and returns the assembled value. The second result is the
// stop sign.
func (p *parser) readValue(open token.Token) (string, bool) {
	p.tracef("readValue(%s)", open.Kind)

	closing := open.Kind.ClosingDelim()
	quoted := open.Kind.Quoted()
	stop := false
	var val strings.Builder
	ln := -1

	for {
		tok := p.src.next()
		switch {
		case tok.Kind == token.EOF:
			p.eh.FatalError(ln, "EOF in delimited value")
			return val.String(), true
		case tok.Kind == token.Illegal:
			p.fatalLexer(tok)
			return val.String(), true
		}
		ln = tok.Line

		if quoted && tok.Kind == token.NL {
			if p.eh.Error(tok.Line, "newline in quoted value: "+val.String()) {
				return val.String(), true
			}
			val.WriteString("\n")
			continue
		}

		if tok.Kind == closing {
			if open.Kind == token.SemiStart {
				// The trailing newline is part of the closing "\n;".
				return strings.TrimSuffix(val.String(), "\n"), stop
			}
			return val.String(), stop
		}

		if !quoted {
			if kw, ok := matchKeyword(tok.Text); ok {
				if p.eh.Warning(tok.Line, "keyword in value: "+kw) {
					stop = true
				}
			}
		}
		val.WriteString(tok.Text)
	}
}

// matchKeyword tests the stripped token text against the reserved-word
// patterns and returns the first match.
func matchKeyword(text string) (string, bool) {
	stripped := strings.TrimSpace(text)
	for _, pat := range token.Keywords {
		if m := pat.FindStringSubmatch(stripped); m != nil {
			return m[1], true
		}
	}
	return "", false
}
