package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/uwbmrb/SAS/scanner"
	"github.com/uwbmrb/SAS/token"
)

// After a pushback, the very next token equals the one pushed back.
func TestSource_UnreadRedispatch(t *testing.T) {
	var s scanner.Scanner
	s.Init([]byte("data_x _a 1"), nil)
	src := &source{lx: &s}

	var seen []token.Token
	for {
		tok := src.next()
		if tok.Kind == token.EOF {
			break
		}
		src.unread(tok)
		again := src.next()
		if diff := cmp.Diff(tok, again); diff != "" {
			t.Fatalf("re-dispatched token differs (-pushed +got):\n%s", diff)
		}
		seen = append(seen, tok)
	}
	if len(seen) != 5 { // data_x, space, _a, space, 1
		t.Errorf("token count = %d, want 5", len(seen))
	}
}

func TestSource_DoubleUnreadPanics(t *testing.T) {
	var s scanner.Scanner
	s.Init([]byte("_a"), nil)
	src := &source{lx: &s}

	tok := src.next()
	src.unread(tok)
	defer func() {
		if recover() == nil {
			t.Error("second unread did not panic")
		}
	}()
	src.unread(tok)
}
