package scanner

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/uwbmrb/SAS/token"
)

type elt struct {
	Kind token.Kind
	Text string
}

func scanAll(t *testing.T, src string) []elt {
	t.Helper()
	var s Scanner
	s.Init([]byte(src), func(line int, msg string) {
		t.Errorf("error handler called (line %d, msg = %s)", line, msg)
	})
	var toks []elt
	for {
		tok := s.Scan()
		if tok.Kind == token.EOF {
			return toks
		}
		toks = append(toks, elt{tok.Kind, tok.Text})
		if len(toks) > 10000 {
			t.Fatal("scanner did not reach EOF")
		}
	}
}

func TestScanner_Scan(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []elt
	}{
		{
			name: "structural keywords",
			src:  "data_x save_y save_ loop_ stop_",
			want: []elt{
				{token.DataStart, "x"},
				{token.Space, " "},
				{token.SaveStart, "y"},
				{token.Space, " "},
				{token.SaveEnd, "save_"},
				{token.Space, " "},
				{token.LoopStart, "loop_"},
				{token.Space, " "},
				{token.Stop, "stop_"},
			},
		},
		{
			name: "keyword case folding",
			src:  "DATA_Entry1 Loop_",
			want: []elt{
				{token.DataStart, "Entry1"},
				{token.Space, " "},
				{token.LoopStart, "Loop_"},
			},
		},
		{
			name: "tags values framecodes",
			src:  "_Entry.ID 16747 $frame_1 don't",
			want: []elt{
				{token.TagName, "_Entry.ID"},
				{token.Space, " "},
				{token.Characters, "16747"},
				{token.Space, " "},
				{token.FrameCode, "$frame_1"},
				{token.Space, " "},
				{token.Characters, "don't"},
			},
		},
		{
			name: "comment",
			src:  "# a comment\ndata_x",
			want: []elt{
				{token.Comment, " a comment"},
				{token.NL, "\n"},
				{token.DataStart, "x"},
			},
		},
		{
			name: "single quoted value",
			src:  "'a b'",
			want: []elt{
				{token.SingleStart, "'"},
				{token.Characters, "a b"},
				{token.SingleEnd, "'"},
			},
		},
		{
			name: "inner quote does not close",
			src:  "'it's fine'",
			want: []elt{
				{token.SingleStart, "'"},
				{token.Characters, "it's fine"},
				{token.SingleEnd, "'"},
			},
		},
		{
			name: "double quoted value",
			src:  `"a b" x`,
			want: []elt{
				{token.DoubleStart, `"`},
				{token.Characters, "a b"},
				{token.DoubleEnd, `"`},
				{token.Space, " "},
				{token.Characters, "x"},
			},
		},
		{
			name: "triple quoted value spans lines",
			src:  "'''a\nb'''",
			want: []elt{
				{token.TSingleStart, "'''"},
				{token.Characters, "a"},
				{token.NL, "\n"},
				{token.Characters, "b"},
				{token.TSingleEnd, "'''"},
			},
		},
		{
			name: "triple double quoted value",
			src:  `"""a'b"""`,
			want: []elt{
				{token.TDoubleStart, `"""`},
				{token.Characters, "a'b"},
				{token.TDoubleEnd, `"""`},
			},
		},
		{
			name: "heredoc",
			src:  "_t\n;\nhello\nworld\n;\n",
			want: []elt{
				{token.TagName, "_t"},
				{token.NL, "\n"},
				{token.SemiStart, ";"},
				{token.Characters, "hello"},
				{token.NL, "\n"},
				{token.Characters, "world"},
				{token.NL, "\n"},
				{token.SemiEnd, ";"},
				{token.NL, "\n"},
			},
		},
		{
			name: "heredoc content on opening line",
			src:  ";partial\nmore\n;\n",
			want: []elt{
				{token.SemiStart, ";"},
				{token.Characters, "partial"},
				{token.NL, "\n"},
				{token.Characters, "more"},
				{token.NL, "\n"},
				{token.SemiEnd, ";"},
				{token.NL, "\n"},
			},
		},
		{
			name: "semicolon not in column zero is content",
			src:  "a;b",
			want: []elt{
				{token.Characters, "a;b"},
			},
		},
		{
			name: "keywords inside heredoc stay flat",
			src:  ";\nloop_ bar\n;",
			want: []elt{
				{token.SemiStart, ";"},
				{token.Characters, "loop_ bar"},
				{token.NL, "\n"},
				{token.SemiEnd, ";"},
			},
		},
		{
			name: "bare data_ global_ and underscore words",
			src:  "data_ global_ _",
			want: []elt{
				{token.Characters, "data_"},
				{token.Space, " "},
				{token.Characters, "global_"},
				{token.Space, " "},
				{token.TagName, "_"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scanAll(t, tt.src)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Scan() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScanner_Lines(t *testing.T) {
	src := "data_x\n_a 1\n# c\n"
	var s Scanner
	s.Init([]byte(src), nil)

	type lineElt struct {
		Kind token.Kind
		Line int
	}
	want := []lineElt{
		{token.DataStart, 1},
		{token.NL, 1},
		{token.TagName, 2},
		{token.Space, 2},
		{token.Characters, 2},
		{token.NL, 2},
		{token.Comment, 3},
		{token.NL, 3},
		{token.EOF, 4},
	}
	var got []lineElt
	for {
		tok := s.Scan()
		got = append(got, lineElt{tok.Kind, tok.Line})
		if tok.Kind == token.EOF {
			break
		}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("line numbers mismatch (-want +got):\n%s", diff)
	}
}

func TestScanner_End(t *testing.T) {
	src := "data_x _a"
	var s Scanner
	s.Init([]byte(src), nil)

	prev := 0
	for {
		tok := s.Scan()
		if tok.Kind == token.EOF {
			if tok.End != len(src) {
				t.Errorf("EOF End = %d, want %d", tok.End, len(src))
			}
			break
		}
		if tok.End <= prev {
			t.Errorf("token %v End = %d, want > %d", tok.Kind, tok.End, prev)
		}
		prev = tok.End
	}
}

func TestScanner_IllegalNUL(t *testing.T) {
	var s Scanner
	calls := 0
	s.Init([]byte("a\x00b"), func(line int, msg string) { calls++ })

	sawIllegal := false
	for {
		tok := s.Scan()
		if tok.Kind == token.Illegal {
			sawIllegal = true
		}
		if tok.Kind == token.EOF {
			break
		}
	}
	if !sawIllegal {
		t.Error("expected an Illegal token for a NUL byte")
	}
	if calls == 0 || s.ErrorCount == 0 {
		t.Errorf("error handler calls = %d, ErrorCount = %d, want > 0", calls, s.ErrorCount)
	}
}

func TestScanner_Reuse(t *testing.T) {
	var s Scanner
	s.Init([]byte("'unterminated"), nil)
	for {
		if tok := s.Scan(); tok.Kind == token.EOF {
			break
		}
	}

	// A reused scanner starts clean: no leftover quote region or error.
	s.Init([]byte("data_y"), nil)
	tok := s.Scan()
	if tok.Kind != token.DataStart || tok.Text != "y" {
		t.Errorf("after reuse Scan() = %v %q, want DataStart y", tok.Kind, tok.Text)
	}
}
