package parser

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/uwbmrb/SAS/scanner"
)

// TestFixtures parses every testdata/*.str file and snapshots the printed
// event stream together with any reports. Fixtures named nmr_* parse under
// the NMR-STAR grammar, the rest under DDL.
func TestFixtures(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.str"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no fixtures found in testdata")
	}

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".str")
		t.Run(name, func(t *testing.T) {
			src, err := os.ReadFile(file)
			if err != nil {
				t.Fatal(err)
			}

			dialect := DDL
			if strings.HasPrefix(name, "nmr_") {
				dialect = NMRStar
			}

			var buf bytes.Buffer
			var s scanner.Scanner
			s.Init(src, nil)
			Parse(&s, PrintHandler{W: &buf}, &ReportHandler{W: &buf}, dialect, false)

			snaps.MatchSnapshot(t, buf.String())
		})
	}
}
