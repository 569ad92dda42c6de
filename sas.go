// Package sas is a simple API for STAR: a family of event-driven parsers
// for the STAR textual data language. The parser reads a token stream and
// reports data blocks, save-frames, loops, data items and comments to a
// user-supplied ContentHandler as it encounters them; no in-memory document
// is built. Grammar violations go to an ErrorHandler whose boolean returns
// decide whether parsing continues.
//
// Two dialects are supported. DDL is the generic STAR variant: multiple
// data blocks per file, data items and loops in and out of save-frames,
// loop terminators optional. NMRStar is the constrained variant used by
// BMRB: one data block holding only save-frames, explicit stop_ on every
// loop.
//
//	rec := &myHandler{}
//	errs := &parser.ReportHandler{W: os.Stderr}
//	if err := sas.ParseFile("entry.str", nil, rec, errs, sas.NMRStar, false); err != nil {
//		log.Fatal(err)
//	}
package sas

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/uwbmrb/SAS/parser"
	"github.com/uwbmrb/SAS/scanner"
)

// Dialect selects which STAR grammar the parser enforces.
type Dialect = parser.Dialect

const (
	DDL     = parser.DDL
	NMRStar = parser.NMRStar
)

// ContentHandler receives the structural events of a parse.
type ContentHandler = parser.ContentHandler

// ErrorHandler receives grammar violations and decides whether parsing
// continues.
type ErrorHandler = parser.ErrorHandler

// If src != nil, readSource converts src to a []byte if possible;
// otherwise it returns an error. If src == nil, readSource returns
// the result of reading the file specified by filename.
func readSource(filename string, src any) ([]byte, error) {
	if src != nil {
		switch s := src.(type) {
		case string:
			return []byte(s), nil
		case []byte:
			return s, nil
		case *bytes.Buffer:
			// is io.Reader, but src is already available in []byte form
			if s != nil {
				return s.Bytes(), nil
			}
		case io.Reader:
			return io.ReadAll(s)
		}
		return nil, errors.New("invalid source")
	}
	return os.ReadFile(filename)
}

// Parse tokenizes src and parses it under the given dialect, reporting
// events to content and violations to errs. It returns when the stream is
// exhausted or a sink requests a stop.
func Parse(src []byte, content ContentHandler, errs ErrorHandler, dialect Dialect, verbose bool) {
	var s scanner.Scanner
	s.Init(src, nil)
	parser.Parse(&s, content, errs, dialect, verbose)
}

// ParseFile parses one STAR file. The source may be provided via the
// filename, or via the src parameter as a string, []byte, *bytes.Buffer or
// io.Reader; a non-nil src takes precedence and the filename is ignored.
// The returned error covers reading the source only; grammar violations go
// to errs.
func ParseFile(filename string, src any, content ContentHandler, errs ErrorHandler, dialect Dialect, verbose bool) error {
	text, err := readSource(filename, src)
	if err != nil {
		return err
	}
	Parse(text, content, errs, dialect, verbose)
	return nil
}
