package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/uwbmrb/SAS/scanner"
	"github.com/uwbmrb/SAS/token"
)

var (
	evalExpr   string
	showLine   bool
	showKind   bool
	onlyErrors bool
)

var lexCmd = &cobra.Command{
	Use:   "lex [file]",
	Short: "Tokenize a STAR file or expression",
	Long: `Tokenize (lex) STAR input and print the resulting tokens.

This command is useful for debugging the scanner and understanding how
STAR source is tokenized.

Examples:
  # Tokenize a file
  sas lex entry.str

  # Tokenize inline text
  sas lex -e "data_x _a 1"

  # Show token kinds and line numbers
  sas lex --show-kind --show-line entry.str`,
	Args: cobra.MaximumNArgs(1),
	RunE: lexInput,
}

func init() {
	rootCmd.AddCommand(lexCmd)

	lexCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "tokenize inline text instead of reading from file")
	lexCmd.Flags().BoolVar(&showLine, "show-line", false, "show token line numbers")
	lexCmd.Flags().BoolVar(&showKind, "show-kind", false, "show token kind names")
	lexCmd.Flags().BoolVar(&onlyErrors, "only-errors", false, "show only illegal tokens")
}

func lexInput(cmd *cobra.Command, args []string) error {
	src, name, err := readInput(args, evalExpr)
	if err != nil {
		return err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		fmt.Printf("Tokenizing: %s\n", name)
		fmt.Printf("Input length: %d bytes\n", len(src))
		fmt.Println("---")
	}

	var s scanner.Scanner
	s.Init(src, nil)

	tokenCount := 0
	errorCount := 0
	for {
		tok := s.Scan()
		if tok.Kind == token.EOF {
			break
		}
		if tok.Kind == token.Illegal {
			errorCount++
		} else if onlyErrors {
			continue
		}
		tokenCount++
		printToken(tok)
	}

	if verbose {
		fmt.Println("---")
		fmt.Printf("Total tokens: %d\n", tokenCount)
		if errorCount > 0 {
			fmt.Printf("Errors: %d\n", errorCount)
		}
	}

	if errorCount > 0 {
		return fmt.Errorf("found %d illegal token(s)", errorCount)
	}
	return nil
}

func printToken(tok token.Token) {
	var output string
	if showKind {
		output = fmt.Sprintf("[%-12s]", tok.Kind)
	}
	if tok.Kind == token.Illegal {
		output += fmt.Sprintf(" ILLEGAL: %q", tok.Text)
	} else {
		output += fmt.Sprintf(" %q", tok.Text)
	}
	if showLine {
		output += fmt.Sprintf(" @%d", tok.Line)
	}
	fmt.Println(output)
}
