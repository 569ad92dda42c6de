package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "1.0.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "sas",
	Short: "Event-driven STAR parser",
	Long: `sas is a simple API for STAR: an event-driven parser for the STAR
textual data language in its generic DDL and NMR-STAR dialects.

The parser reports data blocks, save-frames, loops, data items and
comments in source order; no document tree is built. It is the classic
SAX-style model adapted to the STAR grammar.`,
	Version: Version,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
}

// readInput returns the text to parse: the --eval expression if given, the
// named file, or stdin when the argument is "-" or absent.
func readInput(args []string, evalExpr string) (src []byte, name string, err error) {
	if evalExpr != "" {
		return []byte(evalExpr), "<eval>", nil
	}
	if len(args) == 0 || args[0] == "-" {
		src, err = io.ReadAll(os.Stdin)
		return src, "<stdin>", err
	}
	src, err = os.ReadFile(args[0])
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file %s: %w", args[0], err)
	}
	return src, args[0], nil
}
