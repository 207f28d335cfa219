package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/msto63/cobdoc/foundation/cobol"
	"github.com/msto63/cobdoc/foundation/cobol/parser"
	cdlog "github.com/msto63/cobdoc/foundation/core/log"
	"github.com/spf13/cobra"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens [file|-]",
	Short: "Dump the token stream of a program",
	Long: `Runs the lexer only and prints one token per line with its position.
Illegal characters are reported on stderr and skipped.

Examples:
  cobdoc tokens payroll.cbl
  cat payroll.cbl | cobdoc tokens`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)
}

func runTokens(cmd *cobra.Command, args []string) error {
	_, source, err := readSource(args)
	if err != nil {
		return err
	}

	engine, err := newEngine(false)
	if err != nil {
		return err
	}

	tokens, diags := engine.Tokenize(source)

	rows := make([][]string, 0, len(tokens))
	for _, tok := range tokens {
		rows = append(rows, []string{
			fmt.Sprintf("%d:%d", tok.Line, tok.Column),
			tok.Type.String(),
			strconv.Quote(tok.Text()),
		})
	}
	fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"POS", "TYPE", "TEXT"}, rows))

	printDiagnostics(diags)
	return nil
}

// newEngine builds an engine from the loaded configuration
func newEngine(nestedCalls bool) (*cobol.Engine, error) {
	return cobol.NewEngine(cobol.Options{
		Logger:         cdlog.GetDefault(),
		MaxInputLength: appConfig.Parser.MaxInputLength,
		NestedCalls:    nestedCalls || appConfig.Analysis.NestedCalls,
		MaxTraceDepth:  appConfig.Analysis.MaxTraceDepth,
	})
}

func printDiagnostics(diags []parser.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(os.Stderr, warnStyle.Render("warning: ")+d.Message())
	}
}
