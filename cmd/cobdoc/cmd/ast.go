package cmd

import (
	"fmt"

	cderror "github.com/msto63/cobdoc/foundation/core/error"
	"github.com/spf13/cobra"
)

var astFormat string

var astCmd = &cobra.Command{
	Use:   "ast [file|-]",
	Short: "Export the syntax tree of a program",
	Long: `Parses a program and prints its syntax tree in the key-ordered export
form (program_name, variables, procedures) used by documentation renderers.

Examples:
  cobdoc ast payroll.cbl
  cobdoc ast --format yaml payroll.cbl`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAST,
}

func init() {
	rootCmd.AddCommand(astCmd)
	astCmd.Flags().StringVarP(&astFormat, "format", "f", "json", "output format (json|yaml)")
}

func runAST(cmd *cobra.Command, args []string) error {
	if astFormat != "json" && astFormat != "yaml" {
		return invalidFormat(astFormat, "json", "yaml")
	}

	_, source, err := readSource(args)
	if err != nil {
		return err
	}

	engine, err := newEngine(false)
	if err != nil {
		return err
	}

	doc, err := engine.Export(source)
	if err != nil {
		return err
	}

	var out []byte
	if astFormat == "yaml" {
		out, err = doc.YAML()
	} else {
		out, err = doc.JSON()
	}
	if err != nil {
		return cderror.Wrap(err, "failed to encode syntax tree")
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func invalidFormat(format string, allowed ...string) error {
	return cderror.Newf("unknown format %q (allowed: %s)", format, joinOrDash(allowed)).
		WithCode(cderror.CodeInvalidInput)
}
