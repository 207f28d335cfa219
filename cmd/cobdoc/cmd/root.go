package cmd

import (
	"fmt"
	"os"

	cderror "github.com/msto63/cobdoc/foundation/core/error"
	"github.com/msto63/cobdoc/pkg/core/config"
	"github.com/msto63/cobdoc/pkg/core/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool

	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "cobdoc",
	Short: "cobdoc - COBOL static analysis and documentation",
	Long: `cobdoc parses a subset of COBOL and derives the tables a documentation
generator needs: variable usage, the paragraph call graph, an execution
trace and inter-paragraph dataflow.

Commands:
  tokens   - Dump the token stream
  ast      - Export the syntax tree (json|yaml)
  analyze  - Run the full analysis (text|json|yaml)
  history  - Inspect recorded analysis runs
  serve    - Start the gRPC analysis service
  version  - Show version information`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseOutputs()
	},
}

// Execute runs the root command and prints any error
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(err)
	}
	return err
}

// ExitCode maps an error to the process exit status: 2 for input the
// parser rejected, 1 for everything else
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case cderror.HasCode(err, cderror.CodeSyntax),
		cderror.HasCode(err, cderror.CodeUnexpectedEOF),
		cderror.HasCode(err, cderror.CodeInvalidInput),
		cderror.HasCode(err, cderror.CodeInputTooLarge):
		return 2
	default:
		return 1
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $COBDOC_CONFIG or ./configs/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
}

// setup loads the configuration and installs the process-wide logger.
// Outside of serve, routine info logs are suppressed unless -v is given.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	if cfgFile != "" {
		appConfig, err = config.Load(cfgFile)
	} else {
		appConfig, err = config.LoadFromEnv()
	}
	if err != nil {
		return err
	}

	general := appConfig.General
	switch {
	case verbose:
		general.LogLevel = "debug"
	case cmd.Name() != "serve" && general.LogLevel == "info":
		general.LogLevel = "warn"
	}

	_, err = logging.Setup(general)
	return err
}

func printError(err error) {
	fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+err.Error())
}
