package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/msto63/cobdoc/foundation/cobol/analyzer"
	cderror "github.com/msto63/cobdoc/foundation/core/error"
	"github.com/msto63/cobdoc/internal/analysis/server"
	"github.com/msto63/cobdoc/internal/analysis/service"
	coregrpc "github.com/msto63/cobdoc/pkg/core/grpc"
	"github.com/spf13/cobra"
	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/yaml.v3"
)

var (
	analyzeFormat      string
	analyzeNestedCalls bool
	analyzeNoStore     bool
	analyzeRemote      string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file|-]",
	Short: "Analyze a program",
	Long: `Parses a program and derives variable usage, the call graph, the
execution trace and the dataflow between paragraphs.

Runs are recorded in the local history unless --no-store is given or the
store is disabled in the config. With --remote the program is sent to a
running "cobdoc serve" instead.

Examples:
  cobdoc analyze payroll.cbl
  cobdoc analyze --format json payroll.cbl
  cobdoc analyze --nested-calls --format yaml payroll.cbl
  cobdoc analyze --remote localhost:9300 payroll.cbl`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "text", "output format (text|json|yaml)")
	analyzeCmd.Flags().BoolVar(&analyzeNestedCalls, "nested-calls", false, "include PERFORMs inside IF branches in the call graph")
	analyzeCmd.Flags().BoolVar(&analyzeNoStore, "no-store", false, "do not record the run in the history")
	analyzeCmd.Flags().StringVar(&analyzeRemote, "remote", "", "address of a running analysis service")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	switch analyzeFormat {
	case "text", "json", "yaml":
	default:
		return invalidFormat(analyzeFormat, "text", "json", "yaml")
	}

	name, source, err := readSource(args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if analyzeRemote != "" {
		return runAnalyzeRemote(ctx, cmd.OutOrStdout(), name, source)
	}
	return runAnalyzeLocal(ctx, cmd.OutOrStdout(), name, source)
}

func runAnalyzeLocal(ctx context.Context, out io.Writer, name, source string) error {
	cfg := service.ConfigFrom(appConfig)
	cfg.Engine.NestedCalls = cfg.Engine.NestedCalls || analyzeNestedCalls
	cfg.StoreEnabled = cfg.StoreEnabled && !analyzeNoStore

	svc, err := service.NewService(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	report, err := svc.Analyze(ctx, name, source)
	if err != nil {
		return err
	}

	printDiagnostics(report.Diagnostics)

	switch analyzeFormat {
	case "json":
		return writeEncoded(out, report.Analysis.JSON)
	case "yaml":
		return writeEncoded(out, report.Analysis.YAML)
	}

	fmt.Fprint(out, renderReport(report.Analysis))
	if report.Persisted {
		fmt.Fprintln(out, mutedStyle.Render("run "+report.RunID))
	}
	return nil
}

func runAnalyzeRemote(ctx context.Context, out io.Writer, name, source string) error {
	if analyzeNestedCalls {
		return cderror.New("--nested-calls is configured on the server side").
			WithCode(cderror.CodeInvalidInput)
	}

	conn, err := coregrpc.DialSimple(analyzeRemote)
	if err != nil {
		return cderror.Wrap(err, "analysis service not reachable")
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, appConfig.Analysis.Timeout.Duration)
	defer cancel()

	resp, err := server.NewClient(conn).Analyze(ctx, name, source)
	if err != nil {
		return err
	}

	for _, d := range resp.GetFields()["diagnostics"].GetListValue().GetValues() {
		msg := d.GetStructValue().GetFields()["message"].GetStringValue()
		fmt.Fprintln(os.Stderr, warnStyle.Render("warning: ")+msg)
	}

	reportValue := resp.GetFields()["report"].GetStructValue()
	switch analyzeFormat {
	case "json":
		return writeEncoded(out, func() ([]byte, error) {
			return json.MarshalIndent(reportValue.AsMap(), "", "  ")
		})
	case "yaml":
		return writeEncoded(out, func() ([]byte, error) {
			return yaml.Marshal(reportValue.AsMap())
		})
	}

	report, err := reportFromStruct(reportValue)
	if err != nil {
		return err
	}
	fmt.Fprint(out, renderReport(report))
	fmt.Fprintln(out, mutedStyle.Render("run "+resp.GetFields()["run_id"].GetStringValue()+" on "+analyzeRemote))
	return nil
}

// reportFromStruct decodes a report received over gRPC
func reportFromStruct(s *structpb.Struct) (*analyzer.Report, error) {
	raw, err := json.Marshal(s.AsMap())
	if err != nil {
		return nil, err
	}
	var report analyzer.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, cderror.Wrap(err, "malformed report from analysis service")
	}
	return &report, nil
}

func writeEncoded(out io.Writer, encode func() ([]byte, error)) error {
	data, err := encode()
	if err != nil {
		return cderror.Wrap(err, "failed to encode report")
	}
	fmt.Fprintln(out, strings.TrimRight(string(data), "\n"))
	return nil
}

// renderReport prints the derived tables; it is not a documentation renderer
func renderReport(rep *analyzer.Report) string {
	var b strings.Builder
	s := rep.Summary

	b.WriteString(titleStyle.Render("Program "+s.Program) + "\n")
	b.WriteString(labelStyle.Render("Entry point") + nameStyle.Render(orDash(s.EntryPoint)) + "\n")
	b.WriteString(labelStyle.Render("Statements") + fmt.Sprint(s.TotalStatements) + "\n")
	b.WriteString(labelStyle.Render("Paragraphs") + fmt.Sprint(s.TotalProcedures) + "\n")
	b.WriteString(labelStyle.Render("Variables") + fmt.Sprint(s.TotalVariables) + "\n")
	b.WriteString(labelStyle.Render("Output variables") + joinOrDash(s.OutputVariables) + "\n")

	b.WriteString(sectionStyle.Render("Variables") + "\n")
	rows := make([][]string, 0, len(rep.Variables))
	for _, v := range rep.Variables {
		rows = append(rows, []string{
			fmt.Sprintf("%02d", v.Level),
			v.Name,
			derefOrDash(v.Picture),
			derefOrDash(v.Value),
			v.Purpose,
			joinOrDash(v.Reads),
			joinOrDash(v.Writes),
		})
	}
	b.WriteString(renderTable([]string{"LVL", "NAME", "PIC", "VALUE", "PURPOSE", "READ BY", "WRITTEN BY"}, rows))

	b.WriteString(sectionStyle.Render("Paragraphs") + "\n")
	rows = rows[:0]
	for _, p := range rep.Procedures {
		rows = append(rows, []string{
			p.Name,
			fmt.Sprint(p.StatementCount),
			joinOrDash(p.Calls),
			joinOrDash(p.CalledBy),
		})
	}
	b.WriteString(renderTable([]string{"NAME", "STMTS", "CALLS", "CALLED BY"}, rows))

	b.WriteString(sectionStyle.Render("Execution trace") + "\n")
	if len(rep.Trace) == 0 {
		b.WriteString(mutedStyle.Render("(empty)") + "\n")
	}
	for _, step := range rep.Trace {
		b.WriteString(strings.Repeat("  ", step.Depth) + nameStyle.Render(step.Paragraph) + "\n")
	}

	b.WriteString(sectionStyle.Render("Dataflow") + "\n")
	if len(rep.DataFlow) == 0 {
		b.WriteString(mutedStyle.Render("(none)") + "\n")
	}
	for _, flow := range rep.DataFlow {
		b.WriteString(okStyle.Render(flow.Variable) + mutedStyle.Render(" ("+flow.Purpose+")") + "\n")
		for _, e := range flow.Edges {
			b.WriteString("  " + e.From + " -> " + e.To + "\n")
		}
	}

	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func derefOrDash(s *string) string {
	if s == nil {
		return "-"
	}
	return orDash(*s)
}
