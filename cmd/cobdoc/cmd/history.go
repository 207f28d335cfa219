package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/msto63/cobdoc/internal/analysis/service"
	"github.com/msto63/cobdoc/internal/analysis/store"
	"github.com/spf13/cobra"
)

var (
	historyLimit   int
	historyOffset  int
	historyProgram string
	historyStatus  string
	pruneOlderThan time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded analysis runs",
	Long: `Lists the analysis runs recorded in the local store, newest first.

Examples:
  cobdoc history
  cobdoc history --limit 5 --program PAYROLL
  cobdoc history --status failed
  cobdoc history show 3f0c2a6e-...
  cobdoc history prune --older-than 720h`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run with its trace and dataflow",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete runs older than a given age",
	Args:  cobra.NoArgs,
	RunE:  runHistoryPrune,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyPruneCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", service.DefaultHistoryLimit, "maximum number of runs")
	historyCmd.Flags().IntVar(&historyOffset, "offset", 0, "number of runs to skip")
	historyCmd.Flags().StringVar(&historyProgram, "program", "", "only runs of this PROGRAM-ID")
	historyCmd.Flags().StringVar(&historyStatus, "status", "", "only runs with this status (completed|failed)")

	historyPruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 30*24*time.Hour, "minimum age of runs to delete")
}

func openHistory() (*service.Service, error) {
	return service.NewService(service.ConfigFrom(appConfig))
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runHistory(cmd *cobra.Command, args []string) error {
	svc, err := openHistory()
	if err != nil {
		return err
	}
	defer svc.Close()

	runs, err := svc.History(commandContext(cmd), store.RunFilter{
		Program: historyProgram,
		Status:  store.RunStatus(historyStatus),
		Limit:   historyLimit,
		Offset:  historyOffset,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("no runs recorded"))
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			run.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			statusText(run.Status),
			orDash(run.Program),
			run.Name,
			fmt.Sprintf("%d/%d/%d", run.Variables, run.Paragraphs, run.Statements),
			run.Duration.Round(time.Microsecond).String(),
		})
	}
	fmt.Fprint(out, renderTable([]string{"RUN", "CREATED", "STATUS", "PROGRAM", "SOURCE", "VARS/PARAS/STMTS", "DURATION"}, rows))
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	svc, err := openHistory()
	if err != nil {
		return err
	}
	defer svc.Close()

	run, err := svc.Run(commandContext(cmd), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render("Run "+run.ID))
	fmt.Fprintln(out, labelStyle.Render("Source")+run.Name)
	fmt.Fprintln(out, labelStyle.Render("Created")+run.CreatedAt.Local().Format(time.RFC3339))
	fmt.Fprintln(out, labelStyle.Render("Status")+statusText(run.Status))
	if run.Status == store.StatusFailed {
		fmt.Fprintln(out, labelStyle.Render("Error")+errorStyle.Render(run.Error))
		return nil
	}
	fmt.Fprintln(out, labelStyle.Render("Program")+run.Program)
	fmt.Fprintln(out, labelStyle.Render("Entry point")+nameStyle.Render(orDash(run.EntryPoint)))
	fmt.Fprintln(out, labelStyle.Render("Diagnostics")+fmt.Sprint(run.Diagnostics))

	fmt.Fprintln(out, sectionStyle.Render("Execution trace"))
	for _, step := range run.Trace {
		fmt.Fprintf(out, "%*s%s\n", step.Depth*2, "", nameStyle.Render(step.Paragraph))
	}

	fmt.Fprintln(out, sectionStyle.Render("Dataflow"))
	rows := make([][]string, 0, len(run.Edges))
	for _, e := range run.Edges {
		rows = append(rows, []string{e.Variable, e.From, e.To})
	}
	fmt.Fprint(out, renderTable([]string{"VARIABLE", "FROM", "TO"}, rows))
	return nil
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	svc, err := openHistory()
	if err != nil {
		return err
	}
	defer svc.Close()

	pruned, err := svc.Prune(commandContext(cmd), pruneOlderThan)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "pruned %d run(s) older than %s\n", pruned, pruneOlderThan)
	return nil
}

func statusText(status store.RunStatus) string {
	if status == store.StatusFailed {
		return errorStyle.Render(string(status))
	}
	return okStyle.Render(string(status))
}
