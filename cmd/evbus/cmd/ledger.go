package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/brianly1003/evbus/internal/adapters/ledgerstore"
)

var (
	ledgerDBPath string
	ledgerLimit  int
	ledgerJSON   bool
)

// ledgerCmd inspects stored run ledgers.
var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect stored run ledgers",
	Long: `Inspect run ledgers stored by "evbus run --persist".

Examples:
  evbus ledger runs             # List recent runs
  evbus ledger show <run-id>    # Show the delivery ledger of a run
  evbus ledger rm <run-id>      # Delete a stored run`,
}

var ledgerRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runLedgerRuns,
}

var ledgerShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the delivery ledger of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runLedgerShow,
}

var ledgerRmCmd = &cobra.Command{
	Use:   "rm <run-id>",
	Short: "Delete a stored run",
	Args:  cobra.ExactArgs(1),
	RunE:  runLedgerRm,
}

func init() {
	ledgerCmd.AddCommand(ledgerRunsCmd)
	ledgerCmd.AddCommand(ledgerShowCmd)
	ledgerCmd.AddCommand(ledgerRmCmd)

	ledgerCmd.PersistentFlags().StringVar(&ledgerDBPath, "db", "", "ledger database path (overrides ledger.db_path)")
	ledgerCmd.PersistentFlags().BoolVar(&ledgerJSON, "json", false, "print as JSON")
	ledgerRunsCmd.Flags().IntVar(&ledgerLimit, "limit", 20, "maximum number of runs to list (0 for all)")
}

func openLedgerStore() (*ledgerstore.Store, error) {
	path := ledgerDBPath
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		setupLogging(cfg)
		path = cfg.Ledger.DBPath
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("no ledger database at %s (run a scenario with --persist first)", path)
	}
	return ledgerstore.Open(path)
}

func runLedgerRuns(cmd *cobra.Command, args []string) error {
	store, err := openLedgerStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.Runs(ledgerLimit)
	if err != nil {
		return err
	}

	if ledgerJSON {
		return printJSON(runs)
	}
	if len(runs) == 0 {
		fmt.Println("No stored runs.")
		return nil
	}

	fmt.Printf("%-36s  %-20s  %-12s  %-6s  %7s  %s\n", "RUN ID", "SCENARIO", "MODE", "RESULT", "ENTRIES", "STARTED")
	for _, r := range runs {
		fmt.Printf("%-36s  %-20s  %-12s  %-6s  %7d  %s\n",
			r.ID, truncate(r.Scenario, 20), r.Mode, result(r.Passed), r.Entries,
			r.StartedAt.Local().Format(time.DateTime))
	}
	return nil
}

func runLedgerShow(cmd *cobra.Command, args []string) error {
	store, err := openLedgerStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	run, err := store.Run(args[0])
	if err != nil {
		return err
	}
	entries, err := store.Entries(run.ID)
	if err != nil {
		return err
	}

	if ledgerJSON {
		return printJSON(struct {
			Run     ledgerstore.Run     `json:"run"`
			Entries []ledgerstore.Entry `json:"entries"`
		}{run, entries})
	}

	fmt.Printf("Run:       %s\n", run.ID)
	fmt.Printf("Scenario:  %s\n", run.Scenario)
	fmt.Printf("Mode:      %s\n", run.Mode)
	fmt.Printf("Result:    %s\n", result(run.Passed))
	fmt.Printf("Started:   %s\n", run.StartedAt.Local().Format(time.DateTime))
	fmt.Printf("Duration:  %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Microsecond))
	for _, f := range run.Failures {
		fmt.Printf("Absorbed:  %s\n", f)
	}

	fmt.Println()
	if len(entries) == 0 {
		fmt.Println("No deliveries recorded.")
		return nil
	}
	fmt.Printf("%5s  %-20s  %-12s  %-20s  %s\n", "SEQ", "EVENT", "SUBSCRIBER", "HANDLER", "PAYLOAD")
	for _, e := range entries {
		fmt.Printf("%5d  %-20s  %-12s  %-20s  %s\n",
			e.Seq, e.EventType, truncate(e.Subscriber, 12), truncate(e.Handler, 20), string(e.Payload))
	}
	return nil
}

func runLedgerRm(cmd *cobra.Command, args []string) error {
	store, err := openLedgerStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.DeleteRun(args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted run %s\n", args[0])
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func result(passed bool) string {
	if passed {
		return "passed"
	}
	return "failed"
}

// truncate shortens s to n runes, marking the cut with "~".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return strings.Repeat("~", n)
	}
	return string(r[:n-1]) + "~"
}
