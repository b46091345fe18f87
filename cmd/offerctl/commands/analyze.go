package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ignite/offer-monitor/internal/app"
	"github.com/ignite/offer-monitor/internal/blacklist"
	"github.com/ignite/offer-monitor/internal/datanorm"
	"github.com/ignite/offer-monitor/internal/service/analysis"
	"github.com/ignite/offer-monitor/internal/workbook"
)

var (
	// Analyze flags
	analyzeInput     string
	analyzeSource    string
	analyzeBlacklist string
	analyzeOutput    string
	analyzeRuleSet   string
	analyzeStore     bool
	analyzeNotify    bool
	analyzeJSON      bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyse a performance snapshot",
	Long: `Analyse a performance export, or the configured source when --input is
omitted, and write the report workbook.

--output may name a file or a directory; in a directory the workbook is
named processed_offer_<YYYYMMDD>.xlsx after the latest date in the data.

Example:
  offerctl analyze --input data.xlsx --output reports/
  offerctl analyze --input perf.csv --blacklist blacklist.csv --rule-set legacy
  offerctl analyze --config config/config.yaml --source postgres --store --notify`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeInput, "input", "i", "", "CSV or xlsx performance export")
	analyzeCmd.Flags().StringVar(&analyzeSource, "source", "", "override the configured source type (file|postgres|snowflake|s3)")
	analyzeCmd.Flags().StringVar(&analyzeBlacklist, "blacklist", "", "extra Advertiser/Affiliate blacklist CSV")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", ".", "workbook file or directory")
	analyzeCmd.Flags().StringVar(&analyzeRuleSet, "rule-set", "", "rule set version (config default when empty)")
	analyzeCmd.Flags().BoolVar(&analyzeStore, "store", false, "archive the report")
	analyzeCmd.Flags().BoolVar(&analyzeNotify, "notify", false, "send the report to the configured notifiers")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the report as JSON")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if analyzeSource != "" {
		cfg.Source.Type = analyzeSource
	}

	rt, err := app.Build(ctx, cfg, app.Options{SkipStore: !analyzeStore, SkipNotify: !analyzeNotify})
	if err != nil {
		return err
	}
	defer rt.Close()

	req := analysis.Request{
		RuleSet:  analyzeRuleSet,
		Store:    analyzeStore,
		Notify:   analyzeNotify,
		Workbook: true,
	}
	if analyzeInput != "" {
		if req.Snapshot, err = workbook.ReadFile(analyzeInput); err != nil {
			return fmt.Errorf("read %s: %w", analyzeInput, err)
		}
	}
	if analyzeBlacklist != "" {
		if req.Blacklist, err = readBlacklist(analyzeBlacklist); err != nil {
			return err
		}
	}

	res, runErr := rt.Service.Analyze(ctx, req)
	if runErr != nil && (res == nil || !errors.Is(runErr, analysis.ErrDelivery)) {
		return runErr
	}

	path, err := outputPath(analyzeOutput, res.Report.FileName())
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, res.Workbook, 0644); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	out := cmd.OutOrStdout()
	if analyzeJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res.Report); err != nil {
			return err
		}
	} else {
		rep := res.Report
		fmt.Fprintf(out, "run %s (rule set %s)\n", rep.RunID, rep.RuleSet)
		fmt.Fprintf(out, "  latest date:  %s\n", rep.LatestLabel())
		fmt.Fprintf(out, "  offers:       %d\n", len(rep.Offers))
		fmt.Fprintf(out, "  action items: %d\n", len(rep.Actions))
		if res.Dropped > 0 {
			fmt.Fprintf(out, "  dropped rows: %d\n", res.Dropped)
		}
		fmt.Fprintf(out, "  workbook:     %s\n", path)
		if res.Archive != nil {
			fmt.Fprintf(out, "  archived:     %s\n", res.Archive.Location)
		}
	}

	// Delivery failures surface after the workbook is safely written.
	return runErr
}

func readBlacklist(path string) (*blacklist.Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	set, err := datanorm.ReadBlacklistCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return set, nil
}

// outputPath resolves --output: an existing directory, or a path ending in a
// separator, receives the conventional file name.
func outputPath(output, name string) (string, error) {
	if info, err := os.Stat(output); err == nil && info.IsDir() {
		return filepath.Join(output, name), nil
	}
	if output == "" || os.IsPathSeparator(output[len(output)-1]) {
		if err := os.MkdirAll(output, 0755); err != nil && output != "" {
			return "", err
		}
		return filepath.Join(output, name), nil
	}
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return "", err
	}
	return output, nil
}
