package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/awardcheck/internal/browser"
	"github.com/sells-group/awardcheck/internal/model"
	"github.com/sells-group/awardcheck/internal/search"
	"github.com/sells-group/awardcheck/internal/store"
	"github.com/sells-group/awardcheck/internal/table"
)

// browser.Page must satisfy the checker's page contract.
var _ search.Page = (*browser.Page)(nil)

var (
	checkOutput   string
	checkColumn   string
	checkHeadless bool
	checkBrowser  string
	checkLimit    int
	checkResume   bool
)

var checkCmd = &cobra.Command{
	Use:   "check <input-table>",
	Short: "Check each company in a table for prime award results",
	Long: `Reads a CSV or XLSX table of company names, searches USASpending for each
one in a real browser, and writes a True/False status column back out.

The output file is rewritten after every row, so an interrupted run keeps
everything processed so far. SIGINT/SIGTERM stop the loop at the next row
boundary; the row in flight finishes first.

Examples:
  # Basic run, visible browser
  awardcheck check companies.csv

  # Headless, custom column, resume a previous partial run
  awardcheck check companies.csv --headless -c vendor_name --resume`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputPath := args[0]
		if _, err := os.Stat(inputPath); err != nil {
			return eris.Errorf("check: input table not found: %s", inputPath)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// Flags override config.
		if cmd.Flags().Changed("headless") {
			cfg.Browser.Headless = checkHeadless
		}
		if checkBrowser != "" {
			cfg.Browser.Engine = checkBrowser
		}

		sel, err := search.LoadSelectors(cfg.Search.SelectorsFile)
		if err != nil {
			return err
		}

		tbl, err := loadTable(inputPath)
		if err != nil {
			return err
		}
		tbl.EnsureStatus()
		zap.L().Info("table loaded",
			zap.Int("rows", tbl.Len()),
			zap.String("column", checkColumn),
		)

		// Run ledger is bookkeeping: losing it must never stop the run.
		st, err := initStore(ctx)
		if err != nil {
			zap.L().Warn("run ledger unavailable", zap.Error(err))
			st = nil
		} else if err := st.Migrate(ctx); err != nil {
			zap.L().Warn("run ledger migration failed", zap.Error(err))
			_ = st.Close()
			st = nil
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
		}

		sess, err := browser.NewSession(cfg.Browser)
		if err != nil {
			return eris.Wrap(err, "check: browser session")
		}
		defer sess.Close()

		return runCheckLoop(ctx, tbl, sess.Page(), st, inputPath, sel)
	},
}

func init() {
	checkCmd.Flags().StringVarP(&checkOutput, "output", "o", "contracts_with_status.csv", "output CSV path")
	checkCmd.Flags().StringVarP(&checkColumn, "column", "c", "company_name", "table column holding company names")
	checkCmd.Flags().BoolVar(&checkHeadless, "headless", false, "run the browser headless")
	checkCmd.Flags().StringVar(&checkBrowser, "browser", "", "browser engine: chromium, chrome, or msedge (default from config)")
	checkCmd.Flags().IntVar(&checkLimit, "limit", 0, "max rows to process this run (0 = all)")
	checkCmd.Flags().BoolVar(&checkResume, "resume", false, "reload the output file if present and skip rows already checked")
	rootCmd.AddCommand(checkCmd)
}

// loadTable loads the input table, or the previous output when resuming.
func loadTable(inputPath string) (*table.Table, error) {
	if checkResume {
		if _, err := os.Stat(checkOutput); err == nil {
			tbl, err := table.Load(checkOutput, checkColumn)
			if err == nil {
				zap.L().Info("resuming from previous output", zap.String("path", checkOutput))
				return tbl, nil
			}
			zap.L().Warn("previous output unusable, starting from input", zap.Error(err))
		}
	}
	return table.Load(inputPath, checkColumn)
}

// runCheckLoop walks the table one row at a time. The signal context is
// polled only at the row boundary: a row already in progress runs to
// completion before the loop notices the interrupt.
func runCheckLoop(ctx context.Context, tbl *table.Table, page search.Page, st store.Store, inputPath string, sel search.Selectors) error {
	checker := search.NewChecker(cfg.Search, sel)
	limiter := rate.NewLimiter(rate.Every(time.Duration(cfg.Search.RowDelayMS)*time.Millisecond), 1)

	var run *model.Run
	if st != nil {
		r, err := st.CreateRun(ctx, inputPath, checkOutput, checkColumn, tbl.Len())
		if err != nil {
			zap.L().Warn("create run record failed", zap.Error(err))
		} else {
			run = r
			zap.L().Info("run started", zap.String("run_id", run.ID))
		}
	}

	var processed, found int
	interrupted := false

	for i := 0; i < tbl.Len(); i++ {
		if ctx.Err() != nil {
			zap.L().Info("interrupt received, stopping before next row")
			interrupted = true
			break
		}
		if checkLimit > 0 && processed >= checkLimit {
			zap.L().Info("row limit reached", zap.Int("limit", checkLimit))
			break
		}
		if checkResume && tbl.Status(i) != "" {
			continue
		}

		// Throttle between rows. A signal delivered during the delay must
		// stop the loop here, before the next row starts.
		if err := limiter.Wait(ctx); err != nil {
			zap.L().Info("interrupt received during row delay, stopping")
			interrupted = true
			break
		}

		zap.L().Info("checking row",
			zap.Int("row", i),
			zap.String("company", tbl.Company(i)),
		)

		// The row itself is never canceled mid-flight; only the loop
		// boundary observes the signal.
		res := checker.Check(context.Background(), page, tbl.Company(i))
		tbl.SetStatus(i, res.Status)
		processed++
		if res.Status == search.StatusTrue {
			found++
		}

		if err := tbl.Save(checkOutput); err != nil {
			zap.L().Warn("saving table failed", zap.Int("row", i), zap.Error(err))
		}

		if run != nil {
			err := st.RecordRow(context.Background(), run.ID, model.RowResult{
				RowIndex: i,
				Company:  tbl.Company(i),
				Status:   res.Status,
				Outcome:  string(res.Outcome),
			})
			if err != nil {
				zap.L().Warn("recording row result failed", zap.Error(err))
			}
		}
	}

	if run != nil {
		status := model.RunStatusComplete
		if interrupted {
			status = model.RunStatusInterrupted
		}
		if err := st.FinishRun(context.Background(), run.ID, status, processed, found); err != nil {
			zap.L().Warn("finishing run record failed", zap.Error(err))
		}
	}

	zap.L().Info("check complete",
		zap.Int("processed", processed),
		zap.Int("found", found),
		zap.Bool("interrupted", interrupted),
		zap.String("output", checkOutput),
	)
	return nil
}
