// Package search implements the per-row interaction with the award-search
// page: navigate, fill, submit, classify. Every external interaction is
// individually guarded; any failure degrades the row to False instead of
// aborting the run.
package search

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/awardcheck/internal/config"
)

// Status values written into the table, as literal strings.
const (
	StatusTrue  = "True"
	StatusFalse = "False"
)

// Outcome tags why a row got its status. A False status alone cannot be
// told apart from a genuine empty search result; the outcome can.
type Outcome string

const (
	OutcomeFound      Outcome = "found"
	OutcomeNoResults  Outcome = "no_results"
	OutcomeMismatch   Outcome = "label_mismatch"
	OutcomeEmptyInput Outcome = "empty_input"
	OutcomeNavError   Outcome = "nav_error"
	OutcomeNoInput    Outcome = "input_not_found"
	OutcomeTimeout    Outcome = "classify_timeout"
)

// Result is the terminal state of one row.
type Result struct {
	Status  string
	Outcome Outcome
	Label   string
}

// Page is the subset of browser behavior the checker needs. The concrete
// implementation lives in internal/browser; tests substitute a mock.
type Page interface {
	Navigate(url string, timeout time.Duration) error
	WaitSettle(timeout time.Duration) error
	WaitLoad(timeout time.Duration) error
	WaitElement(selector string, timeout time.Duration) error
	Fill(selector, value string, timeout time.Duration) error
	Click(selector string, timeout time.Duration) error
	Focus(selector string, timeout time.Duration) error
	SelectAll(selector string, timeout time.Duration) error
	TypeText(value string) error
	PressEnter() error
	ElementText(selector string, timeout time.Duration) (string, error)
	WaitAny(timeout time.Duration, selectors ...string) (string, error)
}

// Checker drives the per-row state machine against a Page.
type Checker struct {
	sel Selectors

	navigate     time.Duration
	settle       time.Duration
	load         time.Duration
	inputWait    time.Duration
	fill         time.Duration
	settleDelay  time.Duration
	submitAppear time.Duration
	submitClick  time.Duration
	resultsWait  time.Duration
	labelRead    time.Duration
}

// NewChecker builds a Checker from the search configuration and selectors.
func NewChecker(cfg config.SearchConfig, sel Selectors) *Checker {
	return &Checker{
		sel:          sel,
		navigate:     time.Duration(cfg.NavigateSecs) * time.Second,
		settle:       time.Duration(cfg.SettleSecs) * time.Second,
		load:         time.Duration(cfg.LoadSecs) * time.Second,
		inputWait:    time.Duration(cfg.InputWaitSecs) * time.Second,
		fill:         time.Duration(cfg.FillSecs) * time.Second,
		settleDelay:  time.Duration(cfg.SettleDelayMS) * time.Millisecond,
		submitAppear: time.Duration(cfg.SubmitAppearSecs) * time.Second,
		submitClick:  time.Duration(cfg.SubmitClickSecs) * time.Second,
		resultsWait:  time.Duration(cfg.ResultsWaitSecs) * time.Second,
		labelRead:    time.Duration(cfg.LabelReadSecs) * time.Second,
	}
}

// Check runs one row through navigate → fill → submit → classify and
// returns its terminal status. It never returns an error: per-row failures
// degrade to StatusFalse with an explanatory outcome.
func (c *Checker) Check(ctx context.Context, page Page, company string) Result {
	company = strings.TrimSpace(company)
	if company == "" {
		return Result{Status: StatusFalse, Outcome: OutcomeEmptyInput}
	}

	log := zap.L().With(zap.String("company", company))

	if res, ok := c.navigateTo(log, page); !ok {
		return res
	}

	// The search box must appear before anything else is worth trying.
	if err := page.WaitElement(c.sel.Input, c.inputWait); err != nil {
		log.Warn("search input not found on page", zap.Error(err))
		return Result{Status: StatusFalse, Outcome: OutcomeNoInput}
	}

	c.fillInput(log, page, company)
	c.submit(ctx, log, page)

	return c.classify(log, page)
}

// navigateTo loads the search URL with the settle wait, falling back to a
// plain load wait when the SPA never quiets down. ok is false when the row
// should stop with the returned result.
func (c *Checker) navigateTo(log *zap.Logger, page Page) (Result, bool) {
	if err := page.Navigate(c.sel.URL, c.navigate); err != nil {
		log.Warn("navigation failed", zap.Error(err))
		return Result{Status: StatusFalse, Outcome: OutcomeNavError}, false
	}

	if err := page.WaitSettle(c.settle); err != nil {
		log.Debug("settle wait timed out, retrying with load wait", zap.Error(err))
		if err := page.WaitLoad(c.load); err != nil {
			log.Warn("load wait failed", zap.Error(err))
			return Result{Status: StatusFalse, Outcome: OutcomeNavError}, false
		}
	}
	return Result{}, true
}

// fillInput sets the search box to the company name. The direct fill is the
// reliable path; on failure fall back to click/focus, select whatever the box
// already holds, then type over it, best-effort. Failures here are swallowed:
// classification decides the row.
func (c *Checker) fillInput(log *zap.Logger, page Page, company string) {
	if err := page.Fill(c.sel.Input, company, c.fill); err == nil {
		return
	}
	log.Debug("direct fill failed, falling back to select-all and type")

	if err := page.Click(c.sel.Input, c.fill); err != nil {
		_ = page.Focus(c.sel.Input, c.fill)
	}
	_ = page.SelectAll(c.sel.Input, c.fill)
	if err := page.TypeText(company); err != nil {
		log.Warn("fallback typing failed", zap.Error(err))
	}
}

// submit presses Enter and clicks the submit control if it shows up. The
// control not appearing is normal: Enter may have triggered the search
// directly.
func (c *Checker) submit(ctx context.Context, log *zap.Logger, page Page) {
	// Give the SPA a beat to register the input before submitting.
	select {
	case <-time.After(c.settleDelay):
	case <-ctx.Done():
	}

	if err := page.PressEnter(); err != nil {
		log.Debug("enter keystroke failed", zap.Error(err))
	}

	if err := page.WaitElement(c.sel.Submit, c.submitAppear); err != nil {
		log.Debug("submit control did not appear, assuming enter submitted")
		return
	}
	if err := page.Click(c.sel.Submit, c.submitClick); err != nil {
		log.Warn("submit control appeared but click failed", zap.Error(err))
	}
}

// classify waits for the page to reach one of its two terminal states and
// maps it to a status. The results label must carry the exact expected
// phrase; anything else, including an unreadable label, is False.
func (c *Checker) classify(log *zap.Logger, page Page) Result {
	matched, err := page.WaitAny(c.resultsWait, c.sel.ResultsLabel, c.sel.NoResults)
	if err != nil {
		log.Warn("neither results label nor no-results message appeared")
		return Result{Status: StatusFalse, Outcome: OutcomeTimeout}
	}

	if matched == c.sel.NoResults {
		log.Info("no results message", zap.String("status", StatusFalse))
		return Result{Status: StatusFalse, Outcome: OutcomeNoResults}
	}

	label, err := page.ElementText(c.sel.ResultsLabel, c.labelRead)
	if err != nil {
		log.Warn("results label present but unreadable", zap.Error(err))
		return Result{Status: StatusFalse, Outcome: OutcomeMismatch}
	}

	label = strings.TrimSpace(label)
	if label == c.sel.ExpectedLabel {
		log.Info("results found", zap.String("status", StatusTrue))
		return Result{Status: StatusTrue, Outcome: OutcomeFound, Label: label}
	}

	log.Info("results label text mismatch",
		zap.String("label", label),
		zap.String("expected", c.sel.ExpectedLabel),
	)
	return Result{Status: StatusFalse, Outcome: OutcomeMismatch, Label: label}
}
