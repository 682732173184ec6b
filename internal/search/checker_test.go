package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/awardcheck/internal/config"
)

// mockPage implements Page for testing. Behavior is keyed per selector so a
// single mock covers every branch of the state machine.
type mockPage struct {
	navErr    error
	settleErr error
	loadErr   error
	waitErrs  map[string]error
	fillErr   error
	clickErrs map[string]error
	focusErr  error
	typeErr   error
	enterErr  error
	textVal   string
	textErr   error
	raceMatch string
	raceErr   error

	calls []string
}

func (m *mockPage) Navigate(url string, _ time.Duration) error {
	m.calls = append(m.calls, "navigate")
	return m.navErr
}

func (m *mockPage) WaitSettle(_ time.Duration) error {
	m.calls = append(m.calls, "settle")
	return m.settleErr
}

func (m *mockPage) WaitLoad(_ time.Duration) error {
	m.calls = append(m.calls, "load")
	return m.loadErr
}

func (m *mockPage) WaitElement(selector string, _ time.Duration) error {
	m.calls = append(m.calls, "wait:"+selector)
	return m.waitErrs[selector]
}

func (m *mockPage) Fill(selector, value string, _ time.Duration) error {
	m.calls = append(m.calls, "fill:"+value)
	return m.fillErr
}

func (m *mockPage) Click(selector string, _ time.Duration) error {
	m.calls = append(m.calls, "click:"+selector)
	return m.clickErrs[selector]
}

func (m *mockPage) Focus(selector string, _ time.Duration) error {
	m.calls = append(m.calls, "focus:"+selector)
	return m.focusErr
}

func (m *mockPage) SelectAll(selector string, _ time.Duration) error {
	m.calls = append(m.calls, "selectall:"+selector)
	return nil
}

func (m *mockPage) TypeText(value string) error {
	m.calls = append(m.calls, "type:"+value)
	return m.typeErr
}

func (m *mockPage) PressEnter() error {
	m.calls = append(m.calls, "enter")
	return m.enterErr
}

func (m *mockPage) ElementText(selector string, _ time.Duration) (string, error) {
	m.calls = append(m.calls, "text:"+selector)
	return m.textVal, m.textErr
}

func (m *mockPage) WaitAny(_ time.Duration, selectors ...string) (string, error) {
	m.calls = append(m.calls, "race")
	return m.raceMatch, m.raceErr
}

func newTestChecker() (*Checker, Selectors) {
	sel := DefaultSelectors()
	return NewChecker(config.SearchConfig{}, sel), sel
}

func TestCheck_EmptyCompany_NoBrowserInteraction(t *testing.T) {
	checker, _ := newTestChecker()
	page := &mockPage{}

	for _, company := range []string{"", "   ", "\t\n"} {
		res := checker.Check(context.Background(), page, company)
		assert.Equal(t, StatusFalse, res.Status)
		assert.Equal(t, OutcomeEmptyInput, res.Outcome)
	}
	assert.Empty(t, page.calls, "blank rows must not touch the browser")
}

func TestCheck_ResultsFound(t *testing.T) {
	checker, sel := newTestChecker()
	page := &mockPage{
		raceMatch: sel.ResultsLabel,
		textVal:   "Prime Award Results",
	}

	res := checker.Check(context.Background(), page, "Acme Corp")

	assert.Equal(t, StatusTrue, res.Status)
	assert.Equal(t, OutcomeFound, res.Outcome)
	assert.Equal(t, "Prime Award Results", res.Label)
	assert.Contains(t, page.calls, "navigate")
	assert.Contains(t, page.calls, "fill:Acme Corp")
	assert.Contains(t, page.calls, "enter")
}

func TestCheck_LabelWhitespaceTrimmed(t *testing.T) {
	checker, sel := newTestChecker()
	page := &mockPage{
		raceMatch: sel.ResultsLabel,
		textVal:   "  Prime Award Results\n",
	}

	res := checker.Check(context.Background(), page, "Acme Corp")
	assert.Equal(t, StatusTrue, res.Status)
}

func TestCheck_LabelMismatch(t *testing.T) {
	checker, sel := newTestChecker()
	page := &mockPage{
		raceMatch: sel.ResultsLabel,
		textVal:   "Prime Award Results (123)",
	}

	res := checker.Check(context.Background(), page, "Acme Corp")

	assert.Equal(t, StatusFalse, res.Status)
	assert.Equal(t, OutcomeMismatch, res.Outcome)
	assert.Equal(t, "Prime Award Results (123)", res.Label)
}

func TestCheck_LabelUnreadable(t *testing.T) {
	checker, sel := newTestChecker()
	page := &mockPage{
		raceMatch: sel.ResultsLabel,
		textErr:   errors.New("stale element"),
	}

	res := checker.Check(context.Background(), page, "Acme Corp")

	assert.Equal(t, StatusFalse, res.Status)
	assert.Equal(t, OutcomeMismatch, res.Outcome)
}

func TestCheck_NoResultsMessage(t *testing.T) {
	checker, sel := newTestChecker()
	page := &mockPage{raceMatch: sel.NoResults}

	res := checker.Check(context.Background(), page, "Acme Corp")

	assert.Equal(t, StatusFalse, res.Status)
	assert.Equal(t, OutcomeNoResults, res.Outcome)
	assert.NotContains(t, page.calls, "text:"+sel.ResultsLabel)
}

func TestCheck_NeitherElementAppears(t *testing.T) {
	checker, _ := newTestChecker()
	page := &mockPage{raceErr: errors.New("context deadline exceeded")}

	res := checker.Check(context.Background(), page, "Acme Corp")

	assert.Equal(t, StatusFalse, res.Status)
	assert.Equal(t, OutcomeTimeout, res.Outcome)
}

func TestCheck_NavigationError(t *testing.T) {
	checker, _ := newTestChecker()
	page := &mockPage{navErr: errors.New("net::ERR_NAME_NOT_RESOLVED")}

	res := checker.Check(context.Background(), page, "Acme Corp")

	assert.Equal(t, StatusFalse, res.Status)
	assert.Equal(t, OutcomeNavError, res.Outcome)
	assert.Equal(t, []string{"navigate"}, page.calls, "row must stop at the failed navigation")
}

func TestCheck_SettleTimeoutFallsBackToLoad(t *testing.T) {
	checker, sel := newTestChecker()
	page := &mockPage{
		settleErr: errors.New("context deadline exceeded"),
		raceMatch: sel.NoResults,
	}

	res := checker.Check(context.Background(), page, "Acme Corp")

	assert.Equal(t, StatusFalse, res.Status)
	assert.Equal(t, OutcomeNoResults, res.Outcome)
	assert.Contains(t, page.calls, "load")
}

func TestCheck_SettleAndLoadBothFail(t *testing.T) {
	checker, _ := newTestChecker()
	page := &mockPage{
		settleErr: errors.New("context deadline exceeded"),
		loadErr:   errors.New("context deadline exceeded"),
	}

	res := checker.Check(context.Background(), page, "Acme Corp")

	assert.Equal(t, StatusFalse, res.Status)
	assert.Equal(t, OutcomeNavError, res.Outcome)
}

func TestCheck_InputNeverAppears(t *testing.T) {
	checker, sel := newTestChecker()
	page := &mockPage{
		waitErrs: map[string]error{sel.Input: errors.New("context deadline exceeded")},
	}

	res := checker.Check(context.Background(), page, "Acme Corp")

	assert.Equal(t, StatusFalse, res.Status)
	assert.Equal(t, OutcomeNoInput, res.Outcome)
	assert.NotContains(t, page.calls, "enter")
}

func TestCheck_FillFallbackViaClickAndType(t *testing.T) {
	checker, sel := newTestChecker()
	page := &mockPage{
		fillErr:   errors.New("node not focusable"),
		raceMatch: sel.NoResults,
	}

	res := checker.Check(context.Background(), page, "Acme Corp")

	require.Equal(t, StatusFalse, res.Status)
	assert.Equal(t, OutcomeNoResults, res.Outcome)
	assert.Contains(t, page.calls, "click:"+sel.Input)
	assert.Contains(t, page.calls, "selectall:"+sel.Input)
	assert.Contains(t, page.calls, "type:Acme Corp")
}

func TestCheck_FillFallbackFocusWhenClickFails(t *testing.T) {
	checker, sel := newTestChecker()
	page := &mockPage{
		fillErr:   errors.New("node not focusable"),
		clickErrs: map[string]error{sel.Input: errors.New("not clickable")},
		typeErr:   errors.New("detached"),
		raceMatch: sel.NoResults,
	}

	// Every fallback failure is swallowed; classification still runs.
	res := checker.Check(context.Background(), page, "Acme Corp")

	assert.Equal(t, StatusFalse, res.Status)
	assert.Equal(t, OutcomeNoResults, res.Outcome)
	assert.Contains(t, page.calls, "focus:"+sel.Input)
}

func TestCheck_SubmitAbsentIsNotAnError(t *testing.T) {
	checker, sel := newTestChecker()
	page := &mockPage{
		waitErrs:  map[string]error{sel.Submit: errors.New("context deadline exceeded")},
		raceMatch: sel.ResultsLabel,
		textVal:   "Prime Award Results",
	}

	res := checker.Check(context.Background(), page, "Acme Corp")

	assert.Equal(t, StatusTrue, res.Status)
	assert.NotContains(t, page.calls, "click:"+sel.Submit)
}

func TestCheck_SubmitClickFailureIsNonFatal(t *testing.T) {
	checker, sel := newTestChecker()
	page := &mockPage{
		clickErrs: map[string]error{sel.Submit: errors.New("covered by overlay")},
		raceMatch: sel.ResultsLabel,
		textVal:   "Prime Award Results",
	}

	res := checker.Check(context.Background(), page, "Acme Corp")

	assert.Equal(t, StatusTrue, res.Status)
	assert.Contains(t, page.calls, "click:"+sel.Submit)
}
