package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/awardcheck/internal/config"
	"github.com/sells-group/awardcheck/internal/model"
	"github.com/sells-group/awardcheck/internal/search"
	"github.com/sells-group/awardcheck/internal/store"
	"github.com/sells-group/awardcheck/internal/table"
)

// stubPage satisfies search.Page and always reports a successful search with
// the given label text.
type stubPage struct {
	label string
	rows  int // number of rows that reached the browser
}

func (s *stubPage) Navigate(string, time.Duration) error {
	s.rows++
	return nil
}

func (s *stubPage) WaitSettle(time.Duration) error          { return nil }
func (s *stubPage) WaitLoad(time.Duration) error            { return nil }
func (s *stubPage) WaitElement(string, time.Duration) error { return nil }

func (s *stubPage) Fill(string, string, time.Duration) error { return nil }
func (s *stubPage) Click(string, time.Duration) error        { return nil }
func (s *stubPage) Focus(string, time.Duration) error        { return nil }
func (s *stubPage) SelectAll(string, time.Duration) error    { return nil }
func (s *stubPage) TypeText(string) error                    { return nil }
func (s *stubPage) PressEnter() error                        { return nil }

func (s *stubPage) ElementText(string, time.Duration) (string, error) {
	return s.label, nil
}

func (s *stubPage) WaitAny(_ time.Duration, selectors ...string) (string, error) {
	return selectors[0], nil
}

func setupCheckTest(t *testing.T, csv string) (*table.Table, store.Store) {
	t.Helper()
	dir := t.TempDir()

	inPath := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(inPath, []byte(csv), 0o644))

	cfg = &config.Config{Search: config.SearchConfig{}}

	origOutput, origColumn, origLimit, origResume := checkOutput, checkColumn, checkLimit, checkResume
	checkOutput = filepath.Join(dir, "out.csv")
	checkColumn = "company_name"
	checkLimit = 0
	checkResume = false
	t.Cleanup(func() {
		checkOutput, checkColumn, checkLimit, checkResume = origOutput, origColumn, origLimit, origResume
	})

	tbl, err := table.Load(inPath, checkColumn)
	require.NoError(t, err)
	tbl.EnsureStatus()

	st, err := store.NewSQLite(filepath.Join(dir, "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	return tbl, st
}

func TestRunCheckLoop_ProcessesAllRows(t *testing.T) {
	tbl, st := setupCheckTest(t, "company_name\nAcme Corp\n   \nGlobex\n")
	page := &stubPage{label: "Prime Award Results"}

	err := runCheckLoop(context.Background(), tbl, page, st, "in.csv", search.DefaultSelectors())
	require.NoError(t, err)

	// Blank row is False without browser interaction; the other two hit it.
	assert.Equal(t, 2, page.rows)
	assert.Equal(t, search.StatusTrue, tbl.Status(0))
	assert.Equal(t, search.StatusFalse, tbl.Status(1))
	assert.Equal(t, search.StatusTrue, tbl.Status(2))

	// Output was flushed and is loadable.
	out, err := table.Load(checkOutput, checkColumn)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Len())
	assert.Equal(t, search.StatusTrue, out.Status(2))

	// Ledger recorded the completed run.
	runs, err := st.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusComplete, runs[0].Status)
	assert.Equal(t, 3, runs[0].Processed)
	assert.Equal(t, 2, runs[0].Found)

	rows, err := st.ListRowResults(context.Background(), runs[0].ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, string(search.OutcomeEmptyInput), rows[1].Outcome)
}

func TestRunCheckLoop_InterruptStopsBeforeNextRow(t *testing.T) {
	tbl, st := setupCheckTest(t, "company_name\nAcme Corp\nGlobex\n")
	page := &stubPage{label: "Prime Award Results"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // interrupt delivered before the first row

	err := runCheckLoop(ctx, tbl, page, st, "in.csv", search.DefaultSelectors())
	require.NoError(t, err)

	assert.Equal(t, 0, page.rows)
	assert.Equal(t, "", tbl.Status(0), "no row was started")

	runs, err := st.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusInterrupted, runs[0].Status)
	assert.Equal(t, 0, runs[0].Processed)
}

func TestRunCheckLoop_InterruptDuringRowDelayStopsLoop(t *testing.T) {
	tbl, st := setupCheckTest(t, "company_name\nAcme Corp\nGlobex\n")
	cfg.Search.RowDelayMS = 3000
	page := &stubPage{label: "Prime Award Results"}

	// Cancel while the loop sits in the inter-row throttle: the first row
	// runs immediately, the second must never start.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(200*time.Millisecond, cancel)

	start := time.Now()
	err := runCheckLoop(ctx, tbl, page, st, "in.csv", search.DefaultSelectors())
	require.NoError(t, err)

	assert.Equal(t, 1, page.rows, "no row may start after the interrupt")
	assert.Equal(t, search.StatusTrue, tbl.Status(0))
	assert.Equal(t, "", tbl.Status(1))
	assert.Less(t, time.Since(start), 2*time.Second, "loop must not sit out the full delay")

	runs, err := st.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusInterrupted, runs[0].Status)
	assert.Equal(t, 1, runs[0].Processed)
}

func TestRunCheckLoop_LimitCapsProcessedRows(t *testing.T) {
	tbl, st := setupCheckTest(t, "company_name\nAcme Corp\nGlobex\nInitech\n")
	checkLimit = 2
	page := &stubPage{label: "Prime Award Results"}

	err := runCheckLoop(context.Background(), tbl, page, st, "in.csv", search.DefaultSelectors())
	require.NoError(t, err)

	assert.Equal(t, 2, page.rows)
	assert.Equal(t, "", tbl.Status(2), "third row untouched")
}

func TestRunCheckLoop_ResumeSkipsCheckedRows(t *testing.T) {
	tbl, st := setupCheckTest(t, "company_name,status\nAcme Corp,True\nGlobex,\n")
	checkResume = true
	page := &stubPage{label: "Prime Award Results"}

	err := runCheckLoop(context.Background(), tbl, page, st, "in.csv", search.DefaultSelectors())
	require.NoError(t, err)

	assert.Equal(t, 1, page.rows, "row with existing status is skipped")
	assert.Equal(t, search.StatusTrue, tbl.Status(1))
}

func TestRunCheckLoop_NilStoreIsFine(t *testing.T) {
	tbl, _ := setupCheckTest(t, "company_name\nAcme Corp\n")
	page := &stubPage{label: "Prime Award Results"}

	err := runCheckLoop(context.Background(), tbl, page, nil, "in.csv", search.DefaultSelectors())
	require.NoError(t, err)
	assert.Equal(t, search.StatusTrue, tbl.Status(0))
}

func TestLoadTable_ResumeUsesPreviousOutput(t *testing.T) {
	tbl, _ := setupCheckTest(t, "company_name\nAcme Corp\nGlobex\n")

	// Simulate a previous partial run: first row already checked.
	tbl.SetStatus(0, search.StatusFalse)
	require.NoError(t, tbl.Save(checkOutput))

	checkResume = true
	loaded, err := loadTable("does-not-matter.csv")
	require.NoError(t, err)
	loaded.EnsureStatus()

	assert.Equal(t, search.StatusFalse, loaded.Status(0))
	assert.Equal(t, "", loaded.Status(1))
}
