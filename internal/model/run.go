package model

import "time"

// RunStatus represents the current state of a check run.
type RunStatus string

const (
	RunStatusRunning     RunStatus = "running"
	RunStatusComplete    RunStatus = "complete"
	RunStatusInterrupted RunStatus = "interrupted"
	RunStatusFailed      RunStatus = "failed"
)

// Run represents a single pass over an input table.
type Run struct {
	ID         string    `json:"id"`
	InputPath  string    `json:"input_path"`
	OutputPath string    `json:"output_path"`
	Column     string    `json:"column"`
	Status     RunStatus `json:"status"`
	TotalRows  int       `json:"total_rows"`
	Processed  int       `json:"processed"`
	Found      int       `json:"found"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RowResult records the outcome of checking one table row.
type RowResult struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	RowIndex  int       `json:"row_index"`
	Company   string    `json:"company"`
	Status    string    `json:"status"`
	Outcome   string    `json:"outcome"`
	CheckedAt time.Time `json:"checked_at"`
}
