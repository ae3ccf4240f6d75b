package model

import "time"

const (
	RunSuccess = "SUCCESS"
	RunWarning = "WARNING"
	RunError   = "ERROR"
)

const (
	SourceOrdersPull    = "orders_pull"
	SourceInventoryPull = "inventory_pull"
	SourceInventoryPush = "inventory_push"
)

// ImportRun is the immutable audit record of one pipeline execution.
type ImportRun struct {
	ID           string    `db:"id" json:"id"`
	SourceType   string    `db:"source_type" json:"source_type"`
	SourceRef    string    `db:"source_ref" json:"source_ref"`
	RowsTotal    int       `db:"rows_total" json:"rows_total"`
	Created      int       `db:"created" json:"created"`
	Updated      int       `db:"updated" json:"updated"`
	Skipped      int       `db:"skipped" json:"skipped"`
	Errors       int       `db:"errors" json:"errors"`
	Status       string    `db:"status" json:"status"`
	ErrorDetails string    `db:"error_details" json:"error_details"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
