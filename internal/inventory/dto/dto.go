package dto

import "time"

type MovementFilters struct {
	SKU          string
	Location     string
	MovementType string
	StartDate    *time.Time
	EndDate      *time.Time
	Page         int
	PageSize     int
}
