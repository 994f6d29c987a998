package model

import (
	"time"

	"github.com/secmon-lab/mindforge/pkg/domain/types"
)

// Filter selects records of a store. Zero fields do not constrain the query; when both
// are set they are combined with AND.
type Filter struct {
	// Status matches the Status select property exactly
	Status string
	// CreatedOnOrAfter matches records whose creation timestamp is on or after the day
	CreatedOnOrAfter time.Time
}

// IsEmpty reports whether the filter matches every record
func (f Filter) IsEmpty() bool {
	return f.Status == "" && f.CreatedOnOrAfter.IsZero()
}

// StatusFilter selects inbox records by status
func StatusFilter(status types.InboxStatus) Filter {
	return Filter{Status: status.String()}
}

// PeriodFilter selects records created since the start of the period evaluated on today,
// and returns the date range the review covers
func PeriodFilter(period types.Period, today time.Time) (Filter, DateRange, error) {
	start, err := period.StartDate(today)
	if err != nil {
		return Filter{}, DateRange{}, err
	}

	end := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	return Filter{CreatedOnOrAfter: start}, DateRange{Start: start, End: end}, nil
}
