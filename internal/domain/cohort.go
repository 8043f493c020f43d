package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidCohort is returned for cohort rows with negative values.
var ErrInvalidCohort = errors.New("invalid cohort row")

// Cohort tracks customers acquired in the same calendar month and their
// LTV evolution at 30/60/90-day horizons. Exactly one row per month key.
// LTV values are not guaranteed monotonic across horizons but must be
// non-negative.
type Cohort struct {
	OrgID         string
	Month         string // "2006-01" month key; lexical order == chronological order
	CustomerCount int64
	LTV30D        float64
	LTV60D        float64
	LTV90D        float64
}

// Validate checks the Cohort invariants.
func (c *Cohort) Validate() error {
	if c.Month == "" {
		return fmt.Errorf("%w: empty month key", ErrInvalidCohort)
	}
	if c.CustomerCount < 0 {
		return fmt.Errorf("%w: negative customer count %d", ErrInvalidCohort, c.CustomerCount)
	}
	if c.LTV30D < 0 || c.LTV60D < 0 || c.LTV90D < 0 {
		return fmt.Errorf("%w: negative ltv", ErrInvalidCohort)
	}
	return nil
}
