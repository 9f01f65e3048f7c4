package models

import (
	"fmt"
	"strconv"
	"strings"
)

// FinancialYear is an Indian financial year running April through March.
// It is identified by the calendar year it starts in.
type FinancialYear struct {
	start int
}

// NewFinancialYear creates the financial year starting in April of startYear.
func NewFinancialYear(startYear int) FinancialYear {
	return FinancialYear{start: startYear}
}

// FinancialYearOf returns the financial year a date falls in. Dates in
// January through March belong to the year that started the previous April.
func FinancialYearOf(d Date) FinancialYear {
	if d.Month() >= 4 {
		return FinancialYear{start: d.Year()}
	}
	return FinancialYear{start: d.Year() - 1}
}

// ParseFinancialYear parses the "2021-2022" form. The second year must be
// the first plus one.
func ParseFinancialYear(s string) (FinancialYear, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return FinancialYear{}, fmt.Errorf("invalid financial year %q: want 'YYYY-YYYY'", s)
	}

	start, err := strconv.Atoi(parts[0])
	if err != nil {
		return FinancialYear{}, fmt.Errorf("invalid financial year %q: %w", s, err)
	}
	end, err := strconv.Atoi(parts[1])
	if err != nil {
		return FinancialYear{}, fmt.Errorf("invalid financial year %q: %w", s, err)
	}
	if end != start+1 {
		return FinancialYear{}, fmt.Errorf("invalid financial year %q: end year must be start year plus one", s)
	}

	return FinancialYear{start: start}, nil
}

// StartYear returns the calendar year the financial year starts in.
func (fy FinancialYear) StartYear() int { return fy.start }

// EndYear returns the calendar year the financial year ends in.
func (fy FinancialYear) EndYear() int { return fy.start + 1 }

// Start returns the first day of the financial year, April 1st.
func (fy FinancialYear) Start() Date { return NewDate(fy.start, 4, 1) }

// End returns the last day of the financial year, March 31st.
func (fy FinancialYear) End() Date { return NewDate(fy.start+1, 3, 31) }

// Contains reports whether the date falls inside the financial year.
func (fy FinancialYear) Contains(d Date) bool {
	return FinancialYearOf(d) == fy
}

// Next returns the following financial year.
func (fy FinancialYear) Next() FinancialYear {
	return FinancialYear{start: fy.start + 1}
}

// Compare orders financial years chronologically.
func (fy FinancialYear) Compare(other FinancialYear) int {
	switch {
	case fy.start < other.start:
		return -1
	case fy.start > other.start:
		return 1
	default:
		return 0
	}
}

// String formats the financial year as "2021-2022".
func (fy FinancialYear) String() string {
	return fmt.Sprintf("%d-%d", fy.start, fy.start+1)
}
