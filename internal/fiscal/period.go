package fiscal

import (
	"fmt"
	"time"
)

// Supported fiscal years.
const (
	MinYear = 2000
	MaxYear = 2100
)

// Period is a calendar quarter of a fiscal year.
type Period struct {
	Quarter int `json:"quarter"`
	Year    int `json:"year"`
}

type deadline struct {
	month      time.Month
	day        int
	yearOffset int
}

// Statutory filing deadlines per quarter. The fourth quarter is filed in
// January of the following year and gets ten extra days.
var quarterDeadlines = [4]deadline{
	{time.April, 20, 0},
	{time.July, 20, 0},
	{time.October, 20, 0},
	{time.January, 30, 1},
}

// NewPeriod validates quarter and year.
func NewPeriod(quarter, year int) (Period, error) {
	if quarter < 1 || quarter > 4 {
		return Period{}, NewFieldError("quarter", quarter, ErrInvalidPeriod)
	}
	if err := ValidateYear(year); err != nil {
		return Period{}, err
	}
	return Period{Quarter: quarter, Year: year}, nil
}

// ValidateYear checks that year is inside the supported range.
func ValidateYear(year int) error {
	if year < MinYear || year > MaxYear {
		return NewFieldError("year", year, ErrInvalidPeriod)
	}
	return nil
}

// PeriodFor returns the quarter containing t.
func PeriodFor(t time.Time) Period {
	return Period{Quarter: (int(t.Month())-1)/3 + 1, Year: t.Year()}
}

// Start is the first day of the quarter, UTC midnight.
func (p Period) Start() time.Time {
	return time.Date(p.Year, time.Month((p.Quarter-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
}

// End is the last day of the quarter, UTC midnight.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 3, -1)
}

// Contains reports whether t falls on a day of the quarter.
func (p Period) Contains(t time.Time) bool {
	return PeriodFor(t.UTC()) == p
}

// Deadline is the statutory last filing day. It is the zero time for a
// period not built by NewPeriod whose quarter is out of range.
func (p Period) Deadline() time.Time {
	if p.Quarter < 1 || p.Quarter > 4 {
		return time.Time{}
	}
	d := quarterDeadlines[p.Quarter-1]
	return time.Date(p.Year+d.yearOffset, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

// DueDate is the deadline moved past a weekend.
func (p Period) DueDate() time.Time {
	d := p.Deadline()
	if d.IsZero() {
		return d
	}
	return nextWeekday(d)
}

// AnnualDeadline is the filing deadline of the annual summaries for year.
func AnnualDeadline(year int) time.Time {
	return time.Date(year+1, time.January, 30, 0, 0, 0, 0, time.UTC)
}

// AnnualDueDate is AnnualDeadline moved past a weekend.
func AnnualDueDate(year int) time.Time {
	return nextWeekday(AnnualDeadline(year))
}

func (p Period) String() string {
	return fmt.Sprintf("%d-Q%d", p.Year, p.Quarter)
}

func nextWeekday(t time.Time) time.Time {
	switch t.Weekday() {
	case time.Saturday:
		return t.AddDate(0, 0, 2)
	case time.Sunday:
		return t.AddDate(0, 0, 1)
	}
	return t
}
