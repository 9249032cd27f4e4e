package membership

import (
	"time"

	"github.com/fatflowers/patron/internal/models"
	"github.com/fatflowers/patron/pkg/dateparts"
)

// Term is an inclusive coverage interval of civil dates.
type Term struct {
	Start dateparts.Parts
	End   dateparts.Parts
}

// TermDates is a computed term in both civil and persisted forms.
type TermDates struct {
	Start    dateparts.Parts
	End      dateparts.Parts
	StartAt  time.Time
	EndAt    time.Time
	StartISO string
	EndISO   string
}

func (d TermDates) Term() Term { return Term{Start: d.Start, End: d.End} }

// Calculator holds the term rules. All comparisons happen on civil dates in
// the calendar's timezone.
type Calculator struct {
	cal *dateparts.Calendar
}

func NewCalculator(cal *dateparts.Calendar) *Calculator {
	return &Calculator{cal: cal}
}

func (c *Calculator) Calendar() *dateparts.Calendar { return c.cal }

// TermOf reads the stored midnights of m back into civil dates.
func (c *Calculator) TermOf(m *models.Membership) Term {
	return Term{Start: c.cal.Decompose(m.StartDay), End: c.cal.Decompose(m.EndDay)}
}

// IsActive reports whether today falls within the term, both ends included.
func (c *Calculator) IsActive(t Term, now time.Time) bool {
	today := c.cal.Today(now)
	return today.Compare(t.Start) >= 0 && today.Compare(t.End) <= 0
}

// IsRenewalWindowOpen reports whether the term ends within windowDays of
// today. Expired terms count as open.
func (c *Calculator) IsRenewalWindowOpen(t Term, windowDays int, now time.Time) bool {
	return dateparts.DaysBetween(c.cal.Today(now), t.End) <= windowDays
}

// CalculateTermDates returns the next one-year term. It starts the day after
// previous ends when previous is active with its renewal window open, and
// today otherwise.
func (c *Calculator) CalculateTermDates(now time.Time, previous *Term, windowDays int) TermDates {
	start := c.cal.Today(now)
	if previous != nil && c.IsActive(*previous, now) && c.IsRenewalWindowOpen(*previous, windowDays, now) {
		start = previous.End.AddDays(1)
	}
	end := start.AddYears(1).AddDays(-1)

	return TermDates{
		Start:    start,
		End:      end,
		StartAt:  c.cal.ToMidnight(start),
		EndAt:    c.cal.ToMidnight(end),
		StartISO: c.cal.ISO(start),
		EndISO:   c.cal.ISO(end),
	}
}
