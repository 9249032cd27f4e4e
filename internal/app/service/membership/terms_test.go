package membership

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/fatflowers/patron/internal/models"
	"github.com/fatflowers/patron/pkg/dateparts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cal = dateparts.MustNew(dateparts.DefaultTimezone)

// noonAt returns an instant on p in the pinned zone.
func noonAt(p dateparts.Parts) time.Time {
	return time.Date(p.Year, p.Month, p.Day, 12, 0, 0, 0, cal.Location())
}

// sampleDays walks a few years including both leap days and DST changes.
func sampleDays() []dateparts.Parts {
	var out []dateparts.Parts
	for p := (dateparts.Parts{Year: 2023, Month: time.January, Day: 1}); p.Year < 2027; p = p.AddDays(3) {
		out = append(out, p)
	}
	return append(out, dateparts.Parts{Year: 2024, Month: time.February, Day: 29})
}

func TestCalculateTermDatesWithoutPrior(t *testing.T) {
	c := NewCalculator(cal)
	for _, today := range sampleDays() {
		for _, w := range []int{0, 1, 30, 365} {
			d := c.CalculateTermDates(noonAt(today), nil, w)
			require.Equal(t, today, d.Start, today.String())
			require.Equal(t, today.AddYears(1).AddDays(-1), d.End, today.String())
			require.Equal(t, today, cal.Decompose(d.StartAt))
			require.Equal(t, d.End, cal.Decompose(d.EndAt))
		}
	}
}

func TestCalculateTermDatesRenewalBoundaries(t *testing.T) {
	c := NewCalculator(cal)
	for _, today := range sampleDays() {
		now := noonAt(today)
		for _, w := range []int{1, 30, 90} {
			// prior ends exactly w days out; the window sizes straddle it
			prior := Term{Start: today.AddDays(w).AddYears(-1).AddDays(1), End: today.AddDays(w)}
			require.True(t, c.IsActive(prior, now))

			for _, window := range []int{w - 1, w, w + 1} {
				d := c.CalculateTermDates(now, &prior, window)
				if window >= w {
					require.Equal(t, prior.End.AddDays(1), d.Start, "today=%s w=%d window=%d", today, w, window)
					require.Equal(t, 1, dateparts.DaysBetween(prior.End, d.Start), "no gap, no overlap")
				} else {
					require.Equal(t, today, d.Start, "today=%s w=%d window=%d", today, w, window)
				}
				require.Equal(t, d.Start.AddYears(1).AddDays(-1), d.End)
			}
		}
	}
}

func TestCalculateTermDatesExpiredPrior(t *testing.T) {
	c := NewCalculator(cal)
	r := rand.New(rand.NewPCG(1, 2))
	for _, today := range sampleDays() {
		ago := 1 + r.IntN(800)
		prior := Term{Start: today.AddDays(-ago).AddYears(-1), End: today.AddDays(-ago)}
		for _, w := range []int{0, 30, 10000} {
			d := c.CalculateTermDates(noonAt(today), &prior, w)
			require.Equal(t, today, d.Start)
		}
	}
}

func TestIsActiveInclusive(t *testing.T) {
	c := NewCalculator(cal)
	term := Term{
		Start: dateparts.Parts{Year: 2025, Month: time.March, Day: 1},
		End:   dateparts.Parts{Year: 2026, Month: time.February, Day: 28},
	}
	assert.False(t, c.IsActive(term, noonAt(term.Start.AddDays(-1))))
	assert.True(t, c.IsActive(term, noonAt(term.Start)))
	assert.True(t, c.IsActive(term, noonAt(term.End)))
	assert.False(t, c.IsActive(term, noonAt(term.End.AddDays(1))))

	// 23:30 on the last day in Los Angeles is already the next day in UTC
	lastMinute := time.Date(2026, 2, 28, 23, 30, 0, 0, cal.Location())
	assert.True(t, c.IsActive(term, lastMinute))
}

func TestIsRenewalWindowOpen(t *testing.T) {
	c := NewCalculator(cal)
	today := dateparts.Parts{Year: 2025, Month: time.June, Day: 10}
	now := noonAt(today)

	cases := []struct {
		endIn  int
		window int
		want   bool
	}{
		{10, 30, true},
		{30, 30, true},
		{31, 30, false},
		{400, 30, false},
		{0, 0, true},
		{-5, 0, true},
	}
	for _, tc := range cases {
		term := Term{Start: today.AddDays(tc.endIn).AddYears(-1), End: today.AddDays(tc.endIn)}
		assert.Equal(t, tc.want, c.IsRenewalWindowOpen(term, tc.window, now), "endIn=%d window=%d", tc.endIn, tc.window)
	}
}

func TestTermOfRoundTrip(t *testing.T) {
	c := NewCalculator(cal)
	d := c.CalculateTermDates(noonAt(dateparts.Parts{Year: 2025, Month: time.March, Day: 9}), nil, 0)
	got := c.TermOf(&models.Membership{StartDay: d.StartAt, EndDay: d.EndAt})
	assert.Equal(t, d.Term(), got)
	assert.Equal(t, "2025-03-09T00:00:00-08:00", d.StartISO)
	assert.Equal(t, "2026-03-08T00:00:00-08:00", d.EndISO)
}

func TestLeapDayTerm(t *testing.T) {
	c := NewCalculator(cal)
	d := c.CalculateTermDates(noonAt(dateparts.Parts{Year: 2024, Month: time.February, Day: 29}), nil, 0)
	assert.Equal(t, dateparts.Parts{Year: 2025, Month: time.February, Day: 28}, d.End)
}
