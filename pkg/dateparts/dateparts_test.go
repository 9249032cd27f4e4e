package dateparts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecomposeUsesPinnedZone(t *testing.T) {
	cal := MustNew(DefaultTimezone)

	// 2025-01-02 06:30 UTC is still Jan 1 in Los Angeles.
	got := cal.Decompose(time.Date(2025, 1, 2, 6, 30, 0, 0, time.UTC))
	assert.Equal(t, Parts{2025, time.January, 1}, got)

	got = cal.Decompose(time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC))
	assert.Equal(t, Parts{2025, time.January, 2}, got)
}

func TestAddDaysAndYears(t *testing.T) {
	p := Parts{2024, time.February, 28}
	assert.Equal(t, Parts{2024, time.February, 29}, p.AddDays(1))
	assert.Equal(t, Parts{2024, time.March, 1}, p.AddDays(2))
	assert.Equal(t, Parts{2023, time.December, 31}, Parts{2024, time.January, 1}.AddDays(-1))

	assert.Equal(t, Parts{2025, time.March, 1}, Parts{2024, time.February, 29}.AddYears(1))
	assert.Equal(t, Parts{2026, time.March, 14}, Parts{2025, time.March, 14}.AddYears(1))
}

func TestCompareAndDaysBetween(t *testing.T) {
	a := Parts{2025, time.March, 1}
	b := Parts{2025, time.March, 31}

	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))

	// spans the March DST change in Los Angeles
	assert.Equal(t, 30, DaysBetween(a, b))
	assert.Equal(t, -30, DaysBetween(b, a))
	assert.Equal(t, 366, DaysBetween(Parts{2024, time.January, 1}, Parts{2025, time.January, 1}))
}

func TestToMidnightAcrossDST(t *testing.T) {
	cal := MustNew(DefaultTimezone)

	winter := cal.ToMidnight(Parts{2025, time.January, 15})
	summer := cal.ToMidnight(Parts{2025, time.July, 15})

	assert.Equal(t, time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC), winter.UTC())
	assert.Equal(t, time.Date(2025, 7, 15, 7, 0, 0, 0, time.UTC), summer.UTC())
	assert.Equal(t, "2025-07-15T00:00:00-07:00", cal.ISO(Parts{2025, time.July, 15}))

	for _, p := range []Parts{{2025, time.March, 9}, {2025, time.November, 2}} {
		assert.Equal(t, p, cal.Decompose(cal.ToMidnight(p)), p.String())
	}
}

func TestNewRejectsUnknownZone(t *testing.T) {
	_, err := New("Mars/Olympus_Mons")
	require.Error(t, err)

	cal, err := New("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTimezone, cal.Location().String())
}
