package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/atlas/backoffice-engine/domain"
)

func TestMonthOf_Boundaries(t *testing.T) {
	p := domain.MonthOf(time.Date(2025, time.June, 17, 13, 45, 0, 0, time.UTC))

	assert.Equal(t, domain.Date(2025, time.June, 1), p.Start)
	assert.Equal(t, domain.Date(2025, time.June, 30), p.End)
}

func TestMonthOf_February(t *testing.T) {
	// Leap year
	p := domain.MonthOf(domain.Date(2024, time.February, 10))
	assert.Equal(t, domain.Date(2024, time.February, 29), p.End)

	// Non-leap year
	p = domain.MonthOf(domain.Date(2025, time.February, 10))
	assert.Equal(t, domain.Date(2025, time.February, 28), p.End)
}

func TestPeriod_Contains_InclusiveEndpoints(t *testing.T) {
	p := domain.MonthOf(domain.Date(2025, time.June, 1))

	assert.True(t, p.Contains(domain.Date(2025, time.June, 1)))
	assert.True(t, p.Contains(domain.Date(2025, time.June, 30)))
	assert.False(t, p.Contains(domain.Date(2025, time.May, 31)))
	assert.False(t, p.Contains(domain.Date(2025, time.July, 1)))

	// Wall-clock time on the last day still counts.
	assert.True(t, p.Contains(time.Date(2025, time.June, 30, 23, 59, 59, 0, time.UTC)))
}

func TestPeriod_Valid(t *testing.T) {
	assert.True(t, domain.Period{
		Start: domain.Date(2025, time.June, 1),
		End:   domain.Date(2025, time.June, 30),
	}.Valid())

	// Single-day periods are valid.
	assert.True(t, domain.Period{
		Start: domain.Date(2025, time.June, 1),
		End:   domain.Date(2025, time.June, 1),
	}.Valid())

	assert.False(t, domain.Period{
		Start: domain.Date(2025, time.June, 30),
		End:   domain.Date(2025, time.June, 1),
	}.Valid())
}

func TestWorkingDays(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{
			// June 2025 starts on a Sunday: 4 Saturdays, 5 Sundays.
			"full month June 2025",
			domain.Date(2025, time.June, 1), domain.Date(2025, time.June, 30), 21,
		},
		{
			"full month July 2025",
			domain.Date(2025, time.July, 1), domain.Date(2025, time.July, 31), 23,
		},
		{
			"Monday through Sunday",
			domain.Date(2025, time.June, 2), domain.Date(2025, time.June, 8), 5,
		},
		{
			"two full weeks hold exactly ten weekdays",
			domain.Date(2025, time.June, 2), domain.Date(2025, time.June, 15), 10,
		},
		{
			"single Saturday",
			domain.Date(2025, time.June, 7), domain.Date(2025, time.June, 7), 0,
		},
		{
			"weekend only",
			domain.Date(2025, time.June, 7), domain.Date(2025, time.June, 8), 0,
		},
		{
			"single weekday",
			domain.Date(2025, time.June, 4), domain.Date(2025, time.June, 4), 1,
		},
		{
			"start after end",
			domain.Date(2025, time.June, 10), domain.Date(2025, time.June, 1), 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.WorkingDays(tt.start, tt.end))
		})
	}
}

func TestPeriodWorkingDays_IgnoresWallClock(t *testing.T) {
	// Endpoints carrying time-of-day must not drop the last day.
	p := domain.Period{
		Start: time.Date(2025, time.June, 2, 9, 30, 0, 0, time.UTC),
		End:   time.Date(2025, time.June, 6, 17, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, 5, domain.PeriodWorkingDays(p))
}
