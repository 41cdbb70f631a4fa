package quota

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReservations struct {
	used     int
	gotFrom  time.Time
	gotTo    time.Time
	gotUser  int
	gotCalls int
}

func (s *stubReservations) CountCreatedBetween(_ context.Context, recipientID int, from, to time.Time) (int, error) {
	s.gotUser = recipientID
	s.gotFrom, s.gotTo = from, to
	s.gotCalls++
	return s.used, nil
}

type stubExtends struct {
	valid int
}

func (s *stubExtends) CountValid(context.Context, int, time.Time) (int, error) {
	return s.valid, nil
}

func TestDaily(t *testing.T) {
	tests := []struct {
		name    string
		used    int
		extends int
		want    Quota
	}{
		{name: "fresh day", used: 0, extends: 0, want: Quota{Max: 3, Used: 0, Remaining: 3}},
		{name: "partially used", used: 1, extends: 0, want: Quota{Max: 3, Used: 1, Remaining: 2}},
		{name: "base exhausted", used: 3, extends: 0, want: Quota{Max: 3, Used: 3, Remaining: 0}},
		{name: "extends raise the ceiling", used: 3, extends: 2, want: Quota{Max: 5, Used: 3, Remaining: 2}},
		{name: "negative remaining after grants lapse", used: 5, extends: 0, want: Quota{Max: 3, Used: 5, Remaining: -2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Calculator{
				Reservations: &stubReservations{used: tt.used},
				Extends:      &stubExtends{valid: tt.extends},
			}

			got, err := c.Daily(context.Background(), 9, time.Now())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExhausted(t *testing.T) {
	assert.False(t, Quota{Remaining: 1}.Exhausted())
	assert.True(t, Quota{Remaining: 0}.Exhausted())
	assert.True(t, Quota{Remaining: -2}.Exhausted())
}

func TestDayBounds(t *testing.T) {
	wib := time.FixedZone("WIB", 7*3600)
	c := &Calculator{Location: wib}

	// 18:30 UTC is already 01:30 the next day in UTC+7
	now := time.Date(2026, 9, 1, 18, 30, 0, 0, time.UTC)

	start, end := c.DayBounds(now)

	assert.True(t, start.Equal(time.Date(2026, 9, 2, 0, 0, 0, 0, wib)))
	assert.True(t, end.Equal(time.Date(2026, 9, 3, 0, 0, 0, 0, wib)))
	assert.Equal(t, 24*time.Hour, end.Sub(start))
}

func TestDailyPassesDayBoundsToCounter(t *testing.T) {
	wib := time.FixedZone("WIB", 7*3600)
	reservations := &stubReservations{}
	c := &Calculator{Reservations: reservations, Extends: &stubExtends{}, Location: wib}

	now := time.Date(2026, 9, 1, 10, 0, 0, 0, wib)

	_, err := c.Daily(context.Background(), 42, now)
	require.NoError(t, err)

	assert.Equal(t, 42, reservations.gotUser)
	assert.True(t, reservations.gotFrom.Equal(time.Date(2026, 9, 1, 0, 0, 0, 0, wib)))
	assert.True(t, reservations.gotTo.Equal(time.Date(2026, 9, 2, 0, 0, 0, 0, wib)))
	assert.Equal(t, 1, reservations.gotCalls)
}

func TestDefaults(t *testing.T) {
	c := &Calculator{Reservations: &stubReservations{}, Extends: &stubExtends{}}

	q, err := c.Daily(context.Background(), 1, time.Now())
	require.NoError(t, err)
	assert.Equal(t, BaseQuota, q.Max)

	start, _ := c.DayBounds(time.Date(2026, 9, 1, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, time.UTC, start.Location())
}
