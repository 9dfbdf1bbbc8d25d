package booking

import (
	"testing"
	"time"

	"github.com/shareit-platform/service-booking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var baseTime = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func bookingAt(id int64, start, end time.Time, status BookingStatus) *Booking {
	return ReconstructBooking(id, start, end, ItemRef{ID: 10, OwnerID: 1, Name: "drill"}, 2, status, baseTime, baseTime)
}

func TestParseState(t *testing.T) {
	for _, raw := range []string{"all", "Current", " PAST ", "future", "WAITING", "rejected"} {
		s, err := ParseState(raw)
		require.NoError(t, err, raw)
		assert.Contains(t, States, s)
	}

	_, err := ParseState("UNSUPPORTED")
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindBadRequest))
	assert.Equal(t, "unknown state: UNSUPPORTED", err.Error())
}

func TestState_Matches(t *testing.T) {
	now := baseTime
	past := bookingAt(1, now.Add(-48*time.Hour), now.Add(-24*time.Hour), StatusApproved)
	current := bookingAt(2, now.Add(-time.Hour), now.Add(time.Hour), StatusWaiting)
	future := bookingAt(3, now.Add(24*time.Hour), now.Add(48*time.Hour), StatusRejected)
	startsNow := bookingAt(4, now, now.Add(time.Hour), StatusWaiting)
	endsNow := bookingAt(5, now.Add(-time.Hour), now, StatusApproved)

	tests := []struct {
		state State
		want  map[*Booking]bool
	}{
		{StateAll, map[*Booking]bool{past: true, current: true, future: true, startsNow: true, endsNow: true}},
		{StateCurrent, map[*Booking]bool{past: false, current: true, future: false, startsNow: true, endsNow: false}},
		{StatePast, map[*Booking]bool{past: true, current: false, future: false, startsNow: false, endsNow: true}},
		{StateFuture, map[*Booking]bool{past: false, current: false, future: true, startsNow: false, endsNow: false}},
		{StateWaiting, map[*Booking]bool{past: false, current: true, future: false, startsNow: true, endsNow: false}},
		{StateRejected, map[*Booking]bool{past: false, current: false, future: true, startsNow: false, endsNow: false}},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			for b, want := range tt.want {
				assert.Equal(t, want, tt.state.Matches(b, now), "booking %d", b.ID())
			}
		})
	}
}

func TestState_TimeStatesPartitionAll(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		now := baseTime
		startOffset := rapid.Int64Range(-1000, 1000).Draw(t, "startOffset")
		length := rapid.Int64Range(1, 500).Draw(t, "length")
		start := now.Add(time.Duration(startOffset) * time.Minute)
		b := bookingAt(1, start, start.Add(time.Duration(length)*time.Minute), StatusWaiting)

		hits := 0
		for _, s := range []State{StateCurrent, StatePast, StateFuture} {
			if s.Matches(b, now) {
				hits++
			}
		}
		if hits != 1 {
			t.Fatalf("booking [%s, %s) matched %d time states at %s", b.Window().Start(), b.Window().End(), hits, now)
		}
	})
}

func TestState_BookingEndingNowIsPastOnly(t *testing.T) {
	b := bookingAt(1, baseTime.Add(-time.Hour), baseTime, StatusApproved)

	assert.True(t, StatePast.Matches(b, baseTime))
	assert.False(t, StateCurrent.Matches(b, baseTime))
	assert.False(t, StateFuture.Matches(b, baseTime))
}
