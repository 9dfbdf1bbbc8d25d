package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestPageRequest_Resolve(t *testing.T) {
	tests := []struct {
		name       string
		page       PageRequest
		wantOffset int
		wantLimit  int
		wantPaged  bool
	}{
		{"unpaged", Unpaged(), 0, 0, false},
		{"missing size", PageRequest{From: intPtr(0)}, 0, 0, false},
		{"missing from", PageRequest{Size: intPtr(5)}, 0, 0, false},
		{"negative from", NewPageRequest(-1, 5), 0, 0, false},
		{"zero size", NewPageRequest(0, 0), 0, 0, false},
		{"negative size", NewPageRequest(0, -3), 0, 0, false},
		{"first page", NewPageRequest(0, 2), 0, 2, true},
		{"second page", NewPageRequest(2, 2), 2, 2, true},
		{"unaligned rounds down", NewPageRequest(3, 2), 2, 2, true},
		{"from below size", NewPageRequest(4, 10), 0, 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset, limit, paged := tt.page.Resolve()
			assert.Equal(t, tt.wantOffset, offset)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantPaged, paged)
		})
	}
}

func TestPageRequest_Apply(t *testing.T) {
	var all []*Booking
	for i := 0; i < 5; i++ {
		start := baseTime.Add(time.Duration(i) * time.Hour)
		all = append(all, bookingAt(int64(i+1), start, start.Add(time.Hour), StatusWaiting))
	}

	assert.Len(t, Unpaged().Apply(all), 5)
	assert.Equal(t, all[0:2], NewPageRequest(0, 2).Apply(all))
	assert.Equal(t, all[4:5], NewPageRequest(4, 2).Apply(all))
	assert.Empty(t, NewPageRequest(10, 2).Apply(all))
}

func TestSortByStartDesc(t *testing.T) {
	a := bookingAt(1, baseTime, baseTime.Add(time.Hour), StatusWaiting)
	b := bookingAt(2, baseTime.Add(2*time.Hour), baseTime.Add(3*time.Hour), StatusWaiting)
	c := bookingAt(3, baseTime, baseTime.Add(time.Hour), StatusWaiting)

	list := []*Booking{a, b, c}
	SortByStartDesc(list)

	assert.Equal(t, []*Booking{b, c, a}, list)
}
