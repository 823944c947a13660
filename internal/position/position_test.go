package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v int64) *int64 { return &v }

func TestAllocate(t *testing.T) {
	cases := []struct {
		name  string
		lower *int64
		upper *int64
		want  int64
	}{
		{name: "empty set", want: 1000},
		{name: "append after last", lower: ptr(2000), want: 3000},
		{name: "between neighbours", lower: ptr(1000), upper: ptr(2000), want: 1500},
		{name: "front of set", upper: ptr(1000), want: 500},
		{name: "narrow gap", lower: ptr(5), upper: ptr(7), want: 6},
		{name: "negative neighbours", lower: ptr(-10), upper: ptr(-4), want: -7},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Allocate(tc.lower, tc.upper)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAllocate_ResultIsStrictlyBetween(t *testing.T) {
	lower, upper := int64(1000), int64(2000)
	for i := 0; i < 9; i++ {
		got, err := Allocate(&lower, &upper)
		require.NoError(t, err)
		assert.Greater(t, got, lower)
		assert.Less(t, got, upper)
		upper = got
	}
}

func TestAllocate_Exhausted(t *testing.T) {
	cases := []struct {
		name  string
		lower *int64
		upper *int64
	}{
		{name: "adjacent integers", lower: ptr(5), upper: ptr(6)},
		{name: "equal neighbours", lower: ptr(5), upper: ptr(5)},
		{name: "inverted neighbours", lower: ptr(9), upper: ptr(3)},
		{name: "front against one", upper: ptr(1)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Allocate(tc.lower, tc.upper)
			assert.ErrorIs(t, err, ErrExhaustedSpace)
		})
	}
}

func TestNeighbours(t *testing.T) {
	positions := []int64{1000, 2000, 3000}

	lower, upper := Neighbours(positions, 0)
	assert.Nil(t, lower)
	assert.Equal(t, int64(1000), *upper)

	lower, upper = Neighbours(positions, 1)
	assert.Equal(t, int64(1000), *lower)
	assert.Equal(t, int64(2000), *upper)

	lower, upper = Neighbours(positions, 3)
	assert.Equal(t, int64(3000), *lower)
	assert.Nil(t, upper)

	lower, upper = Neighbours(positions, 42)
	assert.Equal(t, int64(3000), *lower)
	assert.Nil(t, upper)

	lower, upper = Neighbours(nil, 0)
	assert.Nil(t, lower)
	assert.Nil(t, upper)
}

func TestRenumber(t *testing.T) {
	assert.Equal(t, []int64{1000, 2000, 3000}, Renumber(3))
	assert.Empty(t, Renumber(0))
}
