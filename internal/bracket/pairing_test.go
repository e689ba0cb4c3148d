package bracket

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/AdamBeresnev/quiz-bracket/internal/apperr"
	"github.com/AdamBeresnev/quiz-bracket/internal/utils"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// identitySource makes Fisher-Yates swap every element with itself, so draws
// keep input order.
type identitySource struct{}

func (identitySource) Intn(n int) int { return n - 1 }

func TestDrawPairs(t *testing.T) {
	testCases := []struct {
		name             string
		names            []string
		expectedPairs    []Pair
		expectedLeftover *string
		expectedErr      error
	}{
		{
			name:          "even count pairs in order",
			names:         []string{"A", "B", "C", "D", "E", "F"},
			expectedPairs: []Pair{{"A", "B"}, {"C", "D"}, {"E", "F"}},
		},
		{
			name:             "odd count holds back the last team",
			names:            []string{"A", "B", "C", "D", "E"},
			expectedPairs:    []Pair{{"A", "B"}, {"C", "D"}},
			expectedLeftover: utils.Ptr("E"),
		},
		{
			name:             "three teams leave one waiting",
			names:            []string{"A", "C", "F"},
			expectedPairs:    []Pair{{"A", "C"}},
			expectedLeftover: utils.Ptr("F"),
		},
		{
			name:          "two teams make one pair",
			names:         []string{"A", "B"},
			expectedPairs: []Pair{{"A", "B"}},
		},
		{
			name:        "one team cannot be drawn",
			names:       []string{"A"},
			expectedErr: apperr.ErrValidation,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			draw, err := DrawPairs(identitySource{}, tc.names)
			if tc.expectedErr != nil {
				assert.True(t, errors.Is(err, tc.expectedErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedPairs, draw.Pairs)
			assert.Equal(t, tc.expectedLeftover, draw.Leftover)
		})
	}
}

func TestShuffleKeepsInputIntact(t *testing.T) {
	names := []string{"A", "B", "C", "D"}
	shuffled := Shuffle(rand.New(rand.NewSource(7)), names)

	assert.Equal(t, []string{"A", "B", "C", "D"}, names)
	sorted := append([]string{}, shuffled...)
	sort.Strings(sorted)
	if diff := cmp.Diff(names, sorted); diff != "" {
		t.Errorf("shuffle lost or duplicated names (-want +got):\n%s", diff)
	}
}

func TestDrawPairsFairness(t *testing.T) {
	const draws = 10000
	rng := rand.New(rand.NewSource(42))
	names := []string{"A", "B", "C", "D", "E", "F"}

	counts := make(map[string]int)
	for i := 0; i < draws; i++ {
		draw, err := DrawPairs(rng, names)
		require.NoError(t, err)
		for _, p := range draw.Pairs {
			a, b := p[0], p[1]
			if a > b {
				a, b = b, a
			}
			counts[a+b]++
		}
	}

	// 6 teams give 15 possible pairs, each draw produces 3 of them
	require.Len(t, counts, 15)
	expected := float64(draws*3) / 15
	for pair, n := range counts {
		assert.InDelta(t, expected, float64(n), expected*0.15, fmt.Sprintf("pair %s over/under represented", pair))
	}
}

func TestDrawPairsByeFairness(t *testing.T) {
	const draws = 10000
	rng := rand.New(rand.NewSource(99))
	names := []string{"A", "B", "C", "D", "E"}

	byes := make(map[string]int)
	for i := 0; i < draws; i++ {
		draw, err := DrawPairs(rng, names)
		require.NoError(t, err)
		require.NotNil(t, draw.Leftover)
		for _, p := range draw.Pairs {
			assert.NotContains(t, p, *draw.Leftover)
		}
		byes[*draw.Leftover]++
	}

	require.Len(t, byes, 5)
	expected := float64(draws) / 5
	for name, n := range byes {
		assert.InDelta(t, expected, float64(n), expected*0.15, "bye for %s", name)
	}
}
