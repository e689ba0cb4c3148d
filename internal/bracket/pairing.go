package bracket

import (
	"github.com/AdamBeresnev/quiz-bracket/internal/apperr"
)

// Source supplies the randomness for draws. *math/rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
}

// Draw is the result of pairing a set of teams.
type Draw struct {
	Pairs []Pair
	// Leftover is the unpaired team of an odd draw.
	Leftover *string
}

// Shuffle returns a uniformly permuted copy of names (Fisher-Yates).
func Shuffle(src Source, names []string) []string {
	shuffled := append([]string{}, names...)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

// DrawPairs shuffles names and slices them into consecutive pairs. With an
// odd count the last shuffled name is held back as the leftover.
func DrawPairs(src Source, names []string) (Draw, error) {
	if len(names) < 2 {
		return Draw{}, apperr.Validation("a draw needs at least 2 teams, got %d", len(names))
	}

	shuffled := Shuffle(src, names)

	var draw Draw
	if len(shuffled)%2 != 0 {
		last := shuffled[len(shuffled)-1]
		draw.Leftover = &last
		shuffled = shuffled[:len(shuffled)-1]
	}

	draw.Pairs = make([]Pair, 0, len(shuffled)/2)
	for i := 0; i < len(shuffled); i += 2 {
		draw.Pairs = append(draw.Pairs, Pair{shuffled[i], shuffled[i+1]})
	}
	return draw, nil
}
