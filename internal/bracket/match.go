package bracket

// Pair is the two team names of a match, in turn order.
type Pair [2]string

func (p Pair) Has(name string) bool {
	return p[0] == name || p[1] == name
}

// Other returns the opponent of name within the pair.
func (p Pair) Other(name string) string {
	if p[0] == name {
		return p[1]
	}
	return p[0]
}

type MatchOutcome struct {
	Round  int    `json:"round"`
	Match  int    `json:"match"`
	Winner string `json:"winner"`
	Loser  string `json:"loser"`
}

// MatchResolution is what DeclareMatchWinner reports back to the operator.
type MatchResolution struct {
	Outcome MatchOutcome
	// Warning is set when the winner was picked by the tie fallback.
	Warning string
	// Entry is set when the match was the final and the tournament finalized.
	Entry *LeaderboardEntry
}
