package views

import (
	"sort"

	"github.com/AdamBeresnev/quiz-bracket/internal/bracket"
	"github.com/AdamBeresnev/quiz-bracket/internal/utils"
)

type MatchView struct {
	Round  int
	Match  int
	Teams  [2]string
	Winner string
	Live   bool
}

type RoundView struct {
	Number  int
	Title   string
	Matches []MatchView
	// Note names the team sitting the round out: the Round 1 bye or the
	// team waiting for the final.
	Note string
}

type BracketData struct {
	Rounds    []RoundView
	Standings bracket.Standings
	TurnTeam  string
	Winner    string
}

var roundTitles = map[int]string{
	bracket.Round1:     "Round 1",
	bracket.Round2:     "Round 2",
	bracket.FinalRound: "Final",
}

func PrepareBracketData(t *bracket.Tournament) BracketData {
	rounds := make(map[int][]MatchView)
	var roundNums []int
	add := func(m MatchView) {
		if _, exists := rounds[m.Round]; !exists {
			roundNums = append(roundNums, m.Round)
		}
		rounds[m.Round] = append(rounds[m.Round], m)
	}

	decided := make(map[[2]int]bracket.MatchOutcome)
	for _, o := range t.MatchWinners {
		decided[[2]int{o.Round, o.Match}] = o
	}

	for i, p := range t.Round1Matches {
		m := MatchView{Round: bracket.Round1, Match: i + 1, Teams: p}
		if o, ok := decided[[2]int{bracket.Round1, i + 1}]; ok {
			m.Winner = o.Winner
		}
		add(m)
	}
	// Later rounds are only known once drawn, from their outcome or the live pair
	for _, o := range t.MatchWinners {
		if o.Round != bracket.Round1 {
			add(MatchView{Round: o.Round, Match: o.Match, Teams: [2]string{o.Winner, o.Loser}, Winner: o.Winner})
		}
	}
	if t.MatchLive() {
		live := MatchView{Round: t.CurrentRound, Match: t.CurrentMatchNumber, Teams: [2]string{t.CurrentPair[0], t.CurrentPair[1]}, Live: true}
		if live.Round == bracket.Round1 {
			for i := range rounds[bracket.Round1] {
				if rounds[bracket.Round1][i].Match == live.Match {
					rounds[bracket.Round1][i].Live = true
				}
			}
		} else {
			add(live)
		}
	}

	sort.Ints(roundNums)
	sortRounds(rounds, roundNums)

	data := BracketData{
		Standings: t.Standings(),
		TurnTeam:  t.TurnTeam(),
		Winner:    utils.OrZero(t.Winner),
	}
	for _, n := range roundNums {
		data.Rounds = append(data.Rounds, RoundView{Number: n, Title: roundTitles[n], Matches: rounds[n], Note: roundNote(t, n)})
	}
	return data
}

func roundNote(t *bracket.Tournament, round int) string {
	switch round {
	case bracket.Round1:
		if t.ByeTeam != nil {
			return *t.ByeTeam + " has a bye"
		}
	case bracket.Round2:
		for _, team := range t.Teams {
			if team.Status == bracket.TeamFinalWaiting {
				return team.Name + " waits for the final"
			}
		}
	}
	return ""
}

func sortRounds(rounds map[int][]MatchView, roundNums []int) {
	for _, r := range roundNums {
		sort.Slice(rounds[r], func(i, j int) bool {
			return rounds[r][i].Match < rounds[r][j].Match
		})
	}
}
