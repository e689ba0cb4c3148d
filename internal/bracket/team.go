package bracket

type TeamStatus string

const (
	TeamActive       TeamStatus = "active"
	TeamBye          TeamStatus = "bye"
	TeamFinalWaiting TeamStatus = "final_waiting"
	TeamEliminated   TeamStatus = "eliminated"
	TeamChampion     TeamStatus = "champion"
	TeamFinished     TeamStatus = "finished"
)

type Team struct {
	ID           int        `json:"id"`
	Name         string     `json:"name"`
	Score        int        `json:"score"`
	IsEliminated bool       `json:"is_eliminated"`
	Status       TeamStatus `json:"status"`
}

// InPlay reports whether the team can still take part in a future match.
func (t *Team) InPlay() bool {
	return !t.IsEliminated
}
