package leaderboard

// Entry represents one stored hiscore.
type Entry struct {
	Name      string
	Rank      float64
	Rotations string
}

// Table abstracts ranked hiscore operations for one board. Lower rank is
// better; ordering is ascending.
type Table interface {
	// UpsertIfBetter stores e unless an entry with the same name and an
	// equal or better (lower) rank already exists. Reports whether the
	// table changed.
	UpsertIfBetter(e Entry) bool
	// TopN returns up to n entries ascending by rank.
	TopN(n int) []Entry
	// TrimTo drops everything ranked beyond the first n entries.
	TrimTo(n int)
	Get(name string) (Entry, bool)
	Len() int
}
