// internal/game/prompts.go
package game

// ColorThemes is the full palette offered during theme voting.
var ColorThemes = []string{"Nature", "Space", "Technology", "Fantasy", "Food"}

// DefaultPrompts is the built-in drawing prompt pool. Host-supplied custom
// prompts extend it for a round.
var DefaultPrompts = []string{
	"Mythical Creature",
	"Dream Landscape",
	"Futuristic City",
	"Abstract Emotion",
	"Favorite Food",
}

// promptPool returns the candidate prompts for a round.
func promptPool(custom []string) []string {
	if len(custom) == 0 {
		return DefaultPrompts
	}
	pool := make([]string, 0, len(DefaultPrompts)+len(custom))
	pool = append(pool, DefaultPrompts...)
	pool = append(pool, custom...)
	return pool
}
