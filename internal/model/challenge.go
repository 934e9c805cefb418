package model

// Category is the vulnerability class a challenge teaches.
type Category string

const (
	CategoryXSS      Category = "xss"
	CategoryAuth     Category = "auth"
	CategoryJWT      Category = "jwt"
	CategoryRedirect Category = "redirect"
	CategorySandbox  Category = "sandbox"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryXSS, CategoryAuth, CategoryJWT, CategoryRedirect, CategorySandbox:
		return true
	default:
		return false
	}
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// swagger:model Challenge
type Challenge struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Category      Category   `json:"category"`
	Difficulty    Difficulty `json:"difficulty"`
	Points        int        `json:"points"`
	Hints         []string   `json:"hints"`
	ExploitTarget string     `json:"exploitTarget"`
	IsPremium     bool       `json:"isPremium,omitempty"`
}

// ChallengeWithState is a catalog entry annotated with the owner's live progress.
// swagger:model ChallengeWithState
type ChallengeWithState struct {
	Challenge
	Completed bool `json:"completed"`
	Exploited bool `json:"exploited"`
}

type CategoryInfo struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description"`
}
