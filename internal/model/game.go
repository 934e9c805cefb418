package model

// swagger:model GameState
type GameState struct {
	CurrentLevel        int            `json:"currentLevel"`
	TotalScore          int            `json:"totalScore"`
	CompletedChallenges []string       `json:"completedChallenges"`
	ExploitedChallenges []string       `json:"exploitedChallenges"`
	Hints               map[string]int `json:"hints"`
	StartTime           int64          `json:"startTime"`
	LastSaveTime        int64          `json:"lastSaveTime"`
}

func (s GameState) HasCompleted(id string) bool {
	return contains(s.CompletedChallenges, id)
}

func (s GameState) HasExploited(id string) bool {
	return contains(s.ExploitedChallenges, id)
}

// Clone returns a deep copy so callers cannot mutate stored slices or maps.
func (s GameState) Clone() GameState {
	out := s
	out.CompletedChallenges = append([]string{}, s.CompletedChallenges...)
	out.ExploitedChallenges = append([]string{}, s.ExploitedChallenges...)
	out.Hints = make(map[string]int, len(s.Hints))
	for k, v := range s.Hints {
		out.Hints[k] = v
	}
	return out
}

// GameStatePatch is a partial update. Nil fields are left unchanged.
type GameStatePatch struct {
	CurrentLevel        *int           `json:"currentLevel,omitempty"`
	TotalScore          *int           `json:"totalScore,omitempty"`
	CompletedChallenges []string       `json:"completedChallenges,omitempty"`
	ExploitedChallenges []string       `json:"exploitedChallenges,omitempty"`
	Hints               map[string]int `json:"hints,omitempty"`
	StartTime           *int64         `json:"startTime,omitempty"`
}

// Apply merges the patch into s.
func (p GameStatePatch) Apply(s *GameState) {
	if p.CurrentLevel != nil {
		s.CurrentLevel = *p.CurrentLevel
	}
	if p.TotalScore != nil {
		s.TotalScore = *p.TotalScore
	}
	if p.CompletedChallenges != nil {
		s.CompletedChallenges = p.CompletedChallenges
	}
	if p.ExploitedChallenges != nil {
		s.ExploitedChallenges = p.ExploitedChallenges
	}
	if p.Hints != nil {
		s.Hints = p.Hints
	}
	if p.StartTime != nil {
		s.StartTime = *p.StartTime
	}
}

// ExploitMethod labels an attempt. It covers every challenge category plus sql and other.
type ExploitMethod string

const (
	MethodXSS      ExploitMethod = "xss"
	MethodSQL      ExploitMethod = "sql"
	MethodAuth     ExploitMethod = "auth"
	MethodJWT      ExploitMethod = "jwt"
	MethodRedirect ExploitMethod = "redirect"
	MethodSandbox  ExploitMethod = "sandbox"
	MethodOther    ExploitMethod = "other"
)

// swagger:model ExploitAttempt
type ExploitAttempt struct {
	ID          string        `json:"id,omitempty"`
	ChallengeID string        `json:"challengeId"`
	Attempt     string        `json:"attempt"`
	Timestamp   int64         `json:"timestamp"`
	Success     bool          `json:"success"`
	Method      ExploitMethod `json:"method"`
}

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeHacker Theme = "hacker"
)

// swagger:model GameSettings
type GameSettings struct {
	Theme        Theme `json:"theme"`
	SoundEnabled bool  `json:"soundEnabled"`
	HintsEnabled bool  `json:"hintsEnabled"`
	AutoSave     bool  `json:"autoSave"`
}

type GameSettingsPatch struct {
	Theme        *Theme `json:"theme,omitempty"`
	SoundEnabled *bool  `json:"soundEnabled,omitempty"`
	HintsEnabled *bool  `json:"hintsEnabled,omitempty"`
	AutoSave     *bool  `json:"autoSave,omitempty"`
}

func (p GameSettingsPatch) Apply(s *GameSettings) {
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.SoundEnabled != nil {
		s.SoundEnabled = *p.SoundEnabled
	}
	if p.HintsEnabled != nil {
		s.HintsEnabled = *p.HintsEnabled
	}
	if p.AutoSave != nil {
		s.AutoSave = *p.AutoSave
	}
}

// swagger:model Progress
type Progress struct {
	Completed  int `json:"completed"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

func (t Theme) IsValid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeHacker:
		return true
	default:
		return false
	}
}
