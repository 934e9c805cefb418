package model

// ChallengeResult is what every challenge action reports back.
// Points is only non-zero on the call that completed the challenge.
// swagger:model ChallengeResult
type ChallengeResult struct {
	ChallengeID string `json:"challengeId"`
	Policy      string `json:"policy"`
	Accepted    bool   `json:"accepted"`
	Exploited   bool   `json:"exploited"`
	Completed   bool   `json:"completed"`
	Points      int    `json:"points"`
	Message     string `json:"message"`
}

// swagger:model FeedbackResult
type FeedbackResult struct {
	ChallengeResult
	Rating   int    `json:"rating"`
	Rendered string `json:"rendered"`
}

// swagger:model TokenResult
type TokenResult struct {
	ChallengeResult
	Token   string                 `json:"token,omitempty"`
	Header  map[string]interface{} `json:"header,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	IsAdmin bool                   `json:"isAdmin"`
}

// swagger:model RedirectResult
type RedirectResult struct {
	ChallengeResult
	RedirectTo string `json:"redirectTo,omitempty"`
	Host       string `json:"host,omitempty"`
}

// swagger:model HintResult
type HintResult struct {
	ChallengeID string  `json:"challengeId"`
	Hint        string  `json:"hint"`
	HintsUsed   int     `json:"hintsUsed"`
	Multiplier  float64 `json:"multiplier"`
}
