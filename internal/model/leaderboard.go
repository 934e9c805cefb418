package model

// swagger:model LeaderboardEntry
type LeaderboardEntry struct {
	ID                  string `json:"id"`
	Username            string `json:"username"`
	Score               int    `json:"score"`
	CompletedChallenges int    `json:"completedChallenges"`
	TotalChallenges     int    `json:"totalChallenges"`
	TimeToComplete      int64  `json:"timeToComplete"`
	Badge               string `json:"badge"`
	Rank                int    `json:"rank"`
}

// swagger:model PlayerStanding
type PlayerStanding struct {
	Score     int    `json:"score"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Rank      int    `json:"rank"`
	Badge     string `json:"badge"`
}
