package service

import (
	"context"
	"ctf_game_backend/internal/model"
	"ctf_game_backend/internal/util"
)

// leaderboardEntries is the fixed board shown to every player.
var leaderboardEntries = []model.LeaderboardEntry{
	{ID: "1", Username: "CyberNinja", Score: 2850, CompletedChallenges: 5, TotalChallenges: 5, TimeToComplete: 1200000, Badge: "🏆 Master Hacker", Rank: 1},
	{ID: "2", Username: "SecurityPro", Score: 2640, CompletedChallenges: 5, TotalChallenges: 5, TimeToComplete: 1800000, Badge: "🥇 Elite Hacker", Rank: 2},
	{ID: "3", Username: "WhiteHatDev", Score: 2100, CompletedChallenges: 4, TotalChallenges: 5, TimeToComplete: 2400000, Badge: "🥈 Advanced Hacker", Rank: 3},
	{ID: "4", Username: "PenTestRookie", Score: 1850, CompletedChallenges: 4, TotalChallenges: 5, TimeToComplete: 3000000, Badge: "🥉 Intermediate Hacker", Rank: 4},
	{ID: "5", Username: "EthicalHacker", Score: 1650, CompletedChallenges: 3, TotalChallenges: 5, TimeToComplete: 2700000, Badge: "🎯 Novice Hacker", Rank: 5},
}

type LeaderboardService struct {
	Games   *GameService
	entries []model.LeaderboardEntry
}

func NewLeaderboardService(games *GameService) *LeaderboardService {
	return &LeaderboardService{Games: games, entries: leaderboardEntries}
}

func (s *LeaderboardService) Entries() []model.LeaderboardEntry {
	out := make([]model.LeaderboardEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Rank places score among the board: one plus the number of strictly higher scores.
func (s *LeaderboardService) Rank(score int) int {
	rank := 1
	for _, e := range s.entries {
		if e.Score > score {
			rank++
		}
	}
	return rank
}

// Standing summarizes where the owner sits relative to the board.
func (s *LeaderboardService) Standing(ctx context.Context, owner string) model.PlayerStanding {
	gs := s.Games.For(owner)
	state := gs.GetGameState(ctx)
	progress := gs.GetProgress(ctx)

	return model.PlayerStanding{
		Score:     state.TotalScore,
		Completed: progress.Completed,
		Total:     progress.Total,
		Rank:      s.Rank(state.TotalScore),
		Badge:     util.AchievementBadge(progress.Completed, progress.Total),
	}
}
