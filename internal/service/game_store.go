package service

import (
	"context"
	"ctf_game_backend/internal/config"
	"ctf_game_backend/internal/model"
	"ctf_game_backend/internal/repository"
	"ctf_game_backend/pkg/logger"
	"ctf_game_backend/pkg/monitoring"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Persisted blob names. Each is stored under "<owner>:<name>".
const (
	KeyGameState = "ctf_game_state"
	KeySettings  = "ctf_settings"
	KeyExploits  = "ctf_exploits"
	KeyToken     = "ctf_issued_token"
)

const (
	MaxExploitAttempts = 100
	exploitLabel       = "exploit_executed"
)

// GameStore is one owner's challenge progress. A missing or corrupt blob
// yields defaults. When the adapter itself fails, read-only calls serve
// defaults without persisting them and mutating calls return the error.
type GameStore struct {
	store   repository.StateStore
	catalog *config.Catalog
	owner   string
	now     func() time.Time
	locks   *ownerLocks
}

func NewGameStore(store repository.StateStore, catalog *config.Catalog, owner string) *GameStore {
	return newGameStore(store, catalog, owner, newOwnerLocks())
}

func newGameStore(store repository.StateStore, catalog *config.Catalog, owner string, locks *ownerLocks) *GameStore {
	return &GameStore{
		store:   store,
		catalog: catalog,
		owner:   owner,
		now:     time.Now,
		locks:   locks,
	}
}

func (s *GameStore) lock() func() {
	return s.locks.lock(s.owner)
}

// WithClock replaces the time source. Tests use it to pin elapsed time.
func (s *GameStore) WithClock(now func() time.Time) *GameStore {
	s.now = now
	return s
}

func (s *GameStore) Owner() string {
	return s.owner
}

func (s *GameStore) key(name string) string {
	if s.owner == "" {
		return name
	}
	return s.owner + ":" + name
}

func (s *GameStore) nowMillis() int64 {
	return s.now().UnixMilli()
}

func (s *GameStore) defaultState() model.GameState {
	now := s.nowMillis()
	return model.GameState{
		CurrentLevel:        0,
		TotalScore:          0,
		CompletedChallenges: []string{},
		ExploitedChallenges: []string{},
		Hints:               map[string]int{},
		StartTime:           now,
		LastSaveTime:        now,
	}
}

func defaultSettings() model.GameSettings {
	return model.GameSettings{
		Theme:        model.ThemeHacker,
		SoundEnabled: true,
		HintsEnabled: true,
		AutoSave:     true,
	}
}

// readBlob decodes the named blob into out, which must already hold defaults.
// found is false for a missing or corrupt blob. err is only set when the
// adapter fails, in which case the stored value is unknown.
func (s *GameStore) readBlob(ctx context.Context, name string, out interface{}) (bool, error) {
	raw, ok, err := s.store.Read(ctx, s.key(name))
	if err != nil {
		return false, fmt.Errorf("read %s: %w", s.key(name), err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		logger.Log.Warn("Discarding unreadable game blob",
			zap.String("key", s.key(name)),
			zap.Error(err))
		return false, nil
	}
	return true, nil
}

func (s *GameStore) logReadFailure(op string, err error) {
	logger.Log.Warn("Failed to read game blob, serving defaults",
		zap.String("owner", s.owner),
		zap.String("op", op),
		zap.Error(err))
}

func (s *GameStore) writeBlob(ctx context.Context, name string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := s.store.Write(ctx, s.key(name), raw); err != nil {
		return fmt.Errorf("write %s: %w", s.key(name), err)
	}
	return nil
}

// loadState returns the stored state merged over defaults and whether it was
// stored. On err the returned state is a fresh default and must not be saved.
func (s *GameStore) loadState(ctx context.Context) (model.GameState, bool, error) {
	state := s.defaultState()
	found, err := s.readBlob(ctx, KeyGameState, &state)
	if err != nil || !found {
		return s.defaultState(), false, err
	}
	if state.CompletedChallenges == nil {
		state.CompletedChallenges = []string{}
	}
	if state.ExploitedChallenges == nil {
		state.ExploitedChallenges = []string{}
	}
	if state.Hints == nil {
		state.Hints = map[string]int{}
	}
	return state, true, nil
}

func (s *GameStore) saveState(ctx context.Context, state model.GameState) error {
	state.LastSaveTime = s.nowMillis()
	return s.writeBlob(ctx, KeyGameState, state)
}

// GetGameState returns the current state. The first read for an owner persists
// the fresh state so the completion clock starts at first visit.
func (s *GameStore) GetGameState(ctx context.Context) model.GameState {
	defer s.lock()()

	state, found, err := s.loadState(ctx)
	if err != nil {
		s.logReadFailure("get_state", err)
		return state
	}
	if !found {
		if err := s.writeBlob(ctx, KeyGameState, state); err != nil {
			logger.Log.Warn("Failed to persist initial game state", zap.String("owner", s.owner), zap.Error(err))
		}
	}
	return state.Clone()
}

// SaveGameState merges patch into the stored state and stamps lastSaveTime.
func (s *GameStore) SaveGameState(ctx context.Context, patch model.GameStatePatch) (model.GameState, error) {
	defer s.lock()()

	state, _, err := s.loadState(ctx)
	if err != nil {
		return model.GameState{}, err
	}
	patch.Apply(&state)
	state.LastSaveTime = s.nowMillis()
	if err := s.writeBlob(ctx, KeyGameState, state); err != nil {
		return model.GameState{}, err
	}
	return state.Clone(), nil
}

func (s *GameStore) loadSettings(ctx context.Context) (model.GameSettings, error) {
	settings := defaultSettings()
	found, err := s.readBlob(ctx, KeySettings, &settings)
	if err != nil || !found {
		return defaultSettings(), err
	}
	return settings, nil
}

func (s *GameStore) GetSettings(ctx context.Context) model.GameSettings {
	settings, err := s.loadSettings(ctx)
	if err != nil {
		s.logReadFailure("get_settings", err)
	}
	return settings
}

func (s *GameStore) SaveSettings(ctx context.Context, patch model.GameSettingsPatch) (model.GameSettings, error) {
	defer s.lock()()

	settings, err := s.loadSettings(ctx)
	if err != nil {
		return model.GameSettings{}, err
	}
	patch.Apply(&settings)
	if err := s.writeBlob(ctx, KeySettings, settings); err != nil {
		return model.GameSettings{}, err
	}
	return settings, nil
}

// ClampHints bounds a hint count to 0..MaxHints.
func ClampHints(hintsUsed int) int {
	if hintsUsed < 0 {
		return 0
	}
	if hintsUsed > config.MaxHints {
		return config.MaxHints
	}
	return hintsUsed
}

// HintMultiplier maps hints used to the score factor.
func HintMultiplier(hintsUsed int) float64 {
	return config.HintMultipliers[ClampHints(hintsUsed)]
}

// TimeBonus is awarded for completions shortly after the session started.
func TimeBonus(elapsed time.Duration) int {
	switch {
	case elapsed < 2*time.Minute:
		return config.FastBonus
	case elapsed < 5*time.Minute:
		return config.MediumBonus
	default:
		return config.SlowBonus
	}
}

// CompleteChallenge awards points once per challenge. Unknown or already
// completed ids award nothing and leave the state untouched. The hint count
// scored is the larger of hintsUsed and the hints already revealed.
func (s *GameStore) CompleteChallenge(ctx context.Context, challengeID string, hintsUsed int) (int, error) {
	defer s.lock()()

	challenge, ok := s.catalog.Get(challengeID)
	if !ok {
		return 0, nil
	}

	state, _, err := s.loadState(ctx)
	if err != nil {
		return 0, err
	}
	if state.HasCompleted(challengeID) {
		return 0, nil
	}

	hintsUsed = ClampHints(hintsUsed)
	if revealed := state.Hints[challengeID]; revealed > hintsUsed {
		hintsUsed = ClampHints(revealed)
	}

	points := int(math.Floor(float64(challenge.Points) * HintMultiplier(hintsUsed)))
	elapsed := time.Duration(s.nowMillis()-state.StartTime) * time.Millisecond
	points += TimeBonus(elapsed)

	state.CompletedChallenges = append(state.CompletedChallenges, challengeID)
	state.TotalScore += points
	state.Hints[challengeID] = hintsUsed

	if err := s.saveState(ctx, state); err != nil {
		return 0, err
	}

	monitoring.ChallengeCompletions.WithLabelValues(challengeID).Inc()
	monitoring.PointsAwarded.Add(float64(points))
	logger.Log.Info("Challenge completed",
		zap.String("owner", s.owner),
		zap.String("challenge", challengeID),
		zap.Int("hints", hintsUsed),
		zap.Int("points", points))

	return points, nil
}

// RecordExploit marks a challenge as exploited and logs the attempt.
func (s *GameStore) RecordExploit(ctx context.Context, challengeID string, exploited bool) error {
	return s.RecordExploitAttempt(ctx, challengeID, exploitLabel, exploited)
}

// RecordExploitAttempt is RecordExploit with a caller supplied attempt label.
// The exploited set only grows on success; the attempt log always grows and
// keeps the most recent MaxExploitAttempts entries.
func (s *GameStore) RecordExploitAttempt(ctx context.Context, challengeID, attempt string, exploited bool) error {
	defer s.lock()()

	attempts, err := s.exploitAttempts(ctx)
	if err != nil {
		return err
	}

	if exploited {
		state, _, err := s.loadState(ctx)
		if err != nil {
			return err
		}
		if !state.HasExploited(challengeID) {
			state.ExploitedChallenges = append(state.ExploitedChallenges, challengeID)
			if err := s.saveState(ctx, state); err != nil {
				return err
			}
		}
	}

	method := model.MethodOther
	if ch, ok := s.catalog.Get(challengeID); ok {
		method = model.ExploitMethod(ch.Category)
	}

	attempts = append(attempts, model.ExploitAttempt{
		ID:          uuid.NewString(),
		ChallengeID: challengeID,
		Attempt:     attempt,
		Timestamp:   s.nowMillis(),
		Success:     exploited,
		Method:      method,
	})
	if len(attempts) > MaxExploitAttempts {
		attempts = attempts[len(attempts)-MaxExploitAttempts:]
	}

	if err := s.writeBlob(ctx, KeyExploits, attempts); err != nil {
		return err
	}

	monitoring.ExploitAttempts.WithLabelValues(string(method), strconv.FormatBool(exploited)).Inc()
	return nil
}

func (s *GameStore) exploitAttempts(ctx context.Context) ([]model.ExploitAttempt, error) {
	var attempts []model.ExploitAttempt
	found, err := s.readBlob(ctx, KeyExploits, &attempts)
	if err != nil {
		return nil, err
	}
	if !found || attempts == nil {
		return []model.ExploitAttempt{}, nil
	}
	return attempts, nil
}

// GetExploitAttempts returns the attempt log oldest first.
func (s *GameStore) GetExploitAttempts(ctx context.Context) []model.ExploitAttempt {
	defer s.lock()()

	attempts, err := s.exploitAttempts(ctx)
	if err != nil {
		s.logReadFailure("get_exploits", err)
		return []model.ExploitAttempt{}
	}
	return attempts
}

// readState is loadState for read-only callers.
func (s *GameStore) readState(ctx context.Context, op string) model.GameState {
	defer s.lock()()

	state, _, err := s.loadState(ctx)
	if err != nil {
		s.logReadFailure(op, err)
	}
	return state
}

func (s *GameStore) GetChallengesWithState(ctx context.Context) []model.ChallengeWithState {
	state := s.readState(ctx, "get_challenges")

	all := s.catalog.All()
	out := make([]model.ChallengeWithState, 0, len(all))
	for _, ch := range all {
		out = append(out, model.ChallengeWithState{
			Challenge: ch,
			Completed: state.HasCompleted(ch.ID),
			Exploited: state.HasExploited(ch.ID),
		})
	}
	return out
}

func (s *GameStore) GetProgress(ctx context.Context) model.Progress {
	state := s.readState(ctx, "get_progress")

	return progressOf(len(state.CompletedChallenges), s.catalog.Len())
}

func progressOf(completed, total int) model.Progress {
	percentage := 0
	if total > 0 {
		percentage = int(math.Round(float64(completed) / float64(total) * 100))
	}
	return model.Progress{Completed: completed, Total: total, Percentage: percentage}
}

// ResetGame drops the state, the attempt log and the issued mock token.
// Settings survive a reset.
func (s *GameStore) ResetGame(ctx context.Context) error {
	defer s.lock()()

	if err := s.store.Clear(ctx, s.key(KeyGameState), s.key(KeyExploits), s.key(KeyToken)); err != nil {
		return fmt.Errorf("reset %s: %w", s.owner, err)
	}
	logger.Log.Info("Game reset", zap.String("owner", s.owner))
	return nil
}

// UseHint reveals the next hint for a challenge and bumps the stored count.
// Once every hint (or MaxHints) is used, the last hint is returned again and
// the count is left alone.
func (s *GameStore) UseHint(ctx context.Context, challengeID string) (string, int, error) {
	defer s.lock()()

	challenge, ok := s.catalog.Get(challengeID)
	if !ok || len(challenge.Hints) == 0 {
		return "", 0, nil
	}

	limit := len(challenge.Hints)
	if limit > config.MaxHints {
		limit = config.MaxHints
	}

	state, _, err := s.loadState(ctx)
	if err != nil {
		return "", 0, err
	}
	used := state.Hints[challengeID]
	if used >= limit {
		return challenge.Hints[limit-1], used, nil
	}

	hint := challenge.Hints[used]
	used++
	state.Hints[challengeID] = used
	if err := s.saveState(ctx, state); err != nil {
		return "", 0, err
	}

	monitoring.HintsUsed.WithLabelValues(challengeID).Inc()
	return hint, used, nil
}

// SaveIssuedToken remembers the last mock token handed to this owner.
func (s *GameStore) SaveIssuedToken(ctx context.Context, token string) error {
	defer s.lock()()
	return s.writeBlob(ctx, KeyToken, token)
}

// IssuedToken returns the last mock token handed to this owner, if any.
func (s *GameStore) IssuedToken(ctx context.Context) (string, bool, error) {
	defer s.lock()()

	var token string
	found, err := s.readBlob(ctx, KeyToken, &token)
	if err != nil || !found {
		return "", false, err
	}
	return token, true, nil
}
