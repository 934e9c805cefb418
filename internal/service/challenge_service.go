package service

import (
	"context"
	"ctf_game_backend/internal/config"
	"ctf_game_backend/internal/model"
	"ctf_game_backend/internal/util"
	"ctf_game_backend/pkg/logger"
	"html"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SandboxEscapeMessage is the postMessage type a framed payload sends when it
// tries to reach the parent window.
const SandboxEscapeMessage = "SANDBOX_ESCAPE_ATTEMPT"

// completionMarkers are the payload fragments that finish the feedback challenge.
var completionMarkers = []string{"<script>", "javascript:", "onerror"}

// ChallengeService runs the per-challenge flows on top of the engine primitives.
// Each challenge runs under a vulnerable or secure policy taken from config.
type ChallengeService struct {
	Games *GameService

	mu  sync.RWMutex
	cfg config.GameConfig
	now func() time.Time
}

func NewChallengeService(games *GameService, cfg config.GameConfig) *ChallengeService {
	return &ChallengeService{
		Games: games,
		cfg:   cfg,
		now:   time.Now,
	}
}

// UpdateConfig swaps in reloaded game settings.
func (s *ChallengeService) UpdateConfig(cfg config.GameConfig) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	logger.Log.Info("Challenge policies updated", zap.Any("policies", cfg.Policies))
}

func (s *ChallengeService) gameConfig() config.GameConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *ChallengeService) Policy(challengeID string) string {
	return s.gameConfig().PolicyFor(challengeID)
}

func (s *ChallengeService) result(challengeID string) model.ChallengeResult {
	return model.ChallengeResult{ChallengeID: challengeID, Policy: s.Policy(challengeID)}
}

// exploit records a successful exploit and completes the challenge. The store
// scores it with the hints the owner has already revealed.
func (s *ChallengeService) exploit(ctx context.Context, gs *GameStore, res *model.ChallengeResult, attempt string) error {
	if err := gs.RecordExploitAttempt(ctx, res.ChallengeID, attempt, true); err != nil {
		return err
	}
	res.Exploited = true

	points, err := gs.CompleteChallenge(ctx, res.ChallengeID, 0)
	if err != nil {
		return err
	}
	res.Points = points
	res.Completed = true
	return nil
}

// SubmitFeedback handles the feedback form. Under the vulnerable policy the text
// is echoed back unescaped.
func (s *ChallengeService) SubmitFeedback(ctx context.Context, owner, feedback string, rating int) (*model.FeedbackResult, error) {
	if strings.TrimSpace(feedback) == "" {
		return nil, util.ErrEmptyFeedback
	}

	gs := s.Games.For(owner)
	res := &model.FeedbackResult{
		ChallengeResult: s.result(config.ChallengeDOMXSS),
		Rating:          rating,
	}

	if res.Policy == config.PolicySecure {
		res.Rendered = html.EscapeString(feedback)
		res.Accepted = true
		res.Message = "Feedback received"
		if util.ContainsXSS(feedback) {
			if err := gs.RecordExploitAttempt(ctx, res.ChallengeID, "sanitized_payload", false); err != nil {
				return nil, err
			}
			res.Message = "Feedback received, markup was escaped"
		}
		return res, nil
	}

	res.Rendered = feedback
	res.Accepted = true
	res.Message = "Feedback received"

	if !util.ContainsXSS(feedback) {
		return res, nil
	}

	if err := gs.RecordExploit(ctx, res.ChallengeID, true); err != nil {
		return nil, err
	}
	res.Exploited = true
	res.Message = "XSS payload detected"

	if !hasCompletionMarker(feedback) {
		return res, nil
	}

	points, err := gs.CompleteChallenge(ctx, res.ChallengeID, 0)
	if err != nil {
		return nil, err
	}
	res.Points = points
	res.Completed = true
	return res, nil
}

func hasCompletionMarker(feedback string) bool {
	for _, m := range completionMarkers {
		if strings.Contains(feedback, m) {
			return true
		}
	}
	return false
}

// AttemptAdminAccess opens the mock admin panel. currentUser is the signed-in
// username. The vulnerable policy trusts the client supplied admin flag.
func (s *ChallengeService) AttemptAdminAccess(ctx context.Context, owner, currentUser string, clientAdminFlag bool) (*model.ChallengeResult, error) {
	gs := s.Games.For(owner)
	res := s.result(config.ChallengeAuthBypass)
	isRealAdmin := currentUser == config.AdminUsername

	if res.Policy == config.PolicySecure {
		res.Accepted = isRealAdmin
		if isRealAdmin {
			res.Message = "Admin panel unlocked"
			return &res, nil
		}
		res.Message = "Access denied: admin privileges required"
		if clientAdminFlag {
			if err := gs.RecordExploitAttempt(ctx, res.ChallengeID, "client_admin_flag", false); err != nil {
				return nil, err
			}
		}
		return &res, nil
	}

	res.Accepted = isRealAdmin || clientAdminFlag
	if !res.Accepted {
		res.Message = "Access denied: admin privileges required"
		return &res, nil
	}
	res.Message = "Admin panel unlocked"
	if clientAdminFlag && !isRealAdmin {
		if err := s.exploit(ctx, gs, &res, "client_admin_flag"); err != nil {
			return nil, err
		}
		res.Message = "Admin panel unlocked with a client side flag"
	}
	return &res, nil
}

// IssueToken mints a mock token for the given username, guest when empty, and
// keeps it as the owner's original for later edits.
func (s *ChallengeService) IssueToken(ctx context.Context, owner, username string) (*model.TokenResult, error) {
	sub := "user_123"
	if username == "" {
		username = "guest"
	} else {
		sub = "user_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	}

	now := s.now().Unix()
	isAdmin := username == config.AdminUsername
	role := "user"
	if isAdmin {
		role = "admin"
	}

	payload := map[string]interface{}{
		"sub":      sub,
		"username": username,
		"role":     role,
		"admin":    isAdmin,
		"exp":      now + 3600,
		"iat":      now,
	}

	token, err := util.EncodeMockJWT(payload, s.gameConfig().TokenSecret)
	if err != nil {
		return nil, err
	}
	if err := s.Games.For(owner).SaveIssuedToken(ctx, token); err != nil {
		return nil, err
	}

	res := &model.TokenResult{
		ChallengeResult: s.result(config.ChallengeJWT),
		Token:           token,
		Header:          map[string]interface{}{"alg": "HS256", "typ": "JWT"},
		Payload:         payload,
		IsAdmin:         isAdmin,
	}
	res.Accepted = true
	res.Message = "Token issued"
	return res, nil
}

// EditToken evaluates a token the player edited by hand. currentUser is the
// signed-in username. The secure policy compares against the token last
// issued to the owner.
func (s *ChallengeService) EditToken(ctx context.Context, owner, currentUser, edited string) (*model.TokenResult, error) {
	res := &model.TokenResult{ChallengeResult: s.result(config.ChallengeJWT), Token: edited}

	decoded, ok := util.DecodeMockJWT(edited)
	if !ok {
		res.Message = "Invalid token format"
		return res, nil
	}
	res.Header = decoded.Header
	res.Payload = decoded.Payload

	claimsAdmin := decoded.IsAdminClaim()
	isRealAdmin := currentUser == config.AdminUsername
	gs := s.Games.For(owner)

	if res.Policy == config.PolicySecure {
		original, issued, err := gs.IssuedToken(ctx)
		if err != nil {
			return nil, err
		}
		switch {
		case claimsAdmin && (!issued || edited != original):
			res.Message = "Invalid signature: token was modified"
			if err := gs.RecordExploitAttempt(ctx, res.ChallengeID, "forged_admin_claim", false); err != nil {
				return nil, err
			}
		case claimsAdmin && !isRealAdmin:
			res.Message = "Authorization failed: user is not an admin"
		case claimsAdmin:
			res.Accepted = true
			res.IsAdmin = true
			res.Message = "Admin access granted"
		default:
			res.Accepted = true
			res.Message = "Token accepted"
		}
		return res, nil
	}

	res.Accepted = true
	res.IsAdmin = claimsAdmin
	res.Message = "Token accepted"
	if claimsAdmin && !isRealAdmin {
		if err := s.exploit(ctx, gs, &res.ChallengeResult, "forged_admin_claim"); err != nil {
			return nil, err
		}
		res.Message = "Admin access granted from an unverified token"
	}
	return res, nil
}

// Login runs the mock login and decides whether to follow the redirect target.
// requestHost is the host the player reached the API on.
func (s *ChallengeService) Login(ctx context.Context, owner, username, password, redirect, requestHost string) (*model.RedirectResult, error) {
	if username == "" || password == "" {
		return nil, util.ErrMissingCredentials
	}
	if redirect == "" {
		redirect = "/dashboard"
	}

	cfg := s.gameConfig()
	res := &model.RedirectResult{ChallengeResult: s.result(config.ChallengeOpenRedirect)}
	trusted := trustedDomains(cfg.AllowedRedirectDomains, requestHost)
	gs := s.Games.For(owner)

	host, parsed := util.RedirectHost(redirect)
	res.Host = host

	if res.Policy == config.PolicySecure {
		if !util.IsValidRedirectURL(redirect, trusted) {
			res.Message = "Login rejected: redirects must stay on this site"
			if parsed {
				if err := gs.RecordExploitAttempt(ctx, res.ChallengeID, "external_redirect", false); err != nil {
					return nil, err
				}
			}
			return res, nil
		}
		res.Accepted = true
		res.RedirectTo = redirect
		res.Message = "Login successful"
		return res, nil
	}

	if !util.IsValidRedirectURL(redirect, nil) {
		res.Message = "Login rejected: malformed redirect URL"
		return res, nil
	}
	res.Accepted = true
	res.RedirectTo = redirect
	res.Message = "Login successful"

	if !util.IsValidRedirectURL(redirect, trusted) {
		if err := s.exploit(ctx, gs, &res.ChallengeResult, "external_redirect"); err != nil {
			return nil, err
		}
		res.Message = "Redirecting to an external domain"
	}
	return res, nil
}

func trustedDomains(configured []string, requestHost string) []string {
	out := []string{"localhost"}
	if h := hostOnly(requestHost); h != "" && h != "localhost" {
		out = append(out, h)
	}
	return append(out, configured...)
}

func hostOnly(hostport string) string {
	host, _, err := net.SplitHostPort(hostport)
	if err != nil {
		return strings.Trim(hostport, "[]")
	}
	return host
}

// ReceiveMessage handles a postMessage relayed from the sandboxed frame.
func (s *ChallengeService) ReceiveMessage(ctx context.Context, owner, origin, expectedOrigin, msgType string) (*model.ChallengeResult, error) {
	res := s.result(config.ChallengeIframe)
	gs := s.Games.For(owner)

	if res.Policy == config.PolicySecure && origin != expectedOrigin {
		res.Message = "Blocked message from untrusted origin: " + origin
		if msgType == SandboxEscapeMessage {
			if err := gs.RecordExploitAttempt(ctx, res.ChallengeID, "untrusted_origin", false); err != nil {
				return nil, err
			}
		}
		return &res, nil
	}

	res.Accepted = true
	res.Message = "Message received"
	if res.Policy == config.PolicyVulnerable && msgType == SandboxEscapeMessage {
		if err := s.exploit(ctx, gs, &res, "sandbox_escape"); err != nil {
			return nil, err
		}
		res.Message = "Sandbox escape detected"
	}
	return &res, nil
}

// UseHint reveals the next hint and reports the multiplier now in effect.
func (s *ChallengeService) UseHint(ctx context.Context, owner, challengeID string) (*model.HintResult, error) {
	if _, ok := s.Games.Catalog.Get(challengeID); !ok {
		return nil, util.ErrChallengeNotFound
	}
	hint, used, err := s.Games.For(owner).UseHint(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	return &model.HintResult{
		ChallengeID: challengeID,
		Hint:        hint,
		HintsUsed:   used,
		Multiplier:  HintMultiplier(used),
	}, nil
}

// Complete finishes a challenge directly. hintsUsed can only raise the count
// already revealed, never lower it.
func (s *ChallengeService) Complete(ctx context.Context, owner, challengeID string, hintsUsed *int) (*model.ChallengeResult, error) {
	if _, ok := s.Games.Catalog.Get(challengeID); !ok {
		return nil, util.ErrChallengeNotFound
	}

	hints := 0
	if hintsUsed != nil {
		hints = *hintsUsed
	}

	points, err := s.Games.For(owner).CompleteChallenge(ctx, challengeID, hints)
	if err != nil {
		return nil, err
	}

	res := s.result(challengeID)
	res.Accepted = points > 0
	res.Completed = true
	res.Points = points
	if points > 0 {
		res.Message = "Challenge completed"
	} else {
		res.Message = "Challenge already completed"
	}
	return &res, nil
}
