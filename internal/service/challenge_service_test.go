package service

import (
	"context"
	"ctf_game_backend/internal/config"
	"ctf_game_backend/internal/repository"
	"ctf_game_backend/internal/util"
	"errors"
	"strings"
	"testing"
)

const testOwner = "user:42"

func newTestChallengeService(policy string) *ChallengeService {
	clock := newTestClock()
	games := NewGameService(repository.NewMemoryStateStore(), config.DefaultCatalog()).WithClock(clock.Now)

	policies := map[string]string{}
	for _, ch := range config.Challenges {
		policies[ch.ID] = policy
	}
	svc := NewChallengeService(games, config.GameConfig{
		TokenSecret:            "weak-secret",
		AllowedRedirectDomains: []string{"example.com"},
		Policies:               policies,
	})
	svc.now = clock.Now
	return svc
}

func lastAttempt(t *testing.T, svc *ChallengeService) (string, bool) {
	t.Helper()
	attempts := svc.Games.For(testOwner).GetExploitAttempts(context.Background())
	if len(attempts) == 0 {
		t.Fatal("want an exploit attempt to be logged")
	}
	a := attempts[len(attempts)-1]
	return a.Attempt, a.Success
}

// --- feedback ---

func TestSubmitFeedback_Empty(t *testing.T) {
	svc := newTestChallengeService(config.PolicyVulnerable)
	if _, err := svc.SubmitFeedback(context.Background(), testOwner, "   ", 5); !errors.Is(err, util.ErrEmptyFeedback) {
		t.Errorf("want ErrEmptyFeedback, got %v", err)
	}
}

func TestSubmitFeedback_VulnerableCompletes(t *testing.T) {
	svc := newTestChallengeService(config.PolicyVulnerable)
	payload := "<script>alert(1)</script>"

	res, err := svc.SubmitFeedback(context.Background(), testOwner, payload, 4)
	if err != nil {
		t.Fatal(err)
	}
	if res.Rendered != payload {
		t.Errorf("vulnerable form should echo raw input, got %q", res.Rendered)
	}
	if !res.Exploited || !res.Completed || res.Points != 150 {
		t.Errorf("unexpected result %+v", res)
	}
	if res.Rating != 4 {
		t.Errorf("want rating echoed, got %d", res.Rating)
	}
}

func TestSubmitFeedback_VulnerableWithoutMarker(t *testing.T) {
	svc := newTestChallengeService(config.PolicyVulnerable)

	res, _ := svc.SubmitFeedback(context.Background(), testOwner, "<iframe src=//x>", 0)
	if !res.Exploited || res.Completed {
		t.Errorf("iframe payload should be exploited but not completed, got %+v", res)
	}

	res, _ = svc.SubmitFeedback(context.Background(), testOwner, "nice game", 5)
	if res.Exploited || res.Completed || !res.Accepted {
		t.Errorf("plain feedback should just be accepted, got %+v", res)
	}
}

func TestSubmitFeedback_Secure(t *testing.T) {
	svc := newTestChallengeService(config.PolicySecure)

	res, err := svc.SubmitFeedback(context.Background(), testOwner, `<img src=x onerror="alert(1)">`, 3)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(res.Rendered, "<img") {
		t.Errorf("secure form must escape markup, got %q", res.Rendered)
	}
	if res.Exploited || res.Completed {
		t.Errorf("secure form must not be exploitable, got %+v", res)
	}
	if attempt, ok := lastAttempt(t, svc); attempt != "sanitized_payload" || ok {
		t.Errorf("want failed sanitized_payload attempt, got %s/%v", attempt, ok)
	}
}

// --- admin panel ---

func TestAttemptAdminAccess_Vulnerable(t *testing.T) {
	svc := newTestChallengeService(config.PolicyVulnerable)
	ctx := context.Background()

	res, _ := svc.AttemptAdminAccess(ctx, testOwner, "guest", false)
	if res.Accepted {
		t.Error("no flag, not admin: want denied")
	}

	res, err := svc.AttemptAdminAccess(ctx, testOwner, "guest", true)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Accepted || !res.Exploited || !res.Completed || res.Points == 0 {
		t.Errorf("client flag should bypass and complete, got %+v", res)
	}
}

func TestAttemptAdminAccess_RealAdminIsNotAnExploit(t *testing.T) {
	svc := newTestChallengeService(config.PolicyVulnerable)

	res, _ := svc.AttemptAdminAccess(context.Background(), testOwner, "admin", true)
	if !res.Accepted || res.Exploited {
		t.Errorf("real admin should be let in without an exploit, got %+v", res)
	}
}

func TestAttemptAdminAccess_Secure(t *testing.T) {
	svc := newTestChallengeService(config.PolicySecure)

	res, _ := svc.AttemptAdminAccess(context.Background(), testOwner, "guest", true)
	if res.Accepted || res.Exploited {
		t.Errorf("secure panel must ignore the client flag, got %+v", res)
	}
	if attempt, ok := lastAttempt(t, svc); attempt != "client_admin_flag" || ok {
		t.Errorf("want failed client_admin_flag attempt, got %s/%v", attempt, ok)
	}
}

// --- tokens ---

func TestIssueToken(t *testing.T) {
	svc := newTestChallengeService(config.PolicyVulnerable)

	res, err := svc.IssueToken(context.Background(), testOwner, "")
	if err != nil {
		t.Fatal(err)
	}
	decoded, ok := util.DecodeMockJWT(res.Token)
	if !ok {
		t.Fatalf("issued token should decode: %s", res.Token)
	}
	if decoded.Payload["sub"] != "user_123" || decoded.Payload["username"] != "guest" {
		t.Errorf("unexpected guest payload %v", decoded.Payload)
	}
	if decoded.IsAdminClaim() || res.IsAdmin {
		t.Error("guest token must not be admin")
	}
	exp, _ := decoded.Payload["exp"].(float64)
	iat, _ := decoded.Payload["iat"].(float64)
	if exp-iat != 3600 {
		t.Errorf("want one hour lifetime, got %v", exp-iat)
	}

	res, _ = svc.IssueToken(context.Background(), testOwner, "alice")
	decoded, _ = util.DecodeMockJWT(res.Token)
	sub, _ := decoded.Payload["sub"].(string)
	if !strings.HasPrefix(sub, "user_") || len(sub) != len("user_")+12 {
		t.Errorf("want generated subject, got %q", sub)
	}
}

func forgedAdminToken(t *testing.T) string {
	t.Helper()
	token, err := util.EncodeMockJWT(map[string]interface{}{"sub": "user_123", "role": "admin", "admin": true}, "anything")
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func TestEditToken_VulnerableAcceptsForgery(t *testing.T) {
	svc := newTestChallengeService(config.PolicyVulnerable)
	svc.IssueToken(context.Background(), testOwner, "")

	res, err := svc.EditToken(context.Background(), testOwner, "guest", forgedAdminToken(t))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsAdmin || !res.Exploited || !res.Completed {
		t.Errorf("forged admin claim should be trusted, got %+v", res)
	}
	if res.Points != 250 {
		t.Errorf("jwt fast completion: want 250, got %d", res.Points)
	}
}

func TestEditToken_Malformed(t *testing.T) {
	svc := newTestChallengeService(config.PolicyVulnerable)

	res, err := svc.EditToken(context.Background(), testOwner, "guest", "not.a-token")
	if err != nil {
		t.Fatal(err)
	}
	if res.Accepted || res.Message != "Invalid token format" {
		t.Errorf("want invalid format, got %+v", res)
	}
}

func TestEditToken_SecureRejectsForgery(t *testing.T) {
	svc := newTestChallengeService(config.PolicySecure)
	ctx := context.Background()
	original, _ := svc.IssueToken(ctx, testOwner, "")

	res, _ := svc.EditToken(ctx, testOwner, "guest", forgedAdminToken(t))
	if res.Accepted || res.IsAdmin || res.Exploited {
		t.Errorf("secure policy must reject a modified token, got %+v", res)
	}
	if attempt, ok := lastAttempt(t, svc); attempt != "forged_admin_claim" || ok {
		t.Errorf("want failed forged_admin_claim attempt, got %s/%v", attempt, ok)
	}

	res, _ = svc.EditToken(ctx, testOwner, "guest", original.Token)
	if !res.Accepted || res.IsAdmin {
		t.Errorf("unmodified guest token should be accepted as non-admin, got %+v", res)
	}
}

func TestEditToken_SecureNeedsServerIssuedToken(t *testing.T) {
	svc := newTestChallengeService(config.PolicySecure)
	ctx := context.Background()
	forged := forgedAdminToken(t)

	// nothing issued yet: a self-made admin token has no original to match
	res, err := svc.EditToken(ctx, testOwner, config.AdminUsername, forged)
	if err != nil {
		t.Fatal(err)
	}
	if res.Accepted || res.IsAdmin {
		t.Errorf("admin claim without an issued token must be rejected, got %+v", res)
	}

	svc.IssueToken(ctx, testOwner, "")
	res, _ = svc.EditToken(ctx, testOwner, config.AdminUsername, forged)
	if res.Accepted || res.IsAdmin {
		t.Errorf("admin claim differing from the issued token must be rejected, got %+v", res)
	}
}

func TestEditToken_SecureChecksSignedInUser(t *testing.T) {
	svc := newTestChallengeService(config.PolicySecure)
	ctx := context.Background()

	issued, _ := svc.IssueToken(ctx, testOwner, config.AdminUsername)
	if !issued.IsAdmin {
		t.Fatalf("want an admin token, got %+v", issued)
	}

	res, _ := svc.EditToken(ctx, testOwner, "guest", issued.Token)
	if res.Accepted || res.IsAdmin {
		t.Errorf("a non-admin session must not use an admin token, got %+v", res)
	}

	res, _ = svc.EditToken(ctx, testOwner, config.AdminUsername, issued.Token)
	if !res.Accepted || !res.IsAdmin {
		t.Errorf("the admin session with its own token should be let in, got %+v", res)
	}
}

func TestEditToken_IssuedTokenIsPerOwner(t *testing.T) {
	svc := newTestChallengeService(config.PolicySecure)
	ctx := context.Background()

	issued, _ := svc.IssueToken(ctx, "user:7", config.AdminUsername)
	res, _ := svc.EditToken(ctx, testOwner, config.AdminUsername, issued.Token)
	if res.Accepted || res.IsAdmin {
		t.Errorf("another owner's token must not match, got %+v", res)
	}
}

// --- redirect ---

func TestLogin_MissingCredentials(t *testing.T) {
	svc := newTestChallengeService(config.PolicyVulnerable)
	if _, err := svc.Login(context.Background(), testOwner, "", "pw", "", ""); !errors.Is(err, util.ErrMissingCredentials) {
		t.Errorf("want ErrMissingCredentials, got %v", err)
	}
}

func TestLogin_Vulnerable(t *testing.T) {
	svc := newTestChallengeService(config.PolicyVulnerable)
	ctx := context.Background()

	res, _ := svc.Login(ctx, testOwner, "alice", "pw", "", "localhost:8080")
	if res.RedirectTo != "/dashboard" || res.Exploited {
		t.Errorf("default redirect should be /dashboard, got %+v", res)
	}

	res, err := svc.Login(ctx, testOwner, "alice", "pw", "https://evil.com/phish", "localhost:8080")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Accepted || res.RedirectTo != "https://evil.com/phish" || res.Host != "evil.com" {
		t.Errorf("vulnerable login should follow any redirect, got %+v", res)
	}
	if !res.Exploited || !res.Completed {
		t.Errorf("external redirect should complete the challenge, got %+v", res)
	}
}

func TestLogin_Secure(t *testing.T) {
	svc := newTestChallengeService(config.PolicySecure)
	ctx := context.Background()

	res, _ := svc.Login(ctx, testOwner, "alice", "pw", "https://evil.com", "ctf.local:8080")
	if res.Accepted || res.RedirectTo != "" {
		t.Errorf("untrusted redirect must be rejected, got %+v", res)
	}
	if attempt, ok := lastAttempt(t, svc); attempt != "external_redirect" || ok {
		t.Errorf("want failed external_redirect attempt, got %s/%v", attempt, ok)
	}

	for _, target := range []string{"https://shop.example.com/cart", "http://ctf.local/home", "/profile"} {
		res, _ = svc.Login(ctx, testOwner, "alice", "pw", target, "ctf.local:8080")
		if !res.Accepted || res.RedirectTo != target {
			t.Errorf("%s should be trusted, got %+v", target, res)
		}
	}
}

func TestHostOnly(t *testing.T) {
	cases := map[string]string{
		"":               "",
		"ctf.local":      "ctf.local",
		"ctf.local:8080": "ctf.local",
		"[::1]:8080":     "::1",
		"[::1]":          "::1",
		"::1":            "::1",
	}
	for in, want := range cases {
		if got := hostOnly(in); got != want {
			t.Errorf("hostOnly(%q): want %q, got %q", in, want, got)
		}
	}
}

// --- iframe ---

func TestReceiveMessage(t *testing.T) {
	ctx := context.Background()

	vuln := newTestChallengeService(config.PolicyVulnerable)
	res, err := vuln.ReceiveMessage(ctx, testOwner, "null", "http://localhost:3000", SandboxEscapeMessage)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Exploited || !res.Completed {
		t.Errorf("escape message should complete under the vulnerable policy, got %+v", res)
	}

	secure := newTestChallengeService(config.PolicySecure)
	res, _ = secure.ReceiveMessage(ctx, testOwner, "null", "http://localhost:3000", SandboxEscapeMessage)
	if res.Accepted || res.Exploited {
		t.Errorf("untrusted origin must be blocked, got %+v", res)
	}

	res, _ = secure.ReceiveMessage(ctx, testOwner, "http://localhost:3000", "http://localhost:3000", "PING")
	if !res.Accepted || res.Exploited {
		t.Errorf("trusted origin should be accepted, got %+v", res)
	}
}

// --- hints and completion ---

func TestChallengeUseHint(t *testing.T) {
	svc := newTestChallengeService(config.PolicyVulnerable)
	ctx := context.Background()

	if _, err := svc.UseHint(ctx, testOwner, "nope"); !errors.Is(err, util.ErrChallengeNotFound) {
		t.Errorf("want ErrChallengeNotFound, got %v", err)
	}

	res, err := svc.UseHint(ctx, testOwner, config.ChallengeDOMXSS)
	if err != nil {
		t.Fatal(err)
	}
	if res.HintsUsed != 1 || res.Multiplier != 0.8 || res.Hint == "" {
		t.Errorf("unexpected hint result %+v", res)
	}

	// the revealed hint lowers the payout of the exploit that follows
	fb, _ := svc.SubmitFeedback(ctx, testOwner, "<script>x</script>", 0)
	if fb.Points != 130 {
		t.Errorf("want 80 + 50 after one hint, got %d", fb.Points)
	}
}

func TestChallengeComplete(t *testing.T) {
	svc := newTestChallengeService(config.PolicyVulnerable)
	ctx := context.Background()

	two := 2
	res, err := svc.Complete(ctx, testOwner, config.ChallengeOpenRedirect, &two)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Accepted || res.Points != 110 {
		t.Errorf("want 60 + 50, got %+v", res)
	}

	res, _ = svc.Complete(ctx, testOwner, config.ChallengeOpenRedirect, nil)
	if res.Accepted || !res.Completed || res.Points != 0 {
		t.Errorf("repeat completion should award nothing, got %+v", res)
	}
}

func TestUpdateConfigSwitchesPolicy(t *testing.T) {
	svc := newTestChallengeService(config.PolicyVulnerable)
	if svc.Policy(config.ChallengeDOMXSS) != config.PolicyVulnerable {
		t.Fatal("want vulnerable to start")
	}

	svc.UpdateConfig(config.GameConfig{Policies: map[string]string{config.ChallengeDOMXSS: config.PolicySecure}})
	if svc.Policy(config.ChallengeDOMXSS) != config.PolicySecure {
		t.Error("policy should follow reloaded config")
	}
	if svc.Policy(config.ChallengeJWT) != config.PolicyVulnerable {
		t.Error("unlisted challenges default to vulnerable")
	}
}
