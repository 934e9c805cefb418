package controller

import (
	"bytes"
	"ctf_game_backend/internal/config"
	"ctf_game_backend/internal/middleware"
	"ctf_game_backend/internal/repository"
	"ctf_game_backend/internal/service"
	"ctf_game_backend/internal/util"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type notPaid struct{}

func (notPaid) IsPaid(uint) (bool, error) { return false, nil }

// signedIn stands in for AuthMiddleware. A nil claims value leaves the request anonymous.
func signedIn(claims *util.Claims) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims != nil {
			c.Set(util.ContextUserKey, claims)
		}
		c.Next()
	}
}

func newTestRouter(claims *util.Claims) *gin.Engine {
	return newPolicyRouter(claims, config.PolicyVulnerable)
}

// newPolicyRouter runs every challenge under the given policy.
func newPolicyRouter(claims *util.Claims, policy string) *gin.Engine {
	catalog := config.DefaultCatalog()
	games := service.NewGameService(repository.NewMemoryStateStore(), catalog)
	policies := map[string]string{}
	for _, ch := range config.Challenges {
		policies[ch.ID] = policy
	}
	challenges := service.NewChallengeService(games, config.GameConfig{TokenSecret: "weak-secret", Policies: policies})

	gc := NewGameController(games, catalog)
	cc := NewChallengeController(challenges)
	lc := NewLeaderboardController(service.NewLeaderboardService(games))

	r := gin.New()
	api := r.Group("/api")
	api.GET("/challenges", gc.ListChallenges)
	api.GET("/challenges/:id", gc.GetChallenge)

	authed := api.Group("", signedIn(claims))
	authed.GET("/game/state", gc.GetState)
	authed.PATCH("/game/state", gc.UpdateState)
	authed.GET("/game/settings", gc.GetSettings)
	authed.PUT("/game/settings", gc.UpdateSettings)
	authed.GET("/game/challenges", gc.GetChallenges)
	authed.GET("/game/progress", gc.GetProgress)
	authed.GET("/game/exploits", gc.GetExploits)
	authed.POST("/game/reset", gc.Reset)
	authed.GET("/leaderboard", lc.GetLeaderboard)

	ch := authed.Group("/challenges/:id", middleware.PremiumChallenge(catalog, notPaid{}))
	ch.POST("/feedback", cc.SubmitFeedback)
	ch.POST("/admin-access", cc.AttemptAdminAccess)
	ch.POST("/token", cc.IssueToken)
	ch.POST("/token/edit", cc.EditToken)
	ch.POST("/hint", cc.UseHint)
	ch.POST("/complete", cc.Complete)
	return r
}

func player() *util.Claims {
	return &util.Claims{UserID: 7, Username: "guest"}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func request(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: response is not an envelope: %s", method, path, w.Body.String())
		}
	}
	return w, env
}

// --- public catalog ---

func TestListChallenges(t *testing.T) {
	w, env := request(t, newTestRouter(nil), http.MethodGet, "/api/challenges", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	var data struct {
		Challenges []struct {
			ID string `json:"id"`
		} `json:"challenges"`
	}
	json.Unmarshal(env.Data, &data)
	if len(data.Challenges) != 5 {
		t.Errorf("want 5 challenges, got %d", len(data.Challenges))
	}
}

func TestGetChallenge(t *testing.T) {
	r := newTestRouter(nil)
	if w, _ := request(t, r, http.MethodGet, "/api/challenges/"+config.ChallengeJWT, nil); w.Code != http.StatusOK {
		t.Errorf("known id: want 200, got %d", w.Code)
	}
	if w, _ := request(t, r, http.MethodGet, "/api/challenges/nope", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown id: want 404, got %d", w.Code)
	}
}

// --- game state ---

func TestGameState_RequiresSession(t *testing.T) {
	if w, _ := request(t, newTestRouter(nil), http.MethodGet, "/api/game/state", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("want 401, got %d", w.Code)
	}
}

func TestUpdateState(t *testing.T) {
	r := newTestRouter(player())

	w, env := request(t, r, http.MethodPatch, "/api/game/state", map[string]interface{}{"currentLevel": 2, "totalScore": 9999})
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", w.Code, env.Message)
	}
	var state struct {
		CurrentLevel int `json:"currentLevel"`
		TotalScore   int `json:"totalScore"`
	}
	json.Unmarshal(env.Data, &state)
	if state.CurrentLevel != 2 || state.TotalScore != 0 {
		t.Errorf("only currentLevel is writable, got %+v", state)
	}

	if w, _ := request(t, r, http.MethodPatch, "/api/game/state", map[string]interface{}{}); w.Code != http.StatusBadRequest {
		t.Errorf("missing currentLevel: want 400, got %d", w.Code)
	}
}

func TestUpdateSettings(t *testing.T) {
	r := newTestRouter(player())

	if w, _ := request(t, r, http.MethodPut, "/api/game/settings", map[string]interface{}{"theme": "neon"}); w.Code != http.StatusBadRequest {
		t.Errorf("invalid theme: want 400, got %d", w.Code)
	}

	w, env := request(t, r, http.MethodPut, "/api/game/settings", map[string]interface{}{"theme": "dark"})
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	var settings struct {
		Theme        string `json:"theme"`
		SoundEnabled bool   `json:"soundEnabled"`
	}
	json.Unmarshal(env.Data, &settings)
	if settings.Theme != "dark" || !settings.SoundEnabled {
		t.Errorf("unexpected settings %+v", settings)
	}
}

// --- challenge actions ---

func TestSubmitFeedback_ExploitFlow(t *testing.T) {
	r := newTestRouter(player())

	w, env := request(t, r, http.MethodPost, "/api/challenges/"+config.ChallengeDOMXSS+"/feedback",
		map[string]interface{}{"feedback": "<script>alert(1)</script>", "rating": 5})
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", w.Code, env.Message)
	}
	var res struct {
		Exploited bool `json:"exploited"`
		Completed bool `json:"completed"`
		Points    int  `json:"points"`
	}
	json.Unmarshal(env.Data, &res)
	if !res.Exploited || !res.Completed || res.Points != 150 {
		t.Errorf("unexpected result %+v", res)
	}

	_, env = request(t, r, http.MethodGet, "/api/game/progress", nil)
	var progress struct {
		Score int    `json:"score"`
		Badge string `json:"badge"`
	}
	json.Unmarshal(env.Data, &progress)
	if progress.Score != 150 || progress.Badge != "🎯 Novice Hacker" {
		t.Errorf("unexpected progress %+v", progress)
	}

	_, env = request(t, r, http.MethodGet, "/api/game/exploits", nil)
	var attempts []map[string]interface{}
	json.Unmarshal(env.Data, &attempts)
	if len(attempts) != 1 || attempts[0]["method"] != "xss" {
		t.Errorf("unexpected exploit log %v", attempts)
	}
}

func TestSubmitFeedback_Validation(t *testing.T) {
	r := newTestRouter(player())
	path := "/api/challenges/" + config.ChallengeDOMXSS + "/feedback"

	if w, _ := request(t, r, http.MethodPost, path, map[string]interface{}{"feedback": ""}); w.Code != http.StatusBadRequest {
		t.Errorf("empty feedback: want 400, got %d", w.Code)
	}
	if w, _ := request(t, r, http.MethodPost, path, map[string]interface{}{"feedback": "x", "rating": 9}); w.Code != http.StatusBadRequest {
		t.Errorf("rating out of range: want 400, got %d", w.Code)
	}
}

func TestActionOnWrongChallenge(t *testing.T) {
	r := newTestRouter(player())
	w, _ := request(t, r, http.MethodPost, "/api/challenges/"+config.ChallengeAuthBypass+"/feedback",
		map[string]interface{}{"feedback": "hi"})
	if w.Code != http.StatusNotFound {
		t.Errorf("feedback belongs to the xss challenge only: want 404, got %d", w.Code)
	}
}

func TestPremiumActionRequiresPayment(t *testing.T) {
	r := newTestRouter(player())
	if w, _ := request(t, r, http.MethodPost, "/api/challenges/"+config.ChallengeJWT+"/token", nil); w.Code != http.StatusPaymentRequired {
		t.Errorf("unpaid player: want 402, got %d", w.Code)
	}

	paid := newTestRouter(&util.Claims{UserID: 8, Username: "pro", IsPaid: true})
	w, env := request(t, paid, http.MethodPost, "/api/challenges/"+config.ChallengeJWT+"/token", map[string]string{"username": "pro"})
	if w.Code != http.StatusOK {
		t.Fatalf("paid player: want 200, got %d", w.Code)
	}
	var res struct {
		Token string `json:"token"`
	}
	json.Unmarshal(env.Data, &res)
	if _, ok := util.DecodeMockJWT(res.Token); !ok {
		t.Errorf("want a decodable mock token, got %q", res.Token)
	}
}

func TestSecureChallengesIgnoreClientIdentity(t *testing.T) {
	r := newPolicyRouter(&util.Claims{UserID: 9, Username: "guest", IsPaid: true}, config.PolicySecure)

	w, env := request(t, r, http.MethodPost, "/api/challenges/"+config.ChallengeAuthBypass+"/admin-access",
		map[string]interface{}{"currentUser": config.AdminUsername, "isAdmin": true})
	if w.Code != http.StatusOK {
		t.Fatalf("admin-access: want 200, got %d", w.Code)
	}
	var access struct {
		Accepted bool `json:"accepted"`
	}
	json.Unmarshal(env.Data, &access)
	if access.Accepted {
		t.Error("a username in the body must not grant the admin panel")
	}

	forged, err := util.EncodeMockJWT(map[string]interface{}{"sub": "user_123", "role": "admin", "admin": true}, "x")
	if err != nil {
		t.Fatal(err)
	}
	w, env = request(t, r, http.MethodPost, "/api/challenges/"+config.ChallengeJWT+"/token/edit",
		map[string]string{"currentUser": config.AdminUsername, "originalToken": forged, "editedToken": forged})
	if w.Code != http.StatusOK {
		t.Fatalf("token/edit: want 200, got %d", w.Code)
	}
	var edit struct {
		Accepted bool `json:"accepted"`
		IsAdmin  bool `json:"isAdmin"`
	}
	json.Unmarshal(env.Data, &edit)
	if edit.Accepted || edit.IsAdmin {
		t.Errorf("a client supplied original token must not be trusted, got %+v", edit)
	}
}

func TestHintAndComplete(t *testing.T) {
	r := newTestRouter(player())
	base := "/api/challenges/" + config.ChallengeAuthBypass

	w, env := request(t, r, http.MethodPost, base+"/hint", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("hint: want 200, got %d", w.Code)
	}
	var hint struct {
		HintsUsed int `json:"hintsUsed"`
	}
	json.Unmarshal(env.Data, &hint)
	if hint.HintsUsed != 1 {
		t.Errorf("want 1 hint used, got %d", hint.HintsUsed)
	}

	_, env = request(t, r, http.MethodPost, base+"/complete", nil)
	var res struct {
		Points int `json:"points"`
	}
	json.Unmarshal(env.Data, &res)
	if res.Points != 170 {
		t.Errorf("want floor(150*0.8)+50 = 170, got %d", res.Points)
	}

	if w, _ := request(t, r, http.MethodPost, "/api/challenges/nope/hint", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown challenge: want 404, got %d", w.Code)
	}
}

func TestReset(t *testing.T) {
	r := newTestRouter(player())
	request(t, r, http.MethodPost, "/api/challenges/"+config.ChallengeAuthBypass+"/admin-access",
		map[string]interface{}{"isAdmin": true})

	w, env := request(t, r, http.MethodPost, "/api/game/reset", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	var state struct {
		TotalScore int `json:"totalScore"`
	}
	json.Unmarshal(env.Data, &state)
	if state.TotalScore != 0 {
		t.Errorf("want score reset, got %d", state.TotalScore)
	}
}

func TestLeaderboard(t *testing.T) {
	w, env := request(t, newTestRouter(player()), http.MethodGet, "/api/leaderboard", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	var data struct {
		Entries []struct {
			Rank int `json:"rank"`
		} `json:"entries"`
		You struct {
			Rank int `json:"rank"`
		} `json:"you"`
	}
	json.Unmarshal(env.Data, &data)
	if len(data.Entries) != 5 || data.You.Rank != 6 {
		t.Errorf("unexpected leaderboard %+v", data)
	}
}
