package config

import (
	"ctf_game_backend/internal/model"
)

const (
	PolicyVulnerable = "vulnerable"
	PolicySecure     = "secure"
)

// AdminUsername is the only account the mock app treats as a real admin.
// Registration refuses it.
const AdminUsername = "admin"

// Scoring rules applied on completion.
const (
	MaxHints = 3

	FastBonus   = 50 // under two minutes
	MediumBonus = 25 // under five minutes
	SlowBonus   = 0
)

// HintMultipliers is indexed by hints used, capped at MaxHints.
var HintMultipliers = [MaxHints + 1]float64{1.0, 0.8, 0.6, 0.4}

const (
	ChallengeDOMXSS       = "dom-xss-feedback"
	ChallengeAuthBypass   = "auth-bypass-admin"
	ChallengeJWT          = "jwt-manipulation"
	ChallengeOpenRedirect = "open-redirect-login"
	ChallengeIframe       = "iframe-sandbox-bypass"
)

var Challenges = []model.Challenge{
	{
		ID:          ChallengeDOMXSS,
		Title:       "DOM-based XSS in Feedback Form",
		Description: "A startup's feedback form is vulnerable to DOM-based XSS. Find a way to execute arbitrary JavaScript code.",
		Category:    model.CategoryXSS,
		Difficulty:  model.DifficultyEasy,
		Points:      100,
		Hints: []string{
			"Look at how user input is being processed in the feedback form",
			"Check if the input is being directly inserted into the DOM",
			"Try injecting JavaScript code in the form fields",
		},
		ExploitTarget: "feedback-form",
	},
	{
		ID:          ChallengeAuthBypass,
		Title:       "Authorization Bypass in Admin Panel",
		Description: "The admin panel has weak authorization checks. Can you access admin features without proper credentials?",
		Category:    model.CategoryAuth,
		Difficulty:  model.DifficultyMedium,
		Points:      150,
		Hints: []string{
			"Examine how the application checks for admin privileges",
			"Look for client-side authorization logic",
			"Try manipulating browser storage or cookies",
		},
		ExploitTarget: "admin-panel",
	},
	{
		ID:          ChallengeJWT,
		Title:       "JWT Token Manipulation",
		Description: "The application uses JWT tokens for authentication. Can you forge a token to become an admin?",
		Category:    model.CategoryJWT,
		Difficulty:  model.DifficultyHard,
		Points:      200,
		Hints: []string{
			"Analyze the structure of the JWT token",
			"Check if the token signature is properly validated",
			"Try changing the algorithm in the JWT header",
		},
		ExploitTarget: "jwt-auth",
		IsPremium:     true,
	},
	{
		ID:          ChallengeOpenRedirect,
		Title:       "Open Redirect on Login",
		Description: "The login system has an open redirect vulnerability. Exploit it to redirect users to a malicious site.",
		Category:    model.CategoryRedirect,
		Difficulty:  model.DifficultyEasy,
		Points:      100,
		Hints: []string{
			"Look for redirect parameters in the login URL",
			"Check if the redirect URL is properly validated",
			"Try redirecting to an external domain",
		},
		ExploitTarget: "login-redirect",
		IsPremium:     true,
	},
	{
		ID:          ChallengeIframe,
		Title:       "iframe Sandbox Bypass",
		Description: "Embedded content is displayed in a sandboxed iframe. Find a way to break out of the sandbox.",
		Category:    model.CategorySandbox,
		Difficulty:  model.DifficultyHard,
		Points:      250,
		Hints: []string{
			"Examine the iframe sandbox attributes",
			"Look for ways to communicate with the parent window",
			"Check for postMessage vulnerabilities",
		},
		ExploitTarget: "embedded-content",
		IsPremium:     true,
	},
}

var Categories = map[model.Category]model.CategoryInfo{
	model.CategoryXSS: {
		Name:        "Cross-Site Scripting",
		Color:       "#ef4444",
		Description: "Client-side code injection vulnerabilities",
	},
	model.CategoryAuth: {
		Name:        "Authorization",
		Color:       "#f97316",
		Description: "Access control and privilege escalation",
	},
	model.CategoryJWT: {
		Name:        "JWT Security",
		Color:       "#8b5cf6",
		Description: "JSON Web Token manipulation and forgery",
	},
	model.CategoryRedirect: {
		Name:        "Open Redirect",
		Color:       "#06b6d4",
		Description: "URL redirection vulnerabilities",
	},
	model.CategorySandbox: {
		Name:        "Sandbox Escape",
		Color:       "#84cc16",
		Description: "Breaking out of security containers",
	},
}

// Catalog is the read-only challenge lookup built once at startup.
type Catalog struct {
	list []model.Challenge
	byID map[string]model.Challenge
}

func NewCatalog(challenges []model.Challenge) *Catalog {
	c := &Catalog{
		list: make([]model.Challenge, len(challenges)),
		byID: make(map[string]model.Challenge, len(challenges)),
	}
	copy(c.list, challenges)
	for _, ch := range c.list {
		c.byID[ch.ID] = ch
	}
	return c
}

// DefaultCatalog returns the catalog of shipped challenges.
func DefaultCatalog() *Catalog {
	return NewCatalog(Challenges)
}

func (c *Catalog) Get(id string) (model.Challenge, bool) {
	ch, ok := c.byID[id]
	return ch, ok
}

// All returns the challenges in catalog order. The slice is a copy.
func (c *Catalog) All() []model.Challenge {
	out := make([]model.Challenge, len(c.list))
	copy(out, c.list)
	return out
}

func (c *Catalog) Len() int {
	return len(c.list)
}

// PolicyFor returns the configured policy for a challenge, vulnerable when unset.
func (g GameConfig) PolicyFor(challengeID string) string {
	if p, ok := g.Policies[challengeID]; ok && p != "" {
		return p
	}
	return PolicyVulnerable
}
