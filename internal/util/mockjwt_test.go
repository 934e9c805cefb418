package util

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
)

func TestEncodeMockJWT_RoundTrip(t *testing.T) {
	token, err := EncodeMockJWT(map[string]interface{}{"sub": "user_123", "role": "user"}, "weak-secret")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if n := len(strings.Split(token, ".")); n != 3 {
		t.Fatalf("want 3 segments, got %d", n)
	}

	decoded, ok := DecodeMockJWT(token)
	if !ok {
		t.Fatal("want token to decode")
	}
	if decoded.Header["alg"] != "HS256" || decoded.Header["typ"] != "JWT" {
		t.Errorf("unexpected header %v", decoded.Header)
	}
	if decoded.Payload["sub"] != "user_123" {
		t.Errorf("want sub user_123, got %v", decoded.Payload["sub"])
	}
	if decoded.IsAdminClaim() {
		t.Error("role user must not be admin")
	}
}

func TestEncodeMockJWT_SignatureIsForgeable(t *testing.T) {
	token, _ := EncodeMockJWT(map[string]interface{}{"role": "user"}, "weak-secret")
	parts := strings.Split(token, ".")

	want := base64.StdEncoding.EncodeToString([]byte(parts[0] + "." + parts[1] + ".weak-secret"))
	if parts[2] != want {
		t.Errorf("signature: want %s, got %s", want, parts[2])
	}
}

func TestEncodeMockJWT_DefaultSecret(t *testing.T) {
	a, _ := EncodeMockJWT(map[string]interface{}{"x": 1.0}, "")
	b, _ := EncodeMockJWT(map[string]interface{}{"x": 1.0}, DefaultMockSecret)
	if a != b {
		t.Error("empty secret should fall back to the default secret")
	}
}

func TestDecodeMockJWT_Malformed(t *testing.T) {
	cases := []string{
		"",
		"abc",
		"a.b",
		"!!!.e30=.sig",
		base64.StdEncoding.EncodeToString([]byte(`{"alg":"HS256"}`)) + ".not-json.sig",
		base64.StdEncoding.EncodeToString([]byte(`{"alg":"HS256"}`)) + "." + base64.StdEncoding.EncodeToString([]byte("[1,2]")) + ".sig",
	}
	for _, tc := range cases {
		if _, ok := DecodeMockJWT(tc); ok {
			t.Errorf("DecodeMockJWT(%q): want failure", tc)
		}
	}
}

func TestDecodeMockJWT_IgnoresSignature(t *testing.T) {
	token, _ := EncodeMockJWT(map[string]interface{}{"role": "user"}, "weak-secret")
	parts := strings.Split(token, ".")
	forged := parts[0] + "." + parts[1] + ".garbage"

	if _, ok := DecodeMockJWT(forged); !ok {
		t.Error("signature must not be verified")
	}
}

func TestDecodeMockJWT_UnpaddedSegments(t *testing.T) {
	header := base64.RawStdEncoding.EncodeToString([]byte(`{"alg":"none"}`))
	payload := base64.RawStdEncoding.EncodeToString([]byte(`{"admin":true}`))

	decoded, ok := DecodeMockJWT(header + "." + payload + ".")
	if !ok {
		t.Fatal("want unpadded token to decode")
	}
	if !decoded.IsAdminClaim() {
		t.Error("admin:true should be an admin claim")
	}
}

func TestIsAdminClaim(t *testing.T) {
	cases := []struct {
		payload string
		want    bool
	}{
		{`{"admin":true}`, true},
		{`{"role":"admin"}`, true},
		{`{"admin":false,"role":"admin"}`, true},
		{`{"admin":"true"}`, false},
		{`{"role":"Admin"}`, false},
		{`{"role":"user"}`, false},
		{`{}`, false},
	}
	for _, tc := range cases {
		var payload map[string]interface{}
		if err := json.Unmarshal([]byte(tc.payload), &payload); err != nil {
			t.Fatal(err)
		}
		token := &DecodedMockToken{Payload: payload}
		if got := token.IsAdminClaim(); got != tc.want {
			t.Errorf("IsAdminClaim(%s): want %v, got %v", tc.payload, tc.want, got)
		}
	}

	var nilToken *DecodedMockToken
	if nilToken.IsAdminClaim() {
		t.Error("nil token is never admin")
	}
}
