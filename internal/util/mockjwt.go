package util

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// DefaultMockSecret is the secret used when callers do not supply one.
const DefaultMockSecret = "weak-secret"

// MockHeader is the fixed header of every mock token.
type MockHeader struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

// DecodedMockToken is the parsed form of a mock token.
// swagger:model DecodedMockToken
type DecodedMockToken struct {
	Header    map[string]interface{} `json:"header"`
	Payload   map[string]interface{} `json:"payload"`
	Signature string                 `json:"signature"`
}

// EncodeMockJWT builds a three segment token that looks like a JWT.
// The signature is a base64 encoding of the two segments and the secret, so
// anyone can forge one. This is what the jwt challenge teaches.
func EncodeMockJWT(payload map[string]interface{}, secret string) (string, error) {
	if secret == "" {
		secret = DefaultMockSecret
	}
	if payload == nil {
		payload = map[string]interface{}{}
	}

	header, err := json.Marshal(MockHeader{Alg: "HS256", Typ: "JWT"})
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	encodedHeader := base64.StdEncoding.EncodeToString(header)
	encodedPayload := base64.StdEncoding.EncodeToString(body)
	signature := base64.StdEncoding.EncodeToString([]byte(encodedHeader + "." + encodedPayload + "." + secret))

	return encodedHeader + "." + encodedPayload + "." + signature, nil
}

// DecodeMockJWT parses a mock token without checking its signature.
// ok is false when the token has fewer than three segments or a segment is
// not base64 encoded JSON.
func DecodeMockJWT(token string) (*DecodedMockToken, bool) {
	parts := strings.Split(token, ".")
	if len(parts) < 3 {
		return nil, false
	}

	header, ok := decodeSegment(parts[0])
	if !ok {
		return nil, false
	}
	payload, ok := decodeSegment(parts[1])
	if !ok {
		return nil, false
	}

	return &DecodedMockToken{
		Header:    header,
		Payload:   payload,
		Signature: parts[2],
	}, true
}

// IsAdminClaim reports whether the payload claims admin rights via either
// `admin: true` or `role: "admin"`.
func (t *DecodedMockToken) IsAdminClaim() bool {
	if t == nil || t.Payload == nil {
		return false
	}
	if admin, ok := t.Payload["admin"].(bool); ok && admin {
		return true
	}
	role, _ := t.Payload["role"].(string)
	return role == "admin"
}

func decodeSegment(seg string) (map[string]interface{}, bool) {
	raw, err := base64.StdEncoding.DecodeString(seg)
	if err != nil {
		// tolerate tokens edited by hand that lost their padding
		raw, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(seg, "="))
		if err != nil {
			return nil, false
		}
	}

	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return nil, false
	}
	return out, true
}
