// Package auth validates bearer JWTs and exposes the caller's role claim.
package auth

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"DomainQL/internal/config"
)

type contextKey string

const claimsContextKey contextKey = "jwt_claims"

var errSignature = errors.New("invalid jwt signature")

// Claims is the decoded payload of a validated token.
type Claims map[string]any

// Role reads a string claim; a list claim yields its first string.
func (c Claims) Role(claim string) string {
	switch v := c[claim].(type) {
	case string:
		return strings.TrimSpace(v)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

type JWTValidator struct {
	cfg       config.JWTConfig
	alg       string
	verify    func(signingInput string, signature []byte) error
	clockFunc func() time.Time
}

func NewJWTValidator(cfg config.JWTConfig) (*JWTValidator, error) {
	if strings.TrimSpace(cfg.Issuer) == "" {
		return nil, errors.New("jwt issuer is required")
	}
	if strings.TrimSpace(cfg.Audience) == "" {
		return nil, errors.New("jwt audience is required")
	}
	alg := strings.ToUpper(strings.TrimSpace(cfg.ValidationType))
	if alg == "" {
		return nil, errors.New("jwt validation type is required")
	}

	v := &JWTValidator{cfg: cfg, alg: alg, clockFunc: time.Now}
	switch alg {
	case "HS256":
		if cfg.HMACSecret == "" {
			return nil, errors.New("jwt hmac secret is required for HS256")
		}
		v.verify = verifyHMAC([]byte(cfg.HMACSecret))
	case "RS256":
		pub, err := loadPublicKey(cfg)
		if err != nil {
			return nil, err
		}
		key, ok := pub.(*rsa.PublicKey)
		if !ok {
			return nil, errors.New("jwt public key is not RSA")
		}
		v.verify = verifyRSA(key)
	case "ES256":
		pub, err := loadPublicKey(cfg)
		if err != nil {
			return nil, err
		}
		key, ok := pub.(*ecdsa.PublicKey)
		if !ok {
			return nil, errors.New("jwt public key is not ECDSA")
		}
		v.verify = verifyECDSA(key)
	default:
		return nil, fmt.Errorf("unsupported jwt validation type: %s", cfg.ValidationType)
	}
	return v, nil
}

func (v *JWTValidator) ValidateToken(token string) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, errors.New("invalid jwt format")
	}

	var header map[string]any
	if err := decodeSegment(parts[0], &header); err != nil {
		return nil, fmt.Errorf("invalid jwt header: %w", err)
	}
	if alg, _ := header["alg"].(string); strings.ToUpper(alg) != v.alg {
		return nil, fmt.Errorf("unexpected jwt alg: %s", alg)
	}

	signature, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, errors.New("invalid jwt signature encoding")
	}
	if err := v.verify(parts[0]+"."+parts[1], signature); err != nil {
		return nil, err
	}

	var claims Claims
	if err := decodeSegment(parts[1], &claims); err != nil {
		return nil, fmt.Errorf("invalid jwt claims: %w", err)
	}
	if err := v.validateClaims(claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func WithClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(Claims)
	return claims, ok
}

func verifyHMAC(key []byte) func(string, []byte) error {
	return func(signingInput string, signature []byte) error {
		mac := hmac.New(sha256.New, key)
		_, _ = mac.Write([]byte(signingInput))
		if !hmac.Equal(mac.Sum(nil), signature) {
			return errSignature
		}
		return nil
	}
}

func verifyRSA(key *rsa.PublicKey) func(string, []byte) error {
	return func(signingInput string, signature []byte) error {
		hash := sha256.Sum256([]byte(signingInput))
		if rsa.VerifyPKCS1v15(key, crypto.SHA256, hash[:], signature) != nil {
			return errSignature
		}
		return nil
	}
}

func verifyECDSA(key *ecdsa.PublicKey) func(string, []byte) error {
	return func(signingInput string, signature []byte) error {
		// r || s, 32 bytes each
		if len(signature) != 64 {
			return errors.New("invalid jwt signature length")
		}
		hash := sha256.Sum256([]byte(signingInput))
		r := new(big.Int).SetBytes(signature[:32])
		s := new(big.Int).SetBytes(signature[32:])
		if !ecdsa.Verify(key, hash[:], r, s) {
			return errSignature
		}
		return nil
	}
}

func (v *JWTValidator) validateClaims(claims Claims) error {
	now := v.clockFunc().Unix()
	skew := max(v.cfg.ClockSkewSec, 0)

	if iss, _ := claims["iss"].(string); iss != v.cfg.Issuer {
		return errors.New("invalid jwt issuer")
	}
	if !isAudienceValid(claims["aud"], v.cfg.Audience) {
		return errors.New("invalid jwt audience")
	}

	times := map[string]int64{}
	for _, key := range []string{"exp", "nbf", "iat"} {
		n, err := numericClaim(claims, key)
		if err != nil {
			return err
		}
		times[key] = n
	}
	switch {
	case now > times["exp"]+skew:
		return errors.New("jwt is expired")
	case now+skew < times["nbf"]:
		return errors.New("jwt is not valid yet")
	case times["iat"] > now+skew:
		return errors.New("jwt issued in the future")
	}
	return nil
}

func decodeSegment(segment string, out any) error {
	payload, err := base64.RawURLEncoding.DecodeString(segment)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, out)
}

func numericClaim(claims Claims, key string) (int64, error) {
	raw, ok := claims[key]
	if !ok {
		return 0, fmt.Errorf("jwt claim %s is required", key)
	}
	switch v := raw.(type) {
	case float64:
		return int64(v), nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("invalid jwt claim %s", key)
		}
		return n, nil
	}
	return 0, fmt.Errorf("invalid jwt claim %s", key)
}

func isAudienceValid(raw any, expected string) bool {
	switch aud := raw.(type) {
	case string:
		return aud == expected
	case []any:
		for _, item := range aud {
			if s, ok := item.(string); ok && s == expected {
				return true
			}
		}
	}
	return false
}

func loadPublicKey(cfg config.JWTConfig) (any, error) {
	keyPEM := strings.TrimSpace(cfg.PublicKeyPEM)
	if keyPEM == "" && strings.TrimSpace(cfg.PublicKeyPath) != "" {
		data, err := os.ReadFile(cfg.PublicKeyPath)
		if err != nil {
			return nil, fmt.Errorf("read jwt public key: %w", err)
		}
		keyPEM = string(data)
	}
	if keyPEM == "" {
		return nil, errors.New("jwt public key is required")
	}

	block, _ := pem.Decode([]byte(keyPEM))
	if block == nil {
		return nil, errors.New("invalid jwt public key pem")
	}
	if pub, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		return pub, nil
	}
	if pub, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return pub, nil
	}
	if cert, err := x509.ParseCertificate(block.Bytes); err == nil {
		return cert.PublicKey, nil
	}
	return nil, errors.New("unsupported jwt public key format")
}
