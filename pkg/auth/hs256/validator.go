// Package hs256 validates JWT bearer tokens signed with a shared HS256
// secret. scanq runs inside a lab network without an identity service, so a
// shared secret replaces JWKS key discovery.
package hs256

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bioscanq/scanq/pkg/auth"
)

type validatorConfig struct {
	Secret   string `json:"secret"`
	Issuer   string `json:"issuer,omitempty"`
	Audience string `json:"audience,omitempty"`
	// LeewaySeconds tolerates clock skew between token issuer and scanq.
	LeewaySeconds int `json:"leewaySeconds,omitempty"`
}

type validator struct {
	secret   []byte
	issuer   string
	audience string
	leeway   time.Duration
}

func NewValidatorFromJSON(raw json.RawMessage) (auth.Validator, error) {
	var cfg validatorConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, errors.New("jwt auth: invalid config: " + err.Error())
	}
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("jwt auth: secret is required")
	}
	leeway := time.Duration(cfg.LeewaySeconds) * time.Second
	if leeway <= 0 {
		leeway = 60 * time.Second
	}
	return &validator{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		leeway:   leeway,
	}, nil
}

func (v *validator) Validate(tokenString string) (*auth.Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}

	result := &auth.Claims{
		Subject: getStringClaim(claims, "sub"),
		Email:   getStringClaim(claims, "email"),
		Issuer:  getStringClaim(claims, "iss"),
		Raw:     map[string]interface{}(claims),
	}
	if exp, ok := claims["exp"].(float64); ok {
		result.ExpiresAt = time.Unix(int64(exp), 0)
	}
	if iat, ok := claims["iat"].(float64); ok {
		result.IssuedAt = time.Unix(int64(iat), 0)
	}
	if scope, ok := claims["scope"].(string); ok {
		result.Scopes = strings.Fields(scope)
	}
	switch aud := claims["aud"].(type) {
	case string:
		result.Audience = []string{aud}
	case []interface{}:
		for _, a := range aud {
			if s, ok := a.(string); ok {
				result.Audience = append(result.Audience, s)
			}
		}
	}
	return result, nil
}

func getStringClaim(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

func init() {
	auth.RegisterProvider("jwt", NewValidatorFromJSON)
}
