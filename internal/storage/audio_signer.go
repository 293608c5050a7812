package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const audioIssuer = "practice-service"

var (
	ErrTokenInvalid = errors.New("audio token is invalid or expired")
	ErrTokenUsed    = errors.New("audio token has already been used")
)

// RedeemStore records redeemed token ids.
type RedeemStore interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

type audioClaims struct {
	Path string `json:"path"`
	jwt.RegisteredClaims
}

// AudioSigner issues short-lived, single-use URLs for stored recordings.
type AudioSigner struct {
	secret  []byte
	ttl     time.Duration
	baseURL string
	store   RedeemStore
	now     func() time.Time
}

func NewAudioSigner(secret string, ttl time.Duration, baseURL string, store RedeemStore) *AudioSigner {
	return &AudioSigner{
		secret:  []byte(secret),
		ttl:     ttl,
		baseURL: baseURL,
		store:   store,
		now:     time.Now,
	}
}

type SignedURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Sign returns a URL that serves storagePath once before ttl elapses.
func (s *AudioSigner) Sign(storagePath, subject string) (SignedURL, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := audioClaims{
		Path: storagePath,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    audioIssuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return SignedURL{}, fmt.Errorf("failed to sign audio token: %w", err)
	}

	return SignedURL{
		URL:       s.baseURL + "?token=" + url.QueryEscape(token),
		ExpiresAt: expiresAt,
	}, nil
}

// Redeem validates the token and marks it used. The returned path is the
// storage path the token was issued for.
func (s *AudioSigner) Redeem(ctx context.Context, token string) (string, error) {
	claims := &audioClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(audioIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	remaining := claims.ExpiresAt.Sub(s.now())
	if remaining <= 0 {
		remaining = time.Second
	}
	first, err := s.store.SetNX(ctx, "audio_jti:"+claims.ID, 1, remaining).Result()
	if err != nil {
		return "", fmt.Errorf("failed to record audio token: %w", err)
	}
	if !first {
		return "", ErrTokenUsed
	}
	return claims.Path, nil
}
