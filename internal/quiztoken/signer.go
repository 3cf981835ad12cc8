// Package quiztoken issues signed tokens that carry a generated quiz between
// requests, so the server keeps no per-quiz state.
package quiztoken

import (
	"errors"
	"fmt"
	"time"

	"sop-quiz/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "sop-quiz"

type tokenItem struct {
	Question     string                     `json:"q"`
	Options      [domain.OptionCount]string `json:"o"`
	CorrectIndex int                        `json:"c"`
	Reasons      [domain.OptionCount]string `json:"r"`
}

type quizClaims struct {
	BatchID string      `json:"bid"`
	Items   []tokenItem `json:"items"`
	Raw     string      `json:"raw"`
	jwt.RegisteredClaims
}

// Signer signs and verifies quiz tokens with HS256. The payload is signed,
// not encrypted.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner creates a Signer. A zero ttl issues tokens that never expire.
func NewSigner(secret string, ttl time.Duration) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("quiz token secret cannot be empty")
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Sign encodes batch into a token.
func (s *Signer) Sign(batch *domain.QuizBatch) (string, error) {
	if err := batch.Validate(); err != nil {
		return "", err
	}

	now := s.now()
	claims := quizClaims{
		BatchID: batch.ID,
		Items:   make([]tokenItem, len(batch.Items)),
		Raw:     batch.Raw,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			Subject:  batch.ID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}
	for i, item := range batch.Items {
		claims.Items[i] = tokenItem(item)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign quiz token: %w", err)
	}
	return signed, nil
}

// Verify decodes a token issued by Sign. Any failure is INVALID_QUIZ_TOKEN.
func (s *Signer) Verify(tokenString string) (*domain.QuizBatch, error) {
	claims := &quizClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, domain.NewInvalidQuizTokenError(err)
	}

	batch := &domain.QuizBatch{
		ID:    claims.BatchID,
		Items: make([]domain.QuizItem, len(claims.Items)),
		Raw:   claims.Raw,
	}
	if claims.IssuedAt != nil {
		batch.GeneratedAt = claims.IssuedAt.Time
	}
	for i, item := range claims.Items {
		batch.Items[i] = domain.QuizItem(item)
	}
	if err := batch.Validate(); err != nil {
		return nil, domain.NewInvalidQuizTokenError(err)
	}
	return batch, nil
}
