package service

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/noah-isme/dance-board-api/internal/models"
)

// TokenService issues and resolves approval tokens.
type TokenService struct {
	now func() time.Time
}

// NewTokenService constructs the token engine.
func NewTokenService() *TokenService {
	return &TokenService{now: time.Now}
}

// Issue returns a new token: a millisecond time prefix followed by 80 random bits.
func (s *TokenService) Issue() string {
	id, err := ulid.New(ulid.Timestamp(s.now()), rand.Reader)
	if err != nil {
		return ulid.Make().String()
	}
	return id.String()
}

// Resolve locates token across the pending collections.
func (s *TokenService) Resolve(token string, pending models.PendingSnapshot) (models.TokenMatch, bool) {
	return ResolveToken(token, pending.Additions, pending.Edits, pending.Deletions)
}

// ResolveToken searches additions, then edits, then deletions and returns the
// first record carrying token.
func ResolveToken(token string, additions []models.PendingAddition, edits []models.PendingEdit, deletions []models.PendingDeletion) (models.TokenMatch, bool) {
	if token == "" {
		return models.TokenMatch{}, false
	}
	for i := range additions {
		if additions[i].ApprovalToken == token {
			return models.TokenMatch{Kind: models.CollectionAdditions, Index: i}, true
		}
	}
	for i := range edits {
		if edits[i].ApprovalToken == token {
			return models.TokenMatch{Kind: models.CollectionEdits, Index: i}, true
		}
	}
	for i := range deletions {
		if deletions[i].ApprovalToken == token {
			return models.TokenMatch{Kind: models.CollectionDeletions, Index: i}, true
		}
	}
	return models.TokenMatch{}, false
}
