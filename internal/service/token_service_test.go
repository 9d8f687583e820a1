package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dance-board-api/internal/models"
)

func TestTokenServiceIssueUnique(t *testing.T) {
	svc := NewTokenService()
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		token := svc.Issue()
		require.Len(t, token, 26)
		_, dup := seen[token]
		require.False(t, dup)
		seen[token] = struct{}{}
	}
}

func TestResolveTokenPriorityOrder(t *testing.T) {
	additions := []models.PendingAddition{{ApprovalToken: "x"}, {ApprovalToken: "shared"}}
	edits := []models.PendingEdit{{ApprovalToken: "shared"}, {ApprovalToken: "e"}}
	deletions := []models.PendingDeletion{{ApprovalToken: "shared"}, {ApprovalToken: "abc"}}

	match, ok := ResolveToken("shared", additions, edits, deletions)
	require.True(t, ok)
	require.Equal(t, models.TokenMatch{Kind: models.CollectionAdditions, Index: 1}, match)

	match, ok = ResolveToken("e", additions, edits, deletions)
	require.True(t, ok)
	require.Equal(t, models.TokenMatch{Kind: models.CollectionEdits, Index: 1}, match)

	match, ok = ResolveToken("abc", additions, edits, deletions)
	require.True(t, ok)
	require.Equal(t, models.TokenMatch{Kind: models.CollectionDeletions, Index: 1}, match)
}

func TestResolveTokenNotFound(t *testing.T) {
	_, ok := ResolveToken("nonexistent", []models.PendingAddition{{ApprovalToken: "a"}}, nil, nil)
	require.False(t, ok)

	_, ok = ResolveToken("", []models.PendingAddition{{ApprovalToken: ""}}, nil, nil)
	require.False(t, ok)
}
