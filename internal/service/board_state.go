package service

import (
	"sync"

	"github.com/noah-isme/dance-board-api/internal/models"
)

// boardCollections is the mutable board data guarded by BoardState.
type boardCollections struct {
	Classes      []models.ClassRecord
	Additions    []models.PendingAddition
	Edits        []models.PendingEdit
	Deletions    []models.PendingDeletion
	LastModified string
}

// BoardState owns the in-memory collections of one board process. Every
// mutation runs to completion under a single mutex.
type BoardState struct {
	mu   sync.Mutex
	data boardCollections
}

// NewBoardState returns an empty board.
func NewBoardState() *BoardState {
	return &BoardState{}
}

func (b *BoardState) update(fn func(c *boardCollections)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(&b.data)
}

// Classes returns a copy of the committed collection.
func (b *BoardState) Classes() []models.ClassRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return models.CloneClasses(b.data.Classes)
}

// Pending returns a copy of the three staging collections.
func (b *BoardState) Pending() models.PendingSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return models.PendingSnapshot{
		Additions: append([]models.PendingAddition{}, b.data.Additions...),
		Edits:     append([]models.PendingEdit{}, b.data.Edits...),
		Deletions: append([]models.PendingDeletion{}, b.data.Deletions...),
	}
}

// LastModified returns the local change stamp.
func (b *BoardState) LastModified() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data.LastModified
}
