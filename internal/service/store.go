package service

import (
	"context"

	"github.com/xxxsen/merlin/internal/model"
)

// NoteStore is the storage collaborator. Each call is atomic; the store
// assigns ids and creation times.
type NoteStore interface {
	Create(ctx context.Context, note *model.Note) (int64, error)
	Get(ctx context.Context, id int64) (*model.Note, error)
	Recent(ctx context.Context, limit int) ([]*model.Note, error)
	ListEmbeddings(ctx context.Context) ([]model.NoteEmbedding, error)
	ListMissingEmbeddings(ctx context.Context, limit int) ([]*model.Note, error)
	UpdateEmbedding(ctx context.Context, id int64, embedding []float32) error
}
