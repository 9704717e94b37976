package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/xxxsen/merlin/internal/model"
	appErr "github.com/xxxsen/merlin/internal/pkg/errors"
)

type NoteRepo struct {
	db *sqlx.DB
}

func NewNoteRepo(db *sqlx.DB) *NoteRepo {
	return &NoteRepo{db: db}
}

var noteFields = []string{"id", "title", "content", "summary", "tags", "embedding", "source", "created_at"}

// Create persists a note and assigns its id and creation time. The note is
// stored in a single statement; there is no partially visible state.
func (r *NoteRepo) Create(ctx context.Context, note *model.Note) (int64, error) {
	if note.Content == "" {
		return 0, fmt.Errorf("%w: note content must not be empty", appErr.ErrInvalid)
	}
	createdAt := time.Now().UnixMilli()
	tags := note.Tags
	if tags == nil {
		tags = []string{}
	}
	const query = `
		INSERT INTO notes (title, content, summary, tags, embedding, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		note.Title,
		note.Content,
		note.Summary,
		pq.Array(tags),
		pgvector.NewVector(note.Embedding),
		note.Source,
		createdAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	note.ID = id
	note.CreatedAt = createdAt
	return id, nil
}

func (r *NoteRepo) Get(ctx context.Context, id int64) (*model.Note, error) {
	where := map[string]interface{}{
		"id": id,
	}
	sqlStr, args, err := builder.BuildSelect("notes", where, noteFields)
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx, r.db.Rebind(sqlStr), args...)
	note, err := scanNote(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: note %d", appErr.ErrNotFound, id)
		}
		return nil, err
	}
	return note, nil
}

func (r *NoteRepo) Recent(ctx context.Context, limit int) ([]*model.Note, error) {
	if limit <= 0 {
		limit = 10
	}
	where := map[string]interface{}{
		"_orderby": "created_at desc, id desc",
		"_limit":   []uint{0, uint(limit)},
	}
	sqlStr, args, err := builder.BuildSelect("notes", where, noteFields)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(sqlStr), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var notes []*model.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

// ListEmbeddings returns the slim projection the similarity index loads at
// startup. Rows without an embedding are skipped; the backfill job picks
// them up.
func (r *NoteRepo) ListEmbeddings(ctx context.Context) ([]model.NoteEmbedding, error) {
	const query = `
		SELECT id, embedding, created_at
		FROM notes
		WHERE embedding IS NOT NULL
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.NoteEmbedding
	for rows.Next() {
		var item model.NoteEmbedding
		var vec pgvector.Vector
		if err := rows.Scan(&item.NoteID, &vec, &item.CreatedAt); err != nil {
			return nil, err
		}
		item.Embedding = vec.Slice()
		out = append(out, item)
	}
	return out, rows.Err()
}

// ListMissingEmbeddings returns notes whose embedding column is NULL, e.g.
// rows imported outside the ingestion pipeline.
func (r *NoteRepo) ListMissingEmbeddings(ctx context.Context, limit int) ([]*model.Note, error) {
	const query = `
		SELECT id, title, content, summary, tags, embedding, source, created_at
		FROM notes
		WHERE embedding IS NULL
		ORDER BY id ASC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var notes []*model.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

func (r *NoteRepo) UpdateEmbedding(ctx context.Context, id int64, embedding []float32) error {
	const query = `UPDATE notes SET embedding = $1 WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, pgvector.NewVector(embedding), id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: note %d", appErr.ErrNotFound, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNote(row rowScanner) (*model.Note, error) {
	var note model.Note
	var tags pq.StringArray
	var vec *pgvector.Vector
	if err := row.Scan(&note.ID, &note.Title, &note.Content, &note.Summary, &tags, &vec, &note.Source, &note.CreatedAt); err != nil {
		return nil, err
	}
	note.Tags = []string(tags)
	if vec != nil {
		note.Embedding = vec.Slice()
	}
	return &note, nil
}
