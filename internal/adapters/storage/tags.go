package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modbot/internal/core/port"

	"github.com/jmoiron/sqlx"
)

// TagStore persists the key->content tag collection.
type TagStore struct {
	db *sqlx.DB
}

func NewTagStore(db *sqlx.DB) *TagStore {
	return &TagStore{db: db}
}

// Get returns nil without error when the tag does not exist.
func (s *TagStore) Get(ctx context.Context, name string) (*port.Tag, error) {
	var tag port.Tag
	query := "SELECT * FROM tags WHERE tag = ?"

	err := s.db.GetContext(ctx, &tag, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tag %s: %w", name, err)
	}

	return &tag, nil
}

func (s *TagStore) Set(ctx context.Context, tag *port.Tag) error {
	query := `INSERT INTO tags (tag, content, owner_id) VALUES (:tag, :content, :owner_id)
			  ON CONFLICT (tag) DO UPDATE SET content = excluded.content`

	if _, err := s.db.NamedExecContext(ctx, query, tag); err != nil {
		return fmt.Errorf("failed to set tag %s: %w", tag.Name, err)
	}

	return nil
}

func (s *TagStore) Delete(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tags WHERE tag = ?", name)
	if err != nil {
		return fmt.Errorf("failed to delete tag %s: %w", name, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected for tag %s: %w", name, err)
	}
	if rows == 0 {
		return fmt.Errorf("no tag found with name %s", name)
	}

	return nil
}

func (s *TagStore) List(ctx context.Context) ([]string, error) {
	var names []string

	if err := s.db.SelectContext(ctx, &names, "SELECT tag FROM tags ORDER BY tag ASC"); err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	return names, nil
}
