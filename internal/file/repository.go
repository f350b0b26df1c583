package file

import (
	"context"
	"fmt"
	"time"

	"github.com/abduss/filestore/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	repoTimeout = 5 * time.Second
	fileColumns = "id, user_id, name, path, size, is_downloadable, created_at"
)

// Repository provides access to file metadata storage. The unique index on
// files.path is the only arbiter of key collisions.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a new file repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (File, error) {
	var f File
	err := row.Scan(&f.ID, &f.UserID, &f.Name, &f.Path, &f.Size, &f.IsDownloadable, &f.CreatedAt)
	return f, err
}

// Create inserts metadata for a new file.
func (r *Repository) Create(ctx context.Context, nf NewFile) (File, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO files (user_id, name, path, size)
VALUES ($1, $2, $3, $4)
RETURNING ` + fileColumns + `;`

	stored, err := scanFile(r.pool.QueryRow(ctx, query, nf.UserID, nf.Name, nf.Path, nf.Size))
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return File{}, ErrDuplicatePath
		}
		return File{}, fmt.Errorf("create file metadata: %w", err)
	}
	return stored, nil
}

// GetByID fetches a record by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (File, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1;`

	f, err := scanFile(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if storage.IsNoRows(err) {
			return File{}, ErrFileNotFound
		}
		return File{}, fmt.Errorf("get file by id: %w", err)
	}
	return f, nil
}

// GetByPath fetches a record by canonical key.
func (r *Repository) GetByPath(ctx context.Context, key string) (File, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `SELECT ` + fileColumns + ` FROM files WHERE path = $1;`

	f, err := scanFile(r.pool.QueryRow(ctx, query, key))
	if err != nil {
		if storage.IsNoRows(err) {
			return File{}, ErrFileNotFound
		}
		return File{}, fmt.Errorf("get file by path: %w", err)
	}
	return f, nil
}

// ListByUser returns one page of the user's files in insertion order.
func (r *Repository) ListByUser(ctx context.Context, userID int64, offset, limit int) ([]File, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT ` + fileColumns + `
FROM files
WHERE user_id = $1
ORDER BY id ASC
OFFSET $2
LIMIT $3;`

	rows, err := r.pool.Query(ctx, query, userID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	files := make([]File, 0)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file metadata: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	return files, nil
}

// Update applies the non-nil fields of patch and returns the new record.
func (r *Repository) Update(ctx context.Context, id int64, patch Patch) (File, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
UPDATE files
SET name            = COALESCE($2, name),
    size            = COALESCE($3, size),
    is_downloadable = COALESCE($4, is_downloadable)
WHERE id = $1
RETURNING ` + fileColumns + `;`

	f, err := scanFile(r.pool.QueryRow(ctx, query, id, patch.Name, patch.Size, patch.IsDownloadable))
	if err != nil {
		if storage.IsNoRows(err) {
			return File{}, ErrFileNotFound
		}
		return File{}, fmt.Errorf("update file metadata: %w", err)
	}
	return f, nil
}

// Delete removes metadata and returns the deleted record.
func (r *Repository) Delete(ctx context.Context, id int64) (File, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `DELETE FROM files WHERE id = $1 RETURNING ` + fileColumns + `;`

	f, err := scanFile(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if storage.IsNoRows(err) {
			return File{}, ErrFileNotFound
		}
		return File{}, fmt.Errorf("delete file metadata: %w", err)
	}
	return f, nil
}
