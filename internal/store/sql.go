package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/amavi/catalogo/internal/db"
	"github.com/amavi/catalogo/internal/model"
)

const itemColumns = `id, nome, valor, disponibilidade, tipo, tamanho, imagem`

// SQLStore keeps items in the pecas table.
type SQLStore struct {
	db *db.DB
}

// NewSQLStore returns a store over an opened and migrated database.
func NewSQLStore(database *db.DB) *SQLStore {
	return &SQLStore{db: database}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.Item, error) {
	item := &model.Item{}
	var size sql.NullString
	if err := row.Scan(&item.ID, &item.Name, &item.Price, &item.Availability, &item.Type, &size, &item.ImageRef); err != nil {
		return nil, err
	}
	if size.Valid {
		s := size.String
		item.Size = &s
	}
	return item, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// isUniqueViolation reports whether err is a unique constraint failure
// from either supported driver.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// escapeLike escapes LIKE wildcards so the pattern matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// List returns the items matching filter ordered by ID.
func (s *SQLStore) List(ctx context.Context, filter model.Filter) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM pecas`
	var conds []string
	var args []any

	if filter.Type != "" {
		conds = append(conds, `tipo = ?`)
		args = append(args, filter.Type)
	}
	if filter.Name != "" {
		conds = append(conds, `LOWER(nome) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+strings.ToLower(escapeLike(filter.Name))+"%")
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// Get returns an item by ID.
func (s *SQLStore) Get(ctx context.Context, id int64) (*model.Item, error) {
	return s.getWith(ctx, s.db.DB, id)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLStore) getWith(ctx context.Context, q queryRower, id int64) (*model.Item, error) {
	item, err := scanItem(q.QueryRowContext(ctx,
		s.db.Rebind(`SELECT `+itemColumns+` FROM pecas WHERE id = ?`), id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// FindByName returns the item with exactly this name.
func (s *SQLStore) FindByName(ctx context.Context, name string) (*model.Item, error) {
	item, err := scanItem(s.db.QueryRowContext(ctx,
		s.db.Rebind(`SELECT `+itemColumns+` FROM pecas WHERE nome = ?`), name,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding item by name: %w", err)
	}
	return item, nil
}

// Create inserts a new item. The UNIQUE index on nome rejects duplicates.
func (s *SQLStore) Create(ctx context.Context, item model.Item) (*model.Item, error) {
	if err := checkRequired(item); err != nil {
		return nil, err
	}
	item = prepareNew(item)

	err := s.db.QueryRowContext(ctx,
		s.db.Rebind(`INSERT INTO pecas (nome, valor, disponibilidade, tipo, tamanho, imagem)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`),
		item.Name, item.Price, item.Availability, item.Type, nullString(item.Size), item.ImageRef,
	).Scan(&item.ID)
	if isUniqueViolation(err) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}
	return &item, nil
}

// CreateIfAbsent inserts item unless an item with the same name exists.
// It returns the stored item and whether it was created.
func (s *SQLStore) CreateIfAbsent(ctx context.Context, item model.Item) (*model.Item, bool, error) {
	if err := checkRequired(item); err != nil {
		return nil, false, err
	}
	item = prepareNew(item)

	err := s.db.QueryRowContext(ctx,
		s.db.Rebind(`INSERT INTO pecas (nome, valor, disponibilidade, tipo, tamanho, imagem)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (nome) DO NOTHING
		 RETURNING id`),
		item.Name, item.Price, item.Availability, item.Type, nullString(item.Size), item.ImageRef,
	).Scan(&item.ID)
	if errors.Is(err, sql.ErrNoRows) {
		existing, err := s.FindByName(ctx, item.Name)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("creating item: %w", err)
	}
	return &item, true, nil
}

// Update applies patch to the item with the given ID inside a transaction.
func (s *SQLStore) Update(ctx context.Context, id int64, patch model.ItemPatch) (*model.Item, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := s.getWith(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	updated := patch.Apply(*current)

	_, err = tx.ExecContext(ctx,
		s.db.Rebind(`UPDATE pecas SET nome = ?, valor = ?, disponibilidade = ?, tipo = ?, tamanho = ?, imagem = ?,
		 updated_at = CURRENT_TIMESTAMP WHERE id = ?`),
		updated.Name, updated.Price, updated.Availability, updated.Type, nullString(updated.Size), updated.ImageRef, id,
	)
	if isUniqueViolation(err) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("updating item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item update: %w", err)
	}
	return &updated, nil
}

// Delete removes the item with the given ID.
func (s *SQLStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM pecas WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking deleted rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
