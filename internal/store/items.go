package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/erazemk/inventar/internal/model"
)

// ErrNotFound is returned when no inventory row has the requested id.
var ErrNotFound = errors.New("not found")

const itemColumns = `id, name, description, quantity, price, photo, created_at, updated_at`

// Store is the inventory repository. It owns every row of the inventory
// table and never touches the filesystem.
type Store struct {
	DB *sqlx.DB
	// Now returns the timestamp written to created_at and updated_at.
	Now func() time.Time
}

// New returns a Store backed by db.
func New(db *sqlx.DB) *Store {
	return &Store{DB: db, Now: time.Now}
}

// now is truncated to what both SQLite and PostgreSQL store losslessly.
func (s *Store) now() time.Time {
	return s.Now().UTC().Truncate(time.Microsecond)
}

// Create inserts a new item and returns the stored row.
func (s *Store) Create(ctx context.Context, item model.Item) (*model.Item, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	var id int64
	err := s.DB.QueryRowxContext(ctx, s.DB.Rebind(
		`INSERT INTO inventory (name, description, quantity, price, photo, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		item.Name, item.Description, item.Quantity, item.Price, item.Photo, now, now,
	).Scan(&id)
	if err != nil {
		return nil, errors.Wrap(err, "creating item")
	}

	return s.Get(ctx, id)
}

// Get returns the item with the given id.
func (s *Store) Get(ctx context.Context, id int64) (*model.Item, error) {
	return getItem(ctx, s.DB, id)
}

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	sqlx.QueryerContext
	Rebind(query string) string
}

func getItem(ctx context.Context, q queryer, id int64) (*model.Item, error) {
	item := &model.Item{}
	err := sqlx.GetContext(ctx, q, item, q.Rebind(`SELECT `+itemColumns+` FROM inventory WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "getting item")
	}
	return item, nil
}

// List returns every item, newest first.
func (s *Store) List(ctx context.Context) ([]model.Item, error) {
	items := []model.Item{}
	err := s.DB.SelectContext(ctx, &items,
		`SELECT `+itemColumns+` FROM inventory ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, errors.Wrap(err, "listing items")
	}
	return items, nil
}

// Count returns the number of stored items.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.DB.GetContext(ctx, &n, `SELECT COUNT(*) FROM inventory`); err != nil {
		return 0, errors.Wrap(err, "counting items")
	}
	return n, nil
}

// Update applies a partial update. Fields the patch omits keep their stored
// value; updated_at is always refreshed.
func (s *Store) Update(ctx context.Context, id int64, patch model.ItemPatch) (*model.Item, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var updated *model.Item
	err := s.tx(ctx, func(tx *sqlx.Tx) error {
		existing, err := getItem(ctx, tx, id)
		if err != nil {
			return err
		}

		merged := model.MergePatch(*existing, patch)
		merged.UpdatedAt = s.now()

		_, err = tx.ExecContext(ctx, tx.Rebind(
			`UPDATE inventory SET name = ?, description = ?, quantity = ?, price = ?, updated_at = ?
			 WHERE id = ?`),
			merged.Name, merged.Description, merged.Quantity, merged.Price, merged.UpdatedAt, id,
		)
		if err != nil {
			return errors.Wrap(err, "updating item")
		}

		updated, err = getItem(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetPhoto replaces the item's photo path. An empty path clears it.
func (s *Store) SetPhoto(ctx context.Context, id int64, photo string) (*model.Item, error) {
	var value sql.NullString
	if photo != "" {
		value = sql.NullString{String: photo, Valid: true}
	}

	result, err := s.DB.ExecContext(ctx, s.DB.Rebind(
		`UPDATE inventory SET photo = ?, updated_at = ? WHERE id = ?`),
		value, s.now(), id,
	)
	if err != nil {
		return nil, errors.Wrap(err, "setting item photo")
	}
	if err := expectRow(result); err != nil {
		return nil, err
	}

	return s.Get(ctx, id)
}

// Delete removes the item row. The caller is responsible for its photo file.
func (s *Store) Delete(ctx context.Context, id int64) error {
	result, err := s.DB.ExecContext(ctx, s.DB.Rebind(`DELETE FROM inventory WHERE id = ?`), id)
	if err != nil {
		return errors.Wrap(err, "deleting item")
	}
	return expectRow(result)
}

// Ping runs a trivial query and returns the database's current time.
func (s *Store) Ping(ctx context.Context) (string, error) {
	var now string
	if err := s.DB.QueryRowContext(ctx, `SELECT CURRENT_TIMESTAMP`).Scan(&now); err != nil {
		return "", errors.Wrap(err, "pinging database")
	}
	return now, nil
}

func expectRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "checking affected rows")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// tx runs fn inside a transaction, rolling back when fn fails.
func (s *Store) tx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting transaction")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = errors.Wrap(cerr, "committing transaction")
		}
	}()
	return fn(tx)
}
