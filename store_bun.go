package signup

import (
	"context"
	"database/sql"
	"maps"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// BunStore implements RecordStore over a bun table. Records are attribute
// maps keyed by column name, so the store needs no model type and works
// against whatever auth table the host schema describes.
type BunStore struct {
	db       *bun.DB
	table    string
	pkColumn string
}

var _ RecordStore = (*BunStore)(nil)

// NewBunStore creates a store over the given table. pkColumn is the
// primary key used by Update.
func NewBunStore(db *bun.DB, table, pkColumn string) *BunStore {
	return &BunStore{
		db:       db,
		table:    table,
		pkColumn: pkColumn,
	}
}

// Get returns the first record whose field equals value, or (nil, nil)
// when none matches.
func (s *BunStore) Get(ctx context.Context, field, value string) (Record, error) {
	var row map[string]any

	err := s.db.NewSelect().
		TableExpr("?", bun.Ident(s.table)).
		Where("? = ?", bun.Ident(field), value).
		Limit(1).
		Scan(ctx, &row)

	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "record store select failed")
	}

	return Record(row), nil
}

// Create inserts the record and returns it. The store does not generate
// values; the caller is expected to have filled the primary key.
func (s *BunStore) Create(ctx context.Context, record Record) (Record, error) {
	values := map[string]any(record)

	_, err := s.db.NewInsert().
		Model(&values).
		TableExpr("?", bun.Ident(s.table)).
		Exec(ctx)

	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "record store insert failed")
	}

	created := Record{}
	maps.Copy(created, record)
	return created, nil
}

// Update applies the patch to the record with the given primary key as a
// single statement, so paired writes like confirmed-flag plus password
// hash land atomically.
func (s *BunStore) Update(ctx context.Context, pk any, patch Record) error {
	values := map[string]any(patch)

	res, err := s.db.NewUpdate().
		Model(&values).
		TableExpr("?", bun.Ident(s.table)).
		Where("? = ?", bun.Ident(s.pkColumn), pk).
		Exec(ctx)

	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "record store update failed")
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return goerrors.New("no record matched the primary key", goerrors.CategoryNotFound).
			WithCode(goerrors.CodeNotFound)
	}

	return nil
}
