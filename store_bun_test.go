package signup_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/goliatone/go-signup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newBunStore(t *testing.T) *signup.BunStore {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	// a pooled connection would get its own empty in-memory database
	sqldb.SetMaxOpenConns(1)
	t.Cleanup(func() { sqldb.Close() })

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = db.ExecContext(context.Background(), `
		CREATE TABLE users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT,
			email_confirmed BOOLEAN,
			role TEXT
		)`)
	require.NoError(t, err)

	return signup.NewBunStore(db, "users", "id")
}

func TestBunStore(t *testing.T) {
	ctx := context.Background()

	t.Run("get returns nil for a missing record", func(t *testing.T) {
		store := newBunStore(t)

		record, err := store.Get(ctx, "email", "nobody@example.com")
		require.NoError(t, err)
		assert.Nil(t, record)
	})

	t.Run("create then get round trips", func(t *testing.T) {
		store := newBunStore(t)

		created, err := store.Create(ctx, signup.Record{
			"id":              "u1",
			"email":           "user@example.com",
			"password_hash":   "hash",
			"email_confirmed": false,
			"role":            "member",
		})
		require.NoError(t, err)
		assert.Equal(t, "u1", created["id"])

		record, err := store.Get(ctx, "email", "user@example.com")
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.Equal(t, "u1", record["id"])
		assert.Equal(t, "member", record["role"])
	})

	t.Run("duplicate email violates the unique constraint", func(t *testing.T) {
		store := newBunStore(t)

		_, err := store.Create(ctx, signup.Record{"id": "u1", "email": "dup@example.com"})
		require.NoError(t, err)

		_, err = store.Create(ctx, signup.Record{"id": "u2", "email": "dup@example.com"})
		require.Error(t, err, "the store is the uniqueness backstop for the signup race")
	})

	t.Run("update patches the matched record", func(t *testing.T) {
		store := newBunStore(t)

		_, err := store.Create(ctx, signup.Record{
			"id": "u1", "email": "user@example.com", "email_confirmed": false, "password_hash": "",
		})
		require.NoError(t, err)

		err = store.Update(ctx, "u1", signup.Record{
			"email_confirmed": true,
			"password_hash":   "new-hash",
		})
		require.NoError(t, err)

		record, err := store.Get(ctx, "id", "u1")
		require.NoError(t, err)
		assert.Equal(t, "new-hash", record["password_hash"])
		assert.NotEqual(t, int64(0), record["email_confirmed"])
	})

	t.Run("update of a missing record errors", func(t *testing.T) {
		store := newBunStore(t)

		err := store.Update(ctx, "ghost", signup.Record{"role": "admin"})
		require.Error(t, err)
	})
}
