package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/sakif/blog/internal/database"
	"github.com/sakif/blog/internal/model"
)

// newTestDB returns a migrated in-memory SQLite database that is closed
// when the test ends.
func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.OpenAndMigrate(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// fixClock makes every store timestamp ts until the test ends.
func fixClock(t *testing.T, ts time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return ts }
	t.Cleanup(func() { now = prev })
}

// tickClock makes each store timestamp one second later than the previous.
func tickClock(t *testing.T) {
	t.Helper()
	prev := now
	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now = func() time.Time {
		ts = ts.Add(time.Second)
		return ts
	}
	t.Cleanup(func() { now = prev })
}

func createUser(t *testing.T, db *sqlx.DB, name string) *model.User {
	t.Helper()
	u := &model.User{Name: name, PasswordHash: "salt,hash"}
	require.NoError(t, NewUserStore(db).Create(context.Background(), u))
	return u
}

func createPost(t *testing.T, db *sqlx.DB, author *model.User, subject string) *model.Post {
	t.Helper()
	p := &model.Post{Subject: subject, Content: "content of " + subject, AuthorID: author.ID}
	require.NoError(t, NewPostStore(db).Create(context.Background(), p))
	return p
}
