// internal/catalog/postgres_test.go
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCatalogDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getEnv("PGHOST", "localhost"),
		getEnv("PGPORT", "5432"),
		getEnv("PGUSER", "postgres"),
		getEnv("PGPASSWORD", "postgres"),
		getEnv("PGDATABASE", "videostore_test"),
	)

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("PostgreSQL not available: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS titles (
			id INT PRIMARY KEY,
			name TEXT NOT NULL,
			year INT NOT NULL,
			category TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS copies (
			id INT PRIMARY KEY,
			title_id INT NOT NULL REFERENCES titles (id),
			on_shelf BOOLEAN NOT NULL
		);
	`)
	require.NoError(t, err)

	_, err = db.Exec(`TRUNCATE copies, titles`)
	require.NoError(t, err)
	return db
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestPostgresTitleLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewPostgresService(setupCatalogDB(t))

	id, err := svc.AddTitle(ctx, Title{Name: "Out of Africa", Year: 1985, Category: CategoryOld})
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	title, err := svc.GetTitle(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, Title{ID: id, Name: "Out of Africa", Year: 1985, Category: CategoryOld}, title)

	require.NoError(t, svc.SetTitleCategory(ctx, id, CategoryRegular))
	title, err = svc.GetTitle(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, CategoryRegular, title.Category)

	found, err := svc.FindTitle(ctx, "Out of Africa", 1985)
	require.NoError(t, err)
	require.Len(t, found, 1)

	found, err = svc.FindTitle(ctx, "out of africa", 1985)
	require.NoError(t, err)
	assert.Empty(t, found)

	require.NoError(t, svc.RemoveTitle(ctx, id))
	_, err = svc.GetTitle(ctx, id)
	assert.ErrorIs(t, err, ErrTitleNotFound)
	require.ErrorIs(t, svc.RemoveTitle(ctx, id), ErrTitleNotFound)
}

func TestPostgresCopyLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewPostgresService(setupCatalogDB(t))

	titleID, err := svc.AddTitle(ctx, Title{Name: "District 9", Year: 2009, Category: CategoryRegular})
	require.NoError(t, err)

	first, err := svc.AddCopy(ctx, titleID)
	require.NoError(t, err)
	second, err := svc.AddCopy(ctx, titleID)
	require.NoError(t, err)

	c, err := svc.CopyOnShelf(ctx, titleID)
	require.NoError(t, err)
	assert.Equal(t, first, c.ID)

	require.NoError(t, svc.SetCopyShelfStatus(ctx, first, false))
	c, err = svc.CopyOnShelf(ctx, titleID)
	require.NoError(t, err)
	assert.Equal(t, second, c.ID)

	onShelf, err := svc.TitlesOnShelf(ctx)
	require.NoError(t, err)
	require.Len(t, onShelf, 1)

	require.NoError(t, svc.SetCopyShelfStatus(ctx, second, false))
	_, err = svc.CopyOnShelf(ctx, titleID)
	assert.ErrorIs(t, err, ErrNoCopyOnShelf)

	onShelf, err = svc.TitlesOnShelf(ctx)
	require.NoError(t, err)
	assert.Empty(t, onShelf)

	copies, err := svc.CopiesByTitle(ctx, titleID)
	require.NoError(t, err)
	assert.Len(t, copies, 2)

	// Removing the title takes both copies with it.
	require.NoError(t, svc.RemoveTitle(ctx, titleID))
	copies, err = svc.CopiesByTitle(ctx, titleID)
	require.NoError(t, err)
	assert.Empty(t, copies)
}

func TestPostgresAddCopyUnknownTitle(t *testing.T) {
	svc := NewPostgresService(setupCatalogDB(t))

	_, err := svc.AddCopy(context.Background(), 42)
	require.ErrorIs(t, err, ErrTitleNotFound)
}
