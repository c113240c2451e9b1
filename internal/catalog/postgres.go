// internal/catalog/postgres.go
package catalog

import (
	"context"
	"database/sql"
	"fmt"
)

// pgService is the durable counterpart of the in-memory store. The schema
// mirrors the domain model one to one:
//
//	CREATE TABLE titles (id INT PRIMARY KEY, name TEXT NOT NULL,
//	    year INT NOT NULL, category TEXT NOT NULL);
//	CREATE TABLE copies (id INT PRIMARY KEY,
//	    title_id INT NOT NULL REFERENCES titles (id),
//	    on_shelf BOOLEAN NOT NULL);
//
// Ids stay monotonic because inserts compute max+1; the single-writer
// discipline of the store façade makes that safe.
type pgService struct {
	db *sql.DB
}

// NewPostgresService creates a catalog store backed by PostgreSQL.
func NewPostgresService(db *sql.DB) Service {
	return &pgService{db: db}
}

func (s *pgService) AddTitle(ctx context.Context, title Title) (int, error) {
	var id int
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO titles (id, name, year, category)
		VALUES ((SELECT COALESCE(MAX(id), 0) + 1 FROM titles), $1, $2, $3)
		RETURNING id
	`, title.Name, title.Year, string(title.Category)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert title: %w", err)
	}
	return id, nil
}

func (s *pgService) RemoveTitle(ctx context.Context, id int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Copies cascade first so no orphan copy can survive the title.
	if _, err = tx.ExecContext(ctx, `DELETE FROM copies WHERE title_id = $1`, id); err != nil {
		return fmt.Errorf("delete copies of title %d: %w", id, err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM titles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete title %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("remove title %d: %w", id, ErrTitleNotFound)
	}

	return tx.Commit()
}

func (s *pgService) GetTitle(ctx context.Context, id int) (Title, error) {
	t := Title{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, year, category FROM titles WHERE id = $1
	`, id).Scan(&t.ID, &t.Name, &t.Year, &t.Category)
	if err == sql.ErrNoRows {
		return Title{}, fmt.Errorf("get title %d: %w", id, ErrTitleNotFound)
	}
	if err != nil {
		return Title{}, fmt.Errorf("get title %d: %w", id, err)
	}
	return t, nil
}

func (s *pgService) SetTitleCategory(ctx context.Context, id int, category Category) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE titles SET category = $1 WHERE id = $2
	`, string(category), id)
	if err != nil {
		return fmt.Errorf("set category of title %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set category of title %d: %w", id, ErrTitleNotFound)
	}
	return nil
}

func (s *pgService) FindTitle(ctx context.Context, name string, year int) ([]Title, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, year, category FROM titles
		WHERE name = $1 AND year = $2
		ORDER BY id
	`, name, year)
	if err != nil {
		return nil, fmt.Errorf("find title: %w", err)
	}
	defer rows.Close()
	return scanTitles(rows)
}

func (s *pgService) AllTitles(ctx context.Context) ([]Title, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, year, category FROM titles ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list titles: %w", err)
	}
	defer rows.Close()
	return scanTitles(rows)
}

func (s *pgService) TitlesOnShelf(ctx context.Context) ([]Title, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT t.id, t.name, t.year, t.category
		FROM titles t
		JOIN copies c ON c.title_id = t.id AND c.on_shelf
		ORDER BY t.id
	`)
	if err != nil {
		return nil, fmt.Errorf("list titles on shelf: %w", err)
	}
	defer rows.Close()
	return scanTitles(rows)
}

func (s *pgService) AddCopy(ctx context.Context, titleID int) (int, error) {
	if _, err := s.GetTitle(ctx, titleID); err != nil {
		return 0, err
	}

	var id int
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO copies (id, title_id, on_shelf)
		VALUES ((SELECT COALESCE(MAX(id), 0) + 1 FROM copies), $1, TRUE)
		RETURNING id
	`, titleID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert copy: %w", err)
	}
	return id, nil
}

func (s *pgService) RemoveCopy(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM copies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete copy %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("remove copy %d: %w", id, ErrCopyNotFound)
	}
	return nil
}

func (s *pgService) GetCopy(ctx context.Context, id int) (Copy, error) {
	c := Copy{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title_id, on_shelf FROM copies WHERE id = $1
	`, id).Scan(&c.ID, &c.TitleID, &c.OnShelf)
	if err == sql.ErrNoRows {
		return Copy{}, fmt.Errorf("get copy %d: %w", id, ErrCopyNotFound)
	}
	if err != nil {
		return Copy{}, fmt.Errorf("get copy %d: %w", id, err)
	}
	return c, nil
}

func (s *pgService) CopyOnShelf(ctx context.Context, titleID int) (Copy, error) {
	c := Copy{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title_id, on_shelf FROM copies
		WHERE title_id = $1 AND on_shelf
		ORDER BY id
		LIMIT 1
	`, titleID).Scan(&c.ID, &c.TitleID, &c.OnShelf)
	if err == sql.ErrNoRows {
		return Copy{}, fmt.Errorf("copy of title %d: %w", titleID, ErrNoCopyOnShelf)
	}
	if err != nil {
		return Copy{}, fmt.Errorf("copy of title %d: %w", titleID, err)
	}
	return c, nil
}

func (s *pgService) CopiesByTitle(ctx context.Context, titleID int) ([]Copy, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title_id, on_shelf FROM copies WHERE title_id = $1 ORDER BY id
	`, titleID)
	if err != nil {
		return nil, fmt.Errorf("list copies of title %d: %w", titleID, err)
	}
	defer rows.Close()

	var out []Copy
	for rows.Next() {
		c := Copy{}
		if err := rows.Scan(&c.ID, &c.TitleID, &c.OnShelf); err != nil {
			return nil, fmt.Errorf("scan copy: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *pgService) SetCopyShelfStatus(ctx context.Context, id int, onShelf bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE copies SET on_shelf = $1 WHERE id = $2
	`, onShelf, id)
	if err != nil {
		return fmt.Errorf("set shelf status of copy %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set shelf status of copy %d: %w", id, ErrCopyNotFound)
	}
	return nil
}

func scanTitles(rows *sql.Rows) ([]Title, error) {
	var out []Title
	for rows.Next() {
		t := Title{}
		if err := rows.Scan(&t.ID, &t.Name, &t.Year, &t.Category); err != nil {
			return nil, fmt.Errorf("scan title: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
