// internal/catalog/implementation.go
package catalog

import (
	"context"
	"fmt"
	"sync"
)

// service implements the Service interface with in-process storage.
type service struct {
	mu     sync.RWMutex
	titles []Title
	copies []Copy
}

// NewService creates a new in-memory catalog store.
func NewService() Service {
	return &service{}
}

// AddTitle registers a new title and assigns the next free id.
func (s *service) AddTitle(_ context.Context, title Title) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	title.ID = s.nextTitleID()
	s.titles = append(s.titles, title)
	return title.ID, nil
}

// RemoveTitle removes a title and all of its copies. Copies go first so a
// failure can never leave an orphan copy behind.
func (s *service) RemoveTitle(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.findTitleIndex(id); !ok {
		return fmt.Errorf("remove title %d: %w", id, ErrTitleNotFound)
	}

	kept := s.copies[:0]
	for _, c := range s.copies {
		if c.TitleID != id {
			kept = append(kept, c)
		}
	}
	s.copies = kept

	idx, _ := s.findTitleIndex(id)
	s.titles = append(s.titles[:idx], s.titles[idx+1:]...)
	return nil
}

func (s *service) GetTitle(_ context.Context, id int) (Title, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx, ok := s.findTitleIndex(id); ok {
		return s.titles[idx], nil
	}
	return Title{}, fmt.Errorf("get title %d: %w", id, ErrTitleNotFound)
}

// SetTitleCategory reclassifies a title. Rentals created before the change
// keep the category they were priced with.
func (s *service) SetTitleCategory(_ context.Context, id int, category Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, ok := s.findTitleIndex(id); ok {
		s.titles[idx].Category = category
		return nil
	}
	return fmt.Errorf("set category of title %d: %w", id, ErrTitleNotFound)
}

// FindTitle matches name and year exactly, case-sensitive.
func (s *service) FindTitle(_ context.Context, name string, year int) ([]Title, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found []Title
	for _, t := range s.titles {
		if t.Name == name && t.Year == year {
			found = append(found, t)
		}
	}
	return found, nil
}

func (s *service) AllTitles(_ context.Context) ([]Title, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Title, len(s.titles))
	copy(out, s.titles)
	return out, nil
}

// TitlesOnShelf returns titles with at least one on-shelf copy, in insertion
// order and without duplicates.
func (s *service) TitlesOnShelf(_ context.Context) ([]Title, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	onShelf := make(map[int]bool)
	for _, c := range s.copies {
		if c.OnShelf {
			onShelf[c.TitleID] = true
		}
	}

	var out []Title
	for _, t := range s.titles {
		if onShelf[t.ID] {
			out = append(out, t)
		}
	}
	return out, nil
}

// AddCopy registers a new copy of an existing title. New copies start on the
// shelf.
func (s *service) AddCopy(_ context.Context, titleID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.findTitleIndex(titleID); !ok {
		return 0, fmt.Errorf("add copy of title %d: %w", titleID, ErrTitleNotFound)
	}

	c := Copy{ID: s.nextCopyID(), TitleID: titleID, OnShelf: true}
	s.copies = append(s.copies, c)
	return c.ID, nil
}

func (s *service) RemoveCopy(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range s.copies {
		if c.ID == id {
			s.copies = append(s.copies[:i], s.copies[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("remove copy %d: %w", id, ErrCopyNotFound)
}

func (s *service) GetCopy(_ context.Context, id int) (Copy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.copies {
		if c.ID == id {
			return c, nil
		}
	}
	return Copy{}, fmt.Errorf("get copy %d: %w", id, ErrCopyNotFound)
}

// CopyOnShelf returns the first on-shelf copy of the title in insertion
// order.
func (s *service) CopyOnShelf(_ context.Context, titleID int) (Copy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.copies {
		if c.TitleID == titleID && c.OnShelf {
			return c, nil
		}
	}
	return Copy{}, fmt.Errorf("copy of title %d: %w", titleID, ErrNoCopyOnShelf)
}

func (s *service) CopiesByTitle(_ context.Context, titleID int) ([]Copy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Copy
	for _, c := range s.copies {
		if c.TitleID == titleID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *service) SetCopyShelfStatus(_ context.Context, id int, onShelf bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range s.copies {
		if c.ID == id {
			s.copies[i].OnShelf = onShelf
			return nil
		}
	}
	return fmt.Errorf("set shelf status of copy %d: %w", id, ErrCopyNotFound)
}

func (s *service) findTitleIndex(id int) (int, bool) {
	for i, t := range s.titles {
		if t.ID == id {
			return i, true
		}
	}
	return 0, false
}

// Ids are assigned as max existing + 1, starting at 1.

func (s *service) nextTitleID() int {
	max := 0
	for _, t := range s.titles {
		if t.ID > max {
			max = t.ID
		}
	}
	return max + 1
}

func (s *service) nextCopyID() int {
	max := 0
	for _, c := range s.copies {
		if c.ID > max {
			max = c.ID
		}
	}
	return max + 1
}
