// Package lists curates named draft lists of titles kept in the local store.
package lists

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmcdole/cinelog/internal/domain"
)

// ErrListExists is returned when creating a list whose name is taken
var ErrListExists = errors.New("list already exists")

// Service orchestrates draft list operations against the store.
type Service struct {
	store  domain.Store
	now    func() time.Time
	logger *slog.Logger
}

// NewService creates a new list service.
func NewService(store domain.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, now: time.Now, logger: logger}
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ValidationErrors{{Field: "name", Message: "is required"}}
	}
	if len(name) > 100 {
		return "", domain.ValidationErrors{{Field: "name", Message: "is too long"}}
	}
	return name, nil
}

// Create starts an empty list
func (s *Service) Create(name string) (*domain.DraftList, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	if _, ok := s.store.GetList(name); ok {
		return nil, fmt.Errorf("%w: %s", ErrListExists, name)
	}

	list := &domain.DraftList{Name: name, Entries: []domain.ListEntry{}, UpdatedAt: s.now().UTC()}
	if err := s.store.SaveList(list); err != nil {
		s.logger.Error("failed to save list", "name", name, "error", err)
		return nil, err
	}
	s.logger.Info("created list", "name", name)
	return list, nil
}

// Get returns a list by name
func (s *Service) Get(name string) (*domain.DraftList, error) {
	list, ok := s.store.GetList(strings.TrimSpace(name))
	if !ok {
		return nil, fmt.Errorf("list %q: %w", name, domain.ErrNotFound)
	}
	return list, nil
}

// GetOrCreate returns the named list, creating it empty when missing
func (s *Service) GetOrCreate(name string) (*domain.DraftList, error) {
	list, err := s.Get(name)
	if errors.Is(err, domain.ErrNotFound) {
		return s.Create(name)
	}
	return list, err
}

// Names returns all saved list names
func (s *Service) Names() []string {
	return s.store.ListNames()
}

// Add appends entry to the list. Adding a title that is already on the
// list is a no-op; added reports whether the list changed.
func (s *Service) Add(name string, entry domain.ListEntry) (list *domain.DraftList, added bool, err error) {
	list, err = s.Get(name)
	if err != nil {
		return nil, false, err
	}
	if list.IndexOf(entry.Ref) >= 0 {
		return list, false, nil
	}
	if entry.AddedAt.IsZero() {
		entry.AddedAt = s.now().UTC()
	}
	list.Entries = append(list.Entries, entry)
	if err := s.save(list); err != nil {
		return nil, false, err
	}
	return list, true, nil
}

// Remove drops ref from the list
func (s *Service) Remove(name string, ref domain.ContentRef) (*domain.DraftList, error) {
	list, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	i := list.IndexOf(ref)
	if i < 0 {
		return nil, fmt.Errorf("%s in list %q: %w", ref.Key(), name, domain.ErrNotFound)
	}
	list.Entries = append(list.Entries[:i], list.Entries[i+1:]...)
	if err := s.save(list); err != nil {
		return nil, err
	}
	return list, nil
}

// Move repositions the entry at from to index to
func (s *Service) Move(name string, from, to int) (*domain.DraftList, error) {
	list, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	n := len(list.Entries)
	if from < 0 || from >= n || to < 0 || to >= n {
		return nil, fmt.Errorf("move %d->%d out of range for %d entries", from, to, n)
	}
	if from == to {
		return list, nil
	}

	entry := list.Entries[from]
	entries := append(list.Entries[:from:from], list.Entries[from+1:]...)
	entries = append(entries[:to], append([]domain.ListEntry{entry}, entries[to:]...)...)
	list.Entries = entries

	if err := s.save(list); err != nil {
		return nil, err
	}
	return list, nil
}

// Delete removes a whole list
func (s *Service) Delete(name string) error {
	if _, err := s.Get(name); err != nil {
		return err
	}
	if err := s.store.DeleteList(strings.TrimSpace(name)); err != nil {
		s.logger.Error("failed to delete list", "name", name, "error", err)
		return err
	}
	s.logger.Info("deleted list", "name", name)
	return nil
}

func (s *Service) save(list *domain.DraftList) error {
	list.UpdatedAt = s.now().UTC()
	if err := s.store.SaveList(list); err != nil {
		s.logger.Error("failed to save list", "name", list.Name, "error", err)
		return err
	}
	return nil
}
