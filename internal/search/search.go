// Package search runs attribute queries over tools and profiles. Tool
// queries come back as lazy iterators that page through the store in
// stable (code, id) order, so repeated runs over unchanged data yield
// identical sequences.
package search

import (
	"iter"

	"github.com/kalmbach/toolrack/internal/storage"
)

const pageSize = 100

// Service queries tools and profiles.
type Service struct {
	store *storage.Store
}

// NewService creates a search service.
func NewService(store *storage.Store) *Service {
	return &Service{store: store}
}

// Tools returns a restartable iterator over tools matching the filter.
// Each range over the sequence issues fresh queries; iteration errors
// surface through the second value and terminate the walk.
func (s *Service) Tools(f storage.ToolFilter) iter.Seq2[storage.Tool, error] {
	return func(yield func(storage.Tool, error) bool) {
		after := ""
		for {
			page, err := s.store.ListToolsPage(f, after, pageSize)
			if err != nil {
				yield(storage.Tool{}, err)
				return
			}
			for _, t := range page {
				if !yield(t, nil) {
					return
				}
			}
			if len(page) < pageSize {
				return
			}
			after = page[len(page)-1].Code
		}
	}
}

// CollectTools drains a tool query into a slice.
func (s *Service) CollectTools(f storage.ToolFilter) ([]storage.Tool, error) {
	var out []storage.Tool
	for t, err := range s.Tools(f) {
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Profiles returns profiles whose name contains the query substring,
// case-insensitively, ordered by name. An empty query lists everything.
func (s *Service) Profiles(query string) ([]storage.Profile, error) {
	if query == "" {
		return s.store.ListProfiles()
	}
	return s.store.SearchProfilesByName(query)
}

// Drawings returns profiles whose attached drawing contains the query in
// its extracted text.
func (s *Service) Drawings(query string) ([]storage.Profile, error) {
	return s.store.SearchDrawings(query)
}
