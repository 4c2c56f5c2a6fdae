package norms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/normacomex/normabot/pkg/kv"
)

// ErrNotFound is returned for an unknown norm ID.
var ErrNotFound = errors.New("norms: not found")

var (
	prefixNorm = kv.Key{"norm"}
	keyOrder   = kv.Key{"catalog", "order"}
)

// Store keeps the catalog in a kv.Store. Records are msgpack-encoded under
// norm:{id}; catalog:order keeps the publication order.
type Store struct {
	kv kv.Store
}

// NewStore wraps s. Call Seed or EnsureSeeded before reading.
func NewStore(s kv.Store) *Store {
	return &Store{kv: s}
}

// Seed replaces the catalog with list.
func (s *Store) Seed(ctx context.Context, list []Norm) error {
	for _, old := range s.ids(ctx) {
		if err := s.kv.Delete(ctx, prefixNorm.Append(old)); err != nil {
			return fmt.Errorf("norms: seed: %w", err)
		}
	}
	for i := range list {
		if err := kv.SetObject(ctx, s.kv, prefixNorm.Append(list[i].ID), &list[i]); err != nil {
			return fmt.Errorf("norms: seed: %w", err)
		}
	}
	ids := make([]string, len(list))
	for i, n := range list {
		ids[i] = n.ID
	}
	if err := kv.SetObject(ctx, s.kv, keyOrder, ids); err != nil {
		return fmt.Errorf("norms: seed: %w", err)
	}
	return nil
}

// EnsureSeeded loads the embedded catalog when the store is empty.
func (s *Store) EnsureSeeded(ctx context.Context) error {
	_, err := s.kv.Get(ctx, keyOrder)
	if err == nil {
		return nil
	}
	if !errors.Is(err, kv.ErrNotFound) {
		return fmt.Errorf("norms: %w", err)
	}
	list, err := Catalog()
	if err != nil {
		return err
	}
	return s.Seed(ctx, list)
}

func (s *Store) ids(ctx context.Context) []string {
	var ids []string
	if err := kv.GetObject(ctx, s.kv, keyOrder, &ids); err != nil {
		return nil
	}
	return ids
}

// List returns every norm in publication order.
func (s *Store) List(ctx context.Context) ([]Norm, error) {
	var ids []string
	if err := kv.GetObject(ctx, s.kv, keyOrder, &ids); err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("norms: list: %w", err)
	}
	out := make([]Norm, 0, len(ids))
	for _, id := range ids {
		n, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, nil
}

// Get returns the norm with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*Norm, error) {
	var n Norm
	if err := kv.GetObject(ctx, s.kv, prefixNorm.Append(id), &n); err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("norms: get %s: %w", id, err)
	}
	return &n, nil
}

// Query filters the catalog. Text matches case-insensitively anywhere in
// the title, number, summary, type, issuing authority or full text.
// Category "" or CategoryAll matches every category.
type Query struct {
	Text     string
	Category Category
}

// Match reports whether n satisfies q.
func (q Query) Match(n *Norm) bool {
	if q.Category != "" && q.Category != CategoryAll && n.Category != q.Category {
		return false
	}
	if q.Text == "" {
		return true
	}
	needle := strings.ToLower(q.Text)
	for _, field := range []string{n.Title, n.Number, n.Summary, n.Type, n.IssuingAuthority, n.FullText} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// Filter returns the norms matching q, keeping their order.
func Filter(list []Norm, q Query) []Norm {
	var out []Norm
	for i := range list {
		if q.Match(&list[i]) {
			out = append(out, list[i])
		}
	}
	return out
}

// Search returns the catalog entries matching q.
func (s *Store) Search(ctx context.Context, q Query) ([]Norm, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(list, q), nil
}

// Notifications returns the norms flagged as new.
func (s *Store) Notifications(ctx context.Context) ([]Norm, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []Norm
	for _, n := range list {
		if n.IsNew {
			out = append(out, n)
		}
	}
	return out, nil
}

// RecentCount is the number of entries in Stats.Recent.
const RecentCount = 3

// Stats summarizes the catalog for the dashboard.
type Stats struct {
	Total      int              `json:"total" yaml:"total"`
	New        int              `json:"new" yaml:"new"`
	Today      int              `json:"today" yaml:"today"`
	ByCategory map[Category]int `json:"by_category" yaml:"by_category"`
	Recent     []Norm           `json:"recent" yaml:"recent"`
}

// Stats computes catalog statistics. Recent holds the first entries in
// publication order.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	st := &Stats{Total: len(list), ByCategory: make(map[Category]int, len(Categories))}
	for _, c := range Categories {
		st.ByCategory[c] = 0
	}
	for i := range list {
		n := &list[i]
		st.ByCategory[n.Category]++
		if n.IsNew {
			st.New++
		}
		if n.PublishedToday() {
			st.Today++
		}
	}
	st.Recent = recent(list, RecentCount)
	return st, nil
}

// Recent returns the first n norms of the catalog without their full texts.
func (s *Store) Recent(ctx context.Context, n int) ([]Norm, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return recent(list, n), nil
}

func recent(list []Norm, n int) []Norm {
	head := list[:max(0, min(n, len(list)))]
	out := make([]Norm, len(head))
	for i, nm := range head {
		nm.FullText = ""
		out[i] = nm
	}
	return out
}
