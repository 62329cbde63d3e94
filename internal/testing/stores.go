package testing

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/songbook/internal/models"
	"github.com/desertthunder/songbook/internal/shared"
)

// ErrStore is the failure injected into memory stores by setting their Err field.
var ErrStore = errors.New("store failed")

// Entry builds a stored-looking lyrics entry with a fixed ID.
func Entry(id, title, artist, lyrics string) models.LyricsEntry {
	e := models.NewLyricsEntry(title, artist, lyrics)
	e.SetID(id)
	return *e
}

// MemoryLyrics is an in-memory [services.LyricsStore].
type MemoryLyrics struct {
	mu      sync.Mutex
	entries []*models.LyricsEntry
	Err     error
}

// NewMemoryLyrics seeds a store with copies of entries, keeping their order.
func NewMemoryLyrics(entries ...models.LyricsEntry) *MemoryLyrics {
	m := &MemoryLyrics{}
	for i := range entries {
		e := entries[i]
		if e.ID() == "" {
			e.SetID(shared.GenerateID())
		}
		e.SetSequence(i + 1)
		m.entries = append(m.entries, &e)
	}
	return m
}

func (m *MemoryLyrics) Create(e *models.LyricsEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if err := e.Validate(); err != nil {
		return err
	}
	e.SetID(shared.GenerateID())
	e.SetSequence(len(m.entries) + 1)
	cp := *e
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *MemoryLyrics) Get(id string) (*models.LyricsEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	e, err := m.find(id)
	if err != nil {
		return nil, err
	}
	cp := *e
	return &cp, nil
}

func (m *MemoryLyrics) Update(e *models.LyricsEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if err := e.Validate(); err != nil {
		return err
	}
	stored, err := m.find(e.ID())
	if err != nil {
		return err
	}
	*stored = *e
	stored.SetUpdatedAt(time.Now().UTC())
	return nil
}

func (m *MemoryLyrics) SetStatus(id string, status models.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, err := models.ParseStatus(string(status)); err != nil {
		return err
	}
	e, err := m.find(id)
	if err != nil {
		return err
	}
	e.Status = status
	return nil
}

func (m *MemoryLyrics) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	e, err := m.find(id)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	e.SetDeletedAt(&now)
	return nil
}

func (m *MemoryLyrics) List(criteria map[string]any) ([]*models.LyricsEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	status := fmt.Sprint(criteria["status"])
	artist, _ := criteria["artist"].(string)

	var out []*models.LyricsEntry
	for _, e := range m.entries {
		if e.IsDeleted() {
			continue
		}
		if criteria["status"] != nil && status != "" && string(e.Status) != status {
			continue
		}
		if artist != "" && !strings.EqualFold(e.Artist, artist) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryLyrics) All() ([]models.LyricsEntry, error) {
	live, err := m.List(map[string]any{})
	if err != nil {
		return nil, err
	}
	out := make([]models.LyricsEntry, len(live))
	for i, e := range live {
		out[i] = *e
	}
	return out, nil
}

func (m *MemoryLyrics) find(id string) (*models.LyricsEntry, error) {
	for _, e := range m.entries {
		if e.ID() == id && !e.IsDeleted() {
			return e, nil
		}
	}
	return nil, fmt.Errorf("lyrics %s: %w", id, shared.ErrNotFound)
}

// slugged is satisfied by artists and posts.
type slugged interface {
	models.Model
	SetID(string)
	SetSequence(int)
	SetDeletedAt(*time.Time)
	IsDeleted() bool
}

// memory is a generic in-memory repository keyed by ID.
type memory[T slugged] struct {
	mu    sync.Mutex
	items []T
	slug  func(T) string
	clone func(T) T
	Err   error
}

func (m *memory[T]) Create(item T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if err := item.Validate(); err != nil {
		return err
	}
	if m.slug != nil {
		for _, existing := range m.items {
			if !existing.IsDeleted() && m.slug(existing) == m.slug(item) {
				return fmt.Errorf("slug %s: %w", m.slug(item), shared.ErrConflict)
			}
		}
	}
	item.SetID(shared.GenerateID())
	item.SetSequence(len(m.items) + 1)
	m.items = append(m.items, m.clone(item))
	return nil
}

func (m *memory[T]) Get(id string) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero T
	if m.Err != nil {
		return zero, m.Err
	}
	for _, item := range m.items {
		if item.ID() == id && !item.IsDeleted() {
			return m.clone(item), nil
		}
	}
	return zero, fmt.Errorf("%s: %w", id, shared.ErrNotFound)
}

func (m *memory[T]) GetBySlug(slug string) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero T
	if m.Err != nil {
		return zero, m.Err
	}
	for _, item := range m.items {
		if m.slug(item) == slug && !item.IsDeleted() {
			return m.clone(item), nil
		}
	}
	return zero, fmt.Errorf("%s: %w", slug, shared.ErrNotFound)
}

func (m *memory[T]) Update(item T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if err := item.Validate(); err != nil {
		return err
	}
	for i, existing := range m.items {
		if existing.ID() == item.ID() && !existing.IsDeleted() {
			m.items[i] = m.clone(item)
			return nil
		}
	}
	return fmt.Errorf("%s: %w", item.ID(), shared.ErrNotFound)
}

func (m *memory[T]) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for _, item := range m.items {
		if item.ID() == id && !item.IsDeleted() {
			now := time.Now().UTC()
			item.SetDeletedAt(&now)
			return nil
		}
	}
	return fmt.Errorf("%s: %w", id, shared.ErrNotFound)
}

func (m *memory[T]) live(keep func(T) bool) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []T
	for _, item := range m.items {
		if !item.IsDeleted() && keep(item) {
			out = append(out, m.clone(item))
		}
	}
	return out, nil
}

// MemoryArtists is an in-memory [services.ArtistStore].
type MemoryArtists struct{ memory[*models.Artist] }

func NewMemoryArtists() *MemoryArtists {
	return &MemoryArtists{memory[*models.Artist]{
		slug:  func(a *models.Artist) string { return a.Slug },
		clone: func(a *models.Artist) *models.Artist { cp := *a; return &cp },
	}}
}

func (m *MemoryArtists) List(criteria map[string]any) ([]*models.Artist, error) {
	prefix, _ := criteria["name"].(string)
	return m.live(func(a *models.Artist) bool {
		return strings.HasPrefix(strings.ToLower(a.Name), strings.ToLower(prefix))
	})
}

// MemoryPosts is an in-memory [services.PostStore].
type MemoryPosts struct{ memory[*models.Post] }

func NewMemoryPosts() *MemoryPosts {
	return &MemoryPosts{memory[*models.Post]{
		slug:  func(p *models.Post) string { return p.Slug },
		clone: func(p *models.Post) *models.Post { cp := *p; return &cp },
	}}
}

// List returns posts newest first.
func (m *MemoryPosts) List(criteria map[string]any) ([]*models.Post, error) {
	published, filter := criteria["published"].(bool)
	posts, err := m.live(func(p *models.Post) bool { return !filter || p.Published == published })
	if err != nil {
		return nil, err
	}
	slices.Reverse(posts)
	return posts, nil
}

// MemoryStations is an in-memory [services.StationStore].
type MemoryStations struct{ memory[*models.Station] }

func NewMemoryStations() *MemoryStations {
	return &MemoryStations{memory[*models.Station]{
		clone: func(s *models.Station) *models.Station { cp := *s; return &cp },
	}}
}

func (m *MemoryStations) List(criteria map[string]any) ([]*models.Station, error) {
	genre, _ := criteria["genre"].(string)
	country, _ := criteria["country"].(string)
	return m.live(func(s *models.Station) bool {
		return (genre == "" || strings.EqualFold(s.Genre, genre)) &&
			(country == "" || strings.EqualFold(s.Country, country))
	})
}
