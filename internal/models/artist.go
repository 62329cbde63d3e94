package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/songbook/internal/shared"
)

// Artist is a biography page in the library.
type Artist struct {
	Base
	Name     string
	Slug     string
	Bio      string
	ImageURL string
}

// NewArtist creates an artist whose slug is derived from its name.
func NewArtist(name, bio string) *Artist {
	name = strings.TrimSpace(name)
	return &Artist{Base: NewBase(), Name: name, Slug: shared.Slugify(name), Bio: bio}
}

func (a *Artist) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("%w: artist name is required", shared.ErrInvalidInput)
	}
	if a.Slug == "" {
		return fmt.Errorf("%w: artist slug is empty for %q", shared.ErrInvalidInput, a.Name)
	}
	return nil
}

// MarshalJSON implements [json.Marshaler].
func (a Artist) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Slug      string    `json:"slug"`
		Bio       string    `json:"bio"`
		ImageURL  string    `json:"image_url,omitempty"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}{a.id, a.Name, a.Slug, a.Bio, a.ImageURL, a.createdAt, a.updatedAt})
}
