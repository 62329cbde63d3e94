package services

import (
	"github.com/desertthunder/songbook/internal/models"
)

// LyricsStore persists lyrics submissions. [repositories.LyricsRepository] implements it.
type LyricsStore interface {
	models.Repository[*models.LyricsEntry]

	// SetStatus moves an entry to a new moderation status.
	SetStatus(id string, status models.Status) error

	// All returns every live entry regardless of status, in sequence order.
	All() ([]models.LyricsEntry, error)
}

// ArtistStore persists artist bios.
type ArtistStore interface {
	models.Repository[*models.Artist]
	GetBySlug(slug string) (*models.Artist, error)
}

// PostStore persists blog posts.
type PostStore interface {
	models.Repository[*models.Post]
	GetBySlug(slug string) (*models.Post, error)
}

// StationStore persists the radio directory.
type StationStore interface {
	models.Repository[*models.Station]
}

// SubmitLyrics is a public lyrics submission.
type SubmitLyrics struct {
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Lyrics      string `json:"lyrics"`
	YouTubeURL  string `json:"youtube_url,omitempty"`
	SubmittedBy string `json:"submitted_by,omitempty"`
}

// LyricsUpdate holds admin edits. Nil fields are left unchanged.
type LyricsUpdate struct {
	Title      *string `json:"title,omitempty"`
	Artist     *string `json:"artist,omitempty"`
	Lyrics     *string `json:"lyrics,omitempty"`
	YouTubeURL *string `json:"youtube_url,omitempty"`
}

// NewArtist is the input for creating an artist bio.
type NewArtist struct {
	Name     string `json:"name"`
	Bio      string `json:"bio"`
	ImageURL string `json:"image_url,omitempty"`
}

// NewPost is the input for creating a blog post.
type NewPost struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	Author  string `json:"author"`
	Publish bool   `json:"publish"`
}

// NewStation is the input for adding a radio station.
type NewStation struct {
	Name      string `json:"name"`
	StreamURL string `json:"stream_url"`
	Genre     string `json:"genre,omitempty"`
	Country   string `json:"country,omitempty"`
	Homepage  string `json:"homepage,omitempty"`
}
