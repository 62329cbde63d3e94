package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/songbook/internal/shared"
)

// Status is the moderation state of a [LyricsEntry].
type Status string

const (
	StatusPending  Status = "pending"  // submitted, awaiting moderation
	StatusApproved Status = "approved" // publicly visible
	StatusPrivate  Status = "private"  // kept, hidden from the public listing
)

// ParseStatus validates a status name.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusApproved, StatusPrivate:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", shared.ErrInvalidInput, s)
	}
}

// LyricsEntry is a single song lyrics submission.
//
// Lyrics is never nil-able: storage NULLs are read back as the empty string.
type LyricsEntry struct {
	Base
	Title       string
	Artist      string
	Lyrics      string
	Status      Status
	YouTubeURL  string
	SubmittedBy string
}

// NewLyricsEntry creates a pending entry.
func NewLyricsEntry(title, artist, lyrics string) *LyricsEntry {
	return &LyricsEntry{
		Base:   NewBase(),
		Title:  strings.TrimSpace(title),
		Artist: strings.TrimSpace(artist),
		Lyrics: lyrics,
		Status: StatusPending,
	}
}

// Validate checks required fields and the status value.
func (e *LyricsEntry) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("%w: title is required", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(e.Artist) == "" {
		return fmt.Errorf("%w: artist is required", shared.ErrInvalidInput)
	}
	if _, err := ParseStatus(string(e.Status)); err != nil {
		return err
	}
	if e.YouTubeURL != "" {
		if _, ok := shared.ExtractYouTubeID(e.YouTubeURL); !ok {
			return fmt.Errorf("%w: not a YouTube URL: %s", shared.ErrInvalidInput, e.YouTubeURL)
		}
	}
	return nil
}

// VideoID returns the YouTube video ID for the entry's video link, if any.
func (e *LyricsEntry) VideoID() string {
	id, _ := shared.ExtractYouTubeID(e.YouTubeURL)
	return id
}

type lyricsJSON struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Artist      string    `json:"artist"`
	Lyrics      string    `json:"lyrics"`
	Status      Status    `json:"status"`
	YouTubeURL  string    `json:"youtube_url,omitempty"`
	VideoID     string    `json:"video_id,omitempty"`
	SubmittedBy string    `json:"submitted_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MarshalJSON implements [json.Marshaler].
func (e LyricsEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(lyricsJSON{
		ID:          e.id,
		Title:       e.Title,
		Artist:      e.Artist,
		Lyrics:      e.Lyrics,
		Status:      e.Status,
		YouTubeURL:  e.YouTubeURL,
		VideoID:     e.VideoID(),
		SubmittedBy: e.SubmittedBy,
		CreatedAt:   e.createdAt,
		UpdatedAt:   e.updatedAt,
	})
}
