package models

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/songbook/internal/shared"
)

// Station is an entry in the internet radio directory.
type Station struct {
	Base
	Name      string
	StreamURL string
	Genre     string
	Country   string
	Homepage  string
}

// NewStation creates a directory entry.
func NewStation(name, streamURL, genre, country string) *Station {
	return &Station{
		Base:      NewBase(),
		Name:      strings.TrimSpace(name),
		StreamURL: strings.TrimSpace(streamURL),
		Genre:     strings.ToLower(strings.TrimSpace(genre)),
		Country:   strings.ToUpper(strings.TrimSpace(country)),
	}
}

func (s *Station) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: station name is required", shared.ErrInvalidInput)
	}
	u, err := url.Parse(s.StreamURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: stream url must be http(s): %q", shared.ErrInvalidInput, s.StreamURL)
	}
	return nil
}

// MarshalJSON implements [json.Marshaler].
func (s Station) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		StreamURL string `json:"stream_url"`
		Genre     string `json:"genre,omitempty"`
		Country   string `json:"country,omitempty"`
		Homepage  string `json:"homepage,omitempty"`
	}{s.id, s.Name, s.StreamURL, s.Genre, s.Country, s.Homepage})
}
