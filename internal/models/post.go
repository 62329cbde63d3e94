package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/songbook/internal/shared"
)

// Post is a blog article. Drafts have Published false and no PublishedAt.
type Post struct {
	Base
	Title       string
	Slug        string
	Body        string
	Author      string
	Published   bool
	PublishedAt *time.Time
}

// NewPost creates an unpublished draft whose slug is derived from its title.
func NewPost(title, body, author string) *Post {
	title = strings.TrimSpace(title)
	return &Post{Base: NewBase(), Title: title, Slug: shared.Slugify(title), Body: body, Author: author}
}

func (p *Post) Validate() error {
	if p.Title == "" {
		return fmt.Errorf("%w: post title is required", shared.ErrInvalidInput)
	}
	if p.Slug == "" {
		return fmt.Errorf("%w: post slug is empty for %q", shared.ErrInvalidInput, p.Title)
	}
	if p.Published && p.PublishedAt == nil {
		return fmt.Errorf("%w: published post without publish time", shared.ErrInvalidInput)
	}
	return nil
}

// Publish marks the post published. The first publish time is kept on repeat calls.
func (p *Post) Publish(at time.Time) {
	p.Published = true
	if p.PublishedAt == nil {
		at = at.UTC()
		p.PublishedAt = &at
	}
}

// MarshalJSON implements [json.Marshaler].
func (p Post) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID          string     `json:"id"`
		Title       string     `json:"title"`
		Slug        string     `json:"slug"`
		Body        string     `json:"body"`
		Author      string     `json:"author,omitempty"`
		Published   bool       `json:"published"`
		PublishedAt *time.Time `json:"published_at,omitempty"`
		CreatedAt   time.Time  `json:"created_at"`
	}{p.id, p.Title, p.Slug, p.Body, p.Author, p.Published, p.PublishedAt, p.createdAt})
}
