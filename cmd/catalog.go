package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/songbook/internal/services"
	"github.com/urfave/cli/v3"
)

// ArtistsList lists artist bios.
func (r *Runner) ArtistsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	artists, err := r.library.Artists(ctx, cmd.String("name"))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(artists, true)
	}

	r.writePlainHeader(fmt.Sprintf("Artists (%d)", len(artists)))
	for _, a := range artists {
		r.writePlain("%-24s %s\n", a.Slug, a.Name)
	}
	return nil
}

// ArtistsAdd creates an artist bio.
func (r *Runner) ArtistsAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	artist, err := r.library.CreateArtist(ctx, services.NewArtist{
		Name:     cmd.String("name"),
		Bio:      cmd.String("bio"),
		ImageURL: cmd.String("image"),
	})
	if err != nil {
		return err
	}
	r.writePlain("✓ Added %s (/%s)\n", artist.Name, artist.Slug)
	return nil
}

// ArtistsShow prints an artist bio.
func (r *Runner) ArtistsShow(ctx context.Context, cmd *cli.Command) error {
	args, err := requireArgs(cmd, "slug")
	if err != nil {
		return err
	}
	if err := r.open(); err != nil {
		return err
	}

	artist, err := r.library.Artist(ctx, args[0])
	if err != nil {
		return err
	}

	r.writePlainHeader(artist.Name)
	if artist.ImageURL != "" {
		r.writePlain("Image: %s\n", artist.ImageURL)
	}
	r.writePlain("\n%s\n", artist.Bio)
	return nil
}

// PostsList lists blog posts.
func (r *Runner) PostsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	posts, err := r.library.Posts(ctx, !cmd.Bool("drafts"))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(posts, true)
	}

	r.writePlainHeader(fmt.Sprintf("Posts (%d)", len(posts)))
	for _, p := range posts {
		state := "draft"
		if p.Published && p.PublishedAt != nil {
			state = p.PublishedAt.Format("2006-01-02")
		}
		r.writePlain("%-10s %-24s %s\n", state, p.Slug, oneLine(p.Title, 48))
	}
	return nil
}

// PostsAdd writes a blog post.
func (r *Runner) PostsAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	post, err := r.library.CreatePost(ctx, services.NewPost{
		Title:   cmd.String("title"),
		Body:    cmd.String("body"),
		Author:  cmd.String("author"),
		Publish: cmd.Bool("publish"),
	})
	if err != nil {
		return err
	}

	state := "draft"
	if post.Published {
		state = "published"
	}
	r.writePlain("✓ Saved %s (%s)\nID: %s\n", post.Slug, state, post.ID())
	return nil
}

// PostsPublish publishes a draft.
func (r *Runner) PostsPublish(ctx context.Context, cmd *cli.Command) error {
	args, err := requireArgs(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.open(); err != nil {
		return err
	}

	post, err := r.library.PublishPost(ctx, args[0])
	if err != nil {
		return err
	}
	r.writePlain("✓ Published %s\n", post.Slug)
	return nil
}

// PostsShow prints a post.
func (r *Runner) PostsShow(ctx context.Context, cmd *cli.Command) error {
	args, err := requireArgs(cmd, "slug")
	if err != nil {
		return err
	}
	if err := r.open(); err != nil {
		return err
	}

	post, err := r.library.Post(ctx, args[0])
	if err != nil {
		return err
	}

	r.writePlainHeader(post.Title)
	if post.Author != "" {
		r.writePlain("By %s\n", post.Author)
	}
	r.writePlain("\n%s\n", post.Body)
	return nil
}

// StationsList lists the radio directory.
func (r *Runner) StationsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	stations, err := r.library.Stations(ctx, cmd.String("genre"), cmd.String("country"))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(stations, true)
	}

	r.writePlainHeader(fmt.Sprintf("Stations (%d)", len(stations)))
	for _, s := range stations {
		r.writePlain("%s  %-24s %-10s %-3s %s\n", s.ID(), oneLine(s.Name, 24), s.Genre, s.Country, s.StreamURL)
	}
	return nil
}

// StationsAdd adds a station to the directory.
func (r *Runner) StationsAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	station, err := r.library.CreateStation(ctx, services.NewStation{
		Name:      cmd.String("name"),
		StreamURL: cmd.String("stream"),
		Genre:     cmd.String("genre"),
		Country:   cmd.String("country"),
		Homepage:  cmd.String("homepage"),
	})
	if err != nil {
		return err
	}
	r.writePlain("✓ Added %s\nID: %s\n", station.Name, station.ID())
	return nil
}

// StationsRemove removes a station.
func (r *Runner) StationsRemove(ctx context.Context, cmd *cli.Command) error {
	args, err := requireArgs(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.open(); err != nil {
		return err
	}

	if err := r.library.RemoveStation(ctx, args[0]); err != nil {
		return err
	}
	r.writePlain("✓ Removed %s\n", args[0])
	return nil
}
