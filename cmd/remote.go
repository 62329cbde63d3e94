package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/songbook/internal/services"
	"github.com/urfave/cli/v3"
)

func (r *Runner) client(cmd *cli.Command) *services.Client {
	return services.NewClient(strings.TrimRight(cmd.String("url"), "/"), r.httpClient)
}

// writeResponse prints a response body, pretty-printing JSON when asked.
func (r *Runner) writeResponse(resp *services.Response, pretty bool) error {
	if resp.IsJSON {
		if err := r.writeJSON(resp.JSONData, pretty); err != nil {
			return err
		}
	} else {
		r.output.Write(resp.Body)
		r.output.Write([]byte("\n"))
	}
	return resp.Err()
}

// RemoteGet makes a direct GET request to a running server.
func (r *Runner) RemoteGet(ctx context.Context, cmd *cli.Command) error {
	args, err := requireArgs(cmd, "path")
	if err != nil {
		return err
	}
	path := args[0]
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	r.logger.Info("GET request", "path", path)
	resp, err := r.client(cmd).Get(ctx, path)
	if err != nil {
		return err
	}
	return r.writeResponse(resp, cmd.Bool("pretty"))
}

// RemoteSubmit posts a submission through the public API.
func (r *Runner) RemoteSubmit(ctx context.Context, cmd *cli.Command) error {
	text, err := r.readText(cmd)
	if err != nil {
		return err
	}

	resp, err := r.client(cmd).Submit(ctx, services.SubmitLyrics{
		Title:      cmd.String("title"),
		Artist:     cmd.String("artist"),
		Lyrics:     text,
		YouTubeURL: cmd.String("youtube"),
	})
	if err != nil {
		return err
	}

	if err := r.writeResponse(resp, true); err != nil {
		return fmt.Errorf("submission rejected: %w", err)
	}
	return nil
}

// RemoteCreate posts a catalog entry (artists, posts or stations) to the admin API.
func (r *Runner) RemoteCreate(ctx context.Context, cmd *cli.Command) error {
	args, err := requireArgs(cmd, "collection")
	if err != nil {
		return err
	}

	resp, err := r.client(cmd).Create(ctx, args[0], []byte(cmd.String("data")))
	if err != nil {
		return err
	}
	return r.writeResponse(resp, true)
}

// RemoteDuplicates fetches the admin duplicate report.
func (r *Runner) RemoteDuplicates(ctx context.Context, cmd *cli.Command) error {
	resp, err := r.client(cmd).Duplicates(ctx, cmd.String("scorer"), cmd.Float("threshold"))
	if err != nil {
		return err
	}
	return r.writeResponse(resp, cmd.Bool("pretty"))
}
