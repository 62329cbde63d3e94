// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/songbook/internal/services"
	"github.com/urfave/cli/v3"
)

// Flags shared by several commands. Each call returns a fresh flag.
func jsonFlag() cli.Flag { return &cli.BoolFlag{Name: "json", Usage: "Output raw JSON"} }

func prettyFlag() cli.Flag {
	return &cli.BoolFlag{Name: "pretty", Usage: "Pretty-print JSON output", Value: true}
}

func lyricsFlag() cli.Flag {
	return &cli.StringFlag{Name: "lyrics", Aliases: []string{"l"}, Usage: "Lyrics text"}
}

func fileFlag() cli.Flag {
	return &cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Read lyrics from a file (- for stdin)"}
}

func urlFlag() cli.Flag {
	return &cli.StringFlag{Name: "url", Usage: "Base URL of a running songbook server", Value: services.DefaultBaseURL}
}

// setupCommand handles database setup and migrations.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:   "status",
				Usage:  "List applied migrations",
				Action: r.SetupStatus,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// lyricsCommand handles lyrics submission, moderation and dumps.
func lyricsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "lyrics",
		Usage: "Submit, moderate & list lyrics",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List lyrics entries",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Usage: "Filter by status (pending, approved, private)"},
					&cli.StringFlag{Name: "artist", Usage: "Filter by artist"},
					jsonFlag(),
				},
				Action: r.LyricsList,
			},
			{
				Name:      "show",
				Usage:     "Show one entry",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.LyricsShow,
			},
			{
				Name:  "submit",
				Usage: "Submit lyrics for moderation; near-duplicates are rejected",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Song title", Required: true},
					&cli.StringFlag{Name: "artist", Aliases: []string{"a"}, Usage: "Artist name", Required: true},
					lyricsFlag(),
					fileFlag(),
					&cli.StringFlag{Name: "youtube", Usage: "YouTube video URL"},
					&cli.StringFlag{Name: "by", Usage: "Submitter name"},
				},
				Action: r.LyricsSubmit,
			},
			{
				Name:      "edit",
				Usage:     "Edit an entry; only the given fields change",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Song title"},
					&cli.StringFlag{Name: "artist", Aliases: []string{"a"}, Usage: "Artist name"},
					lyricsFlag(),
					fileFlag(),
					&cli.StringFlag{Name: "youtube", Usage: "YouTube video URL"},
				},
				Action: r.LyricsEdit,
			},
			{
				Name:      "approve",
				Usage:     "Approve an entry for the public listing",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.LyricsApprove,
			},
			{
				Name:      "private",
				Usage:     "Hide an entry from the public listing",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.LyricsPrivate,
			},
			{
				Name:      "reject",
				Aliases:   []string{"delete"},
				Usage:     "Delete an entry",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.LyricsReject,
			},
			{
				Name:   "stats",
				Usage:  "Count entries by status",
				Action: r.LyricsStats,
			},
			{
				Name:      "import",
				Usage:     "Import a JSON lyrics dump",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "skip-duplicates", Usage: "Skip records the strict guard flags"},
				},
				Action: r.LyricsImport,
			},
			{
				Name:  "export",
				Usage: "Export every entry as a JSON dump",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file path (default: stdout)"},
				},
				Action: r.LyricsExport,
			},
		},
	}
}

// dupesCommand handles duplicate detection and review.
func dupesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "dupes",
		Aliases: []string{"duplicates"},
		Usage:   "Find & review near-duplicate lyrics",
		Commands: []*cli.Command{
			{
				Name:  "scan",
				Usage: "Pairwise scan of every entry (loose policy)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "scorer", Usage: "Scorer: positional, dice or edit (default: configured)"},
					&cli.FloatFlag{Name: "threshold", Usage: "Override the loose threshold (0-1)"},
					&cli.StringFlag{Name: "format", Usage: "Output format: text, csv, markdown or json", Value: "text"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Write the report to a file"},
				},
				Action: r.DupesScan,
			},
			{
				Name:   "check",
				Usage:  "Run the strict submission guard against text without storing it",
				Flags:  []cli.Flag{lyricsFlag(), fileFlag()},
				Action: r.DupesCheck,
			},
			{
				Name:      "diff",
				Usage:     "Show the character diff between two entries",
				Arguments: []cli.Argument{&cli.StringArg{Name: "a"}, &cli.StringArg{Name: "b"}},
				Action:    r.DupesDiff,
			},
			{
				Name:      "dismiss",
				Usage:     "Mark a pair as not duplicate (not stored; it returns on the next scan)",
				Arguments: []cli.Argument{&cli.StringArg{Name: "a"}, &cli.StringArg{Name: "b"}},
				Action:    r.DupesDismiss,
			},
			{
				Name:  "report",
				Usage: "Scan with several scorers concurrently and write report files",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "scorer", Usage: "Scorers to run (default: all)"},
					&cli.StringSliceFlag{Name: "format", Usage: "Report formats (default: text)"},
					&cli.FloatFlag{Name: "threshold", Usage: "Override the loose threshold (0-1)"},
					&cli.StringFlag{Name: "dir", Usage: "Output directory (default: duplicates_{epoch})"},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent scans (default: one per scorer, at most 4)"},
				},
				Action: r.DupesReport,
			},
			{
				Name:   "review",
				Usage:  "Interactive duplicate review",
				Flags:  []cli.Flag{&cli.StringFlag{Name: "scorer", Usage: "Scorer: positional, dice or edit (default: configured)"}},
				Action: r.TUI,
			},
		},
	}
}

// artistsCommand handles artist bios.
func artistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "artists",
		Usage: "Artist bios",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List artists",
				Flags:  []cli.Flag{&cli.StringFlag{Name: "name", Usage: "Filter by name prefix"}, jsonFlag()},
				Action: r.ArtistsList,
			},
			{
				Name:  "add",
				Usage: "Add an artist bio",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Artist name", Required: true},
					&cli.StringFlag{Name: "bio", Usage: "Biography text"},
					&cli.StringFlag{Name: "image", Usage: "Image URL"},
				},
				Action: r.ArtistsAdd,
			},
			{
				Name:      "show",
				Usage:     "Show an artist by slug",
				Arguments: []cli.Argument{&cli.StringArg{Name: "slug"}},
				Action:    r.ArtistsShow,
			},
		},
	}
}

// postsCommand handles the blog.
func postsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "posts",
		Aliases: []string{"blog"},
		Usage:   "Blog posts",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List posts, newest first",
				Flags:  []cli.Flag{&cli.BoolFlag{Name: "drafts", Usage: "Include unpublished drafts"}, jsonFlag()},
				Action: r.PostsList,
			},
			{
				Name:  "add",
				Usage: "Write a post",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "Post title", Required: true},
					&cli.StringFlag{Name: "body", Usage: "Post body"},
					&cli.StringFlag{Name: "author", Usage: "Author name"},
					&cli.BoolFlag{Name: "publish", Usage: "Publish immediately"},
				},
				Action: r.PostsAdd,
			},
			{
				Name:      "publish",
				Usage:     "Publish a draft",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.PostsPublish,
			},
			{
				Name:      "show",
				Usage:     "Show a post by slug",
				Arguments: []cli.Argument{&cli.StringArg{Name: "slug"}},
				Action:    r.PostsShow,
			},
		},
	}
}

// stationsCommand handles the radio directory.
func stationsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "stations",
		Aliases: []string{"radio"},
		Usage:   "Radio station directory",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List stations",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "genre", Usage: "Filter by genre"},
					&cli.StringFlag{Name: "country", Usage: "Filter by country code"},
					jsonFlag(),
				},
				Action: r.StationsList,
			},
			{
				Name:  "add",
				Usage: "Add a station",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Station name", Required: true},
					&cli.StringFlag{Name: "stream", Usage: "Stream URL", Required: true},
					&cli.StringFlag{Name: "genre", Usage: "Genre"},
					&cli.StringFlag{Name: "country", Usage: "Country code"},
					&cli.StringFlag{Name: "homepage", Usage: "Homepage URL"},
				},
				Action: r.StationsAdd,
			},
			{
				Name:      "remove",
				Usage:     "Remove a station",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.StationsRemove,
			},
		},
	}
}

// serveCommand runs the HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the songbook JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "Override server.host"},
			&cli.IntFlag{Name: "port", Usage: "Override server.port"},
		},
		Action: r.Serve,
	}
}

// remoteCommand talks to a running server over HTTP.
func remoteCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "remote",
		Usage: "Call a running songbook server",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "GET an API path, prints raw JSON",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags:     []cli.Flag{urlFlag(), prettyFlag()},
				Action:    r.RemoteGet,
			},
			{
				Name:  "submit",
				Usage: "Submit lyrics through the public API",
				Flags: []cli.Flag{
					urlFlag(),
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Song title", Required: true},
					&cli.StringFlag{Name: "artist", Aliases: []string{"a"}, Usage: "Artist name", Required: true},
					lyricsFlag(),
					fileFlag(),
					&cli.StringFlag{Name: "youtube", Usage: "YouTube video URL"},
				},
				Action: r.RemoteSubmit,
			},
			{
				Name:      "create",
				Usage:     "Create an artist, post or station through the admin API",
				Arguments: []cli.Argument{&cli.StringArg{Name: "collection"}},
				Flags: []cli.Flag{
					urlFlag(),
					&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "JSON body", Required: true},
				},
				Action: r.RemoteCreate,
			},
			{
				Name:  "duplicates",
				Usage: "Fetch the admin duplicate report",
				Flags: []cli.Flag{
					urlFlag(),
					prettyFlag(),
					&cli.StringFlag{Name: "scorer", Usage: "Scorer override"},
					&cli.FloatFlag{Name: "threshold", Usage: "Threshold override"},
				},
				Action: r.RemoteDuplicates,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive duplicate review.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for duplicate review",
		Flags:   []cli.Flag{&cli.StringFlag{Name: "scorer", Usage: "Scorer: positional, dice or edit (default: configured)"}},
		Action:  r.TUI,
	}
}
