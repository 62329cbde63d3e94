package main

import (
	"bytes"
	"errors"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songbook/internal/models"
	"github.com/desertthunder/songbook/internal/server"
	"github.com/desertthunder/songbook/internal/services"
	"github.com/desertthunder/songbook/internal/shared"
	"github.com/desertthunder/songbook/internal/similarity"
	tu "github.com/desertthunder/songbook/internal/testing"
)

// newMemoryRunner returns a runner whose library is backed by memory stores seeded with entries.
func newMemoryRunner(t *testing.T, input io.Reader, entries ...models.LyricsEntry) (*Runner, *bytes.Buffer, *services.Library) {
	t.Helper()
	lyrics := tu.NewMemoryLyrics(entries...)
	library := services.NewLibrary(lyrics, tu.NewMemoryArtists(), tu.NewMemoryPosts(), tu.NewMemoryStations(),
		services.Options{Logger: log.New(io.Discard)})

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Library: library,
		Lyrics:  lyrics,
		Logger:  log.New(io.Discard),
		Output:  output,
		Input:   input,
	})
	return runner, output, library
}

func hellos() []models.LyricsEntry {
	return []models.LyricsEntry{
		tu.Entry("1", "World", "Greeter", "hello world"),
		tu.Entry("2", "There", "Greeter", "hello there"),
		tu.Entry("3", "Farewell", "Leaver", "goodbye"),
	}
}

func TestLyricsCommands(t *testing.T) {
	runner, output, library := newMemoryRunner(t, nil, tu.Entry("1", "World", "Greeter", "hello world"))

	t.Run("submit stores a pending entry", func(t *testing.T) {
		output.Reset()
		err := runApp(runner, "lyrics", "submit", "-t", "There", "-a", "Greeter", "--lyrics", "hello there", "--by", "sam")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "✓ Submitted Greeter - There") {
			t.Errorf("unexpected output: %s", output.String())
		}
		if !strings.Contains(output.String(), "(pending)") {
			t.Errorf("expected pending status, got %s", output.String())
		}
	})

	t.Run("submit rejects a near-duplicate", func(t *testing.T) {
		output.Reset()
		err := runApp(runner, "lyrics", "submit", "-t", "Copy", "-a", "Someone", "--lyrics", "  HELLO   world ")
		if !errors.Is(err, services.ErrDuplicate) {
			t.Fatalf("expected duplicate error, got %v", err)
		}
		if !strings.Contains(output.String(), "Matches under strict") {
			t.Errorf("expected matches to be listed, got %s", output.String())
		}
		if !strings.Contains(output.String(), "100.00%  Greeter - World [1]") {
			t.Errorf("expected the matched entry, got %s", output.String())
		}
	})

	t.Run("submit requires lyrics", func(t *testing.T) {
		err := runApp(runner, "lyrics", "submit", "-t", "X", "-a", "Y")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected missing argument error, got %v", err)
		}
	})

	t.Run("approve then list by status", func(t *testing.T) {
		output.Reset()
		if err := runApp(runner, "lyrics", "approve", "1"); err != nil {
			t.Fatalf("approve failed: %v", err)
		}
		if !strings.Contains(output.String(), "✓ 1 approved") {
			t.Errorf("unexpected output: %s", output.String())
		}

		output.Reset()
		if err := runApp(runner, "lyrics", "list", "--status", "approved"); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if !strings.Contains(output.String(), "Lyrics (1)") || !strings.Contains(output.String(), "Greeter - World") {
			t.Errorf("unexpected listing: %s", output.String())
		}
	})

	t.Run("list rejects an unknown status", func(t *testing.T) {
		err := runApp(runner, "lyrics", "list", "--status", "archived")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected invalid input error, got %v", err)
		}
	})

	t.Run("show", func(t *testing.T) {
		output.Reset()
		if err := runApp(runner, "lyrics", "show", "1"); err != nil {
			t.Fatalf("show failed: %v", err)
		}
		if !strings.Contains(output.String(), "Status: approved") || !strings.Contains(output.String(), "hello world") {
			t.Errorf("unexpected output: %s", output.String())
		}

		if err := runApp(runner, "lyrics", "show", "missing"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected not found, got %v", err)
		}
		if err := runApp(runner, "lyrics", "show"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected missing argument, got %v", err)
		}
	})

	t.Run("stats counts by status", func(t *testing.T) {
		output.Reset()
		if err := runApp(runner, "lyrics", "stats"); err != nil {
			t.Fatalf("stats failed: %v", err)
		}
		for _, want := range []string{"pending   1", "approved  1", "private   0", "total     2"} {
			if !strings.Contains(output.String(), want) {
				t.Errorf("expected %q in %s", want, output.String())
			}
		}
	})

	t.Run("edit changes only the given fields", func(t *testing.T) {
		output.Reset()
		if err := runApp(runner, "lyrics", "edit", "1", "--title", "Whole World"); err != nil {
			t.Fatalf("edit failed: %v", err)
		}
		if !strings.Contains(output.String(), "✓ Updated Greeter - Whole World") {
			t.Errorf("unexpected output: %s", output.String())
		}

		entry, err := library.Entry(t.Context(), "1")
		if err != nil {
			t.Fatalf("entry lookup failed: %v", err)
		}
		if entry.Lyrics != "hello world" || entry.Status != models.StatusApproved {
			t.Errorf("edit should keep lyrics and status, got %q %s", entry.Lyrics, entry.Status)
		}

		if err := runApp(runner, "lyrics", "edit", "1"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected missing argument for an empty edit, got %v", err)
		}
	})

	t.Run("private and reject", func(t *testing.T) {
		if err := runApp(runner, "lyrics", "private", "1"); err != nil {
			t.Fatalf("private failed: %v", err)
		}
		if err := runApp(runner, "lyrics", "delete", "1"); err != nil {
			t.Fatalf("reject failed: %v", err)
		}
		if _, err := library.Entry(t.Context(), "1"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected rejected entry to be gone, got %v", err)
		}
	})
}

func TestLyricsDumps(t *testing.T) {
	runner, output := newTestRunner(t)
	dir := t.TempDir()
	dump := filepath.Join(dir, "dump.json")

	for _, args := range [][]string{
		{"lyrics", "submit", "-t", "World", "-a", "Greeter", "--lyrics", "hello world"},
		{"lyrics", "submit", "-t", "Farewell", "-a", "Leaver", "--lyrics", "goodbye"},
	} {
		if err := runApp(runner, args...); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}

	t.Run("stats uses the store's counts", func(t *testing.T) {
		output.Reset()
		if err := runApp(runner, "lyrics", "stats"); err != nil {
			t.Fatalf("stats failed: %v", err)
		}
		if !strings.Contains(output.String(), "pending   2") || !strings.Contains(output.String(), "total     2") {
			t.Errorf("unexpected stats: %s", output.String())
		}
	})

	t.Run("export writes a dump", func(t *testing.T) {
		if err := runApp(runner, "lyrics", "export", "-o", dump); err != nil {
			t.Fatalf("export failed: %v", err)
		}
		content := tu.MustReadFile(t, dump)
		if !strings.Contains(content, `"title": "World"`) || !strings.Contains(content, `"lyrics": "goodbye"`) {
			t.Errorf("unexpected dump: %s", content)
		}
	})

	t.Run("import skips entries already stored", func(t *testing.T) {
		output.Reset()
		if err := runApp(runner, "lyrics", "import", "--skip-duplicates", dump); err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if !strings.Contains(output.String(), "Skipped: 2") || !strings.Contains(output.String(), "Created: 0") {
			t.Errorf("unexpected import summary: %s", output.String())
		}
	})

	t.Run("import without the guard duplicates the dump", func(t *testing.T) {
		output.Reset()
		if err := runApp(runner, "lyrics", "import", dump); err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if !strings.Contains(output.String(), "Created: 2") {
			t.Errorf("unexpected import summary: %s", output.String())
		}
	})

	t.Run("import of a missing file fails", func(t *testing.T) {
		err := runApp(runner, "lyrics", "import", filepath.Join(dir, "nope.json"))
		if err == nil || !strings.Contains(err.Error(), "failed to open dump") {
			t.Errorf("expected open error, got %v", err)
		}
	})
}

func TestDupesCommands(t *testing.T) {
	t.Run("scan prints pairs under the loose policy", func(t *testing.T) {
		runner, output, _ := newMemoryRunner(t, nil, hellos()...)

		if err := runApp(runner, "dupes", "scan"); err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		for _, want := range []string{"Policy: loose duplicate scan (score >= 0.40)", "Pairs: 1", "54.55%  Greeter - World [1]"} {
			if !strings.Contains(output.String(), want) {
				t.Errorf("expected %q in %s", want, output.String())
			}
		}
	})

	t.Run("scan threshold override", func(t *testing.T) {
		runner, output, _ := newMemoryRunner(t, nil, hellos()...)

		if err := runApp(runner, "duplicates", "scan", "--threshold", "0.6"); err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		if !strings.Contains(output.String(), "Pairs: 0") {
			t.Errorf("expected no pairs, got %s", output.String())
		}

		if err := runApp(runner, "dupes", "scan", "--threshold", "1.5"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected invalid flag error, got %v", err)
		}
	})

	t.Run("scan rejects unknown scorers and formats", func(t *testing.T) {
		runner, _, _ := newMemoryRunner(t, nil, hellos()...)

		if err := runApp(runner, "dupes", "scan", "--scorer", "soundex"); !errors.Is(err, similarity.ErrUnknownScorer) {
			t.Errorf("expected unknown scorer error, got %v", err)
		}
		if err := runApp(runner, "dupes", "scan", "--format", "xml"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected invalid flag error, got %v", err)
		}
	})

	t.Run("scan writes a report file", func(t *testing.T) {
		runner, output, _ := newMemoryRunner(t, nil, hellos()...)
		path := filepath.Join(t.TempDir(), "pairs.json")

		if err := runApp(runner, "dupes", "scan", "--format", "json", "-o", path); err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		if !strings.Contains(output.String(), "✓ 1 pair(s) written to "+path) {
			t.Errorf("unexpected output: %s", output.String())
		}
		if content := tu.MustReadFile(t, path); !strings.Contains(content, `"percent": 54.55`) {
			t.Errorf("unexpected report: %s", content)
		}
	})

	t.Run("check", func(t *testing.T) {
		runner, output, _ := newMemoryRunner(t, strings.NewReader("HELLO\n  world\n"), hellos()...)

		err := runApp(runner, "dupes", "check", "--file", "-")
		if !errors.Is(err, services.ErrDuplicate) {
			t.Fatalf("expected duplicate error, got %v", err)
		}
		if !strings.Contains(output.String(), "Greeter - World [1]") {
			t.Errorf("expected match listing, got %s", output.String())
		}

		output.Reset()
		if err := runApp(runner, "dupes", "check", "--lyrics", "something else entirely"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "✓ No existing entry matches under strict") {
			t.Errorf("unexpected output: %s", output.String())
		}
	})

	t.Run("diff", func(t *testing.T) {
		runner, output, _ := newMemoryRunner(t, nil, hellos()...)

		if err := runApp(runner, "dupes", "diff", "1", "2"); err != nil {
			t.Fatalf("diff failed: %v", err)
		}
		for _, want := range []string{"Greeter - World  ⇄  Greeter - There", "Similarity: 54.55%", "Edit distance: 5", "hello "} {
			if !strings.Contains(output.String(), want) {
				t.Errorf("expected %q in %s", want, output.String())
			}
		}

		if err := runApp(runner, "dupes", "diff", "1"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected missing argument, got %v", err)
		}
		if err := runApp(runner, "dupes", "diff", "1", "9"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected not found, got %v", err)
		}
	})

	t.Run("dismiss does not hide the pair", func(t *testing.T) {
		runner, output, _ := newMemoryRunner(t, nil, hellos()...)

		if err := runApp(runner, "dupes", "dismiss", "1", "2"); err != nil {
			t.Fatalf("dismiss failed: %v", err)
		}
		if !strings.Contains(output.String(), "✓ Dismissed 1 / 2") {
			t.Errorf("unexpected output: %s", output.String())
		}

		output.Reset()
		if err := runApp(runner, "dupes", "scan"); err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		if !strings.Contains(output.String(), "Pairs: 1") {
			t.Errorf("expected the dismissed pair to be reported again, got %s", output.String())
		}
	})

	t.Run("report writes one file per scorer and format", func(t *testing.T) {
		runner, output, _ := newMemoryRunner(t, nil, hellos()...)
		dir := filepath.Join(t.TempDir(), "reports")

		err := runApp(runner, "dupes", "report",
			"--scorer", "positional", "--scorer", "dice", "--format", "csv", "--format", "md", "--dir", dir)
		if err != nil {
			t.Fatalf("report failed: %v", err)
		}

		tu.AssertDirExists(t, dir)
		for _, name := range []string{
			"duplicates_positional.csv", "duplicates_positional.md",
			"duplicates_dice.csv", "duplicates_dice.md",
			"manifest.json",
		} {
			tu.AssertFileExists(t, filepath.Join(dir, name))
		}
		for _, want := range []string{"✓ positional", "✓ dice", "Manifest: " + filepath.Join(dir, "manifest.json")} {
			if !strings.Contains(output.String(), want) {
				t.Errorf("expected %q in %s", want, output.String())
			}
		}
	})

	t.Run("report rejects unknown scorers", func(t *testing.T) {
		runner, _, _ := newMemoryRunner(t, nil, hellos()...)

		err := runApp(runner, "dupes", "report", "--scorer", "soundex", "--dir", t.TempDir())
		if !errors.Is(err, similarity.ErrUnknownScorer) {
			t.Errorf("expected unknown scorer error, got %v", err)
		}
	})
}

func TestCatalogCommands(t *testing.T) {
	runner, output, _ := newMemoryRunner(t, nil)

	t.Run("artists", func(t *testing.T) {
		output.Reset()
		if err := runApp(runner, "artists", "add", "--name", "The Night Owls", "--bio", "Formed in 1999."); err != nil {
			t.Fatalf("add failed: %v", err)
		}
		if !strings.Contains(output.String(), "✓ Added The Night Owls (/the-night-owls)") {
			t.Errorf("unexpected output: %s", output.String())
		}

		if err := runApp(runner, "artists", "add", "--name", "The Night Owls"); !errors.Is(err, shared.ErrConflict) {
			t.Errorf("expected slug conflict, got %v", err)
		}

		output.Reset()
		if err := runApp(runner, "artists", "show", "the-night-owls"); err != nil {
			t.Fatalf("show failed: %v", err)
		}
		if !strings.Contains(output.String(), "Formed in 1999.") {
			t.Errorf("unexpected output: %s", output.String())
		}

		output.Reset()
		if err := runApp(runner, "artists", "list", "--name", "the"); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if !strings.Contains(output.String(), "Artists (1)") {
			t.Errorf("unexpected output: %s", output.String())
		}
	})

	t.Run("posts", func(t *testing.T) {
		if err := runApp(runner, "posts", "add", "--title", "Launch Day", "--body", "We are live.", "--publish"); err != nil {
			t.Fatalf("add failed: %v", err)
		}
		if err := runApp(runner, "blog", "add", "--title", "Coming Soon"); err != nil {
			t.Fatalf("add failed: %v", err)
		}

		output.Reset()
		if err := runApp(runner, "posts", "list"); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if !strings.Contains(output.String(), "Posts (1)") || strings.Contains(output.String(), "coming-soon") {
			t.Errorf("expected only the published post, got %s", output.String())
		}

		output.Reset()
		if err := runApp(runner, "posts", "list", "--drafts"); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if !strings.Contains(output.String(), "Posts (2)") || !strings.Contains(output.String(), "draft") {
			t.Errorf("expected drafts to be listed, got %s", output.String())
		}

		output.Reset()
		if err := runApp(runner, "posts", "show", "launch-day"); err != nil {
			t.Fatalf("show failed: %v", err)
		}
		if !strings.Contains(output.String(), "We are live.") {
			t.Errorf("unexpected output: %s", output.String())
		}
	})

	t.Run("stations", func(t *testing.T) {
		output.Reset()
		err := runApp(runner, "radio", "add", "--name", "Night Jazz", "--stream", "https://radio.example.com/jazz",
			"--genre", "jazz", "--country", "US")
		if err != nil {
			t.Fatalf("add failed: %v", err)
		}
		id := strings.TrimSpace(strings.TrimPrefix(strings.Split(output.String(), "\n")[1], "ID:"))

		output.Reset()
		if err := runApp(runner, "stations", "list", "--genre", "jazz"); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if !strings.Contains(output.String(), "Stations (1)") {
			t.Errorf("unexpected output: %s", output.String())
		}

		if err := runApp(runner, "stations", "remove", id); err != nil {
			t.Fatalf("remove failed: %v", err)
		}

		output.Reset()
		if err := runApp(runner, "stations", "list"); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if !strings.Contains(output.String(), "Stations (0)") {
			t.Errorf("expected the station to be removed, got %s", output.String())
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("status and rollback", func(t *testing.T) {
		runner, output := newTestRunner(t)

		if err := runApp(runner, "setup", "status"); err != nil {
			t.Fatalf("status failed: %v", err)
		}
		if !strings.Contains(output.String(), "[ ] 001 create_lyrics") {
			t.Errorf("expected pending migrations, got %s", output.String())
		}

		if err := runner.open(); err != nil {
			t.Fatalf("open failed: %v", err)
		}

		output.Reset()
		if err := runApp(runner, "setup", "status"); err != nil {
			t.Fatalf("status failed: %v", err)
		}
		for _, want := range []string{"[✓] 001 create_lyrics", "[✓] 002 create_catalog"} {
			if !strings.Contains(output.String(), want) {
				t.Errorf("expected %q in %s", want, output.String())
			}
		}

		output.Reset()
		if err := runApp(runner, "setup", "rollback"); err != nil {
			t.Fatalf("rollback failed: %v", err)
		}
		if err := runApp(runner, "setup", "status"); err != nil {
			t.Fatalf("status failed: %v", err)
		}
		if !strings.Contains(output.String(), "[ ] 002 create_catalog") {
			t.Errorf("expected the catalog migration to be rolled back, got %s", output.String())
		}
	})

	t.Run("database creates config and schema", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)
		t.Setenv(shared.EnvDatabasePath, "")

		runner, output := newTestRunner(t)
		if err := runApp(runner, "setup", "database", "--config", "songbook.toml"); err != nil {
			t.Fatalf("setup failed: %v", err)
		}

		tu.AssertFileExists(t, filepath.Join(dir, "songbook.toml"))
		tu.AssertFileExists(t, filepath.Join(dir, "songbook.db"))
		if !strings.Contains(output.String(), "✓ Database ready: ./songbook.db") {
			t.Errorf("unexpected output: %s", output.String())
		}

		if err := runApp(runner, "setup", "database", "--config", "songbook.toml"); err != nil {
			t.Errorf("setup should be repeatable, got %v", err)
		}
	})
}

func TestRemoteCommands(t *testing.T) {
	_, _, library := newMemoryRunner(t, nil, hellos()...)
	ts := httptest.NewServer(server.NewHandler(library, log.New(io.Discard), server.Limits{}))
	t.Cleanup(ts.Close)

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Logger: log.New(io.Discard), Output: output, HTTPClient: ts.Client()})

	t.Run("get", func(t *testing.T) {
		output.Reset()
		if err := runApp(runner, "remote", "get", "--url", ts.URL, "healthz"); err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if !strings.Contains(output.String(), `"status": "ok"`) {
			t.Errorf("unexpected output: %s", output.String())
		}

		err := runApp(runner, "remote", "get", "--url", ts.URL, "/api/lyrics/missing")
		if err == nil || !strings.Contains(err.Error(), "server returned 404") {
			t.Errorf("expected 404 error, got %v", err)
		}
	})

	t.Run("submit", func(t *testing.T) {
		output.Reset()
		err := runApp(runner, "remote", "submit", "--url", ts.URL, "-t", "Moon", "-a", "Night", "--lyrics", "a song about the moon")
		if err != nil {
			t.Fatalf("submit failed: %v", err)
		}
		if !strings.Contains(output.String(), `"status": "pending"`) {
			t.Errorf("unexpected output: %s", output.String())
		}

		output.Reset()
		err = runApp(runner, "remote", "submit", "--url", ts.URL, "-t", "Copy", "-a", "Night", "--lyrics", "Hello World")
		if err == nil || !strings.Contains(err.Error(), "submission rejected: server returned 409") {
			t.Errorf("expected rejection, got %v", err)
		}
		if !strings.Contains(output.String(), `"matches"`) {
			t.Errorf("expected matches in the response body, got %s", output.String())
		}
	})

	t.Run("create", func(t *testing.T) {
		output.Reset()
		err := runApp(runner, "remote", "create", "--url", ts.URL, "--data", `{"name":"Nina Simone","bio":"soul"}`, "artists")
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if !strings.Contains(output.String(), `"slug": "nina-simone"`) {
			t.Errorf("unexpected output: %s", output.String())
		}

		err = runApp(runner, "remote", "create", "--url", ts.URL, "--data", `{}`, "lyrics")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected invalid argument, got %v", err)
		}
	})

	t.Run("duplicates", func(t *testing.T) {
		output.Reset()
		if err := runApp(runner, "remote", "duplicates", "--url", ts.URL, "--scorer", "positional"); err != nil {
			t.Fatalf("duplicates failed: %v", err)
		}
		if !strings.Contains(output.String(), `"pairs"`) {
			t.Errorf("unexpected output: %s", output.String())
		}
	})
}
