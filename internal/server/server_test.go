package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songbook/internal/formatter"
	"github.com/desertthunder/songbook/internal/models"
	"github.com/desertthunder/songbook/internal/services"
	tu "github.com/desertthunder/songbook/internal/testing"
)

func newTestServer(t *testing.T, limits Limits, entries ...models.LyricsEntry) (*httptest.Server, *tu.MemoryLyrics) {
	t.Helper()
	store := tu.NewMemoryLyrics(entries...)
	logger := log.New(io.Discard)
	lib := services.NewLibrary(store, tu.NewMemoryArtists(), tu.NewMemoryPosts(), tu.NewMemoryStations(),
		services.Options{Logger: logger})

	srv := httptest.NewServer(NewHandler(lib, logger, limits))
	t.Cleanup(srv.Close)
	return srv, store
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func approved(id, title, artist, lyrics string) models.LyricsEntry {
	e := tu.Entry(id, title, artist, lyrics)
	e.Status = models.StatusApproved
	return e
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, Limits{})

	resp, body := do(t, http.MethodGet, srv.URL+"/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `"ok"`) {
		t.Errorf("unexpected body %s", body)
	}

	resp, _ = do(t, http.MethodPost, srv.URL+"/healthz", "")
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for POST, got %d", resp.StatusCode)
	}
}

func TestLyricsEndpoints(t *testing.T) {
	t.Run("List Defaults To Approved", func(t *testing.T) {
		srv, _ := newTestServer(t, Limits{},
			approved("1", "One", "A", "first"),
			tu.Entry("2", "Two", "A", "second"),
		)

		resp, body := do(t, http.MethodGet, srv.URL+"/api/lyrics", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var entries []map[string]any
		json.Unmarshal(body, &entries)
		if len(entries) != 1 || entries[0]["id"] != "1" {
			t.Errorf("expected only the approved entry, got %s", body)
		}

		_, body = do(t, http.MethodGet, srv.URL+"/api/lyrics?status=all", "")
		json.Unmarshal(body, &entries)
		if len(entries) != 2 {
			t.Errorf("expected 2 entries for status=all, got %d", len(entries))
		}

		resp, _ = do(t, http.MethodGet, srv.URL+"/api/lyrics?status=archived", "")
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400 for unknown status, got %d", resp.StatusCode)
		}

		_, body = do(t, http.MethodGet, srv.URL+"/api/lyrics?status=private", "")
		if strings.TrimSpace(string(body)) != "[]" {
			t.Errorf("expected empty JSON array, got %s", body)
		}
	})

	t.Run("Submit", func(t *testing.T) {
		srv, store := newTestServer(t, Limits{}, approved("1", "Hello", "A", "hello world"))

		resp, body := do(t, http.MethodPost, srv.URL+"/api/lyrics",
			`{"title":"New","artist":"B","lyrics":"something else entirely","youtube_url":"https://youtu.be/dQw4w9WgXcQ"}`)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", resp.StatusCode, body)
		}
		var created map[string]any
		json.Unmarshal(body, &created)
		if created["status"] != "pending" || created["video_id"] != "dQw4w9WgXcQ" {
			t.Errorf("unexpected created entry %s", body)
		}

		all, _ := store.All()
		if len(all) != 2 {
			t.Errorf("expected 2 stored entries, got %d", len(all))
		}
	})

	t.Run("Submit Duplicate", func(t *testing.T) {
		srv, _ := newTestServer(t, Limits{}, approved("1", "Hello", "A", "hello world"))

		resp, body := do(t, http.MethodPost, srv.URL+"/api/lyrics", `{"title":"Copy","artist":"B","lyrics":"HELLO   world"}`)
		if resp.StatusCode != http.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", resp.StatusCode, body)
		}

		var out struct {
			Error   string
			Matches []struct {
				ID      string
				Percent float64
			}
			Policy struct {
				Threshold float64
				Strict    bool
			}
		}
		if err := json.Unmarshal(body, &out); err != nil {
			t.Fatalf("invalid body: %v", err)
		}
		if len(out.Matches) != 1 || out.Matches[0].ID != "1" || out.Matches[0].Percent != 100 {
			t.Errorf("unexpected matches %+v", out.Matches)
		}
		if out.Policy.Threshold != 0.9 || !out.Policy.Strict {
			t.Errorf("unexpected policy %+v", out.Policy)
		}
	})

	t.Run("Submit Bad Input", func(t *testing.T) {
		srv, _ := newTestServer(t, Limits{})

		tests := []struct {
			name string
			body string
		}{
			{"malformed", `{"title":`},
			{"unknown field", `{"title":"T","artist":"A","bogus":1}`},
			{"missing artist", `{"title":"T","lyrics":"x"}`},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				resp, body := do(t, http.MethodPost, srv.URL+"/api/lyrics", tt.body)
				if resp.StatusCode != http.StatusBadRequest {
					t.Errorf("expected 400, got %d: %s", resp.StatusCode, body)
				}
				if !strings.Contains(string(body), `"error"`) {
					t.Errorf("expected error body, got %s", body)
				}
			})
		}
	})

	t.Run("Get", func(t *testing.T) {
		srv, _ := newTestServer(t, Limits{}, approved("1", "One", "A", "words"))

		resp, body := do(t, http.MethodGet, srv.URL+"/api/lyrics/1", "")
		if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"title":"One"`) {
			t.Errorf("unexpected response %d %s", resp.StatusCode, body)
		}

		resp, _ = do(t, http.MethodGet, srv.URL+"/api/lyrics/missing", "")
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("Moderation", func(t *testing.T) {
		srv, store := newTestServer(t, Limits{}, tu.Entry("1", "One", "A", "words"))

		resp, body := do(t, http.MethodPost, srv.URL+"/api/admin/lyrics/1/approve", "")
		if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"status":"approved"`) {
			t.Errorf("approve: unexpected response %d %s", resp.StatusCode, body)
		}

		resp, body = do(t, http.MethodPost, srv.URL+"/api/admin/lyrics/1/private", "")
		if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"status":"private"`) {
			t.Errorf("private: unexpected response %d %s", resp.StatusCode, body)
		}

		resp, body = do(t, http.MethodPut, srv.URL+"/api/admin/lyrics/1", `{"lyrics":"fixed words"}`)
		if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"lyrics":"fixed words"`) {
			t.Errorf("update: unexpected response %d %s", resp.StatusCode, body)
		}

		resp, _ = do(t, http.MethodDelete, srv.URL+"/api/admin/lyrics/1", "")
		if resp.StatusCode != http.StatusNoContent {
			t.Errorf("reject: expected 204, got %d", resp.StatusCode)
		}
		if all, _ := store.All(); len(all) != 0 {
			t.Errorf("expected rejected entry to be gone, have %d", len(all))
		}

		resp, _ = do(t, http.MethodPost, srv.URL+"/api/admin/lyrics/1/approve", "")
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404 after reject, got %d", resp.StatusCode)
		}
	})
}

func TestDuplicateEndpoints(t *testing.T) {
	entries := []models.LyricsEntry{
		approved("1", "One", "A", "the quick brown fox"),
		tu.Entry("2", "Two", "B", "xthe quick brown fox"),
		tu.Entry("3", "Three", "C", "the quick brown fox"),
	}

	t.Run("Loose Scan", func(t *testing.T) {
		srv, _ := newTestServer(t, Limits{}, entries...)

		resp, body := do(t, http.MethodGet, srv.URL+"/api/admin/duplicates", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		var report formatter.Report
		if err := json.Unmarshal(body, &report); err != nil {
			t.Fatalf("invalid report: %v", err)
		}
		if report.Threshold != 0.4 || len(report.Pairs) != 1 {
			t.Fatalf("unexpected report %+v", report)
		}
		if report.Pairs[0].A.ID != "1" || report.Pairs[0].B.ID != "3" || report.Pairs[0].Percent != 100 {
			t.Errorf("unexpected pair %+v", report.Pairs[0])
		}
	})

	t.Run("Overrides", func(t *testing.T) {
		srv, _ := newTestServer(t, Limits{}, entries...)

		_, body := do(t, http.MethodGet, srv.URL+"/api/admin/duplicates?scorer=dice", "")
		var report formatter.Report
		json.Unmarshal(body, &report)
		if len(report.Pairs) != 3 {
			t.Errorf("expected 3 dice pairs, got %d", len(report.Pairs))
		}

		_, body = do(t, http.MethodGet, srv.URL+"/api/admin/duplicates?scorer=dice&threshold=1", "")
		json.Unmarshal(body, &report)
		if len(report.Pairs) != 1 || report.Threshold != 1 {
			t.Errorf("expected only the identical pair at threshold 1, got %+v", report)
		}

		for _, q := range []string{"scorer=soundex", "threshold=abc", "threshold=1.5"} {
			resp, _ := do(t, http.MethodGet, srv.URL+"/api/admin/duplicates?"+q, "")
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("%s: expected 400, got %d", q, resp.StatusCode)
			}
		}
	})

	t.Run("Dismiss", func(t *testing.T) {
		srv, _ := newTestServer(t, Limits{}, entries...)

		resp, _ := do(t, http.MethodPost, srv.URL+"/api/admin/duplicates/dismiss", `{"a":"1","b":"3"}`)
		if resp.StatusCode != http.StatusAccepted {
			t.Fatalf("expected 202, got %d", resp.StatusCode)
		}

		_, body := do(t, http.MethodGet, srv.URL+"/api/admin/duplicates", "")
		var report formatter.Report
		json.Unmarshal(body, &report)
		if len(report.Pairs) != 1 {
			t.Errorf("dismissed pair should still be reported, got %d pairs", len(report.Pairs))
		}

		resp, _ = do(t, http.MethodPost, srv.URL+"/api/admin/duplicates/dismiss", `{"a":"1"}`)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400 for missing id, got %d", resp.StatusCode)
		}
	})

	t.Run("Diff", func(t *testing.T) {
		srv, _ := newTestServer(t, Limits{}, entries...)

		resp, body := do(t, http.MethodGet, srv.URL+"/api/admin/duplicates/diff?a=1&b=2", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var out map[string]any
		json.Unmarshal(body, &out)
		if out["diff"] != "{+x+}the quick brown fox" || out["distance"] != float64(1) {
			t.Errorf("unexpected diff %s", body)
		}

		resp, _ = do(t, http.MethodGet, srv.URL+"/api/admin/duplicates/diff?a=1", "")
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
		resp, _ = do(t, http.MethodGet, srv.URL+"/api/admin/duplicates/diff?a=1&b=nope", "")
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})
}

func TestCatalogEndpoints(t *testing.T) {
	t.Run("Artists", func(t *testing.T) {
		srv, _ := newTestServer(t, Limits{})

		resp, body := do(t, http.MethodPost, srv.URL+"/api/admin/artists", `{"name":"Nina Simone","bio":"soul"}`)
		if resp.StatusCode != http.StatusCreated || !strings.Contains(string(body), `"slug":"nina-simone"`) {
			t.Fatalf("unexpected response %d %s", resp.StatusCode, body)
		}

		resp, _ = do(t, http.MethodPost, srv.URL+"/api/admin/artists", `{"name":"nina simone"}`)
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("expected 409 for duplicate slug, got %d", resp.StatusCode)
		}

		resp, body = do(t, http.MethodGet, srv.URL+"/api/artists/nina-simone", "")
		if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"bio":"soul"`) {
			t.Errorf("unexpected response %d %s", resp.StatusCode, body)
		}

		_, body = do(t, http.MethodGet, srv.URL+"/api/artists?name=xyz", "")
		if strings.TrimSpace(string(body)) != "[]" {
			t.Errorf("expected empty list, got %s", body)
		}
	})

	t.Run("Posts", func(t *testing.T) {
		srv, _ := newTestServer(t, Limits{})

		resp, body := do(t, http.MethodPost, srv.URL+"/api/admin/posts", `{"title":"Draft","body":"soon"}`)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}
		var draft map[string]any
		json.Unmarshal(body, &draft)

		_, body = do(t, http.MethodGet, srv.URL+"/api/posts", "")
		if strings.TrimSpace(string(body)) != "[]" {
			t.Errorf("drafts should be hidden, got %s", body)
		}
		_, body = do(t, http.MethodGet, srv.URL+"/api/posts?drafts=true", "")
		if strings.TrimSpace(string(body)) != "[]" {
			t.Errorf("the public listing never shows drafts, got %s", body)
		}
		_, body = do(t, http.MethodGet, srv.URL+"/api/admin/posts", "")
		if !strings.Contains(string(body), `"slug":"draft"`) {
			t.Errorf("expected draft in the admin listing, got %s", body)
		}
		resp, _ = do(t, http.MethodGet, srv.URL+"/api/posts/draft", "")
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404 for an unpublished post, got %d", resp.StatusCode)
		}

		resp, body = do(t, http.MethodPost, srv.URL+"/api/admin/posts/"+draft["id"].(string)+"/publish", "")
		if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"published":true`) {
			t.Errorf("unexpected publish response %d %s", resp.StatusCode, body)
		}

		resp, _ = do(t, http.MethodGet, srv.URL+"/api/posts/draft", "")
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}
	})

	t.Run("Stations", func(t *testing.T) {
		srv, _ := newTestServer(t, Limits{})

		resp, body := do(t, http.MethodPost, srv.URL+"/api/admin/stations", `{"name":"Jazz24","stream_url":"https://live.jazz24.org/stream","genre":"Jazz"}`)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", resp.StatusCode, body)
		}
		var station map[string]any
		json.Unmarshal(body, &station)

		resp, _ = do(t, http.MethodPost, srv.URL+"/api/admin/stations", `{"name":"Bad","stream_url":"nope"}`)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}

		_, body = do(t, http.MethodGet, srv.URL+"/api/stations?genre=jazz", "")
		if !strings.Contains(string(body), "Jazz24") {
			t.Errorf("expected station in listing, got %s", body)
		}

		resp, _ = do(t, http.MethodDelete, srv.URL+"/api/admin/stations/"+station["id"].(string), "")
		if resp.StatusCode != http.StatusNoContent {
			t.Errorf("expected 204, got %d", resp.StatusCode)
		}
	})
}

func TestCatalogWritesRequireAdminPaths(t *testing.T) {
	srv, _ := newTestServer(t, Limits{})

	tests := []struct {
		path string
		body string
	}{
		{"/api/artists", `{"name":"Someone"}`},
		{"/api/posts", `{"title":"Hacked","body":"x","publish":true}`},
		{"/api/stations", `{"name":"Pirate","stream_url":"https://pirate.example.com/live"}`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, _ := do(t, http.MethodPost, srv.URL+tt.path, tt.body)
			if resp.StatusCode != http.StatusMethodNotAllowed {
				t.Errorf("expected 405 for a public write, got %d", resp.StatusCode)
			}

			_, body := do(t, http.MethodGet, srv.URL+tt.path, "")
			if strings.TrimSpace(string(body)) != "[]" {
				t.Errorf("nothing should have been created, got %s", body)
			}
		})
	}

	resp, _ := do(t, http.MethodPut, srv.URL+"/api/posts/hacked", `{}`)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for a write to a public post path, got %d", resp.StatusCode)
	}
}

func TestSubmitRateLimit(t *testing.T) {
	srv, _ := newTestServer(t, Limits{Rate: 0.5, Burst: 2, TrustProxy: true})

	submit := func(client, lyrics string) int {
		body, _ := json.Marshal(services.SubmitLyrics{Title: "T", Artist: "A", Lyrics: lyrics})
		req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/lyrics", bytes.NewReader(body))
		req.Header.Set("X-Forwarded-For", client)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests && resp.Header.Get("Retry-After") != "2" {
			t.Errorf("expected Retry-After 2, got %q", resp.Header.Get("Retry-After"))
		}
		return resp.StatusCode
	}

	codes := []int{submit("10.0.0.1", "one"), submit("10.0.0.1", "two 2"), submit("10.0.0.1", "three 33")}
	if codes[0] != http.StatusCreated || codes[1] != http.StatusCreated || codes[2] != http.StatusTooManyRequests {
		t.Errorf("expected burst of 2 then 429, got %v", codes)
	}

	if code := submit("10.0.0.2", "four 444"); code != http.StatusCreated {
		t.Errorf("other clients have their own bucket, got %d", code)
	}

	resp, _ := do(t, http.MethodGet, srv.URL+"/api/lyrics", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("reads are not rate limited, got %d", resp.StatusCode)
	}
}

func TestSubmitRateLimitIgnoresForwardedHeader(t *testing.T) {
	srv, _ := newTestServer(t, Limits{Rate: 0.001, Burst: 1})

	var codes []int
	for i := range 4 {
		body, _ := json.Marshal(services.SubmitLyrics{Title: "T", Artist: "A", Lyrics: strings.Repeat("x", i+1) + " song"})
		req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/lyrics", bytes.NewReader(body))
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}

	want := []int{http.StatusCreated, http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusTooManyRequests}
	if !slices.Equal(codes, want) {
		t.Errorf("a direct client must not pick its own bucket, got %v", codes)
	}
}

func TestServe(t *testing.T) {
	logger := log.New(io.Discard)
	lib := services.NewLibrary(tu.NewMemoryLyrics(), tu.NewMemoryArtists(), tu.NewMemoryPosts(), tu.NewMemoryStations(),
		services.Options{Logger: logger})

	srv := &http.Server{Addr: "127.0.0.1:0", Handler: NewHandler(lib, logger, Limits{})}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Serve(ctx, srv, logger); err != nil {
		t.Errorf("expected clean shutdown, got %v", err)
	}
}
