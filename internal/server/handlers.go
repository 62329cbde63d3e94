package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songbook/internal/formatter"
	"github.com/desertthunder/songbook/internal/models"
	"github.com/desertthunder/songbook/internal/services"
	"github.com/desertthunder/songbook/internal/shared"
	"github.com/desertthunder/songbook/internal/similarity"
)

// healthHandler answers liveness probes.
type healthHandler struct{}

func (healthHandler) Routes() []string { return []string{"GET /healthz"} }

func (healthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// api serves the JSON endpoints backed by a [services.Library].
type api struct {
	lib    *services.Library
	logger *log.Logger
}

// NewHandler builds the routed, middleware-wrapped API handler.
//
// Public lyrics submissions are rate limited per client by limits. Routes under /api/admin
// carry no authentication of their own and are expected to sit behind an authenticating proxy.
func NewHandler(lib *services.Library, logger *log.Logger, limits Limits) http.Handler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	logger = shared.WithLogger(logger, "component", "http")
	a := &api{lib: lib, logger: logger}

	r := NewBasicRouter()
	r.Use(Logging(logger), Recover(logger))

	r.Handler(healthHandler{})

	r.Handle("GET", "/api/lyrics", http.HandlerFunc(a.listLyrics))
	r.Handle("POST", "/api/lyrics", http.HandlerFunc(a.submitLyrics), RateLimit(limits))
	r.Handle("GET", "/api/lyrics/{id}", http.HandlerFunc(a.getLyrics))

	r.Handle("PUT", "/api/admin/lyrics/{id}", http.HandlerFunc(a.updateLyrics))
	r.Handle("DELETE", "/api/admin/lyrics/{id}", http.HandlerFunc(a.rejectLyrics))
	r.Handle("POST", "/api/admin/lyrics/{id}/approve", http.HandlerFunc(a.approveLyrics))
	r.Handle("POST", "/api/admin/lyrics/{id}/private", http.HandlerFunc(a.privateLyrics))
	r.Handle("GET", "/api/admin/duplicates", http.HandlerFunc(a.duplicates))
	r.Handle("POST", "/api/admin/duplicates/dismiss", http.HandlerFunc(a.dismiss))
	r.Handle("GET", "/api/admin/duplicates/diff", http.HandlerFunc(a.diff))

	r.Handle("GET", "/api/artists", http.HandlerFunc(a.listArtists))
	r.Handle("GET", "/api/artists/{slug}", http.HandlerFunc(a.getArtist))
	r.Handle("POST", "/api/admin/artists", http.HandlerFunc(a.createArtist))

	r.Handle("GET", "/api/posts", http.HandlerFunc(a.listPosts))
	r.Handle("GET", "/api/posts/{slug}", http.HandlerFunc(a.getPost))
	r.Handle("GET", "/api/admin/posts", http.HandlerFunc(a.listAllPosts))
	r.Handle("POST", "/api/admin/posts", http.HandlerFunc(a.createPost))
	r.Handle("POST", "/api/admin/posts/{id}/publish", http.HandlerFunc(a.publishPost))

	r.Handle("GET", "/api/stations", http.HandlerFunc(a.listStations))
	r.Handle("POST", "/api/admin/stations", http.HandlerFunc(a.createStation))
	r.Handle("DELETE", "/api/admin/stations/{id}", http.HandlerFunc(a.removeStation))

	return r
}

// listLyrics lists approved entries by default; ?status= selects another status and status=all lists every one.
func (a *api) listLyrics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	status := models.StatusApproved
	switch s := strings.TrimSpace(q.Get("status")); s {
	case "":
	case "all":
		status = ""
	default:
		parsed, err := models.ParseStatus(s)
		if err != nil {
			writeError(w, a.logger, err)
			return
		}
		status = parsed
	}

	entries, err := a.lib.Lyrics(r.Context(), status, q.Get("artist"))
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(entries))
}

func (a *api) submitLyrics(w http.ResponseWriter, r *http.Request) {
	var in services.SubmitLyrics
	if err := decode(w, r, &in); err != nil {
		writeError(w, a.logger, err)
		return
	}

	entry, err := a.lib.Submit(r.Context(), in)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (a *api) getLyrics(w http.ResponseWriter, r *http.Request) {
	entry, err := a.lib.Entry(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (a *api) updateLyrics(w http.ResponseWriter, r *http.Request) {
	var in services.LyricsUpdate
	if err := decode(w, r, &in); err != nil {
		writeError(w, a.logger, err)
		return
	}

	entry, err := a.lib.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (a *api) rejectLyrics(w http.ResponseWriter, r *http.Request) {
	if err := a.lib.Reject(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, a.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) approveLyrics(w http.ResponseWriter, r *http.Request) {
	a.moderate(w, r, a.lib.Approve)
}

func (a *api) privateLyrics(w http.ResponseWriter, r *http.Request) {
	a.moderate(w, r, a.lib.MakePrivate)
}

func (a *api) moderate(w http.ResponseWriter, r *http.Request, action func(context.Context, string) error) {
	id := r.PathValue("id")
	if err := action(r.Context(), id); err != nil {
		writeError(w, a.logger, err)
		return
	}

	entry, err := a.lib.Entry(r.Context(), id)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// duplicates runs the loose scan. ?scorer= and ?threshold= override the configured values.
func (a *api) duplicates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	policy := a.lib.LoosePolicy()

	var scorer similarity.Scorer
	if name := q.Get("scorer"); name != "" {
		s, err := similarity.ScorerByName(name)
		if err != nil {
			writeError(w, a.logger, err)
			return
		}
		scorer = s
	}

	if raw := q.Get("threshold"); raw != "" {
		t, err := strconv.ParseFloat(raw, 64)
		if err != nil || t < 0 || t > 1 {
			writeError(w, a.logger, fmt.Errorf("%w: threshold must be a number in [0,1], got %q", shared.ErrInvalidArgument, raw))
			return
		}
		policy = policy.WithThreshold(t)
	}

	candidates, err := a.lib.Duplicates(r.Context(), policy, scorer)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, formatter.NewReport(candidates, policy))
}

type pairRequest struct {
	A string `json:"a"`
	B string `json:"b"`
}

// dismiss acknowledges a pair as not duplicate. Nothing is stored.
func (a *api) dismiss(w http.ResponseWriter, r *http.Request) {
	var in pairRequest
	if err := decode(w, r, &in); err != nil {
		writeError(w, a.logger, err)
		return
	}

	if err := a.lib.Dismiss(r.Context(), in.A, in.B); err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "dismissed"})
}

// diff renders the character diff between entries ?a= and ?b=.
func (a *api) diff(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("a") == "" || q.Get("b") == "" {
		writeError(w, a.logger, fmt.Errorf("%w: query parameters a and b are required", shared.ErrMissingArgument))
		return
	}

	entryA, entryB, err := a.lib.Pair(r.Context(), q.Get("a"), q.Get("b"))
	if err != nil {
		writeError(w, a.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"a":        entryA.ID(),
		"b":        entryB.ID(),
		"diff":     formatter.LyricsDiff(entryA.Lyrics, entryB.Lyrics),
		"distance": formatter.EditDistance(entryA.Lyrics, entryB.Lyrics),
		"score":    a.lib.Scorer()(entryA.Lyrics, entryB.Lyrics),
	})
}

func (a *api) listArtists(w http.ResponseWriter, r *http.Request) {
	artists, err := a.lib.Artists(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(artists))
}

func (a *api) createArtist(w http.ResponseWriter, r *http.Request) {
	var in services.NewArtist
	if err := decode(w, r, &in); err != nil {
		writeError(w, a.logger, err)
		return
	}

	artist, err := a.lib.CreateArtist(r.Context(), in)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, artist)
}

func (a *api) getArtist(w http.ResponseWriter, r *http.Request) {
	artist, err := a.lib.Artist(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, artist)
}

// listPosts lists published posts.
func (a *api) listPosts(w http.ResponseWriter, r *http.Request) {
	a.writePosts(w, r, true)
}

// listAllPosts lists every post, drafts included.
func (a *api) listAllPosts(w http.ResponseWriter, r *http.Request) {
	a.writePosts(w, r, false)
}

func (a *api) writePosts(w http.ResponseWriter, r *http.Request, publishedOnly bool) {
	posts, err := a.lib.Posts(r.Context(), publishedOnly)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(posts))
}

func (a *api) createPost(w http.ResponseWriter, r *http.Request) {
	var in services.NewPost
	if err := decode(w, r, &in); err != nil {
		writeError(w, a.logger, err)
		return
	}

	post, err := a.lib.CreatePost(r.Context(), in)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// getPost serves a published post. Drafts are not found.
func (a *api) getPost(w http.ResponseWriter, r *http.Request) {
	post, err := a.lib.Post(r.Context(), r.PathValue("slug"))
	if err == nil && !post.Published {
		err = fmt.Errorf("post %s: %w", post.Slug, shared.ErrNotFound)
	}
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (a *api) publishPost(w http.ResponseWriter, r *http.Request) {
	post, err := a.lib.PublishPost(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (a *api) listStations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	stations, err := a.lib.Stations(r.Context(), q.Get("genre"), q.Get("country"))
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(stations))
}

func (a *api) createStation(w http.ResponseWriter, r *http.Request) {
	var in services.NewStation
	if err := decode(w, r, &in); err != nil {
		writeError(w, a.logger, err)
		return
	}

	station, err := a.lib.CreateStation(r.Context(), in)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, station)
}

func (a *api) removeStation(w http.ResponseWriter, r *http.Request) {
	if err := a.lib.RemoveStation(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, a.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
