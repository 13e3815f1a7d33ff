package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lipl/internal/models"
)

// ResourceHandler serves list, get, create, replace and delete for one record kind under base.
//
// R is the stored record and P its create/replace payload.
type ResourceHandler[R any, P any] struct {
	base   string
	logger *log.Logger

	summaries func(ctx context.Context) ([]models.Summary, error)
	list      func(ctx context.Context) ([]R, error)
	get       func(ctx context.Context, id models.ID) (R, error)
	create    func(ctx context.Context, post P) (R, error)
	replace   func(ctx context.Context, id models.ID, post P) (R, error)
	remove    func(ctx context.Context, id models.ID) error
	idOf      func(R) models.ID
	tag       func(R) any
}

var (
	_ Handler = (*ResourceHandler[models.Lyric, models.LyricPost])(nil)
	_ Handler = (*ResourceHandler[models.Playlist, models.PlaylistPost])(nil)
)

type lyricTag struct {
	ID    string
	Title string
	Parts [][]string
}

type playlistTag struct {
	ID      string
	Title   string
	Members []string
}

// NewLyricHandler serves lyrics under /api/v1/lyric.
func NewLyricHandler(repo models.Repository, logger *log.Logger) *ResourceHandler[models.Lyric, models.LyricPost] {
	return &ResourceHandler[models.Lyric, models.LyricPost]{
		base:      APIPrefix + "/lyric",
		logger:    logger.With("resource", "lyric"),
		summaries: repo.ListLyricSummaries,
		list:      repo.ListLyrics,
		get:       repo.GetLyric,
		create: func(ctx context.Context, post models.LyricPost) (models.Lyric, error) {
			return repo.CreateLyric(ctx, post.WithID(models.ID{}))
		},
		replace: repo.ReplaceLyric,
		remove:  repo.DeleteLyric,
		idOf:    func(l models.Lyric) models.ID { return l.ID },
		tag: func(l models.Lyric) any {
			return lyricTag{ID: l.ID.String(), Title: l.Title, Parts: l.Parts}
		},
	}
}

// NewPlaylistHandler serves playlists under /api/v1/playlist.
func NewPlaylistHandler(repo models.Repository, logger *log.Logger) *ResourceHandler[models.Playlist, models.PlaylistPost] {
	return &ResourceHandler[models.Playlist, models.PlaylistPost]{
		base:      APIPrefix + "/playlist",
		logger:    logger.With("resource", "playlist"),
		summaries: repo.ListPlaylistSummaries,
		list:      repo.ListPlaylists,
		get:       repo.GetPlaylist,
		create: func(ctx context.Context, post models.PlaylistPost) (models.Playlist, error) {
			return repo.CreatePlaylist(ctx, post.WithID(models.ID{}))
		},
		replace: repo.ReplacePlaylist,
		remove:  repo.DeletePlaylist,
		idOf:    func(p models.Playlist) models.ID { return p.ID },
		tag: func(p models.Playlist) any {
			members := make([]string, len(p.Members))
			for i, m := range p.Members {
				members[i] = m.String()
			}
			return playlistTag{ID: p.ID.String(), Title: p.Title, Members: members}
		},
	}
}

// Routes returns the collection and item patterns for every supported method.
func (h *ResourceHandler[R, P]) Routes() []string {
	item := h.base + "/{id}"
	return []string{
		"GET " + h.base,
		"POST " + h.base,
		"GET " + item,
		"PUT " + item,
		"DELETE " + item,
	}
}

func (h *ResourceHandler[R, P]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("id")

	if raw == "" {
		switch r.Method {
		case http.MethodGet, http.MethodHead:
			h.handleList(w, r)
		case http.MethodPost:
			h.handleCreate(w, r)
		default:
			w.Header().Set("Allow", "GET, HEAD, POST")
			respondJSON(w, h.logger, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
		}
		return
	}

	id, err := models.ParseID(raw)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		h.handleGet(w, r, id)
	case http.MethodPut:
		h.handleReplace(w, r, id)
	case http.MethodDelete:
		h.handleDelete(w, r, id)
	default:
		w.Header().Set("Allow", "GET, HEAD, PUT, DELETE")
		respondJSON(w, h.logger, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
	}
}

func (h *ResourceHandler[R, P]) handleList(w http.ResponseWriter, r *http.Request) {
	full := false
	if v := r.URL.Query().Get("full"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			respondJSON(w, h.logger, http.StatusBadRequest, errorBody{Error: "full must be a boolean"})
			return
		}
		full = parsed
	}

	if full {
		records, err := h.list(r.Context())
		if err != nil {
			respondError(w, h.logger, err)
			return
		}
		respondJSON(w, h.logger, http.StatusOK, records)
		return
	}

	summaries, err := h.summaries(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, summaries)
}

func (h *ResourceHandler[R, P]) handleGet(w http.ResponseWriter, r *http.Request, id models.ID) {
	record, err := h.get(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	tag, err := etag(h.tag(record))
	if err != nil {
		h.logger.Warn("failed to compute etag", "id", id, "error", err)
		respondJSON(w, h.logger, http.StatusOK, record)
		return
	}

	w.Header().Set("ETag", tag)
	if matchesETag(r.Header.Get("If-None-Match"), tag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, record)
}

func (h *ResourceHandler[R, P]) handleCreate(w http.ResponseWriter, r *http.Request) {
	var post P
	if err := decodeBody(w, r, &post); err != nil {
		respondError(w, h.logger, err)
		return
	}

	record, err := h.create(r.Context(), post)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	id := h.idOf(record)
	h.logger.Info("created", "id", id)
	w.Header().Set("Location", h.base+"/"+id.String())
	respondJSON(w, h.logger, http.StatusCreated, record)
}

func (h *ResourceHandler[R, P]) handleReplace(w http.ResponseWriter, r *http.Request, id models.ID) {
	var post P
	if err := decodeBody(w, r, &post); err != nil {
		respondError(w, h.logger, err)
		return
	}

	record, err := h.replace(r.Context(), id, post)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.logger.Info("replaced", "id", id)
	respondJSON(w, h.logger, http.StatusOK, record)
}

func (h *ResourceHandler[R, P]) handleDelete(w http.ResponseWriter, r *http.Request, id models.ID) {
	if err := h.remove(r.Context(), id); err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.logger.Info("deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}
