package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/tiercache/pkg/cache"
	"github.com/dmitrymomot/tiercache/pkg/cachekeys"
)

func (a *api) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.cache.Stats())
}

func (a *api) clear(w http.ResponseWriter, r *http.Request) {
	if err := a.cache.Clear(r.Context()); err != nil {
		a.adminError(w, r, "clear", err)
		return
	}
	a.logger.InfoContext(r.Context(), "cache cleared")
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) deleteKey(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if err := a.cache.Delete(r.Context(), key); err != nil {
		a.adminError(w, r, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type invalidateResponse struct {
	Group   string `json:"group"`
	Deleted int    `json:"deleted"`
	Error   string `json:"error,omitempty"`
}

func (a *api) invalidate(w http.ResponseWriter, r *http.Request) {
	group, err := cachekeys.ParseGroup(chi.URLParam(r, "group"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	n, err := cachekeys.Invalidate(r.Context(), a.cache, group)
	resp := invalidateResponse{Group: string(group), Deleted: n}
	if err != nil {
		a.logger.ErrorContext(r.Context(), "cache invalidation incomplete",
			slog.String("group", string(group)),
			slog.Int("deleted", n),
			slog.Any("error", err),
		)
		resp.Error = err.Error()
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}

	a.logger.InfoContext(r.Context(), "cache group invalidated",
		slog.String("group", string(group)),
		slog.Int("deleted", n),
	)
	writeJSON(w, http.StatusOK, resp)
}

func (a *api) preload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "resource")
	fetch, err := a.catalog.Resource(name)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	a.cache.Preload(r.Context(), name, fetch, a.ttl(name))
	writeJSON(w, http.StatusAccepted, map[string]string{"resource": name})
}

func (a *api) adminError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, cache.ErrClosed):
		status = http.StatusServiceUnavailable
	case errors.Is(err, cache.ErrEmptyKey):
		status = http.StatusBadRequest
	}
	a.logger.ErrorContext(r.Context(), "cache admin operation failed",
		slog.String("op", op),
		slog.Any("error", err),
	)
	writeError(w, status, err.Error())
}
