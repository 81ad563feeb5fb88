package devserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/devfolio-dev/folio/pkg/features/optimistic"
	"github.com/devfolio-dev/folio/pkg/render"
)

// LikeResponse is the body of the like endpoints.
type LikeResponse struct {
	Liked   *bool  `json:"liked,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Message string `json:"message,omitempty"`
}

func (s *Server) handleLike(liked bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := chi.URLParam(r, "target")
		id := chi.URLParam(r, "id")
		user := s.user(r)

		stored, err := s.likes.Set(r.Context(), target, id, user, liked)
		if err != nil {
			s.logger.Error("like update failed",
				"target", target, "id", id, "user", user, "liked", liked, "error", err)
			writeJSON(w, http.StatusInternalServerError, LikeResponse{Message: "server error"})
			return
		}
		count, err := s.likes.Count(r.Context(), target, id)
		if err != nil {
			s.logger.Error("like count failed", "target", target, "id", id, "error", err)
			writeJSON(w, http.StatusInternalServerError, LikeResponse{Message: "server error"})
			return
		}

		s.logger.Debug("like updated",
			"target", target, "id", id, "user", user, "liked", stored, "count", count)
		writeJSON(w, http.StatusOK, LikeResponse{Liked: &stored, Count: &count})
	}
}

func (s *Server) handleLikes(w http.ResponseWriter, r *http.Request) {
	target := chi.URLParam(r, "target")
	id := chi.URLParam(r, "id")

	liked, err := s.likes.Liked(r.Context(), target, id, s.user(r))
	if err == nil {
		var count int
		count, err = s.likes.Count(r.Context(), target, id)
		if err == nil {
			writeJSON(w, http.StatusOK, LikeResponse{Liked: &liked, Count: &count})
			return
		}
	}
	s.logger.Error("like lookup failed", "target", target, "id", id, "error", err)
	writeJSON(w, http.StatusInternalServerError, LikeResponse{Message: "server error"})
}

// handleButton serves the caller's like button as an HTML fragment.
func (s *Server) handleButton(w http.ResponseWriter, r *http.Request) {
	target := chi.URLParam(r, "target")
	id := chi.URLParam(r, "id")

	liked, err := s.likes.Liked(r.Context(), target, id, s.user(r))
	if err == nil {
		var count int
		count, err = s.likes.Count(r.Context(), target, id)
		if err == nil {
			label := fmt.Sprintf("Like %d", count)
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_ = render.NewRenderer(render.RendererConfig{}).RenderToWriter(w, optimistic.Button(label, liked))
			return
		}
	}
	s.logger.Error("like lookup failed", "target", target, "id", id, "error", err)
	http.Error(w, "server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
