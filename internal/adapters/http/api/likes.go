package api

import (
	"net/http"
)

// handleGetLikes handles GET /likes.
func (s *Server) handleGetLikes(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.Likes(r.Context())
	if err != nil {
		writeDomainError(w, Wrap("api.get_likes", err))
		return
	}
	writeJSON(w, http.StatusOK, likesResponse{Likes: n})
}

// handlePostLike handles POST /likes.
func (s *Server) handlePostLike(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.Like(r.Context())
	if err != nil {
		writeDomainError(w, Wrap("api.post_like", err))
		return
	}
	writeJSON(w, http.StatusOK, likesResponse{Likes: n})
}
