package api

import (
	"net/http"
)

// handleScore handles POST /score.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.score"
	var req scoreRequest
	if err := decodeJSON(r, op, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	party, enemies, err := req.decode(op)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	res, err := s.deps.Score(r.Context(), party, enemies)
	if err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
