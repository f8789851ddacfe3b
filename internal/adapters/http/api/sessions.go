package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/okian/cremling/internal/domain/session"
)

// sessionViewOf scores st and renders it.
func sessionViewOf(st session.State) (sessionView, error) {
	res, err := st.Evaluate()
	if err != nil {
		return sessionView{}, err
	}
	return newSessionView(st, res)
}

func (s *Server) writeSession(w http.ResponseWriter, status int, op string, st session.State, err error) {
	if err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	v, err := sessionViewOf(st)
	if err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	writeJSON(w, status, v)
}

// handleCreateSession handles POST /sessions.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.CreateSession(r.Context())
	s.writeSession(w, http.StatusCreated, "api.create_session", st, err)
}

// handleGetSession handles GET /sessions/{sessionID}.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_session"
	st, res, err := s.deps.Evaluate(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	v, err := newSessionView(st, res)
	if err != nil {
		writeDomainError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleDeleteSession handles DELETE /sessions/{sessionID}.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		writeDomainError(w, Wrap("api.delete_session", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetParty handles PUT /sessions/{sessionID}/party.
func (s *Server) handleSetParty(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_party"
	var req partyRequest
	if err := decodeJSON(r, op, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	party, err := req.party(op)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	st, err := s.deps.SetParty(r.Context(), chi.URLParam(r, "sessionID"), party)
	s.writeSession(w, http.StatusOK, op, st, err)
}

// handleAddEnemy handles POST /sessions/{sessionID}/enemies.
func (s *Server) handleAddEnemy(w http.ResponseWriter, r *http.Request) {
	const op = "api.add_enemy"
	var req addEnemyRequest
	if err := decodeJSON(r, op, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	if req.EntryID == "" {
		writeDomainError(w, WrapKind(op, ErrBadRequest, errMissing("entry_id")))
		return
	}
	st, err := s.deps.AddEnemy(r.Context(), chi.URLParam(r, "sessionID"), req.EntryID)
	s.writeSession(w, http.StatusOK, op, st, err)
}

// handleRemoveEnemy handles DELETE /sessions/{sessionID}/enemies/{entryID}.
// Every pick of the entry goes unless ?one=true.
func (s *Server) handleRemoveEnemy(w http.ResponseWriter, r *http.Request) {
	const op = "api.remove_enemy"
	one := false
	if raw := r.URL.Query().Get("one"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeDomainError(w, WrapKind(op, ErrBadRequest, err))
			return
		}
		one = v
	}
	st, err := s.deps.RemoveEnemy(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "entryID"), one)
	s.writeSession(w, http.StatusOK, op, st, err)
}

// handleClearSelection handles DELETE /sessions/{sessionID}/enemies.
func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.ClearSelection(r.Context(), chi.URLParam(r, "sessionID"))
	s.writeSession(w, http.StatusOK, "api.clear_selection", st, err)
}
