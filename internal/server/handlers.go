package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/grovetools/teamboard/errors"
	"github.com/grovetools/teamboard/pkg/paths"
	"github.com/grovetools/teamboard/pkg/team"
)

// statusResponse is the body of /api/status.
type statusResponse struct {
	Config  *RunningConfig `json:"config,omitempty"`
	Clients int            `json:"clients"`
	Uptime  string         `json:"uptime,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	cfg := s.runningConfig
	s.mu.Unlock()

	resp := statusResponse{Config: cfg, Clients: s.registry.Len()}
	if cfg != nil && !cfg.StartedAt.IsZero() {
		resp.Uptime = s.now().Sub(cfg.StartedAt).Truncate(time.Second).String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.loader.LoadAll(r.Context())
	if err != nil {
		s.writeError(w, r, "Failed to load teams", err)
		return
	}
	if teams == nil {
		teams = []*team.Team{}
	}
	writeJSON(w, http.StatusOK, teams)
}

func (s *Server) handleGetTeam(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := paths.ValidateTeamID(id); err != nil {
		s.writeError(w, r, "Invalid team id", err)
		return
	}

	t, err := s.loader.Load(r.Context(), id)
	if err != nil {
		s.writeError(w, r, "Failed to load team", err)
		return
	}
	if t == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Team not found", TeamID: id})
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := paths.ValidateTeamID(id); err != nil {
		s.writeError(w, r, "Invalid team id", err)
		return
	}
	q, err := parseQuery(r)
	if err != nil {
		s.writeError(w, r, "Invalid query", err)
		return
	}

	messages, err := s.loader.LoadMessages(r.Context(), id, q)
	if err != nil {
		s.writeError(w, r, "Failed to load messages", err)
		return
	}
	if messages == nil {
		messages = []team.Message{}
	}
	writeJSON(w, http.StatusOK, messages)
}

// parseQuery reads the limit and before parameters. Absent or empty values
// leave the corresponding bound unset.
func parseQuery(r *http.Request) (team.Query, error) {
	var q team.Query
	values := r.URL.Query()

	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return q, errors.InvalidParam("limit", raw)
		}
		q.Limit = n
	}
	if raw := strings.TrimSpace(values.Get("before")); raw != "" {
		ts, ok := team.ParseTimestamp(raw)
		if !ok {
			return q, errors.InvalidParam("before", raw)
		}
		q.Before = &ts
	}
	return q, nil
}
