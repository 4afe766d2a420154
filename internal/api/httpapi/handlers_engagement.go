package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/Theras-Labs/theras-boost-protocol/internal/engagement"
)

type projectResponse struct {
	ProjectKey   string    `json:"project_key"`
	Authority    string    `json:"authority"`
	BoostEnabled bool      `json:"boost_enabled"`
	TotalUsers   uint64    `json:"total_users"`
	TotalEvents  uint64    `json:"total_events"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type userResponse struct {
	ProjectKey  string     `json:"project_key"`
	Wallet      string     `json:"wallet"`
	DailyLogins uint64     `json:"daily_logins"`
	Quests      uint64     `json:"quests"`
	Referrals   uint64     `json:"referrals"`
	TotalEarned uint64     `json:"total_earned"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type eventResponse struct {
	ID         string    `json:"id"`
	ProjectKey string    `json:"project_key"`
	Wallet     string    `json:"wallet"`
	Type       string    `json:"type"`
	Count      uint64    `json:"count"`
	Timestamp  time.Time `json:"timestamp"`
}

func projectView(project engagement.Project) projectResponse {
	return projectResponse{
		ProjectKey:   project.ProjectKey,
		Authority:    project.Authority,
		BoostEnabled: project.BoostEnabled,
		TotalUsers:   project.TotalUsers,
		TotalEvents:  project.TotalEvents,
		CreatedAt:    project.CreatedAt,
		UpdatedAt:    project.UpdatedAt,
	}
}

func userView(user engagement.User) userResponse {
	view := userResponse{
		ProjectKey:  user.ProjectKey,
		Wallet:      user.Wallet,
		DailyLogins: user.DailyLogins,
		Quests:      user.Quests,
		Referrals:   user.Referrals,
		TotalEarned: user.TotalEarned,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
	if !user.LastLogin.IsZero() {
		lastLogin := user.LastLogin
		view.LastLogin = &lastLogin
	}
	return view
}

func eventView(record engagement.EventRecord) eventResponse {
	return eventResponse{
		ID:         record.ID,
		ProjectKey: record.ProjectKey,
		Wallet:     record.Wallet,
		Type:       string(record.Type),
		Count:      record.Count,
		Timestamp:  record.Timestamp,
	}
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var request struct {
		ProjectKey   string `json:"project_key"`
		BoostEnabled bool   `json:"boost_enabled"`
	}
	if !decodeBody(w, r, &request) {
		return
	}
	project, err := s.service.CreateProject(r.Context(), callerFromContext(r.Context()), request.ProjectKey, request.BoostEnabled)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, projectView(project))
}

// handleProjectRoutes serves the /v1/projects/{key}... subtree.
func (s *Server) handleProjectRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/projects/")
	parts := strings.Split(rest, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	projectKey := parts[0]

	switch {
	case len(parts) == 1:
		s.handleGetProject(w, r, projectKey)
	case len(parts) == 2 && parts[1] == "users":
		s.requireGrant(func(w http.ResponseWriter, r *http.Request) {
			s.handleRegisterUser(w, r, projectKey)
		})(w, r)
	case len(parts) == 3 && parts[1] == "users":
		s.handleGetUser(w, r, projectKey, parts[2])
	case len(parts) == 2 && parts[1] == "earned":
		s.requireGrant(func(w http.ResponseWriter, r *http.Request) {
			s.handleAddEarned(w, r, projectKey)
		})(w, r)
	case len(parts) == 2 && parts[1] == "boost":
		s.requireGrant(func(w http.ResponseWriter, r *http.Request) {
			s.handleSetBoost(w, r, projectKey)
		})(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request, projectKey string) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	project, err := s.service.Project(r.Context(), projectKey)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projectView(project))
}

func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request, projectKey string) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var request struct {
		Wallet string `json:"wallet"`
	}
	if !decodeBody(w, r, &request) {
		return
	}
	user, err := s.service.RegisterUser(r.Context(), callerFromContext(r.Context()), projectKey, request.Wallet)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, userView(user))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request, projectKey, wallet string) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	user, err := s.service.User(r.Context(), projectKey, wallet)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userView(user))
}

func (s *Server) handleAddEarned(w http.ResponseWriter, r *http.Request, projectKey string) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var request struct {
		Wallet string `json:"wallet"`
		Amount uint64 `json:"amount"`
	}
	if !decodeBody(w, r, &request) {
		return
	}
	user, err := s.service.AddEarned(r.Context(), callerFromContext(r.Context()), projectKey, request.Wallet, request.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userView(user))
}

func (s *Server) handleSetBoost(w http.ResponseWriter, r *http.Request, projectKey string) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var request struct {
		Enabled bool `json:"enabled"`
	}
	if !decodeBody(w, r, &request) {
		return
	}
	project, err := s.service.SetBoostEnabled(r.Context(), callerFromContext(r.Context()), projectKey, request.Enabled)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projectView(project))
}

func (s *Server) handleEventLogin(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var request struct {
		ProjectKey string `json:"project_key"`
		Wallet     string `json:"wallet"`
	}
	if !decodeBody(w, r, &request) {
		return
	}
	record, err := s.service.RecordDailyLogin(r.Context(), callerFromContext(r.Context()), request.ProjectKey, request.Wallet)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, eventView(record))
}

func (s *Server) handleEventQuest(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var request struct {
		ProjectKey string `json:"project_key"`
		Wallet     string `json:"wallet"`
		QuestID    string `json:"quest_id"`
	}
	if !decodeBody(w, r, &request) {
		return
	}
	record, err := s.service.RecordQuest(r.Context(), callerFromContext(r.Context()), request.ProjectKey, request.Wallet, request.QuestID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, eventView(record))
}

func (s *Server) handleEventReferral(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var request struct {
		ProjectKey string `json:"project_key"`
		Wallet     string `json:"wallet"`
	}
	if !decodeBody(w, r, &request) {
		return
	}
	record, err := s.service.RecordReferral(r.Context(), callerFromContext(r.Context()), request.ProjectKey, request.Wallet)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, eventView(record))
}
