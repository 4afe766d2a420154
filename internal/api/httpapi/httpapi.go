// Package httpapi exposes the protocol service over JSON HTTP. State
// changing routes require a signed operation grant; the grant subject is
// the caller identity handed to the supply core.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/Theras-Labs/theras-boost-protocol/internal/app"
	"github.com/Theras-Labs/theras-boost-protocol/internal/auth/mintgrant"
	apperrors "github.com/Theras-Labs/theras-boost-protocol/internal/platform/errors"
)

type contextKey string

const callerKey contextKey = "caller"

// Server routes protocol requests to the application service.
type Server struct {
	service *app.Service
	grants  mintgrant.Config
}

// NewServer creates an HTTP API server.
func NewServer(service *app.Service, grants mintgrant.Config) *Server {
	return &Server{service: service, grants: grants}
}

// RegisterRoutes attaches all protocol routes to the mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/supply", s.logged(s.handleSupplyState))
	mux.HandleFunc("/v1/supply/initialize", s.logged(s.requireGrant(s.handleInitialize)))
	mux.HandleFunc("/v1/supply/mint", s.logged(s.requireGrant(s.handleMint)))
	mux.HandleFunc("/v1/supply/deposit", s.logged(s.requireGrant(s.handleDeposit)))
	mux.HandleFunc("/v1/supply/mints", s.logged(s.handleListMints))
	mux.HandleFunc("/v1/redemptions", s.logged(s.handleListRedemptions))
	mux.HandleFunc("/v1/redemptions/catalog", s.logged(s.requireGrant(s.handleRedeemCatalog)))
	mux.HandleFunc("/v1/redemptions/stablecoin", s.logged(s.requireGrant(s.handleRedeemStablecoin)))
	mux.HandleFunc("/v1/admin/vault", s.logged(s.requireGrant(s.handleUpdateVault)))
	mux.HandleFunc("/v1/admin/pause", s.logged(s.requireGrant(s.handleSetPaused)))
	mux.HandleFunc("/v1/admin/authority", s.logged(s.requireGrant(s.handleTransferAuthority)))
	mux.HandleFunc("/v1/accounts/", s.logged(s.handleAccountRoutes))
	mux.HandleFunc("/v1/projects", s.logged(s.requireGrant(s.handleCreateProject)))
	mux.HandleFunc("/v1/projects/", s.logged(s.handleProjectRoutes))
	mux.HandleFunc("/v1/events/login", s.logged(s.requireGrant(s.handleEventLogin)))
	mux.HandleFunc("/v1/events/quest", s.logged(s.requireGrant(s.handleEventQuest)))
	mux.HandleFunc("/v1/events/referral", s.logged(s.requireGrant(s.handleEventReferral)))
	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// logged wraps a handler with request logging.
func (s *Server) logged(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(recorder, r)
		log.Printf("http %s %s %d", r.Method, r.URL.Path, recorder.status)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requireGrant validates the bearer grant and stores the caller identity
// in the request context.
func (s *Server) requireGrant(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			writeError(w, apperrors.New(apperrors.CodeGrantInvalid, "bearer grant is required"))
			return
		}
		claims, err := mintgrant.Validate(token, s.grants)
		if err != nil {
			writeError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), callerKey, claims.Subject)
		next(w, r.WithContext(ctx))
	}
}

func callerFromContext(ctx context.Context) string {
	caller, _ := ctx.Value(callerKey).(string)
	return caller
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: errorBody{
			Code:    "invalid_request",
			Message: "request body is invalid",
		}})
		return false
	}
	return true
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON writes a JSON body with normalized headers and status.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps an application error to its HTTP status and JSON body.
func writeError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	message := err.Error()
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	writeJSON(w, code.HTTPStatus(), errorResponse{Error: errorBody{
		Code:    string(code),
		Message: message,
	}})
}

func pageParams(r *http.Request) (int, string) {
	query := r.URL.Query()
	pageSize := 0
	if raw := query.Get("page_size"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			pageSize = parsed
		}
	}
	return pageSize, query.Get("page_token")
}
