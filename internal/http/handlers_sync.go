package http

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"renewals/internal/sheets"
)

type syncResponse struct {
	Queued bool `json:"queued"`
	Pushed int  `json:"pushed"`
}

type settingsRequest struct {
	SheetURL  string `json:"sheetUrl"`
	APIKey    string `json:"apiKey"`
	SheetName string `json:"sheetName"`
}

// settingsView is the stored connection with the API key masked.
type settingsView struct {
	SheetURL      string `json:"sheetUrl"`
	SpreadsheetID string `json:"spreadsheetId"`
	SheetName     string `json:"sheetName"`
	HasAPIKey     bool   `json:"hasApiKey"`
}

func viewOf(st sheets.Settings) settingsView {
	return settingsView{
		SheetURL:      st.SheetURL,
		SpreadsheetID: st.SpreadsheetID,
		SheetName:     st.SheetName,
		HasAPIKey:     st.APIKey != "",
	}
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	reason := strings.TrimSpace(body.Reason)
	if reason == "" {
		reason = "manual"
	}

	queued, n, err := s.sync.RequestPush(r.Context(), reason)
	switch {
	case errors.Is(err, sheets.ErrNotConnected):
		writeError(w, r, http.StatusConflict, "no spreadsheet connected", nil)
	case errors.Is(err, sheets.ErrMissingAPIKey):
		writeError(w, r, http.StatusConflict, "no google credentials configured", nil)
	case err != nil:
		writeError(w, r, http.StatusBadGateway, "sheets push failed", err)
	case queued:
		writeJSON(w, http.StatusAccepted, syncResponse{Queued: true})
	default:
		writeJSON(w, http.StatusOK, syncResponse{Pushed: n})
	}
}

// rejectSync answers a client that pushes more often than the limiter allows.
func (s *Server) rejectSync(w http.ResponseWriter, r *http.Request, retry time.Duration) {
	w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
	writeError(w, r, http.StatusTooManyRequests, "too many sync requests, try again later", nil)
}

func (s *Server) handleGetSyncSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.sync.Settings(r.Context())
	if errors.Is(err, sheets.ErrNotConnected) {
		writeError(w, r, http.StatusNotFound, "no spreadsheet connected", nil)
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "load sheets settings failed", err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(st))
}

func (s *Server) handleConnectSheets(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	st, err := s.sync.Connect(r.Context(), req.SheetURL, req.APIKey, req.SheetName)
	switch {
	case errors.Is(err, sheets.ErrInvalidSheetURL):
		writeError(w, r, http.StatusUnprocessableEntity, "invalid sheets settings", err)
	case err != nil:
		writeError(w, r, http.StatusInternalServerError, "save sheets settings failed", err)
	default:
		writeJSON(w, http.StatusOK, viewOf(st))
	}
}

func (s *Server) handleDisconnectSheets(w http.ResponseWriter, r *http.Request) {
	if err := s.sync.Disconnect(r.Context()); err != nil {
		writeError(w, r, http.StatusInternalServerError, "disconnect failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
