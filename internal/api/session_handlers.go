package api

import (
	"net/http"
	"strings"

	"github.com/officepulse/officepulse/internal/services"
)

type createSessionRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// /api/sessions — GET lists the presenter's sessions, POST creates one.
func (rt *Router) handleSessions(w http.ResponseWriter, r *http.Request) {
	uid, ok := presenterID(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		sessions, err := rt.sessions.ListSessions(uid)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
	case http.MethodPost:
		var req createSessionRequest
		if err := decodeValid(r, &req); err != nil {
			writeServiceError(w, err)
			return
		}
		sess, err := rt.sessions.CreateSession(uid, req.Name)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sess)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleSessionScoped dispatches everything under /api/sessions/:
//
//	GET    /api/sessions/code/{code}                 public join-code lookup
//	GET    /api/sessions/{id}/analytics              aggregated snapshot
//	GET    /api/sessions/{id}/participants           participant list
//	GET    /api/sessions/{id}/stream                 SSE push channel
//	GET    /api/sessions/{id}/stats                  push-channel stats
//	GET    /api/sessions/{id}/export                 owner CSV export
//	POST   /api/sessions/{id}/end                    owner end
//	DELETE /api/sessions/{id}                        owner delete (cascades)
//	DELETE /api/sessions/{id}/participants/{pid}     owner participant removal
func (rt *Router) handleSessionScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	if parts[0] == "code" && len(parts) == 2 && r.Method == http.MethodGet {
		rt.handleSessionByCode(w, parts[1])
		return
	}
	id := parts[0]
	if len(parts) == 1 {
		if r.Method != http.MethodDelete {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		uid, ok := presenterID(w, r)
		if !ok {
			return
		}
		if err := rt.sessions.DeleteSession(uid, id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}
	switch parts[1] {
	case "analytics":
		rt.handleAnalytics(w, r, id)
	case "participants":
		rt.handleParticipants(w, r, id, parts)
	case "stream":
		rt.handleStream(w, r, id)
	case "stats":
		rt.handleStats(w, r, id)
	case "export":
		rt.handleExport(w, r, id)
	case "end":
		rt.handleEnd(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (rt *Router) handleSessionByCode(w http.ResponseWriter, code string) {
	sess, err := rt.sessions.GetByCode(code)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	// Join-code lookup is public; keep the owner out of the payload.
	public := *sess
	public.OwnerID = ""
	writeJSON(w, http.StatusOK, &public)
}

func (rt *Router) handleAnalytics(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap, err := rt.analytics.Snapshot(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// GET /api/sessions/{id}/stats — live push-channel stats for one session.
func (rt *Router) handleStats(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":  id,
		"subscribers": rt.hub.SubscriberCount(id),
	})
}

func (rt *Router) handleParticipants(w http.ResponseWriter, r *http.Request, id string, parts []string) {
	switch {
	case r.Method == http.MethodGet && len(parts) == 2:
		ps, err := rt.sessions.Participants(id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"session_id": id, "participants": ps})
	case r.Method == http.MethodDelete && len(parts) == 3:
		uid, ok := presenterID(w, r)
		if !ok {
			return
		}
		if err := rt.sessions.RemoveParticipant(uid, id, parts[2]); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// GET /api/sessions/{id}/export — owner-only CSV download.
func (rt *Router) handleExport(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	uid, ok := presenterID(w, r)
	if !ok {
		return
	}
	sess, err := rt.store.GetSession(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if sess == nil {
		writeServiceError(w, services.NewNotFoundError("session not found"))
		return
	}
	if sess.OwnerID != uid {
		writeServiceError(w, services.NewForbiddenError("forbidden"))
		return
	}
	ps, err := rt.store.ListParticipants(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	b, err := services.ExportParticipantsCSV(ps)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=participants.csv")
	_, _ = w.Write(b)
}

func (rt *Router) handleEnd(w http.ResponseWriter, r *http.Request, id string) {
	if !requirePost(w, r) {
		return
	}
	uid, ok := presenterID(w, r)
	if !ok {
		return
	}
	sess, err := rt.sessions.EndSession(uid, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}
