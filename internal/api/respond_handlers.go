package api

import "net/http"

type joinRequest struct {
	Code       string `json:"code" validate:"required,alphanum,len=6"`
	Name       string `json:"name" validate:"required,max=80"`
	Generation string `json:"generation" validate:"required"`
}

type answerRequest struct {
	SessionID     string `json:"session_id" validate:"required"`
	ParticipantID string `json:"participant_id" validate:"required"`
	QuestionIndex *int   `json:"question_index" validate:"required"`
	AnswerID      string `json:"answer_id" validate:"required"`
}

type completeRequest struct {
	SessionID     string `json:"session_id" validate:"required"`
	ParticipantID string `json:"participant_id" validate:"required"`
}

// POST /api/join — { code, name, generation }
func (rt *Router) handleJoin(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req joinRequest
	if err := decodeValid(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	p, err := rt.responses.Join(req.Code, req.Name, req.Generation)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// POST /api/answers — { session_id, participant_id, question_index, answer_id }
func (rt *Router) handleAnswer(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req answerRequest
	if err := decodeValid(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	p, err := rt.responses.SaveAnswer(req.SessionID, req.ParticipantID, *req.QuestionIndex, req.AnswerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// POST /api/complete — { session_id, participant_id }
func (rt *Router) handleComplete(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req completeRequest
	if err := decodeValid(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	p, err := rt.responses.Complete(req.SessionID, req.ParticipantID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
