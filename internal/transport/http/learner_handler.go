package http

import (
	"net/http"

	"langquiz-service/internal/app"
	"langquiz-service/internal/domain"
	"langquiz-service/internal/logger"
)

// LearnerHandler serves the learner-facing JSON API.
type LearnerHandler struct {
	learners *app.LearnerService
	attempts *app.AttemptService
	log      *logger.Logger
}

func NewLearnerHandler(learners *app.LearnerService, attempts *app.AttemptService, log *logger.Logger) *LearnerHandler {
	return &LearnerHandler{learners: learners, attempts: attempts, log: log}
}

func (h *LearnerHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.learners.GetProfile(r.Context(), caller(r).UserID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, newProfileView(profile))
}

func (h *LearnerHandler) PutProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	profile, err := h.learners.SaveProfile(r.Context(), caller(r).UserID, req.TargetLanguage, req.Level)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, newProfileView(profile))
}

// Feed serves GET /api/feed?cursor=&limit=.
func (h *LearnerHandler) Feed(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, app.DefaultFeedLimit)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	page, err := h.learners.Feed(r.Context(), caller(r).UserID, r.URL.Query().Get("cursor"), limit)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	out := feedView{Items: make([]contentView, 0, len(page.Items)), NextCursor: page.NextCursor}
	for _, c := range page.Items {
		out.Items = append(out.Items, newContentView(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *LearnerHandler) Quiz(w http.ResponseWriter, r *http.Request) {
	contentID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	quiz, err := h.learners.QuizForAttempt(r.Context(), contentID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, newLearnerQuizView(quiz))
}

// SubmitAttempt serves POST /api/content/{id}/attempt.
func (h *LearnerHandler) SubmitAttempt(w http.ResponseWriter, r *http.Request) {
	contentID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	var req attemptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	result, err := h.attempts.Submit(r.Context(), caller(r).UserID, domain.AttemptSubmission{
		ContentID: contentID,
		Answers:   req.Answers,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *LearnerHandler) GetAttempt(w http.ResponseWriter, r *http.Request) {
	attemptID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	attempt, err := h.attempts.GetAttempt(r.Context(), caller(r).UserID, attemptID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, newAttemptView(attempt))
}

func (h *LearnerHandler) Progress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.learners.Progress(r.Context(), caller(r).UserID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, newProgressView(progress))
}
