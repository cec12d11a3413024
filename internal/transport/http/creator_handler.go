package http

import (
	"net/http"

	"langquiz-service/internal/app"
	"langquiz-service/internal/logger"
)

// CreatorHandler serves content authoring endpoints.
type CreatorHandler struct {
	creators *app.CreatorService
	log      *logger.Logger
}

func NewCreatorHandler(creators *app.CreatorService, log *logger.Logger) *CreatorHandler {
	return &CreatorHandler{creators: creators, log: log}
}

func (h *CreatorHandler) ListContent(w http.ResponseWriter, r *http.Request) {
	items, err := h.creators.ListContent(r.Context(), caller(r).UserID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	out := make([]creatorContentView, 0, len(items))
	for _, c := range items {
		out = append(out, newCreatorContentView(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (h *CreatorHandler) CreateContent(w http.ResponseWriter, r *http.Request) {
	var req contentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	content, err := h.creators.CreateContent(r.Context(), caller(r).UserID, req.toInput())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCreatorContentView(content))
}

func (h *CreatorHandler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	contentID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	quiz, err := h.creators.CreatorQuiz(r.Context(), caller(r).UserID, contentID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, newCreatorQuizView(quiz))
}

// PutQuiz replaces the whole quiz; the body is validated before the content
// is looked up.
func (h *CreatorHandler) PutQuiz(w http.ResponseWriter, r *http.Request) {
	contentID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	var req quizRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	questions, err := req.toInput()
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	quiz, err := h.creators.ReplaceQuiz(r.Context(), caller(r).UserID, contentID, questions)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, newReplaceQuizView(quiz))
}

func (h *CreatorHandler) Publish(w http.ResponseWriter, r *http.Request) {
	contentID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	content, err := h.creators.Publish(r.Context(), caller(r).UserID, contentID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, newCreatorContentView(content))
}
