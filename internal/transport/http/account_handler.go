package http

import (
	"net/http"

	"langquiz-service/internal/app"
	"langquiz-service/internal/logger"
)

type AccountHandler struct {
	accounts *app.AccountService
	log      *logger.Logger
}

func NewAccountHandler(accounts *app.AccountService, log *logger.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, log: log}
}

// Me returns the authenticated account.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.GetUser(r.Context(), caller(r).UserID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, userView{ID: user.ID, Email: user.Email, Role: user.Role})
}
