package http

import (
	"net/http"

	"github.com/rs/cors"
	"langquiz-service/internal/app"
	"langquiz-service/internal/domain"
	"langquiz-service/internal/logger"
)

// Deps are the services the HTTP surface is built from.
type Deps struct {
	Accounts       *app.AccountService
	Learners       *app.LearnerService
	Attempts       *app.AttemptService
	Creators       *app.CreatorService
	Hub            *app.ProgressHub
	Verifier       TokenVerifier
	Log            *logger.Logger
	AllowedOrigins []string
}

// NewRouter wires every route behind CORS and request logging.
func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	authn := authMiddleware{verifier: d.Verifier, log: log}
	learner := NewLearnerHandler(d.Learners, d.Attempts, log)
	creator := NewCreatorHandler(d.Creators, log)
	accounts := NewAccountHandler(d.Accounts, log)

	c := cors.New(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	ws := NewProgressWSHandler(d.Hub, d.Learners, log, originChecker(d.AllowedOrigins))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /api/me", authn.require("", accounts.Me))

	// Learner
	mux.HandleFunc("GET /api/learner/profile", authn.require(domain.RoleLearner, learner.GetProfile))
	mux.HandleFunc("PUT /api/learner/profile", authn.require(domain.RoleLearner, learner.PutProfile))
	mux.HandleFunc("POST /api/learner/profile", authn.require(domain.RoleLearner, learner.PutProfile))
	mux.HandleFunc("GET /api/feed", authn.require(domain.RoleLearner, learner.Feed))
	mux.HandleFunc("GET /api/content/{id}/quiz", authn.require(domain.RoleLearner, learner.Quiz))
	mux.HandleFunc("POST /api/content/{id}/attempt", authn.require(domain.RoleLearner, learner.SubmitAttempt))
	mux.HandleFunc("GET /api/attempts/{id}", authn.require(domain.RoleLearner, learner.GetAttempt))
	mux.HandleFunc("GET /api/progress", authn.require(domain.RoleLearner, learner.Progress))
	mux.HandleFunc("GET /ws/progress", authn.requireStream(domain.RoleLearner, ws.ServeWS))

	// Creator
	mux.HandleFunc("GET /api/creator/content", authn.require(domain.RoleCreator, creator.ListContent))
	mux.HandleFunc("POST /api/creator/content", authn.require(domain.RoleCreator, creator.CreateContent))
	mux.HandleFunc("GET /api/creator/content/{id}/quiz", authn.require(domain.RoleCreator, creator.GetQuiz))
	mux.HandleFunc("PUT /api/creator/content/{id}/quiz", authn.require(domain.RoleCreator, creator.PutQuiz))
	mux.HandleFunc("POST /api/creator/content/{id}/quiz", authn.require(domain.RoleCreator, creator.PutQuiz))
	mux.HandleFunc("POST /api/creator/content/{id}/publish", authn.require(domain.RoleCreator, creator.Publish))

	return logRequests(log, c.Handler(mux))
}

// originChecker applies the CORS allow-list to websocket upgrades. An empty
// list allows any origin, matching the CORS default.
func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set["*"]; ok {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
