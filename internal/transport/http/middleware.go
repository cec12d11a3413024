package http

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"langquiz-service/internal/auth"
	"langquiz-service/internal/domain"
	"langquiz-service/internal/logger"
)

// TokenVerifier resolves a bearer token to the caller identity.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

type authMiddleware struct {
	verifier TokenVerifier
	log      *logger.Logger
}

// require authenticates the request from its Authorization header and
// enforces role. An empty role admits any authenticated caller.
func (m authMiddleware) require(role domain.Role, next http.HandlerFunc) http.HandlerFunc {
	return m.authenticate(role, false, next)
}

// requireStream is require for websocket upgrades, which may also carry the
// token as the access_token query parameter: browsers cannot set headers on
// the upgrade request.
func (m authMiddleware) requireStream(role domain.Role, next http.HandlerFunc) http.HandlerFunc {
	return m.authenticate(role, true, next)
}

func (m authMiddleware) authenticate(role domain.Role, allowQuery bool, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" && allowQuery {
			token = r.URL.Query().Get("access_token")
		}
		if token == "" {
			writeError(w, r, m.log, domain.ErrUnauthenticated)
			return
		}
		id, err := m.verifier.Verify(token)
		if err != nil {
			writeError(w, r, m.log, err)
			return
		}
		if role != "" && id.Role != role {
			writeError(w, r, m.log, domain.ErrForbidden)
			return
		}
		next(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// caller returns the identity placed on the context by require.
func caller(r *http.Request) auth.Identity {
	id, _ := auth.FromContext(r.Context())
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Hijack keeps websocket upgrades working behind the recorder.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	s.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

const requestIDHeader = "X-Request-ID"

// logRequests tags each request with an id, echoing a caller-supplied one.
func logRequests(log *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Debug("http request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
