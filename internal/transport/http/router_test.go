package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"langquiz-service/internal/app"
	"langquiz-service/internal/auth"
	"langquiz-service/internal/domain"
	"langquiz-service/internal/infra/memory"
	"langquiz-service/internal/logger"
)

type testEnv struct {
	server   *httptest.Server
	issuer   *auth.Issuer
	accounts *app.AccountService
	hub      *app.ProgressHub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	cache := memory.NewQuizCache(store, time.Minute)
	hub := app.NewProgressHub()
	log := logger.Nop()
	issuer, err := auth.NewIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	learners := app.NewLearnerService(store, cache)
	env := &testEnv{
		issuer:   issuer,
		accounts: app.NewAccountService(store),
		hub:      hub,
	}
	env.server = httptest.NewServer(NewRouter(Deps{
		Accounts: env.accounts,
		Learners: learners,
		Attempts: app.NewAttemptService(store, hub, log),
		Creators: app.NewCreatorService(store, cache, log),
		Hub:      hub,
		Verifier: issuer,
		Log:      log,
	}))
	t.Cleanup(env.server.Close)
	return env
}

func (e *testEnv) user(t *testing.T, email string, role domain.Role) (domain.User, string) {
	t.Helper()
	u, err := e.accounts.CreateUser(context.Background(), email, role)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	token, err := e.issuer.Issue(u.ID, u.Role)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return u, token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

// publishQuiz creates a published item with three questions whose correct
// options are 0, 1 and 2, returning its id and question ids.
func (e *testEnv) publishQuiz(t *testing.T, creatorToken string, language, level string) (int64, []int64) {
	t.Helper()
	status, body := e.do(t, http.MethodPost, "/api/creator/content", creatorToken, map[string]any{
		"language": language, "level": level, "title": "Greetings", "video_url": "https://cdn.example.com/v.mp4",
	})
	if status != http.StatusCreated {
		t.Fatalf("create content: %d %v", status, body)
	}
	contentID := int64(body["id"].(float64))
	path := "/api/creator/content/" + strconv.FormatInt(contentID, 10)

	opts := []string{"a", "b", "c"}
	status, body = e.do(t, http.MethodPut, path+"/quiz", creatorToken, map[string]any{
		"questions": []map[string]any{
			{"prompt": "q1", "options": opts, "correct_option_index": 0},
			{"prompt": "q2", "options": opts, "correct_option_index": 1},
			{"prompt": "q3", "options": opts, "correct_option_index": 2},
		},
	})
	if status != http.StatusOK {
		t.Fatalf("put quiz: %d %v", status, body)
	}
	var questionIDs []int64
	for _, q := range body["questions"].([]any) {
		questionIDs = append(questionIDs, int64(q.(map[string]any)["id"].(float64)))
	}

	status, body = e.do(t, http.MethodPost, path+"/publish", creatorToken, nil)
	if status != http.StatusOK || body["status"] != "published" {
		t.Fatalf("publish: %d %v", status, body)
	}
	return contentID, questionIDs
}

func TestLearnerFlow(t *testing.T) {
	env := newTestEnv(t)
	_, creatorToken := env.user(t, "creator@example.com", domain.RoleCreator)
	_, learnerToken := env.user(t, "learner@example.com", domain.RoleLearner)
	contentID, questionIDs := env.publishQuiz(t, creatorToken, "es", "A1")

	status, body := env.do(t, http.MethodGet, "/api/feed", learnerToken, nil)
	if status != http.StatusPreconditionFailed {
		t.Fatalf("expected 412 before onboarding, got %d %v", status, body)
	}

	status, body = env.do(t, http.MethodPut, "/api/learner/profile", learnerToken, map[string]any{
		"target_language": "es", "level": "A1",
	})
	if status != http.StatusOK {
		t.Fatalf("put profile: %d %v", status, body)
	}

	status, body = env.do(t, http.MethodGet, "/api/feed", learnerToken, nil)
	if status != http.StatusOK {
		t.Fatalf("feed: %d %v", status, body)
	}
	items := body["items"].([]any)
	if len(items) != 1 || int64(items[0].(map[string]any)["id"].(float64)) != contentID {
		t.Fatalf("unexpected feed %v", body)
	}
	if body["next_cursor"] != nil {
		t.Fatalf("expected no next cursor, got %v", body["next_cursor"])
	}

	quizPath := "/api/content/" + strconv.FormatInt(contentID, 10)
	status, body = env.do(t, http.MethodGet, quizPath+"/quiz", learnerToken, nil)
	if status != http.StatusOK {
		t.Fatalf("get quiz: %d %v", status, body)
	}
	content, ok := body["content"].(map[string]any)
	if !ok || int64(content["id"].(float64)) != contentID || content["title"] != "Greetings" {
		t.Fatalf("expected nested content summary, got %v", body)
	}
	learnerQuiz, ok := body["quiz"].(map[string]any)
	if !ok || learnerQuiz["id"] == nil {
		t.Fatalf("expected nested quiz, got %v", body)
	}
	for _, q := range learnerQuiz["questions"].([]any) {
		if _, leaked := q.(map[string]any)["correct_option_index"]; leaked {
			t.Fatalf("answer key leaked to learner: %v", q)
		}
	}

	// two of three correct -> 66%, below the bonus threshold
	status, body = env.do(t, http.MethodPost, quizPath+"/attempt", learnerToken, map[string]any{
		"answers": []map[string]any{
			{"question_id": questionIDs[0], "selected_index": 0},
			{"question_id": questionIDs[1], "selected_index": 1},
			{"question_id": questionIDs[2], "selected_index": 0},
		},
	})
	if status != http.StatusCreated {
		t.Fatalf("attempt: %d %v", status, body)
	}
	if body["score_percent"].(float64) != 66 || body["xp_awarded"].(float64) != 30 {
		t.Fatalf("unexpected attempt result %v", body)
	}
	streak := body["streak"].(map[string]any)
	if streak["current_streak_days"].(float64) != 1 || streak["last_active_date_utc"] == nil {
		t.Fatalf("unexpected streak %v", streak)
	}
	attemptID := int64(body["attempt_id"].(float64))

	status, body = env.do(t, http.MethodGet, "/api/progress", learnerToken, nil)
	if status != http.StatusOK {
		t.Fatalf("progress: %d %v", status, body)
	}
	if body["total_xp"].(float64) != 30 || len(body["recent_attempts"].([]any)) != 1 {
		t.Fatalf("unexpected progress %v", body)
	}

	status, body = env.do(t, http.MethodGet, "/api/attempts/"+strconv.FormatInt(attemptID, 10), learnerToken, nil)
	if status != http.StatusOK || body["xp_awarded"].(float64) != 30 {
		t.Fatalf("get attempt: %d %v", status, body)
	}

	_, otherToken := env.user(t, "other@example.com", domain.RoleLearner)
	status, _ = env.do(t, http.MethodGet, "/api/attempts/"+strconv.FormatInt(attemptID, 10), otherToken, nil)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign attempt, got %d", status)
	}
}

func TestAttemptErrors(t *testing.T) {
	env := newTestEnv(t)
	_, creatorToken := env.user(t, "creator@example.com", domain.RoleCreator)
	_, learnerToken := env.user(t, "learner@example.com", domain.RoleLearner)
	contentID, questionIDs := env.publishQuiz(t, creatorToken, "fr", "B1")
	path := "/api/content/" + strconv.FormatInt(contentID, 10) + "/attempt"

	status, body := env.do(t, http.MethodPost, path, learnerToken, map[string]any{
		"answers": []map[string]any{
			{"question_id": questionIDs[0], "selected_index": 3},
			{"question_id": questionIDs[1], "selected_index": 0},
			{"question_id": questionIDs[2], "selected_index": 0},
		},
	})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for out-of-range index, got %d %v", status, body)
	}
	envelope := body["error"].(map[string]any)
	if envelope["code"] != "validation_error" {
		t.Fatalf("unexpected envelope %v", envelope)
	}

	status, _ = env.do(t, http.MethodPost, "/api/content/9999/attempt", learnerToken, map[string]any{"answers": []any{}})
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown content, got %d", status)
	}

	status, body = env.do(t, http.MethodPost, "/api/creator/content", creatorToken, map[string]any{
		"language": "fr", "level": "B1", "title": "Draft", "video_url": "v",
	})
	if status != http.StatusCreated {
		t.Fatalf("create draft: %d %v", status, body)
	}
	draftPath := "/api/content/" + strconv.FormatInt(int64(body["id"].(float64)), 10) + "/attempt"
	status, _ = env.do(t, http.MethodPost, draftPath, learnerToken, map[string]any{"answers": []any{}})
	if status != http.StatusConflict {
		t.Fatalf("expected 409 for draft content, got %d", status)
	}

	status, _ = env.do(t, http.MethodPost, path, learnerToken, nil)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for missing body, got %d", status)
	}
}

func TestAuthAndRoles(t *testing.T) {
	env := newTestEnv(t)
	_, learnerToken := env.user(t, "learner@example.com", domain.RoleLearner)
	_, creatorToken := env.user(t, "creator@example.com", domain.RoleCreator)

	status, body := env.do(t, http.MethodGet, "/api/progress", "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}
	if body["error"].(map[string]any)["code"] != "unauthenticated" {
		t.Fatalf("unexpected envelope %v", body)
	}

	status, _ = env.do(t, http.MethodGet, "/api/progress", "garbage", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", status)
	}

	status, _ = env.do(t, http.MethodGet, "/api/creator/content", learnerToken, nil)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 for learner on creator route, got %d", status)
	}
	status, _ = env.do(t, http.MethodGet, "/api/feed", creatorToken, nil)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 for creator on learner route, got %d", status)
	}

	status, body = env.do(t, http.MethodGet, "/api/me", creatorToken, nil)
	if status != http.StatusOK || body["role"] != "creator" {
		t.Fatalf("me: %d %v", status, body)
	}
}

func TestCreatorQuizRules(t *testing.T) {
	env := newTestEnv(t)
	_, creatorToken := env.user(t, "creator@example.com", domain.RoleCreator)
	_, otherToken := env.user(t, "other@example.com", domain.RoleCreator)

	status, body := env.do(t, http.MethodPost, "/api/creator/content", creatorToken, map[string]any{
		"language": "en", "level": "C1", "title": "Idioms", "video_url": "v",
	})
	if status != http.StatusCreated {
		t.Fatalf("create: %d %v", status, body)
	}
	path := "/api/creator/content/" + strconv.FormatInt(int64(body["id"].(float64)), 10)

	status, _ = env.do(t, http.MethodPost, path+"/publish", creatorToken, nil)
	if status != http.StatusConflict {
		t.Fatalf("expected 409 publishing without quiz, got %d", status)
	}

	tooFew := map[string]any{"questions": []map[string]any{
		{"prompt": "q1", "options": []string{"a", "b"}, "correct_option_index": 0},
	}}
	status, _ = env.do(t, http.MethodPut, "/api/creator/content/9999/quiz", creatorToken, tooFew)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected body validation before existence check, got %d", status)
	}

	valid := map[string]any{"questions": []map[string]any{
		{"prompt": "q1", "options": []string{"a", "b"}, "correct_option_index": 0},
		{"prompt": "q2", "options": []string{"a", "b"}, "correct_option_index": 1},
		{"prompt": "q3", "options": []string{"a", "b"}, "correct_option_index": 0},
	}}
	status, _ = env.do(t, http.MethodPut, path+"/quiz", otherToken, valid)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign content, got %d", status)
	}
	status, body = env.do(t, http.MethodPut, path+"/quiz", creatorToken, valid)
	if status != http.StatusOK {
		t.Fatalf("put quiz: %d %v", status, body)
	}
	if body["question_count"] != float64(3) || body["quiz_id"] == nil {
		t.Fatalf("expected quiz_id and question_count, got %v", body)
	}
	firstQuizID := body["quiz_id"]

	// POST is accepted as a synonym for the replacement
	status, body = env.do(t, http.MethodPost, path+"/quiz", creatorToken, valid)
	if status != http.StatusOK || body["question_count"] != float64(3) {
		t.Fatalf("post quiz: %d %v", status, body)
	}
	if body["quiz_id"] == firstQuizID {
		t.Fatalf("expected a new quiz id after replacement, got %v", body["quiz_id"])
	}
	status, body = env.do(t, http.MethodGet, path+"/quiz", creatorToken, nil)
	if status != http.StatusOK {
		t.Fatalf("get quiz: %d %v", status, body)
	}
	first := body["questions"].([]any)[0].(map[string]any)
	if _, ok := first["correct_option_index"]; !ok {
		t.Fatalf("creator view must include the answer key")
	}

	for i := 0; i < 2; i++ {
		status, body = env.do(t, http.MethodPost, path+"/publish", creatorToken, nil)
		if status != http.StatusOK || body["published_at"] == nil {
			t.Fatalf("publish %d: %d %v", i, status, body)
		}
	}
}

func TestFeedLimitValidation(t *testing.T) {
	env := newTestEnv(t)
	_, learnerToken := env.user(t, "learner@example.com", domain.RoleLearner)
	env.do(t, http.MethodPut, "/api/learner/profile", learnerToken, map[string]any{"target_language": "en", "level": "A2"})

	status, _ := env.do(t, http.MethodGet, "/api/feed?limit=abc", learnerToken, nil)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for non-integer limit, got %d", status)
	}
	status, body := env.do(t, http.MethodGet, "/api/feed?limit=500&cursor=%21%21", learnerToken, nil)
	if status != http.StatusOK {
		t.Fatalf("expected clamped limit and ignored cursor, got %d %v", status, body)
	}
	if items, ok := body["items"].([]any); !ok || len(items) != 0 {
		t.Fatalf("expected empty item list, got %v", body["items"])
	}
}

func TestWriteErrorHidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/progress", nil)
	writeError(rec, req, logger.Nop(), errors.New("pq: connection refused to 10.0.0.3"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "10.0.0.3") {
		t.Fatalf("internal detail leaked: %s", body)
	}
	if !strings.Contains(body, `"internal_error"`) || !strings.Contains(body, internalErrorMessage) {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatalf("expected generated request id")
	}

	req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("expected echoed request id, got %q", got)
	}
}

func TestProfileAcceptsPost(t *testing.T) {
	env := newTestEnv(t)
	_, learnerToken := env.user(t, "learner@example.com", domain.RoleLearner)

	status, body := env.do(t, http.MethodPost, "/api/learner/profile", learnerToken, map[string]any{
		"target_language": "fr", "level": "B1",
	})
	if status != http.StatusOK || body["target_language"] != "fr" || body["level"] != "B1" {
		t.Fatalf("post profile: %d %v", status, body)
	}
	status, body = env.do(t, http.MethodGet, "/api/learner/profile", learnerToken, nil)
	if status != http.StatusOK || body["level"] != "B1" {
		t.Fatalf("get profile: %d %v", status, body)
	}
}

func TestQueryTokenOnlyOnWebSocket(t *testing.T) {
	env := newTestEnv(t)
	_, learnerToken := env.user(t, "learner@example.com", domain.RoleLearner)

	status, body := env.do(t, http.MethodGet, "/api/progress?access_token="+learnerToken, "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for query token on a plain route, got %d %v", status, body)
	}
	status, _ = env.do(t, http.MethodGet, "/api/progress", learnerToken, nil)
	if status != http.StatusOK {
		t.Fatalf("expected header token accepted, got %d", status)
	}
}
