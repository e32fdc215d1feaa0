package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/zeal-league/internal/domain/credit"
	"github.com/riskibarqy/zeal-league/internal/domain/notification"
	"github.com/riskibarqy/zeal-league/internal/domain/user"
	"github.com/riskibarqy/zeal-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/zeal-league/internal/platform/id"
	"github.com/riskibarqy/zeal-league/internal/platform/lock"
	"github.com/riskibarqy/zeal-league/internal/platform/logging"
	"github.com/riskibarqy/zeal-league/internal/usecase"
)

const testJobToken = "job-secret"

type staticVerifier map[string]user.Principal

func (v staticVerifier) VerifyAccessToken(_ context.Context, token string) (user.Principal, error) {
	p, ok := v[token]
	if !ok {
		return user.Principal{}, fmt.Errorf("%w: %w", usecase.ErrUnauthorized, user.ErrTokenInvalid)
	}
	return p, nil
}

type nopSender struct{}

func (nopSender) Send(context.Context, notification.Message) error { return nil }

type apiFixture struct {
	router http.Handler
	users  *memory.UserRepository
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	logger := logging.NewNop()
	games := memory.NewGameRepository()
	users := memory.NewUserRepository()
	admins := memory.NewAdminRepository(memory.SeedAdmins()...)
	locker := lock.NewKeyedMutex(time.Second)

	ctx := context.Background()
	for _, u := range []user.User{
		{ID: "u-rich", Email: "rich@zeal.test", FirstName: "Rich", Credits: []credit.Lot{{Amount: 3, Type: credit.LotTypePermanent}}},
		{ID: "u-broke", Email: "broke@zeal.test", FirstName: "Broke"},
	} {
		if err := users.Create(ctx, u); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}

	notifier := usecase.NewNotificationDispatcher(nopSender{}, 1, logger)
	aggregator := usecase.NewStatsAggregator(users, locker, 2, logger)
	handler := NewHandler(
		usecase.NewGameService(games, admins, id.NewUUIDGenerator(), time.UTC, logger),
		usecase.NewSignupService(games, users, locker, notifier, usecase.SignupServiceConfig{}, logger),
		usecase.NewGameStatusService(games, admins, locker, aggregator, logger),
		usecase.NewCreditService(users, locker, 10, logger),
		usecase.NewLeaderboardService(users),
		usecase.NewNotificationDelivery(nopSender{}, logger),
		logger,
	)

	verifier := staticVerifier{
		"admin-token": {UserID: memory.AdminIDDefault, Email: "ops@zealfc.test"},
		"rich-token":  {UserID: "u-rich", Email: "rich@zeal.test"},
		"broke-token": {UserID: "u-broke", Email: "broke@zeal.test"},
	}

	return &apiFixture{
		router: NewRouter(handler, verifier, logger, true, []string{"*"}, testJobToken),
		users:  users,
	}
}

type envelope struct {
	Data  any `json:"data"`
	Error *struct {
		Code   int    `json:"code"`
		Status string `json:"status"`
		Errors []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := sonic.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if strings.HasPrefix(path, "/v1/internal/") {
		req.Header.Set("X-Internal-Job-Token", testJobToken)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && strings.Contains(rec.Header().Get("Content-Type"), "json") {
		if err := sonic.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("unmarshal response: %v body=%s", err, rec.Body.String())
		}
	}
	return rec.Code, env
}

func (e envelope) object() map[string]any {
	m, _ := e.Data.(map[string]any)
	return m
}

// field checks one key of an object response. JSON numbers decode as float64.
func (e envelope) field(t *testing.T, key string, want any) {
	t.Helper()
	if got := e.object()[key]; got != want {
		t.Fatalf("unexpected %s: got=%v (%T) want=%v (%T)", key, got, got, want, want)
	}
}

func assertReason(t *testing.T, env envelope, want string) {
	t.Helper()
	if got := reasonOf(env); got != want {
		t.Fatalf("unexpected error reason: got=%q want=%q", got, want)
	}
}

func reasonOf(env envelope) string {
	if env.Error == nil || len(env.Error.Errors) == 0 {
		return ""
	}
	return env.Error.Errors[0].Reason
}

func (f *apiFixture) createGame(t *testing.T, capacity int) string {
	t.Helper()

	code, env := f.do(t, http.MethodPost, "/v1/games", "admin-token", map[string]any{
		"stadium":          map[string]any{"name": "Gelora", "capacity": capacity},
		"date":             time.Now().UTC().AddDate(0, 0, 30).Format("2006-01-02"),
		"time":             "19:30",
		"duration_minutes": 90,
		"type":             "5v5",
	})
	if code != http.StatusCreated {
		t.Fatalf("unexpected create status: got=%d want=%d reason=%s", code, http.StatusCreated, reasonOf(env))
	}
	gameID, _ := env.object()["id"].(string)
	if gameID == "" {
		t.Fatalf("create response has no id: %+v", env.Data)
	}
	return gameID
}

func TestRouter_CreateGameRequiresAdmin(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	code, env := f.do(t, http.MethodPost, "/v1/games", "rich-token", map[string]any{
		"stadium":          map[string]any{"name": "Gelora", "capacity": 10},
		"date":             "2030-01-01",
		"time":             "19:30",
		"duration_minutes": 90,
		"type":             "5v5",
	})
	if code != http.StatusForbidden {
		t.Fatalf("unexpected status: got=%d want=%d", code, http.StatusForbidden)
	}
	if env.Error == nil || env.Error.Status != "PERMISSION_DENIED" {
		t.Fatalf("unexpected error envelope: %+v", env.Error)
	}
}

func TestRouter_CreateGameValidatesPayload(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	code, env := f.do(t, http.MethodPost, "/v1/games", "admin-token", map[string]any{
		"stadium":          map[string]any{"name": "Gelora", "capacity": 10},
		"date":             "01/01/2030",
		"time":             "19:30",
		"duration_minutes": 90,
		"type":             "5v5",
	})
	if code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got=%d want=%d", code, http.StatusBadRequest)
	}
	assertReason(t, env, "invalidInput")
}

func TestRouter_SignupFlow(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	gameID := f.createGame(t, 2)

	code, env := f.do(t, http.MethodGet, "/v1/games/"+gameID, "", nil)
	if code != http.StatusOK {
		t.Fatalf("unexpected get status: got=%d want=%d", code, http.StatusOK)
	}
	if teams, _ := env.object()["teams"].([]any); len(teams) != 2 {
		t.Fatalf("unexpected team count: got=%d want=2", len(teams))
	}

	code, env = f.do(t, http.MethodPost, "/v1/games/"+gameID+"/signup", "rich-token", nil)
	if code != http.StatusOK {
		t.Fatalf("unexpected signup status: got=%d want=%d reason=%s", code, http.StatusOK, reasonOf(env))
	}
	env.field(t, "credits_available", float64(2))

	code, env = f.do(t, http.MethodPost, "/v1/games/"+gameID+"/signup", "rich-token", nil)
	if code != http.StatusConflict {
		t.Fatalf("unexpected duplicate status: got=%d want=%d", code, http.StatusConflict)
	}
	assertReason(t, env, "alreadySignedUp")

	code, env = f.do(t, http.MethodPost, "/v1/games/"+gameID+"/signup", "broke-token", nil)
	if code != http.StatusPaymentRequired {
		t.Fatalf("unexpected broke status: got=%d want=%d", code, http.StatusPaymentRequired)
	}
	assertReason(t, env, "insufficientCredits")

	code, env = f.do(t, http.MethodDelete, "/v1/games/"+gameID+"/signup", "rich-token", nil)
	if code != http.StatusOK {
		t.Fatalf("unexpected cancel status: got=%d want=%d reason=%s", code, http.StatusOK, reasonOf(env))
	}
	env.field(t, "refunded", true)
	env.field(t, "credits_available", float64(3))
}

func TestRouter_LeaveWaitlistWhenNotQueued(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	gameID := f.createGame(t, 2)

	code, env := f.do(t, http.MethodDelete, "/v1/games/"+gameID+"/waitlist", "rich-token", nil)
	if code != http.StatusNotFound {
		t.Fatalf("unexpected status: got=%d want=%d", code, http.StatusNotFound)
	}
	assertReason(t, env, "notOnWaitlist")
}

func TestRouter_RequireAuth(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	tests := []struct {
		name   string
		token  string
		reason string
	}{
		{name: "missing", token: "", reason: "tokenMissing"},
		{name: "unknown", token: "nope", reason: "unauthorized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			code, env := f.do(t, http.MethodGet, "/v1/me", tt.token, nil)
			if code != http.StatusUnauthorized {
				t.Fatalf("unexpected status: got=%d want=%d", code, http.StatusUnauthorized)
			}
			assertReason(t, env, tt.reason)
		})
	}
}

func TestRouter_GetMyProfile(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	code, env := f.do(t, http.MethodGet, "/v1/me", "rich-token", nil)
	if code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d", code, http.StatusOK)
	}
	env.field(t, "email", "rich@zeal.test")
	env.field(t, "credits_available", float64(3))
}

func TestRouter_GrantCreditsIsIdempotent(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	body := map[string]any{
		"grant_id": "inv-1",
		"user_id":  "u-broke",
		"type":     "permanent",
		"amount":   2,
	}

	code, env := f.do(t, http.MethodPost, "/v1/internal/credits/grants", "", body)
	if code != http.StatusCreated {
		t.Fatalf("unexpected first grant status: got=%d want=%d reason=%s", code, http.StatusCreated, reasonOf(env))
	}
	env.field(t, "credits_available", float64(2))

	code, env = f.do(t, http.MethodPost, "/v1/internal/credits/grants", "", body)
	if code != http.StatusOK {
		t.Fatalf("unexpected replay status: got=%d want=%d", code, http.StatusOK)
	}
	env.field(t, "applied", false)
	env.field(t, "credits_available", float64(2))
}

func TestRouter_InternalRoutesRejectWrongToken(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/internal/credits/grants", strings.NewReader(`{}`))
	req.Header.Set("X-Internal-Job-Token", "wrong")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRouter_LeaderboardRejectsBadLimit(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	code, _ := f.do(t, http.MethodGet, "/v1/leaderboard?limit=0", "", nil)
	if code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got=%d want=%d", code, http.StatusBadRequest)
	}

	code, env := f.do(t, http.MethodGet, "/v1/leaderboard?limit=5", "", nil)
	if code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d", code, http.StatusOK)
	}
	if env.Error != nil {
		t.Fatalf("unexpected error envelope: %+v", env.Error)
	}
	items, ok := env.Data.([]any)
	if !ok || len(items) == 0 {
		t.Fatalf("leaderboard data must be a non-empty list, got %T", env.Data)
	}
}
