package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance-tracker/internal/auth"
	"attendance-tracker/internal/domain"
	"attendance-tracker/internal/repository"
	"attendance-tracker/internal/repository/sqlite"
	"attendance-tracker/internal/service"
	"attendance-tracker/internal/storage"
)

var fixedNow = time.Date(2024, time.January, 2, 12, 0, 0, 0, time.UTC)

type apiEnv struct {
	router   *gin.Engine
	users    service.UserService
	sessions *auth.Sessions
	tokens   map[string]string
	ids      map[string]string
}

type envOptions struct {
	archive     storage.Service
	wrapRecords func(repository.RecordRepository) repository.RecordRepository
}

func newAPIEnv(t *testing.T, opts envOptions) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqlite.Migrate(ctx, db))

	l := logrus.New()
	l.SetOutput(io.Discard)
	log := logrus.NewEntry(l)

	userRepo := sqlite.NewUserRepository(db)
	var records repository.RecordRepository = sqlite.NewRecordRepository(db, time.UTC)
	if opts.wrapRecords != nil {
		records = opts.wrapRecords(records)
	}

	sessions, err := auth.NewSessions("test-secret", time.Hour)
	require.NoError(t, err)

	users := service.NewUserService(userRepo, service.UserServiceConfig{EmailDomain: "qq.com"}, log)
	deps := Deps{
		Users:        users,
		Records:      service.NewRecordService(records, userRepo, time.UTC, log, service.WithClock(func() time.Time { return fixedNow })),
		Verification: service.NewVerificationService(records, log),
		Reports:      service.NewReportService(records),
		Sessions:     sessions,
		Location:     time.UTC,
		Logger:       log,
	}
	if opts.archive != nil {
		deps.Archive = storage.NewArchive(opts.archive, "reports-bucket", "reports", log)
	}

	router := gin.New()
	NewHandler(deps).RegisterRoutes(router)

	env := &apiEnv{router: router, users: users, sessions: sessions, tokens: map[string]string{}, ids: map[string]string{}}
	env.addUser(t, "boss", domain.RoleAdmin)
	env.addUser(t, "alice", domain.RoleMember)
	return env
}

func (e *apiEnv) addUser(t *testing.T, name string, role domain.Role) {
	t.Helper()
	u, err := e.users.Bootstrap(context.Background(), service.NewUserInput{
		Username: name, Password: "password1", Password2: "password1", Email: name + "@qq.com", Role: role,
	})
	require.NoError(t, err)
	token, err := e.sessions.Issue(u.ID, string(u.Role))
	require.NoError(t, err)
	e.tokens[name] = token
	e.ids[name] = u.ID
}

func (e *apiEnv) do(t *testing.T, method, path, as string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if as != "" {
		req.Header.Set("Authorization", "Bearer "+e.tokens[as])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	env := newAPIEnv(t, envOptions{})
	w := env.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterLoginAndSession(t *testing.T) {
	env := newAPIEnv(t, envOptions{})

	w := env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "nina", "password": "longenough", "password2": "longenough",
		"email": "nina@qq.com", "email2": "nina@qq.com",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "nina", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "nina", "password": "longenough"})
	require.Equal(t, http.StatusOK, w.Code)
	login := decode[struct {
		Token string       `json:"token"`
		User  UserResponse `json:"user"`
	}](t, w)
	assert.Equal(t, "member", login.User.Role)

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nina", decode[UserResponse](t, rec).Name)

	env.tokens["nina"] = login.Token
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/me", "nina", nil).Code)

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/me", "", nil).Code)
	env.tokens["mallory"] = "not-a-token"
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/me", "mallory", nil).Code)
}

func TestRegister_ValidationField(t *testing.T) {
	env := newAPIEnv(t, envOptions{})
	w := env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "nina", "password": "longenough", "password2": "longenough",
		"email": "nina@gmail.com", "email2": "nina@gmail.com",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "email", decode[map[string]string](t, w)["field"])

	w = env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "alice", "password": "longenough", "password2": "longenough",
		"email": "alice@qq.com", "email2": "alice@qq.com",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRecordLifecycle(t *testing.T) {
	env := newAPIEnv(t, envOptions{})

	w := env.do(t, http.MethodPost, "/api/records/overtime", "alice", gin.H{
		"start": "2024-01-01T18:00", "end": "2024-01-01T20:30", "shift": "night", "room": "301",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[RecordResponse](t, w)
	assert.Equal(t, 2.5, created.Hours)
	assert.False(t, created.Verified)

	// unverified records are invisible to queries
	w = env.do(t, http.MethodGet, "/api/records/overtime?from=2024-01-01&to=2024-01-31", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]RecordResponse](t, w))

	reviewPath := "/api/records/overtime/" + created.ID + "/review"
	w = env.do(t, http.MethodPost, reviewPath, "alice", gin.H{"action": "confirm"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/api/records/unverified", "boss", nil)
	require.Equal(t, http.StatusOK, w.Code)
	pending := decode[map[string][]RecordResponse](t, w)
	assert.Len(t, pending["overtime"], 1)

	w = env.do(t, http.MethodPost, reviewPath, "boss", gin.H{"action": "confirm"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/records/overtime?from=2024-01-01&to=2024-01-31&owner=alice", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[[]RecordResponse](t, w)
	require.Len(t, got, 1)
	assert.True(t, got[0].Verified)
	assert.Equal(t, "2024-01-01T18:00", got[0].Start)

	w = env.do(t, http.MethodGet, "/api/reports/balance?from=2024-01-01&to=2024-01-31", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	report := decode[struct {
		Rows []struct {
			Name  string  `json:"name"`
			Value float64 `json:"value"`
		} `json:"rows"`
	}](t, w)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, "alice", report.Rows[0].Name)
	assert.Equal(t, 2.5, report.Rows[0].Value)

	w = env.do(t, http.MethodGet, "/api/reports/balance?from=2024-01-01&to=2024-01-31&format=xlsx", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "balance_2024-01-01_2024-01-31.xlsx")
}

func TestSubmit_Rejections(t *testing.T) {
	env := newAPIEnv(t, envOptions{})

	w := env.do(t, http.MethodPost, "/api/records/compensation", "alice", gin.H{"start": "2023-12-20T09:00", "end": "2023-12-20T12:00"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "end", decode[map[string]string](t, w)["field"])

	w = env.do(t, http.MethodPost, "/api/records/overtime", "alice", gin.H{"start": "2024-01-01T18:00", "end": "2024-01-01T20:00", "owner": "boss"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/api/records/writeoff", "alice", gin.H{"date": "2024-01-01", "hours": "2", "owner": "alice"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/api/records/holiday", "alice", gin.H{"start": "2024-01-01T18:00", "end": "2024-01-01T20:00"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/reports/balance?from=2024-02-01&to=2024-01-01", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBatchSubmit_PartialSuccess(t *testing.T) {
	env := newAPIEnv(t, envOptions{})

	body := gin.H{"date": "2024-01-01", "hours": "1.5", "recipients": []string{"alice", "ghost"}}
	w := env.do(t, http.MethodPost, "/api/records/writeoff/batch", "alice", body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/api/records/writeoff/batch", "boss", body)
	require.Equal(t, http.StatusMultiStatus, w.Code, w.Body.String())
	res := decode[BatchResponse](t, w)
	assert.Equal(t, "1 of 2 succeeded", res.Summary)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "ghost", res.Failed[0].Recipient)
}

type unreachableStore struct {
	repository.RecordRepository
}

func (unreachableStore) Insert(context.Context, domain.Record) (string, error) {
	return "", &domain.PersistenceError{Op: "insert"}
}

func TestSubmit_PersistenceFailure(t *testing.T) {
	env := newAPIEnv(t, envOptions{wrapRecords: func(r repository.RecordRepository) repository.RecordRepository {
		return unreachableStore{r}
	}})

	w := env.do(t, http.MethodPost, "/api/records/overtime", "alice", gin.H{"start": "2024-01-01T18:00", "end": "2024-01-01T20:00"})
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "upload failed, please retry", decode[map[string]string](t, w)["error"])
}

func TestUserManagement(t *testing.T) {
	env := newAPIEnv(t, envOptions{})

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/api/users", "alice", nil).Code)

	w := env.do(t, http.MethodPost, "/api/users", "boss", gin.H{"username": "bob", "password": "password1", "password2": "password1", "email": "bob@qq.com"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/users", "boss", nil)
	require.Equal(t, http.StatusOK, w.Code)
	members := decode[[]UserResponse](t, w)
	require.Len(t, members, 2)
	assert.Equal(t, "alice", members[0].Name)

	w = env.do(t, http.MethodGet, "/api/users/names", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"alice", "bob", "boss"}, decode[map[string][]string](t, w)["names"])

	w = env.do(t, http.MethodDelete, "/api/users/"+env.ids["alice"], "boss", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// the session of a removed account stops working
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/me", "alice", nil).Code)
}

type memoryObjects struct {
	keys []string
}

func (m *memoryObjects) Put(_ context.Context, body io.Reader, opts storage.PutOptions) (string, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	m.keys = append(m.keys, opts.Key)
	return "s3://" + opts.Bucket + "/" + opts.Key, nil
}

func (m *memoryObjects) ListObjects(_ context.Context, _, prefix string) ([]storage.ObjectInfo, error) {
	var out []storage.ObjectInfo
	for _, k := range m.keys {
		if strings.HasPrefix(k, prefix) {
			out = append(out, storage.ObjectInfo{Key: k})
		}
	}
	return out, nil
}

func (m *memoryObjects) GetObjectURL(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return "https://" + bucket + "/" + key, nil
}

func TestArchive(t *testing.T) {
	plain := newAPIEnv(t, envOptions{})
	path := "/api/reports/overtime-total/archive?from=2024-01-01&to=2024-01-31"
	assert.Equal(t, http.StatusForbidden, plain.do(t, http.MethodPost, path, "alice", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, plain.do(t, http.MethodPost, path, "boss", nil).Code)

	objects := &memoryObjects{}
	env := newAPIEnv(t, envOptions{archive: objects})
	w := env.do(t, http.MethodPost, path, "boss", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	stored := decode[storage.ArchivedReport](t, w)
	assert.True(t, strings.HasPrefix(stored.Key, "reports/overtime-total/2024-01-01_2024-01-31/"))
	assert.True(t, strings.HasSuffix(stored.Key, ".xlsx"))

	w = env.do(t, http.MethodGet, "/api/archives?mode=overtime-total", "boss", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]storage.ArchivedReport](t, w), 1)
}
