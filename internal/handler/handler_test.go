package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/config"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/scheduler"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	cfg := &config.Config{}
	cfg.Environment = "development"
	cfg.InitialAdmin.Username = "admin"
	cfg.InitialAdmin.Password = "secret"
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Expiration = 1
	cfg.Scheduler.PopulationSize = 100
	cfg.Scheduler.MaxGenerations = 300
	cfg.Scheduler.CrossoverRate = 0.7
	cfg.Scheduler.MutationRate = 0.01
	cfg.Scheduler.EliteCount = 20
	cfg.Plot.Width = 4
	cfg.Plot.Height = 3

	h, err := NewHandler(cfg, nil, nil)
	require.NoError(t, err)
	h.RegisterRoutes()
	return h
}

func doRequest(h *Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func login(t *testing.T, h *Handler) *http.Cookie {
	t.Helper()
	rec := doRequest(h, http.MethodPost, "/auth/login", `{"username":"admin","password":"secret"}`)
	for _, c := range rec.Result().Cookies() {
		if c.Name == tokenCookieName {
			return c
		}
	}
	t.Fatal("登录后没有返回 token cookie")
	return nil
}

func TestLogin(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(h, http.MethodPost, "/auth/login", `{"username":"admin","password":"secret"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "登录成功", resp.Message)

	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == tokenCookieName {
			found = true
			assert.True(t, c.HttpOnly)
			assert.NotEmpty(t, c.Value)
		}
	}
	assert.True(t, found)
}

func TestLogin_Rejected(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"wrong password", `{"username":"admin","password":"nope"}`, "用户名不存在或密码错误"},
		{"wrong username", `{"username":"root","password":"secret"}`, "用户名不存在或密码错误"},
		{"missing password", `{"username":"admin"}`, "必填"},
		{"malformed body", `{"username":`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(h, http.MethodPost, "/auth/login", tt.body)
			resp := decodeResponse(t, rec)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Message)
			assert.Contains(t, resp.Message, tt.msg)
			assert.Empty(t, rec.Result().Cookies())
		})
	}
}

func TestLogout(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(h, http.MethodPost, "/auth/logout", "")
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, tokenCookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
}

func TestAuth(t *testing.T) {
	h := newTestHandler(t)

	t.Run("no cookie", func(t *testing.T) {
		resp := decodeResponse(t, doRequest(h, http.MethodGet, "/domain-configs", ""))
		assert.False(t, resp.Success)
		assert.Equal(t, "用户未登录", resp.Message)
	})

	t.Run("invalid token", func(t *testing.T) {
		cookie := &http.Cookie{Name: tokenCookieName, Value: "garbage"}
		resp := decodeResponse(t, doRequest(h, http.MethodGet, "/domain-configs", "", cookie))
		assert.False(t, resp.Success)
		assert.Equal(t, "无效的令牌", resp.Message)
	})

	t.Run("valid token", func(t *testing.T) {
		cookie := login(t, h)

		var role, sub string
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role = r.Context().Value(RoleCtxKey).(string)
			sub = r.Context().Value(SubCtxKey).(string)
			w.WriteHeader(http.StatusNoContent)
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		h.auth(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, adminRole, role)
		assert.Equal(t, "admin", sub)
	})
}

func TestDomainConfig_InvalidID(t *testing.T) {
	h := newTestHandler(t)
	cookie := login(t, h)

	resp := decodeResponse(t, doRequest(h, http.MethodGet, "/domain-configs/abc", "", cookie))
	assert.False(t, resp.Success)
	assert.Equal(t, "课表配置ID无效", resp.Message)

	resp = decodeResponse(t, doRequest(h, http.MethodGet, "/timetables/abc", "", cookie))
	assert.False(t, resp.Success)
	assert.Equal(t, "课表ID无效", resp.Message)
}

func TestCreateDomainConfig_Validation(t *testing.T) {
	h := newTestHandler(t)
	cookie := login(t, h)

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"classes":1,"teachers":["a"],"subjects":["Math"],"rooms":["Room 1"],"days":1,"lessons":1}`},
		{"zero classes", `{"name":"x","classes":0,"teachers":["a"],"subjects":["Math"],"rooms":["Room 1"],"days":1,"lessons":1}`},
		{"empty teachers", `{"name":"x","classes":1,"teachers":[],"subjects":["Math"],"rooms":["Room 1"],"days":1,"lessons":1}`},
		{"blank room", `{"name":"x","classes":1,"teachers":["a"],"subjects":["Math"],"rooms":[""],"days":1,"lessons":1}`},
		{"duplicate teacher", `{"name":"x","classes":1,"teachers":["a","a"],"subjects":["Math"],"rooms":["Room 1"],"days":1,"lessons":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := decodeResponse(t, doRequest(h, http.MethodPost, "/domain-configs", tt.body, cookie))
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestReadGenerationParameters(t *testing.T) {
	h := newTestHandler(t)

	read := func(body string) (domain.GenerationParameters, error) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		return h.readGenerationParameters(req)
	}

	t.Run("empty body uses defaults", func(t *testing.T) {
		params, err := read("")
		require.NoError(t, err)
		assert.Equal(t, domain.GenerationParameters{
			PopulationSize: 100,
			MaxGenerations: 300,
			CrossoverRate:  0.7,
			MutationRate:   0.01,
			EliteCount:     20,
		}, params)
	})

	t.Run("partial override", func(t *testing.T) {
		params, err := read(`{"populationSize":30,"eliteCount":0,"mutationRate":0,"seed":7}`)
		require.NoError(t, err)
		assert.Equal(t, int32(30), params.PopulationSize)
		assert.Equal(t, int32(0), params.EliteCount)
		assert.Equal(t, 0.0, params.MutationRate)
		assert.Equal(t, 0.7, params.CrossoverRate)
		require.NotNil(t, params.Seed)
		assert.Equal(t, int64(7), *params.Seed)
	})

	t.Run("explicit zero seed", func(t *testing.T) {
		params, err := read(`{"seed":0}`)
		require.NoError(t, err)
		require.NotNil(t, params.Seed)
		assert.Equal(t, int64(0), *params.Seed)
	})

	t.Run("rate out of range", func(t *testing.T) {
		_, err := read(`{"crossoverRate":1.5}`)
		assert.Error(t, err)
	})

	t.Run("elites exceed population", func(t *testing.T) {
		_, err := read(`{"populationSize":10}`)
		assert.ErrorIs(t, err, scheduler.ErrInvalidParameters)
	})
}

func timetableRequest(result *domain.TimetableResult, target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return req.WithContext(context.WithValue(req.Context(), TimetableResultCtx, result))
}

func sampleResult() *domain.TimetableResult {
	return &domain.TimetableResult{
		ID: 1,
		Grid: domain.TimetableGrid{
			{
				{{Subject: "Math", Teacher: "Li Lei", Room: "Room 1"}},
			},
		},
		Fitness:        2,
		FitnessHistory: []int{5, 3, 2},
	}
}

func TestGetTimetableText(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.GetTimetableText(rec, timetableRequest(sampleResult(), "/timetables/1/text"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Equal(t, "===== Class 1 =====\n----- Monday -----\nSubject: Math, teacher: Li Lei, classroom: Room 1\n\n", rec.Body.String())

	rec = httptest.NewRecorder()
	h.GetTimetableText(rec, timetableRequest(sampleResult(), "/timetables/1/text?format=compact"))
	assert.Contains(t, rec.Body.String(), "Math/LL/Room 1")

	rec = httptest.NewRecorder()
	h.GetTimetableText(rec, timetableRequest(sampleResult(), "/timetables/1/text?format=xml"))
	assert.False(t, decodeResponse(t, rec).Success)
}

func TestGetTimetableFitnessPlot(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.GetTimetableFitnessPlot(rec, timetableRequest(sampleResult(), "/timetables/1/fitness-plot"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	empty := sampleResult()
	empty.FitnessHistory = nil
	rec = httptest.NewRecorder()
	h.GetTimetableFitnessPlot(rec, timetableRequest(empty, "/timetables/1/fitness-plot"))
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
}
