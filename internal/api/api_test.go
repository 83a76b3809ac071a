package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maintenance-backend/config"
	"maintenance-backend/internal/auth"
	"maintenance-backend/internal/model"
	"maintenance-backend/internal/mw"
	"maintenance-backend/internal/notification"
	"maintenance-backend/internal/report"
	"maintenance-backend/internal/store"
	"maintenance-backend/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockMailer struct {
	mu   sync.Mutex
	msgs []notification.Message
}

func (m *mockMailer) Dispatch(msg notification.Message) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, msg)
	return true
}

func (m *mockMailer) sent() []notification.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notification.Message(nil), m.msgs...)
}

type mockSMTP struct {
	mu  sync.Mutex
	cfg *config.SMTPConfig
}

func (m *mockSMTP) Update(cfg config.SMTPConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = &cfg
}

type testServer struct {
	router *gin.Engine
	h      *Handler
	store  store.Store
	mailer *mockMailer
	smtp   *mockSMTP
	cfg    *config.Config
	now    time.Time

	admin, tech, viewer model.User
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		Server:        config.ServerConfig{RateLimitPerSec: 1000, RateLimitBurst: 1000, CacheTTLSeconds: 60},
		Database:      config.DatabaseConfig{Driver: "sqlite", DSN: "maintenance.db"},
		Storage:       config.StorageConfig{UploadFolder: t.TempDir()},
		SMTP:          config.SMTPConfig{Server: "smtp.example.com", Port: 25, Password: "hunter2", From: "noreply@example.com"},
		Auth:          config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour, OTPTTL: time.Minute},
		BusinessHours: config.BusinessHoursConfig{Start: "07:30", End: "16:00"},
		Report:        config.ReportConfig{Title: "Maintenance Report", Footer: []string{"ACME Plant"}},
	}
	st := store.NewGormStore(testutil.NewDB(t))
	mailer := &mockMailer{}
	smtp := &mockSMTP{}
	h := NewHandler(Deps{
		Store:      st,
		Config:     cfg,
		ConfigPath: filepath.Join(t.TempDir(), "config.yaml"),
		Mailer:     mailer,
		SMTP:       smtp,
	})
	now := time.Now().Truncate(time.Second)
	h.now = func() time.Time { return now }

	s := &testServer{
		router: NewRouter(h, mw.NewMetrics("test")),
		h:      h,
		store:  st,
		mailer: mailer,
		smtp:   smtp,
		cfg:    cfg,
		now:    now,
	}
	s.admin = s.mustUser(t, model.User{Username: "admin", EmailAddress: "admin@example.com", Admin: true}, "admin-pass")
	s.tech = s.mustUser(t, model.User{Username: "tech", FirstName: "Tess", LastName: "Tech", EmailAddress: "tech@example.com", TicketPermissions: true}, "tech-pass")
	s.viewer = s.mustUser(t, model.User{Username: "viewer", EmailAddress: "viewer@example.com"}, "viewer-pass")
	return s
}

func (s *testServer) mustUser(t *testing.T, u model.User, password string) model.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	u.Password = hash
	require.NoError(t, s.store.CreateUser(context.Background(), &u))
	return u
}

func (s *testServer) mustMachine(t *testing.T, m model.Machine) model.Machine {
	t.Helper()
	require.NoError(t, s.store.CreateMachine(context.Background(), &m))
	return m
}

func (s *testServer) token(t *testing.T, u model.User) string {
	t.Helper()
	token, err := s.h.issuer.Issue(auth.Claims{ID: u.ID, Username: u.Username, Admin: u.Admin, TicketPermissions: u.TicketPermissions})
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(req, token)
}

func (s *testServer) send(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func multipartRequest(t *testing.T, path string, fields map[string]string, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mpw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mpw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mpw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mpw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mpw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func path(format string, id int64) string {
	return format + "/" + strconv.FormatInt(id, 10)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name     string
		username string
		password string
		wantCode int
	}{
		{"valid credentials", "tech", "tech-pass", http.StatusOK},
		{"wrong password", "tech", "nope", http.StatusUnauthorized},
		{"unknown user", "ghost", "tech-pass", http.StatusUnauthorized},
		{"missing fields", "", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": tt.username, "password": tt.password})
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantCode != http.StatusOK {
				return
			}
			resp := decode[loginResponse](t, w)
			assert.Equal(t, s.tech.ID, resp.User.ID)
			assert.NotContains(t, w.Body.String(), "tech-pass")

			claims, err := s.h.issuer.Parse(resp.Token)
			require.NoError(t, err)
			assert.True(t, claims.TicketPermissions)
			assert.False(t, claims.Admin)
		})
	}
}

func TestRefreshPicksUpPermissionChanges(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, s.viewer)

	promoted := s.viewer
	promoted.TicketPermissions = true
	require.NoError(t, s.store.UpdateUser(context.Background(), &promoted))

	w := s.do(t, http.MethodPost, "/api/auth/refresh", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	claims, err := s.h.issuer.Parse(decode[loginResponse](t, w).Token)
	require.NoError(t, err)
	assert.True(t, claims.TicketPermissions)
}

func TestAuthAndPermissions(t *testing.T) {
	s := newTestServer(t)
	m := s.mustMachine(t, model.Machine{Name: "Lathe"})
	ticket := gin.H{"machineId": m.ID, "title": "Check spindle", "scheduledDate": s.now.Add(24 * time.Hour)}

	tests := []struct {
		name     string
		method   string
		path     string
		user     *model.User
		body     any
		wantCode int
	}{
		{"health is public", http.MethodGet, "/api/health", nil, nil, http.StatusOK},
		{"no token", http.MethodGet, "/api/machines", nil, nil, http.StatusUnauthorized},
		{"viewer reads machines", http.MethodGet, "/api/machines", &s.viewer, nil, http.StatusOK},
		{"viewer cannot create users", http.MethodPost, "/api/users", &s.viewer, gin.H{"username": "x"}, http.StatusForbidden},
		{"viewer cannot open tickets", http.MethodPost, "/api/tickets", &s.viewer, ticket, http.StatusForbidden},
		{"tech opens tickets", http.MethodPost, "/api/tickets", &s.tech, ticket, http.StatusCreated},
		{"tech cannot delete machines", http.MethodDelete, path("/api/machines", m.ID), &s.tech, nil, http.StatusForbidden},
		{"viewer cannot read settings", http.MethodGet, "/api/settings", &s.viewer, nil, http.StatusForbidden},
		{"admin reads settings", http.MethodGet, "/api/settings", &s.admin, nil, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := ""
			if tt.user != nil {
				token = s.token(t, *tt.user)
			}
			w := s.do(t, tt.method, tt.path, token, tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodGet, "/api/health", "", nil)

	w := s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `test_http_requests_total{method="GET",route="/api/health",status="200"} 1`)
}

func TestUsers(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, s.admin)

	w := s.do(t, http.MethodPost, "/api/users", admin, gin.H{
		"username": "nina", "emailAddress": "nina@example.com", "password": "pw", "ticketPermissions": true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[model.User](t, w)
	assert.NotContains(t, w.Body.String(), "password")

	w = s.do(t, http.MethodPost, "/api/users", admin, gin.H{"username": "nina", "emailAddress": "other@example.com", "password": "pw"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPut, path("/api/users", created.ID), admin, gin.H{
		"username": "nina", "emailAddress": "nina@example.com", "firstName": "Nina", "password": "new-pw",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Nina", decode[model.User](t, w).FirstName)

	u, err := s.store.GetUser(context.Background(), created.ID)
	require.NoError(t, err)
	assert.NoError(t, auth.CheckPassword(u.Password, "new-pw"))

	w = s.do(t, http.MethodDelete, path("/api/users", s.admin.ID), admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "admins cannot delete themselves")

	w = s.do(t, http.MethodDelete, path("/api/users", created.ID), admin, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodGet, path("/api/users", created.ID), admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMachines(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, s.admin)

	w := s.do(t, http.MethodPost, "/api/machines", admin, gin.H{
		"name": "Lathe", "location": "Hall A", "sapNumber": "SAP-1", "userId": s.tech.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	m := decode[model.Machine](t, w)
	assert.Equal(t, model.MachineActive, m.Status)

	sent := s.mailer.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"tech@example.com"}, sent[0].To)
	assert.Equal(t, notification.MachineSubject("Lathe"), sent[0].Subject)

	w = s.do(t, http.MethodPost, "/api/machines", admin, gin.H{"name": "Mill", "sapNumber": "SAP-1"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Same assignee: no new email.
	w = s.do(t, http.MethodPut, path("/api/machines", m.ID), admin, gin.H{"name": "Lathe 2", "sapNumber": "SAP-1", "userId": s.tech.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, s.mailer.sent(), 1)

	w = s.do(t, http.MethodPut, path("/api/machines", m.ID), admin, gin.H{"name": "Lathe 2", "userId": s.viewer.ID})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, s.mailer.sent(), 2)
	assert.Equal(t, []string{"viewer@example.com"}, s.mailer.sent()[1].To)

	w = s.do(t, http.MethodGet, "/api/machines/abc", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, path("/api/machines", m.ID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[model.Machine](t, w)
	assert.Equal(t, "Lathe 2", got.Name)
	require.NotNil(t, got.User)
	assert.Equal(t, "viewer", got.User.Username)

	w = s.do(t, http.MethodDelete, path("/api/machines", m.ID), admin, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodGet, path("/api/machines", m.ID), admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGroupMachinesShareAccessories(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, s.viewer)
	ctx := context.Background()

	g := model.MachineGroup{Name: "Presses"}
	require.NoError(t, s.store.CreateGroup(ctx, &g))
	m := s.mustMachine(t, model.Machine{Name: "Press 1", MachineGroupID: &g.ID})

	w := s.do(t, http.MethodPost, "/api/accessories/generic", token, gin.H{"machineGroupId": g.ID, "name": "Oil can", "quantity": 2})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = s.do(t, http.MethodPost, "/api/accessories/special", token, gin.H{"machineId": m.ID, "name": "Gauge", "diameter": 12.5})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = s.do(t, http.MethodPost, "/api/accessories/generic", token, gin.H{"name": "Orphan"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, path("/api/machines", m.ID)+"/accessories", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	acc := decode[struct {
		Generic []model.GenericAccessory `json:"generic"`
		Special []model.SpecialAccessory `json:"special"`
	}](t, w)
	assert.Len(t, acc.Generic, 1)
	assert.Len(t, acc.Special, 1)

	w = s.do(t, http.MethodGet, "/api/accessories/generic", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodGet, "/api/accessories/generic?groupId="+strconv.FormatInt(g.ID, 10), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.GenericAccessory](t, w), 1)
}

func TestTicketLifecycle(t *testing.T) {
	s := newTestServer(t)
	tech := s.token(t, s.tech)
	m := s.mustMachine(t, model.Machine{Name: "Lathe"})
	cat := model.MachineCategory{MachineID: m.ID, Name: "Electrical"}
	require.NoError(t, s.store.CreateCategory(context.Background(), &cat))

	w := s.do(t, http.MethodGet, "/api/statistics", tech, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

	w = s.do(t, http.MethodPost, "/api/tickets", tech, gin.H{
		"machineId":     m.ID,
		"userId":        s.tech.ID,
		"categoryId":    cat.ID,
		"title":         "Spindle noise",
		"description":   "Grinding sound at high rpm",
		"critical":      true,
		"scheduledDate": s.now.Add(48 * time.Hour),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ticket := decode[model.Ticket](t, w)
	assert.Equal(t, model.TicketPending, ticket.Status)

	sent := s.mailer.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, notification.TicketSubject("Spindle noise"), sent[0].Subject)
	assert.Contains(t, sent[0].HTML, "Electrical")

	w = s.do(t, http.MethodGet, path("/api/machines", m.ID), tech, nil)
	assert.Equal(t, model.MachineUnderMaintenance, decode[model.Machine](t, w).Status)

	w = s.do(t, http.MethodGet, "/api/statistics?machineId="+strconv.FormatInt(m.ID, 10), tech, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[struct {
		TotalTickets int `json:"totalTickets"`
	}](t, w).TotalTickets)
	w = s.do(t, http.MethodGet, "/api/statistics?machineId="+strconv.FormatInt(m.ID, 10), tech, nil)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	w = s.do(t, http.MethodPost, path("/api/tickets", ticket.ID)+"/complete", tech, gin.H{
		"completionNotes": "Replaced bearing", "interventionType": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	done := decode[model.Ticket](t, w)
	assert.Equal(t, model.TicketCompleted, done.Status)
	assert.True(t, done.InterventionType)
	assert.Equal(t, "Replaced bearing", done.CompletionNotes)

	w = s.do(t, http.MethodPost, path("/api/tickets", ticket.ID)+"/complete", tech, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code, "completing twice")

	w = s.do(t, http.MethodGet, path("/api/machines", m.ID), tech, nil)
	assert.Equal(t, model.MachineActive, decode[model.Machine](t, w).Status)

	w = s.do(t, http.MethodGet, "/api/statistics?machineId="+strconv.FormatInt(m.ID, 10), tech, nil)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"), "completing a ticket flushes cached statistics")

	w = s.do(t, http.MethodGet, "/api/tickets?open=true", tech, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]model.Ticket](t, w))

	w = s.do(t, http.MethodDelete, path("/api/tickets", ticket.ID), tech, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestTicketReports(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, s.viewer)
	m := s.mustMachine(t, model.Machine{Name: "Lathe"})
	ticket := model.Ticket{MachineID: &m.ID, UserID: &s.tech.ID, Title: "Belt", Description: "Worn belt", ScheduledDate: s.now}
	require.NoError(t, s.store.CreateTicket(context.Background(), &ticket))

	w := s.do(t, http.MethodGet, path("/api/tickets", ticket.ID)+"/report.pdf", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w = s.do(t, http.MethodPost, path("/api/tickets", ticket.ID)+"/report/email", token, nil)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	sent := s.mailer.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"tech@example.com"}, sent[0].To)
	assert.Equal(t, notification.ReportSubject("Belt"), sent[0].Subject)
	require.Len(t, sent[0].Attachments, 1)
	assert.Equal(t, "application/pdf", sent[0].Attachments[0].ContentType)

	w = s.do(t, http.MethodPost, path("/api/tickets", ticket.ID)+"/report/email", token, gin.H{"email": "boss@example.com"})
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"boss@example.com"}, s.mailer.sent()[1].To)

	w = s.do(t, http.MethodGet, "/api/tickets/export", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, report.XLSXContentType, w.Header().Get("Content-Type"))
}

func TestDocuments(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, s.viewer)
	m := s.mustMachine(t, model.Machine{Name: "Lathe"})
	fields := map[string]string{"machineId": strconv.FormatInt(m.ID, 10)}

	w := s.send(multipartRequest(t, "/api/documents", fields, "manual.pdf", []byte("v1")), token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	doc := decode[model.Document](t, w)
	assert.Equal(t, "manual.pdf", doc.DocumentName)
	assert.Equal(t, "pdf", doc.DocumentType)
	assert.Equal(t, filepath.Join(s.cfg.Storage.UploadFolder, strconv.FormatInt(m.ID, 10)+"_manual.pdf"), doc.DocumentPath)

	w = s.send(multipartRequest(t, "/api/documents", fields, "manual.pdf", []byte("v2")), token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, doc.ID, decode[model.Document](t, w).ID)

	w = s.send(multipartRequest(t, "/api/documents", nil, "manual.pdf", []byte("v3")), token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, path("/api/documents", doc.ID)+"/file", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "v2", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), `"manual.pdf"`)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))

	// A file dropped into the folder is picked up by a sync.
	extra := filepath.Join(s.cfg.Storage.UploadFolder, strconv.FormatInt(m.ID, 10)+"_wiring.png")
	require.NoError(t, os.WriteFile(extra, []byte("png"), 0o644))
	w = s.do(t, http.MethodPost, path("/api/machines", m.ID)+"/documents/sync", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, decode[struct {
		Added int `json:"added"`
	}](t, w).Added)

	w = s.do(t, http.MethodGet, path("/api/machines", m.ID)+"/documents", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Document](t, w), 2)

	w = s.do(t, http.MethodDelete, path("/api/documents", doc.ID), token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	_, err := os.Stat(doc.DocumentPath)
	assert.True(t, os.IsNotExist(err))

	w = s.do(t, http.MethodPost, "/api/documents/sync", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(t, http.MethodPost, "/api/documents/sync", s.token(t, s.admin), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSpareParts(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, s.viewer)
	a := s.mustMachine(t, model.Machine{Name: "Lathe"})
	b := s.mustMachine(t, model.Machine{Name: "Mill"})

	w := s.do(t, http.MethodPost, "/api/spare-parts", token, gin.H{
		"machineId": a.ID, "name": "Belt", "partNumber": "B-100", "quantity": 5, "reorderLevel": 2,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	part := decode[model.SparePart](t, w)

	tests := []struct {
		name         string
		delta        int
		wantCode     int
		wantQuantity int
		wantReorder  bool
	}{
		{"consume", -3, http.StatusOK, 2, true},
		{"too many", -5, http.StatusBadRequest, 0, false},
		{"restock", 10, http.StatusOK, 12, false},
		{"zero", 0, http.StatusBadRequest, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, path("/api/spare-parts", part.ID)+"/adjust", token, gin.H{"delta": tt.delta})
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantCode != http.StatusOK {
				return
			}
			got := decode[adjustResponse](t, w)
			assert.Equal(t, tt.wantQuantity, got.Quantity)
			assert.Equal(t, tt.wantReorder, got.NeedsReorder)
		})
	}

	w = s.do(t, http.MethodGet, "/api/spare-parts/export?machineId="+strconv.FormatInt(a.ID, 10), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, report.XLSXContentType, w.Header().Get("Content-Type"))

	// Re-importing the export under another machine moves the part there.
	fields := map[string]string{"machineId": strconv.FormatInt(b.ID, 10)}
	w = s.send(multipartRequest(t, "/api/spare-parts/import", fields, "parts.xlsx", w.Body.Bytes()), token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"totalRows":1,"imported":1,"errors":[]}`, w.Body.String())

	w = s.do(t, http.MethodGet, path("/api/machines", b.ID)+"/spare-parts", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	parts := decode[[]model.SparePart](t, w)
	require.Len(t, parts, 1)
	assert.Equal(t, 12, parts[0].Quantity)
}

func TestSpareParts_Quantity(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, s.viewer)
	m := s.mustMachine(t, model.Machine{Name: "Lathe"})

	tests := []struct {
		name string
		body gin.H
		want int
	}{
		{"explicit zero", gin.H{"machineId": m.ID, "name": "Belt", "partNumber": "Q-0", "quantity": 0, "reorderLevel": 1}, 0},
		{"omitted", gin.H{"machineId": m.ID, "name": "Fuse", "partNumber": "Q-1", "reorderLevel": 1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/spare-parts", token, tt.body)
			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
			created := decode[model.SparePart](t, w)
			assert.Equal(t, tt.want, created.Quantity)

			w = s.do(t, http.MethodGet, path("/api/spare-parts", created.ID), token, nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, decode[model.SparePart](t, w).Quantity)
		})
	}

	t.Run("update without quantity keeps stock", func(t *testing.T) {
		part := model.SparePart{MachineID: m.ID, Name: "Chain", PartNumber: "Q-2", Quantity: 7, ReorderLevel: 1}
		require.NoError(t, s.store.CreateSparePart(context.Background(), &part))

		w := s.do(t, http.MethodPut, path("/api/spare-parts", part.ID), token, gin.H{
			"machineId": m.ID, "name": "Chain 2", "partNumber": "Q-2", "reorderLevel": 1,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, 7, decode[model.SparePart](t, w).Quantity)
	})

	t.Run("import keeps zero stock", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, report.SparePartsXLSX(&buf, []model.SparePart{
			{Name: "Filter", PartNumber: "Q-3", Quantity: 0, ReorderLevel: 2},
		}))
		fields := map[string]string{"machineId": strconv.FormatInt(m.ID, 10)}
		w := s.send(multipartRequest(t, "/api/spare-parts/import", fields, "parts.xlsx", buf.Bytes()), token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		parts, err := s.store.ListSpareParts(context.Background(), &m.ID)
		require.NoError(t, err)
		var filter *model.SparePart
		for i := range parts {
			if parts[i].PartNumber == "Q-3" {
				filter = &parts[i]
			}
		}
		require.NotNil(t, filter)
		assert.Zero(t, filter.Quantity)
	})

	t.Run("generic accessory zero quantity", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/accessories/generic", token, gin.H{"machineId": m.ID, "name": "Oil can", "quantity": 0})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		acc := decode[model.GenericAccessory](t, w)
		got, err := s.store.GetGenericAccessory(context.Background(), acc.ID)
		require.NoError(t, err)
		assert.Zero(t, got.Quantity)
	})
}

func TestChecklistCompletion(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, s.tech)
	m := s.mustMachine(t, model.Machine{Name: "Lathe"})

	w := s.do(t, http.MethodPost, "/api/checklists", token, gin.H{
		"machineId":    m.ID,
		"title":        "Monthly inspection",
		"intervalType": "monthly",
		"items":        []gin.H{{"description": "Oil level"}, {"description": "Belt tension"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	cl := decode[model.Checklist](t, w)
	require.Len(t, cl.Items, 2)
	require.NotNil(t, cl.NextPlannedDate)

	w = s.do(t, http.MethodPost, "/api/checklists", token, gin.H{"machineId": m.ID, "title": "Bad", "intervalType": "fortnightly"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, path("/api/checklists", cl.ID)+"/complete", token, gin.H{
		"notes": "All good",
		"items": []gin.H{{"itemId": cl.Items[0].ID, "completed": true}, {"itemId": cl.Items[1].ID, "completed": false}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	completion := decode[model.ChecklistCompletion](t, w)
	require.NotNil(t, completion.UserID)
	assert.Equal(t, s.tech.ID, *completion.UserID)
	assert.Len(t, completion.Items, 2)

	w = s.do(t, http.MethodGet, path("/api/checklists", cl.ID)+"/completions", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[[]model.ChecklistCompletion](t, w)
	require.Len(t, history, 1)
	assert.Equal(t, "All good", history[0].Notes)

	w = s.do(t, http.MethodGet, path("/api/checklists", cl.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[model.Checklist](t, w)
	require.NotNil(t, updated.LastPerformedDate)
	assert.True(t, updated.NextPlannedDate.After(*updated.LastPerformedDate))
}

func TestPasswordReset(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/auth/password-reset", "", gin.H{"email": "tech@example.com"})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	requestID := decode[struct {
		RequestID string `json:"requestId"`
	}](t, w).RequestID
	require.NotEmpty(t, requestID)

	sent := s.mailer.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, notification.PasswordSubject, sent[0].Subject)
	match := regexp.MustCompile(`>(\d{6})</p>`).FindStringSubmatch(sent[0].HTML)
	require.Len(t, match, 2)
	code := match[1]

	w = s.do(t, http.MethodPost, "/api/auth/password-reset/verify", "", gin.H{"requestId": requestID, "code": "000000", "newPassword": "fresh"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/password-reset/verify", "", gin.H{"requestId": requestID, "code": code, "newPassword": "fresh"})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "tech", "password": "fresh"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPasswordReset_UnknownEmail(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/auth/password-reset", "", gin.H{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, s.mailer.sent())
}

func TestSettings(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, s.admin)

	w := s.do(t, http.MethodGet, "/api/settings", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	current := decode[settings](t, w)
	assert.Equal(t, secretMask, current.SMTP.Password)
	assert.NotContains(t, w.Body.String(), "hunter2")
	assert.NotContains(t, w.Body.String(), "test-secret")

	current.SMTP.Server = "mail.example.com"
	current.BusinessHours = config.BusinessHoursConfig{Start: "06:00", End: "14:00"}
	current.Report.Title = "Plant Report"
	w = s.do(t, http.MethodPut, "/api/settings", admin, current)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, decode[struct {
		RestartRequired bool `json:"restartRequired"`
	}](t, w).RestartRequired)

	require.NotNil(t, s.smtp.cfg)
	assert.Equal(t, "mail.example.com", s.smtp.cfg.Server)
	assert.Equal(t, "hunter2", s.smtp.cfg.Password, "a masked password keeps the stored one")
	assert.Equal(t, "Plant Report", s.h.pdfOptions().Title)

	saved, err := config.Load(s.h.cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "mail.example.com", saved.SMTP.Server)
	assert.Equal(t, "06:00", saved.BusinessHours.Start)

	current.Storage.UploadFolder = t.TempDir()
	w = s.do(t, http.MethodPut, "/api/settings", admin, current)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[struct {
		RestartRequired bool `json:"restartRequired"`
	}](t, w).RestartRequired)

	current.BusinessHours = config.BusinessHoursConfig{Start: "18:00", End: "08:00"}
	w = s.do(t, http.MethodPut, "/api/settings", admin, current)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestActions(t *testing.T) {
	s := newTestServer(t)
	tok := s.token(t, s.tech)
	press := s.mustMachine(t, model.Machine{Name: "Press"})
	lathe := s.mustMachine(t, model.Machine{Name: "Lathe"})

	w := s.do(t, http.MethodPost, "/api/actions", tok, gin.H{"machineId": press.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code, "name is required")

	w = s.do(t, http.MethodPost, "/api/actions", tok, gin.H{"machineId": press.ID, "name": "Grease rails", "frequency": "weekly"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	grease := decode[model.Action](t, w)
	w = s.do(t, http.MethodPost, "/api/actions", tok, gin.H{"machineId": lathe.ID, "name": "Check belt"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/actions?machineId="+strconv.FormatInt(press.ID, 10), tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	listed := decode[[]model.Action](t, w)
	require.Len(t, listed, 1)
	assert.Equal(t, "Grease rails", listed[0].Name)

	w = s.do(t, http.MethodGet, "/api/actions?machineId=abc", tok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, path("/api/actions", grease.ID), tok, gin.H{"machineId": press.ID, "name": "Grease rails and screws", "frequency": "monthly"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(t, http.MethodGet, path("/api/actions", grease.ID), tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "monthly", decode[model.Action](t, w).Frequency)

	w = s.do(t, http.MethodGet, path("/api/machines", press.ID)+"/actions", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Action](t, w), 1)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, path("/api/actions", grease.ID), tok, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, path("/api/actions", grease.ID), tok, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, path("/api/actions", grease.ID), tok, nil).Code)
}

type failingDocumentStore struct {
	store.Store
}

func (failingDocumentStore) CreateDocument(context.Context, *model.Document) error {
	return errors.New("disk quota exceeded")
}

func TestUploadDocument_RemovesFileWhenRowFails(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, s.viewer)
	m := s.mustMachine(t, model.Machine{Name: "Lathe"})
	s.h.store = failingDocumentStore{Store: s.store}

	fields := map[string]string{"machineId": strconv.FormatInt(m.ID, 10)}
	w := s.send(multipartRequest(t, "/api/documents", fields, "manual.pdf", []byte("v1")), token)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	stored := filepath.Join(s.cfg.Storage.UploadFolder, strconv.FormatInt(m.ID, 10)+"_manual.pdf")
	_, err := os.Stat(stored)
	assert.True(t, os.IsNotExist(err), "file should not outlive the failed insert")
}
