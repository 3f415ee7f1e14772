package integration_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/denuncias-bfa/internal/domain"
	"github.com/boddenberg/denuncias-bfa/internal/handler"
	"github.com/boddenberg/denuncias-bfa/internal/infra/cache"
	"github.com/boddenberg/denuncias-bfa/internal/infra/kvstore"
	"github.com/boddenberg/denuncias-bfa/internal/infra/observability"
	"github.com/boddenberg/denuncias-bfa/internal/infra/resilience"
	"github.com/boddenberg/denuncias-bfa/internal/infra/supabase"
	"github.com/boddenberg/denuncias-bfa/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const jwtSecret = "integration-secret"

// fakeSupabase emulates the slice of PostgREST and GoTrue the BFA uses.
// Rows are visible only to their owner, like the row-level policy of the
// hosted table.
type fakeSupabase struct {
	mu    sync.Mutex
	rows  []domain.Complaint
	roles map[string]string
	calls map[string]int
}

func newFakeSupabase() *fakeSupabase {
	return &fakeSupabase{roles: map[string]string{}, calls: map[string]int{}}
}

func (f *fakeSupabase) subject(r *http.Request) string {
	raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	claims := &service.AccessClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return []byte(jwtSecret), nil })
	if err != nil {
		return ""
	}
	return claims.Subject
}

func (f *fakeSupabase) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/auth/v1/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"GoTrue"}`))
	})

	mux.HandleFunc("/rest/v1/profiles", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.calls["profiles"]++
		id := strings.TrimPrefix(r.URL.Query().Get("id"), "eq.")
		role, ok := f.roles[id]
		if !ok {
			w.Write([]byte(`[]`))
			return
		}
		json.NewEncoder(w).Encode([]map[string]string{{"role": role}})
	})

	mux.HandleFunc("/rest/v1/complaints", func(w http.ResponseWriter, r *http.Request) {
		sub := f.subject(r)
		if sub == "" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"JWT expired"}`))
			return
		}

		f.mu.Lock()
		defer f.mu.Unlock()
		f.calls[r.Method]++

		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			visible := []domain.Complaint{}
			for _, c := range f.rows {
				if c.OwnerID == sub {
					visible = append(visible, c)
				}
			}
			json.NewEncoder(w).Encode(visible)

		case http.MethodPost:
			var c domain.Complaint
			if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			c.ID = uuid.NewString()
			now := time.Now()
			c.CreatedAt = &now
			f.rows = append(f.rows, c)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode([]domain.Complaint{c})

		case http.MethodDelete:
			id := strings.TrimPrefix(r.URL.Query().Get("id"), "eq.")
			for i, c := range f.rows {
				if c.ID == id && c.OwnerID == sub {
					f.rows = append(f.rows[:i], f.rows[i+1:]...)
					json.NewEncoder(w).Encode([]domain.Complaint{c})
					return
				}
			}
			w.Write([]byte(`[]`))

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	return mux
}

type env struct {
	router http.Handler
	fake   *fakeSupabase
}

func newEnv(t *testing.T) *env {
	t.Helper()
	fake := newFakeSupabase()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	cfg := resilience.Config{MaxRetries: 0, InitialBackoff: 10 * time.Millisecond, MaxConcurrency: 2}

	client := supabase.NewClient(&http.Client{Timeout: 5 * time.Second}, srv.URL, "anon", resilience.NewCircuitBreaker("integration-"+t.Name()), cfg, logger)
	client.OnError = metrics.IncrExternalError

	complaints := service.NewComplaintService(
		client,
		client,
		cache.New[*service.Snapshot](time.Minute),
		cache.New[string](time.Minute),
		resilience.NewBulkhead(2),
		metrics,
		logger,
	)
	kv := kvstore.NewMemory()
	svcs := handler.Services{
		Complaints: complaints,
		Auth:       service.NewAuthService(client, jwtSecret, "", logger),
		Filters:    service.NewFilterPreferences(kv, time.Hour, logger),
	}
	checks := []handler.HealthCheck{{Name: "supabase", Ping: client.Ping}, {Name: "filter-store", Ping: kv.Ping}}

	return &env{
		router: handler.NewRouter(svcs, checks, metrics, []string{"*"}, logger),
		fake:   fake,
	}
}

func token(t *testing.T, sub string) string {
	t.Helper()
	claims := service.AccessClaims{
		Email: sub + "@prefeitura.example",
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func (e *env) do(t *testing.T, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, user))
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// TestIntegration_CreateListDelete runs the full request flow through the
// router, the services and the Supabase client.
func TestIntegration_CreateListDelete(t *testing.T) {
	e := newEnv(t)
	e.fake.roles["admin-1"] = domain.RoleAdmin

	created := e.do(t, http.MethodPost, "/v1/complaints", "admin-1", map[string]any{
		"data_denuncia": "2024-03-01",
		"descricao":     "Construção sem alvará",
		"bairro":        "Centro",
		"autuado":       "Construtora Alvorada",
		"data_inicial":  "2024-03-01",
		"prazo_inicial": "3650",
	})
	if created.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d. Body: %s", created.Code, created.Body.String())
	}
	var view domain.ComplaintView
	if err := json.NewDecoder(created.Body).Decode(&view); err != nil {
		t.Fatalf("decode create: %v", err)
	}
	if view.ID == "" || view.OwnerID != "admin-1" {
		t.Fatalf("unexpected created row: %+v", view.Complaint)
	}
	if view.EndDate == nil || *view.EndDate != "2034-02-27" {
		t.Errorf("data_final = %v, want 2034-02-27", view.EndDate)
	}
	if view.Status.Label != domain.StatusAguardar {
		t.Errorf("status = %s, want AGUARDAR", view.Status.Label)
	}

	list := e.do(t, http.MethodGet, "/v1/complaints?q=alvorada", "admin-1", nil)
	if list.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d. Body: %s", list.Code, list.Body.String())
	}
	var page domain.Page
	if err := json.NewDecoder(list.Body).Decode(&page); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if page.TotalCount != 1 || page.Items[0].ID != view.ID {
		t.Fatalf("list = %+v", page)
	}

	// Another user sees none of admin-1's rows.
	other := e.do(t, http.MethodGet, "/v1/complaints", "fiscal-2", nil)
	var otherPage domain.Page
	json.NewDecoder(other.Body).Decode(&otherPage)
	if otherPage.TotalCount != 0 {
		t.Errorf("fiscal-2 sees %d rows, want 0", otherPage.TotalCount)
	}

	del := e.do(t, http.MethodDelete, "/v1/complaints/"+view.ID+"?confirm=true", "admin-1", nil)
	if del.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d. Body: %s", del.Code, del.Body.String())
	}

	after := e.do(t, http.MethodGet, "/v1/complaints", "admin-1", nil)
	var afterPage domain.Page
	json.NewDecoder(after.Body).Decode(&afterPage)
	if afterPage.TotalCount != 0 {
		t.Errorf("after delete: %d rows, want 0", afterPage.TotalCount)
	}
}

// TestIntegration_DeleteForbiddenForNonAdmin checks that the role gate runs
// before any write reaches the store.
func TestIntegration_DeleteForbiddenForNonAdmin(t *testing.T) {
	e := newEnv(t)
	e.fake.roles["fiscal-1"] = "fiscal"

	id := uuid.NewString()
	e.fake.rows = append(e.fake.rows, domain.Complaint{ID: id, OwnerID: "fiscal-1"})

	rec := e.do(t, http.MethodDelete, "/v1/complaints/"+id+"?confirm=true", "fiscal-1", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	if n := e.fake.calls[http.MethodDelete]; n != 0 {
		t.Errorf("store saw %d deletes, want 0", n)
	}
	if len(e.fake.rows) != 1 {
		t.Errorf("row was removed")
	}
}

// TestIntegration_Readiness probes the fake project through the health endpoint.
func TestIntegration_Readiness(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/readyz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}
}
