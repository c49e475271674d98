package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"kwmetrics/internal/analysis"
	"kwmetrics/internal/config"
	"kwmetrics/internal/ingest"
	"kwmetrics/internal/store"
	"kwmetrics/internal/testutil"
)

func setupServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()

	cfg := &config.Config{
		Env:        "test",
		BaseURL:    "http://localhost:3000",
		DataDir:    t.TempDir(),
		SiteTitle:  "Keyword Metrics",
		SiteFooter: "footer",
	}
	st, err := store.New(cfg.DataDir)
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	svc := ingest.New(ingest.Config{Store: st})

	s := New(cfg)
	s.RegisterRoutes(svc, st, nil)
	return s, st
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
}

func decode(t *testing.T, body string) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
	return env
}

func TestHome(t *testing.T) {
	s, _ := setupServer(t)

	resp, err := s.App.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body := testutil.ReadBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.StatusCode, body)
	}
	if !strings.Contains(body, `name="project_name"`) || !strings.Contains(body, `name="file"`) {
		t.Errorf("upload form missing fields: %s", body)
	}
}

func TestUpload_MissingInput(t *testing.T) {
	tests := []struct {
		name string
		form testutil.UploadForm
	}{
		{"missing project", testutil.UploadForm{Body: testutil.ExampleCSV}},
		{"missing file", testutil.UploadForm{Project: "acme", OmitFile: true}},
		{"blank project", testutil.UploadForm{Project: "   ", Body: testutil.ExampleCSV}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, st := setupServer(t)

			resp, err := s.App.Test(testutil.NewUploadRequest(t, "/upload", tt.form))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			body := testutil.ReadBody(t, resp)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			if !strings.Contains(body, "Missing file or project name") {
				t.Errorf("body missing error message: %s", body)
			}

			projects, err := st.List()
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(projects) != 0 {
				t.Errorf("rejected upload created %d project databases", len(projects))
			}
		})
	}
}

func TestUpload_Success(t *testing.T) {
	s, st := setupServer(t)

	req := testutil.NewUploadRequest(t, "/upload", testutil.UploadForm{Project: "acme", Body: testutil.ExampleCSV})
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body := testutil.ReadBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.StatusCode, body)
	}
	if !strings.Contains(body, "Database acme_keywords.db created successfully.") {
		t.Errorf("success message missing: %s", body)
	}
	for _, name := range analysis.CategoryNames() {
		if !strings.Contains(body, name) {
			t.Errorf("result page missing %s", name)
		}
	}

	counts, err := st.TableCounts(req.Context(), "acme")
	if err != nil {
		t.Fatalf("TableCounts() error = %v", err)
	}
	if len(counts) != 5 {
		t.Errorf("got %d tables, want 5", len(counts))
	}
}

func TestUpload_InvalidProject(t *testing.T) {
	s, _ := setupServer(t)

	req := testutil.NewUploadRequest(t, "/upload", testutil.UploadForm{Project: "../etc", Body: testutil.ExampleCSV})
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestUpload_MissingColumns(t *testing.T) {
	s, _ := setupServer(t)

	req := testutil.NewUploadRequest(t, "/upload", testutil.UploadForm{Project: "acme", Body: "Keyword,Volume\nx,1\n"})
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body := testutil.ReadBody(t, resp)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if !strings.Contains(body, "missing required columns") {
		t.Errorf("body = %s", body)
	}
}

func TestProjectPages(t *testing.T) {
	s, _ := setupServer(t)

	resp, err := s.App.Test(testutil.NewUploadRequest(t, "/upload", testutil.UploadForm{Project: "acme", Body: testutil.ExampleCSV}))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	resp.Body.Close()

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/projects", http.StatusOK, "acme_keywords.db"},
		{"/projects/acme", http.StatusOK, analysis.TopOpportunityKeywords},
		{"/projects/missing", http.StatusNotFound, "project not found"},
		{"/projects/bad.name", http.StatusBadRequest, "invalid project name"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := s.App.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			body := testutil.ReadBody(t, resp)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if !strings.Contains(body, tt.wantBody) {
				t.Errorf("body missing %q", tt.wantBody)
			}
		})
	}
}

func TestAPIUpload(t *testing.T) {
	s, _ := setupServer(t)

	resp, err := s.App.Test(testutil.NewUploadRequest(t, "/api/v1/uploads", testutil.UploadForm{Project: "acme", Body: testutil.ExampleCSV}))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	env := decode(t, testutil.ReadBody(t, resp))
	if resp.StatusCode != http.StatusOK || env.Status != "ok" {
		t.Fatalf("status = %d %q, error = %q", resp.StatusCode, env.Status, env.Error)
	}

	var data struct {
		Database   string `json:"database"`
		Rows       int    `json:"rows"`
		Persisted  bool   `json:"persisted"`
		Categories []struct {
			Name string `json:"name"`
			Rows int    `json:"rows"`
		} `json:"categories"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Database != "acme_keywords.db" || data.Rows != 3 || !data.Persisted {
		t.Errorf("data = %+v", data)
	}
	wantRows := []int{3, 1, 1, 3, 1}
	if len(data.Categories) != len(wantRows) {
		t.Fatalf("categories = %+v", data.Categories)
	}
	for i, n := range wantRows {
		if data.Categories[i].Rows != n {
			t.Errorf("%s rows = %d, want %d", data.Categories[i].Name, data.Categories[i].Rows, n)
		}
	}
}

func TestAPIUpload_MissingInput(t *testing.T) {
	s, _ := setupServer(t)

	resp, err := s.App.Test(testutil.NewUploadRequest(t, "/api/v1/uploads", testutil.UploadForm{Body: testutil.ExampleCSV}))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	env := decode(t, testutil.ReadBody(t, resp))
	if resp.StatusCode != http.StatusBadRequest || env.Error != "Missing file or project name" {
		t.Errorf("status = %d, error = %q", resp.StatusCode, env.Error)
	}
}

func TestAPIProjects(t *testing.T) {
	s, _ := setupServer(t)

	resp, err := s.App.Test(testutil.NewUploadRequest(t, "/api/v1/uploads", testutil.UploadForm{Project: "acme", Body: testutil.ExampleCSV}))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	resp.Body.Close()

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/api/v1/projects", http.StatusOK},
		{"/api/v1/projects/acme", http.StatusOK},
		{"/api/v1/projects/missing", http.StatusNotFound},
		{"/api/v1/projects/acme/uploads", http.StatusServiceUnavailable},
		{"/api/v1/uploads/00000000-0000-0000-0000-000000000000", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := s.App.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			env := decode(t, testutil.ReadBody(t, resp))
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d (error %q)", resp.StatusCode, tt.wantStatus, env.Error)
			}
		})
	}
}

func TestProbes(t *testing.T) {
	s, _ := setupServer(t)

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		resp, err := s.App.Test(httptest.NewRequest(http.MethodGet, path, nil))
		if err != nil {
			t.Fatalf("%s: request failed: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, resp.StatusCode)
		}
	}
}

func TestRateLimit(t *testing.T) {
	cfg := &config.Config{
		BaseURL:            "http://localhost:3000",
		DataDir:            t.TempDir(),
		RateLimitPerMinute: 2,
	}
	st, err := store.New(cfg.DataDir)
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	s := New(cfg)
	s.RegisterRoutes(ingest.New(ingest.Config{Store: st}), st, nil)

	var last int
	for i := 0; i < 3; i++ {
		resp, err := s.App.Test(httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		last = resp.StatusCode
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", last)
	}

	resp, err := s.App.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/healthz status = %d, want 200 while rate limited", resp.StatusCode)
	}
}
