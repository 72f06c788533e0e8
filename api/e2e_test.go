package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mkarpis/jobtrail/api"
	dbfs "github.com/mkarpis/jobtrail/db"
	"github.com/mkarpis/jobtrail/internal/config"
	dbpkg "github.com/mkarpis/jobtrail/internal/db"
	"github.com/mkarpis/jobtrail/internal/upload"
	"github.com/mkarpis/jobtrail/pkg/models"
)

// TestApplicationLifecycle drives the full HTTP surface against a real
// database: register, add a job with a resume, move it to interview, check
// the stats, download the resume and finally delete the record.
func TestApplicationLifecycle(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	database, err := dbpkg.New(ctx, filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer database.Close()
	if err := dbpkg.Migrate(ctx, database, dbfs.Migrations); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	files, err := upload.NewStore(filepath.Join(dir, "uploads"), nil)
	if err != nil {
		t.Fatalf("upload store: %v", err)
	}

	queue := &queueRecorder{}
	cfg := &config.Config{JWTSecret: "testsecret", TokenDuration: time.Hour}
	router := api.SetupRoutes(cfg, "test", "now", database, files, queue)

	send := func(method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, body)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if token != "" {
			req.Header.Set(api.TokenHeader, token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	// register
	regBody, _ := json.Marshal(map[string]string{"name": "Alice", "email": "alice@example.com", "password": "s3cret"})
	w := send(http.MethodPost, "/api/auth/register", "", bytes.NewReader(regBody), "application/json")
	if w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	var reg struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &reg); err != nil || reg.Token == "" {
		t.Fatalf("register: no token in %s", w.Body.String())
	}

	// login returns a usable token too
	loginBody, _ := json.Marshal(map[string]string{"email": "alice@example.com", "password": "s3cret"})
	w = send(http.MethodPost, "/api/auth/login", "", bytes.NewReader(loginBody), "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (%s)", w.Code, w.Body.String())
	}

	// unauthenticated access is refused
	w = send(http.MethodGet, "/api/jobs", "", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	// add a job with a resume attached
	body, ct := multipartBody(t,
		map[string]string{"company": "Acme", "role": "Engineer", "status": "applied", "source": "referral"},
		&filePart{Name: "cv.pdf", ContentType: "application/pdf", Content: pdfBytes()},
	)
	w = send(http.MethodPost, "/api/jobs", reg.Token, body, ct)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	job := decodeJob(t, w.Body.Bytes())
	if job.ID == "" || job.Resume == "" {
		t.Fatalf("create: incomplete record %+v", job)
	}
	if len(queue.Msgs) != 1 || !strings.Contains(queue.Msgs[0].Body, "Acme - Engineer") {
		t.Fatalf("create: expected added-job notification, got %+v", queue.Msgs)
	}

	// move it to the interview stage
	body, ct = multipartBody(t, map[string]string{
		"company":       "Acme",
		"role":          "Engineer",
		"status":        "interview",
		"interviewDate": "2026-09-15",
		"source":        "referral",
	}, nil)
	w = send(http.MethodPut, "/api/jobs/"+job.ID, reg.Token, body, ct)
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	updated := decodeJob(t, w.Body.Bytes())
	if updated.Status != models.StatusInterview || updated.InterviewDate == nil {
		t.Fatalf("update: expected interview stage with date, got %+v", updated)
	}
	if updated.Resume != job.Resume {
		t.Fatalf("update: resume reference should survive, got %q", updated.Resume)
	}
	if len(queue.Msgs) != 2 || !strings.Contains(queue.Msgs[1].Body, "from applied to interview") {
		t.Fatalf("update: expected status-change notification, got %+v", queue.Msgs)
	}

	// list and stats reflect the record
	w = send(http.MethodGet, "/api/jobs", reg.Token, nil, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"count":1`) {
		t.Fatalf("list: expected one record, got %d (%s)", w.Code, w.Body.String())
	}
	w = send(http.MethodGet, "/api/jobs/stats", reg.Token, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d", w.Code)
	}
	var statsResp struct {
		Stats models.Stats `json:"stats"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &statsResp); err != nil {
		t.Fatalf("stats: unmarshal: %v", err)
	}
	if statsResp.Stats.Interview != 1 || statsResp.Stats.Total != 1 {
		t.Fatalf("stats: unexpected %+v", statsResp.Stats)
	}

	// resume download streams the stored bytes back
	w = send(http.MethodGet, "/api/jobs/resume/"+job.ID, reg.Token, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("download: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	if !bytes.Equal(w.Body.Bytes(), pdfBytes()) {
		t.Fatalf("download: streamed bytes differ")
	}
	wantName := fmt.Sprintf("resume_Acme_%s.pdf", job.ID)
	if !strings.Contains(w.Header().Get("Content-Disposition"), wantName) {
		t.Fatalf("download: expected filename %q, got %q", wantName, w.Header().Get("Content-Disposition"))
	}

	// delete and verify everything is gone
	w = send(http.MethodDelete, "/api/jobs/"+job.ID, reg.Token, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	w = send(http.MethodGet, "/api/jobs", reg.Token, nil, "")
	if !strings.Contains(w.Body.String(), `"count":0`) {
		t.Fatalf("list after delete: expected empty, got %s", w.Body.String())
	}
	w = send(http.MethodGet, "/api/jobs/resume/"+job.ID, reg.Token, nil, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("download after delete: expected 404, got %d", w.Code)
	}
}
