package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ziadkadry99/esp-finder/internal/client"
	"github.com/ziadkadry99/esp-finder/internal/controller"
	"github.com/ziadkadry99/esp-finder/internal/db"
	"github.com/ziadkadry99/esp-finder/internal/tasks"
)

type stubIdentifier struct{}

func (stubIdentifier) Identify(_ context.Context, email string) string {
	if strings.HasSuffix(email, "@gmail.com") {
		return "Gmail"
	}
	return "Others"
}

type testEnv struct {
	srv       *Server
	store     *tasks.Store
	runner    *tasks.Runner
	uploads   string
	processed string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	dir := t.TempDir()
	uploads := filepath.Join(dir, "uploads")
	processed := filepath.Join(dir, "processed")

	store := tasks.NewStore(database)
	runner := tasks.NewRunner(context.Background(), store, uploads, processed,
		func() tasks.Identifier { return stubIdentifier{} })
	t.Cleanup(runner.Wait)

	srv := New(Config{Port: 0, UploadDir: uploads, ProcessedDir: processed}, store, runner,
		func() Identifier { return stubIdentifier{} })
	return &testEnv{srv: srv, store: store, runner: runner, uploads: uploads, processed: processed}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.srv.Router().ServeHTTP(w, req)
	return w
}

func uploadRequest(t *testing.T, field, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		io.WriteString(part, content)
	} else if field != "" {
		mw.WriteField(field, content)
	}
	mw.Close()
	req := httptest.NewRequest("POST", "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	if w.Code != status {
		t.Errorf("expected %d, got %d", status, w.Code)
	}
	var body map[string]string
	decodeBody(t, w, &body)
	if body["error"] != msg {
		t.Errorf("expected error %q, got %q", msg, body["error"])
	}
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(httptest.NewRequest("GET", "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	decodeBody(t, w, &body)
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestCORSHeaders(t *testing.T) {
	env := newTestEnv(t)
	env.srv = New(Config{AllowAll: true}, env.store, env.runner, func() Identifier { return stubIdentifier{} })

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := env.do(req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestUpload(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(uploadRequest(t, "file", "My Contacts.csv", "name,email\nAda,ada@gmail.com\n"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res uploadResponse
	decodeBody(t, w, &res)
	if res.FilePath != "My_Contacts.csv" {
		t.Errorf("unexpected file_path %q", res.FilePath)
	}
	if len(res.Columns) != 2 || res.Columns[0] != "name" || res.Columns[1] != "email" {
		t.Errorf("unexpected columns %v", res.Columns)
	}
	if _, err := os.Stat(filepath.Join(env.uploads, "My_Contacts.csv")); err != nil {
		t.Errorf("upload not saved: %v", err)
	}
}

func TestUploadErrors(t *testing.T) {
	env := newTestEnv(t)

	expectError(t, env.do(uploadRequest(t, "other", "a.csv", "x")), http.StatusBadRequest, "No file uploaded")
	expectError(t, env.do(uploadRequest(t, "file", "", "")), http.StatusBadRequest, "No file selected")
	expectError(t, env.do(uploadRequest(t, "file", "notes.txt", "x")), http.StatusBadRequest, "Invalid file type")
	expectError(t, env.do(httptest.NewRequest("POST", "/upload", strings.NewReader("{}"))), http.StatusBadRequest, "No file uploaded")
}

func TestSecureFilename(t *testing.T) {
	tests := map[string]string{
		"data.csv":          "data.csv",
		"../../etc/passwd":  "passwd",
		`C:\Users\me\x.csv`: "x.csv",
		"my file (1).csv":   "my_file_1.csv",
		".hidden.csv":       "hidden.csv",
		"ünïcode.csv":       "ncode.csv",
	}
	for in, want := range tests {
		if got := secureFilename(in); got != want {
			t.Errorf("secureFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestProcessValidation(t *testing.T) {
	env := newTestEnv(t)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/process", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return env.do(req)
	}

	expectError(t, post(`{"file_path":"a.csv"}`), http.StatusBadRequest, "Missing file path or email column")
	expectError(t, post(`{"file_path":"missing.csv","email_column":"email"}`), http.StatusNotFound, "File not found")
	expectError(t, post(`{"file_path":"../secret.csv","email_column":"email"}`), http.StatusNotFound, "File not found")
	expectError(t, post(`not json`), http.StatusBadRequest, "Invalid request body")
}

func TestProgressUnknownTask(t *testing.T) {
	env := newTestEnv(t)
	expectError(t, env.do(httptest.NewRequest("GET", "/progress/nope", nil)), http.StatusNotFound, "Task not found")
}

func TestDownloadMissing(t *testing.T) {
	env := newTestEnv(t)
	expectError(t, env.do(httptest.NewRequest("GET", "/download/none-esp.csv", nil)), http.StatusNotFound, "File not found")
}

func TestIdentify(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest("POST", "/identify", strings.NewReader(`{"email":" a@gmail.com "}`))
	w := env.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var res identifyResponse
	decodeBody(t, w, &res)
	if res.Email != "a@gmail.com" || res.ESP != "Gmail" {
		t.Errorf("unexpected response %+v", res)
	}

	expectError(t, env.do(httptest.NewRequest("POST", "/identify", strings.NewReader(`{"email":""}`))),
		http.StatusBadRequest, "Email is required")
}

// nopView satisfies controller.View for the end-to-end flow.
type nopView struct {
	widths []float64
	link   string
	result *controller.Alert
}

func (v *nopView) Init(int) {}
func (v *nopView) SetFileName(string) {}
func (v *nopView) SetColumns([]string) {}
func (v *nopView) ShowColumnSelection() {}
func (v *nopView) ShowProgress() {}
func (v *nopView) SetProgress(p float64) { v.widths = append(v.widths, p) }
func (v *nopView) HideProgress() {}
func (v *nopView) ShowResult(a controller.Alert) { v.result = &a }
func (v *nopView) ShowDownloadLink(_, href string) { v.link = href }
func (v *nopView) ShowSingleResult(a controller.Alert) { v.result = &a }

func TestEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	ts := httptest.NewServer(env.srv.Router())
	defer ts.Close()

	src := filepath.Join(t.TempDir(), "people.csv")
	os.WriteFile(src, []byte("name,email\nAda,ada@gmail.com\nBob,bob@corp.example\n"), 0o644)

	view := &nopView{}
	c := controller.New(client.NewClientWithHTTP(ts.URL, ts.Client()), view, controller.Options{
		PollInterval: 10 * time.Millisecond,
	})
	c.Init()
	c.SelectFile(src)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := c.Upload(ctx); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := c.Process(ctx, "email"); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if c.State() != controller.StateComplete {
		t.Fatalf("expected complete, got %s", c.State())
	}
	if view.link != ts.URL+"/download/people-esp.csv" {
		t.Errorf("unexpected link %q", view.link)
	}
	if view.widths[len(view.widths)-1] != 100 {
		t.Errorf("expected final width 100, got %v", view.widths)
	}

	dest, err := c.Download(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	data, _ := os.ReadFile(dest)
	want := "name,email,ESP\nAda,ada@gmail.com,Gmail\nBob,bob@corp.example,Others\n"
	if string(data) != want {
		t.Errorf("got %q, want %q", data, want)
	}
}

func TestEndToEndUnknownColumn(t *testing.T) {
	env := newTestEnv(t)
	ts := httptest.NewServer(env.srv.Router())
	defer ts.Close()

	src := filepath.Join(t.TempDir(), "people.csv")
	os.WriteFile(src, []byte("name\nAda\n"), 0o644)

	view := &nopView{}
	c := controller.New(client.NewClientWithHTTP(ts.URL, ts.Client()), view, controller.Options{PollInterval: 10 * time.Millisecond})
	c.SelectFile(src)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := c.Upload(ctx); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := c.Process(ctx, "email"); err == nil {
		t.Fatal("expected processing to fail")
	}
	if view.result == nil || view.result.Text() != controller.ProcessingFailed {
		t.Errorf("unexpected result %+v", view.result)
	}
}
