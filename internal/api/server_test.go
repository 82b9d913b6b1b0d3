package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/docfill/internal/archive"
	"github.com/dgallion1/docfill/internal/config"
	"github.com/dgallion1/docfill/internal/generate"
	"github.com/dgallion1/docfill/internal/pipeline"
)

const testKey = "secret"

const thesisTemplate = "BAB I PENDAHULUAN\n\n1.1 Latar Belakang\n\nTULISKAN LATAR BELAKANG\n\n" +
	"1.2 Rumusan Masalah\n\n[empty]\n\nBAB II TINJAUAN PUSTAKA\n\n2.1 Landasan Teori\n\n" +
	"Jelaskan teori yang digunakan\n"

const thesisContent = `{"chapter1": {"latar_belakang": "Latar belakang penelitian.",
"rumusan_masalah": "Rumusan masalah penelitian."},
"chapter2": {"landasan_teori": "Teori yang digunakan."}}`

// memStore is an in-memory archive store.
type memStore struct {
	mu    sync.Mutex
	nodes map[string]json.RawMessage
}

func (m *memStore) PutNode(_ context.Context, key string, req archive.NodeRequest) error {
	b, err := json.Marshal(req.Value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[key] = b
	return nil
}

func (m *memStore) GetNode(_ context.Context, key string) (*archive.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.nodes[key]
	if !ok {
		return nil, nil
	}
	return &archive.Node{Key: key, Value: v}, nil
}

func (m *memStore) ListChildren(_ context.Context, key string, _ int) ([]archive.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []archive.Node
	for k, v := range m.nodes {
		if strings.HasPrefix(k, key+"/") {
			out = append(out, archive.Node{Key: k, Value: v})
		}
	}
	return out, nil
}

func (m *memStore) DeleteNode(_ context.Context, key string, recursive bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.nodes {
		if k == key || (recursive && strings.HasPrefix(k, key+"/")) {
			delete(m.nodes, k)
		}
	}
	return nil
}

func (m *memStore) PutLink(context.Context, archive.LinkRequest) error { return nil }

type testEnv struct {
	srv   *httptest.Server
	store *memStore
}

func newTestEnv(t *testing.T, withArchive bool, claude *generate.ClaudeClient) *testEnv {
	t.Helper()
	env := &testEnv{}
	var arc *archive.Archive
	if withArchive {
		env.store = &memStore{nodes: make(map[string]json.RawMessage)}
		arc = archive.New(env.store)
	}
	filler := pipeline.NewFiller(nil, nil, nil, nil)
	orch := pipeline.NewOrchestrator(pipeline.Options{Workers: 1}, filler, arc, nil)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)

	cfg := config.Config{APIKey: testKey, MaxUploadBytes: 1 << 20, WorkerCount: 2}
	env.srv = httptest.NewServer(NewServer(orch, claude, nil, cfg))
	t.Cleanup(env.srv.Close)
	return env
}

type part struct {
	field, filename, body string
}

func multipartBody(t *testing.T, parts []part, fields map[string]string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		fw, err := mw.CreateFormFile(p.field, p.filename)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte(p.body))
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+testKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealth_NoAuth(t *testing.T) {
	env := newTestEnv(t, false, nil)
	resp, err := http.Get(env.srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var body map[string]any
	decode(t, resp, &body)
	if body["status"] != "ok" || body["generation"] != false {
		t.Errorf("unexpected health %v", body)
	}
}

func TestAuth(t *testing.T) {
	env := newTestEnv(t, false, nil)
	for name, header := range map[string]string{
		"missing": "",
		"wrong":   "Bearer nope",
		"scheme":  "Basic " + testKey,
	} {
		t.Run(name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, env.srv.URL+"/api/templates", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", resp.StatusCode)
			}
		})
	}
}

func TestAnalyze(t *testing.T) {
	env := newTestEnv(t, true, nil)
	body, ct := multipartBody(t, []part{{"file", "skripsi.txt", thesisTemplate}}, nil)
	resp := env.do(t, http.MethodPost, "/api/analyze", body, ct)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}

	var res analysis
	decode(t, resp, &res)
	if res.Filename != "skripsi.txt" || res.Hash != archive.HashTemplate([]byte(thesisTemplate)) {
		t.Errorf("unexpected identity %q %q", res.Filename, res.Hash)
	}
	if len(res.Zones) == 0 || res.Zones[0].Start != 0 {
		t.Errorf("expected zones in document order, got %+v", res.Zones)
	}
	if res.Summary == nil || len(res.Summary.Chapters) != 2 {
		t.Errorf("unexpected summary %+v", res.Summary)
	}
	if res.Confidence <= 0 {
		t.Errorf("expected positive confidence, got %v", res.Confidence)
	}
	if _, ok := env.store.nodes["docfill/templates/"+res.Hash]; !ok {
		t.Error("analysis was not archived")
	}
}

func TestAnalyze_BadRequests(t *testing.T) {
	env := newTestEnv(t, false, nil)

	body, ct := multipartBody(t, []part{{"file", "data.csv", "a,b"}}, nil)
	if resp := env.do(t, http.MethodPost, "/api/analyze", body, ct); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unsupported type: expected 400, got %d", resp.StatusCode)
	}

	body, ct = multipartBody(t, nil, map[string]string{"x": "y"})
	if resp := env.do(t, http.MethodPost, "/api/analyze", body, ct); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing file: expected 400, got %d", resp.StatusCode)
	}

	body, ct = multipartBody(t, []part{{"file", "empty.txt", ""}}, nil)
	if resp := env.do(t, http.MethodPost, "/api/analyze", body, ct); resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("empty template: expected 422, got %d", resp.StatusCode)
	}
}

func TestBatchAnalyze(t *testing.T) {
	env := newTestEnv(t, false, nil)
	body, ct := multipartBody(t, []part{
		{"files", "a.txt", thesisTemplate},
		{"files", "b.csv", "x"},
		{"files", "c.md", "# BAB I PENDAHULUAN\n\nTULISKAN ISI\n"},
	}, nil)
	resp := env.do(t, http.MethodPost, "/api/analyze/batch", body, ct)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var res struct {
		Templates []analysis `json:"templates"`
	}
	decode(t, resp, &res)
	if len(res.Templates) != 3 {
		t.Fatalf("expected 3 results, got %d", len(res.Templates))
	}
	if res.Templates[0].Error != "" || res.Templates[0].Summary == nil {
		t.Errorf("first template failed: %+v", res.Templates[0])
	}
	if res.Templates[1].Error == "" {
		t.Error("expected unsupported type error for second file")
	}
	if res.Templates[2].Filename != "c.md" || res.Templates[2].Error != "" {
		t.Errorf("third template: %+v", res.Templates[2])
	}
	if len(res.Templates[0].Zones) != 0 {
		t.Error("batch results should not carry zones")
	}
}

func TestFill_EndToEnd(t *testing.T) {
	env := newTestEnv(t, true, nil)
	body, ct := multipartBody(t, []part{
		{"template", "skripsi.txt", thesisTemplate},
		{"content", "isi.json", thesisContent},
	}, map[string]string{"strategy": "auto"})
	resp := env.do(t, http.MethodPost, "/api/fill", body, ct)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var queued map[string]string
	decode(t, resp, &queued)
	if queued["job_id"] == "" || queued["poll_url"] != "/api/fill/"+queued["job_id"]+"/status" {
		t.Fatalf("unexpected response %v", queued)
	}

	var snap pipeline.JobSnapshot
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp := env.do(t, http.MethodGet, queued["poll_url"], nil, "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status poll: %d", resp.StatusCode)
		}
		decode(t, resp, &snap)
		if snap.Status.Done() {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job stuck in %q", snap.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if snap.Status != pipeline.StatusCompleted || snap.Progress.ItemsInserted != 3 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	resp = env.do(t, http.MethodGet, queued["result_url"], nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("result status %d", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "skripsi_filled.md") {
		t.Errorf("unexpected disposition %q", cd)
	}
	out, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(out), "Rumusan masalah penelitian.") {
		t.Errorf("filled document missing content:\n%s", out)
	}

	resp = env.do(t, http.MethodGet, "/api/templates/"+snap.TemplateHash, nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("template status %d", resp.StatusCode)
	}
	var tpl struct {
		Template archive.TemplateRecord `json:"template"`
		Fills    []archive.FillReport   `json:"fills"`
	}
	decode(t, resp, &tpl)
	if tpl.Template.Filename != "skripsi.txt" || len(tpl.Fills) != 1 || tpl.Fills[0].JobID != snap.ID {
		t.Errorf("unexpected archive view %+v", tpl)
	}
}

func TestFill_BadRequests(t *testing.T) {
	env := newTestEnv(t, false, nil)
	tpl := part{"template", "skripsi.txt", thesisTemplate}
	tests := []struct {
		name   string
		parts  []part
		fields map[string]string
	}{
		{"no template", []part{{"content", "isi.json", thesisContent}}, nil},
		{"unsupported template", []part{{"template", "a.csv", "x"}, {"content", "isi.json", thesisContent}}, nil},
		{"no content or topic", []part{tpl}, nil},
		{"topic without generator", []part{tpl}, map[string]string{"topic": "Sistem pakar"}},
		{"unknown strategy", []part{tpl, {"content", "isi.json", thesisContent}}, map[string]string{"strategy": "random"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, tt.parts, tt.fields)
			if resp := env.do(t, http.MethodPost, "/api/fill", body, ct); resp.StatusCode != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", resp.StatusCode)
			}
		})
	}
}

func TestFill_UnknownJob(t *testing.T) {
	env := newTestEnv(t, false, nil)
	for _, path := range []string{"/api/fill/nope/status", "/api/fill/nope/result"} {
		if resp := env.do(t, http.MethodGet, path, nil, ""); resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, resp.StatusCode)
		}
	}
}

func TestTemplates(t *testing.T) {
	env := newTestEnv(t, true, nil)
	body, ct := multipartBody(t, []part{{"file", "skripsi.txt", thesisTemplate}}, nil)
	env.do(t, http.MethodPost, "/api/analyze", body, ct)
	hash := archive.HashTemplate([]byte(thesisTemplate))

	resp := env.do(t, http.MethodGet, "/api/templates", nil, "")
	var list struct {
		Templates []archive.TemplateRecord `json:"templates"`
	}
	decode(t, resp, &list)
	if len(list.Templates) != 1 || list.Templates[0].Hash != hash {
		t.Fatalf("unexpected list %+v", list)
	}

	if resp := env.do(t, http.MethodDelete, "/api/templates/"+hash, nil, ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status %d", resp.StatusCode)
	}
	if resp := env.do(t, http.MethodGet, "/api/templates/"+hash, nil, ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", resp.StatusCode)
	}
	if resp := env.do(t, http.MethodDelete, "/api/templates/not-a-hash", nil, ""); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for bad hash, got %d", resp.StatusCode)
	}
}

func TestTemplates_NoArchive(t *testing.T) {
	env := newTestEnv(t, false, nil)
	if resp := env.do(t, http.MethodGet, "/api/templates", nil, ""); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}

func TestLLMStats(t *testing.T) {
	env := newTestEnv(t, false, nil)
	if resp := env.do(t, http.MethodGet, "/api/stats/llm", nil, ""); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without a client, got %d", resp.StatusCode)
	}

	env = newTestEnv(t, false, generate.NewClaudeClient("k", "test-model"))
	resp := env.do(t, http.MethodGet, "/api/stats/llm", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var body map[string]any
	decode(t, resp, &body)
	if body["model"] != "test-model" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestSanitizeFilename(t *testing.T) {
	for _, tt := range []struct{ in, want string }{
		{"skripsi.docx", "skripsi.docx"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\tpl.docx`, "tpl.docx"},
		{"", "unnamed"},
		{"a..b.txt", "a_b.txt"},
	} {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
