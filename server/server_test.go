package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ccreator/generator"
	"ccreator/orchestrator"
	"ccreator/render"
)

var jpegB64 = base64.StdEncoding.EncodeToString([]byte("\xff\xd8\xff\xe0\x00\x10JFIF fake"))

type fakeService struct {
	gate       chan struct{}
	imageErr   error
	image      string
	panicImage bool

	mu    sync.Mutex
	calls int
}

func (f *fakeService) wait(ctx context.Context) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.gate == nil {
		return nil
	}
	select {
	case <-f.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeService) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeService) GenerateContent(ctx context.Context, _ generator.InputType, _ string) (generator.TextContent, error) {
	if err := f.wait(ctx); err != nil {
		return generator.TextContent{}, err
	}
	return generator.TextContent{BlogPost: "<p>B</p>", BriefingDocument: "<p>D</p>", ImagePrompt: "a cat"}, nil
}

func (f *fakeService) GenerateImagePromptFromText(ctx context.Context, _ string) (string, error) {
	if err := f.wait(ctx); err != nil {
		return "", err
	}
	return "a dog", nil
}

func (f *fakeService) GenerateImage(ctx context.Context, _ string) (string, error) {
	if err := f.wait(ctx); err != nil {
		return "", err
	}
	if f.panicImage {
		panic("image backend exploded")
	}
	if f.imageErr != nil {
		return "", f.imageErr
	}
	if f.image != "" {
		return f.image, nil
	}
	return jpegB64, nil
}

type testServer struct {
	*httptest.Server
	srv *Server
	svc *fakeService
}

func newTestServer(t *testing.T, svc *fakeService) *testServer {
	t.Helper()
	return newTestServerWith(t, svc, Options{})
}

func newTestServerWith(t *testing.T, svc *fakeService, opts Options) *testServer {
	t.Helper()
	reg := prometheus.NewRegistry()
	opts.Logger = discardLogger()
	opts.Registerer = reg
	opts.Gatherer = reg
	srv, err := New(svc, opts)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return &testServer{Server: ts, srv: srv, svc: svc}
}

func (ts *testServer) do(t *testing.T, method, path, body string) (*http.Response, sessionResp) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out sessionResp
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

func (ts *testServer) createSession(t *testing.T) string {
	t.Helper()
	resp, out := ts.do(t, http.MethodPost, "/api/sessions", "{}")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, out.SessionID)
	assert.Equal(t, orchestrator.VariantWelcome, out.View.Variant)
	return out.SessionID
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &fakeService{})
	id := ts.createSession(t)

	resp, out := ts.do(t, http.MethodGet, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, id, out.SessionID)

	resp, _ = ts.do(t, http.MethodGet, "/api/sessions/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestContentWait(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &fakeService{})
	id := ts.createSession(t)

	resp, out := ts.do(t, http.MethodPost, "/api/sessions/"+id+"/content?wait=true", `{"input_type":"text","value":"hello"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, out.State.Content)
	assert.Equal(t, "<p>B</p>", out.State.Content.BlogPost)
	assert.Equal(t, jpegB64, out.State.Content.GeneratedImage)
	assert.Equal(t, orchestrator.VariantContent, out.View.Variant)
	assert.False(t, out.State.ContentLoading)
}

func TestTriggerValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantError  string
	}{
		{name: "empty content", path: "/content", body: `{"input_type":"url","value":""}`, wantStatus: http.StatusUnprocessableEntity, wantError: orchestrator.English.EmptyContent},
		{name: "empty text", path: "/image-prompt", body: `{"text":""}`, wantStatus: http.StatusUnprocessableEntity, wantError: orchestrator.English.EmptyText},
		{name: "empty prompt", path: "/image", body: `{"prompt":"  "}`, wantStatus: http.StatusUnprocessableEntity, wantError: orchestrator.English.EmptyPrompt},
		{name: "bad input type", path: "/content", body: `{"input_type":"pdf","value":"x"}`, wantStatus: http.StatusBadRequest},
		{name: "malformed json", path: "/content", body: `{`, wantStatus: http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t, &fakeService{})
			id := ts.createSession(t)

			resp, out := ts.do(t, http.MethodPost, "/api/sessions/"+id+tc.path, tc.body)
			assert.Equal(t, tc.wantStatus, resp.StatusCode)
			if tc.wantError != "" {
				assert.Equal(t, tc.wantError, out.Error)
				assert.Equal(t, tc.wantError, out.State.Error)
				assert.Equal(t, orchestrator.VariantError, out.View.Variant)
			}
			assert.Zero(t, ts.svc.Calls())
		})
	}
}

func TestWaitFailureIsBadGateway(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &fakeService{imageErr: errors.New("quota exceeded")})
	id := ts.createSession(t)

	resp, out := ts.do(t, http.MethodPost, "/api/sessions/"+id+"/image?wait=1", `{"prompt":"a cat"}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "image generation failed: quota exceeded", out.State.Error)
	assert.False(t, out.State.ImageLoading)
}

func TestBackgroundFlowAndConflict(t *testing.T) {
	t.Parallel()

	svc := &fakeService{gate: make(chan struct{})}
	ts := newTestServer(t, svc)
	id := ts.createSession(t)

	resp, out := ts.do(t, http.MethodPost, "/api/sessions/"+id+"/image-prompt", `{"text":"x"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.True(t, out.State.PromptLoading)
	assert.Equal(t, orchestrator.VariantLoading, out.View.Variant)

	resp, _ = ts.do(t, http.MethodPost, "/api/sessions/"+id+"/content", `{"input_type":"text","value":"hello"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp, _ = ts.do(t, http.MethodPost, "/api/sessions/"+id+"/image-prompt", `{"text":"x"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	close(svc.gate)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, ts.srv.Drain(ctx))

	resp, out = ts.do(t, http.MethodGet, "/api/sessions/"+id, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "a dog", out.State.CurrentPrompt)
	assert.Equal(t, jpegB64, out.State.PromptOnlyImage)
	assert.False(t, out.State.PromptLoading)
	assert.False(t, out.State.ImageLoading)
	assert.Equal(t, orchestrator.VariantImageOnly, out.View.Variant)
}

func TestImageDownload(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &fakeService{})
	id := ts.createSession(t)

	resp, _ := ts.do(t, http.MethodGet, "/api/sessions/"+id+"/image", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodPost, "/api/sessions/"+id+"/image?wait=true", `{"prompt":"a cat"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	res, err := ts.Client().Get(ts.URL + "/api/sessions/" + id + "/image")
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	want, _ := base64.StdEncoding.DecodeString(jpegB64)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "image/jpeg", res.Header.Get("Content-Type"))
	assert.Contains(t, res.Header.Get("Content-Disposition"), render.DownloadName("image/jpeg"))
	assert.Equal(t, want, body)
}

func TestHealthMetricsAndIndex(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &fakeService{})
	ts.createSession(t)

	for path, want := range map[string]string{
		"/healthz": `"status":"ok"`,
		"/metrics": "ccreator_sessions 1",
		"/":        "AI Content Synthesizer",
	} {
		res, err := ts.Client().Get(ts.URL + path)
		require.NoError(t, err, path)
		body, err := io.ReadAll(res.Body)
		res.Body.Close()
		require.NoError(t, err, path)
		assert.Equal(t, http.StatusOK, res.StatusCode, path)
		assert.Contains(t, string(body), want, path)
	}
}

func TestNewRequiresService(t *testing.T) {
	t.Parallel()

	_, err := New(nil, Options{})
	assert.Error(t, err)
}

func (ts *testServer) get(t *testing.T, path string) string {
	t.Helper()
	res, err := ts.Client().Get(ts.URL + path)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return string(body)
}

func TestIdleSessionsExpire(t *testing.T) {
	t.Parallel()

	ts := newTestServerWith(t, &fakeService{}, Options{SessionTTL: time.Minute})
	idle := ts.createSession(t)
	assert.Contains(t, ts.get(t, "/metrics"), "ccreator_sessions 1")

	later := time.Now().Add(2 * time.Minute)
	ts.srv.store.setClock(func() time.Time { return later })

	resp, _ := ts.do(t, http.MethodGet, "/api/sessions/"+idle, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, ts.get(t, "/metrics"), "ccreator_sessions 0")
	assert.Zero(t, ts.srv.store.len())
}

func TestCreateSweepsExpiredSessions(t *testing.T) {
	t.Parallel()

	ts := newTestServerWith(t, &fakeService{}, Options{SessionTTL: time.Minute})
	ts.createSession(t)
	ts.createSession(t)
	require.Equal(t, 2, ts.srv.store.len())

	later := time.Now().Add(2 * time.Minute)
	ts.srv.store.setClock(func() time.Time { return later })

	fresh := ts.createSession(t)
	assert.Equal(t, 1, ts.srv.store.len())
	resp, _ := ts.do(t, http.MethodGet, "/api/sessions/"+fresh, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRunningSessionIsNotExpired(t *testing.T) {
	t.Parallel()

	svc := &fakeService{gate: make(chan struct{})}
	ts := newTestServerWith(t, svc, Options{SessionTTL: time.Minute})
	id := ts.createSession(t)

	resp, _ := ts.do(t, http.MethodPost, "/api/sessions/"+id+"/image", `{"prompt":"a cat"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	later := time.Now().Add(time.Hour)
	ts.srv.store.setClock(func() time.Time { return later })

	resp, out := ts.do(t, http.MethodGet, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, out.State.ImageLoading)

	close(svc.gate)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, ts.srv.Drain(ctx))
}

func TestBackgroundPanicKeepsServing(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &fakeService{panicImage: true})
	id := ts.createSession(t)

	resp, _ := ts.do(t, http.MethodPost, "/api/sessions/"+id+"/image", `{"prompt":"a cat"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, ts.srv.Drain(ctx))

	resp, out := ts.do(t, http.MethodGet, "/api/sessions/"+id, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, out.State.ImageLoading)
	assert.Contains(t, out.State.Error, "image generation failed")
	assert.Equal(t, orchestrator.VariantError, out.View.Variant)

	resp, _ = ts.do(t, http.MethodPost, "/api/sessions/"+id+"/image?wait=true", `{"prompt":"a cat"}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestSnapshotImageURIUsesSniffedType(t *testing.T) {
	t.Parallel()

	pngB64 := base64.StdEncoding.EncodeToString(append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...))
	ts := newTestServer(t, &fakeService{image: pngB64})
	id := ts.createSession(t)

	resp, out := ts.do(t, http.MethodPost, "/api/sessions/"+id+"/image?wait=true", `{"prompt":"a cat"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "data:image/png;base64,"+pngB64, out.ImageURI)

	resp, out = ts.do(t, http.MethodPost, "/api/sessions/"+id+"/content?wait=true", `{"input_type":"text","value":"hello"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(out.ImageURI, "data:image/png;base64,"))
}
