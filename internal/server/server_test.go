package server_test

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/reoring/mdform"
	"github.com/reoring/mdform/internal/server"
)

func newTestServer(t *testing.T) (*httptest.Server, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	srv := httptest.NewServer(server.New(mdform.DefaultConfig(), zap.New(core)).Handler())
	t.Cleanup(srv.Close)
	return srv, logs
}

func post(t *testing.T, url, contentType, body string) (int, string) {
	t.Helper()
	resp, err := http.Post(url, contentType, strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestTranslate_JSON(t *testing.T) {
	srv, logs := newTestServer(t)
	status, body := post(t, srv.URL+"/v1/translate", "application/json",
		`{"title": "Parameters", "required": ["x"], "properties": {"x": {"type": "string"}}}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, `{"x":{"type":"string","required":true},"title":"Parameters"}`, body)

	entries := logs.FilterMessage("request").All()
	require.NotEmpty(t, entries)
	assert.Equal(t, int64(http.StatusOK), entries[len(entries)-1].ContextMap()["status"])
	assert.NotEmpty(t, entries[len(entries)-1].ContextMap()["request_id"])
}

func TestTranslate_YAML(t *testing.T) {
	srv, _ := newTestServer(t)
	schema := "properties:\n  n:\n    type: integer\n    maximum: 5\n"

	status, body := post(t, srv.URL+"/v1/translate", "application/yaml", schema)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, `{"n":{"type":"integer","parameters":{"max":5}}}`, body)

	status, body = post(t, srv.URL+"/v1/translate?format=yaml", "", schema)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, `{"n":{"type":"integer","parameters":{"max":5}}}`, body)
}

func TestTranslate_DatasetTypeMapping(t *testing.T) {
	srv, _ := newTestServer(t)
	status, body := post(t, srv.URL+"/v1/translate?type_mapping=dataset", "application/json",
		`{"properties":{"user_id":{"title":"User"}}}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, `{"user_id":{"title":"User","type":"UUID"}}`, body)

	status, _ = post(t, srv.URL+"/v1/translate?type_mapping=other", "application/json", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestTranslate_MalformedInput(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, body := range []string{`{"a":`, `{"a":1,"a":2}`, ``} {
		status, resp := post(t, srv.URL+"/v1/translate", "application/json", body)
		assert.Equal(t, http.StatusBadRequest, status, body)
		assert.Contains(t, resp, `"error"`)
	}

	status, _ := post(t, srv.URL+"/v1/translate", "image/png", `{}`)
	assert.Equal(t, http.StatusUnsupportedMediaType, status)
}

func TestTranslate_ReferenceError(t *testing.T) {
	srv, _ := newTestServer(t)
	status, body := post(t, srv.URL+"/v1/translate", "application/json",
		`{"definitions":{},"properties":{"g":{"$ref":"#/definitions/Ghost"}}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	var resp struct {
		Error string `json:"error"`
		Ref   string `json:"ref"`
		Path  string `json:"path"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Contains(t, resp.Error, "resolve-refs")
	assert.Equal(t, "#/definitions/Ghost", resp.Ref)
	assert.Equal(t, "/properties/g", resp.Path)
}

func TestTranslate_RootNotObject(t *testing.T) {
	srv, _ := newTestServer(t)
	status, body := post(t, srv.URL+"/v1/translate", "application/json", `[1,2]`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.NotContains(t, body, `"ref"`)
}

func TestTranslate_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/v1/translate")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.New(mdform.DefaultConfig(), nil).ListenAndServe(ctx, addr)
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
