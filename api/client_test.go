package api_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/shopcheck/api"
	"github.com/networkteam/shopcheck/config"
	"github.com/networkteam/shopcheck/report"
)

type recordedRequest struct {
	method string
	path   string
	query  string
	header http.Header
	body   string
}

func recordingServer(t *testing.T, status int, body string) (*httptest.Server, <-chan recordedRequest) {
	t.Helper()
	requests := make(chan recordedRequest, 10)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		requests <- recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			header: r.Header.Clone(),
			body:   string(data),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server, requests
}

func TestClient_Get_JoinsEndpointAndHeaders(t *testing.T) {
	server, requests := recordingServer(t, http.StatusOK, `{"ok":true}`)
	client := api.NewClient(api.Options{
		BaseURL: server.URL + "/api/",
		Headers: map[string]string{"X-Api-Key": "default", "X-Env": "dev"},
	})
	defer client.Close()

	resp, err := client.Get(context.Background(), "/users?page=2", map[string]string{"X-Api-Key": "override"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "OK", resp.StatusText)
	assert.True(t, resp.OK())
	assert.JSONEq(t, `{"ok":true}`, resp.Text())

	req := <-requests
	assert.Equal(t, http.MethodGet, req.method)
	assert.Equal(t, "/api/users", req.path)
	assert.Equal(t, "page=2", req.query)
	assert.Equal(t, "override", req.header.Get("X-Api-Key"))
	assert.Equal(t, "dev", req.header.Get("X-Env"))
}

func TestClient_AbsoluteURLPassesThrough(t *testing.T) {
	server, requests := recordingServer(t, http.StatusOK, `{}`)
	client := api.NewClient(api.Options{BaseURL: "http://unused.invalid/api/"})
	defer client.Close()

	_, err := client.Get(context.Background(), server.URL+"/direct", nil)
	require.NoError(t, err)

	assert.Equal(t, "/direct", (<-requests).path)
}

func TestClient_RelativeEndpointWithoutBaseURL(t *testing.T) {
	client := api.NewClient(api.Options{})
	defer client.Close()

	_, err := client.Get(context.Background(), "users", nil)

	assert.ErrorContains(t, err, "without base URL")
}

func TestClient_Post_DefaultsContentType(t *testing.T) {
	server, requests := recordingServer(t, http.StatusCreated, `{"id":"1"}`)
	client := api.NewClient(api.Options{BaseURL: server.URL})
	defer client.Close()

	resp, err := client.Post(context.Background(), "users", api.CreateUserRequest{Name: "Horen", Job: "QA"}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.Status)

	req := <-requests
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "application/json", req.header.Get("Content-Type"))
	assert.JSONEq(t, `{"name":"Horen","job":"QA"}`, req.body)
}

func TestClient_Post_KeepsGivenContentType(t *testing.T) {
	server, requests := recordingServer(t, http.StatusOK, `{}`)
	client := api.NewClient(api.Options{BaseURL: server.URL})
	defer client.Close()

	_, err := client.Post(context.Background(), "users", map[string]string{"a": "b"}, map[string]string{"content-type": "application/vnd.test+json"})
	require.NoError(t, err)

	assert.Equal(t, "application/vnd.test+json", (<-requests).header.Get("Content-Type"))
}

func TestClient_Post_NilBody(t *testing.T) {
	server, requests := recordingServer(t, http.StatusOK, `{}`)
	client := api.NewClient(api.Options{BaseURL: server.URL})
	defer client.Close()

	_, err := client.Post(context.Background(), "ping", nil, nil)
	require.NoError(t, err)

	assert.Empty(t, (<-requests).body)
}

func TestClient_Delete(t *testing.T) {
	server, requests := recordingServer(t, http.StatusNoContent, "")
	client := api.NewClient(api.Options{BaseURL: server.URL})
	defer client.Close()

	resp, err := client.Delete(context.Background(), "users/2", nil)
	require.NoError(t, err)

	assert.Equal(t, http.StatusNoContent, resp.Status)
	assert.Equal(t, "No Content", resp.StatusText)
	assert.Equal(t, http.MethodDelete, (<-requests).method)
}

func TestClient_NoRetryOnServerError(t *testing.T) {
	server, requests := recordingServer(t, http.StatusInternalServerError, `{"error":"boom"}`)
	client := api.NewClient(api.Options{BaseURL: server.URL})
	defer client.Close()

	resp, err := client.Get(context.Background(), "users", nil)
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.False(t, resp.OK())
	<-requests
	assert.Empty(t, requests)
}

type failingTransport struct{ err error }

func (f failingTransport) RoundTrip(*http.Request) (*http.Response, error) { return nil, f.err }

func TestClient_TransportError(t *testing.T) {
	boom := errors.New("connection refused")
	client := api.NewClient(api.Options{BaseURL: "http://shop.invalid", Transport: failingTransport{err: boom}})
	defer client.Close()

	_, err := client.Get(context.Background(), "users", nil)

	assert.ErrorIs(t, err, boom)
	exchanges := client.Exchanges(10)
	require.Len(t, exchanges, 1)
	assert.ErrorIs(t, exchanges[0].Error, boom)
}

func TestClient_CapturesExchanges(t *testing.T) {
	server, _ := recordingServer(t, http.StatusCreated, `{"id":"7","name":"Horen"}`)
	client := api.NewClient(api.Options{BaseURL: server.URL, ExchangeCapacity: 2})
	defer client.Close()

	for _, name := range []string{"a", "b", "c"} {
		_, err := client.Post(context.Background(), "users", map[string]string{"name": name}, nil)
		require.NoError(t, err)
	}

	exchanges := client.Exchanges(10)
	require.Len(t, exchanges, 2)
	assert.JSONEq(t, `{"name":"b"}`, exchanges[0].RequestBody)
	assert.JSONEq(t, `{"name":"c"}`, exchanges[1].RequestBody)
	assert.Equal(t, http.StatusCreated, exchanges[1].StatusCode)
	assert.Equal(t, http.MethodPost, exchanges[1].Method)
	assert.JSONEq(t, `{"id":"7","name":"Horen"}`, exchanges[1].ResponseBody)
	assert.False(t, exchanges[1].ResponseTime.Before(exchanges[1].RequestTime))
}

func TestClient_CaptureTruncatesBodies(t *testing.T) {
	large := strings.Repeat("x", 100)
	server, _ := recordingServer(t, http.StatusOK, large)
	client := api.NewClient(api.Options{BaseURL: server.URL, CaptureBodyLimit: 10})
	defer client.Close()

	resp, err := client.Get(context.Background(), "big", nil)
	require.NoError(t, err)

	assert.Equal(t, large, resp.Text(), "the caller always sees the full body")
	exchange := client.Exchanges(1)[0]
	assert.Equal(t, strings.Repeat("x", 10), exchange.ResponseBody)
	assert.True(t, exchange.ResponseBodyTruncated)
}

func TestClient_ReportsExchangesToContextTest(t *testing.T) {
	server, _ := recordingServer(t, http.StatusOK, `{"data":{"id":1}}`)
	client := api.NewClient(api.Options{BaseURL: server.URL})
	defer client.Close()

	test := report.New(report.Options{Title: "API"}).CreateTest("Get user", "")
	ctx := report.ContextWithTest(context.Background(), test)

	_, err := client.Get(ctx, "users/1", nil)
	require.NoError(t, err)

	entries := test.Entries()
	require.Len(t, entries, 2)
	assert.Contains(t, entries[0].Message, "GET "+server.URL+"/users/1 -> 200")
	assert.Equal(t, report.KindCode, entries[1].Kind)
	assert.Equal(t, "Response body", entries[1].Message)
	assert.Equal(t, "application/json", entries[1].ContentType)
	assert.Contains(t, entries[1].Code, "\n")
	assert.Equal(t, report.StatusInfo, test.Status())
}

func TestOptionsFromSettings(t *testing.T) {
	options := api.OptionsFromSettings(config.APISettings{
		BaseURL: "https://reqres.in/api/",
		Headers: map[string]string{"x-api-key": "reqres-free-v1"},
	})

	assert.Equal(t, "https://reqres.in/api/", options.BaseURL)
	assert.Equal(t, "reqres-free-v1", options.Headers["x-api-key"])
}
