package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() *Client {
	return NewClient(5*time.Second, zerolog.Nop())
}

func TestPostFormSendsBodyIntact(t *testing.T) {
	longQuery := "select * where { ?s ?p \"" + strings.Repeat("unmuzzling measles ", 400) + "\" }"

	var gotForm url.Values
	var gotPath, gotAccept, gotContentType, gotRequestID string
	var gotUser, gotPass string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccept = r.Header.Get("Accept")
		gotContentType = r.Header.Get("Content-Type")
		gotRequestID = r.Header.Get(RequestIDHeader)
		gotUser, gotPass, _ = r.BasicAuth()
		assert.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	form := url.Values{}
	form.Set("query", longQuery)
	form.Set("limit", "1")

	resp, err := newTestClient().PostForm(context.Background(),
		Target{BaseURL: srv.URL + "/", Username: "admin", Password: "admin"},
		form, "application/sparql-results+json", "nodeDB", "query")
	require.NoError(t, err)

	assert.Equal(t, "/nodeDB/query", gotPath)
	assert.Equal(t, "application/sparql-results+json", gotAccept)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Equal(t, "admin", gotUser)
	assert.Equal(t, "admin", gotPass)
	assert.Equal(t, longQuery, gotForm.Get("query"))
	assert.Equal(t, "1", gotForm.Get("limit"))
	assert.Len(t, gotRequestID, 26)
	assert.Equal(t, gotRequestID, resp.RequestID)
	assert.Equal(t, []byte(`{}`), resp.Body)
}

func TestPutJSON(t *testing.T) {
	var gotMethod, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
	}))
	defer srv.Close()

	_, err := newTestClient().PutJSON(context.Background(), Target{BaseURL: srv.URL},
		map[string]string{"strategy": "NO_WAIT"}, "admin", "databases", "nodeDB", "online")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.JSONEq(t, `{"strategy":"NO_WAIT"}`, gotBody)
}

func TestNon2xxBecomesStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(strings.Repeat("x", 2*maxErrorBody)))
	}))
	defer srv.Close()

	_, err := newTestClient().Get(context.Background(), Target{BaseURL: srv.URL}, "application/json", "admin", "databases")
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Len(t, statusErr.Body, maxErrorBody+3)
	assert.NotEmpty(t, statusErr.RequestID)
	assert.Contains(t, statusErr.Error(), "status 401")
}

func TestTransportFailureIsWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	_, err := newTestClient().Get(context.Background(), Target{BaseURL: base}, "", "nodeDB", "size")
	require.Error(t, err)

	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr))
	assert.Contains(t, err.Error(), "GET "+base+"/nodeDB/size")
}

func TestContextCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient().Get(ctx, Target{BaseURL: srv.URL}, "", "slow")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestPathElementsAreEscapedSegments(t *testing.T) {
	var gotRawPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRawPath = r.URL.EscapedPath()
	}))
	defer srv.Close()

	_, err := newTestClient().Get(context.Background(), Target{BaseURL: srv.URL + "/"}, "", "evil/../nodeDB", "size")
	require.NoError(t, err)
	assert.Equal(t, "/evil%2F..%2FnodeDB/size", gotRawPath)
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base string
		path []string
		want string
	}{
		{"http://localhost:5820", []string{"nodeDB", "query"}, "http://localhost:5820/nodeDB/query"},
		{"http://localhost:5820/", []string{"admin", "databases"}, "http://localhost:5820/admin/databases"},
		{"http://host/stardog/", []string{"my db", "size"}, "http://host/stardog/my%20db/size"},
		{"http://host", []string{"..", "size"}, "http://host/../size"},
		{"http://host", nil, "http://host"},
	}
	for _, tt := range tests {
		got, err := buildURL(tt.base, tt.path)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := buildURL("http://host/%zz", []string{"x"})
	assert.Error(t, err)
}
