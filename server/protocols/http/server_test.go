package http

import (
	"io"
	"math"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/gear6io/stardog-go/server/dataset"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func newTestServer(t *testing.T) (*Server, *dataset.Store) {
	t.Helper()
	store := dataset.NewStore(dataset.Seed())
	return NewServer(store, zerolog.Nop()), store
}

func do(t *testing.T, s *Server, method, path, contentType, body string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.SetBasicAuth("admin", "admin")
	req.Header.Set(requestIDHeader, "01TESTREQUEST")

	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func query(t *testing.T, s *Server, db string, form url.Values) (int, []byte) {
	return do(t, s, "POST", "/"+db+"/query", "application/x-www-form-urlencoded", form.Encode())
}

func TestQuerySelect(t *testing.T) {
	s, store := newTestServer(t)

	status, body := query(t, s, "nodeDB", url.Values{
		"query":     {"select * where { ?s ?p ?o }"},
		"limit":     {"10"},
		"offset":    {"0"},
		"reasoning": {"false"},
	})
	require.Equal(t, 200, status, string(body))

	assert.Len(t, gjson.GetBytes(body, "results.bindings").Array(), 10)
	assert.Equal(t, "s", gjson.GetBytes(body, "head.vars.0").String())
	assert.Equal(t, "uri", gjson.GetBytes(body, "results.bindings.0.s.type").String())

	reqs := store.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "nodeDB", reqs[0].Database)
	assert.Equal(t, "admin", reqs[0].Username)
	assert.Equal(t, "01TESTREQUEST", reqs[0].RequestID)
	assert.Equal(t, "10", reqs[0].Params["limit"])
	assert.Equal(t, "false", reqs[0].Params["reasoning"])
}

func TestQueryHugeLimitWithOffset(t *testing.T) {
	s, _ := newTestServer(t)

	status, body := query(t, s, "nodeDB", url.Values{
		"query":  {"select * where { ?s ?p ?o }"},
		"limit":  {strconv.Itoa(math.MaxInt)},
		"offset": {"1"},
	})
	require.Equal(t, 200, status, string(body))
	assert.Len(t, gjson.GetBytes(body, "results.bindings").Array(), 14)
}

func TestQueryAsk(t *testing.T) {
	s, _ := newTestServer(t)

	status, body := query(t, s, "nodeDB", url.Values{
		"query": {"ask { <http://localhost/publications/articles/Journal1/1940/Article1> ?p ?o }"},
	})
	require.Equal(t, 200, status)
	assert.True(t, gjson.GetBytes(body, "boolean").Bool())
	assert.False(t, gjson.GetBytes(body, "results").Exists())
}

func TestQueryNoMatchHasEmptyBindings(t *testing.T) {
	s, _ := newTestServer(t)

	status, body := query(t, s, "nodeDB", url.Values{"query": {"select ?x where { ?x a <urn:none> }"}})
	require.Equal(t, 200, status)
	bindings := gjson.GetBytes(body, "results.bindings")
	assert.True(t, bindings.IsArray())
	assert.Empty(t, bindings.Array())
}

func TestQueryErrors(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name string
		db   string
		form url.Values
		want int
	}{
		{"missing query", "nodeDB", url.Values{}, 400},
		{"bad limit", "nodeDB", url.Values{"query": {"ask {}"}, "limit": {"ten"}}, 400},
		{"negative offset", "nodeDB", url.Values{"query": {"ask {}"}, "offset": {"-1"}}, 400},
		{"bad reasoning", "nodeDB", url.Values{"query": {"ask {}"}, "reasoning": {"maybe"}}, 400},
		{"unknown database", "nope", url.Values{"query": {"ask {}"}}, 404},
		{"offline database", "catalogDB", url.Values{"query": {"ask {}"}}, 503},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := query(t, s, tt.db, tt.form)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestQueryScriptedFailure(t *testing.T) {
	s, store := newTestServer(t)
	require.NoError(t, store.AddRule(dataset.Rule{Database: "nodeDB", Query: "select broken", Status: 200, Body: `{"head":{}}`}))

	status, body := query(t, s, "nodeDB", url.Values{"query": {"select broken"}})
	assert.Equal(t, 200, status)
	assert.Equal(t, `{"head":{}}`, string(body))
}

func TestBasicAuth(t *testing.T) {
	s, store := newTestServer(t)

	req := httptest.NewRequest("GET", "/admin/databases", nil)
	req.SetBasicAuth("admin", "wrong")
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
	assert.Empty(t, store.Requests())
}

func TestLifecycle(t *testing.T) {
	s, store := newTestServer(t)

	status, _ := do(t, s, "PUT", "/admin/databases/catalogDB/online", "application/json", `{"strategy":"NO_WAIT"}`)
	require.Equal(t, 200, status)
	assert.True(t, store.IsOnline("catalogDB"))

	status, _ = do(t, s, "PUT", "/admin/databases/catalogDB/offline", "application/json", `{"strategy":"WAIT","timeout":3000}`)
	require.Equal(t, 200, status)
	assert.False(t, store.IsOnline("catalogDB"))

	status, _ = do(t, s, "PUT", "/admin/databases/catalogDB/online", "application/json", "")
	assert.Equal(t, 200, status)

	status, _ = do(t, s, "PUT", "/admin/databases/catalogDB/online", "application/json", `{"strategy":"SOMETIMES"}`)
	assert.Equal(t, 400, status)

	status, _ = do(t, s, "PUT", "/admin/databases/missing/online", "application/json", `{}`)
	assert.Equal(t, 404, status)
}

func TestListDatabasesAndSize(t *testing.T) {
	s, _ := newTestServer(t)

	status, body := do(t, s, "GET", "/admin/databases", "", "")
	require.Equal(t, 200, status)
	var names []string
	for _, v := range gjson.GetBytes(body, "databases").Array() {
		names = append(names, v.String())
	}
	assert.Equal(t, []string{"catalogDB", "nodeDB", "nodeDBReasoning"}, names)

	status, body = do(t, s, "GET", "/nodeDB/size", "", "")
	require.Equal(t, 200, status)
	assert.Equal(t, "15", string(body))

	status, _ = do(t, s, "GET", "/catalogDB/size", "", "")
	assert.Equal(t, 503, status)
}
