package dataset

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/gear6io/stardog-go/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(n int) *int { return &n }

func TestAnswerPagination(t *testing.T) {
	s := NewStore(Seed())

	tests := []struct {
		name   string
		limit  *int
		offset *int
		want   int
	}{
		{"no pagination", nil, nil, 15},
		{"limit", intp(10), nil, 10},
		{"limit and offset", intp(10), intp(10), 5},
		{"offset past end", nil, intp(100), 0},
		{"zero limit", intp(0), nil, 0},
		{"max limit", intp(math.MaxInt), nil, 15},
		{"max limit with offset", intp(math.MaxInt), intp(1), 14},
		{"max offset", intp(10), intp(math.MaxInt), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := s.Answer(Query{
				Database: "nodeDB",
				Text:     "select * where { ?s ?p ?o }",
				Limit:    tt.limit,
				Offset:   tt.offset,
			})
			require.NoError(t, err)
			assert.Len(t, a.Bindings, tt.want)
			assert.Equal(t, []string{"s", "p", "o"}, a.Vars)
		})
	}
}

func TestAnswerRejectsNegativePagination(t *testing.T) {
	s := NewStore(Seed())

	_, err := s.Answer(Query{Database: "nodeDB", Text: "select * where { ?s ?p ?o }", Limit: intp(-1)})
	assert.True(t, errors.HasCode(err, ErrPaginationInvalid))

	_, err = s.Answer(Query{Database: "nodeDB", Text: "select * where { ?s ?p ?o }", Offset: intp(-1)})
	assert.True(t, errors.HasCode(err, ErrPaginationInvalid))
}

func TestAnswerNormalizesWhitespace(t *testing.T) {
	s := NewStore(Seed())

	a, err := s.Answer(Query{Database: "nodeDB", Text: "select distinct ?s\n  where {\t?s ?p ?o }\n"})
	require.NoError(t, err)
	assert.Len(t, a.Bindings, 6)
}

func TestAnswerReasoning(t *testing.T) {
	s := NewStore(Seed())
	vehicle := "select distinct ?s where { ?s a <http://example.org/vehicles/Vehicle> }"
	sportsCar := "select distinct ?s where { ?s a <http://example.org/vehicles/SportsCar> }"

	a, err := s.Answer(Query{Database: "nodeDBReasoning", Text: vehicle, Reasoning: true})
	require.NoError(t, err)
	assert.Len(t, a.Bindings, 3)

	a, err = s.Answer(Query{Database: "nodeDBReasoning", Text: vehicle, Reasoning: false})
	require.NoError(t, err)
	assert.Empty(t, a.Bindings)

	for _, reasoning := range []bool{true, false} {
		a, err = s.Answer(Query{Database: "nodeDBReasoning", Text: sportsCar, Reasoning: reasoning})
		require.NoError(t, err)
		assert.Len(t, a.Bindings, 1)
	}
}

func TestAnswerBaseURI(t *testing.T) {
	s := NewStore(Seed())
	q := Query{Database: "nodeDB", Text: "select * where { <Article1> ?p ?o }"}

	a, err := s.Answer(q)
	require.NoError(t, err)
	assert.Empty(t, a.Bindings)

	q.BaseURI = "http://localhost/publications/articles/Journal1/1940/"
	a, err = s.Answer(q)
	require.NoError(t, err)
	assert.Len(t, a.Bindings, 4)
}

func TestAnswerNoMatchIsEmpty(t *testing.T) {
	s := NewStore(Seed())

	a, err := s.Answer(Query{Database: "nodeDB", Text: "select ?x where { ?x a <urn:nothing> }"})
	require.NoError(t, err)
	assert.NotNil(t, a.Bindings)
	assert.Empty(t, a.Bindings)
	assert.Nil(t, a.Boolean)
}

func TestAnswerAsk(t *testing.T) {
	s := NewStore(Seed())
	q := Query{Database: "nodeDBReasoning", Text: "ask { <http://example.org/vehicles/car1> a <http://example.org/vehicles/Vehicle> }"}

	q.Reasoning = true
	a, err := s.Answer(q)
	require.NoError(t, err)
	require.NotNil(t, a.Boolean)
	assert.True(t, *a.Boolean)

	q.Reasoning = false
	a, err = s.Answer(q)
	require.NoError(t, err)
	require.NotNil(t, a.Boolean)
	assert.False(t, *a.Boolean)
}

func TestAnswerDatabaseState(t *testing.T) {
	s := NewStore(Seed())

	_, err := s.Answer(Query{Database: "missing", Text: "ask {}"})
	assert.True(t, errors.HasCode(err, ErrDatabaseNotFound))

	_, err = s.Answer(Query{Database: "catalogDB", Text: "ask {}"})
	assert.True(t, errors.HasCode(err, ErrDatabaseOffline))

	require.NoError(t, s.SetOnline("catalogDB", true))
	assert.True(t, s.IsOnline("catalogDB"))
	_, err = s.Answer(Query{Database: "catalogDB", Text: "ask {}"})
	assert.NoError(t, err)

	require.NoError(t, s.SetOnline("nodeDB", false))
	_, err = s.Size("nodeDB")
	assert.True(t, errors.HasCode(err, ErrDatabaseOffline))

	assert.True(t, errors.HasCode(s.SetOnline("missing", true), ErrDatabaseNotFound))
}

func TestAddRule(t *testing.T) {
	s := NewStore(Seed())

	require.NoError(t, s.AddRule(Rule{Database: "nodeDB", Query: "select * where { ?s ?p ?o }", Status: 500, Body: "boom"}))
	a, err := s.Answer(Query{Database: "nodeDB", Text: "select * where { ?s ?p ?o }"})
	require.NoError(t, err)
	assert.Equal(t, 500, a.Status)
	assert.Equal(t, "boom", a.Body)

	err = s.AddRule(Rule{Database: "missing", Query: "ask {}"})
	assert.True(t, errors.HasCode(err, ErrFixtureInvalid))
}

func TestDatabasesAndSize(t *testing.T) {
	s := NewStore(Seed())

	assert.Equal(t, []string{"catalogDB", "nodeDB", "nodeDBReasoning"}, s.Databases())

	size, err := s.Size("nodeDB")
	require.NoError(t, err)
	assert.Equal(t, int64(15), size)
}

func TestRequestLog(t *testing.T) {
	s := NewStore(Seed())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Record(Request{Method: "POST", Path: fmt.Sprintf("/db%d/query", i)})
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.Requests(), 20)
	s.ResetRequests()
	assert.Empty(t, s.Requests())
}
