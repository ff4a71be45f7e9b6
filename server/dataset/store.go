package dataset

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gear6io/stardog-go/pkg/errors"
)

// Query is one query as received over the wire
type Query struct {
	Database  string
	Text      string
	BaseURI   string
	Reasoning bool
	Limit     *int
	Offset    *int
}

// Answer is what the store returns for a Query
type Answer struct {
	Vars     []string
	Bindings []Row
	Boolean  *bool

	// non-zero Status means a scripted failure with Body as payload
	Status int
	Body   string
}

// Request is a received request kept for later inspection
type Request struct {
	Method     string
	Path       string
	Database   string
	Params     map[string]string
	Username   string
	RequestID  string
	ReceivedAt time.Time
}

// Store answers queries from a Fixture and tracks database state and the
// request log. It is safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	users     map[string]string
	databases map[string]Database
	rules     []Rule
	requests  []Request
}

// NewStore copies f into a new store
func NewStore(f *Fixture) *Store {
	s := &Store{
		users:     make(map[string]string, len(f.Users)),
		databases: make(map[string]Database, len(f.Databases)),
		rules:     append([]Rule(nil), f.Rules...),
	}
	for _, u := range f.Users {
		s.users[u.Username] = u.Password
	}
	for _, db := range f.Databases {
		s.databases[db.Name] = db
	}
	return s
}

// Users returns the basic-auth accounts; empty means authentication is off
func (s *Store) Users() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make(map[string]string, len(s.users))
	for k, v := range s.users {
		users[k] = v
	}
	return users
}

// Answer finds the first rule matching q and applies offset then limit.
// No matching rule is an empty answer, not a failure.
func (s *Store) Answer(q Query) (*Answer, error) {
	if q.Limit != nil && *q.Limit < 0 {
		return nil, errors.Newf(ErrPaginationInvalid, "limit must be non-negative, got %d", *q.Limit)
	}
	if q.Offset != nil && *q.Offset < 0 {
		return nil, errors.Newf(ErrPaginationInvalid, "offset must be non-negative, got %d", *q.Offset)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOnline(q.Database); err != nil {
		return nil, err
	}

	text := normalize(q.Text)
	for _, r := range s.rules {
		if !r.matches(q, text) {
			continue
		}
		if r.Status != 0 {
			return &Answer{Status: r.Status, Body: r.Body}, nil
		}
		return &Answer{
			Vars:     r.Vars,
			Bindings: paginate(r.Bindings, q.Offset, q.Limit),
			Boolean:  r.Boolean,
		}, nil
	}

	return &Answer{Vars: []string{}, Bindings: []Row{}}, nil
}

func (r Rule) matches(q Query, text string) bool {
	if r.Database != q.Database || normalize(r.Query) != text {
		return false
	}
	if r.Reasoning != nil && *r.Reasoning != q.Reasoning {
		return false
	}
	if r.BaseURI != "" && r.BaseURI != q.BaseURI {
		return false
	}
	return true
}

func paginate(rows []Row, offset, limit *int) []Row {
	start := 0
	if offset != nil {
		start = *offset
	}
	if start > len(rows) {
		start = len(rows)
	}
	end := len(rows)
	if limit != nil && *limit < end-start {
		end = start + *limit
	}

	out := make([]Row, end-start)
	copy(out, rows[start:end])
	return out
}

func normalize(query string) string {
	return strings.Join(strings.Fields(query), " ")
}

func (s *Store) checkOnline(name string) error {
	db, ok := s.databases[name]
	if !ok {
		return errors.Newf(ErrDatabaseNotFound, "database %q does not exist", name)
	}
	if db.Offline {
		return errors.Newf(ErrDatabaseOffline, "database %q is offline", name)
	}
	return nil
}

// SetOnline changes the state of database name
func (s *Store) SetOnline(name string, online bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, ok := s.databases[name]
	if !ok {
		return errors.Newf(ErrDatabaseNotFound, "database %q does not exist", name)
	}
	db.Offline = !online
	s.databases[name] = db
	return nil
}

// IsOnline reports whether database name exists and is online
func (s *Store) IsOnline(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkOnline(name) == nil
}

// Databases returns the database names in sorted order
func (s *Store) Databases() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.databases))
	for name := range s.databases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Size returns the triple count of database name
func (s *Store) Size(name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOnline(name); err != nil {
		return 0, err
	}
	return s.databases[name].Size, nil
}

// Record appends r to the request log
func (s *Store) Record(r Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, r)
}

// Requests returns a copy of the request log in arrival order
func (s *Store) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// ResetRequests empties the request log
func (s *Store) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

// AddRule puts r ahead of the existing rules
func (s *Store) AddRule(r Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.databases[r.Database]; !ok {
		return errors.Newf(ErrFixtureInvalid, "rule targets unknown database %q", r.Database)
	}
	s.rules = append([]Rule{r}, s.rules...)
	return nil
}
