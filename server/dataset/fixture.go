package dataset

import (
	_ "embed"
	"os"
	"strings"

	"github.com/gear6io/stardog-go/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures/seed.yml
var seedFixture []byte

// Fixture is the scripted content of a triplestore stand-in
type Fixture struct {
	Users     []User     `yaml:"users"`
	Databases []Database `yaml:"databases"`
	Rules     []Rule     `yaml:"rules"`
}

// User is a basic-auth account
type User struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Database is a named database with its reported size and state
type Database struct {
	Name    string `yaml:"name"`
	Size    int64  `yaml:"size"`
	Offline bool   `yaml:"offline"`
}

// Rule scripts the answer to one query. Query text is compared after
// collapsing whitespace. A nil Reasoning matches both modes; an empty BaseURI
// matches any base.
type Rule struct {
	Database  string   `yaml:"database"`
	Query     string   `yaml:"query"`
	BaseURI   string   `yaml:"base_uri"`
	Reasoning *bool    `yaml:"reasoning"`
	Vars      []string `yaml:"vars"`
	Bindings  []Row    `yaml:"bindings"`
	Boolean   *bool    `yaml:"boolean"`

	// Status and Body replace the normal answer, for scripted failures
	Status int    `yaml:"status"`
	Body   string `yaml:"body"`
}

// Row is one binding: variable name to term
type Row map[string]Term

// Term mirrors a SPARQL JSON results term
type Term struct {
	Type     string `yaml:"type" json:"type"`
	Value    string `yaml:"value" json:"value"`
	Datatype string `yaml:"datatype,omitempty" json:"datatype,omitempty"`
	Lang     string `yaml:"lang,omitempty" json:"xml:lang,omitempty"`
}

// Seed returns the bundled fixture: nodeDB (publications) and
// nodeDBReasoning (vehicle class hierarchy)
func Seed() *Fixture {
	f, err := ParseFixture(seedFixture)
	if err != nil {
		panic(err)
	}
	return f
}

// LoadFixture reads a YAML fixture file
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(ErrFixtureReadFailed, err, "failed to read fixture").AddContext("path", path)
	}

	f, err := ParseFixture(data)
	if err != nil {
		return nil, errors.AsError(err).AddContext("path", path)
	}
	return f, nil
}

// ParseFixture decodes and validates a YAML fixture
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(ErrFixtureParseFailed, err, "failed to parse fixture")
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks that every rule targets a declared database
func (f *Fixture) Validate() error {
	known := make(map[string]bool, len(f.Databases))
	for _, db := range f.Databases {
		if strings.TrimSpace(db.Name) == "" {
			return errors.New(ErrFixtureInvalid, "database name cannot be empty")
		}
		if known[db.Name] {
			return errors.Newf(ErrFixtureInvalid, "database %q declared twice", db.Name)
		}
		known[db.Name] = true
	}

	for i, r := range f.Rules {
		if !known[r.Database] {
			return errors.Newf(ErrFixtureInvalid, "rule %d targets unknown database %q", i, r.Database)
		}
		if strings.TrimSpace(r.Query) == "" {
			return errors.Newf(ErrFixtureInvalid, "rule %d has an empty query", i)
		}
	}
	return nil
}
