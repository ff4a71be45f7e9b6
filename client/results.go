package client

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gear6io/stardog-go/pkg/errors"
	"github.com/geoknoesis/rdf-go/rdf"
	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// Term types used in SPARQL JSON results
const (
	TermURI          = "uri"
	TermLiteral      = "literal"
	TermTypedLiteral = "typed-literal"
	TermBlankNode    = "bnode"
)

// ResultSet is a decoded SPARQL SELECT response
type ResultSet struct {
	Head    Head    `json:"head"`
	Results Results `json:"results"`
}

type Head struct {
	Vars []string `json:"vars"`
}

// Results holds the bindings in server order. Bindings is never nil on a
// successful query.
type Results struct {
	Bindings []Binding `json:"bindings"`
}

// Binding maps each bound variable of one row to its value. Unbound
// variables (e.g. from OPTIONAL) are absent.
type Binding map[string]Term

// Term is one RDF term as encoded in SPARQL JSON results
type Term struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

// IsIRI, IsBlankNode and IsLiteral classify t by its SPARQL JSON type
func (t Term) IsIRI() bool       { return t.Type == TermURI }
func (t Term) IsBlankNode() bool { return t.Type == TermBlankNode }
func (t Term) IsLiteral() bool {
	return t.Type == TermLiteral || t.Type == TermTypedLiteral
}

// RDF converts t to the rdf-go term model. A language tag wins over a
// datatype, as in RDF 1.1 where language-tagged strings carry rdf:langString.
func (t Term) RDF() rdf.Term {
	switch {
	case t.IsIRI():
		return rdf.IRI{Value: t.Value}
	case t.IsBlankNode():
		return rdf.BlankNode{ID: t.Value}
	}

	lit := rdf.Literal{Lexical: t.Value, Lang: t.Lang}
	if t.Lang == "" && t.Datatype != "" {
		lit.Datatype = rdf.IRI{Value: t.Datatype}
	}
	return lit
}

// String renders t as an N-Triples term: <iri>, _:label, "lit"@lang or
// "lit"^^<dt>
func (t Term) String() string {
	return formatTerm(t.RDF())
}

func formatTerm(term rdf.Term) string {
	switch v := term.(type) {
	case rdf.IRI:
		return "<" + escapeNTriples(v.Value, true) + ">"
	case rdf.BlankNode:
		return v.String()
	case rdf.Literal:
		lit := `"` + escapeNTriples(v.Lexical, false) + `"`
		switch {
		case v.Lang != "":
			return lit + "@" + v.Lang
		case v.Datatype.Value != "":
			return lit + "^^" + formatTerm(v.Datatype)
		}
		return lit
	}
	return term.String()
}

// escapeNTriples returns s using only the escapes N-Triples allows: ECHAR in
// literals and \uXXXX elsewhere. Invalid UTF-8 becomes U+FFFD.
func escapeNTriples(s string, iri bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		if r == utf8.RuneError && size == 1 {
			b.WriteString(`\uFFFD`)
			continue
		}

		if iri {
			if r <= 0x20 || strings.ContainsRune("<>\"{}|^`\\", r) {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
			continue
		}

		switch r {
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\f':
			b.WriteString(`\f`)
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		default:
			if r < 0x20 || r == 0x7F {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Len returns the number of bindings
func (r *ResultSet) Len() int {
	return len(r.Results.Bindings)
}

// Values returns the value of variable name in every row, "" where unbound
func (r *ResultSet) Values(name string) []string {
	values := make([]string, len(r.Results.Bindings))
	for i, b := range r.Results.Bindings {
		values[i] = b[name].Value
	}
	return values
}

// AskResult is a decoded SPARQL ASK response
type AskResult struct {
	Head    Head `json:"head"`
	Boolean bool `json:"boolean"`
}

func parseResultSet(body []byte) (*ResultSet, *errors.Error) {
	if !gjson.ValidBytes(body) {
		return nil, malformed("response body is not valid JSON", body)
	}
	if !gjson.GetBytes(body, "results.bindings").IsArray() {
		return nil, malformed("response has no results.bindings array", body)
	}

	var rs ResultSet
	if err := json.Unmarshal(body, &rs); err != nil {
		return nil, errors.Wrap(ErrMalformedResponse, err, "failed to decode result set")
	}
	if rs.Results.Bindings == nil {
		rs.Results.Bindings = []Binding{}
	}
	return &rs, nil
}

func parseAskResult(body []byte) (*AskResult, *errors.Error) {
	if !gjson.ValidBytes(body) {
		return nil, malformed("response body is not valid JSON", body)
	}
	switch gjson.GetBytes(body, "boolean").Type {
	case gjson.True, gjson.False:
	default:
		return nil, malformed("response has no boolean field", body)
	}

	var res AskResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, errors.Wrap(ErrMalformedResponse, err, "failed to decode ask result")
	}
	return &res, nil
}

func malformed(msg string, body []byte) *errors.Error {
	excerpt := string(body)
	if len(excerpt) > 200 {
		excerpt = excerpt[:200] + "..."
	}
	return errors.New(ErrMalformedResponse, msg).AddContext("body", excerpt)
}
