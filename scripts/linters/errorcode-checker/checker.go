package main

import (
	"bufio"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/gear6io/stardog-go/pkg/errors"
)

// ErrorCodeInfo describes one errors.MustNewCode declaration
type ErrorCodeInfo struct {
	Name   string // variable name
	Code   string // "package.name"
	Dir    string
	File   string
	Line   int
	Used   bool
	UsedIn []string
}

// Violation is a finding that is not about code usage
type Violation struct {
	File    string
	Line    int
	Message string
}

// ErrorCodeChecker collects code declarations and their uses across a tree
type ErrorCodeChecker struct {
	fileSet *token.FileSet
	// keyed by dir + "." + variable name
	errorCodes map[string]*ErrorCodeInfo
	violations []Violation
	verbose    bool
}

// NewErrorCodeChecker creates a new ErrorCodeChecker
func NewErrorCodeChecker(verbose bool) *ErrorCodeChecker {
	return &ErrorCodeChecker{
		fileSet:    token.NewFileSet(),
		errorCodes: make(map[string]*ErrorCodeInfo),
		verbose:    verbose,
	}
}

func (c *ErrorCodeChecker) debug(format string, args ...interface{}) {
	if c.verbose {
		fmt.Printf(format, args...)
	}
}

// CheckDirectory walks dir twice: declarations first, then references
func (c *ErrorCodeChecker) CheckDirectory(dir string, excludePaths []string) error {
	files, err := goFiles(dir, excludePaths)
	if err != nil {
		return err
	}

	parsed := make(map[string]*ast.File, len(files))
	for _, path := range files {
		f, err := parser.ParseFile(c.fileSet, path, nil, 0)
		if err != nil {
			return errors.Wrap(ErrParseSource, err, "failed to parse file").AddContext("path", path)
		}
		parsed[path] = f
		c.collectDeclarations(path, f)
	}

	for _, path := range files {
		c.collectUsages(path, parsed[path])
	}
	c.checkDuplicates()
	return nil
}

func goFiles(dir string, excludePaths []string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		slashed := filepath.ToSlash(path)
		for _, exclude := range excludePaths {
			if strings.Contains(slashed+"/", exclude) {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}
		if !info.IsDir() && strings.HasSuffix(path, ".go") {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// collectDeclarations finds `Name = errors.MustNewCode("pkg.name")`
func (c *ErrorCodeChecker) collectDeclarations(path string, f *ast.File) {
	for _, decl := range f.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.VAR {
			continue
		}
		for _, spec := range gen.Specs {
			vs := spec.(*ast.ValueSpec)
			for i, value := range vs.Values {
				code, ok := mustNewCodeArg(value)
				if !ok || i >= len(vs.Names) {
					continue
				}
				name := vs.Names[i]
				pos := c.fileSet.Position(name.Pos())
				info := &ErrorCodeInfo{
					Name: name.Name,
					Code: code,
					Dir:  filepath.Dir(path),
					File: path,
					Line: pos.Line,
				}
				c.errorCodes[info.Dir+"."+info.Name] = info
				c.debug("declared %s = %q at %s:%d\n", info.Name, code, path, pos.Line)

				if _, err := errors.NewCode(code); err != nil {
					c.violations = append(c.violations, Violation{
						File:    path,
						Line:    pos.Line,
						Message: fmt.Sprintf("%s: %v", info.Name, err),
					})
				}
			}
		}
	}
}

func mustNewCodeArg(expr ast.Expr) (string, bool) {
	call, ok := expr.(*ast.CallExpr)
	if !ok || len(call.Args) != 1 {
		return "", false
	}
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != "MustNewCode" {
		return "", false
	}
	lit, ok := call.Args[0].(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", false
	}
	code, err := strconv.Unquote(lit.Value)
	return code, err == nil
}

// collectUsages marks a code used when its identifier appears outside its
// own declaration: bare inside the declaring directory, or as pkg.Name from
// anywhere else
func (c *ErrorCodeChecker) collectUsages(path string, f *ast.File) {
	dir := filepath.Dir(path)

	ast.Inspect(f, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.ValueSpec:
			// skip the declaring names, visit the values
			for _, v := range x.Values {
				ast.Inspect(v, func(n ast.Node) bool {
					if id, ok := n.(*ast.Ident); ok {
						c.markUsed(dir+"."+id.Name, path, id.Pos())
					}
					return true
				})
			}
			return false
		case *ast.SelectorExpr:
			for _, info := range c.errorCodes {
				if info.Name == x.Sel.Name && info.Dir != dir {
					c.markUsed(info.Dir+"."+info.Name, path, x.Pos())
				}
			}
			// pkg.Name: the selected name must not count as a local use
			_, qualified := x.X.(*ast.Ident)
			return !qualified
		case *ast.Ident:
			c.markUsed(dir+"."+x.Name, path, x.Pos())
		}
		return true
	})
}

func (c *ErrorCodeChecker) markUsed(key, path string, pos token.Pos) {
	info, ok := c.errorCodes[key]
	if !ok {
		return
	}
	p := c.fileSet.Position(pos)
	if p.Filename == info.File && p.Line == info.Line {
		return
	}
	info.Used = true
	info.UsedIn = append(info.UsedIn, fmt.Sprintf("%s:%d", path, p.Line))
}

func (c *ErrorCodeChecker) checkDuplicates() {
	seen := map[string]*ErrorCodeInfo{}
	for _, info := range c.sorted() {
		if prev, ok := seen[info.Code]; ok {
			c.violations = append(c.violations, Violation{
				File:    info.File,
				Line:    info.Line,
				Message: fmt.Sprintf("code %q already declared as %s at %s:%d", info.Code, prev.Name, prev.File, prev.Line),
			})
			continue
		}
		seen[info.Code] = info
	}
}

func (c *ErrorCodeChecker) sorted() []*ErrorCodeInfo {
	infos := make([]*ErrorCodeInfo, 0, len(c.errorCodes))
	for _, info := range c.errorCodes {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].File != infos[j].File {
			return infos[i].File < infos[j].File
		}
		return infos[i].Line < infos[j].Line
	})
	return infos
}

// Unused returns declared codes that nothing references
func (c *ErrorCodeChecker) Unused() []*ErrorCodeInfo {
	var unused []*ErrorCodeInfo
	for _, info := range c.sorted() {
		if !info.Used {
			unused = append(unused, info)
		}
	}
	return unused
}

// Violations returns invalid and duplicate code findings
func (c *ErrorCodeChecker) Violations() []Violation {
	return c.violations
}

// CheckForbiddenPatterns scans non-exempt files line by line
func (c *ErrorCodeChecker) CheckForbiddenPatterns(dir string, excludePaths, patterns, exempt []string) ([]Violation, error) {
	regexes := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		regexes = append(regexes, re)
	}

	files, err := goFiles(dir, excludePaths)
	if err != nil {
		return nil, err
	}

	var found []Violation
	for _, path := range files {
		if isExempt(path, exempt) {
			continue
		}
		v, err := scanFile(path, regexes)
		if err != nil {
			return nil, err
		}
		found = append(found, v...)
	}
	return found, nil
}

func isExempt(path string, exempt []string) bool {
	slashed := filepath.ToSlash(path)
	for _, e := range exempt {
		if strings.Contains(slashed, e) {
			return true
		}
	}
	return false
}

func scanFile(path string, regexes []*regexp.Regexp) ([]Violation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var found []Violation
	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(text, "//") {
			continue
		}
		for _, re := range regexes {
			if re.MatchString(text) {
				found = append(found, Violation{File: path, Line: line, Message: "forbidden pattern " + re.String()})
			}
		}
	}
	return found, scanner.Err()
}
