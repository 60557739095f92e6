// Package catalog keeps versioned tool definitions so schema changes can be
// reviewed and diffed before a registry manifest ships.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/modelkit/toolcall/pkg/tool"
)

// Definition is a versioned tool schema with free-form metadata.
type Definition struct {
	Name    string
	Version int
	Spec    tool.Tool
	Meta    map[string]string
}

// Issue describes a lint finding. Param names the offending parameter when
// the rule applies to one.
type Issue struct {
	Rule    string
	Message string
	Param   string
}

// Lint runs basic checks on a definition.
func Lint(d Definition) []Issue {
	var issues []Issue
	name := d.Name
	if name == "" {
		name = d.Spec.Function.Name
	}
	if name == "" {
		issues = append(issues, Issue{Rule: "name.required", Message: "tool name is required"})
	}
	if d.Name != "" && d.Spec.Function.Name != "" && d.Name != d.Spec.Function.Name {
		issues = append(issues, Issue{
			Rule:    "name.mismatch",
			Message: fmt.Sprintf("definition named %q wraps schema named %q", d.Name, d.Spec.Function.Name),
		})
	}
	if d.Spec.Function.Description == "" {
		issues = append(issues, Issue{Rule: "description.required", Message: "tool description is empty"})
	}
	if containsSecretLike(d.Spec.Function.Description) {
		issues = append(issues, Issue{Rule: "security.secrets", Message: "description appears to contain secrets-like content"})
	}

	props := d.Spec.Function.Parameters.Properties
	names := make([]string, 0, len(props))
	for n := range props {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		p := props[n]
		if p.Type == "" {
			issues = append(issues, Issue{Rule: "param.type", Message: "parameter has no type tag", Param: n})
		}
		if p.Enum != nil && len(p.Enum) == 0 {
			issues = append(issues, Issue{Rule: "param.enum.values", Message: "enum parameter has no values", Param: n})
		}
		if containsSecretLike(p.Description) {
			issues = append(issues, Issue{Rule: "security.secrets", Message: "parameter description appears to contain secrets-like content", Param: n})
		}
	}
	for _, r := range d.Spec.Function.Parameters.Required {
		if _, ok := props[r]; !ok {
			issues = append(issues, Issue{Rule: "required.unknown", Message: "required list names a parameter that does not exist", Param: r})
		}
	}
	return issues
}

// naive patterns; can be extended
var secretMarkers = []string{"aws_secret_access_key", "begin private key", "sk-"}

func containsSecretLike(s string) bool {
	if s == "" {
		return false
	}
	ls := strings.ToLower(s)
	for _, m := range secretMarkers {
		if strings.Contains(ls, m) {
			return true
		}
	}
	return false
}

// Store is an in-memory versioned definition catalog.
type Store struct {
	mu   sync.RWMutex
	data map[string][]Definition // name -> versions (ascending)
}

func NewStore() *Store { return &Store{data: make(map[string][]Definition)} }

var ErrLintFailed = errors.New("catalog: definition failed lint checks")

// Save adds a new version. If the name exists, the version increments by 1;
// otherwise it starts at 1. An empty Name is taken from the schema. Lint
// failures return ErrLintFailed with the issues.
func (s *Store) Save(d Definition) (Definition, []Issue, error) {
	if d.Name == "" {
		d.Name = d.Spec.Function.Name
	}
	if issues := Lint(d); len(issues) > 0 {
		return Definition{}, issues, ErrLintFailed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	versions := s.data[d.Name]
	next := 1
	if len(versions) > 0 {
		next = versions[len(versions)-1].Version + 1
	}
	nd := Definition{Name: d.Name, Version: next, Spec: d.Spec, Meta: d.Meta}
	s.data[d.Name] = append(versions, nd)
	return nd, nil, nil
}

// Get retrieves a specific version; version 0 returns the latest.
func (s *Store) Get(name string, version int) (Definition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	versions := s.data[name]
	if len(versions) == 0 {
		return Definition{}, false
	}
	if version <= 0 {
		return versions[len(versions)-1], true
	}
	// versions are ascending; binary search by Version
	i := sort.Search(len(versions), func(i int) bool { return versions[i].Version >= version })
	if i < len(versions) && versions[i].Version == version {
		return versions[i], true
	}
	return Definition{}, false
}

// List returns all versions for a name in ascending order.
func (s *Store) List(name string) []Definition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Definition(nil), s.data[name]...)
}
