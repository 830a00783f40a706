// Package types provides shared type definitions used across groundtruth packages.
// This package exists to break import cycles between facts, kb, and decision.
// Types in this package should be foundational data structures with no complex dependencies.
package types

import (
	"fmt"
	"strings"

	"github.com/google/mangle/ast"
)

// Name represents a Mangle name constant (starting with /).
// This explicit type avoids ambiguity between strings and name constants:
// in Mangle, user("alice") and user(/alice) are distinct facts.
type Name string

// Fact represents a single logical assertion (predicate, subject, ...args).
// Facts are immutable once asserted into a knowledge-base session.
type Fact struct {
	Predicate string
	Args      []interface{}
}

// NewFact builds a Fact from a predicate and its arguments.
func NewFact(predicate string, args ...interface{}) Fact {
	return Fact{Predicate: predicate, Args: args}
}

// Subject returns the first argument rendered as a string, or "" when absent.
// By convention the first argument identifies the entity the fact is about.
func (f Fact) Subject() string {
	if len(f.Args) == 0 {
		return ""
	}
	switch v := f.Args[0].(type) {
	case Name:
		return string(v)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

func isValidNameConstant(v string) bool {
	if !strings.HasPrefix(v, "/") {
		return false
	}
	if strings.ContainsAny(v, " \t\n\r") {
		return false
	}
	// Name constants are short identifiers like /verified or /title_deed,
	// never multi-segment paths.
	if strings.Count(v, "/") > 2 {
		return false
	}
	_, err := ast.Name(v)
	return err == nil
}

// String returns the Datalog string representation of the fact.
func (f Fact) String() string {
	args := make([]string, 0, len(f.Args))
	for _, arg := range f.Args {
		switch v := arg.(type) {
		case Name:
			args = append(args, string(v))
		case string:
			if isValidNameConstant(v) {
				args = append(args, v)
			} else {
				args = append(args, fmt.Sprintf("%q", v))
			}
		case int:
			args = append(args, fmt.Sprintf("%d", v))
		case int64:
			args = append(args, fmt.Sprintf("%d", v))
		case float64:
			args = append(args, fmt.Sprintf("%f", v))
		case bool:
			if v {
				args = append(args, "/true")
			} else {
				args = append(args, "/false")
			}
		default:
			args = append(args, fmt.Sprintf("%v", v))
		}
	}
	return fmt.Sprintf("%s(%s).", f.Predicate, strings.Join(args, ", "))
}

// ToAtom converts a Fact to a Mangle AST atom for direct store insertion.
// Floats are scaled to integer hundredths; Mangle v0.4.0 arithmetic built-ins
// operate on integers, so all rule math stays in scaled integer space.
func (f Fact) ToAtom() (ast.Atom, error) {
	terms := make([]ast.BaseTerm, 0, len(f.Args))
	for _, arg := range f.Args {
		switch v := arg.(type) {
		case Name:
			s := string(v)
			if !strings.HasPrefix(s, "/") {
				terms = append(terms, ast.String(s))
				continue
			}
			c, err := ast.Name(s)
			if err != nil {
				return ast.Atom{}, fmt.Errorf("fact %s: bad name constant %q: %w", f.Predicate, s, err)
			}
			terms = append(terms, c)
		case string:
			if isValidNameConstant(v) {
				c, _ := ast.Name(v)
				terms = append(terms, c)
			} else {
				terms = append(terms, ast.String(v))
			}
		case int:
			terms = append(terms, ast.Number(int64(v)))
		case int64:
			terms = append(terms, ast.Number(v))
		case float64:
			terms = append(terms, ast.Number(int64(v*100)))
		case bool:
			if v {
				terms = append(terms, ast.TrueConstant)
			} else {
				terms = append(terms, ast.FalseConstant)
			}
		default:
			terms = append(terms, ast.String(fmt.Sprintf("%v", v)))
		}
	}
	return ast.NewAtom(f.Predicate, terms...), nil
}
