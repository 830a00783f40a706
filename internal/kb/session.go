package kb

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/mangle/ast"
	"github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"go.uber.org/zap"

	"groundtruth/internal/types"
)

// functionalValue marks predicates whose final argument is a value
// determined by the preceding arguments. Re-asserting one of these for
// the same argument prefix replaces the previous value; every other
// predicate accumulates rows with set semantics.
var functionalValue = map[string]bool{
	"submitted_by":            true,
	"has_profile":             true,
	"kyc_status":              true,
	"listing_size":            true,
	"listing_bedrooms":        true,
	"listing_price":           true,
	"property_type":           true,
	"location":                true,
	"field_len":               true,
	"document_bytes":          true,
	"has_lien":                true,
	"year_built":              true,
	"area_type":               true,
	"market_trend":            true,
	"location_multiplier_pct": true,
}

// Session is a single-request fact workspace over one rule set. Facts
// accumulate until Eval runs the program; derived relations are then
// readable through Facts. Sessions are not safe for concurrent use;
// create one per request and discard it afterward.
type Session struct {
	rules *RuleSet

	order []types.Fact
	index map[string]int

	store     factstore.FactStore
	evaluated bool
}

// NewSession opens a fresh fact workspace over this rule set.
func (rs *RuleSet) NewSession() *Session {
	return &Session{rules: rs, index: make(map[string]int)}
}

// Assert records a base fact. For value predicates the last write for
// a given argument prefix wins, keeping its original position so
// assertion order stays deterministic.
func (s *Session) Assert(f types.Fact) {
	k := factKey(f)
	if i, ok := s.index[k]; ok {
		s.order[i] = f
		return
	}
	s.index[k] = len(s.order)
	s.order = append(s.order, f)
}

// AssertAll records base facts in order.
func (s *Session) AssertAll(fs []types.Fact) {
	for _, f := range fs {
		s.Assert(f)
	}
}

// Len reports the number of distinct base facts asserted so far.
func (s *Session) Len() int {
	return len(s.order)
}

// Evaluated reports whether Eval has completed successfully.
func (s *Session) Evaluated() bool {
	return s.evaluated
}

// Eval runs the rule program over the asserted facts. The context
// bounds evaluation time; on expiry the session is left unevaluated
// and the error reports a timeout so callers can fall back. Eval is
// idempotent once it has succeeded.
func (s *Session) Eval(ctx context.Context) error {
	if s.evaluated {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return &types.EngineError{Stage: "eval", Err: err, Timeout: true}
	}

	store := factstore.NewSimpleInMemoryStore()
	for _, f := range s.order {
		atom, err := f.ToAtom()
		if err != nil {
			return &types.EngineError{Stage: "eval", Err: fmt.Errorf("assert %s: %w", f.Predicate, err)}
		}
		store.Add(atom)
	}

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		_, err := engine.EvalProgramWithStats(s.rules.info, store,
			engine.WithCreatedFactLimit(s.rules.factLimit))
		done <- err
	}()

	select {
	case <-ctx.Done():
		return &types.EngineError{Stage: "eval", Err: ctx.Err(), Timeout: true}
	case err := <-done:
		if err != nil {
			return &types.EngineError{Stage: "eval", Err: err}
		}
	}

	s.rules.logger.Debug("session evaluated",
		zap.String("domain", string(s.rules.domain)),
		zap.Int("base_facts", len(s.order)),
		zap.Duration("elapsed", time.Since(start)))

	s.store = store
	s.evaluated = true
	return nil
}

// Facts returns every stored fact for the named predicate, base or
// derived. The order is unspecified; callers impose their own.
func (s *Session) Facts(predicate string) ([]types.Fact, error) {
	if !s.evaluated {
		return nil, &types.EngineError{Stage: "query", Err: fmt.Errorf("session not evaluated")}
	}
	sym, ok := s.rules.Predicate(predicate)
	if !ok {
		return nil, &types.EngineError{Stage: "query", Err: fmt.Errorf("unknown predicate %q", predicate)}
	}

	var out []types.Fact
	err := s.store.GetFacts(ast.NewQuery(sym), func(a ast.Atom) error {
		f := types.Fact{Predicate: predicate, Args: make([]interface{}, 0, len(a.Args))}
		for _, term := range a.Args {
			c, ok := term.(ast.Constant)
			if !ok {
				return fmt.Errorf("non-constant term %v in %s", term, predicate)
			}
			f.Args = append(f.Args, constantValue(c))
		}
		out = append(out, f)
		return nil
	})
	if err != nil {
		return nil, &types.EngineError{Stage: "query", Err: err}
	}
	return out, nil
}

// Holds reports whether at least one fact exists for the predicate.
func (s *Session) Holds(predicate string) (bool, error) {
	fs, err := s.Facts(predicate)
	if err != nil {
		return false, err
	}
	return len(fs) > 0, nil
}

func factKey(f types.Fact) string {
	var b strings.Builder
	b.WriteString(f.Predicate)
	n := len(f.Args)
	if functionalValue[f.Predicate] && n > 0 {
		n--
	}
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "\x00%v", f.Args[i])
	}
	return b.String()
}

func constantValue(c ast.Constant) interface{} {
	switch c.Type {
	case ast.NameType:
		return types.Name(c.Symbol)
	case ast.StringType:
		return c.Symbol
	case ast.NumberType:
		return c.NumValue
	case ast.Float64Type:
		return math.Float64frombits(uint64(c.NumValue))
	default:
		return c.String()
	}
}
