// Package kb owns the declarative rule programs and the per-request
// sessions that evaluate them. Rule sources are embedded in the binary;
// a directory override supports operator-tuned rules with the embedded
// copies as fallback.
package kb

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	"github.com/google/mangle/parse"
	"go.uber.org/zap"

	"groundtruth/internal/types"
)

//go:embed rules/*.mg
var ruleFiles embed.FS

// Domain selects which rule program a session evaluates. Each domain
// compiles separately so one request never pays for another domain's
// derivations.
type Domain string

const (
	DomainValidation     Domain = "validation"
	DomainValuation      Domain = "valuation"
	DomainRecommendation Domain = "recommendation"
)

// Domains lists every rule domain.
func Domains() []Domain {
	return []Domain{DomainValidation, DomainValuation, DomainRecommendation}
}

const (
	baseRuleFile = "base.mg"

	// DefaultDerivedFactLimit bounds a single evaluation against
	// runaway derivation.
	DefaultDerivedFactLimit = 500000
)

// Options configures rule set construction.
type Options struct {
	// RulesDir overrides the embedded rule files. A file present in
	// the directory shadows its embedded counterpart; a missing file
	// falls back to the embedded copy.
	RulesDir string

	// DerivedFactLimit caps facts created during one evaluation.
	// Zero selects DefaultDerivedFactLimit.
	DerivedFactLimit int

	Logger *zap.Logger
}

// RuleSet is one domain's parsed and analyzed program. It is immutable
// after construction and safe to share across concurrent sessions.
type RuleSet struct {
	domain    Domain
	info      *analysis.ProgramInfo
	preds     map[string]ast.PredicateSym
	factLimit int
	logger    *zap.Logger
}

// NewRuleSet loads, parses and analyzes the program for one domain.
// Failures surface as an EngineError in the load stage so callers can
// fall back rather than crash.
func NewRuleSet(domain Domain, opts Options) (*RuleSet, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := opts.DerivedFactLimit
	if limit <= 0 {
		limit = DefaultDerivedFactLimit
	}

	var sources []string
	for _, name := range []string{baseRuleFile, string(domain) + ".mg"} {
		src, err := loadRuleFile(opts.RulesDir, name)
		if err != nil {
			return nil, &types.EngineError{Stage: "load", Err: fmt.Errorf("%s: %w", name, err)}
		}
		sources = append(sources, src)
	}

	info, err := compile(strings.Join(sources, "\n"))
	if err != nil {
		return nil, &types.EngineError{Stage: "load", Err: fmt.Errorf("%s rules: %w", domain, err)}
	}

	preds := make(map[string]ast.PredicateSym, len(info.Decls))
	for sym := range info.Decls {
		preds[sym.Symbol] = sym
	}

	logger.Debug("rule set loaded",
		zap.String("domain", string(domain)),
		zap.Int("predicates", len(preds)))

	return &RuleSet{
		domain:    domain,
		info:      info,
		preds:     preds,
		factLimit: limit,
		logger:    logger,
	}, nil
}

// Domain reports which rule domain this set evaluates.
func (rs *RuleSet) Domain() Domain {
	return rs.domain
}

// Predicate resolves a predicate name against the program's declared
// symbols.
func (rs *RuleSet) Predicate(name string) (ast.PredicateSym, bool) {
	sym, ok := rs.preds[name]
	return sym, ok
}

// loadRuleFile reads one rule source, preferring the override
// directory when set.
func loadRuleFile(dir, name string) (string, error) {
	if dir != "" {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return string(data), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
	}
	data, err := ruleFiles.ReadFile("rules/" + name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func compile(src string) (*analysis.ProgramInfo, error) {
	unit, err := parse.Unit(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	info, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	return info, nil
}
