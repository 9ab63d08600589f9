// Package validator decides whether submitted project code meets a
// project's requirements. Checks are structural: they look for the
// identifiers and constructs each project asks for, never execute code.
package validator

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/abhisek/pyquest/internal/catalog"
)

// Result is the outcome of one check.
type Result struct {
	Check  string
	Passed bool
	// Missing explains a failure, e.g. `missing "return"`.
	Missing string
}

// Report is the outcome of validating one submission.
type Report struct {
	ProjectID int
	Passed    bool
	Results   []Result
}

// Validator evaluates catalog checks. The zero value is ready to use.
type Validator struct {
	patterns sync.Map // string -> *regexp.Regexp
}

// New returns a Validator.
func New() *Validator {
	return &Validator{}
}

// Validate reports whether code passes every check of p. It is
// deterministic for a given project and code.
func (v *Validator) Validate(_ context.Context, p *catalog.Project, code string) bool {
	return v.Check(p, code).Passed
}

// Check evaluates every check of p against code and reports each result.
func (v *Validator) Check(p *catalog.Project, code string) *Report {
	r := &Report{ProjectID: p.ID, Passed: len(p.Checks) > 0}
	if strings.TrimSpace(code) == "" {
		r.Passed = false
	}
	for _, chk := range p.Checks {
		res := v.evaluate(chk, code)
		r.Results = append(r.Results, res)
		if !res.Passed {
			r.Passed = false
		}
	}
	return r
}

func (v *Validator) evaluate(chk catalog.Check, code string) Result {
	res := Result{Check: chk.Description, Passed: true}
	fail := func(format string, args ...any) Result {
		res.Passed = false
		res.Missing = fmt.Sprintf(format, args...)
		return res
	}

	for _, tok := range chk.All {
		if !strings.Contains(code, tok) {
			return fail("missing %q", tok)
		}
	}
	if len(chk.Any) > 0 && !containsAny(code, chk.Any) {
		return fail("needs one of %s", quoteList(chk.Any))
	}
	for _, tok := range chk.None {
		if strings.Contains(code, tok) {
			return fail("must not use %q", tok)
		}
	}
	if chk.Pattern != "" {
		re, err := v.compile(chk.Pattern)
		if err != nil {
			return fail("invalid check pattern: %v", err)
		}
		if !re.MatchString(code) {
			return fail("nothing matches %s", chk.Pattern)
		}
	}
	return res
}

func (v *Validator) compile(pattern string) (*regexp.Regexp, error) {
	if re, ok := v.patterns.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	v.patterns.Store(pattern, re)
	return re, nil
}

func containsAny(code string, toks []string) bool {
	for _, tok := range toks {
		if strings.Contains(code, tok) {
			return true
		}
	}
	return false
}

func quoteList(toks []string) string {
	q := make([]string, len(toks))
	for i, t := range toks {
		q[i] = fmt.Sprintf("%q", t)
	}
	return strings.Join(q, ", ")
}
