package env

import (
	"sync"

	"github.com/abdul-hamid-achik/rq/packages/core/parser"
	"github.com/abdul-hamid-achik/rq/packages/core/template"
)

// WarnFunc is a function type for handling warnings
type WarnFunc func(format string, args ...any)

// Resolver turns template requests into concrete ones against a variable
// table. It is safe for concurrent use.
type Resolver struct {
	mu       sync.RWMutex
	vars     template.Vars
	warnFunc WarnFunc
}

func NewResolver(vars template.Vars) *Resolver {
	return &Resolver{vars: vars.Clone()}
}

// SetWarnFunc sets a function to be called when warnings occur (e.g., undefined variables)
func (r *Resolver) SetWarnFunc(fn WarnFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnFunc = fn
}

func (r *Resolver) warn(format string, args ...any) {
	r.mu.RLock()
	fn := r.warnFunc
	r.mu.RUnlock()
	if fn != nil {
		fn(format, args...)
	}
}

// Vars returns a snapshot of the current table.
func (r *Resolver) Vars() template.Vars {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.vars.Clone()
}

// Resolve fills req. The template is left untouched.
func (r *Resolver) Resolve(req *parser.TemplateRequest) (*parser.Request, error) {
	return req.Fill(r.Vars())
}

// CheckFile warns once for every variable f references that the table does
// not define, and returns those names.
func (r *Resolver) CheckFile(f *parser.File) []string {
	missing := f.Undefined(r.Vars())
	for _, name := range missing {
		r.warn("undefined variable: %s", name)
	}
	return missing
}
