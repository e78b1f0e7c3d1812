package template

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingVariable = errors.New("missing variable")
	ErrCyclicVariable  = errors.New("cyclic variable")
)

type FillErrorKind int

const (
	MissingVariable FillErrorKind = iota
	CyclicVariable
)

// FillError names the first variable that could not be resolved.
type FillError struct {
	Kind     FillErrorKind
	Variable Variable
}

func (e *FillError) Error() string {
	switch e.Kind {
	case CyclicVariable:
		return fmt.Sprintf("variable '%s' references itself", e.Variable.Name)
	default:
		return fmt.Sprintf("missing variable '%s'", e.Variable.Name)
	}
}

func (e *FillError) Is(target error) bool {
	switch target {
	case ErrMissingVariable:
		return e.Kind == MissingVariable
	case ErrCyclicVariable:
		return e.Kind == CyclicVariable
	}
	return false
}

// Fill resolves s against vars. Variable values are themselves templates
// and are resolved recursively against the same table. It stops at the
// first reference that is missing or that would recurse into a variable
// already being resolved.
func (s String) Fill(vars Vars) (string, error) {
	var builder strings.Builder
	if err := s.fill(vars, &builder, make(map[string]bool)); err != nil {
		return "", err
	}
	return builder.String(), nil
}

func (s String) fill(vars Vars, out *strings.Builder, resolving map[string]bool) error {
	for _, f := range s.fragments {
		if f.Kind == FragmentRaw {
			out.WriteString(f.Text)
			continue
		}

		name := f.Var.Name
		if resolving[name] {
			return &FillError{Kind: CyclicVariable, Variable: f.Var}
		}
		value, ok := vars[name]
		if !ok {
			return &FillError{Kind: MissingVariable, Variable: f.Var}
		}

		resolving[name] = true
		if err := value.fill(vars, out, resolving); err != nil {
			return err
		}
		delete(resolving, name)
	}
	return nil
}
