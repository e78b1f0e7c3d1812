package template

import (
	"sort"
	"strings"
)

// Variable names a substitution point. Names are case-sensitive.
type Variable struct {
	Name string
}

func (v Variable) String() string {
	return "{{" + v.Name + "}}"
}

type FragmentKind int

const (
	FragmentRaw FragmentKind = iota
	FragmentVar
)

// Fragment is either literal text (already unquoted) or a variable reference.
type Fragment struct {
	Kind FragmentKind
	Text string
	Var  Variable
}

func Raw(text string) Fragment {
	return Fragment{Kind: FragmentRaw, Text: text}
}

func Var(name string) Fragment {
	return Fragment{Kind: FragmentVar, Var: Variable{Name: name}}
}

func (f Fragment) String() string {
	if f.Kind == FragmentVar {
		return f.Var.String()
	}
	return f.Text
}

// String is an ordered sequence of fragments: a value that has not been
// resolved yet.
type String struct {
	fragments []Fragment
}

func New(fragments ...Fragment) String {
	return String{fragments: fragments}
}

// RawString returns a String holding a single literal fragment.
func RawString(text string) String {
	return String{fragments: []Fragment{Raw(text)}}
}

func (s String) Fragments() []Fragment {
	out := make([]Fragment, len(s.fragments))
	copy(out, s.fragments)
	return out
}

// IsEmpty reports whether s has no fragments or only empty literals.
// A variable reference is never empty since its value is unknown.
func (s String) IsEmpty() bool {
	for _, f := range s.fragments {
		if f.Kind == FragmentVar || f.Text != "" {
			return false
		}
	}
	return true
}

func (s String) Equal(other String) bool {
	if len(s.fragments) != len(other.fragments) {
		return false
	}
	for i := range s.fragments {
		if s.fragments[i] != other.fragments[i] {
			return false
		}
	}
	return true
}

// Variables returns the referenced variable names in order of appearance,
// without duplicates.
func (s String) Variables() []string {
	var names []string
	seen := make(map[string]bool)
	for _, f := range s.fragments {
		if f.Kind != FragmentVar || seen[f.Var.Name] {
			continue
		}
		seen[f.Var.Name] = true
		names = append(names, f.Var.Name)
	}
	return names
}

// String renders s without resolving references. The result is wrapped in
// double quotes when it starts or ends with a space so that it reads back
// to the same value.
func (s String) String() string {
	var builder strings.Builder
	for _, f := range s.fragments {
		builder.WriteString(f.String())
	}
	out := builder.String()
	if strings.HasPrefix(out, " ") || strings.HasSuffix(out, " ") {
		return `"` + out + `"`
	}
	return out
}

// Vars is a variable table. Callers pass a snapshot to every fill call.
type Vars map[string]String

// Names returns the variable names in sorted order.
func (v Vars) Names() []string {
	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a shallow copy; String values are never mutated in place.
func (v Vars) Clone() Vars {
	out := make(Vars, len(v))
	for k, s := range v {
		out[k] = s
	}
	return out
}

// Map holds templated values keyed by a literal name (query parameters,
// headers).
type Map map[string]String

func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Fill resolves every value. Keys are visited in sorted order so the
// reported error does not depend on map iteration.
func (m Map) Fill(vars Vars) (map[string]string, error) {
	out := make(map[string]string, len(m))
	for _, k := range m.Keys() {
		v, err := m[k].Fill(vars)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}
