package env

import (
	"fmt"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/rq/packages/core/template"
)

// SystemPrefix marks process environment variables that are exposed to
// request files. RQ_VAR_token becomes {{token}}.
const SystemPrefix = "RQ_VAR_"

// Sources holds every variable layer, lowest precedence first.
type Sources struct {
	File      template.Vars
	DotEnv    map[string]string
	System    map[string]string
	Overrides map[string]string
}

// Merge layers the sources into one table. Values from outside the file
// are parsed as templates so they may reference other variables.
func (s Sources) Merge() (template.Vars, error) {
	dotenv, err := Parse(s.DotEnv, ".env")
	if err != nil {
		return nil, err
	}
	system, err := Parse(s.System, "environment")
	if err != nil {
		return nil, err
	}
	overrides, err := Parse(s.Overrides, "--var")
	if err != nil {
		return nil, err
	}
	return MergeVariables(s.File, dotenv, system, overrides), nil
}

// Parse converts raw values into template strings. origin names the source
// in error messages.
func Parse(raw map[string]string, origin string) (template.Vars, error) {
	vars := make(template.Vars, len(raw))
	for name, value := range raw {
		if !template.IsIdentifier(name) {
			return nil, fmt.Errorf("%s: invalid variable name %q", origin, name)
		}
		parsed, err := template.Parse(value)
		if err != nil {
			return nil, fmt.Errorf("%s: variable %q: %w", origin, name, err)
		}
		vars[name] = parsed
	}
	return vars, nil
}

func MergeVariables(sources ...template.Vars) template.Vars {
	result := make(template.Vars)
	for _, src := range sources {
		for k, v := range src {
			result[k] = v
		}
	}
	return result
}

func LoadSystemEnv(prefix string) map[string]string {
	result := make(map[string]string)
	for _, e := range os.Environ() {
		key, value, ok := strings.Cut(e, "=")
		if !ok {
			continue
		}
		if prefix == "" {
			result[key] = value
		} else if len(key) > len(prefix) && strings.HasPrefix(key, prefix) {
			result[key[len(prefix):]] = value
		}
	}
	return result
}

// ParseAssignments turns "name=value" pairs into a map. The value may be
// empty; the name may not.
func ParseAssignments(pairs []string) (map[string]string, error) {
	result := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, found := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			return nil, fmt.Errorf("invalid variable assignment %q, expected name=value", pair)
		}
		result[name] = value
	}
	return result, nil
}
