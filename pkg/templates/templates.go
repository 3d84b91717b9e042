// Package templates loads the planning templates the client can prefix a
// chat turn with. The name set is fixed; short aliases map onto it. Files
// in the configured templates directory override the built-in content.
package templates

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

//go:embed builtin/*.md
var builtin embed.FS

// aliases maps every accepted spelling to its canonical template name.
var aliases = map[string]string{
	"architecture":   "architecture",
	"arch":           "architecture",
	"product":        "product",
	"product design": "product",
	"requirements":   "requirements",
	"reqs":           "requirements",
}

// Names returns the canonical template names, sorted.
func Names() []string {
	seen := map[string]bool{}
	var out []string
	for _, canonical := range aliases {
		if !seen[canonical] {
			seen[canonical] = true
			out = append(out, canonical)
		}
	}
	sort.Strings(out)
	return out
}

// Canonical resolves an alias to its canonical template name.
func Canonical(alias string) (string, bool) {
	name, ok := aliases[alias]
	return name, ok
}

// Load resolves nameOrAlias and returns the canonical name plus the
// template text. A file named <name>.md in dir takes precedence over the
// built-in content; dir may be empty.
func Load(dir, nameOrAlias string) (name, content string, err error) {
	name, ok := Canonical(nameOrAlias)
	if !ok {
		return "", "", fmt.Errorf("templates: unknown template %q", nameOrAlias)
	}

	if dir != "" {
		data, err := os.ReadFile(filepath.Join(dir, name+".md"))
		if err == nil {
			return name, string(data), nil
		}
		if !os.IsNotExist(err) {
			return "", "", fmt.Errorf("templates: read %s: %w", name, err)
		}
	}

	data, err := builtin.ReadFile("builtin/" + name + ".md")
	if err != nil {
		return "", "", fmt.Errorf("templates: no built-in content for %q: %w", name, err)
	}
	return name, string(data), nil
}
