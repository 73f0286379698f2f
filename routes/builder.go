package routes

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

type entry struct {
	path     string
	template string
}

type Builder struct {
	entries []entry
	errs    []error
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) Add(requestPath, template string) *Builder {
	if template == "" {
		b.errs = append(b.errs, fmt.Errorf("route %q has no template", requestPath))
		return b
	}

	if strings.ContainsAny(requestPath, "?#") {
		b.errs = append(b.errs, fmt.Errorf("route %q must be a plain path", requestPath))
		return b
	}

	b.entries = append(b.entries, entry{path: Normalize(requestPath), template: template})
	return b
}

// AddTemplates derives routes from template names found under prefix:
// <prefix>/index<ext> serves "/", <prefix>/a/b<ext> serves "/a/b" and
// <prefix>/a/index<ext> serves "/a". Names outside prefix or without ext are
// ignored.
func (b *Builder) AddTemplates(prefix, ext string, names []string) *Builder {
	prefix = strings.Trim(prefix, "/")

	for _, name := range names {
		rel := strings.TrimPrefix(name, "/")
		if prefix != "" {
			if !strings.HasPrefix(rel, prefix+"/") {
				continue
			}
			rel = strings.TrimPrefix(rel, prefix)
		}

		if !strings.HasSuffix(rel, ext) {
			continue
		}

		requestPath := strings.TrimSuffix(rel, ext)
		if isIndex(rel, ext) {
			requestPath = path.Dir(requestPath)
		}

		b.Add(requestPath, name)
	}

	return b
}

// Build returns the table, or every configuration error found.
func (b *Builder) Build() (*Table, error) {
	errs := append([]error{}, b.errs...)

	entries := make(map[string]string, len(b.entries))
	for _, e := range b.entries {
		existing, found := entries[e.path]
		if found {
			errs = append(errs, fmt.Errorf("path %s has conflicting templates %s and %s", e.path, existing, e.template))
			continue
		}
		entries[e.path] = e.template
	}

	if len(errs) != 0 {
		return nil, errors.Join(errs...)
	}

	return &Table{entries: entries}, nil
}
