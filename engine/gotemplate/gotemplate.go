// Package gotemplate renders pages with html/template. Every consumed file is
// parsed into one set under its slash separated path, so pages pull in shared
// markup with {{ template "partials/navbar.html" . }}.
package gotemplate

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/draganm/go-pages/common/values"
	"github.com/draganm/go-pages/engine"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const Ext = ".html"

var tracer = otel.Tracer("github.com/draganm/go-pages/engine/gotemplate")

type Builder struct {
	files map[string]func() ([]byte, error)
	funcs template.FuncMap
}

func NewBuilder() *Builder {
	return &Builder{
		files: map[string]func() ([]byte, error){},
		funcs: template.FuncMap{
			"dict": dict,
		},
	}
}

func (b *Builder) Consume(pth string, getContent func() ([]byte, error)) bool {
	if path.Ext(pth) != Ext {
		return false
	}

	b.files[strings.TrimPrefix(path.Clean("/"+pth), "/")] = getContent
	return true
}

// Funcs adds template functions. Must be called before Create.
func (b *Builder) Funcs(fm template.FuncMap) *Builder {
	for k, v := range fm {
		b.funcs[k] = v
	}
	return b
}

// Create parses every template. A syntax error in any file fails the whole set.
func (b *Builder) Create() (*Engine, error) {
	root := template.New("").Option("missingkey=error").Funcs(b.funcs)

	names := make([]string, 0, len(b.files))
	for name := range b.files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := b.files[name]()
		if err != nil {
			return nil, fmt.Errorf("could not get content of %s: %w", name, err)
		}

		_, err = root.New(name).Parse(string(data))
		if err != nil {
			return nil, fmt.Errorf("could not parse template %s: %w", name, err)
		}
	}

	return &Engine{root: root, names: names}, nil
}

type Engine struct {
	root  *template.Template
	names []string
}

func (e *Engine) Names() []string {
	return append([]string(nil), e.names...)
}

func (e *Engine) Render(ctx context.Context, w io.Writer, name string, data values.Values) error {
	_, span := tracer.Start(ctx, fmt.Sprintf("gotemplate.Render %s", name),
		trace.WithAttributes(
			attribute.String("template", name),
		),
	)
	defer span.End()

	name = strings.TrimPrefix(path.Clean("/"+name), "/")

	t := e.root.Lookup(name)
	if t == nil {
		err := engine.NotFound(name)
		span.RecordError(err)
		return err
	}

	err := t.Execute(w, map[string]any(data))
	if err != nil {
		span.RecordError(err)
		return &engine.RenderError{Template: name, Err: err}
	}

	return nil
}

// dict builds a map in templates: {{ template "row" dict "k" 1 "k2" "v" }}.
func dict(kv ...any) (map[string]any, error) {
	if len(kv)%2 != 0 {
		return nil, errors.New("dict needs an even number of arguments")
	}
	m := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key %v is not a string", kv[i])
		}
		m[key] = kv[i+1]
	}
	return m, nil
}
