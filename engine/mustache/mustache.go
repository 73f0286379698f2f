package mustache

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/cbroglie/mustache"
	"github.com/draganm/go-pages/common/values"
	"github.com/draganm/go-pages/engine"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const Ext = ".mustache"

var tracer = otel.Tracer("github.com/draganm/go-pages/engine/mustache")

type Builder struct {
	files map[string]func() ([]byte, error)
}

func NewBuilder() *Builder {
	return &Builder{
		files: map[string]func() ([]byte, error){},
	}
}

func (b *Builder) Consume(pth string, getContent func() ([]byte, error)) bool {
	if path.Ext(pth) != Ext {
		return false
	}

	b.files[templateKey(pth)] = getContent
	return true
}

func (b *Builder) Create() (*Engine, error) {
	templates := make(map[string]string, len(b.files))

	for pth, getContent := range b.files {
		data, err := getContent()
		if err != nil {
			return nil, fmt.Errorf("could not get content of %s: %w", pth, err)
		}
		templates[pth] = string(data)
	}

	return &Engine{
		templates: templates,
		cached:    map[string]*mustache.Template{},
		mu:        &sync.RWMutex{},
	}, nil
}

// scopedPartialProvider resolves relative partial names against the directory
// of the template being rendered. The extension may be omitted.
type scopedPartialProvider struct {
	partials map[string]string
	scope    string
}

func (sp scopedPartialProvider) Get(name string) (string, error) {
	if !strings.HasPrefix(name, "/") {
		name = path.Join(sp.scope, name)
	}
	if path.Ext(name) != Ext {
		name = name + Ext
	}
	name = path.Clean(name)
	partial, found := sp.partials[name]
	if !found {
		return "", fmt.Errorf("could not find mustache partial %s", name)
	}
	return partial, nil
}

type Engine struct {
	templates map[string]string
	cached    map[string]*mustache.Template
	mu        *sync.RWMutex
}

func (e *Engine) Names() []string {
	names := make([]string, 0, len(e.templates))
	for k := range e.templates {
		names = append(names, strings.TrimPrefix(k, "/"))
	}
	sort.Strings(names)
	return names
}

func (e *Engine) getTemplate(key string) (*mustache.Template, error) {
	e.mu.RLock()
	template, found := e.cached[key]
	e.mu.RUnlock()
	if found {
		return template, nil
	}

	sp := scopedPartialProvider{partials: e.templates, scope: path.Dir(key)}

	template, err := mustache.ParseStringPartials(e.templates[key], sp)
	if err != nil {
		return nil, fmt.Errorf("could not parse template: %w", err)
	}

	e.mu.Lock()
	e.cached[key] = template
	e.mu.Unlock()

	return template, nil
}

// Render follows mustache semantics: a missing variable renders as an empty string,
// not as a RenderError. Unclosed sections and unknown partials are errors.
func (e *Engine) Render(ctx context.Context, w io.Writer, name string, data values.Values) error {
	_, span := tracer.Start(ctx, fmt.Sprintf("mustache.Render %s", name),
		trace.WithAttributes(
			attribute.String("template", name),
		),
	)
	defer span.End()

	key := templateKey(name)
	if _, found := e.templates[key]; !found {
		err := engine.NotFound(name)
		span.RecordError(err)
		return err
	}

	template, err := e.getTemplate(key)
	if err != nil {
		span.RecordError(err)
		return &engine.RenderError{Template: name, Err: err}
	}

	err = template.FRender(w, map[string]any(data))
	if err != nil {
		span.RecordError(err)
		return &engine.RenderError{Template: name, Err: err}
	}

	return nil
}

func templateKey(name string) string {
	return path.Clean("/" + name)
}
