package pongo2

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/draganm/go-pages/common/values"
	"github.com/draganm/go-pages/engine"
	"github.com/flosch/pongo2/v6"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const Ext = ".html"

var tracer = otel.Tracer("github.com/draganm/go-pages/engine/pongo2")

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

type templateLoader struct {
	files map[string][]byte
}

func (tl *templateLoader) Abs(base, name string) string {
	if path.IsAbs(name) {
		return name
	}

	if base == "" {
		return path.Clean(path.Join("/", name))
	}

	return path.Clean(path.Join(path.Dir(base), name))
}

func (tl *templateLoader) Get(path string) (io.Reader, error) {
	data, found := tl.files[path]
	if !found {
		return nil, os.ErrNotExist
	}

	return bytes.NewReader(data), nil
}

type Engine struct {
	loader *templateLoader
	ts     *pongo2.TemplateSet
}

// Create reads all consumed templates. Globals are visible in every template
// with lower precedence than the render data.
func (b *Builder) Create(globals values.Values) (*Engine, error) {
	loader := &templateLoader{
		files: make(map[string][]byte, len(b.files)),
	}

	for pth, getContent := range b.files {
		data, err := getContent()
		if err != nil {
			return nil, fmt.Errorf("could not get content of %s: %w", pth, err)
		}
		loader.files[pth] = data
	}

	ts := pongo2.NewSet("pages", loader)
	ts.Globals.Update(pongo2.Context(globals))

	return &Engine{loader: loader, ts: ts}, nil
}

func (e *Engine) Names() []string {
	names := make([]string, 0, len(e.loader.files))
	for k := range e.loader.files {
		names = append(names, strings.TrimPrefix(k, "/"))
	}
	sort.Strings(names)
	return names
}

func (e *Engine) Render(ctx context.Context, w io.Writer, name string, data values.Values) error {
	_, span := tracer.Start(ctx, fmt.Sprintf("pongo2.Render %s", name),
		trace.WithAttributes(
			attribute.String("template", name),
		),
	)
	defer span.End()

	key := templateKey(name)
	if _, found := e.loader.files[key]; !found {
		err := engine.NotFound(name)
		span.RecordError(err)
		return err
	}

	template, err := e.ts.FromCache(key)
	if err != nil {
		span.RecordError(err)
		return &engine.RenderError{Template: name, Err: err}
	}

	err = template.ExecuteWriter(pongo2.Context(data), w)
	if err != nil {
		span.RecordError(err)
		return &engine.RenderError{Template: name, Err: err}
	}

	return nil
}

func templateKey(name string) string {
	return path.Clean("/" + name)
}
