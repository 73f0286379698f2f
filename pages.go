package pages

import (
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/draganm/go-pages/common/values"
	"github.com/draganm/go-pages/engine"
	"github.com/draganm/go-pages/engine/gotemplate"
	"github.com/draganm/go-pages/engine/mustache"
	"github.com/draganm/go-pages/engine/pongo2"
	"github.com/draganm/go-pages/routes"
	"github.com/draganm/go-pages/web"
	"github.com/go-logr/logr"
)

const (
	EnginePongo2     = "pongo2"
	EngineMustache   = "mustache"
	EngineGoTemplate = "gotemplate"

	DefaultPrefix = "pages"
)

type Config struct {
	// Engine is one of EnginePongo2 (default), EngineMustache or EngineGoTemplate.
	Engine string
	// Prefix is the directory whose templates are served as pages. Empty means
	// DefaultPrefix, "/" serves every template.
	Prefix string
	// Routes are served in addition to the routes derived from Prefix.
	Routes map[string]string
	// Base holds the values shared by all pages. A new empty store is used when nil.
	Base           *values.Store
	ContextBuilder values.Builder
}

// Construct reads the templates found under rootPath in src and returns the
// page middleware serving them.
func Construct(src fs.FS, rootPath string, log logr.Logger, cfg Config) (*web.Pages, error) {
	rootPath = path.Clean(rootPath)

	consume, create, ext, err := engineFor(cfg.Engine)
	if err != nil {
		return nil, err
	}

	err = fs.WalkDir(src, rootPath, func(pth string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		withoutPrefix := pth
		if rootPath != "." {
			withoutPrefix = strings.TrimPrefix(pth, rootPath)
		}

		consume(withoutPrefix, func() ([]byte, error) {
			f, err := src.Open(pth)
			if err != nil {
				return nil, fmt.Errorf("could not open %s: %w", pth, err)
			}
			defer f.Close()
			return io.ReadAll(f)
		})

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("could not read the templates fs: %w", err)
	}

	eng, err := create()
	if err != nil {
		return nil, fmt.Errorf("could not create %s engine: %w", engineName(cfg.Engine), err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}

	rb := routes.NewBuilder().AddTemplates(prefix, ext, eng.Names())

	explicit := make([]string, 0, len(cfg.Routes))
	for p := range cfg.Routes {
		explicit = append(explicit, p)
	}
	sort.Strings(explicit)

	for _, p := range explicit {
		rb.Add(p, cfg.Routes[p])
	}

	table, err := rb.Build()
	if err != nil {
		return nil, fmt.Errorf("could not build route table: %w", err)
	}

	log.Info("pages constructed", "engine", engineName(cfg.Engine), "prefix", prefix, "routes", table.Len())

	var opts []web.Option
	if cfg.ContextBuilder != nil {
		opts = append(opts, web.WithContextBuilder(cfg.ContextBuilder))
	}

	return web.New(log, eng, table, cfg.Base, opts...), nil
}

type consumeFunc func(string, func() ([]byte, error)) bool

type createFunc func() (engine.Engine, error)

func engineFor(name string) (consumeFunc, createFunc, string, error) {
	switch engineName(name) {
	case EnginePongo2:
		b := pongo2.NewBuilder()
		return b.Consume, func() (engine.Engine, error) {
			e, err := b.Create(nil)
			if err != nil {
				return nil, err
			}
			return e, nil
		}, pongo2.Ext, nil
	case EngineMustache:
		b := mustache.NewBuilder()
		return b.Consume, func() (engine.Engine, error) {
			e, err := b.Create()
			if err != nil {
				return nil, err
			}
			return e, nil
		}, mustache.Ext, nil
	case EngineGoTemplate:
		b := gotemplate.NewBuilder()
		return b.Consume, func() (engine.Engine, error) {
			e, err := b.Create()
			if err != nil {
				return nil, err
			}
			return e, nil
		}, gotemplate.Ext, nil
	default:
		return nil, nil, "", fmt.Errorf("unsupported template engine %s", name)
	}
}

func engineName(name string) string {
	if name == "" {
		return EnginePongo2
	}
	return name
}
