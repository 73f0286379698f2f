package main

import (
	"fmt"

	"github.com/draganm/go-pages/common/values"
	"github.com/go-logr/logr"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v2"
)

type config struct {
	Addr         string `validate:"required,hostname_port"`
	MetricsAddr  string `validate:"omitempty,hostname_port"`
	TemplatesDir string `validate:"required,dir"`
	Prefix       string
	Engine       string `validate:"oneof=pongo2 mustache gotemplate"`
	BaseContext  string `validate:"omitempty,file"`
}

var validate = validator.New()

func configFromFlags(c *cli.Context) (*config, error) {
	cfg := &config{
		Addr:         c.String("addr"),
		MetricsAddr:  c.String("metrics-addr"),
		TemplatesDir: c.String("templates"),
		Prefix:       c.String("prefix"),
		Engine:       c.String("engine"),
		BaseContext:  c.String("base-context"),
	}

	err := validate.Struct(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func loadBaseContext(pth string) (values.Values, error) {
	k := koanf.New(".")
	err := k.Load(file.Provider(pth), yaml.Parser())
	if err != nil {
		return nil, fmt.Errorf("could not load base context from %s: %w", pth, err)
	}

	return values.Values(k.Raw()), nil
}

// watchBaseContext replaces the store content whenever the file changes. A file
// that fails to parse keeps the previous values in place.
func watchBaseContext(log logr.Logger, pth string, store *values.Store) (func() error, error) {
	fp := file.Provider(pth)

	err := fp.Watch(func(event interface{}, err error) {
		if err != nil {
			log.Error(err, "base context watch failed", "file", pth)
			return
		}

		v, err := loadBaseContext(pth)
		if err != nil {
			log.Error(err, "could not reload base context", "file", pth)
			return
		}

		store.Set(v)
		log.Info("base context reloaded", "file", pth, "keys", len(v))
	})
	if err != nil {
		return nil, fmt.Errorf("could not watch %s: %w", pth, err)
	}

	return fp.Unwatch, nil
}
