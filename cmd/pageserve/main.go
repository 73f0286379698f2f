package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	pages "github.com/draganm/go-pages"
	"github.com/draganm/go-pages/common/values"
	"github.com/draganm/go-pages/web"
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	logger, _ := zap.Config{
		Encoding:    "json",
		Level:       level,
		OutputPaths: []string{"stdout"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:   "message",
			LevelKey:     "level",
			EncodeLevel:  zapcore.CapitalLevelEncoder,
			TimeKey:      "time",
			EncodeTime:   zapcore.ISO8601TimeEncoder,
			CallerKey:    "caller",
			EncodeCaller: zapcore.ShortCallerEncoder,
		},
	}.Build()
	defer logger.Sync()

	log := zapr.NewLogger(logger)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "addr",
			Value:   ":5001",
			EnvVars: []string{"ADDR"},
		},
		&cli.StringFlag{
			Name:    "metrics-addr",
			Value:   ":3000",
			EnvVars: []string{"METRICS_ADDR"},
		},
		&cli.StringFlag{
			Name:    "templates",
			Value:   "templates",
			EnvVars: []string{"TEMPLATES_DIR"},
		},
		&cli.StringFlag{
			Name:    "prefix",
			Value:   pages.DefaultPrefix,
			EnvVars: []string{"PAGES_PREFIX"},
		},
		&cli.StringFlag{
			Name:    "engine",
			Value:   pages.EnginePongo2,
			EnvVars: []string{"TEMPLATE_ENGINE"},
		},
		&cli.StringFlag{
			Name:    "base-context",
			EnvVars: []string{"BASE_CONTEXT"},
			Usage:   "yaml file with values available in every page, reloaded on change",
		},
		&cli.BoolFlag{
			Name:    "debug",
			EnvVars: []string{"DEBUG"},
		},
	}

	app := &cli.App{
		Name:  "pageserve",
		Usage: "serve templates as pages",
		Flags: flags,
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				level.SetLevel(zapcore.DebugLevel)
			}
			return nil
		},
		Action: func(c *cli.Context) (err error) {
			defer func() {
				if err != nil {
					log.Error(err, "error ocurred")
				}
			}()
			return serve(c, log)
		},
		Commands: []*cli.Command{
			{
				Name:  "routes",
				Usage: "print the route table and exit",
				Action: func(c *cli.Context) error {
					return printRoutes(c, log)
				},
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		os.Exit(1)
	}
}

func construct(cfg *config, log logr.Logger, store *values.Store) (*web.Pages, error) {
	return pages.Construct(os.DirFS(cfg.TemplatesDir), ".", log, pages.Config{
		Engine: cfg.Engine,
		Prefix: cfg.Prefix,
		Base:   store,
	})
}

func printRoutes(c *cli.Context, log logr.Logger) error {
	cfg, err := configFromFlags(c)
	if err != nil {
		return err
	}

	p, err := construct(cfg, log, nil)
	if err != nil {
		return err
	}

	table := p.Routes()
	for _, pth := range table.Paths() {
		tpl, _ := table.Lookup(pth)
		fmt.Fprintf(c.App.Writer, "%s\t%s\n", pth, tpl)
	}

	return nil
}

func serve(c *cli.Context, log logr.Logger) error {
	cfg, err := configFromFlags(c)
	if err != nil {
		return err
	}

	store := values.NewStore(nil)

	if cfg.BaseContext != "" {
		v, err := loadBaseContext(cfg.BaseContext)
		if err != nil {
			return err
		}
		store.Set(v)

		unwatch, err := watchBaseContext(log, cfg.BaseContext, store)
		if err != nil {
			return err
		}
		defer unwatch()
	}

	p, err := construct(cfg, log, store)
	if err != nil {
		return fmt.Errorf("could not construct pages: %w", err)
	}

	eg, ctx := errgroup.WithContext(c.Context)

	eg.Go(runHttp(ctx, log, cfg.Addr, "web", otelhttp.NewHandler(newRouter(p), "pages")))

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		eg.Go(runHttp(ctx, log, cfg.MetricsAddr, "metrics", mux))
	}

	eg.Go(func() error {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig := <-sigs:
			log.Info("signal received, terminating", "sig", sig)
			return fmt.Errorf("signal %s received", sig.String())
		}
	})

	return eg.Wait()
}

func runHttp(ctx context.Context, log logr.Logger, addr, name string, handler http.Handler) func() error {
	return func() error {
		l, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("could not listen for %s requests: %w", name, err)
		}

		s := &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			shutdownContext, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			log.Info(fmt.Sprintf("graceful shutdown of the %s server", name))
			err := s.Shutdown(shutdownContext)
			if errors.Is(err, context.DeadlineExceeded) {
				log.Info(fmt.Sprintf("%s server did not shut down gracefully, forcing close", name))
				s.Close()
			}
		}()

		log.Info(fmt.Sprintf("%s server started", name), "addr", l.Addr().String())
		err = s.Serve(l)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
