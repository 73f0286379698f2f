package web

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/draganm/go-pages/common/values"
	"github.com/draganm/go-pages/engine"
	"github.com/draganm/go-pages/routes"
	"github.com/go-logr/logr"
)

const contentType = "text/html; charset=utf-8"

// Pages renders templates for GET requests whose path is in the route table
// and hands every other request to the next handler untouched.
type Pages struct {
	log     logr.Logger
	engine  engine.Engine
	routes  *routes.Table
	base    *values.Store
	builder values.Builder
}

type Option func(*Pages)

// WithContextBuilder sets a function producing per request values. They
// shadow the base values and are shadowed by values attached to the request.
func WithContextBuilder(b values.Builder) Option {
	return func(p *Pages) {
		p.builder = b
	}
}

func New(log logr.Logger, eng engine.Engine, table *routes.Table, base *values.Store, opts ...Option) *Pages {
	if base == nil {
		base = values.NewStore(nil)
	}

	p := &Pages{
		log:    log,
		engine: eng,
		routes: table,
		base:   base,
	}

	for _, o := range opts {
		o(p)
	}

	return p
}

func (p *Pages) Base() *values.Store {
	return p.base
}

func (p *Pages) Routes() *routes.Table {
	return p.routes
}

func (p *Pages) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			passThroughCount.WithLabelValues(methodLabel(r.Method)).Inc()
			next.ServeHTTP(w, r)
			return
		}

		template, found := p.routes.Lookup(r.URL.Path)
		if !found {
			p.log.V(1).Info("no matching template for path", "path", r.URL.Path)
			passThroughCount.WithLabelValues(methodLabel(r.Method)).Inc()
			next.ServeHTTP(w, r)
			return
		}

		log := p.log.WithValues("path", r.URL.Path, "template", template)
		log.V(1).Info("matched path to template")
		r = r.WithContext(logr.NewContext(r.Context(), log))

		p.render(w, r, log, template, nil)
	})
}

// Render writes template to w using the same values a matched page would get,
// extended by extra. Handlers use it for pages that need more than the base values.
func (p *Pages) Render(w http.ResponseWriter, r *http.Request, template string, extra values.Values) {
	log, err := logr.FromContext(r.Context())
	if err != nil {
		log = p.log
	}
	p.render(w, r, log.WithValues("template", template), template, extra)
}

func (p *Pages) render(w http.ResponseWriter, r *http.Request, log logr.Logger, template string, extra values.Values) {
	startTime := time.Now()
	status := http.StatusOK

	defer func() {
		renderDurations.WithLabelValues(template).Observe(time.Since(startTime).Seconds())
		responseStatusCount.WithLabelValues(strconv.Itoa(status), template).Inc()
	}()

	data, err := p.valuesFor(r, extra)
	if err != nil {
		log.Error(err, "could not build page values")
		status = http.StatusInternalServerError
		http.Error(w, http.StatusText(status), status)
		return
	}

	buf := &bytes.Buffer{}
	err = p.engine.Render(r.Context(), buf, template, data)
	if err != nil {
		if errors.Is(err, engine.ErrTemplateNotFound) {
			log.Error(err, "route points to a missing template")
		} else {
			log.Error(err, "could not render page")
		}
		status = http.StatusInternalServerError
		http.Error(w, http.StatusText(status), status)
		return
	}

	w.Header().Set("content-type", contentType)
	w.Header().Set("content-length", strconv.Itoa(buf.Len()))
	w.WriteHeader(status)

	_, err = buf.WriteTo(w)
	if err != nil {
		log.Error(err, "could not write response")
	}
}

func (p *Pages) valuesFor(r *http.Request, extra values.Values) (values.Values, error) {
	var built values.Values
	if p.builder != nil {
		var err error
		built, err = p.builder(r)
		if err != nil {
			return nil, fmt.Errorf("could not build request values: %w", err)
		}
	}

	return values.Merge(
		p.base.Snapshot(),
		built,
		values.FromContext(r.Context()),
		extra,
	), nil
}
