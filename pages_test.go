package pages_test

import (
	"embed"
	"net/http"
	"net/http/httptest"
	"testing"

	pages "github.com/draganm/go-pages"
	"github.com/draganm/go-pages/common/values"
	"github.com/go-chi/chi/v5"
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/require"
)

//go:embed fixtures
var fixtures embed.FS

func newRouter(p interface {
	Middleware(http.Handler) http.Handler
}) *chi.Mux {
	r := chi.NewRouter()
	r.Use(p.Middleware)
	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("posted"))
	})
	return r
}

func TestServingPages(t *testing.T) {
	require := require.New(t)

	p, err := pages.Construct(fixtures, "fixtures/pongo2", testr.New(t), pages.Config{
		Base: values.NewStore(values.Values{"site_name": "Acme"}),
	})
	require.NoError(err)

	require.Equal([]string{"/", "/about", "/blog"}, p.Routes().Paths())

	r := newRouter(p)

	require.HTTPStatusCode(r.ServeHTTP, "GET", "/", nil, 200)
	require.HTTPBodyContains(r.ServeHTTP, "GET", "/", nil, "<main>Welcome to Acme</main>")
	require.HTTPBodyContains(r.ServeHTTP, "GET", "/", nil, `<a href="/signup">Sign up</a>`)
	require.HTTPBodyContains(r.ServeHTTP, "GET", "/about/", nil, "<main>About Acme</main>")
	require.HTTPBodyContains(r.ServeHTTP, "GET", "/blog", nil, "<main>Blog of Acme</main>")

	require.HTTPStatusCode(r.ServeHTTP, "GET", "/missing", nil, 404)
	require.HTTPStatusCode(r.ServeHTTP, "GET", "/partials/navbar", nil, 404)
	require.HTTPBodyContains(r.ServeHTTP, "POST", "/", nil, "posted")
}

func TestRequestValuesOverrideBase(t *testing.T) {
	require := require.New(t)

	p, err := pages.Construct(fixtures, "fixtures/pongo2", logr.Discard(), pages.Config{
		Base: values.NewStore(values.Values{"site_name": "Acme"}),
	})
	require.NoError(err)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(values.NewContext(r.Context(), values.Values{"site_name": "Override"})))
		})
	})
	r.Use(p.Middleware)

	require.HTTPBodyContains(r.ServeHTTP, "GET", "/", nil, "<main>Welcome to Override</main>")
	require.HTTPBodyNotContains(r.ServeHTTP, "GET", "/", nil, "Acme")
}

func TestNavbarFollowsSession(t *testing.T) {
	require := require.New(t)

	p, err := pages.Construct(fixtures, "fixtures/pongo2", testr.New(t), pages.Config{
		Base: values.NewStore(values.Values{"site_name": "Acme"}),
		ContextBuilder: func(r *http.Request) (values.Values, error) {
			c, err := r.Cookie("session")
			if err != nil {
				return nil, nil
			}
			return values.Values{"username": c.Value}, nil
		},
	})
	require.NoError(err)

	r := newRouter(p)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/about", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "alice"})
	r.ServeHTTP(rr, req)

	require.Equal(http.StatusOK, rr.Code)
	require.Contains(rr.Body.String(), `alice <a href="/logout">Log out</a>`)
	require.NotContains(rr.Body.String(), "Sign up")
}

func TestExplicitRoutes(t *testing.T) {
	require := require.New(t)

	p, err := pages.Construct(fixtures, "fixtures/pongo2", testr.New(t), pages.Config{
		Base: values.NewStore(values.Values{"site_name": "Acme"}),
		Routes: map[string]string{
			"/login":   "partials/login.html",
			"/removed": "pages/removed.html",
		},
	})
	require.NoError(err)

	r := newRouter(p)

	require.HTTPBodyContains(r.ServeHTTP, "GET", "/login", nil, "Please log in to Acme")
	require.HTTPStatusCode(r.ServeHTTP, "GET", "/removed", nil, 500)
}

func TestMustachePages(t *testing.T) {
	require := require.New(t)

	p, err := pages.Construct(fixtures, "fixtures/mustache", testr.New(t), pages.Config{
		Engine: pages.EngineMustache,
		Base:   values.NewStore(values.Values{"site_name": "Acme", "username": "bob"}),
	})
	require.NoError(err)

	r := newRouter(p)

	require.HTTPStatusCode(r.ServeHTTP, "GET", "/", nil, 200)
	require.HTTPBodyContains(r.ServeHTTP, "GET", "/", nil, `<nav>bob <a href="/logout">Log out</a></nav><main>Welcome to Acme</main>`)
}

func TestGoTemplatePages(t *testing.T) {
	require := require.New(t)

	p, err := pages.Construct(fixtures, "fixtures/gotemplate", testr.New(t), pages.Config{
		Engine: pages.EngineGoTemplate,
		Base:   values.NewStore(values.Values{"site_name": "Acme", "username": ""}),
	})
	require.NoError(err)

	r := newRouter(p)

	require.HTTPBodyContains(r.ServeHTTP, "GET", "/", nil, `<nav><a href="/login">Log in</a></nav><main>Welcome to Acme</main>`)

	p.Base().Delete("username")
	require.HTTPStatusCode(r.ServeHTTP, "GET", "/", nil, 500)
}

func TestServingAllTemplatesWithRootPrefix(t *testing.T) {
	require := require.New(t)

	p, err := pages.Construct(fixtures, "fixtures/pongo2", logr.Discard(), pages.Config{Prefix: "/"})
	require.NoError(err)

	require.Equal([]string{
		"/pages",
		"/pages/about",
		"/pages/blog",
		"/partials/login",
		"/partials/navbar",
	}, p.Routes().Paths())
}

func TestConflictingTemplatesFailConstruction(t *testing.T) {
	require := require.New(t)

	_, err := pages.Construct(fixtures, "fixtures/conflict", logr.Discard(), pages.Config{})
	require.ErrorContains(err, "path /blog has conflicting templates")
}

func TestUnsupportedEngine(t *testing.T) {
	require := require.New(t)

	_, err := pages.Construct(fixtures, "fixtures/pongo2", logr.Discard(), pages.Config{Engine: "tera"})
	require.EqualError(err, "unsupported template engine tera")
}

func BenchmarkRenderingPage(b *testing.B) {
	p, err := pages.Construct(fixtures, "fixtures/pongo2", logr.Discard(), pages.Config{
		Base: values.NewStore(values.Values{"site_name": "Acme"}),
	})
	if err != nil {
		b.Fatal(err)
	}

	handler := newRouter(p)
	for n := 0; n < b.N; n++ {
		w := httptest.NewRecorder()
		req, err := http.NewRequest("GET", "/about", nil)
		if err != nil {
			b.Error(err)
		}
		handler.ServeHTTP(w, req)
	}
}
