package engine

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/draganm/go-pages/common/values"
)

var ErrTemplateNotFound = errors.New("template not found")

// Engine renders named templates. Implementations must be safe for concurrent use.
type Engine interface {
	Render(ctx context.Context, w io.Writer, name string, data values.Values) error
	Names() []string
}

// RenderError is returned when a template exists but could not be parsed or executed.
type RenderError struct {
	Template string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("could not render template %s: %s", e.Template, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

func NotFound(name string) error {
	return fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
}
