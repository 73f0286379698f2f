package values

import (
	"context"
	"net/http"
)

type Values map[string]any

// Merge returns a new map holding every layer, later layers shadowing earlier ones.
func Merge(layers ...Values) Values {
	size := 0
	for _, l := range layers {
		size += len(l)
	}

	res := make(Values, size)
	for _, l := range layers {
		for k, v := range l {
			res[k] = v
		}
	}

	return res
}

// Builder produces request specific values, e.g. navbar state for the logged in user.
type Builder func(r *http.Request) (Values, error)

type contextKey struct{}

// NewContext attaches v as request values. Values already attached to ctx are kept
// unless v sets the same key.
func NewContext(ctx context.Context, v Values) context.Context {
	return context.WithValue(ctx, contextKey{}, Merge(FromContext(ctx), v))
}

func FromContext(ctx context.Context) Values {
	v, _ := ctx.Value(contextKey{}).(Values)
	return v
}
