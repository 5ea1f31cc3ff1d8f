package mid

import (
	"context"
	"net/http"

	"github.com/hqchain/hqchain/foundation/web"
)

// Cors lets browsers from the listed origins call the public node API. An
// empty list or a "*" entry allows any origin.
func Cors(origins []string) web.Middleware {
	allowed := make(map[string]bool, len(origins))
	for _, origin := range origins {
		allowed[origin] = true
	}
	anyOrigin := len(origins) == 0 || allowed["*"]

	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			origin := r.Header.Get("Origin")

			switch {
			case anyOrigin:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}

			// The node only serves reads and JSON submissions.
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length")

			return handler(ctx, w, r)
		}

		return h
	}

	return m
}
