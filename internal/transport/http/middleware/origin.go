package middleware

import (
	"net/http"
	"strings"

	"github.com/baechuer/newslink/internal/domain"
)

type WriteErrFunc func(http.ResponseWriter, *http.Request, error)

// TrustedOrigin rejects state-changing requests whose Origin header is not
// trusted. Requests without an Origin (CLI, native HTTP stacks) pass; they
// cannot carry a browser's ambient cookies cross-site. GET, HEAD and OPTIONS
// are not checked, so the handlers behind them must not change state.
//
// An entry ending in "://" trusts the whole scheme, e.g. "newslink://".
func TrustedOrigin(trusted []string, writeErr WriteErrFunc) func(http.Handler) http.Handler {
	exact := make(map[string]struct{}, len(trusted))
	var schemes []string
	for _, o := range trusted {
		o = strings.ToLower(strings.TrimSpace(o))
		switch {
		case o == "":
		case strings.HasSuffix(o, "://"):
			schemes = append(schemes, o)
		default:
			exact[strings.TrimSuffix(o, "/")] = struct{}{}
		}
	}

	allowed := func(origin string) bool {
		origin = strings.ToLower(strings.TrimSuffix(origin, "/"))
		if _, ok := exact[origin]; ok {
			return true
		}
		for _, s := range schemes {
			if strings.HasPrefix(origin, s) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin != "" && !allowed(origin) {
				writeErr(w, r, domain.ErrOriginNotTrusted(origin))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
