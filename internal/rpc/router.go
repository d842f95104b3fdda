package rpc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/baechuer/newslink/internal/domain"
	"github.com/baechuer/newslink/internal/logger"
	appCtx "github.com/baechuer/newslink/internal/pkg/context"
	"github.com/baechuer/newslink/internal/tracing"
	"github.com/baechuer/newslink/internal/transport/http/response"
)

// DefaultPrefix is where the router expects to be mounted.
const DefaultPrefix = "/rpc"

// Router dispatches /rpc/<path> to registered procedures.
//
// For every call: an unknown path is NotFound; a GET on a mutation is 405;
// the class check runs next;
// only then is the input read, decoded and validated, and the handler called.
// The caller's session is taken from the request context, where the session
// middleware puts it.
type Router struct {
	prefix string
	procs  map[string]Procedure
}

func New(procs ...Procedure) (*Router, error) {
	rt := &Router{prefix: DefaultPrefix, procs: make(map[string]Procedure, len(procs))}
	for _, p := range procs {
		if p.path == "" {
			return nil, fmt.Errorf("rpc: empty procedure path")
		}
		if p.invoke == nil {
			return nil, fmt.Errorf("rpc: procedure %q has no handler", p.path)
		}
		if _, dup := rt.procs[p.path]; dup {
			return nil, fmt.Errorf("rpc: duplicate procedure %q", p.path)
		}
		rt.procs[p.path] = p
	}
	return rt, nil
}

// Procedures lists the registered paths.
func (rt *Router) Procedures() []string {
	out := make([]string, 0, len(rt.procs))
	for p := range rt.procs {
		out = append(out, p)
	}
	return out
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		methodNotAllowed(w, r, "GET, POST")
		return
	}

	path := normalizePath(strings.TrimPrefix(r.URL.Path, rt.prefix))
	start := time.Now()

	proc, ok := rt.procs[path]
	if !ok {
		callsTotal.WithLabelValues(unknownProcedure, "procedure_not_found").Inc()
		response.WriteError(w, r, domain.ErrProcedureNotFound(path))
		return
	}

	// GET requests carry ambient cookies cross-site without an Origin check
	if r.Method == http.MethodGet && proc.kind != KindQuery {
		callsTotal.WithLabelValues(path, "method_not_allowed").Inc()
		methodNotAllowed(w, r, "POST")
		return
	}

	ctx, span := tracing.StartSpan(r.Context(), "rpc "+path,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("rpc.procedure", path),
			attribute.String("rpc.class", proc.class.String()),
			attribute.String("rpc.kind", proc.kind.String()),
		),
	)
	defer span.End()
	r = r.WithContext(ctx)

	out, err := rt.call(ctx, r, proc)

	code := "ok"
	if err != nil {
		code = domain.CodeOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, code)
		if domain.KindOf(err) == domain.KindInternal || domain.KindOf(err) == domain.KindInfrastructure {
			logger.WithCtx(ctx).Error().Err(err).Str("procedure", path).Msg("rpc call failed")
		}
	}
	span.SetAttributes(attribute.String("rpc.code", code))
	callsTotal.WithLabelValues(path, code).Inc()
	callDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())

	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, out)
}

func (rt *Router) call(ctx context.Context, r *http.Request, proc Procedure) (any, error) {
	sess, err := authorize(ctx, proc.class)
	if err != nil {
		return nil, err
	}

	raw, err := readInput(r)
	if err != nil {
		return nil, err
	}
	return proc.invoke(ctx, sess, raw)
}

func authorize(ctx context.Context, class Class) (*domain.Session, error) {
	if class == ClassPublic {
		sess, _ := appCtx.GetSession(ctx)
		return sess, nil
	}

	sess, err := appCtx.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, domain.ErrUnauthenticated()
	}
	if class == ClassAdmin && !sess.User.IsAdmin() {
		return nil, domain.ErrInsufficientRole(domain.RoleAdmin)
	}
	return sess, nil
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allow string) {
	w.Header().Set("Allow", allow)
	response.WriteJSON(w, http.StatusMethodNotAllowed, response.ErrorBody{Error: response.ErrorPayload{
		Code:      "method_not_allowed",
		Message:   "method not allowed",
		RequestID: appCtx.GetRequestID(r.Context()),
	}})
}

// readInput returns the POST body, or the "input" query parameter of a GET.
func readInput(r *http.Request) ([]byte, error) {
	if r.Method == http.MethodGet {
		return []byte(r.URL.Query().Get("input")), nil
	}
	if r.Body == nil {
		return nil, nil
	}
	b, err := io.ReadAll(io.LimitReader(r.Body, response.MaxBodyBytes))
	if err != nil {
		return nil, domain.ErrInvalidJSON(err)
	}
	return b, nil
}

// normalizePath accepts "todo/getAll", "/todo/getAll" and "todo.getAll".
func normalizePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	return strings.ReplaceAll(p, ".", "/")
}
