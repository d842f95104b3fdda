package rpc

import (
	"bytes"
	"context"

	"github.com/baechuer/newslink/internal/domain"
	"github.com/baechuer/newslink/internal/transport/http/response"
)

// Class decides what a caller needs before a procedure runs.
type Class int

const (
	ClassPublic Class = iota
	ClassProtected
	ClassAdmin
)

func (c Class) String() string {
	switch c {
	case ClassProtected:
		return "protected"
	case ClassAdmin:
		return "admin"
	default:
		return "public"
	}
}

// Kind decides which HTTP methods may call a procedure. Queries answer GET
// and POST; mutations answer POST only.
type Kind int

const (
	KindMutation Kind = iota
	KindQuery
)

func (k Kind) String() string {
	if k == KindQuery {
		return "query"
	}
	return "mutation"
}

// Empty is the input of procedures that take none.
type Empty struct{}

// Procedure is a named, classed handler. Build one with Public, Protected or
// Admin; it is a mutation unless wrapped in Query.
type Procedure struct {
	path   string
	class  Class
	kind   Kind
	invoke func(ctx context.Context, sess *domain.Session, raw []byte) (any, error)
}

func (p Procedure) Path() string { return p.path }
func (p Procedure) Class() Class { return p.class }
func (p Procedure) Kind() Kind   { return p.kind }

// Query marks p as free of side effects, so it may be read with GET.
func Query(p Procedure) Procedure {
	p.kind = KindQuery
	return p
}

// Mutation marks p as POST-only.
func Mutation(p Procedure) Procedure {
	p.kind = KindMutation
	return p
}

func Public[In, Out any](path string, fn func(ctx context.Context, in In) (Out, error)) Procedure {
	return Procedure{
		path:  normalizePath(path),
		class: ClassPublic,
		invoke: func(ctx context.Context, _ *domain.Session, raw []byte) (any, error) {
			in, err := decodeInput[In](raw)
			if err != nil {
				return nil, err
			}
			return fn(ctx, in)
		},
	}
}

// Protected procedures only run with a live session.
func Protected[In, Out any](path string, fn func(ctx context.Context, sess domain.Session, in In) (Out, error)) Procedure {
	return withSession(path, ClassProtected, fn)
}

// Admin procedures only run for a session whose user is an admin.
func Admin[In, Out any](path string, fn func(ctx context.Context, sess domain.Session, in In) (Out, error)) Procedure {
	return withSession(path, ClassAdmin, fn)
}

func withSession[In, Out any](path string, class Class, fn func(context.Context, domain.Session, In) (Out, error)) Procedure {
	return Procedure{
		path:  normalizePath(path),
		class: class,
		invoke: func(ctx context.Context, sess *domain.Session, raw []byte) (any, error) {
			if sess == nil {
				// authorize runs first; reaching here is a wiring bug
				return nil, domain.ErrUnauthenticated()
			}
			in, err := decodeInput[In](raw)
			if err != nil {
				return nil, err
			}
			return fn(ctx, *sess, in)
		},
	}
}

// decodeInput treats an empty payload as the zero input and validates
// struct tags afterwards.
func decodeInput[In any](raw []byte) (In, error) {
	var in In
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := response.Decode(bytes.NewReader(raw), &in); err != nil {
			return in, err
		}
	}
	if err := validateInput(in); err != nil {
		return in, err
	}
	return in, nil
}
