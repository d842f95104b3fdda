package surface

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/baechuer/newslink/internal/client/query"
	"github.com/baechuer/newslink/internal/client/rpcclient"
	"github.com/baechuer/newslink/internal/domain"
)

const (
	KeyTodos = rpcclient.ProcTodoGetAll

	webRefetchDelay = 500 * time.Millisecond
)

type TodoAPI interface {
	Todos(ctx context.Context) ([]domain.Todo, error)
	CreateTodo(ctx context.Context, text string) (domain.Todo, error)
	ToggleTodo(ctx context.Context, id int64, completed bool) (domain.MutationResult, error)
	DeleteTodo(ctx context.Context, id int64) (domain.MutationResult, error)
}

// TodoList is the todo screen of one surface.
type TodoList struct {
	api    TodoAPI
	cache  *query.Client
	notify Notifier

	refetchDelay time.Duration
	failNotice   func(err error, action string) string
}

// NewWebTodoList delays the refetch after toggle and delete and reports
// failures as "<msg>: could not <action> todo".
func NewWebTodoList(api TodoAPI, cache *query.Client, n Notifier) *TodoList {
	return &TodoList{
		api:          api,
		cache:        cache,
		notify:       n,
		refetchDelay: webRefetchDelay,
		failNotice: func(err error, action string) string {
			return fmt.Sprintf("%s: could not %s todo", rpcclient.Message(err), action)
		},
	}
}

// NewNativeTodoList refetches right after every mutation.
func NewNativeTodoList(api TodoAPI, cache *query.Client, n Notifier) *TodoList {
	return &TodoList{
		api:    api,
		cache:  cache,
		notify: n,
		failNotice: func(err error, _ string) string {
			return "Error: " + rpcclient.Message(err)
		},
	}
}

func (l *TodoList) Todos(ctx context.Context) ([]domain.Todo, error) {
	return query.Fetch(ctx, l.cache, KeyTodos, l.api.Todos)
}

// Add creates a todo. Blank text is ignored without a server call.
func (l *TodoList) Add(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	_, err := query.Mutate(ctx, l.cache, query.Mutation[string, domain.Todo]{
		Run:         l.api.CreateTodo,
		Invalidates: []string{KeyTodos},
		OnError:     func(err error, _ string) { l.notify.Error(l.failNotice(err, "add")) },
	}, text)
	return err
}

// Toggle flips a todo; current is the state the caller last saw.
func (l *TodoList) Toggle(ctx context.Context, id int64, current bool) error {
	_, err := query.Mutate(ctx, l.cache, query.Mutation[int64, domain.MutationResult]{
		Run: func(ctx context.Context, id int64) (domain.MutationResult, error) {
			return l.api.ToggleTodo(ctx, id, !current)
		},
		Invalidates:  []string{KeyTodos},
		RefetchDelay: l.refetchDelay,
		OnError:      func(err error, _ int64) { l.notify.Error(l.failNotice(err, "toggle")) },
	}, id)
	return err
}

func (l *TodoList) Remove(ctx context.Context, id int64) error {
	_, err := query.Mutate(ctx, l.cache, query.Mutation[int64, domain.MutationResult]{
		Run:          l.api.DeleteTodo,
		Invalidates:  []string{KeyTodos},
		RefetchDelay: l.refetchDelay,
		OnError:      func(err error, _ int64) { l.notify.Error(l.failNotice(err, "delete")) },
	}, id)
	return err
}

// Counts returns how many todos are completed out of the total.
func (l *TodoList) Counts(ctx context.Context) (completed, total int, err error) {
	todos, err := l.Todos(ctx)
	if err != nil {
		return 0, 0, err
	}
	for _, t := range todos {
		if t.Completed {
			completed++
		}
	}
	return completed, len(todos), nil
}
