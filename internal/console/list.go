package console

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"toll-console/internal/async"
	"toll-console/internal/tollapi"
)

// ListState is the rendered view of a table section.
type ListState struct {
	Status  async.Status `json:"status"`
	Loading bool         `json:"loading"`
	Error   string       `json:"error,omitempty"`
	Empty   string       `json:"empty,omitempty"`
	Retry   bool         `json:"retry,omitempty"`
	Columns []string     `json:"columns"`
	Rows    [][]string   `json:"rows"`
	Count   int          `json:"count"`
}

// listView fetches a collection and renders it as rows. Failures map to
// errMsg; the underlying error is only logged.
type listView[T any] struct {
	req      *async.Request[[]T]
	fetch    func(context.Context) ([]T, error)
	columns  []string
	row      func(T) []string
	errMsg   string
	emptyMsg string
	retry    bool
	what     string
	log      *slog.Logger
}

func newListView[T any](b *base, what string, fetch func(context.Context) ([]T, error)) *listView[T] {
	return &listView[T]{
		req:   async.NewRequest[[]T](b.scope, b.notify),
		fetch: fetch,
		what:  what,
		log:   b.log,
		retry: true,
	}
}

func (l *listView[T]) load() <-chan struct{} {
	return l.run(l.fetch)
}

func (l *listView[T]) run(fetch func(context.Context) ([]T, error)) <-chan struct{} {
	return l.req.Run(fetch, func(st async.State[[]T]) {
		if st.Err != nil {
			l.log.Error("fetch failed", "what", l.what, "err", st.Err)
		}
	})
}

func (l *listView[T]) reset() { l.req.Reset() }

func (l *listView[T]) value() ([]T, bool) {
	st := l.req.State()
	return st.Value, st.Status == async.Resolved
}

func (l *listView[T]) state() ListState {
	st := l.req.State()
	s := ListState{
		Status:  st.Status,
		Loading: st.Status == async.Pending,
		Columns: l.columns,
		Rows:    [][]string{},
	}
	switch st.Status {
	case async.Failed:
		s.Error = l.errMsg
		s.Retry = l.retry
	case async.Resolved:
		for _, v := range st.Value {
			s.Rows = append(s.Rows, l.row(v))
		}
		s.Count = len(st.Value)
		if s.Count == 0 {
			s.Empty = l.emptyMsg
		}
	}
	return s
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func rupees(v float64) string { return fmt.Sprintf("₹%.2f", v) }

func fixed(v float64, places int) string { return strconv.FormatFloat(v, 'f', places, 64) }

func ownerID(u *tollapi.UserRef) string {
	if u == nil || u.UserID == 0 {
		return "N/A"
	}
	return itoa(u.UserID)
}

// displayDate and displayTime fall back to the raw backend string.
func displayDate(s string) string {
	if t, ok := tollapi.ParseLocalTime(s); ok {
		return t.Format("2006-01-02")
	}
	return s
}

func displayTime(s string) string {
	if t, ok := tollapi.ParseLocalTime(s); ok {
		return t.Format("2006-01-02 15:04:05")
	}
	return s
}
