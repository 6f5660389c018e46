// Package console implements the server-side page controllers of the toll
// admin console. A page is opened per browser session, loads its data from
// the tolling backend and reports its current view state through Snapshot.
package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"toll-console/internal/async"
	"toll-console/internal/tollapi"
)

var (
	ErrUnknownPage = errors.New("unknown page")
	ErrUnsupported = errors.New("command not supported by page")
)

// Command types sent by the browser.
const (
	CmdMount   = "mount"
	CmdUnmount = "unmount"
	CmdSubmit  = "submit"
	CmdRetry   = "retry"
	CmdLookup  = "lookup"
)

type Command struct {
	Type   string            `json:"type"`
	Page   string            `json:"page"`
	Key    string            `json:"key,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

type Deps struct {
	API      *tollapi.Client
	Log      *slog.Logger
	Clock    async.Clock
	FlashTTL time.Duration
}

// Page is one mounted console view. Unmount cancels everything the page
// started; Wait blocks until those goroutines are gone.
type Page interface {
	Name() string
	Mount()
	Unmount()
	Wait()
	Snapshot() any
}

type Submitter interface {
	Submit(fields map[string]string)
}

type Retrier interface {
	Retry()
}

type Looker interface {
	Lookup(key string)
}

var pages = map[string]func(*base) Page{
	"users":     newUsersPage,
	"vehicles":  newVehiclesPage,
	"highways":  newHighwaysPage,
	"locations": newLocationsPage,
	"wallets":   newWalletsPage,
	"dashboard": newDashboardPage,
	"anomalies": newAnomaliesPage,
}

// Pages lists the names Open accepts.
func Pages() []string {
	names := make([]string, 0, len(pages))
	for name := range pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open builds the named page bound to ctx. notify is called, possibly from
// several goroutines, whenever the page state changes. The page is not
// mounted yet.
func Open(ctx context.Context, name string, deps Deps, notify func()) (Page, error) {
	build, ok := pages[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPage, name)
	}
	if deps.API == nil {
		return nil, errors.New("console: backend client is required")
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	if deps.Clock == nil {
		deps.Clock = async.SystemClock
	}
	if deps.FlashTTL <= 0 {
		deps.FlashTTL = async.DefaultFlashTTL
	}
	if notify == nil {
		notify = func() {}
	}
	b := &base{
		name:   name,
		deps:   deps,
		log:    deps.Log.With("page", name),
		scope:  async.NewScope(ctx),
		notify: notify,
	}
	return build(b), nil
}

// Dispatch routes a submit, retry or lookup command to p.
func Dispatch(p Page, cmd Command) error {
	switch cmd.Type {
	case CmdSubmit:
		if s, ok := p.(Submitter); ok {
			s.Submit(cmd.Fields)
			return nil
		}
	case CmdRetry:
		if r, ok := p.(Retrier); ok {
			r.Retry()
			return nil
		}
	case CmdLookup:
		if l, ok := p.(Looker); ok {
			l.Lookup(cmd.Key)
			return nil
		}
	}
	return fmt.Errorf("%w: %s on %s", ErrUnsupported, cmd.Type, p.Name())
}

type base struct {
	name   string
	deps   Deps
	log    *slog.Logger
	scope  *async.Scope
	notify func()
	stops  []func()
}

func (b *base) Name() string { return b.name }

func (b *base) Unmount() {
	b.scope.Close()
	for _, stop := range b.stops {
		stop()
	}
}

func (b *base) Wait() { b.scope.Wait() }

func (b *base) api() *tollapi.Client { return b.deps.API }

func (b *base) newFlash() *async.Flash {
	f := async.NewFlash(b.deps.Clock, b.deps.FlashTTL, b.notify)
	b.stops = append(b.stops, f.Stop)
	return f
}
