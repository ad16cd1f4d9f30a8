// Package store owns the console's application state. Each domain store keeps
// one collection fetched from the Keel API, the last error it observed, and the
// per-record loading flags. State only changes through Actions.
package store

import (
	"context"
	"time"

	"github.com/keel-hq/keelctl/internal/localstore"
	"github.com/keel-hq/keelctl/internal/transport"
	"go.uber.org/zap"
)

// DefaultSessionTTL is how long login details stay in durable storage.
const DefaultSessionTTL = 7 * 24 * time.Hour

type Options struct {
	// ClearLoadingOnCompletion clears a record's loading flag once its update
	// request completes. When false the flag stays set until the next fetch
	// replaces the collection.
	ClearLoadingOnCompletion bool
	// SessionTTL defaults to DefaultSessionTTL.
	SessionTTL time.Duration
	// Storage receives the session keys. Defaults to an in-memory store.
	Storage localstore.Storage
	Logger  *zap.Logger
	Clock   func() time.Time
}

// State is the application state object handed to every console surface.
// It is not safe for concurrent use: Prepare and Commit steps must run on the
// goroutine that owns it.
type State struct {
	User      *UserStore
	Resources *ResourceStore
	Tracked   *TrackedStore
	Approvals *ApprovalStore
	Audit     *AuditStore
	Stats     *StatsStore

	opts Options
}

func New(opts Options) *State {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.Storage == nil {
		opts.Storage = localstore.NewMemory()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	log := opts.Logger
	s := &State{opts: opts}
	s.User = &UserStore{storage: opts.Storage, ttl: opts.SessionTTL, now: opts.Clock, log: log.Named("user")}
	s.Resources = &ResourceStore{opts: &s.opts, log: log.Named("resources")}
	s.Tracked = &TrackedStore{resources: s.Resources, opts: &s.opts, log: log.Named("tracked")}
	s.Approvals = &ApprovalStore{opts: &s.opts, log: log.Named("approvals")}
	s.Audit = &AuditStore{pagination: defaultPagination(), log: log.Named("audit")}
	s.Stats = &StatsStore{log: log.Named("stats")}
	return s
}

// Commit applies the outcome of a request to the state.
type Commit func()

// Action is one store operation split around its network call. Prepare and
// the returned Commit mutate state; Request only performs I/O and may run on
// any goroutine. Either step may be nil.
type Action struct {
	Name    string
	Prepare func()
	Request func(ctx context.Context, api transport.Adapter) Commit
}

// Dispatch runs every step of a on the calling goroutine.
func Dispatch(ctx context.Context, api transport.Adapter, a Action) {
	if a.Prepare != nil {
		a.Prepare()
	}
	if a.Request == nil {
		return
	}
	if commit := a.Request(ctx, api); commit != nil {
		commit()
	}
}

// Refresh fetches every dashboard collection in turn.
func (s *State) Refresh(ctx context.Context, api transport.Adapter) {
	for _, a := range s.RefreshActions() {
		Dispatch(ctx, api, a)
	}
}

// RefreshActions lists the fetches that back the dashboard.
func (s *State) RefreshActions() []Action {
	return []Action{
		s.Resources.GetResources(),
		s.Tracked.GetTrackedImages(),
		s.Approvals.GetApprovals(),
		s.Stats.GetStats(),
	}
}
