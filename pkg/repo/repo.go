package repo

import (
	"fmt"
	"time"

	"github.com/odvcencio/objgraph/pkg/graph"
	"github.com/odvcencio/objgraph/pkg/object"
	"github.com/odvcencio/objgraph/pkg/refs"
	"go.uber.org/zap"
)

// Repo wires an object store, its refs, the ref history and an analyzer
// over both.
type Repo struct {
	Config   Config
	Store    *object.Store
	Refs     *refs.Manager
	History  *refs.History
	Analyzer *graph.Analyzer

	logger *zap.Logger
	now    func() time.Time
}

// Option customizes a Repo.
type Option func(*Repo)

// WithClock sets the time source used for commit timestamps and history.
func WithClock(now func() time.Time) Option {
	return func(r *Repo) {
		if now != nil {
			r.now = now
		}
	}
}

// New builds an in-memory repository from cfg. A nil logger discards logs.
func New(cfg Config, logger *zap.Logger, opts ...Option) (*Repo, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Repo{
		Config: cfg,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.Store = object.NewStore(object.WithHashAlgorithm(cfg.HashAlgorithm()))
	r.History = refs.NewHistory(
		refs.WithClock(r.now),
		refs.WithHistoryLogger(logger.Named("history")),
	)
	r.History.Subscribe(logChange(logger.Named("refs")))
	r.Refs = refs.NewManager(
		refs.WithRecorder(r.History),
		refs.WithLogger(logger.Named("refs")),
	)
	r.Analyzer = graph.NewAnalyzer(r.Store, r.Refs)
	return r, nil
}

// Logger returns the repository logger.
func (r *Repo) Logger() *zap.Logger { return r.logger }

func logChange(logger *zap.Logger) refs.Listener {
	return func(c refs.Change) error {
		logger.Debug("ref changed",
			zap.String("ref", c.Ref),
			zap.String("old", string(c.Old)),
			zap.String("new", string(c.New)),
			zap.String("op", string(c.Operation)),
			zap.Uint64("seq", c.Seq),
		)
		return nil
	}
}
