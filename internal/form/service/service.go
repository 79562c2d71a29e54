package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"shipform/internal/address"
	"shipform/internal/directory"
	"shipform/internal/form"
	"shipform/internal/form/metrics"
	"shipform/internal/form/store/receipt"
	dErrors "shipform/pkg/domain-errors"
)

const (
	DefaultIdleTTL         = 30 * time.Minute
	defaultCleanupInterval = time.Minute
)

// DirectoryFactory builds a directory client that sends token upstream.
type DirectoryFactory func(token string) directory.Client

// SinkFactory builds an address sink that sends token upstream.
type SinkFactory func(token string) address.Sink

// Service owns the live form sessions. Sessions idle for longer than the idle
// TTL are evicted; their receipts outlive them.
type Service struct {
	sessions     *gocache.Cache
	idleTTL      time.Duration
	errorTTL     time.Duration
	newDirectory DirectoryFactory
	newSink      SinkFactory
	receipts     receipt.Store
	logger       *slog.Logger
	metrics      *metrics.Metrics
	newID        func() string

	// closing holds ids removed through Close so eviction can tell them apart
	// from idle expiry.
	closing sync.Map
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithReceiptStore(store receipt.Store) Option {
	return func(s *Service) {
		s.receipts = store
	}
}

func WithIdleTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.idleTTL = ttl
	}
}

// WithErrorTTL is passed on to every session.
func WithErrorTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.errorTTL = ttl
	}
}

// WithIDGenerator replaces the uuid session ids, for tests.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

// New constructs a Service.
func New(dirs DirectoryFactory, sinks SinkFactory, opts ...Option) *Service {
	s := &Service{
		idleTTL:      DefaultIdleTTL,
		errorTTL:     form.DefaultErrorTTL,
		newDirectory: dirs,
		newSink:      sinks,
		logger:       slog.New(slog.DiscardHandler),
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.receipts == nil {
		s.receipts = receipt.NewInMemoryStore()
	}
	cleanup := min(defaultCleanupInterval, s.idleTTL)
	s.sessions = gocache.New(s.idleTTL, cleanup)
	s.sessions.OnEvicted(s.evicted)
	return s
}

func (s *Service) evicted(id string, _ any) {
	_, closed := s.closing.LoadAndDelete(id)
	s.metrics.SessionClosed(!closed)
	if !closed {
		s.logger.Info("form session expired", "session_id", id)
	}
}

// Open starts a session for the caller's credential and loads the region list.
// A failed region load does not fail Open: the session carries the notice and
// the load can be retried.
func (s *Service) Open(ctx context.Context, token string) (*form.Session, error) {
	id := s.newID()
	sess := form.NewSession(id, s.newDirectory(token), s.newSink(token),
		form.WithLogger(s.logger),
		form.WithMetrics(s.metrics),
		form.WithErrorTTL(s.errorTTL),
	)
	if err := s.sessions.Add(id, sess, gocache.DefaultExpiration); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register session")
	}
	s.metrics.IncrementSessionsOpened()
	s.logger.InfoContext(ctx, "form session opened", "session_id", id)

	if err := sess.LoadRegions(ctx); err != nil {
		s.logger.WarnContext(ctx, "session opened without regions",
			"session_id", id,
			"error", err,
		)
	}
	return sess, nil
}

// Get returns a live session and extends its idle deadline.
func (s *Service) Get(_ context.Context, id string) (*form.Session, error) {
	value, found := s.sessions.Get(id)
	if !found {
		return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
	}
	sess, ok := value.(*form.Session)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInternal, "session registry holds an unexpected value")
	}
	s.sessions.SetDefault(id, sess)
	return sess, nil
}

// Close discards a session and its receipts.
func (s *Service) Close(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	s.closing.Store(id, struct{}{})
	s.sessions.Delete(id)
	if err := s.receipts.Delete(ctx, id); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete receipts")
	}
	s.logger.InfoContext(ctx, "form session closed", "session_id", id)
	return nil
}

// Submit sends the session's address and records a receipt on success. The
// submission stands even if the receipt cannot be stored.
func (s *Service) Submit(ctx context.Context, id string) (form.Ack, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return form.Ack{}, err
	}
	ack, err := sess.Submit(ctx)
	if err != nil {
		return form.Ack{}, err
	}
	r := receipt.Receipt{
		SessionID:   id,
		Payload:     ack.Payload,
		Tier:        ack.Tier,
		SubmittedAt: ack.SubmittedAt,
	}
	if err := s.receipts.Append(ctx, r); err != nil {
		s.logger.ErrorContext(ctx, "failed to store receipt",
			"session_id", id,
			"error", err,
		)
	}
	return ack, nil
}

// Receipts lists the acknowledged submissions of a live session.
func (s *Service) Receipts(ctx context.Context, id string) ([]receipt.Receipt, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	list, err := s.receipts.List(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load receipts")
	}
	return list, nil
}

// Count reports the live sessions.
func (s *Service) Count() int {
	return s.sessions.ItemCount()
}

// Shutdown drops every session.
func (s *Service) Shutdown() {
	s.sessions.Flush()
}
