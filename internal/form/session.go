// Package form implements one address-capture session: the cascading
// region/district selection, the address fields and delivery tier, the single
// session error, and the submission pipeline.
//
// A Session is safe for concurrent use. State changes happen under a mutex;
// directory and sink calls run outside it and their results are applied only
// if they still match the current selection.
package form

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"shipform/internal/address"
	"shipform/internal/directory"
	"shipform/internal/form/metrics"
	dErrors "shipform/pkg/domain-errors"
)

const (
	msgRegionsUnavailable   = "regions unavailable"
	msgDistrictsUnavailable = "districts unavailable"
)

// DefaultErrorTTL is how long a notice stays visible.
const DefaultErrorTTL = 6 * time.Second

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	ID             string
	Phase          Phase
	RegionsLoaded  bool
	Regions        []directory.Region
	Region         *directory.Region
	DistrictStatus DistrictStatus
	Districts      []directory.District
	District       *directory.District
	Fields         address.Fields
	Tier           address.Tier
	Busy           bool
	Submitting     bool
	Error          *Notice
	ErrorExpiresAt time.Time
	LastAck        *Ack
}

// Session is one form session.
type Session struct {
	id        string
	directory directory.Client
	pipeline  *Pipeline
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time

	mu             sync.Mutex
	sel            selection
	form           addressForm
	notices        noticeBoard
	regionsLoading bool
	submitting     bool
	lastAck        *Ack
}

// Option configures a Session.
type Option func(*Session)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithErrorTTL sets how long a notice stays visible; zero keeps it until dismissed.
func WithErrorTTL(ttl time.Duration) Option {
	return func(s *Session) {
		s.notices.ttl = ttl
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
		s.pipeline.now = now
	}
}

// NewSession builds a session over a directory and a sink. Both collaborators
// already carry the caller's credential.
func NewSession(id string, dir directory.Client, sink address.Sink, opts ...Option) *Session {
	s := &Session{
		id:        id,
		directory: dir,
		pipeline:  NewPipeline(sink),
		logger:    slog.New(slog.DiscardHandler),
		now:       time.Now,
		sel:       newSelection(),
		form:      newAddressForm(),
		notices:   noticeBoard{ttl: DefaultErrorTTL},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

func (s *Session) busyLocked() bool {
	return s.regionsLoading || s.submitting || s.sel.status == DistrictsPending
}

// LoadRegions fetches the region list. Once loaded the list never changes, so
// later calls are no-ops; after a failure the call may be repeated.
func (s *Session) LoadRegions(ctx context.Context) error {
	s.mu.Lock()
	if s.sel.regionsLoaded {
		s.mu.Unlock()
		return nil
	}
	if s.regionsLoading {
		s.mu.Unlock()
		return ErrBusy
	}
	s.regionsLoading = true
	s.mu.Unlock()

	regions, err := s.directory.ListRegions(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.regionsLoading = false
	if err != nil {
		s.notices.raise(NoticeDirectoryUnavailable, msgRegionsUnavailable, s.now())
		s.logger.ErrorContext(ctx, "region list fetch failed",
			"session_id", s.id,
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeUnavailable, msgRegionsUnavailable)
	}
	s.sel.setRegions(regions)
	s.logger.InfoContext(ctx, "regions loaded",
		"session_id", s.id,
		"count", len(regions),
	)
	return nil
}

// ChooseRegion selects a region and fetches its districts. Choosing again while
// a fetch is pending supersedes it; the superseded call returns ErrSuperseded.
func (s *Session) ChooseRegion(ctx context.Context, id directory.RegionID) error {
	s.mu.Lock()
	if s.submitting || s.regionsLoading {
		s.mu.Unlock()
		return ErrBusy
	}
	ticket, err := s.sel.chooseRegion(id)
	if err != nil {
		s.mu.Unlock()
		s.logger.ErrorContext(ctx, "region choice rejected",
			"session_id", s.id,
			"region_id", id,
			"error", err,
		)
		return err
	}
	s.mu.Unlock()

	return s.fetchDistricts(ctx, ticket)
}

// RefreshDistricts re-fetches the districts of the chosen region, e.g. after
// a failed fetch. The chosen district survives if it is still listed.
func (s *Session) RefreshDistricts(ctx context.Context) error {
	s.mu.Lock()
	if s.submitting || s.regionsLoading {
		s.mu.Unlock()
		return ErrBusy
	}
	ticket, err := s.sel.refresh()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.fetchDistricts(ctx, ticket)
}

func (s *Session) fetchDistricts(ctx context.Context, ticket fetchTicket) error {
	districts, err := s.directory.ListDistricts(ctx, ticket.regionID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		if !s.sel.failDistricts(ticket) {
			s.metrics.ObserveDistrictFetch("stale")
			s.logger.DebugContext(ctx, "stale district failure discarded",
				"session_id", s.id,
				"region_id", ticket.regionID,
			)
			return ErrSuperseded
		}
		s.metrics.ObserveDistrictFetch("failed")
		s.notices.raise(NoticeDirectoryUnavailable, msgDistrictsUnavailable, s.now())
		s.logger.ErrorContext(ctx, "district fetch failed",
			"session_id", s.id,
			"region_id", ticket.regionID,
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeUnavailable, msgDistrictsUnavailable)
	}

	if !s.sel.applyDistricts(ticket, districts) {
		s.metrics.ObserveDistrictFetch("stale")
		s.logger.DebugContext(ctx, "stale district response discarded",
			"session_id", s.id,
			"region_id", ticket.regionID,
		)
		return ErrSuperseded
	}
	s.metrics.ObserveDistrictFetch("applied")
	s.logger.InfoContext(ctx, "districts loaded",
		"session_id", s.id,
		"region_id", ticket.regionID,
		"count", len(districts),
	)
	return nil
}

// ChooseDistrict selects a district of the chosen region. Unknown codes are
// rejected without changing anything.
func (s *Session) ChooseDistrict(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return ErrBusy
	}
	if err := s.sel.chooseDistrict(code); err != nil {
		s.logger.Error("district choice rejected",
			"session_id", s.id,
			"district_code", code,
			"error", err,
		)
		return err
	}
	return nil
}

// UpdateFields patches street, house number and postal code.
func (s *Session) UpdateFields(p address.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return ErrBusy
	}
	s.form.update(p)
	return nil
}

// SetTier changes the delivery tier.
func (s *Session) SetTier(t address.Tier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return ErrBusy
	}
	return s.form.setTier(t)
}

// DismissError clears the current notice.
func (s *Session) DismissError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices.dismiss()
}

// Submit validates the session and sends the address once. Input is kept on
// both success and failure so the user can edit or retry.
func (s *Session) Submit(ctx context.Context) (Ack, error) {
	start := time.Now()

	s.mu.Lock()
	if s.busyLocked() {
		s.mu.Unlock()
		s.metrics.ObserveSubmit(start, "busy")
		return Ack{}, ErrBusy
	}
	sub, err := s.pipeline.Prepare(s.sel.resolved(), s.form.fields, s.form.tier)
	if err != nil {
		s.notices.raise(NoticeIncomplete, noticeMessage(err), s.now())
		s.mu.Unlock()
		s.metrics.ObserveSubmit(start, "rejected")
		return Ack{}, err
	}
	s.submitting = true
	s.mu.Unlock()

	ack, err := s.pipeline.Send(ctx, sub)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	if err != nil {
		s.notices.raise(NoticeSubmissionFailed, FailureReason(err), s.now())
		s.metrics.ObserveSubmit(start, "failed")
		s.logger.ErrorContext(ctx, "address submission failed",
			"session_id", s.id,
			"error", err,
		)
		return Ack{}, err
	}
	s.lastAck = &ack
	s.metrics.ObserveSubmit(start, "ok")
	s.logger.InfoContext(ctx, "address submitted",
		"session_id", s.id,
		"tier", ack.Tier,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return ack, nil
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:             s.id,
		Phase:          s.sel.phase(),
		RegionsLoaded:  s.sel.regionsLoaded,
		Regions:        slices.Clone(s.sel.regions),
		DistrictStatus: s.sel.status,
		Districts:      s.sel.activeDistricts(),
		Fields:         s.form.fields,
		Tier:           s.form.tier,
		Busy:           s.busyLocked(),
		Submitting:     s.submitting,
	}
	if s.sel.region != nil {
		r := *s.sel.region
		snap.Region = &r
	}
	if s.sel.district != nil {
		d := *s.sel.district
		snap.District = &d
	}
	if n, ok := s.notices.active(s.now()); ok {
		snap.Error = &n
		snap.ErrorExpiresAt = n.ExpiresAt(s.notices.ttl)
	}
	if s.lastAck != nil {
		ack := *s.lastAck
		snap.LastAck = &ack
	}
	return snap
}

func noticeMessage(err error) string {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
