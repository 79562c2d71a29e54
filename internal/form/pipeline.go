package form

import (
	"context"
	"errors"
	"strings"
	"time"

	"shipform/internal/address"
	dErrors "shipform/pkg/domain-errors"
)

// Ack confirms an accepted submission.
type Ack struct {
	Payload     address.Payload
	Tier        address.Tier
	SubmittedAt time.Time
}

// Submission is a validated payload ready to send.
type Submission struct {
	payload address.Payload
	tier    address.Tier
}

func (s Submission) Payload() address.Payload { return s.payload }
func (s Submission) Tier() address.Tier       { return s.tier }

// Pipeline turns a resolved selection plus address fields into one sink call.
type Pipeline struct {
	sink address.Sink
	now  func() time.Time
}

// NewPipeline builds a pipeline sending to sink.
func NewPipeline(sink address.Sink) *Pipeline {
	return &Pipeline{sink: sink, now: time.Now}
}

// Prepare checks the preconditions and builds the payload from names, never ids.
func (p *Pipeline) Prepare(sel Resolved, fields address.Fields, tier address.Tier) (Submission, error) {
	if !sel.ok {
		return Submission{}, ErrMissingSelection
	}
	if missing := fields.Missing(); len(missing) > 0 {
		return Submission{}, dErrors.New(dErrors.CodeValidation, "missing required fields: "+strings.Join(missing, ", "))
	}
	if _, ok := tier.Info(); !ok {
		return Submission{}, address.ErrUnknownTier
	}
	return Submission{payload: address.NewPayload(fields, sel.Destination()), tier: tier}, nil
}

// Send issues exactly one sink request. Failures come back as CodeBadGateway
// errors matching address.ErrSubmissionFailed.
func (p *Pipeline) Send(ctx context.Context, sub Submission) (Ack, error) {
	if err := p.sink.Submit(ctx, sub.payload); err != nil {
		return Ack{}, dErrors.Wrap(err, dErrors.CodeBadGateway, FailureReason(err))
	}
	return Ack{Payload: sub.payload, Tier: sub.tier, SubmittedAt: p.now()}, nil
}

// Submit is Prepare followed by Send.
func (p *Pipeline) Submit(ctx context.Context, sel Resolved, fields address.Fields, tier address.Tier) (Ack, error) {
	sub, err := p.Prepare(sel, fields, tier)
	if err != nil {
		return Ack{}, err
	}
	return p.Send(ctx, sub)
}

// FailureReason extracts the user-facing reason of a failed submission.
func FailureReason(err error) string {
	var se *address.SubmissionError
	if errors.As(err, &se) && se.Reason != "" {
		return se.Reason
	}
	return address.ErrSubmissionFailed.Error()
}
