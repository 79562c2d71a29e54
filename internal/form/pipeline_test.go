package form

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"shipform/internal/address"
	"shipform/internal/directory"
	"shipform/internal/form/mocks"
	dErrors "shipform/pkg/domain-errors"
)

func resolvedLazioRoma(t *testing.T) Resolved {
	t.Helper()
	sel := newSelection()
	sel.setRegions([]directory.Region{{ID: "1", Name: "Lazio"}})
	ticket, err := sel.chooseRegion("1")
	require.NoError(t, err)
	require.True(t, sel.applyDistricts(ticket, []directory.District{{Code: "A1", Name: "Roma"}}))
	require.NoError(t, sel.chooseDistrict("A1"))
	return sel.resolved()
}

func completeFields() address.Fields {
	return address.Fields{Street: "Via Roma", HouseNumber: "10", PostalCode: "00100"}
}

func TestPipelinePrepare(t *testing.T) {
	p := NewPipeline(nil)

	t.Run("unresolved selection", func(t *testing.T) {
		_, err := p.Prepare(Resolved{}, completeFields(), address.TierStandard)
		assert.ErrorIs(t, err, ErrMissingSelection)
	})

	t.Run("missing fields are listed", func(t *testing.T) {
		_, err := p.Prepare(resolvedLazioRoma(t), address.Fields{Street: "Via Roma"}, address.TierStandard)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Contains(t, err.Error(), "house_number, postal_code")
	})

	t.Run("unknown tier", func(t *testing.T) {
		_, err := p.Prepare(resolvedLazioRoma(t), completeFields(), "overnight")
		assert.ErrorIs(t, err, address.ErrUnknownTier)
	})

	t.Run("payload carries names", func(t *testing.T) {
		sub, err := p.Prepare(resolvedLazioRoma(t), completeFields(), address.TierExpress)
		require.NoError(t, err)
		assert.Equal(t, "Lazio", sub.Payload().RegionName())
		assert.Equal(t, "Roma", sub.Payload().DistrictName())
		assert.Equal(t, address.TierExpress, sub.Tier())
	})
}

func TestPipelineSendCallsSinkOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockSink(ctrl)
	at := time.Date(2025, 5, 2, 12, 0, 0, 0, time.UTC)
	p := NewPipeline(sink)
	p.now = func() time.Time { return at }

	sink.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	ack, err := p.Submit(context.Background(), resolvedLazioRoma(t), completeFields(), address.TierStandard)

	require.NoError(t, err)
	assert.Equal(t, at, ack.SubmittedAt)
	assert.Equal(t, "Via Roma", ack.Payload.Street())
}

func TestPipelineSendFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockSink(ctrl)
	p := NewPipeline(sink)
	sub, err := p.Prepare(resolvedLazioRoma(t), completeFields(), address.TierStandard)
	require.NoError(t, err)

	sink.EXPECT().Submit(gomock.Any(), gomock.Any()).
		Return(&address.SubmissionError{StatusCode: 422, Reason: "indirizzo non trovato"})

	_, err = p.Send(context.Background(), sub)

	require.ErrorIs(t, err, address.ErrSubmissionFailed)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadGateway))
	assert.Equal(t, "indirizzo non trovato", FailureReason(err))
}

func TestFailureReason(t *testing.T) {
	assert.Equal(t, "address submission failed", FailureReason(errors.New("eof")))
	assert.Equal(t, "address submission failed", FailureReason(&address.SubmissionError{StatusCode: 500}))
	assert.Equal(t, "bad cap", FailureReason(&address.SubmissionError{Reason: "bad cap"}))
}
