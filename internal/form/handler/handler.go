package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"shipform/internal/address"
	"shipform/internal/form"
	"shipform/internal/form/store/receipt"
	"shipform/pkg/platform/httputil"
	"shipform/pkg/requestcontext"
)

// Service defines the session operations the handler needs.
type Service interface {
	Open(ctx context.Context, token string) (*form.Session, error)
	Get(ctx context.Context, id string) (*form.Session, error)
	Close(ctx context.Context, id string) error
	Submit(ctx context.Context, id string) (form.Ack, error)
	Receipts(ctx context.Context, id string) ([]receipt.Receipt, error)
}

// Handler exposes form sessions over HTTP.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a form handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the form endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/tiers", h.HandleListTiers)
	r.Post("/sessions", h.HandleOpen)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", h.HandleGet)
		r.Delete("/", h.HandleClose)
		r.Post("/regions/reload", h.HandleReloadRegions)
		r.Put("/region", h.HandleChooseRegion)
		r.Post("/districts/refresh", h.HandleRefreshDistricts)
		r.Put("/district", h.HandleChooseDistrict)
		r.Patch("/address", h.HandleUpdateAddress)
		r.Put("/tier", h.HandleSetTier)
		r.Post("/submit", h.HandleSubmit)
		r.Delete("/error", h.HandleDismissError)
		r.Get("/receipts", h.HandleReceipts)
	})
}

// HandleListTiers handles GET /tiers.
func (h *Handler) HandleListTiers(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, FromTiers(address.Tiers()))
}

// HandleOpen handles POST /sessions. The caller's bearer token is forwarded
// on every directory and sink call of the new session.
func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := h.service.Open(ctx, requestcontext.BearerToken(ctx))
	if err != nil {
		h.fail(ctx, "failed to open session", "", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromSnapshot(sess.Snapshot()))
}

// HandleGet handles GET /sessions/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSnapshot(sess.Snapshot()))
}

// HandleClose handles DELETE /sessions/{id}.
func (h *Handler) HandleClose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if err := h.service.Close(ctx, id); err != nil {
		h.fail(ctx, "failed to close session", id, err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleReloadRegions handles POST /sessions/{id}/regions/reload.
func (h *Handler) HandleReloadRegions(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "region reload failed", func(ctx context.Context, sess *form.Session) error {
		return sess.LoadRegions(ctx)
	})
}

// HandleChooseRegion handles PUT /sessions/{id}/region. It returns once the
// district list of the region has been fetched or the fetch has failed.
func (h *Handler) HandleChooseRegion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ChooseRegionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.mutate(w, r, "region choice failed", func(ctx context.Context, sess *form.Session) error {
		return sess.ChooseRegion(ctx, req.RegionID)
	})
}

// HandleRefreshDistricts handles POST /sessions/{id}/districts/refresh.
func (h *Handler) HandleRefreshDistricts(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "district refresh failed", func(ctx context.Context, sess *form.Session) error {
		return sess.RefreshDistricts(ctx)
	})
}

// HandleChooseDistrict handles PUT /sessions/{id}/district.
func (h *Handler) HandleChooseDistrict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ChooseDistrictRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.mutate(w, r, "district choice failed", func(_ context.Context, sess *form.Session) error {
		return sess.ChooseDistrict(req.DistrictCode)
	})
}

// HandleUpdateAddress handles PATCH /sessions/{id}/address.
func (h *Handler) HandleUpdateAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[UpdateAddressRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.mutate(w, r, "address update failed", func(_ context.Context, sess *form.Session) error {
		return sess.UpdateFields(req.Patch())
	})
}

// HandleSetTier handles PUT /sessions/{id}/tier.
func (h *Handler) HandleSetTier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[SetTierRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.mutate(w, r, "tier change failed", func(_ context.Context, sess *form.Session) error {
		return sess.SetTier(req.ParsedTier())
	})
}

// HandleSubmit handles POST /sessions/{id}/submit.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	start := time.Now()

	ack, err := h.service.Submit(ctx, id)
	if err != nil {
		h.fail(ctx, "address submission failed", id, err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "address submitted",
		"request_id", requestcontext.RequestID(ctx),
		"session_id", id,
		"tier", ack.Tier,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, &SubmissionResponse{
		Payload:     ack.Payload,
		Tier:        string(ack.Tier),
		SubmittedAt: ack.SubmittedAt,
	})
}

// HandleDismissError handles DELETE /sessions/{id}/error.
func (h *Handler) HandleDismissError(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "", func(_ context.Context, sess *form.Session) error {
		sess.DismissError()
		return nil
	})
}

// HandleReceipts handles GET /sessions/{id}/receipts.
func (h *Handler) HandleReceipts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	list, err := h.service.Receipts(ctx, id)
	if err != nil {
		h.fail(ctx, "failed to list receipts", id, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromReceipts(list))
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*form.Session, bool) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	sess, err := h.service.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}
	return sess, true
}

// mutate runs op on the addressed session and answers with the resulting state.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, failMsg string, op func(context.Context, *form.Session) error) {
	ctx := r.Context()
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := op(ctx, sess); err != nil {
		h.fail(ctx, failMsg, sess.ID(), err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSnapshot(sess.Snapshot()))
}

func (h *Handler) fail(ctx context.Context, msg, sessionID string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"session_id", sessionID,
		"error", err,
	)
}
