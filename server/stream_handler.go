package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"gatedfm/core/analytics"
	"gatedfm/core/auth"
	"gatedfm/core/delivery"
	"gatedfm/core/errs"
	"gatedfm/core/stream"
	"gatedfm/logger"

	"github.com/gorilla/mux"
)

const playRecordTimeout = 2 * time.Second

// StreamHandler serves GET and HEAD /stream/{productId}/{trackIndex}.
type StreamHandler struct {
	engine   *delivery.Engine
	streamer *stream.Streamer
	recorder *analytics.Recorder
	auth     *auth.Codec
	now      func() time.Time
}

func NewStreamHandler(engine *delivery.Engine, streamer *stream.Streamer, recorder *analytics.Recorder, codec *auth.Codec) *StreamHandler {
	return &StreamHandler{engine: engine, streamer: streamer, recorder: recorder, auth: codec, now: time.Now}
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	productID := vars["productId"]
	trackIndex, err := strconv.Atoi(vars["trackIndex"])
	if err != nil {
		h.fail(w, r, errs.ErrNotFound)
		return
	}

	requester, err := h.auth.Requester(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	d, err := h.engine.Prepare(r.Context(), delivery.Request{
		ProductID:  productID,
		TrackIndex: trackIndex,
		Requester:  requester,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer d.Close()

	logger.Debug("stream request",
		logger.String("productId", productID),
		logger.Int("trackIndex", trackIndex),
		logger.String("entitlement", d.Entitlement.String()),
		logger.Int64("windowBytes", d.Window.Len()),
		logger.String("range", r.Header.Get("Range")))

	listener := listenerID(r.Context(), requester.ID)
	onStart := func() {
		if h.recorder == nil {
			return
		}
		// The play counts even if the client leaves right away.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), playRecordTimeout)
		defer cancel()
		if _, err := h.recorder.RecordPlay(ctx, productID, trackIndex, listener, h.now()); err != nil {
			logger.Error("failed to record play",
				logger.String("productId", productID),
				logger.Int("trackIndex", trackIndex),
				logger.ErrorField(err))
		}
	}

	if err := h.streamer.Serve(w, r, d.Resource(), onStart); err != nil {
		h.fail(w, r, err)
	}
}

func (h *StreamHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := writeError(w, err)
	h.streamer.Metrics.Response(code, 0)
	logFailure(r, code, err)
}

// listenerID keys play dedup: the signed-in requester if any, else the session.
func listenerID(ctx context.Context, requesterID string) string {
	if requesterID != "" {
		return "user:" + requesterID
	}
	return "session:" + SessionFromContext(ctx)
}
