package server

import (
	"net/http"

	"gatedfm/core/analytics"
	"gatedfm/core/auth"
	"gatedfm/core/errs"
	"gatedfm/core/locator"
	"gatedfm/core/objectcache"
	"gatedfm/logger"

	"github.com/gorilla/mux"
)

// APIHandler serves the JSON endpoints next to the stream route.
type APIHandler struct {
	catalog     locator.ContentHost
	recorder    *analytics.Recorder
	cache       *objectcache.Cache
	auth        *auth.Codec
	storageName string
}

func NewAPIHandler(catalog locator.ContentHost, recorder *analytics.Recorder, cache *objectcache.Cache, codec *auth.Codec, storageName string) *APIHandler {
	return &APIHandler{catalog: catalog, recorder: recorder, cache: cache, auth: codec, storageName: storageName}
}

// PlaysHandler returns aggregate play counts for a product.
func (h *APIHandler) PlaysHandler(w http.ResponseWriter, r *http.Request) {
	productID := mux.Vars(r)["productId"]
	if _, err := h.catalog.GetProduct(r.Context(), productID); err != nil {
		code := writeError(w, err)
		logFailure(r, code, err)
		return
	}
	counts, err := h.recorder.Counts(r.Context(), productID)
	if err != nil {
		logger.Error("failed to read play counts",
			logger.String("productId", productID),
			logger.ErrorField(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "play counts unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// CacheHandler returns the object cache snapshot. Administrators only.
func (h *APIHandler) CacheHandler(w http.ResponseWriter, r *http.Request) {
	requester, err := h.auth.Requester(r)
	if err == nil && requester.ID == "" {
		err = errs.ErrUnauthorized
	} else if err == nil && !requester.Admin {
		err = errs.ErrForbidden
	}
	if err != nil {
		code := writeError(w, err)
		logFailure(r, code, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cache.Snapshot())
}

// HealthHandler reports liveness and which object storage backend is active.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"storage": h.storageName,
	})
}
