package handler

import (
	"log/slog"
	"net/http"

	"sellercloud-proxy/internal/sellercloud"
)

// handleSOAPAuthenticate relays a SOAP Authenticate envelope.
// POST /authenticate
func (h *Handler) handleSOAPAuthenticate(w http.ResponseWriter, r *http.Request) {
	h.relaySOAP(w, r, sellercloud.ActionAuthenticate)
}

// handleSOAPGetProduct relays a SOAP GetProductDetailsBySerial envelope.
// POST /get-product
func (h *Handler) handleSOAPGetProduct(w http.ResponseWriter, r *http.Request) {
	h.relaySOAP(w, r, sellercloud.ActionGetProductDetailsBySerial)
}

const soapContentType = "text/xml; charset=utf-8"

func (h *Handler) relaySOAP(w http.ResponseWriter, r *http.Request, action string) {
	ctx := r.Context()

	envelope, err := readBody(w, r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "relaying soap request",
		slog.String("action", action),
		slog.Int("bytes", len(envelope)),
	)

	resp, err := h.adapter.SOAP(ctx, action, envelope)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeRaw(w, resp, soapContentType)
}
