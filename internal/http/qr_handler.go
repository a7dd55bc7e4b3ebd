package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	qrcode "github.com/skip2/go-qrcode"
)

// QRHandler renders invite QR codes that link straight to a room's join
// page.
type QRHandler struct {
	baseURL   string
	responder responder
}

// NewQRHandler constructs a QR handler. baseURL is the externally reachable
// address of this server, e.g. "http://192.168.1.20:8080".
func NewQRHandler(baseURL string, logger *slog.Logger) *QRHandler {
	return &QRHandler{baseURL: strings.TrimRight(baseURL, "/"), responder: newResponder(defaultLogger(logger))}
}

func (h *QRHandler) Invite(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	roomID := strings.ToUpper(strings.TrimSpace(ps.ByName("id")))
	if roomID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}

	target := fmt.Sprintf("%s/rooms/%s/join", h.baseURL, roomID)
	png, err := qrcode.Encode(target, qrcode.Medium, 256)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
