package adaptor

import (
	"errors"
	"io"
	"net/http"

	"car-share/internal/usecase"
	"car-share/pkg/utils"

	"go.uber.org/zap"
)

// maxWebhookBody caps the payload read from the payment platform.
const maxWebhookBody = 64 << 10

type WebhookHandler struct {
	service usecase.WebhookService
	log     *zap.Logger
}

func NewWebhookHandler(service usecase.WebhookService, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		log:     log.With(zap.String("handler", "webhook")),
	}
}

// HandleWebhook handles POST /webhook. The raw body is needed for signature verification,
// so it is read before anything decodes it. Any non-2xx answer makes the platform redeliver.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.ResponseJSON(w, http.StatusRequestEntityTooLarge, false, "Payload too large", nil, nil)
			return
		}
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := h.service.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		handleServiceError(w, h.log, err, "handle webhook")
		return
	}

	utils.ResponseSuccess(w, "received", nil)
}
