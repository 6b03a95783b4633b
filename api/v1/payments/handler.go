package payments

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go_domainbot/internal/logging"
	"go_domainbot/internal/payment/blockbee"
	"go_domainbot/internal/registration"
	"go_domainbot/internal/wallet"
)

// ackBody is the body BlockBee expects to stop retrying a callback
const ackBody = "*ok*"

// Handler receives BlockBee payment callbacks
type Handler struct {
	wallet       *wallet.Service
	registration *registration.Service
	logger       *logrus.Entry
}

// NewHandler creates a callback handler
func NewHandler(w *wallet.Service, reg *registration.Service, logger *logrus.Entry) *Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handler{wallet: w, registration: reg, logger: logger.WithField("component", "payments")}
}

// BlockBee settles a deposit or an order. The ref parameter is either a
// deposit reference or an order id.
// GET /api/v1/payments/blockbee
func (h *Handler) BlockBee(c *gin.Context) {
	cb, err := blockbee.ParseCallback(c.Request.URL.Query())
	if err != nil {
		h.logger.WithError(err).Warn("malformed payment callback")
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	log := h.logger.WithFields(logrus.Fields{"ref": cb.Reference, "txid": cb.TxIDIn, "pending": cb.Pending})
	ctx := c.Request.Context()

	_, err = h.wallet.HandleCallback(ctx, cb)
	if errors.Is(err, wallet.ErrUnknownReference) {
		_, err = h.registration.HandleOrderPayment(ctx, cb)
		if errors.Is(err, registration.ErrUnknownOrder) {
			log.Warn("callback for unknown reference")
			c.String(http.StatusNotFound, "unknown reference")
			return
		}
	}
	if errors.Is(err, blockbee.ErrAddressMismatch) {
		log.WithField("address_in", cb.AddressIn).Warn("callback for foreign address")
		c.String(http.StatusBadRequest, "address mismatch")
		return
	}
	if err != nil {
		// non-2xx makes BlockBee retry
		log.WithError(err).Error("payment callback failed")
		c.String(http.StatusInternalServerError, "error")
		return
	}
	c.String(http.StatusOK, ackBody)
}
