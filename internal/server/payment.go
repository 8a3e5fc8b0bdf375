package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	paymentdomain "github.com/valnet/valdesk-central/internal/payment/domain"
)

type applyPaymentRequest struct {
	InvoiceID     string          `json:"invoice_id"`
	CitizenID     string          `json:"citizen_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	UserID        string          `json:"user_id"`
}

func (s *Server) ApplyPayment(c *gin.Context) {
	var req applyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.paymentSvc.Apply(c.Request.Context(), paymentdomain.ApplyPaymentRequest{
		InvoiceID:     strings.TrimSpace(req.InvoiceID),
		CitizenID:     strings.TrimSpace(req.CitizenID),
		Amount:        req.Amount,
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
		UserID:        strings.TrimSpace(req.UserID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
