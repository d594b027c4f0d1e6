package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (s *Server) CreateInvoiceCheckout(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if _, err := uuid.Parse(id); err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}
	provider := strings.TrimSpace(c.Param("provider"))

	result, err := s.paymentSvc.CreateCheckout(c.Request.Context(), id, provider, baseURLFrom(c))
	if err != nil {
		s.recordGatewayError(c, provider, err)
		AbortWithError(c, err)
		return
	}

	s.obsMetrics.RecordCheckout(c.Request.Context(), provider, result.Free)
	c.JSON(http.StatusCreated, gin.H{"data": result})
}

func (s *Server) GetPaymentStatus(c *gin.Context) {
	provider := strings.TrimSpace(c.Param("provider"))
	paymentID := strings.TrimSpace(c.Param("paymentId"))
	if paymentID == "" {
		AbortWithError(c, newValidationError("payment_id", "invalid_payment_id", "invalid payment id"))
		return
	}

	payment, err := s.paymentSvc.SyncPayment(c.Request.Context(), provider, paymentID)
	if err != nil {
		s.recordGatewayError(c, provider, err)
		AbortWithError(c, err)
		return
	}
	if payment == nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": payment})
}

// GetLivePaymentStatus returns the provider's current view of a payment
// without touching the stored row.
func (s *Server) GetLivePaymentStatus(c *gin.Context) {
	provider := strings.TrimSpace(c.Param("provider"))
	paymentID := strings.TrimSpace(c.Param("paymentId"))
	if paymentID == "" {
		AbortWithError(c, newValidationError("payment_id", "invalid_payment_id", "invalid payment id"))
		return
	}

	status, err := s.paymentSvc.FetchStatus(c.Request.Context(), provider, paymentID)
	if err != nil {
		s.recordGatewayError(c, provider, err)
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": status})
}

// HandlePaymentWebhook re-syncs the referenced payment from the provider.
// The notification body is only used to learn which payment changed; the
// authoritative status is always fetched from the provider API.
func (s *Server) HandlePaymentWebhook(c *gin.Context) {
	provider := strings.TrimSpace(c.Param("provider"))

	paymentID := webhookPaymentID(c)
	if paymentID == "" {
		AbortWithError(c, newValidationError("id", "invalid_id", "missing payment id"))
		return
	}

	payment, err := s.paymentSvc.SyncPayment(c.Request.Context(), provider, paymentID)
	if err != nil {
		s.recordGatewayError(c, provider, err)
		AbortWithError(c, err)
		return
	}

	if payment != nil {
		s.obsMetrics.RecordPaymentEvent(c.Request.Context(), provider, payment.Status)
	}
	// Unmatched notifications are acknowledged so the provider stops
	// retrying them.
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// webhookPaymentID extracts the provider payment id from a notification.
// Mollie posts form-encoded "id" fields, SumUp sends JSON; a query
// parameter works for both as a manual fallback.
func webhookPaymentID(c *gin.Context) string {
	if id := strings.TrimSpace(c.Query("id")); id != "" {
		return id
	}

	contentType := strings.ToLower(c.ContentType())
	if strings.Contains(contentType, "json") {
		var body struct {
			ID         string `json:"id"`
			CheckoutID string `json:"checkout_id"`
		}
		if err := json.NewDecoder(c.Request.Body).Decode(&body); err == nil {
			if id := strings.TrimSpace(body.ID); id != "" {
				return id
			}
			return strings.TrimSpace(body.CheckoutID)
		}
		return ""
	}

	return strings.TrimSpace(c.PostForm("id"))
}

func (s *Server) recordGatewayError(c *gin.Context, provider string, err error) {
	if gatewayErr := asGatewayError(err); gatewayErr != nil {
		s.obsMetrics.RecordGatewayError(c.Request.Context(), provider, string(gatewayErr.Kind))
	}
}

// baseURLFrom rebuilds the externally visible base URL of this request for
// provider redirect and webhook targets.
func baseURLFrom(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if forwarded := strings.TrimSpace(c.GetHeader("X-Forwarded-Proto")); forwarded != "" {
		scheme = forwarded
	}
	host := strings.TrimSpace(c.GetHeader("X-Forwarded-Host"))
	if host == "" {
		host = c.Request.Host
	}
	if host == "" {
		return ""
	}
	return scheme + "://" + host
}
