package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	ticketdomain "github.com/valnet/valdesk-central/internal/ticket/domain"
)

type createTicketRequest struct {
	Subject       string         `json:"subject"`
	Description   string         `json:"description"`
	ReporterName  string         `json:"reporter_name"`
	ReporterEmail string         `json:"reporter_email"`
	Metadata      map[string]any `json:"metadata"`
}

// CreateTicket keeps the legacy contract external integrations rely on:
// a flat {"status":"ok"} on success and {"error": ...} on failure.
func (s *Server) CreateTicket(c *gin.Context) {
	var req createTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	_, err := s.ticketSvc.Create(c.Request.Context(), ticketdomain.CreateTicketRequest{
		Subject:       strings.TrimSpace(req.Subject),
		Description:   strings.TrimSpace(req.Description),
		ReporterName:  strings.TrimSpace(req.ReporterName),
		ReporterEmail: strings.TrimSpace(req.ReporterEmail),
		Metadata:      req.Metadata,
	})
	if err != nil {
		if isValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
