package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	serviceassignmentdomain "github.com/valnet/valdesk-central/internal/serviceassignment/domain"
)

type createServiceAssignmentRequest struct {
	CitizenID            string          `json:"citizen_id"`
	ServiceName          string          `json:"service_name"`
	MonthlyPaymentAmount decimal.Decimal `json:"monthly_payment_amount"`
	PaymentDay           int             `json:"payment_day"`
	PaymentNumbers       int             `json:"payment_numbers"`
	StartDate            string          `json:"start_date"`
}

func (s *Server) CreateServiceAssignment(c *gin.Context) {
	var req createServiceAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	startDate, err := parseOptionalTime(req.StartDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("start_date", "invalid_start_date", "invalid start_date"))
		return
	}
	var start time.Time
	if startDate != nil {
		start = *startDate
	}

	resp, err := s.assignmentSvc.Create(c.Request.Context(), serviceassignmentdomain.CreateAssignmentRequest{
		CitizenID:            strings.TrimSpace(req.CitizenID),
		ServiceName:          strings.TrimSpace(req.ServiceName),
		MonthlyPaymentAmount: req.MonthlyPaymentAmount,
		PaymentDay:           req.PaymentDay,
		PaymentNumbers:       req.PaymentNumbers,
		StartDate:            start,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetServiceAssignmentByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.assignmentSvc.GetByID(c.Request.Context(), serviceassignmentdomain.GetAssignmentRequest{
		ID: id,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCitizenAssignments(c *gin.Context) {
	citizenID := strings.TrimSpace(c.Param("id"))
	resp, err := s.assignmentSvc.ListByCitizen(c.Request.Context(), serviceassignmentdomain.ListAssignmentRequest{
		CitizenID: citizenID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateServiceAssignmentStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) UpdateServiceAssignmentStatus(c *gin.Context) {
	var req updateServiceAssignmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.assignmentSvc.UpdateStatus(c.Request.Context(), serviceassignmentdomain.UpdateAssignmentStatusRequest{
		ID:     strings.TrimSpace(c.Param("id")),
		Status: strings.TrimSpace(req.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
