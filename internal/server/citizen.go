package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	citizendomain "github.com/valnet/valdesk-central/internal/citizen/domain"
	"github.com/valnet/valdesk-central/pkg/db/pagination"
)

type createCitizenRequest struct {
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Cedula    string   `json:"cedula"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	Address   string   `json:"address"`
	City      string   `json:"city"`
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
}

func (s *Server) CreateCitizen(c *gin.Context) {
	var req createCitizenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.citizenSvc.Create(c.Request.Context(), citizendomain.CreateCitizenRequest{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Cedula:    strings.TrimSpace(req.Cedula),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		Address:   strings.TrimSpace(req.Address),
		City:      strings.TrimSpace(req.City),
		Lat:       req.Lat,
		Lng:       req.Lng,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCitizens(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Name     string `form:"name"`
		Cedula   string `form:"cedula"`
		City     string `form:"city"`
		IsDebtor *bool  `form:"is_debtor"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.citizenSvc.List(c.Request.Context(), citizendomain.ListCitizenRequest{
		PageToken: query.PageToken,
		PageSize:  int32(query.PageSize),
		Name:      strings.TrimSpace(query.Name),
		Cedula:    strings.TrimSpace(query.Cedula),
		City:      strings.TrimSpace(query.City),
		IsDebtor:  query.IsDebtor,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCitizenByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.citizenSvc.GetByID(c.Request.Context(), citizendomain.GetCitizenRequest{
		ID: id,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RecalculateCitizenDebt(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.citizenSvc.RecalculateDebt(c.Request.Context(), citizendomain.RecalculateDebtRequest{
		ID: id,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
