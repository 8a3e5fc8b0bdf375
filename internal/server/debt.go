package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/valnet/valdesk-central/internal/debt"
)

func (s *Server) GetCitizenDebt(c *gin.Context) {
	citizenID := strings.TrimSpace(c.Param("id"))
	resp, err := s.debtSvc.GetDebt(c.Request.Context(), debt.GetDebtRequest{
		CitizenID: citizenID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
