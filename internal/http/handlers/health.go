package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/DandaAkhilReddy/dailyscan-backend/internal/http/response"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	response.RespondOK(c, gin.H{"status": "ok"})
}
