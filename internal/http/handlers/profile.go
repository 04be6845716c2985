package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DandaAkhilReddy/dailyscan-backend/internal/data/repos"
	types "github.com/DandaAkhilReddy/dailyscan-backend/internal/domain"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/http/middleware"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/http/response"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/dbctx"
)

type ProfileHandler struct {
	profiles repos.UserProfileRepo
}

func NewProfileHandler(profiles repos.UserProfileRepo) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// GET /api/profile
func (h *ProfileHandler) Get(c *gin.Context) {
	userID := middleware.RequestUserID(c)
	p, err := h.profiles.GetByUserID(dbctx.Context{Ctx: c.Request.Context()}, userID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "profile_lookup_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"profile": p})
}

// PUT /api/profile
func (h *ProfileHandler) Put(c *gin.Context) {
	userID := middleware.RequestUserID(c)

	var req struct {
		AgeYears int     `json:"age_years"`
		Gender   string  `json:"gender"`
		HeightIn float64 `json:"height_in"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_profile", err)
		return
	}

	p := &types.UserProfile{
		UserID:   userID,
		AgeYears: req.AgeYears,
		Gender:   req.Gender,
		HeightIn: req.HeightIn,
	}
	if err := h.profiles.Upsert(dbctx.Context{Ctx: c.Request.Context()}, p); err != nil {
		response.RespondError(c, http.StatusInternalServerError, "profile_save_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"profile": p})
}
