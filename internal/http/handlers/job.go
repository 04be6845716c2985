package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/DandaAkhilReddy/dailyscan-backend/internal/http/middleware"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/http/response"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/dbctx"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/services"
)

type JobHandler struct {
	jobs services.JobService
}

func NewJobHandler(jobs services.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// GET /api/jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	userID := middleware.RequestUserID(c)
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	job, err := h.jobs.GetByIDForUser(dbctx.Context{Ctx: c.Request.Context()}, userID, jobID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "job_lookup_failed", err)
		return
	}
	if job == nil {
		response.RespondError(c, http.StatusNotFound, "job_not_found", fmt.Errorf("job not found"))
		return
	}
	response.RespondOK(c, gin.H{"job": job})
}

// GET /api/scans/:id/job
func (h *JobHandler) GetScanJob(c *gin.Context) {
	userID := middleware.RequestUserID(c)
	job, err := h.jobs.GetLatestForScan(dbctx.Context{Ctx: c.Request.Context()}, userID, c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "job_lookup_failed", err)
		return
	}
	if job == nil {
		response.RespondError(c, http.StatusNotFound, "job_not_found", fmt.Errorf("no job for scan"))
		return
	}
	response.RespondOK(c, gin.H{"job": job})
}
