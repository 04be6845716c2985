package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	scandom "github.com/DandaAkhilReddy/dailyscan-backend/internal/domain/scan"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/http/middleware"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/http/response"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/apperr"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/dbctx"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/pkg/logger"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/scan/trend"
	"github.com/DandaAkhilReddy/dailyscan-backend/internal/services"
)

// Multipart photo uploads are capped well above typical phone JPEGs.
const maxPhotoBytes = 20 << 20

type ScanHandler struct {
	log   *logger.Logger
	scans services.ScanService
	trend *trend.Query
}

func NewScanHandler(baseLog *logger.Logger, scans services.ScanService, trendQuery *trend.Query) *ScanHandler {
	return &ScanHandler{
		log:   baseLog.With("handler", "ScanHandler"),
		scans: scans,
		trend: trendQuery,
	}
}

// POST /api/scans  (multipart: weight_lb, date?, notes?, front, back, left, right)
func (h *ScanHandler) Submit(c *gin.Context) {
	userID := middleware.RequestUserID(c)
	dbc := dbctx.Context{Ctx: c.Request.Context()}

	weightLb, err := strconv.ParseFloat(strings.TrimSpace(c.PostForm("weight_lb")), 64)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_weight", fmt.Errorf("weight_lb must be a number"))
		return
	}
	date := strings.TrimSpace(c.PostForm("date"))
	if date == "" {
		date = time.Now().UTC().Format(scandom.DateLayout)
	}

	photos := make(map[string]io.Reader, len(scandom.Angles))
	var closers []io.Closer
	defer func() {
		for _, cl := range closers {
			_ = cl.Close()
		}
	}()
	for _, angle := range scandom.Angles {
		fh, ferr := c.FormFile(angle)
		if ferr != nil {
			continue // validation in the service reports the missing angle
		}
		if fh.Size > maxPhotoBytes {
			response.RespondError(c, http.StatusBadRequest, "photo_too_large", fmt.Errorf("%s photo exceeds %d bytes", angle, maxPhotoBytes))
			return
		}
		f, oerr := fh.Open()
		if oerr != nil {
			response.RespondError(c, http.StatusBadRequest, "bad_photo", fmt.Errorf("open %s photo: %w", angle, oerr))
			return
		}
		closers = append(closers, f)
		photos[angle] = f
	}

	alreadyScanned, err := h.scans.HasScannedToday(dbc, userID, date)
	if err != nil {
		if apperr.IsValidation(err) {
			response.RespondError(c, http.StatusBadRequest, "invalid_date", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "scan_lookup_failed", err)
		return
	}

	rec, job, err := h.scans.SubmitScan(dbc, services.SubmitScanInput{
		UserID:   userID,
		Date:     date,
		WeightLb: weightLb,
		Notes:    strings.TrimSpace(c.PostForm("notes")),
		Photos:   photos,
	})
	if err != nil {
		if apperr.IsValidation(err) {
			response.RespondError(c, http.StatusBadRequest, "invalid_scan", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "submit_failed", err)
		return
	}

	response.RespondAccepted(c, gin.H{
		"scan":            rec,
		"job":             job,
		"already_scanned": alreadyScanned,
	})
}

// GET /api/scans/:id
func (h *ScanHandler) Get(c *gin.Context) {
	userID := middleware.RequestUserID(c)
	dbc := dbctx.Context{Ctx: c.Request.Context()}

	rec, err := h.scans.GetScan(dbc, userID, c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "scan_lookup_failed", err)
		return
	}
	if rec == nil {
		response.RespondError(c, http.StatusNotFound, "scan_not_found", fmt.Errorf("scan not found"))
		return
	}
	response.RespondOK(c, gin.H{"scan": rec})
}

// GET /api/scans?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *ScanHandler) List(c *gin.Context) {
	userID := middleware.RequestUserID(c)
	dbc := dbctx.Context{Ctx: c.Request.Context()}

	rows, err := h.scans.ListScans(dbc, userID, strings.TrimSpace(c.Query("from")), strings.TrimSpace(c.Query("to")))
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "scan_query_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"scans": rows})
}

// GET /api/scans/today?date=YYYY-MM-DD
func (h *ScanHandler) Today(c *gin.Context) {
	userID := middleware.RequestUserID(c)
	dbc := dbctx.Context{Ctx: c.Request.Context()}

	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		date = time.Now().UTC().Format(scandom.DateLayout)
	}
	has, err := h.scans.HasScannedToday(dbc, userID, date)
	if err != nil {
		if apperr.IsValidation(err) {
			response.RespondError(c, http.StatusBadRequest, "invalid_date", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "scan_lookup_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"date": date, "has_scanned": has})
}

// DELETE /api/scans/:id
func (h *ScanHandler) Delete(c *gin.Context) {
	userID := middleware.RequestUserID(c)
	dbc := dbctx.Context{Ctx: c.Request.Context()}

	if err := h.scans.DeleteScan(dbc, userID, c.Param("id")); err != nil {
		if apperr.IsValidation(err) {
			response.RespondError(c, http.StatusNotFound, "scan_not_found", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": true})
}

// GET /api/streak?date=YYYY-MM-DD
func (h *ScanHandler) Streak(c *gin.Context) {
	userID := middleware.RequestUserID(c)
	dbc := dbctx.Context{Ctx: c.Request.Context()}

	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		date = time.Now().UTC().Format(scandom.DateLayout)
	}
	st, err := h.scans.GetStreak(dbc, userID, date)
	if err != nil {
		if apperr.IsValidation(err) {
			response.RespondError(c, http.StatusBadRequest, "invalid_date", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "streak_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"streak": st})
}

// GET /api/trend?period_days=14&end=YYYY-MM-DD&tz_offset_minutes=-300
func (h *ScanHandler) Trend(c *gin.Context) {
	userID := middleware.RequestUserID(c)
	dbc := dbctx.Context{Ctx: c.Request.Context()}

	periodDays := 14
	if raw := strings.TrimSpace(c.Query("period_days")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 365 {
			response.RespondError(c, http.StatusBadRequest, "invalid_period", fmt.Errorf("period_days must be 1-365"))
			return
		}
		periodDays = n
	}
	end := strings.TrimSpace(c.Query("end"))
	if end == "" {
		// Default the window end to "today" in the caller's timezone.
		offsetMinutes := 0
		if raw := strings.TrimSpace(c.Query("tz_offset_minutes")); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < -840 || n > 840 {
				response.RespondError(c, http.StatusBadRequest, "invalid_tz_offset", fmt.Errorf("tz_offset_minutes must be -840 to 840"))
				return
			}
			offsetMinutes = n
		}
		end = time.Now().UTC().Add(time.Duration(offsetMinutes) * time.Minute).Format(scandom.DateLayout)
	}

	series, err := h.trend.GetTrend(dbc, userID, periodDays, end)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "trend_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"trend": series})
}
