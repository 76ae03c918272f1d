package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"virtual-fit-backend/internal/models"
	"virtual-fit-backend/internal/scan"
)

type ScansHandler struct {
	scans *scan.Service
}

func NewScansHandler(scans *scan.Service) *ScansHandler {
	return &ScansHandler{
		scans: scans,
	}
}

// StartScan godoc
// @Summary     Start a body scan
// @Description Creates a scan session from capture images and starts the avatar generation pipeline
// @Tags        scans
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.StartScanRequest true "Capture images and preferences"
// @Success     202 {object} models.APIResponse{data=models.ScanSession}
// @Failure     400 {object} models.APIError
// @Failure     401 {object} models.APIError
// @Router      /scans [post]
func (h *ScansHandler) StartScan(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req models.StartScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	session, err := h.scans.Start(c.Request.Context(), uid, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusAccepted, session, "Scan started")
}

// GetScanStatus godoc
// @Summary     Poll scan status
// @Description Returns the lifecycle view of a scan session
// @Tags        scans
// @Produce     json
// @Security    Bearer
// @Param       scan_id path string true "Scan session ID"
// @Success     200 {object} models.APIResponse{data=models.ScanStatusResponse}
// @Failure     403 {object} models.APIError
// @Failure     404 {object} models.APIError
// @Router      /scans/{scan_id}/status [get]
func (h *ScansHandler) GetScanStatus(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	session, err := h.scans.GetStatus(c.Request.Context(), uid, c.Param("scan_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, models.ScanStatusView(session))
}

// GetScanResult godoc
// @Summary     Fetch scan result
// @Description Returns the materialized avatar once the scan completes; 202 with progress while it is still running
// @Tags        scans
// @Produce     json
// @Security    Bearer
// @Param       scan_id path string true "Scan session ID"
// @Success     200 {object} models.APIResponse{data=models.Avatar}
// @Success     202 {object} models.APIResponse{data=models.ScanStatusResponse}
// @Failure     400 {object} models.APIError
// @Failure     404 {object} models.APIError
// @Failure     500 {object} models.APIError
// @Router      /scans/{scan_id}/result [get]
func (h *ScansHandler) GetScanResult(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	result, err := h.scans.GetResult(c.Request.Context(), uid, c.Param("scan_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if result.Processing {
		respondMessage(c, http.StatusAccepted, models.ScanStatusView(result.Session), "Scan still processing")
		return
	}
	respondData(c, http.StatusOK, result.Avatar)
}

// CancelScan godoc
// @Summary     Cancel a scan
// @Description Cancels a pending or processing scan session
// @Tags        scans
// @Produce     json
// @Security    Bearer
// @Param       scan_id path string true "Scan session ID"
// @Success     200 {object} models.APIResponse{data=models.ScanStatusResponse}
// @Failure     400 {object} models.APIError
// @Failure     404 {object} models.APIError
// @Router      /scans/{scan_id}/cancel [post]
func (h *ScansHandler) CancelScan(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	session, err := h.scans.Cancel(c.Request.Context(), uid, c.Param("scan_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, models.ScanStatusView(session), "Scan cancelled")
}
