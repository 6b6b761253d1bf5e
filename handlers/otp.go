package handlers

import (
	"context"
	"errors"
	"net/http"

	"taskmaster/models"
	"taskmaster/services/otp"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SheetService is the OTP completion flow as used over HTTP.
type SheetService interface {
	Get(ctx context.Context, id string) (*models.OTPSheet, error)
	SetOTP(ctx context.Context, id, code string) (*models.OTPSheet, error)
	Submit(ctx context.Context, id string) (*models.OTPSheet, error)
	Close(ctx context.Context, id string) error
}

type OTPHandler struct {
	Sheets SheetService
	Logger *zap.Logger
}

func NewOTPHandler(sheets SheetService, logger *zap.Logger) *OTPHandler {
	return &OTPHandler{Sheets: sheets, Logger: logger}
}

// GetSheet handles GET /api/otp/:sheetId.
func (h *OTPHandler) GetSheet(c *gin.Context) {
	sheet, err := h.Sheets.Get(c.Request.Context(), c.Param("sheetId"))
	if err != nil {
		h.sheetError(c, "GetSheet", err)
		return
	}
	c.JSON(http.StatusOK, sheet)
}

// UpdateSheet handles PUT /api/otp/:sheetId with {"otp": "..."}.
func (h *OTPHandler) UpdateSheet(c *gin.Context) {
	var body struct {
		OTP string `json:"otp"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "message": err.Error()})
		return
	}
	sheet, err := h.Sheets.SetOTP(c.Request.Context(), c.Param("sheetId"), body.OTP)
	if err != nil {
		h.sheetError(c, "UpdateSheet", err)
		return
	}
	c.JSON(http.StatusOK, sheet)
}

// SubmitSheet handles POST /api/otp/:sheetId/submit. A rejected OTP is a 200
// with the sheet in the error state; the sheet carries the message to show.
func (h *OTPHandler) SubmitSheet(c *gin.Context) {
	sheet, err := h.Sheets.Submit(c.Request.Context(), c.Param("sheetId"))
	if err != nil {
		h.sheetError(c, "SubmitSheet", err)
		return
	}
	c.JSON(http.StatusOK, sheet)
}

// CloseSheet handles DELETE /api/otp/:sheetId.
func (h *OTPHandler) CloseSheet(c *gin.Context) {
	if err := h.Sheets.Close(c.Request.Context(), c.Param("sheetId")); err != nil {
		h.sheetError(c, "CloseSheet", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *OTPHandler) sheetError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, otp.ErrSheetNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "sheet not found", "message": err.Error()})
	case errors.Is(err, otp.ErrEmptyOTP):
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing otp", "message": err.Error()})
	case errors.Is(err, otp.ErrSubmitting):
		c.JSON(http.StatusConflict, gin.H{"error": "verification in progress", "message": err.Error()})
	default:
		getLogger(c, h.Logger).Error(op+": sheet operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sheet operation failed", "message": err.Error()})
	}
}
