package controller

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	domainErrors "inventory-tracker/internal/domain/errors"
	"inventory-tracker/internal/usecase"
)

type ItemHandler struct {
	itemUsecase usecase.ItemUsecase
	// autoNotify is the user's preference; the core never reads it.
	autoNotify atomic.Bool
}

func NewItemHandler(itemUsecase usecase.ItemUsecase, autoNotify bool) *ItemHandler {
	h := &ItemHandler{
		itemUsecase: itemUsecase,
	}
	h.autoNotify.Store(autoNotify)
	return h
}

// エラーレスポンスの形式
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

type FileRequest struct {
	Path   string `json:"path"`
	Header bool   `json:"header"`
}

type Settings struct {
	AutoNotify bool `json:"auto_notify"`
}

type NotificationSettingsRequest struct {
	Enabled *bool `json:"enabled"`
}

func (h *ItemHandler) GetItems(c echo.Context) error {
	filter := usecase.ListFilter{
		Query:    c.QueryParam("q"),
		Category: c.QueryParam("category"),
	}

	items, err := h.itemUsecase.ListItems(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, err, "failed to retrieve items")
	}

	return c.JSON(http.StatusOK, items)
}

func (h *ItemHandler) GetItem(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid item ID",
		})
	}

	item, err := h.itemUsecase.GetItem(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "failed to retrieve item")
	}

	return c.JSON(http.StatusOK, item)
}

func (h *ItemHandler) CreateItem(c echo.Context) error {
	var input usecase.CreateItemInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request format",
		})
	}

	if validationErrors := validateCreateItemInput(input); len(validationErrors) > 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation failed",
			Details: validationErrors,
		})
	}

	item, err := h.itemUsecase.CreateItem(c.Request().Context(), input)
	if err != nil {
		return respondError(c, err, "failed to create item")
	}

	h.afterChange(c)
	return c.JSON(http.StatusCreated, item)
}

// UpdateItem edits the selected item in place (PATCH /items/:id).
// Only fields present in the body change.
func (h *ItemHandler) UpdateItem(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid item ID",
		})
	}

	var input usecase.UpdateItemInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request format",
		})
	}

	item, err := h.itemUsecase.UpdateItem(c.Request().Context(), id, input)
	if err != nil {
		return respondError(c, err, "failed to update item")
	}

	h.afterChange(c)
	return c.JSON(http.StatusOK, item)
}

func (h *ItemHandler) DeleteItem(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid item ID",
		})
	}

	if err := h.itemUsecase.DeleteItem(c.Request().Context(), id); err != nil {
		return respondError(c, err, "failed to delete item")
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *ItemHandler) GetExpiringItems(c echo.Context) error {
	items, err := h.itemUsecase.GetExpiringItems(c.Request().Context())
	if err != nil {
		return respondError(c, err, "failed to retrieve expiring items")
	}

	return c.JSON(http.StatusOK, items)
}

func (h *ItemHandler) GetExpiredItems(c echo.Context) error {
	items, err := h.itemUsecase.GetExpiredItems(c.Request().Context())
	if err != nil {
		return respondError(c, err, "failed to retrieve expired items")
	}

	return c.JSON(http.StatusOK, items)
}

func (h *ItemHandler) GetSummary(c echo.Context) error {
	dashboard, err := h.itemUsecase.GetDashboard(c.Request().Context())
	if err != nil {
		return respondError(c, err, "failed to retrieve summary")
	}

	return c.JSON(http.StatusOK, dashboard)
}

func (h *ItemHandler) GetReport(c echo.Context) error {
	var buf bytes.Buffer
	if err := h.itemUsecase.ExportReport(c.Request().Context(), &buf); err != nil {
		return respondError(c, err, "failed to build report")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="inventory-report.pdf"`)
	return c.Blob(http.StatusOK, "application/pdf", buf.Bytes())
}

func (h *ItemHandler) ImportCSV(c echo.Context) error {
	var req FileRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Path) == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "path is required",
		})
	}

	result, err := h.itemUsecase.ImportCSV(c.Request().Context(), req.Path)
	if err != nil {
		if result == nil || result.Added == 0 {
			return respondError(c, err, "failed to import CSV")
		}
		// rows read before the failure are kept
		h.afterChange(c)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "failed to import CSV",
			Details: []string{
				err.Error(),
				fmt.Sprintf("%d items were added before the failure", result.Added),
			},
		})
	}

	h.afterChange(c)
	return c.JSON(http.StatusOK, result)
}

func (h *ItemHandler) ExportCSV(c echo.Context) error {
	var req FileRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Path) == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "path is required",
		})
	}

	if err := h.itemUsecase.ExportCSV(c.Request().Context(), req.Path, usecase.ExportOptions{Header: req.Header}); err != nil {
		return respondError(c, err, "failed to export CSV")
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *ItemHandler) CheckExpiring(c echo.Context) error {
	alert, err := h.itemUsecase.CheckExpiring(c.Request().Context())
	if err != nil {
		return respondError(c, err, "failed to check expiring items")
	}

	return c.JSON(http.StatusOK, alert)
}

func (h *ItemHandler) GetSettings(c echo.Context) error {
	return c.JSON(http.StatusOK, Settings{AutoNotify: h.autoNotify.Load()})
}

func (h *ItemHandler) UpdateNotificationSettings(c echo.Context) error {
	var req NotificationSettingsRequest
	if err := c.Bind(&req); err != nil || req.Enabled == nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "enabled is required",
		})
	}

	h.autoNotify.Store(*req.Enabled)
	return c.JSON(http.StatusOK, Settings{AutoNotify: *req.Enabled})
}

// afterChange runs the expiry check after add, edit and import when the user enabled it.
func (h *ItemHandler) afterChange(c echo.Context) {
	if !h.autoNotify.Load() {
		return
	}
	if _, err := h.itemUsecase.CheckExpiring(context.WithoutCancel(c.Request().Context())); err != nil {
		c.Logger().Warnf("expiry check failed: %v", err)
	}
}

func parseID(c echo.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}

func respondError(c echo.Context, err error, fallback string) error {
	switch {
	case domainErrors.IsNotFoundError(err):
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "item not found",
		})
	case domainErrors.IsValidationError(err):
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation failed",
			Details: []string{err.Error()},
		})
	case domainErrors.IsFileError(err):
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   fallback,
			Details: []string{err.Error()},
		})
	}
	c.Logger().Errorf("%s: %v", fallback, err)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error: fallback,
	})
}

func validateCreateItemInput(input usecase.CreateItemInput) []string {
	var errs []string

	if strings.TrimSpace(input.Quantity) == "" {
		errs = append(errs, "quantity is required")
	}
	if strings.TrimSpace(input.ExpiryDate) == "" {
		errs = append(errs, "expiry_date is required")
	}

	return errs
}
