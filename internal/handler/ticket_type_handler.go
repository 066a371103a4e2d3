package handler

import (
	"net/http"

	"kiosk-inventory/internal/model"
	"kiosk-inventory/internal/service"
	apperrors "kiosk-inventory/pkg/app_errors"
	"kiosk-inventory/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TicketTypeHandler struct {
	service service.InventoryService
}

func NewTicketTypeHandler(service service.InventoryService) *TicketTypeHandler {
	return &TicketTypeHandler{service: service}
}

func (h *TicketTypeHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.GET("ticket-types", h.List)
		router.GET("ticket-types/:id", h.GetByID)
		router.GET("ticket-types/code/:code", h.GetByCode)
		router.POST("ticket-types", h.Create)
		router.PATCH("ticket-types/:id", h.UpdateGlobal)
		router.DELETE("ticket-types/:id", h.DeleteCatalogEntry)

		router.PUT("ticket-types/:id/kiosks/:kioskId/stock", h.UpdateKioskStock)
		router.POST("ticket-types/:id/kiosks/:kioskId/transfer", h.TransferVaultToCounter)
		router.POST("ticket-types/:id/kiosks/:kioskId/packages", h.AddPackages)
		router.PUT("ticket-types/:id/kiosks/:kioskId/opened", h.SetOpened)
		router.DELETE("ticket-types/:id/kiosks/:kioskId", h.RemoveKioskInventory)
	}
}

type CreateTicketTypeRequest struct {
	Name                 string  `json:"name" binding:"required"`
	Nickname             string  `json:"nickname"`
	Price                float64 `json:"price" binding:"required"`
	Code                 string  `json:"code"`
	MinThreshold         int     `json:"min_threshold"`
	DefaultQtyPerPackage *int    `json:"default_quantity_per_package"`
	TicketCategory       string  `json:"ticket_category"`
	Color                string  `json:"color"`
	ImageURL             string  `json:"image_url"`
	KioskID              string  `json:"kiosk_id"`
	Counter              int     `json:"counter"`
	Vault                int     `json:"vault"`
}

type UpdateTicketTypeRequest struct {
	Name                 *string `json:"name"`
	Nickname             *string `json:"nickname"`
	MinThreshold         *int    `json:"min_threshold"`
	DefaultQtyPerPackage *int    `json:"default_quantity_per_package"`
	IsActive             *bool   `json:"is_active"`
	TicketCategory       *string `json:"ticket_category"`
	Color                *string `json:"color"`
	ImageURL             *string `json:"image_url"`
}

type UpdateKioskStockRequest struct {
	Counter *int `json:"counter"`
	Vault   *int `json:"vault"`
}

type TransferRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

type AddPackagesRequest struct {
	Destination  string `json:"destination" binding:"required"`
	PackageCount int    `json:"package_count" binding:"required"`
}

type SetOpenedRequest struct {
	IsOpened *bool `json:"is_opened" binding:"required"`
}

func (h *TicketTypeHandler) List(c *gin.Context) {
	kioskID := c.Query("kiosk_id")
	if kioskID == "" {
		ticketTypes, err := h.service.List(c)
		if err != nil {
			h.handleError(c, err, "List")
			return
		}
		c.JSON(http.StatusOK, ticketTypes)
		return
	}

	activeOnly := c.Query("active_only") == "true"
	views, err := h.service.ListByKiosk(c, kioskID, activeOnly)
	if err != nil {
		h.handleError(c, err, "ListByKiosk")
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *TicketTypeHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	view, err := h.service.GetByID(c, id, c.Query("kiosk_id"))
	if err != nil {
		h.handleError(c, err, "GetByID")
		return
	}
	if view == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ticket type not found"})
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *TicketTypeHandler) GetByCode(c *gin.Context) {
	view, err := h.service.GetByCode(c, c.Param("code"), c.Query("kiosk_id"))
	if err != nil {
		h.handleError(c, err, "GetByCode")
		return
	}
	if view == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ticket type not found"})
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *TicketTypeHandler) Create(c *gin.Context) {
	var req CreateTicketTypeRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	view, err := h.service.Create(c, ActorFromHeaders(c), model.CreateTicketTypeParams{
		Name:                 req.Name,
		Nickname:             req.Nickname,
		Price:                req.Price,
		Code:                 req.Code,
		MinThreshold:         req.MinThreshold,
		DefaultQtyPerPackage: req.DefaultQtyPerPackage,
		TicketCategory:       model.TicketCategory(req.TicketCategory),
		Color:                req.Color,
		ImageURL:             req.ImageURL,
		SeedKioskID:          req.KioskID,
		SeedCounter:          req.Counter,
		SeedVault:            req.Vault,
	})
	if err != nil {
		h.handleError(c, err, "Create")
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *TicketTypeHandler) UpdateGlobal(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req UpdateTicketTypeRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	params := model.UpdateTicketTypeParams{
		Name:                 req.Name,
		Nickname:             req.Nickname,
		MinThreshold:         req.MinThreshold,
		DefaultQtyPerPackage: req.DefaultQtyPerPackage,
		IsActive:             req.IsActive,
		Color:                req.Color,
		ImageURL:             req.ImageURL,
	}
	if req.TicketCategory != nil {
		category := model.TicketCategory(*req.TicketCategory)
		params.TicketCategory = &category
	}

	updated, err := h.service.UpdateGlobal(c, ActorFromHeaders(c), id, params)
	if err != nil {
		h.handleError(c, err, "UpdateGlobal")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *TicketTypeHandler) UpdateKioskStock(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req UpdateKioskStockRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	view, err := h.service.UpdateKioskStock(c, ActorFromHeaders(c), id, c.Param("kioskId"), model.StockUpdateParams{
		Counter: req.Counter,
		Vault:   req.Vault,
	})
	if err != nil {
		h.handleError(c, err, "UpdateKioskStock")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *TicketTypeHandler) TransferVaultToCounter(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req TransferRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	view, err := h.service.TransferVaultToCounter(c, ActorFromHeaders(c), id, c.Param("kioskId"), req.Quantity)
	if err != nil {
		h.handleError(c, err, "TransferVaultToCounter")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *TicketTypeHandler) AddPackages(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req AddPackagesRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	view, err := h.service.AddPackages(c, ActorFromHeaders(c), id, c.Param("kioskId"),
		model.StockSide(req.Destination), req.PackageCount)
	if err != nil {
		h.handleError(c, err, "AddPackages")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *TicketTypeHandler) SetOpened(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req SetOpenedRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	view, err := h.service.SetOpened(c, ActorFromHeaders(c), id, c.Param("kioskId"), *req.IsOpened)
	if err != nil {
		h.handleError(c, err, "SetOpened")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *TicketTypeHandler) RemoveKioskInventory(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	err := h.service.RemoveKioskInventory(c, ActorFromHeaders(c), id, c.Param("kioskId"))
	if err != nil {
		h.handleError(c, err, "RemoveKioskInventory")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TicketTypeHandler) DeleteCatalogEntry(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	err := h.service.DeleteCatalogEntry(c, ActorFromHeaders(c), id)
	if err != nil {
		h.handleError(c, err, "DeleteCatalogEntry")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TicketTypeHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ticket type id"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *TicketTypeHandler) handleError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case err == apperrors.ErrTicketTypeNotFound:
		log.Warn("Ticket type not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "Ticket type not found"})
	case err == apperrors.ErrInsufficientStock:
		log.Warn("Insufficient vault stock")
		c.JSON(http.StatusConflict, gin.H{"error": "Insufficient vault stock"})
	case err == apperrors.ErrInvalidQuantity:
		log.Warn("Invalid quantity")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity would become negative"})
	case err == apperrors.ErrInvalidArgument, err == apperrors.ErrInvalidInput:
		log.Warn("Invalid input")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
