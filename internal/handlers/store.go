package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainerrors "github.com/ridgeline-retail/fedhui/internal/pkg/errors"
	"github.com/ridgeline-retail/fedhui/internal/services"
)

type StoreHandler struct {
	stores services.StoreService
}

func NewStoreHandler(stores services.StoreService) *StoreHandler {
	return &StoreHandler{stores: stores}
}

type registerStoreRequest struct {
	StoreID   uuid.UUID `json:"store_id" binding:"required"`
	StoreName string    `json:"store_name" binding:"required"`
}

// POST /api/stores/register
func (h *StoreHandler) Register(c *gin.Context) {
	var req registerStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, domainerrors.New(domainerrors.CodeValidation, "invalid register payload", err))
		return
	}
	store, err := h.stores.Register(c.Request.Context(), req.StoreID, req.StoreName, c.ClientIP())
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"status":     store.ConnectionStatus,
		"store_id":   store.ID,
		"store_name": store.Name,
	})
}

// POST /api/stores/:id/heartbeat
func (h *StoreHandler) Heartbeat(c *gin.Context) {
	storeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, domainerrors.New(domainerrors.CodeValidation, "invalid store id", err))
		return
	}
	store, err := h.stores.Heartbeat(c.Request.Context(), storeID, c.ClientIP())
	if err != nil {
		RespondError(c, domainerrors.New(domainerrors.CodeNotFound, "unknown store_id", err))
		return
	}
	RespondOK(c, gin.H{"status": store.ConnectionStatus})
}

// GET /api/stores
func (h *StoreHandler) List(c *gin.Context) {
	stores, err := h.stores.List(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"stores": stores})
}
