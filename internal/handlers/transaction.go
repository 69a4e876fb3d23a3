package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainerrors "github.com/ridgeline-retail/fedhui/internal/pkg/errors"
	"github.com/ridgeline-retail/fedhui/internal/services"
)

type TransactionHandler struct {
	txns services.TransactionService
}

func NewTransactionHandler(txns services.TransactionService) *TransactionHandler {
	return &TransactionHandler{txns: txns}
}

type uploadTransactionRow struct {
	Items         []int64   `json:"items" binding:"required"`
	Quantities    []int64   `json:"quantities" binding:"required"`
	UnitUtilities []float64 `json:"unit_utilities" binding:"required"`
}

// POST /api/transactions/upload/:store_id
func (h *TransactionHandler) Upload(c *gin.Context) {
	storeID, err := uuid.Parse(c.Param("store_id"))
	if err != nil {
		RespondError(c, domainerrors.New(domainerrors.CodeValidation, "invalid store_id", err))
		return
	}

	var rows []uploadTransactionRow
	if err := c.ShouldBindJSON(&rows); err != nil {
		RespondError(c, domainerrors.New(domainerrors.CodeValidation, "invalid upload payload", err))
		return
	}

	upload := make([]services.TransactionUpload, 0, len(rows))
	for _, row := range rows {
		upload = append(upload, services.TransactionUpload{
			Items:         row.Items,
			Quantities:    row.Quantities,
			UnitUtilities: row.UnitUtilities,
		})
	}

	count, err := h.txns.Upload(c.Request.Context(), storeID, upload)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"count": count})
}

// GET /api/transactions/:store_id?limit=N
func (h *TransactionHandler) ListByStore(c *gin.Context) {
	storeID, err := uuid.Parse(c.Param("store_id"))
	if err != nil {
		RespondError(c, domainerrors.New(domainerrors.CodeValidation, "invalid store_id", err))
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, perr := strconv.Atoi(raw)
		if perr != nil || n < 0 {
			RespondError(c, domainerrors.New(domainerrors.CodeValidation, "invalid limit", perr))
			return
		}
		limit = n
	}

	rows, err := h.txns.ListByStore(c.Request.Context(), storeID, limit)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"transactions": rows})
}
