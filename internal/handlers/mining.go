package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainerrors "github.com/ridgeline-retail/fedhui/internal/pkg/errors"
	"github.com/ridgeline-retail/fedhui/internal/services"
)

type MiningHandler struct {
	mining services.MiningService
}

func NewMiningHandler(mining services.MiningService) *MiningHandler {
	return &MiningHandler{mining: mining}
}

type startMiningRequest struct {
	StoreID          uuid.UUID `json:"store_id" binding:"required"`
	MinUtility       float64   `json:"min_utility" binding:"required"`
	MinSupport       int       `json:"min_support"`
	MaxPatternLength int       `json:"max_pattern_length"`
	UsePruning       bool      `json:"use_pruning"`
	BatchSize        int       `json:"batch_size"`
}

// POST /api/mining/start
func (h *MiningHandler) Start(c *gin.Context) {
	var req startMiningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, domainerrors.New(domainerrors.CodeValidation, "invalid mining start payload", err))
		return
	}

	job, err := h.mining.StartJob(c.Request.Context(), services.StartJobParams{
		StoreID:          req.StoreID,
		MinUtility:       req.MinUtility,
		MinSupport:       req.MinSupport,
		MaxPatternLength: req.MaxPatternLength,
		UsePruning:       req.UsePruning,
		BatchSize:        req.BatchSize,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"job_id": job.ID, "status": "started"})
}

// GET /api/mining/status/:job_id
func (h *MiningHandler) Status(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("job_id"))
	if err != nil {
		RespondError(c, domainerrors.New(domainerrors.CodeValidation, "invalid job_id", err))
		return
	}
	job, err := h.mining.GetStatus(c.Request.Context(), jobID)
	if err != nil {
		RespondError(c, domainerrors.New(domainerrors.CodeNotFound, "unknown job_id", err))
		return
	}
	RespondOK(c, gin.H{"job": job})
}

// GET /api/mining/results/:job_id
func (h *MiningHandler) Results(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("job_id"))
	if err != nil {
		RespondError(c, domainerrors.New(domainerrors.CodeValidation, "invalid job_id", err))
		return
	}
	patterns, err := h.mining.GetResults(c.Request.Context(), jobID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"patterns": patterns})
}
