package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainerrors "github.com/ridgeline-retail/fedhui/internal/pkg/errors"
	"github.com/ridgeline-retail/fedhui/internal/services"
)

type FederatedHandler struct {
	federated services.FederatedService
}

func NewFederatedHandler(federated services.FederatedService) *FederatedHandler {
	return &FederatedHandler{federated: federated}
}

type startRoundRequest struct {
	MinClients    int     `json:"min_clients"`
	PrivacyBudget float64 `json:"privacy_budget"`
}

// POST /api/federated/start-round
func (h *FederatedHandler) StartRound(c *gin.Context) {
	var req startRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, domainerrors.New(domainerrors.CodeValidation, "invalid start-round payload", err))
		return
	}
	round, err := h.federated.StartRound(c.Request.Context(), req.MinClients, req.PrivacyBudget, 0)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"round_id":     round.ID,
		"round_number": round.RoundNumber,
		"status":       "started",
	})
}

// GET /api/federated/rounds
func (h *FederatedHandler) ListRounds(c *gin.Context) {
	rounds, err := h.federated.ListRounds(c.Request.Context(), 0)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"rounds": rounds})
}

// GET /api/federated/rounds/:id/patterns
func (h *FederatedHandler) RoundPatterns(c *gin.Context) {
	roundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, domainerrors.New(domainerrors.CodeValidation, "invalid round id", err))
		return
	}
	patterns, err := h.federated.GetRoundPatterns(c.Request.Context(), roundID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"patterns": patterns})
}
