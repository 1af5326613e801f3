package restapi

import (
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ShivanshDengla/Tracker/internal/app/port"
	"github.com/ShivanshDengla/Tracker/internal/app/service/portfolio"
	"github.com/ShivanshDengla/Tracker/internal/app/service/scoring"
	"github.com/ShivanshDengla/Tracker/internal/domain/entity"
)

// PortfolioHandler serves the portfolio read model and the health-score
// endpoints.
type PortfolioHandler struct {
	service port.PortfolioService
	logger  *zap.Logger
}

// NewPortfolioHandler creates the handler.
func NewPortfolioHandler(service port.PortfolioService, logger *zap.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		service: service,
		logger:  logger.Named("PortfolioHandler"),
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// ScoreResponse pairs the health score with the advisory suggestions.
type ScoreResponse struct {
	Address     string              `json:"address"`
	Score       entity.HealthScore  `json:"score"`
	Suggestions []entity.Suggestion `json:"suggestions"`
}

// SimulateRequest is the what-if input.
type SimulateRequest struct {
	Address      string  `json:"address" binding:"required"`
	ShiftPercent float64 `json:"shiftPercent"`
}

// SimulateResponse reports the current score next to the rebalanced one.
type SimulateResponse struct {
	Address    string                 `json:"address"`
	Comparison entity.ScoreComparison `json:"comparison"`
}

func (h *PortfolioHandler) refresh(c *gin.Context, address string) (*entity.PortfolioSnapshot, bool) {
	if !common.IsHexAddress(address) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "address must be a valid hex address"})
		return nil, false
	}

	snap, err := h.service.Refresh(c.Request.Context(), address)
	if err != nil {
		if errors.Is(err, portfolio.ErrMissingAPIKey) {
			c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
			return nil, false
		}
		h.logger.Error("Refresh failed", zap.String("address", address), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "portfolio refresh failed"})
		return nil, false
	}
	return snap, true
}

// GetPortfolio handles GET /api/v1/portfolio?address=0x...
// Each request triggers a refresh cycle; the TTL caches underneath keep
// repeated requests cheap.
func (h *PortfolioHandler) GetPortfolio(c *gin.Context) {
	snap, ok := h.refresh(c, c.Query("address"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, snap)
}

// GetScore handles GET /api/v1/portfolio/score?address=0x...
func (h *PortfolioHandler) GetScore(c *gin.Context) {
	snap, ok := h.refresh(c, c.Query("address"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ScoreResponse{
		Address:     snap.Address,
		Score:       scoring.Score(snap.Summary),
		Suggestions: scoring.Suggest(snap.Summary),
	})
}

// Simulate handles POST /api/v1/portfolio/simulate.
func (h *PortfolioHandler) Simulate(c *gin.Context) {
	var req SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	snap, ok := h.refresh(c, req.Address)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, SimulateResponse{
		Address:    snap.Address,
		Comparison: scoring.Simulate(snap.Summary, req.ShiftPercent),
	})
}
