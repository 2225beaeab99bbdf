// Package http 结算核心 HTTP 接口
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/dexsettlement/internal/dex/application"
	"github.com/wyfcoding/dexsettlement/internal/dex/domain"
)

type Handler struct {
	service *application.DexService
}

func NewHandler(service *application.DexService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/dex")
	{
		g.POST("/pools", h.CreatePool)
		g.GET("/pools", h.ListPools)
		g.GET("/pools/:id", h.GetPool)
		g.POST("/pools/:id/deposit", h.Deposit)
		g.POST("/pools/:id/withdraw", h.Withdraw)
		g.GET("/pools/:id/quote", h.Quote)
		g.GET("/pools/:id/positions/:depositor", h.GetPosition)

		g.POST("/pools/:id/commit", h.Commit)
		g.GET("/commitments/:id", h.GetCommitment)
		g.POST("/reveals", h.Reveal)
		g.POST("/pools/:id/advance", h.AdvancePhase)
		g.POST("/pools/:id/settle", h.Settle)
		// "current" 与具体批次号共用一条路由，避免静态段与通配段的路由冲突
		g.GET("/pools/:id/batches/:number", h.GetBatch)

		g.POST("/admin/fee", h.SetFee)
		g.POST("/admin/amplification", h.SetAmplification)
		g.POST("/admin/phase-durations", h.SetPhaseDurations)
		g.POST("/admin/breaker/threshold", h.SetBreakerThreshold)
		g.POST("/admin/breaker/reset", h.ResetBreaker)
		g.POST("/oracle/samples", h.IngestOracleSample)
	}
}

func (h *Handler) CreatePool(c *gin.Context) {
	var req application.CreatePoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dto, err := h.service.CreatePool(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

func (h *Handler) ListPools(c *gin.Context) {
	dtos, err := h.service.ListPools(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pools": dtos})
}

func (h *Handler) GetPool(c *gin.Context) {
	dto, err := h.service.GetPool(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

func (h *Handler) Deposit(c *gin.Context) {
	var req application.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.PoolID = c.Param("id")
	dto, err := h.service.Deposit(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

func (h *Handler) Withdraw(c *gin.Context) {
	var req application.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.PoolID = c.Param("id")
	dto, err := h.service.Withdraw(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

func (h *Handler) Quote(c *gin.Context) {
	req := application.QuoteRequest{
		PoolID:   c.Param("id"),
		AssetIn:  c.Query("asset_in"),
		AmountIn: c.Query("amount_in"),
	}
	dto, err := h.service.Quote(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

func (h *Handler) GetPosition(c *gin.Context) {
	dto, err := h.service.GetPosition(c.Request.Context(), c.Param("id"), c.Param("depositor"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

func (h *Handler) Commit(c *gin.Context) {
	var req application.CommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.PoolID = c.Param("id")
	dto, err := h.service.Commit(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

func (h *Handler) GetCommitment(c *gin.Context) {
	dto, err := h.service.GetCommitment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

func (h *Handler) Reveal(c *gin.Context) {
	var req application.RevealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dto, err := h.service.Reveal(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

func (h *Handler) AdvancePhase(c *gin.Context) {
	dto, err := h.service.AdvancePhase(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

func (h *Handler) Settle(c *gin.Context) {
	var req application.SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.PoolID = c.Param("id")
	dto, err := h.service.Settle(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

func (h *Handler) GetBatch(c *gin.Context) {
	raw := c.Param("number")
	if raw == "current" {
		dto, err := h.service.GetCurrentBatch(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto)
		return
	}
	number, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch number"})
		return
	}
	dto, err := h.service.GetBatch(c.Request.Context(), c.Param("id"), number)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

func (h *Handler) SetFee(c *gin.Context) {
	var req application.SetFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dto, err := h.service.SetFee(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

func (h *Handler) SetAmplification(c *gin.Context) {
	var req application.SetAmplificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dto, err := h.service.SetAmplification(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

func (h *Handler) SetPhaseDurations(c *gin.Context) {
	var req application.SetPhaseDurationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.SetPhaseDurations(c.Request.Context(), &req); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) SetBreakerThreshold(c *gin.Context) {
	var req application.SetBreakerThresholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.SetBreakerThreshold(c.Request.Context(), &req); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) ResetBreaker(c *gin.Context) {
	var req application.ResetBreakerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.ResetBreaker(c.Request.Context(), &req); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) IngestOracleSample(c *gin.Context) {
	var input application.OracleSampleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.IngestOracleSample(c.Request.Context(), &input); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// respondError 把领域错误映射到 HTTP 状态码
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrPoolNotFound),
		errors.Is(err, domain.ErrCommitmentNotFound),
		errors.Is(err, domain.ErrBatchNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrPoolExists):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrPhaseViolation),
		errors.Is(err, domain.ErrPhaseNotElapsed),
		errors.Is(err, domain.ErrAlreadyRevealed),
		errors.Is(err, domain.ErrCommitmentExpired),
		errors.Is(err, domain.ErrPriceImmutable):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrBreakerTripped),
		errors.Is(err, domain.ErrReentrancy),
		errors.Is(err, domain.ErrFlashLoanGuard),
		errors.Is(err, domain.ErrCooldownActive):
		status = http.StatusLocked
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidFee),
		errors.Is(err, domain.ErrInvalidCurveParams),
		errors.Is(err, domain.ErrInsufficientBond),
		errors.Is(err, domain.ErrPreimageMismatch),
		errors.Is(err, domain.ErrUnknownAsset):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientLiquidity),
		errors.Is(err, domain.ErrPoolNotInitialized),
		errors.Is(err, domain.ErrConvergenceFailure),
		errors.Is(err, domain.ErrSlippageViolation):
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
