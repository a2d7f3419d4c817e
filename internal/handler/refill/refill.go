package refill

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/dotflow/refill-backend/internal/controller"
	"github.com/dotflow/refill-backend/internal/errs"
	"github.com/dotflow/refill-backend/internal/utils/config"
	"github.com/dotflow/refill-backend/internal/utils/logger"
	"github.com/dotflow/refill-backend/internal/view"
)

type RefillRequest struct {
	MultisigWalletID uint   `json:"multisigWalletId" binding:"required"`
	DestWalletID     uint   `json:"destWalletId" binding:"required"`
	AmountIn         string `json:"amountIn" binding:"required"`
}

type handler struct {
	controller controller.IController
	logger     *logger.Logger
	appConfig  *config.AppConfig
}

func New(controller controller.IController, logger *logger.Logger, appConfig *config.AppConfig) IHandler {
	return &handler{
		controller: controller,
		logger:     logger,
		appConfig:  appConfig,
	}
}

// Refill godoc
// @Summary Draft a wallet refill
// @Description Builds the swap-and-transfer call for a destination wallet and persists it as a draft
// @id refillWallet
// @Tags Refill
// @Accept json
// @Produce json
// @Param request body RefillRequest true "Refill request parameters"
// @Success 200 {object} view.Response[model.Transaction]
// @Failure 400 {object} view.ErrorResponse
// @Failure 500 {object} view.ErrorResponse
// @Router /refill [post]
func (h *handler) Refill(c *gin.Context) {
	var req RefillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("[Refill][ShouldBindJSON]", map[string]string{
			"error": err.Error(),
		})
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, req, "invalid request"))
		return
	}

	// validate req
	if err := validator.New().Struct(req); err != nil {
		h.logger.Error("[Refill][Validator]", map[string]string{
			"error": err.Error(),
		})
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, req, "invalid request"))
		return
	}

	amountIn, err := decimal.NewFromString(req.AmountIn)
	if err != nil {
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, req, "invalid amountIn"))
		return
	}

	tx, err := h.controller.Refill(c.Request.Context(), req.MultisigWalletID, req.DestWalletID, amountIn)
	if err != nil {
		h.logger.Error("[Refill][Refill]", map[string]string{
			"error": err.Error(),
		})
		c.JSON(statusFor(err), view.CreateResponse[any](nil, err, req, "failed to draft refill"))
		return
	}

	c.JSON(http.StatusOK, view.CreateResponse[any](tx, nil, nil, ""))
}

// Confirm godoc
// @Summary Confirm a drafted refill
// @Description Builds and submits the multisig approval extrinsic for a draft
// @id refillWalletConfirm
// @Tags Refill
// @Accept json
// @Produce json
// @Param uuid path string true "Transaction UUID"
// @Success 200 {object} view.Response[submitter.SubmitResult]
// @Failure 404 {object} view.ErrorResponse
// @Failure 409 {object} view.ErrorResponse
// @Router /refill/{uuid}/confirm [post]
func (h *handler) Confirm(c *gin.Context) {
	transactionUUID := c.Param("uuid")

	result, err := h.controller.Confirm(c.Request.Context(), transactionUUID)
	if err != nil {
		h.logger.Error("[Confirm][Confirm]", map[string]string{
			"uuid":  transactionUUID,
			"error": err.Error(),
		})
		c.JSON(statusFor(err), view.CreateResponse[any](nil, err, nil, "failed to confirm refill"))
		return
	}

	c.JSON(http.StatusOK, view.CreateResponse[any](result, nil, nil, ""))
}

// Cancel godoc
// @Summary Cancel a drafted refill
// @Description Builds and submits the multisig cancel extrinsic and retires the draft
// @id refillWalletCancel
// @Tags Refill
// @Accept json
// @Produce json
// @Param uuid path string true "Transaction UUID"
// @Success 200 {object} view.Response[submitter.SubmitResult]
// @Failure 404 {object} view.ErrorResponse
// @Failure 409 {object} view.ErrorResponse
// @Router /refill/{uuid}/cancel [post]
func (h *handler) Cancel(c *gin.Context) {
	transactionUUID := c.Param("uuid")

	result, err := h.controller.Cancel(c.Request.Context(), transactionUUID)
	if err != nil {
		h.logger.Error("[Cancel][Cancel]", map[string]string{
			"uuid":  transactionUUID,
			"error": err.Error(),
		})
		c.JSON(statusFor(err), view.CreateResponse[any](nil, err, nil, "failed to cancel refill"))
		return
	}

	c.JSON(http.StatusOK, view.CreateResponse[any](result, nil, nil, ""))
}

func statusFor(err error) int {
	switch {
	case errs.Is(err, errs.ErrTransactionNotFound):
		return http.StatusNotFound
	case errs.Is(err, errs.ErrMultisigTransactionAlreadyConfirmed),
		errs.Is(err, errs.ErrMultisigOperationAlreadyOpen),
		errs.Is(err, errs.ErrMultisigOperationNotOpen):
		return http.StatusConflict
	case errs.Is(err, errs.ErrChainNotSupported),
		errs.Is(err, errs.ErrAssetNotSupported),
		errs.Is(err, errs.ErrTokenBalanceTooLow),
		errs.Is(err, errs.ErrInvalidAmount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
