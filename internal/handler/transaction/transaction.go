package transaction

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dotflow/refill-backend/internal/controller"
	"github.com/dotflow/refill-backend/internal/model"
	txstore "github.com/dotflow/refill-backend/internal/store/transaction"
	"github.com/dotflow/refill-backend/internal/utils/logger"
	"github.com/dotflow/refill-backend/internal/view"
)

type ListRequest struct {
	Chain             string `form:"chain"`
	Status            string `form:"status"`
	TransactionStatus string `form:"transactionStatus"`
	RefTable          string `form:"refTable"`
	RefID             uint   `form:"refId"`
	Page              int    `form:"page"`
	PageSize          int    `form:"pageSize"`
}

type handler struct {
	controller controller.IController
	logger     *logger.Logger
}

func New(controller controller.IController, logger *logger.Logger) IHandler {
	return &handler{
		controller: controller,
		logger:     logger,
	}
}

// List godoc
// @Summary List refill transactions
// @Description Lists ledger rows with optional chain/status/reference filters
// @id listTransactions
// @Tags Transaction
// @Produce json
// @Param chain query string false "Chain id"
// @Param status query string false "Row status (ACTIVE|INACTIVE|DELETED)"
// @Param transactionStatus query string false "Business status (DRAFT|PENDING|CONFIRMED|FAILED|CANCELED)"
// @Param refTable query string false "Reference table"
// @Param refId query int false "Reference id"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} view.ListResponse[model.Transaction]
// @Failure 400 {object} view.ErrorResponse
// @Router /transactions [get]
func (h *handler) List(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("[List][ShouldBindQuery]", map[string]string{
			"error": err.Error(),
		})
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, req, "invalid request"))
		return
	}

	rows, total, err := h.controller.ListTransactions(txstore.ListFilter{
		Chain:             req.Chain,
		Status:            model.Status(req.Status),
		TransactionStatus: model.TransactionStatus(req.TransactionStatus),
		RefTable:          req.RefTable,
		RefID:             req.RefID,
		Page:              req.Page,
		PageSize:          req.PageSize,
	})
	if err != nil {
		h.logger.Error("[List][ListTransactions]", map[string]string{
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, view.CreateResponse[any](nil, err, nil, "failed to list transactions"))
		return
	}

	page := req.Page
	if page <= 0 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	c.JSON(http.StatusOK, view.CreateListResponse(rows, page, pageSize, total))
}
