package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/cardworks/loyalty-cards-be/internal/domain"
	"github.com/cardworks/loyalty-cards-be/internal/ingest"
	"github.com/cardworks/loyalty-cards-be/internal/registry"
	"github.com/cardworks/loyalty-cards-be/pkg/logger"
)

type CardHandler struct {
	registry  registry.CardRegistry
	pipeline  *ingest.Pipeline
	logger    *logger.Logger
	pageLimit int
	maxLimit  int
}

func NewCardHandler(reg registry.CardRegistry, pipeline *ingest.Pipeline, pageLimit, maxLimit int, log *logger.Logger) *CardHandler {
	if pageLimit <= 0 {
		pageLimit = 20
	}
	if maxLimit <= 0 {
		maxLimit = 100
	}

	return &CardHandler{
		registry:  reg,
		pipeline:  pipeline,
		logger:    log,
		pageLimit: pageLimit,
		maxLimit:  maxLimit,
	}
}

func (h *CardHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.CreateCardRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"message": "invalid request body",
		})
	}

	card, err := h.registry.Create(ctx, req)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, card)
}

func (h *CardHandler) Find(c echo.Context) error {
	ctx := c.Request().Context()

	cardNumber := c.Param("cardNumber")

	card, err := h.registry.Find(ctx, cardNumber)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, card)
}

func (h *CardHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	limit := h.pageLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"message": "limit must be a positive integer",
			})
		}
		limit = parsed
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}

	page, err := h.registry.List(ctx, limit, c.QueryParam("nextToken"))
	if err != nil {
		return h.errorResponse(c, err)
	}

	cards := page.Cards
	if cards == nil {
		cards = []domain.LoyaltyCard{}
	}

	var nextToken interface{}
	if page.NextCursor != "" {
		nextToken = page.NextCursor
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"loyaltyCards": cards,
		"nextToken":    nextToken,
	})
}

type importRequest struct {
	ObjectKey     string `json:"objectKey"`
	ContainerName string `json:"containerName"`
}

// Import kicks off asynchronous ingestion of an already-uploaded file; the
// response does not wait for the pipeline.
func (h *CardHandler) Import(c echo.Context) error {
	ctx := c.Request().Context()

	var req importRequest
	if err := c.Bind(&req); err != nil || req.ObjectKey == "" || req.ContainerName == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"message": "objectKey and containerName are required",
		})
	}

	h.logger.Info(ctx, "Import requested",
		"object_key", req.ObjectKey,
		"container", req.ContainerName,
	)

	traceID := logger.GetTraceID(ctx)
	go func() {
		processCtx := context.Background()
		if traceID != "" {
			processCtx = logger.WithTraceID(processCtx, traceID)
		}

		if _, err := h.pipeline.ProcessFile(processCtx, req.ObjectKey, req.ContainerName); err != nil {
			h.logger.Error(processCtx, "File ingestion failed",
				"object_key", req.ObjectKey,
				"container", req.ContainerName,
				"error", err,
			)
		}
	}()

	return c.JSON(http.StatusAccepted, map[string]string{
		"objectKey": req.ObjectKey,
		"status":    "processing",
	})
}

func (h *CardHandler) errorResponse(c echo.Context, err error) error {
	switch domain.KindOf(err) {
	case domain.KindInvalidData, domain.KindAlreadyExists:
		return c.JSON(http.StatusBadRequest, map[string]string{
			"message": err.Error(),
		})
	case domain.KindNotFound:
		return c.JSON(http.StatusNotFound, map[string]string{
			"message": err.Error(),
		})
	default:
		h.logger.Error(c.Request().Context(), "Request failed",
			"path", c.Request().URL.Path,
			"error", err,
		)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"message": "internal server error",
		})
	}
}
