package rest

import (
	"context"
	"freshMarket/domain"
	"freshMarket/pkg/logger"
	"net/http"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	RecoHandler struct {
		validate    *validator.Validate
		recoService RecoService
	}

	RecoService interface {
		Recommend(ctx context.Context, userID uint64, sessionID string, limit int) ([]domain.RankedItem, error)
		RecordFeedback(ctx context.Context, ev domain.FeedbackEvent) error
		RecordEvent(ctx context.Context, ev domain.BehaviorEvent) error
	}

	RecommendQuery struct {
		SessionID string `query:"session_id"`
		N         int    `query:"n"`
	}

	FeedbackRequest struct {
		SessionID string `json:"session_id"`
		ItemID    uint64 `json:"item_id" validate:"required"`
		EventType string `json:"event_type" validate:"required,oneof=view click cart_add favorite purchase"`
		Clicked   bool   `json:"clicked"`
	}

	EventRequest struct {
		SessionID   string  `json:"session_id" validate:"required"`
		ItemID      uint64  `json:"item_id"`
		EventType   string  `json:"event_type" validate:"required,oneof=view cart_add favorite purchase search"`
		Category    string  `json:"category"`
		Price       float64 `json:"price"`
		ViewSeconds int     `json:"view_seconds"`
		SearchQuery string  `json:"search_query"`
	}
)

// ResponseError represent the response error struct
type ResponseError struct {
	Message string `json:"message"`
}

func NewRecoHandler(svc RecoService) *RecoHandler {
	return &RecoHandler{
		validate:    validator.New(),
		recoService: svc,
	}
}

// GET /api/v1/recommendations?session_id=abc&n=10
func (h *RecoHandler) Recommend(c echo.Context) error {
	uidVal := c.Get("user_id")
	userID, ok := uidVal.(uint64)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	var q RecommendQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	items, err := h.recoService.Recommend(c.Request().Context(), userID, q.SessionID, q.N)
	if err != nil {
		logger.Error("Failed to build recommendations", "user_id", userID, "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(items))
}

// POST /api/v1/recommendations/feedback
func (h *RecoHandler) Feedback(c echo.Context) error {
	uidVal := c.Get("user_id")
	userID, ok := uidVal.(uint64)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	var req FeedbackRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	event := domain.FeedbackEvent{
		UserID:    userID,
		SessionID: req.SessionID,
		ItemID:    req.ItemID,
		EventType: req.EventType,
		Clicked:   req.Clicked,
		CreatedAt: time.Now(),
	}

	if err := h.recoService.RecordFeedback(c.Request().Context(), event); err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated("feedback recorded"))
}

// POST /api/v1/recommendations/events
func (h *RecoHandler) Event(c echo.Context) error {
	uidVal := c.Get("user_id")
	userID, ok := uidVal.(uint64)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	var req EventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	event := domain.BehaviorEvent{
		UserID:      userID,
		SessionID:   req.SessionID,
		ItemID:      req.ItemID,
		EventType:   req.EventType,
		Category:    req.Category,
		Price:       req.Price,
		ViewSeconds: req.ViewSeconds,
		SearchQuery: req.SearchQuery,
	}

	if err := h.recoService.RecordEvent(c.Request().Context(), event); err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated("event recorded"))
}
