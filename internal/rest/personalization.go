package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"myGreenMarketPersonalization/business/personalization"
	"myGreenMarketPersonalization/domain"
)

const defaultListSize = 10

type (
	PersonalizationHandler struct {
		validate *validator.Validate
		service  PersonalizationService
	}

	PersonalizationService interface {
		GetPersonalizationSettings(ctx context.Context, userID uint) (domain.PersonalizationSettings, error)
		UpdatePersonalizationSettings(ctx context.Context, userID uint, patch domain.PersonalizationSettingsPatch) (domain.PersonalizationSettings, error)
		GetPersonalizationProfile(ctx context.Context, userID uint) (domain.PersonalizationProfile, error)
		GetPreferredCategories(ctx context.Context, userID uint, topN int) ([]string, error)
		GetMostViewedProducts(ctx context.Context, userID uint, limit int) ([]domain.ProductViewCount, error)
		GetRecentProductViews(ctx context.Context, userID uint, limit int) ([]domain.BehaviorEvent, error)
		GetPersonalizedRecommendations(ctx context.Context, userID uint, candidates []domain.Product, count int, excludeIDs []uint64) ([]domain.RecommendationResult, error)
		GetSections(ctx context.Context, userID uint) (personalization.AssemblyResult, error)
		RecordView(ctx context.Context, userID uint, productID uint64, category string) error
		UpdatePersonalizationMetrics(ctx context.Context, userID uint, kind domain.EventType, target personalization.MetricTarget) error
		RecordFeedback(ctx context.Context, userID uint, target personalization.MetricTarget, positive bool) error
		ClearPersonalizationData(ctx context.Context, userID uint) error
	}

	ListQuery struct {
		N int `query:"n" validate:"gte=0,lte=100"`
	}

	RecommendationsQuery struct {
		N       int    `query:"n" validate:"gte=0,lte=100"`
		Exclude string `query:"exclude"`
	}

	RecordViewRequest struct {
		ProductID uint64 `json:"product_id" validate:"required_without=Category"`
		Category  string `json:"category" validate:"required_without=ProductID,max=100"`
	}

	MetricsRequest struct {
		Kind      string `json:"kind" validate:"required,oneof=impression click"`
		SectionID string `json:"section_id" validate:"required,max=100"`
		ProductID uint64 `json:"product_id"`
		Category  string `json:"category" validate:"max=100"`
	}

	FeedbackRequest struct {
		SectionID string `json:"section_id" validate:"max=100"`
		ProductID uint64 `json:"product_id" validate:"required"`
		Category  string `json:"category" validate:"max=100"`
		Positive  *bool  `json:"positive" validate:"required"`
	}
)

func NewPersonalizationHandler(svc PersonalizationService) *PersonalizationHandler {
	return &PersonalizationHandler{
		validate: validator.New(),
		service:  svc,
	}
}

func currentUser(c echo.Context) (uint, bool) {
	userID, ok := c.Get("user_id").(uint)
	return userID, ok && userID != 0
}

// statusFor maps service errors: bad input is the caller's fault, anything
// else is ours.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidEvent),
		errors.Is(err, domain.ErrInvalidEventType),
		errors.Is(err, personalization.ErrInvalidSettings):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *PersonalizationHandler) bindList(c echo.Context) (int, error) {
	var q ListQuery
	if err := c.Bind(&q); err != nil {
		return 0, err
	}
	if err := h.validate.Struct(&q); err != nil {
		return 0, err
	}
	if q.N == 0 {
		q.N = defaultListSize
	}
	return q.N, nil
}

func parseExclude(raw string) ([]uint64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uint64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude id %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// GET /api/v1/personalization/settings
func (h *PersonalizationHandler) GetSettings(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	settings, err := h.service.GetPersonalizationSettings(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(settings))
}

// PUT /api/v1/personalization/settings
// body: any subset of the settings fields
func (h *PersonalizationHandler) UpdateSettings(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	var patch domain.PersonalizationSettingsPatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	settings, err := h.service.UpdatePersonalizationSettings(c.Request().Context(), userID, patch)
	if err != nil {
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(settings))
}

// GET /api/v1/personalization/profile
func (h *PersonalizationHandler) GetProfile(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	profile, err := h.service.GetPersonalizationProfile(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(profile))
}

// GET /api/v1/personalization/categories?n=5
func (h *PersonalizationHandler) GetPreferredCategories(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	n, err := h.bindList(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	categories, err := h.service.GetPreferredCategories(c.Request().Context(), userID, n)
	if err != nil {
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(categories))
}

// GET /api/v1/personalization/most-viewed?n=10
func (h *PersonalizationHandler) GetMostViewed(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	n, err := h.bindList(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	products, err := h.service.GetMostViewedProducts(c.Request().Context(), userID, n)
	if err != nil {
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(products))
}

// GET /api/v1/personalization/recent-views?n=10
func (h *PersonalizationHandler) GetRecentViews(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	n, err := h.bindList(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	views, err := h.service.GetRecentProductViews(c.Request().Context(), userID, n)
	if err != nil {
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(views))
}

// GET /api/v1/personalization/recommendations?n=8&exclude=1,2
func (h *PersonalizationHandler) GetRecommendations(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	var q RecommendationsQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	exclude, err := parseExclude(q.Exclude)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	recs, err := h.service.GetPersonalizedRecommendations(c.Request().Context(), userID, nil, q.N, exclude)
	if err != nil {
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(recs))
}

// GET /api/v1/personalization/sections
func (h *PersonalizationHandler) GetSections(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	result, err := h.service.GetSections(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(result))
}

// POST /api/v1/personalization/events/view
func (h *PersonalizationHandler) RecordView(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	var req RecordViewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.service.RecordView(c.Request().Context(), userID, req.ProductID, req.Category); err != nil {
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusAccepted, fres.Response.StatusOK("view recorded"))
}

// POST /api/v1/personalization/metrics
func (h *PersonalizationHandler) UpdateMetrics(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	var req MetricsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	kind, err := domain.ParseEventType(req.Kind)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	target := personalization.MetricTarget{
		SectionID: req.SectionID,
		ProductID: req.ProductID,
		Category:  req.Category,
	}
	if err := h.service.UpdatePersonalizationMetrics(c.Request().Context(), userID, kind, target); err != nil {
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusAccepted, fres.Response.StatusOK("metrics recorded"))
}

// POST /api/v1/personalization/feedback
func (h *PersonalizationHandler) Feedback(c echo.Context) error {
	userID, ok := currentUser(c)
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

	target := personalization.MetricTarget{
		SectionID: req.SectionID,
		ProductID: req.ProductID,
		Category:  req.Category,
	}
	if err := h.service.RecordFeedback(c.Request().Context(), userID, target, *req.Positive); err != nil {
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated("feedback recorded"))
}

// DELETE /api/v1/personalization/data
func (h *PersonalizationHandler) ClearData(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	if err := h.service.ClearPersonalizationData(c.Request().Context(), userID); err != nil {
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK("personalization data cleared"))
}
