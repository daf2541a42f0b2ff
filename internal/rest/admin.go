package rest

import (
	"net/http"

	"freshMarket/business/exploration"
	"freshMarket/business/intervention"
	"freshMarket/business/recall"

	"github.com/labstack/echo/v4"
)

type RecoAdminHandler struct {
	weights  *recall.WeightTable
	scorer   *intervention.Scorer
	explorer *exploration.Engine
}

func NewRecoAdminHandler(
	weights *recall.WeightTable,
	scorer *intervention.Scorer,
	explorer *exploration.Engine,
) *RecoAdminHandler {
	return &RecoAdminHandler{
		weights:  weights,
		scorer:   scorer,
		explorer: explorer,
	}
}

// GET /api/v1/admin/reco/weights
func (h *RecoAdminHandler) GetWeights(c echo.Context) error {
	return c.JSON(http.StatusOK, h.weights.Snapshot())
}

// PUT /api/v1/admin/reco/weights
// body: { "popularity": 0.3, "collaborative": 0.2, ... }
func (h *RecoAdminHandler) UpdateWeights(c echo.Context) error {
	var body map[string]float64
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "invalid body: " + err.Error(),
		})
	}
	if len(body) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "at least one strategy weight is required",
		})
	}
	for name, w := range body {
		if w < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "negative weight for strategy " + name,
			})
		}
	}

	h.weights.Update(body)

	return c.JSON(http.StatusOK, echo.Map{
		"status":  "ok",
		"weights": h.weights.Snapshot(),
	})
}

// GET /api/v1/admin/reco/boosts
func (h *RecoAdminHandler) GetBoosts(c echo.Context) error {
	return c.JSON(http.StatusOK, h.scorer.Config())
}

// PUT /api/v1/admin/reco/boosts
// body: BoostConfig JSON, partial fields keep their defaults
func (h *RecoAdminHandler) UpdateBoosts(c echo.Context) error {
	body := intervention.DefaultBoostConfig()
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "invalid body: " + err.Error(),
		})
	}

	h.scorer.UpdateConfig(body)

	return c.JSON(http.StatusOK, echo.Map{
		"status": "ok",
		"config": h.scorer.Config(),
	})
}

// GET /api/v1/admin/reco/exploration
func (h *RecoAdminHandler) GetExploration(c echo.Context) error {
	return c.JSON(http.StatusOK, h.explorer.Config())
}

// PUT /api/v1/admin/reco/exploration
// body: RateConfig JSON, partial fields keep their defaults
func (h *RecoAdminHandler) UpdateExploration(c echo.Context) error {
	body := exploration.DefaultRateConfig()
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "invalid body: " + err.Error(),
		})
	}

	h.explorer.UpdateConfig(body)

	return c.JSON(http.StatusOK, echo.Map{
		"status": "ok",
		"config": h.explorer.Config(),
	})
}
