package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"interlingo/models"
	"interlingo/services/pricing"
	"interlingo/utils"
)

// PricingHandler serves ad-hoc session quotes. Quotes are cached briefly
// since clients poll the same interval while composing a booking.
type PricingHandler struct {
	Schedule pricing.ScheduleSource
	Cache    *redis.Client
	Logger   *zap.Logger
}

func NewPricingHandler(schedule pricing.ScheduleSource, cache *redis.Client, logger *zap.Logger) *PricingHandler {
	return &PricingHandler{Schedule: schedule, Cache: cache, Logger: logger}
}

// QuoteHandler prices a prospective session interval.
// GET /api/pricing/quote?start=RFC3339&end=RFC3339&currency=USD
func (h *PricingHandler) QuoteHandler(c *gin.Context) {
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid start time", "start must be RFC3339")
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid end time", "end must be RFC3339")
		return
	}
	currency := c.Query("currency")

	cacheKey := utils.QuoteCachePrefix + c.Query("start") + "|" + c.Query("end") + "|" + currency
	if h.Cache != nil {
		if raw, err := h.Cache.Get(c.Request.Context(), cacheKey).Result(); err == nil {
			var cached models.PriceResult
			if json.Unmarshal([]byte(raw), &cached) == nil {
				c.JSON(http.StatusOK, cached)
				return
			}
		}
	}

	schedule, err := h.Schedule.ScheduleFor(currency)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "rate schedule unavailable", err.Error())
		return
	}

	result, err := pricing.ComputePrice(models.TimeInterval{Start: start, End: end}, schedule)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, pricing.ErrInvalidInterval) {
			status = http.StatusBadRequest
		} else if errors.Is(err, pricing.ErrMissingRate) {
			status = http.StatusUnprocessableEntity
		}
		utils.JSONError(c, status, "failed to price interval", err.Error())
		return
	}

	if h.Cache != nil {
		if raw, err := json.Marshal(result); err == nil {
			if err := h.Cache.Set(c.Request.Context(), cacheKey, raw, utils.QuoteCacheTTL).Err(); err != nil {
				h.Logger.Warn("failed to cache quote", zap.Error(err))
			}
		}
	}

	c.JSON(http.StatusOK, result)
}
