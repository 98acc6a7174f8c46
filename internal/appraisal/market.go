// internal/appraisal/market.go
package appraisal

import (
	"context"
	"encoding/json"
	"time"

	"loan-orchestrator/internal/common/database"
	"loan-orchestrator/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// Comparable is one recent sale used as a pricing reference.
type Comparable struct {
	Address string  `json:"address"`
	Price   float64 `json:"price"`
	Surface int     `json:"surface"`
	Year    int     `json:"year"`
}

// RegionMarket is the market data for one covered region.
type RegionMarket struct {
	BasePriceM2 float64      `json:"base_price_m2"`
	Comparables []Comparable `json:"comparables"`
}

// MarketSource resolves a city to its market data. ok is false when the
// region is not covered.
type MarketSource interface {
	Region(ctx context.Context, city string) (*RegionMarket, bool, error)
}

// ==========================
// Static market table
// ==========================

var regionTable = map[string]RegionMarket{
	"boston": {
		BasePriceM2: 450000,
		Comparables: []Comparable{
			{Address: "Boston MA", Price: 350000, Surface: 2000, Year: 2005},
			{Address: "Boston MA", Price: 420000, Surface: 2200, Year: 2012},
			{Address: "Boston MA", Price: 380000, Surface: 1900, Year: 1985},
		},
	},
	"nyc": {
		BasePriceM2: 650000,
		Comparables: []Comparable{
			{Address: "NYC NY", Price: 550000, Surface: 1200, Year: 2010},
			{Address: "NYC NY", Price: 620000, Surface: 1400, Year: 2015},
			{Address: "NYC NY", Price: 480000, Surface: 1000, Year: 1990},
		},
	},
	"la": {
		BasePriceM2: 380000,
		Comparables: []Comparable{
			{Address: "LA CA", Price: 350000, Surface: 2000, Year: 2008},
			{Address: "LA CA", Price: 420000, Surface: 2200, Year: 2018},
			{Address: "LA CA", Price: 320000, Surface: 1800, Year: 2000},
		},
	},
}

type staticMarket struct{}

// NewStaticMarket returns the built-in region table.
func NewStaticMarket() MarketSource {
	return staticMarket{}
}

func (staticMarket) Region(ctx context.Context, city string) (*RegionMarket, bool, error) {
	market, ok := regionTable[city]
	if !ok {
		return nil, false, nil
	}
	return &market, true, nil
}

// ==========================
// Redis-cached market
// ==========================

const (
	regionCachePrefix = "appraisal:region:"
	regionCacheTTL    = 1 * time.Hour
)

// cachedMarket serves region data from Redis with the wrapped source as the
// source of truth. Cache failures degrade to the source, never to an error.
type cachedMarket struct {
	redis  *database.RedisClient
	source MarketSource
	logger logger.Logger
}

// NewCachedMarket wraps source with a Redis read-through cache.
func NewCachedMarket(rdb *database.RedisClient, source MarketSource, log logger.Logger) MarketSource {
	return &cachedMarket{redis: rdb, source: source, logger: log}
}

func (c *cachedMarket) Region(ctx context.Context, city string) (*RegionMarket, bool, error) {
	key := regionCachePrefix + city

	cached, err := c.redis.Get(ctx, key)
	if err == nil {
		var market RegionMarket
		if jsonErr := json.Unmarshal([]byte(cached), &market); jsonErr == nil {
			return &market, true, nil
		}
	} else if err != redis.Nil {
		c.logger.Warn("region cache read failed", map[string]interface{}{
			"city":  city,
			"error": err.Error(),
		})
	}

	market, ok, err := c.source.Region(ctx, city)
	if err != nil || !ok {
		return nil, ok, err
	}

	if encoded, err := json.Marshal(market); err == nil {
		if err := c.redis.Set(ctx, key, encoded, regionCacheTTL); err != nil {
			c.logger.Warn("region cache write failed", map[string]interface{}{
				"city":  city,
				"error": err.Error(),
			})
		}
	}

	return market, true, nil
}
