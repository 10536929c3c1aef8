package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"deligo/internal/domain"
)

type RestaurantFinder interface {
	FindByID(ctx context.Context, id uint) (*domain.Restaurant, error)
}

// CachedRestaurantRepository is a cache-aside decorator over the MySQL
// repository. The menu snapshot is the hot read path of every checkout, so a
// short TTL keeps pricing off the database without serving stale menus for
// long.
type CachedRestaurantRepository struct {
	primary RestaurantFinder
	client  *redis.Client
	ttl     time.Duration
	logger  *zap.Logger
}

func NewCachedRestaurantRepository(primary RestaurantFinder, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedRestaurantRepository {
	return &CachedRestaurantRepository{
		primary: primary,
		client:  client,
		ttl:     ttl,
		logger:  logger,
	}
}

func (r *CachedRestaurantRepository) FindByID(ctx context.Context, id uint) (*domain.Restaurant, error) {
	cacheKey := fmt.Sprintf("restaurant:%d", id)

	cached, err := r.client.Get(ctx, cacheKey).Bytes()
	if err == nil {
		var restaurant domain.Restaurant
		if err := json.Unmarshal(cached, &restaurant); err == nil {
			return &restaurant, nil
		}
	}

	restaurant, err := r.primary.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(restaurant)
	if err == nil {
		if err := r.client.Set(ctx, cacheKey, data, r.ttl).Err(); err != nil {
			r.logger.Warn("failed to cache restaurant", zap.Uint("restaurantId", id), zap.Error(err))
		}
	}

	return restaurant, nil
}
