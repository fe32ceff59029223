package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/renatoquispe/cinema-storefront-platform/internal/config"
	"github.com/renatoquispe/cinema-storefront-platform/internal/models"
)

// cart keys never expire on their own while a session is active; the TTL is
// a safety net against abandoned sessions.
const cartTTL = 7 * 24 * time.Hour

type RedisRepo struct {
	client *redis.Client
	config *config.Config
}

func NewRedisRepo(cfg *config.Config) (*RedisRepo, error) {

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisConnect.Host,
		Username: cfg.RedisConnect.Username,
		Password: cfg.RedisConnect.Password,
		DB:       cfg.RedisConnect.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Test the connection to make sure Redis is reachable
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisRepo{client: client, config: cfg}, nil
}

// NewRedisRepoWithClient is used by tests to inject a mock client.
func NewRedisRepoWithClient(client *redis.Client, cfg *config.Config) *RedisRepo {
	return &RedisRepo{client: client, config: cfg}
}

// Client exposes the underlying connection so the cache layer can share it.
func (r *RedisRepo) Client() *redis.Client {
	return r.client
}

func cartKey(userID uuid.UUID) string {
	return fmt.Sprintf("cart:%s", userID)
}

// GetCart loads the session cart. A missing key is an empty cart, not an
// error: both storefront views read through this single store.
func (r *RedisRepo) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {

	data, err := r.client.Get(ctx, cartKey(userID)).Bytes()
	if err != nil {

		if errors.Is(err, redis.Nil) {
			return &models.Cart{UserID: userID, Lines: []models.CartLine{}, Total: 0}, nil
		}

		return nil, fmt.Errorf("failed to get cart for user %s: %w", userID, err)
	}

	cart := &models.Cart{}
	if err := json.Unmarshal(data, cart); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart for user %s: %w", userID, err)
	}

	return cart, nil
}

func (r *RedisRepo) SaveCart(ctx context.Context, cart *models.Cart) error {

	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to marshal cart for user %s: %w", cart.UserID, err)
	}

	if err := r.client.Set(ctx, cartKey(cart.UserID), data, cartTTL).Err(); err != nil {
		return fmt.Errorf("failed to save cart for user %s: %w", cart.UserID, err)
	}

	return nil
}

func (r *RedisRepo) DeleteCart(ctx context.Context, userID uuid.UUID) error {

	if err := r.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete cart for user %s: %w", userID, err)
	}

	return nil
}

// Returns isAllowed, attempts left, seconds to wait, error
func (r *RedisRepo) CheckLoginRateLimit(ctx context.Context, username string) (bool, int, int, error) {

	key := fmt.Sprintf("login_attempts:%s", username)

	now := time.Now().Unix()

	// only login attempts inside the sliding window are counted
	windowStart := now - int64(r.config.RateConfig.WindowSize.Seconds())

	pipe := r.client.Pipeline()

	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: now})
	count := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, r.config.RateConfig.WindowSize)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, 0, fmt.Errorf("rate limit pipeline failed: %w", err)
	}

	attempts := count.Val()

	if attempts > r.config.RateConfig.MaxAttempts {
		return false, 0, int(r.config.RateConfig.WindowSize.Seconds()), nil
	}

	remaining := int(r.config.RateConfig.MaxAttempts - attempts)

	return true, remaining, 0, nil
}
