package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"portal/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type CacheService interface {
	// Tenant caching
	GetTenant(ctx context.Context, slug string) (*models.Tenant, error)
	SetTenant(ctx context.Context, tenant *models.Tenant, ttl time.Duration) error
	DeleteTenant(ctx context.Context, slug string) error

	// Accounts verified by the directory but not yet linked to a user
	SetPendingAccounts(ctx context.Context, token string, pending *PendingAccounts, ttl time.Duration) error
	TakePendingAccounts(ctx context.Context, token string) (*PendingAccounts, error)

	// Webhook delivery dedupe
	MarkDelivery(ctx context.Context, externalRef, status string, ttl time.Duration) (bool, error)
	ForgetDelivery(ctx context.Context, externalRef, status string) error

	Ping(ctx context.Context) error
}

// PendingAccounts is the directory result held between email verification and sign-in
type PendingAccounts struct {
	Email    string                    `json:"email"`
	Accounts []models.DirectoryAccount `json:"accounts"`
}

type redisCacheService struct {
	client redis.Cmdable
}

// NewRedisClient builds a client, accepting both host:port and redis:// addresses
func NewRedisClient(addr, password string, db int, log *zap.Logger) *redis.Client {
	parsedAddr := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Warn("redis ping failed on initialization", zap.String("address", parsedAddr), zap.Error(pingErr))
	} else {
		log.Debug("redis connection established", zap.String("address", parsedAddr))
	}
	return client
}

func NewRedisCacheService(client redis.Cmdable) CacheService {
	return &redisCacheService{client: client}
}

func tenantKey(slug string) string {
	return fmt.Sprintf("portal:tenant:%s", slug)
}

func pendingKey(token string) string {
	return fmt.Sprintf("portal:pending-accounts:%s", token)
}

func deliveryKey(externalRef, status string) string {
	return fmt.Sprintf("portal:webhook:%s:%s", externalRef, status)
}

func (r *redisCacheService) GetTenant(ctx context.Context, slug string) (*models.Tenant, error) {
	data, err := r.client.Get(ctx, tenantKey(slug)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var tenant models.Tenant
	if err := json.Unmarshal(data, &tenant); err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *redisCacheService) SetTenant(ctx context.Context, tenant *models.Tenant, ttl time.Duration) error {
	data, err := json.Marshal(tenant)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, tenantKey(tenant.Slug), data, ttl).Err()
}

func (r *redisCacheService) DeleteTenant(ctx context.Context, slug string) error {
	return r.client.Del(ctx, tenantKey(slug)).Err()
}

func (r *redisCacheService) SetPendingAccounts(ctx context.Context, token string, pending *PendingAccounts, ttl time.Duration) error {
	data, err := json.Marshal(pending)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, pendingKey(token), data, ttl).Err()
}

// TakePendingAccounts reads and removes the pending set; an expired or unknown token yields nil
func (r *redisCacheService) TakePendingAccounts(ctx context.Context, token string) (*PendingAccounts, error) {
	data, err := r.client.GetDel(ctx, pendingKey(token)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var pending PendingAccounts
	if err := json.Unmarshal(data, &pending); err != nil {
		return nil, err
	}
	return &pending, nil
}

// MarkDelivery records a callback delivery and reports whether it is the first one seen
func (r *redisCacheService) MarkDelivery(ctx context.Context, externalRef, status string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, deliveryKey(externalRef, status), time.Now().UTC().Format(time.RFC3339), ttl).Result()
}

func (r *redisCacheService) ForgetDelivery(ctx context.Context, externalRef, status string) error {
	return r.client.Del(ctx, deliveryKey(externalRef, status)).Err()
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
