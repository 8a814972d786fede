package services

import (
	"context"
	"net"
	"strings"
	"time"

	"portal/internal/caching"
	"portal/internal/config"
	"portal/internal/models"
	"portal/internal/repositories"

	"go.uber.org/zap"
)

const tenantCacheTTL = 5 * time.Minute

// TenantResolver maps a request host, or the fallback cookie, onto a known tenant slug
type TenantResolver struct {
	primaryDomain string
	cookieName    string
	known         map[string]struct{}
}

func NewTenantResolver(cfg config.TenantConfig) *TenantResolver {
	known := make(map[string]struct{}, len(cfg.Known))
	for _, slug := range cfg.Known {
		known[strings.ToLower(strings.TrimSpace(slug))] = struct{}{}
	}
	primary := cfg.PrimaryDomain
	if host, _, err := net.SplitHostPort(primary); err == nil {
		primary = host
	}
	return &TenantResolver{
		primaryDomain: strings.ToLower(primary),
		cookieName:    cfg.CookieName,
		known:         known,
	}
}

// CookieName is the fallback cookie consulted when the host carries no tenant
func (r *TenantResolver) CookieName() string {
	return r.cookieName
}

// IsKnown reports whether slug is in the tenant allow-list
func (r *TenantResolver) IsKnown(slug string) bool {
	_, ok := r.known[slug]
	return ok
}

// FromHost returns the tenant named by the leftmost host label, or "" for the apex and unknown labels
func (r *TenantResolver) FromHost(host string) string {
	if host == "" {
		return ""
	}
	hostname := strings.ToLower(strings.SplitN(host, ":", 2)[0])

	if hostname == r.primaryDomain || hostname == "www."+r.primaryDomain {
		return ""
	}

	subdomain := strings.SplitN(hostname, ".", 2)[0]
	if r.IsKnown(subdomain) {
		return subdomain
	}
	return ""
}

// Resolve prefers the host and falls back to the cookie value. Both must be in the allow-list.
func (r *TenantResolver) Resolve(host, cookieValue string) string {
	if slug := r.FromHost(host); slug != "" {
		return slug
	}
	slug := strings.ToLower(strings.TrimSpace(cookieValue))
	if r.IsKnown(slug) {
		return slug
	}
	return ""
}

type TenantService interface {
	GetBySlug(ctx context.Context, slug string) (*models.Tenant, error)
	List(ctx context.Context) ([]*models.Tenant, error)
	Invalidate(ctx context.Context, slug string)
}

type tenantService struct {
	tenantRepo  repositories.TenantRepository
	messageRepo repositories.TenantMessageRepository
	cacheSvc    caching.CacheService
	logger      *zap.Logger
}

func NewTenantService(tenantRepo repositories.TenantRepository, messageRepo repositories.TenantMessageRepository, cacheSvc caching.CacheService, logger *zap.Logger) TenantService {
	return &tenantService{
		tenantRepo:  tenantRepo,
		messageRepo: messageRepo,
		cacheSvc:    cacheSvc,
		logger:      logger,
	}
}

// GetBySlug loads the tenant with its active messages, reading through the cache
func (s *tenantService) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	if cached, err := s.cacheSvc.GetTenant(ctx, slug); err != nil {
		s.logger.Warn("tenant cache read failed", zap.String("tenant", slug), zap.Error(err))
	} else if cached != nil {
		return cached, nil
	}

	tenant, err := s.tenantRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	messages, err := s.messageRepo.ListByTenant(ctx, slug, true)
	if err != nil {
		return nil, err
	}
	tenant.Messages = messages

	if err := s.cacheSvc.SetTenant(ctx, tenant, tenantCacheTTL); err != nil {
		s.logger.Warn("tenant cache write failed", zap.String("tenant", slug), zap.Error(err))
	}
	return tenant, nil
}

func (s *tenantService) List(ctx context.Context) ([]*models.Tenant, error) {
	return s.tenantRepo.List(ctx)
}

func (s *tenantService) Invalidate(ctx context.Context, slug string) {
	if err := s.cacheSvc.DeleteTenant(ctx, slug); err != nil {
		s.logger.Warn("tenant cache invalidation failed", zap.String("tenant", slug), zap.Error(err))
	}
}
