package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/jewelms/jewelms/internal/billing"
	"github.com/jewelms/jewelms/internal/shared"
)

// Well-known setting keys.
const (
	KeyInvoicePrefix        = "invoice_prefix"
	KeyFiscalYearStartMonth = "fiscal_year_start_month"
	KeyStoreName            = "store_name"
	KeyStoreAddress         = "store_address"
	KeyStoreGSTIN           = "store_gstin"
	KeyBillingPINHash       = "billing_pin_hash"
)

const cacheTTL = 5 * time.Minute

// Service is a key/value settings store with a redis read-through cache.
type Service struct {
	pool  *pgxpool.Pool
	cache *redis.Client
}

// NewService constructs the settings service.
func NewService(pool *pgxpool.Pool, cache *redis.Client) *Service {
	return &Service{pool: pool, cache: cache}
}

func cacheKey(key string) string {
	return "settings:" + key
}

// Get returns the value for a key, or empty string when unset.
func (s *Service) Get(ctx context.Context, key string) (string, error) {
	if s.cache != nil {
		if val, err := s.cache.Get(ctx, cacheKey(key)).Result(); err == nil {
			return val, nil
		}
	}
	var value string
	err := s.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("settings: get %s: %w", key, err)
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, cacheKey(key), value, cacheTTL).Err()
	}
	return value, nil
}

// Set upserts a value and invalidates the cache entry.
func (s *Service) Set(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = NOW()`, key, value)
	if err != nil {
		return fmt.Errorf("settings: set %s: %w", key, err)
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, cacheKey(key)).Err()
	}
	return nil
}

// All returns every stored setting.
func (s *Service) All(ctx context.Context) (map[string]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// InvoicePrefix implements the billing numbering configuration.
func (s *Service) InvoicePrefix(ctx context.Context) string {
	val, err := s.Get(ctx, KeyInvoicePrefix)
	if err != nil || val == "" {
		return "INV"
	}
	return val
}

// FiscalYearStartMonth implements the billing numbering configuration.
func (s *Service) FiscalYearStartMonth(ctx context.Context) int {
	val, err := s.Get(ctx, KeyFiscalYearStartMonth)
	if err != nil || val == "" {
		return billing.DefaultFiscalYearStartMonth
	}
	month, err := strconv.Atoi(val)
	if err != nil || month < 1 || month > 12 {
		return billing.DefaultFiscalYearStartMonth
	}
	return month
}

// BillingPINHash implements auth's PIN lookup. Empty means no PIN set.
func (s *Service) BillingPINHash(ctx context.Context) (string, error) {
	return s.Get(ctx, KeyBillingPINHash)
}

// Validate rejects writes to unknown or malformed keys.
func Validate(key, value string) error {
	switch key {
	case KeyInvoicePrefix:
		if value == "" || len(value) > 10 {
			return shared.Invalid(key, "prefix must be 1-10 characters")
		}
	case KeyFiscalYearStartMonth:
		month, err := strconv.Atoi(value)
		if err != nil || month < 1 || month > 12 {
			return shared.Invalid(key, "must be a month number 1-12")
		}
	case KeyStoreName, KeyStoreAddress, KeyStoreGSTIN, KeyBillingPINHash:
	default:
		return shared.Invalid("key", "unknown setting")
	}
	return nil
}
