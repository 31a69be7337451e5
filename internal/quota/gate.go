// Package quota enforces the per-plan usage limits checked before a
// transaction or goal is created.
package quota

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"saldo/internal/cache"
	"saldo/internal/core"
	applog "saldo/internal/log"
)

const (
	DefaultPlanCacheTTL  = time.Minute
	DefaultPlanCacheSize = 1024
)

// Store is the read-only view of storage the gate needs.
type Store interface {
	GetUserPlan(ctx context.Context, userID int64) (core.Plan, bool, error)
	CountTransactions(ctx context.Context, userID int64, from, to core.Date) (int, error)
	CountGoals(ctx context.Context, userID int64) (int, error)
}

// Gate checks whether a user's plan allows adding more rows. The check is
// advisory: nothing is reserved, so concurrent creates can overshoot.
type Gate struct {
	store Store
	plans *cache.LRUCache[core.Plan]
	now   func() time.Time
	loc   *time.Location
}

type Option func(*Gate)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// WithLocation sets the timezone in which "this month" is evaluated.
func WithLocation(loc *time.Location) Option {
	return func(g *Gate) {
		if loc != nil {
			g.loc = loc
		}
	}
}

// WithPlanCache sizes the plan lookup cache.
func WithPlanCache(size int, ttl time.Duration) Option {
	return func(g *Gate) { g.plans = cache.NewLRUCache[core.Plan](size, ttl) }
}

func NewGate(store Store, opts ...Option) *Gate {
	g := &Gate{
		store: store,
		now:   time.Now,
		loc:   time.UTC,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.plans == nil {
		g.plans = cache.NewLRUCache[core.Plan](DefaultPlanCacheSize, DefaultPlanCacheTTL)
	}
	return g
}

// Check fails with *core.QuotaExceededError when adding amountToAdd rows of
// kind would exceed the user's plan. Unknown users pass.
func (g *Gate) Check(ctx context.Context, userID int64, kind core.QuotaKind, amountToAdd int) error {
	if amountToAdd < 1 {
		amountToAdd = 1
	}

	plan, found, err := g.plan(ctx, userID)
	if err != nil {
		return err
	}
	if !found {
		slog.DebugContext(ctx, "Quota check skipped for unknown user",
			applog.FieldComponent, applog.ComponentQuota,
			applog.FieldUserID, userID,
			applog.FieldQuotaKind, kind)
		return nil
	}

	limit, ok := core.LimitsFor(plan).Limit(kind)
	if !ok {
		return fmt.Errorf("unknown quota kind %q", kind)
	}
	if limit == core.Unlimited {
		return nil
	}

	existing, err := g.count(ctx, userID, kind)
	if err != nil {
		return err
	}

	if existing+amountToAdd > limit {
		slog.InfoContext(ctx, "Plan limit reached",
			applog.FieldComponent, applog.ComponentQuota,
			applog.FieldUserID, userID,
			"plan", plan,
			applog.FieldQuotaKind, kind,
			"existing", existing,
			"requested", amountToAdd,
			"limit", limit)
		return &core.QuotaExceededError{Kind: kind, Limit: limit}
	}
	return nil
}

// Invalidate drops the cached plan of userID, e.g. after a plan change.
func (g *Gate) Invalidate(userID int64) {
	g.plans.Delete(cacheKey(userID))
}

// PlanCache exposes the plan cache for periodic cleanup.
func (g *Gate) PlanCache() cache.Cleaner {
	return g.plans
}

// CurrentMonth returns the first and last calendar day of the current month
// in the gate's location.
func (g *Gate) CurrentMonth() (core.Date, core.Date) {
	return core.MonthBounds(core.DateOf(g.now().In(g.loc)))
}

func (g *Gate) plan(ctx context.Context, userID int64) (core.Plan, bool, error) {
	key := cacheKey(userID)
	if p, ok := g.plans.Get(key); ok {
		return p, true, nil
	}

	p, found, err := g.store.GetUserPlan(ctx, userID)
	if err != nil {
		return "", false, fmt.Errorf("get user plan: %w", err)
	}
	if found {
		g.plans.Set(key, p)
	}
	return p, found, nil
}

func (g *Gate) count(ctx context.Context, userID int64, kind core.QuotaKind) (int, error) {
	switch kind {
	case core.QuotaTransactions:
		from, to := g.CurrentMonth()
		n, err := g.store.CountTransactions(ctx, userID, from, to)
		if err != nil {
			return 0, fmt.Errorf("count transactions: %w", err)
		}
		return n, nil
	case core.QuotaGoals:
		n, err := g.store.CountGoals(ctx, userID)
		if err != nil {
			return 0, fmt.Errorf("count goals: %w", err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unknown quota kind %q", kind)
	}
}

func cacheKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
