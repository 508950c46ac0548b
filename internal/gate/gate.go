package gate

import (
	"context"
	"sync"
	"time"

	"github.com/cvflow/cvflow-cli/internal/cvflow"
	"github.com/cvflow/cvflow-cli/internal/utils"

	"go.uber.org/zap"
)

// RefreshDelay is how long after an allowed action the gate waits before
// refreshing the balance, giving the server-side deduction time to settle.
const RefreshDelay = time.Second

// Entitlements is the metering surface the gate consults. *cvflow.Client
// satisfies it; tests inject fakes.
type Entitlements interface {
	CheckAction(ctx context.Context, action cvflow.Action) (*cvflow.ActionCheck, error)
	CreditStatus(ctx context.Context) (*cvflow.CreditBalance, error)
}

// Denial describes a blocked action for the paywall affordance. The gate
// holds at most one: a newer gated call replaces it.
type Denial struct {
	ActionLabel      string
	CreditsRequired  int
	CreditsRemaining int
	CoveredByPro     bool
}

// Gate decides, per metered action, whether to run it now or surface a
// paywall. A failed check fails OPEN: the action runs and a warning is
// logged. Do not change this to fail closed without product sign-off.
type Gate struct {
	svc    Entitlements
	logger *zap.Logger

	// Refresh overrides RefreshDelay when set.
	Refresh time.Duration

	mu      sync.Mutex
	denial  *Denial
	balance *cvflow.CreditBalance
}

func New(logger *zap.Logger, svc Entitlements) *Gate {
	return &Gate{
		svc:    svc,
		logger: logger,
	}
}

// Do checks the action's entitlement and, when permitted, runs onAllowed.
// It reports whether onAllowed ran. When the action is denied, the denial
// record is available via Denial for the caller to render a paywall.
// Denial always reflects the latest gated call: a permitted call clears
// any record left by an earlier denial.
func (g *Gate) Do(ctx context.Context, action cvflow.Action, label string, onAllowed func()) bool {
	g.ClearDenial()

	check, err := g.svc.CheckAction(ctx, action)
	if err != nil {
		g.logger.Warn("entitlement check failed, letting the action proceed",
			zap.String("action", string(action)),
			zap.Error(err),
		)
		onAllowed()
		return true
	}

	if check.Allowed {
		onAllowed()
		// Credits may have been deducted server-side; catch up shortly.
		g.scheduleRefresh(ctx)
		return true
	}

	g.mu.Lock()
	g.denial = &Denial{
		ActionLabel:      label,
		CreditsRequired:  check.CreditsRequired,
		CreditsRemaining: check.CreditsRemaining,
		CoveredByPro:     check.CoveredByPro,
	}
	g.mu.Unlock()

	g.logger.Debug("action denied",
		zap.String("action", string(action)),
		zap.String("reason", check.Reason),
		zap.Int("credits_required", check.CreditsRequired),
		zap.Int("credits_remaining", check.CreditsRemaining),
	)

	return false
}

// Denial returns the most recent denial, or nil when the last gated call
// was permitted to run or no gated call happened yet.
func (g *Gate) Denial() *Denial {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.denial
}

// ClearDenial dismisses the pending denial (the paywall was closed).
func (g *Gate) ClearDenial() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.denial = nil
}

// RefreshBalance fetches and caches the current balance.
func (g *Gate) RefreshBalance(ctx context.Context) error {
	balance, err := g.svc.CreditStatus(ctx)
	if err != nil {
		return err
	}

	g.mu.Lock()
	g.balance = balance
	g.mu.Unlock()

	return nil
}

// Balance returns the last cached balance, or nil before the first refresh.
func (g *Gate) Balance() *cvflow.CreditBalance {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.balance
}

// Plan returns the plan from the cached balance, or "" before the first
// refresh.
func (g *Gate) Plan() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.balance == nil {
		return ""
	}
	return g.balance.Plan
}

func (g *Gate) scheduleRefresh(ctx context.Context) {
	go func() {
		if err := utils.WaitFor(ctx, g.refreshDelay()); err != nil {
			return
		}

		if err := g.RefreshBalance(ctx); err != nil {
			g.logger.Debug("balance refresh failed", zap.Error(err))
		}
	}()
}

func (g *Gate) refreshDelay() time.Duration {
	if g.Refresh > 0 {
		return g.Refresh
	}

	return RefreshDelay
}
