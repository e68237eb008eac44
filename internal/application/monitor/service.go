package monitor

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/compound-health-monitor/internal/domain"
	"github.com/compound-health-monitor/internal/pkg/risk"
)

// PositionSource reads one account's liquidity and borrows from the chain.
type PositionSource interface {
	AccountPosition(ctx context.Context, address string) (*domain.AccountPosition, error)
}

// PriceSource returns the recent price series used for the volatility signal.
type PriceSource interface {
	RecentPrices(ctx context.Context) ([]float64, error)
}

// Dispatcher records and delivers an alert for a user at risk.
type Dispatcher interface {
	Dispatch(ctx context.Context, u *domain.User, healthFactor, volatility float64) error
}

// Archiver stores pruned notification batches off-process.
type Archiver interface {
	StoreBatch(ctx context.Context, records []domain.NotificationRecord) (string, error)
}

type userStore interface {
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, recordID string, updates map[string]interface{}) error
}

type notificationStore interface {
	DeleteOlderThan(ctx context.Context, cutoff int64) ([]domain.NotificationRecord, error)
}

// Params are the loop's tuning knobs.
type Params struct {
	VolatilityCutoff float64
	HistoryLimit     int
	Retention        time.Duration
}

// ServiceDeps wires the monitoring service. Archive may be nil, in which case
// pruned records are dropped rather than archived.
type ServiceDeps struct {
	Users         userStore
	Notifications notificationStore
	Positions     PositionSource
	Prices        PriceSource
	Dispatcher    Dispatcher
	Archive       Archiver
	Params        Params
}

// Service runs one monitoring cycle at a time over every registered user.
type Service struct {
	users         userStore
	notifications notificationStore
	positions     PositionSource
	prices        PriceSource
	dispatcher    Dispatcher
	archive       Archiver
	params        Params
}

func NewService(deps ServiceDeps) *Service {
	return &Service{
		users:         deps.Users,
		notifications: deps.Notifications,
		positions:     deps.Positions,
		prices:        deps.Prices,
		dispatcher:    deps.Dispatcher,
		archive:       deps.Archive,
		params:        deps.Params,
	}
}

// RunCycle executes one full monitoring pass. The market fetch and volatility
// computation feed every user, so their failure aborts the whole cycle;
// failures inside a single user's step are logged and isolated.
func (s *Service) RunCycle(ctx context.Context) error {
	prices, err := s.prices.RecentPrices(ctx)
	if err != nil {
		return fmt.Errorf("fetch market prices: %w", err)
	}
	volatility, err := risk.Volatility(prices)
	if err != nil {
		return fmt.Errorf("compute volatility: %w", err)
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	for i := range users {
		if err := s.checkAccount(ctx, &users[i], volatility); err != nil {
			log.Printf("monitor: account %s: %v", users[i].Address, err)
		}
	}

	s.logTrend(users)
	return nil
}

// checkAccount reads the chain position, refreshes the stored borrow value
// and history, and dispatches an alert when the health factor is below the
// user's threshold while the market is volatile.
func (s *Service) checkAccount(ctx context.Context, u *domain.User, volatility float64) error {
	pos, err := s.positions.AccountPosition(ctx, u.Address)
	if err != nil {
		return fmt.Errorf("read position: %w", err)
	}

	healthFactor := risk.HealthFactor(pos.Liquidity.InexactFloat64(), pos.Shortfall.InexactFloat64())
	borrowValue := risk.BorrowValue(pos.Borrows).InexactFloat64()

	history := append(u.History, domain.HealthSnapshot{
		HealthFactor: healthFactor,
		Timestamp:    time.Now().UnixMilli(),
	})
	if len(history) > s.params.HistoryLimit {
		history = history[len(history)-s.params.HistoryLimit:]
	}

	err = s.users.Update(ctx, u.RecordID, map[string]interface{}{
		"borrow_value": borrowValue,
		"history":      history,
	})
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	u.BorrowValue = borrowValue
	u.History = history

	if healthFactor < u.Threshold && volatility > s.params.VolatilityCutoff {
		return s.dispatcher.Dispatch(ctx, u, healthFactor, volatility)
	}
	return nil
}

// logTrend fits a line through all users' health-factor histories and logs
// the one-step forecast. Nothing downstream consumes it yet.
func (s *Service) logTrend(users []domain.User) {
	var samples []float64
	for _, u := range users {
		for _, snap := range u.History {
			samples = append(samples, snap.HealthFactor)
		}
	}
	if len(samples) == 0 {
		return
	}
	next, err := risk.PredictNext(samples)
	if err != nil {
		log.Printf("monitor: trend fit failed: %v", err)
		return
	}
	log.Printf("monitor: health trend forecast %.4f over %d samples", next, len(samples))
}

// RunRetention prunes notification records older than the retention window
// and ships the pruned batch to the archive when one is configured.
func (s *Service) RunRetention(ctx context.Context) error {
	if s.params.Retention <= 0 {
		return nil
	}
	cutoff := time.Now().Add(-s.params.Retention).UnixMilli()
	removed, err := s.notifications.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune notifications: %w", err)
	}
	if len(removed) == 0 {
		return nil
	}
	if s.archive != nil {
		url, err := s.archive.StoreBatch(ctx, removed)
		if err != nil {
			return fmt.Errorf("archive %d pruned records: %w", len(removed), err)
		}
		log.Printf("monitor: archived %d pruned records to %s", len(removed), url)
	}
	log.Printf("monitor: pruned %d notification records", len(removed))
	return nil
}
