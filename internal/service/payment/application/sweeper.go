// internal/service/payment/application/sweeper.go
package application

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/IRedDragonICY/progress-jogja-sub001/internal/pkg/logger"
	"github.com/IRedDragonICY/progress-jogja-sub001/internal/service/payment/domain"
	"github.com/IRedDragonICY/progress-jogja-sub001/internal/service/payment/domain/port"
)

// Locker 是清扫任务的互斥入口，由 ZooKeeper 分布式锁实现。
// 多实例部署时每轮只允许一个实例执行清扫。
type Locker interface {
	Lock() error
	Unlock() error
}

// CartSweeper 周期性地为近期已支付的订单补偿清空购物车。
// 支付落账后购物车清理失败的订单（见 CartClearFailed 事件）最终由它兜底；
// 清空操作是幂等的，对已清空的购物车重复执行是 no-op。
type CartSweeper struct {
	orderRepo domain.OrderRepository
	cart      port.CartService
	lock      Locker

	interval time.Duration
	lookback time.Duration
	batch    int
}

// NewCartSweeper 创建一个购物车清扫器。
func NewCartSweeper(orderRepo domain.OrderRepository, cart port.CartService, lock Locker, interval, lookback time.Duration) *CartSweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if lookback <= 0 {
		lookback = 24 * time.Hour
	}
	return &CartSweeper{
		orderRepo: orderRepo,
		cart:      cart,
		lock:      lock,
		interval:  interval,
		lookback:  lookback,
		batch:     200,
	}
}

// Run 按固定周期执行清扫，直到上下文被取消。
func (w *CartSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *CartSweeper) sweep(ctx context.Context) {
	if err := w.lock.Lock(); err != nil {
		// 拿不到锁说明别的实例正在清扫，跳过本轮
		logger.Ctx(ctx).Warn().Err(err).Msg("Cart sweep skipped: could not acquire lock")
		return
	}
	defer func() {
		if err := w.lock.Unlock(); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("Failed to release sweep lock")
		}
	}()

	orders, err := w.orderRepo.FindPaidSince(ctx, time.Now().Add(-w.lookback), w.batch)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("Cart sweep failed to list paid orders")
		return
	}
	if len(orders) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, order := range orders {
		o := order
		g.Go(func() error {
			if err := w.cart.Clear(gctx, o.OwnerID); err != nil {
				logger.Ctx(gctx).Warn().Err(err).
					Str("order_id", o.ID).
					Str("owner_id", o.OwnerID).
					Msg("Sweep could not clear cart")
			}
			// 单个失败不打断整轮清扫
			return nil
		})
	}
	_ = g.Wait()

	logger.Ctx(ctx).Info().Int("orders", len(orders)).Msg("Cart sweep round finished")
}
