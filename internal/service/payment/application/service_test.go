package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/IRedDragonICY/progress-jogja-sub001/internal/service/payment/domain"
	"github.com/IRedDragonICY/progress-jogja-sub001/internal/service/payment/domain/port"
)

// verifierMock 默认透传通知里的状态字段，模拟验签通过。
type verifierMock struct {
	mu    sync.Mutex
	Err   error
	Calls int
}

func (m *verifierMock) Verify(ctx context.Context, n *domain.Notification) (*port.VerifiedStatus, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return &port.VerifiedStatus{
		TransactionStatus: n.TransactionStatus,
		FraudStatus:       n.FraudStatus,
		TransactionID:     n.TransactionID,
	}, nil
}

type cartMock struct {
	mu     sync.Mutex
	Err    error
	clears map[string]int
}

func newCartMock() *cartMock {
	return &cartMock{clears: make(map[string]int)}
}

func (m *cartMock) Clear(ctx context.Context, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.clears[ownerID]++
	return nil
}

func (m *cartMock) ClearCount(ownerID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clears[ownerID]
}

type publisherMock struct {
	mu              sync.Mutex
	StatusChanged   []*domain.OrderStatusChanged
	CartClearFailed []*domain.CartClearFailed
	Alerts          []*domain.NotificationAlert
}

func (m *publisherMock) PublishStatusChanged(ctx context.Context, event *domain.OrderStatusChanged) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StatusChanged = append(m.StatusChanged, event)
	return nil
}

func (m *publisherMock) PublishCartClearFailed(ctx context.Context, event *domain.CartClearFailed) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CartClearFailed = append(m.CartClearFailed, event)
	return nil
}

func (m *publisherMock) PublishAlert(ctx context.Context, event *domain.NotificationAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Alerts = append(m.Alerts, event)
	return nil
}

type alertMock struct {
	Matched bool
	Rule    string
}

func (m *alertMock) Evaluate(n *domain.Notification) (bool, string, error) {
	return m.Matched, m.Rule, nil
}

// memoryOrderRepo 用互斥锁模拟存储层条件更新的仲裁语义。
type memoryOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
}

func newMemoryOrderRepo(orders ...*domain.Order) *memoryOrderRepo {
	repo := &memoryOrderRepo{orders: make(map[string]*domain.Order)}
	for _, o := range orders {
		copied := *o
		repo.orders[o.ID] = &copied
	}
	return repo
}

func (r *memoryOrderRepo) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (r *memoryOrderRepo) FinalizeStatus(ctx context.Context, id string, next domain.Status, gatewayTxID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return false, nil
	}
	if order.Status != domain.StatusPending {
		return false, nil
	}
	order.Status = next
	if gatewayTxID != "" {
		order.GatewayTransactionID = gatewayTxID
	}
	order.UpdatedAt = time.Now()
	return true, nil
}

func (r *memoryOrderRepo) RecordGatewayTransaction(ctx context.Context, id, gatewayTxID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order, ok := r.orders[id]; ok && order.Status == domain.StatusPending {
		order.GatewayTransactionID = gatewayTxID
	}
	return nil
}

func (r *memoryOrderRepo) FindPaidSince(ctx context.Context, since time.Time, limit int) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*domain.Order
	for _, order := range r.orders {
		if order.Status == domain.StatusPaid && order.UpdatedAt.After(since) {
			copied := *order
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *memoryOrderRepo) status(id string) domain.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orders[id].Status
}

func newTestService(repo domain.OrderRepository, verifier *verifierMock, cart *cartMock, publisher *publisherMock) *ReconcileService {
	return NewReconcileService(repo, verifier, cart, publisher, nil, otel.Tracer("test"), time.Second)
}

func pendingOrder(id, owner string) *domain.Order {
	return &domain.Order{ID: id, OwnerID: owner, Status: domain.StatusPending, CreatedAt: time.Now()}
}

func TestReconcileSettlementFinalizesAndClearsCart(t *testing.T) {
	repo := newMemoryOrderRepo(pendingOrder("ORDER-1", "user-1"))
	verifier := &verifierMock{}
	cart := newCartMock()
	publisher := &publisherMock{}
	svc := newTestService(repo, verifier, cart, publisher)

	resp, err := svc.Reconcile(context.Background(), &NotificationRequest{
		OrderID:           "ORDER-1",
		TransactionStatus: "settlement",
		TransactionID:     "tx-1",
	})

	require.NoError(t, err)
	require.True(t, resp.Applied)
	require.Equal(t, domain.StatusPaid, resp.Status)
	require.Equal(t, domain.StatusPaid, repo.status("ORDER-1"))
	require.Equal(t, 1, cart.ClearCount("user-1"))
	require.Len(t, publisher.StatusChanged, 1)
	require.Equal(t, "ORDER-1", publisher.StatusChanged[0].OrderID)
}

func TestReconcileCaptureAcceptedIsPaid(t *testing.T) {
	repo := newMemoryOrderRepo(pendingOrder("ORDER-1", "user-1"))
	verifier := &verifierMock{}
	cart := newCartMock()
	publisher := &publisherMock{}
	svc := newTestService(repo, verifier, cart, publisher)

	resp, err := svc.Reconcile(context.Background(), &NotificationRequest{
		OrderID:           "ORDER-1",
		TransactionStatus: "capture",
		FraudStatus:       "accept",
	})

	require.NoError(t, err)
	require.True(t, resp.Applied)
	require.Equal(t, domain.StatusPaid, resp.Status)
	require.Equal(t, 1, cart.ClearCount("user-1"))
}

func TestReconcileFraudChallengeStaysPending(t *testing.T) {
	repo := newMemoryOrderRepo(pendingOrder("ORDER-1", "user-1"))
	verifier := &verifierMock{}
	cart := newCartMock()
	publisher := &publisherMock{}
	svc := newTestService(repo, verifier, cart, publisher)

	resp, err := svc.Reconcile(context.Background(), &NotificationRequest{
		OrderID:           "ORDER-1",
		TransactionStatus: "capture",
		FraudStatus:       "challenge",
		TransactionID:     "tx-held",
	})

	require.NoError(t, err)
	require.False(t, resp.Applied)
	require.Equal(t, domain.StatusPending, resp.Status)
	require.Equal(t, domain.StatusPending, repo.status("ORDER-1"))
	// 状态不动，但交易号要留痕
	order, err := repo.FindByID(context.Background(), "ORDER-1")
	require.NoError(t, err)
	require.Equal(t, "tx-held", order.GatewayTransactionID)
	require.Zero(t, cart.ClearCount("user-1"))
}

func TestReconcileResendAfterFinalizationIsNoop(t *testing.T) {
	repo := newMemoryOrderRepo(pendingOrder("ORDER-1", "user-1"))
	verifier := &verifierMock{}
	cart := newCartMock()
	publisher := &publisherMock{}
	svc := newTestService(repo, verifier, cart, publisher)

	req := &NotificationRequest{OrderID: "ORDER-1", TransactionStatus: "settlement", TransactionID: "tx-1"}

	first, err := svc.Reconcile(context.Background(), req)
	require.NoError(t, err)
	require.True(t, first.Applied)

	// 网关重投同一条通知，必须成功应答但不产生任何副作用
	second, err := svc.Reconcile(context.Background(), req)
	require.NoError(t, err)
	require.False(t, second.Applied)
	require.Equal(t, domain.StatusPaid, second.Status)
	require.Equal(t, 1, cart.ClearCount("user-1"))
	require.Len(t, publisher.StatusChanged, 1)
}

func TestReconcileCancelAfterPaidIsNoop(t *testing.T) {
	repo := newMemoryOrderRepo(pendingOrder("ORDER-1", "user-1"))
	verifier := &verifierMock{}
	cart := newCartMock()
	publisher := &publisherMock{}
	svc := newTestService(repo, verifier, cart, publisher)

	_, err := svc.Reconcile(context.Background(), &NotificationRequest{
		OrderID: "ORDER-1", TransactionStatus: "settlement",
	})
	require.NoError(t, err)

	// 乱序到达的 expire 不能覆盖已落账的 paid
	resp, err := svc.Reconcile(context.Background(), &NotificationRequest{
		OrderID: "ORDER-1", TransactionStatus: "expire",
	})
	require.NoError(t, err)
	require.False(t, resp.Applied)
	require.Equal(t, domain.StatusPaid, resp.Status)
	require.Equal(t, domain.StatusPaid, repo.status("ORDER-1"))
}

func TestReconcileUnknownOrder(t *testing.T) {
	repo := newMemoryOrderRepo()
	verifier := &verifierMock{}
	cart := newCartMock()
	publisher := &publisherMock{}
	svc := newTestService(repo, verifier, cart, publisher)

	_, err := svc.Reconcile(context.Background(), &NotificationRequest{
		OrderID: "GHOST", TransactionStatus: "settlement",
	})
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestReconcileMalformedNotification(t *testing.T) {
	repo := newMemoryOrderRepo()
	verifier := &verifierMock{}
	cart := newCartMock()
	publisher := &publisherMock{}
	svc := newTestService(repo, verifier, cart, publisher)

	_, err := svc.Reconcile(context.Background(), &NotificationRequest{TransactionStatus: "settlement"})
	require.ErrorIs(t, err, domain.ErrMalformedNotification)
	require.Zero(t, verifier.Calls)
}

func TestReconcileUnverifiedNotificationNeverTouchesStorage(t *testing.T) {
	repo := newMemoryOrderRepo(pendingOrder("ORDER-1", "user-1"))
	verifier := &verifierMock{}
	verifier.Err = domain.ErrUnauthenticated
	cart := newCartMock()
	publisher := &publisherMock{}
	svc := newTestService(repo, verifier, cart, publisher)

	_, err := svc.Reconcile(context.Background(), &NotificationRequest{
		OrderID: "ORDER-1", TransactionStatus: "settlement",
	})
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
	require.Equal(t, domain.StatusPending, repo.status("ORDER-1"))
	require.Zero(t, cart.ClearCount("user-1"))
}

func TestReconcileCartFailureDoesNotFailAck(t *testing.T) {
	repo := newMemoryOrderRepo(pendingOrder("ORDER-1", "user-1"))
	verifier := &verifierMock{}
	cart := newCartMock()
	cart.Err = errors.New("redis connection refused")
	publisher := &publisherMock{}
	svc := newTestService(repo, verifier, cart, publisher)

	resp, err := svc.Reconcile(context.Background(), &NotificationRequest{
		OrderID: "ORDER-1", TransactionStatus: "settlement",
	})

	// 钱已经落账：购物车清理失败只进审计流，不影响应答
	require.NoError(t, err)
	require.True(t, resp.Applied)
	require.Equal(t, domain.StatusPaid, repo.status("ORDER-1"))
	require.Len(t, publisher.CartClearFailed, 1)
	require.Equal(t, "ORDER-1", publisher.CartClearFailed[0].OrderID)
}

func TestReconcileAlertPolicyObservesOnly(t *testing.T) {
	repo := newMemoryOrderRepo(pendingOrder("ORDER-1", "user-1"))
	verifier := &verifierMock{}
	cart := newCartMock()
	publisher := &publisherMock{}
	alert := &alertMock{Matched: true, Rule: "fraud_status == 'challenge'"}
	svc := NewReconcileService(repo, verifier, cart, publisher, alert, otel.Tracer("test"), time.Second)

	resp, err := svc.Reconcile(context.Background(), &NotificationRequest{
		OrderID:           "ORDER-1",
		TransactionStatus: "capture",
		FraudStatus:       "challenge",
	})

	require.NoError(t, err)
	require.False(t, resp.Applied)
	require.Len(t, publisher.Alerts, 1)
	require.Equal(t, "fraud_status == 'challenge'", publisher.Alerts[0].Rule)
}

func TestReconcileConcurrentNotificationsExactlyOneWinner(t *testing.T) {
	repo := newMemoryOrderRepo(pendingOrder("ORDER-1", "user-1"))
	verifier := &verifierMock{}
	cart := newCartMock()
	publisher := &publisherMock{}
	svc := newTestService(repo, verifier, cart, publisher)

	// paid 与 cancelled 竞争同一个 pending 订单
	statuses := []string{"settlement", "expire", "settlement", "expire", "settlement", "expire"}
	results := make([]*ReconcileResponse, len(statuses))
	errs := make([]error, len(statuses))

	var wg sync.WaitGroup
	for i, status := range statuses {
		wg.Add(1)
		go func(i int, status string) {
			defer wg.Done()
			results[i], errs[i] = svc.Reconcile(context.Background(), &NotificationRequest{
				OrderID:           "ORDER-1",
				TransactionStatus: status,
			})
		}(i, status)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	applied := 0
	for _, resp := range results {
		if resp.Applied {
			applied++
		}
	}
	require.Equal(t, 1, applied, "exactly one notification must win the transition")

	final := repo.status("ORDER-1")
	require.True(t, final.IsTerminal())
	if final == domain.StatusPaid {
		require.Equal(t, 1, cart.ClearCount("user-1"), "cart side effect fires exactly once")
	} else {
		require.Zero(t, cart.ClearCount("user-1"))
	}
}
