package infrastructure

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/IRedDragonICY/progress-jogja-sub001/internal/service/payment/domain"
)

func newMockRepo(t *testing.T) (*GormOrderRepository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return NewGormOrderRepository(db), mock
}

func TestFindByID(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"id", "owner_id", "status", "gateway_transaction_id", "created_at", "updated_at"}).
		AddRow("ORDER-1", "user-1", "pending", nil, time.Now(), time.Now())
	mock.ExpectQuery("SELECT .* FROM `orders`").
		WithArgs("ORDER-1", 1).
		WillReturnRows(rows)

	order, err := repo.FindByID(context.Background(), "ORDER-1")
	require.NoError(t, err)
	require.Equal(t, "ORDER-1", order.ID)
	require.Equal(t, "user-1", order.OwnerID)
	require.Equal(t, domain.StatusPending, order.Status)
	require.Empty(t, order.GatewayTransactionID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT .* FROM `orders`").
		WithArgs("GHOST", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "status", "gateway_transaction_id", "created_at", "updated_at"}))

	_, err := repo.FindByID(context.Background(), "GHOST")
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalizeStatusWinner(t *testing.T) {
	repo, mock := newMockRepo(t)

	// 前置条件 status = 'pending' 与赋值在同一条 UPDATE 里
	mock.ExpectExec("UPDATE `orders` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))

	changed, err := repo.FinalizeStatus(context.Background(), "ORDER-1", domain.StatusPaid, "tx-1")
	require.NoError(t, err)
	require.True(t, changed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalizeStatusLoser(t *testing.T) {
	repo, mock := newMockRepo(t)

	// 订单已被并发通知终结：语句成功但 0 行受影响
	mock.ExpectExec("UPDATE `orders` SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := repo.FinalizeStatus(context.Background(), "ORDER-1", domain.StatusCancelled, "")
	require.NoError(t, err)
	require.False(t, changed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalizeStatusClassifiesTransientErrors(t *testing.T) {
	testCases := []struct {
		name   string
		number uint16
	}{
		{"deadlock", 1213},
		{"lock wait timeout", 1205},
		{"too many connections", 1040},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectExec("UPDATE `orders` SET").
				WillReturnError(&gomysql.MySQLError{Number: tc.number, Message: tc.name})

			_, err := repo.FinalizeStatus(context.Background(), "ORDER-1", domain.StatusPaid, "tx-1")
			require.ErrorIs(t, err, domain.ErrStorageUnavailable)
		})
	}
}

func TestFinalizeStatusPassesThroughPermanentErrors(t *testing.T) {
	repo, mock := newMockRepo(t)

	permanent := &gomysql.MySQLError{Number: 1062, Message: "duplicate entry"}
	mock.ExpectExec("UPDATE `orders` SET").WillReturnError(permanent)

	_, err := repo.FinalizeStatus(context.Background(), "ORDER-1", domain.StatusPaid, "")
	require.Error(t, err)
	require.NotErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestRecordGatewayTransaction(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE `orders` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.RecordGatewayTransaction(context.Background(), "ORDER-1", "tx-held")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindPaidSince(t *testing.T) {
	repo, mock := newMockRepo(t)

	since := time.Now().Add(-24 * time.Hour)
	rows := sqlmock.NewRows([]string{"id", "owner_id", "status", "gateway_transaction_id", "created_at", "updated_at"}).
		AddRow("ORDER-1", "user-1", "paid", "tx-1", time.Now(), time.Now()).
		AddRow("ORDER-2", "user-2", "paid", "tx-2", time.Now(), time.Now())
	mock.ExpectQuery("SELECT .* FROM `orders`").
		WillReturnRows(rows)

	orders, err := repo.FindPaidSince(context.Background(), since, 200)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Equal(t, "user-1", orders[0].OwnerID)
	require.Equal(t, "tx-1", orders[0].GatewayTransactionID)
	require.NoError(t, mock.ExpectationsWereMet())
}
