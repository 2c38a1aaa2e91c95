package adapter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/IRedDragonICY/progress-jogja-sub001/internal/service/payment/domain"
)

func TestAlertCELAdapterEvaluate(t *testing.T) {
	rule := "transaction_status == 'capture' && fraud_status == 'challenge'"
	adapter, err := NewAlertCELAdapter(rule)
	require.NoError(t, err)

	matched, gotRule, err := adapter.Evaluate(&domain.Notification{
		OrderID:           "ORDER-1",
		TransactionStatus: "capture",
		FraudStatus:       "challenge",
	})
	require.NoError(t, err)
	require.True(t, matched)
	require.Equal(t, rule, gotRule)

	matched, _, err = adapter.Evaluate(&domain.Notification{
		OrderID:           "ORDER-2",
		TransactionStatus: "settlement",
	})
	require.NoError(t, err)
	require.False(t, matched)
}

func TestAlertCELAdapterRejectsInvalidRule(t *testing.T) {
	_, err := NewAlertCELAdapter("transaction_status ==")
	require.Error(t, err)
}

func TestAlertCELAdapterRejectsNonBoolRule(t *testing.T) {
	_, err := NewAlertCELAdapter("order_id")
	require.Error(t, err)
}
