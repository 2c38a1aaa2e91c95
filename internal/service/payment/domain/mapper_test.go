package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapGatewayStatus(t *testing.T) {
	testCases := []struct {
		name              string
		transactionStatus string
		fraudStatus       string
		want              Status
	}{
		{"capture accepted by fraud check", "capture", "accept", StatusPaid},
		{"capture held for manual review", "capture", "challenge", StatusPending},
		{"capture without fraud verdict", "capture", "", StatusPending},
		{"settlement", "settlement", "", StatusPaid},
		{"settlement ignores fraud field", "settlement", "challenge", StatusPaid},
		{"cancel", "cancel", "", StatusCancelled},
		{"expire", "expire", "", StatusCancelled},
		{"deny", "deny", "", StatusFailed},
		{"unknown status stays pending", "refund", "", StatusPending},
		{"empty status stays pending", "", "", StatusPending},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, MapGatewayStatus(tc.transactionStatus, tc.fraudStatus))
		})
	}
}
