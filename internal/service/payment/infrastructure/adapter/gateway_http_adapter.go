package adapter

import (
	"context"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"

	"github.com/pkg/errors"

	"github.com/IRedDragonICY/progress-jogja-sub001/internal/pkg/httpclient"
	"github.com/IRedDragonICY/progress-jogja-sub001/internal/service/payment/domain"
	"github.com/IRedDragonICY/progress-jogja-sub001/internal/service/payment/domain/port"
)

// GatewayHTTPAdapter 是 port.GatewayVerifier 接口的 HTTP 实现。
// 它先校验通知携带的 sha512 摘要（order_id + status_code + gross_amount + serverKey），
// 再视配置决定是否回查网关的状态接口，以网关自己的应答作为可信的状态来源，
// 而不是直接信任回调里的字段。
type GatewayHTTPAdapter struct {
	client    *httpclient.Client
	baseURL   string
	serverKey string

	// fetchStatus 为 true 时向网关回查 /v2/{order_id}/status
	fetchStatus bool
}

// NewGatewayHTTPAdapter 创建一个新的网关验真适配器实例。
func NewGatewayHTTPAdapter(client *httpclient.Client, baseURL, serverKey string, fetchStatus bool) *GatewayHTTPAdapter {
	return &GatewayHTTPAdapter{
		client:      client,
		baseURL:     baseURL,
		serverKey:   serverKey,
		fetchStatus: fetchStatus,
	}
}

// statusResponse 是网关状态接口的应答体。
type statusResponse struct {
	OrderID           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	TransactionID     string `json:"transaction_id"`
	StatusCode        string `json:"status_code"`
}

// Verify 实现了通知验真逻辑。任何校验失败都归入 domain.ErrUnauthenticated：
// 网关对非 2xx 应答会重试，真正来自网关的通知下一次会带着正确的摘要回来。
func (a *GatewayHTTPAdapter) Verify(ctx context.Context, n *domain.Notification) (*port.VerifiedStatus, error) {
	if !a.signatureValid(n) {
		return nil, errors.Wrap(domain.ErrUnauthenticated, "signature digest mismatch")
	}

	if !a.fetchStatus {
		return &port.VerifiedStatus{
			TransactionStatus: n.TransactionStatus,
			FraudStatus:       n.FraudStatus,
			TransactionID:     n.TransactionID,
		}, nil
	}

	statusURL := fmt.Sprintf("%s/v2/%s/status", a.baseURL, url.PathEscape(n.OrderID))
	var resp statusResponse
	if err := a.client.GetJSON(ctx, statusURL, map[string]string{
		"Authorization": "Basic " + basicAuth(a.serverKey),
	}, &resp); err != nil {
		return nil, errors.Wrapf(domain.ErrUnauthenticated, "gateway status lookup failed: %v", err)
	}
	if resp.OrderID != n.OrderID {
		return nil, errors.Wrap(domain.ErrUnauthenticated, "gateway reports a different order reference")
	}

	return &port.VerifiedStatus{
		TransactionStatus: resp.TransactionStatus,
		FraudStatus:       resp.FraudStatus,
		TransactionID:     resp.TransactionID,
	}, nil
}

// signatureValid 重算并比对通知的 sha512 摘要。
func (a *GatewayHTTPAdapter) signatureValid(n *domain.Notification) bool {
	if n.SignatureKey == "" {
		return false
	}
	sum := sha512.Sum512([]byte(n.OrderID + n.StatusCode + n.GrossAmount + a.serverKey))
	expected := hex.EncodeToString(sum[:])
	return expected == n.SignatureKey
}

// basicAuth 按网关约定用 serverKey 作为用户名、空密码构造凭证。
func basicAuth(serverKey string) string {
	return base64.StdEncoding.EncodeToString([]byte(serverKey + ":"))
}
