package payments_test

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	gatewaypay "swiftdrop/internal/gateway/payments"
	"swiftdrop/internal/logx"
)

type flakyReader struct {
	calls    atomic.Int64
	failures int
	err      error
	payment  *gatewaypay.Payment
}

func (f *flakyReader) FetchPayment(context.Context, string) (*gatewaypay.Payment, error) {
	n := f.calls.Add(1)
	if int(n) <= f.failures {
		return nil, f.err
	}
	return f.payment, nil
}

type countInc struct {
	n atomic.Int64
}

func (c *countInc) Inc() { c.n.Add(1) }

func retryCfg() gatewaypay.RetryConfig {
	return gatewaypay.RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	}
}

func TestRetryingGateway_RecoversFromServerFault(t *testing.T) {
	t.Parallel()

	next := &flakyReader{
		failures: 2,
		err:      &gatewaypay.StatusError{StatusCode: http.StatusInternalServerError},
		payment:  &gatewaypay.Payment{TransactionID: "TXN-1", Status: "captured"},
	}
	retries := &countInc{}
	g := gatewaypay.NewRetryingGateway(next, logx.Nop(), retries, retryCfg())

	p, err := g.FetchPayment(context.Background(), "TXN-1")
	require.NoError(t, err)
	require.Equal(t, "captured", p.Status)
	require.Equal(t, int64(3), next.calls.Load())
	require.Equal(t, int64(2), retries.n.Load())
}

func TestRetryingGateway_ClientFaultIsFinal(t *testing.T) {
	t.Parallel()

	wantErr := &gatewaypay.StatusError{StatusCode: http.StatusBadRequest}
	next := &flakyReader{failures: 10, err: wantErr}
	g := gatewaypay.NewRetryingGateway(next, logx.Nop(), nil, retryCfg())

	_, err := g.FetchPayment(context.Background(), "TXN-1")
	require.ErrorIs(t, err, wantErr)
	require.Equal(t, int64(1), next.calls.Load())
}

func TestRetryingGateway_TooManyRequestsRetried(t *testing.T) {
	t.Parallel()

	next := &flakyReader{
		failures: 1,
		err:      &gatewaypay.StatusError{StatusCode: http.StatusTooManyRequests},
		payment:  &gatewaypay.Payment{Status: "captured"},
	}
	g := gatewaypay.NewRetryingGateway(next, logx.Nop(), nil, retryCfg())

	_, err := g.FetchPayment(context.Background(), "TXN-1")
	require.NoError(t, err)
	require.Equal(t, int64(2), next.calls.Load())
}

func TestRetryingGateway_ExhaustsAttempts(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("connection refused")
	next := &flakyReader{failures: 10, err: wantErr}
	g := gatewaypay.NewRetryingGateway(next, logx.Nop(), nil, retryCfg())

	_, err := g.FetchPayment(context.Background(), "TXN-1")
	require.ErrorIs(t, err, wantErr)
	require.Equal(t, int64(3), next.calls.Load())
}

func TestRetryingGateway_StopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	next := &flakyReader{failures: 10, err: errors.New("connection refused")}
	g := gatewaypay.NewRetryingGateway(next, logx.Nop(), nil, retryCfg())

	_, err := g.FetchPayment(ctx, "TXN-1")
	require.Error(t, err)
	require.Equal(t, int64(1), next.calls.Load())
}

func TestNewRetryingGateway_NilNext(t *testing.T) {
	t.Parallel()

	require.Nil(t, gatewaypay.NewRetryingGateway(nil, logx.Nop(), nil, retryCfg()))
}
