package app

import (
	"context"
	"errors"
	"testing"
	"time"

	gatewaypay "swiftdrop/internal/gateway/payments"
	"swiftdrop/internal/service/payment"

	"github.com/stretchr/testify/require"
)

type ctxKey struct{}

type spyHandler struct {
	called int
	ctx    context.Context
	event  payment.Event
	err    error
}

func (s *spyHandler) Handle(ctx context.Context, e payment.Event) error {
	s.called++
	s.ctx = ctx
	s.event = e
	return s.err
}

type stubReader struct {
	fetchFn     func(ctx context.Context, txn string) (*gatewaypay.Payment, error)
	capturedCtx context.Context
	capturedTxn string
}

func (g *stubReader) FetchPayment(ctx context.Context, txn string) (*gatewaypay.Payment, error) {
	g.capturedCtx = ctx
	g.capturedTxn = txn
	if g.fetchFn == nil {
		return nil, nil
	}
	return g.fetchFn(ctx, txn)
}

func requireTimeout5s(t *testing.T, ctx context.Context) {
	t.Helper()
	deadline, ok := ctx.Deadline()
	require.True(t, ok, "expected context with deadline")

	remaining := time.Until(deadline)
	require.Greater(t, remaining, 4*time.Second)
	require.Less(t, remaining, 6*time.Second)
}

func requireCanceled(t *testing.T, ctx context.Context) {
	t.Helper()
	select {
	case <-ctx.Done():
	default:
		t.Fatalf("expected gateway context to be canceled after handler returns")
	}
}

func TestMakePaymentsKafka_NoGateway_DelegatesToHandler(t *testing.T) {
	t.Parallel()

	hSpy := &spyHandler{}
	h := makePaymentsKafka(hSpy, nil)

	ctx := context.WithValue(context.Background(), ctxKey{}, "v")
	in := payment.Event{Type: payment.EventCaptured, TransactionID: "TXN-1"}

	err := h(ctx, in)
	require.NoError(t, err)

	require.Equal(t, 1, hSpy.called)
	require.Equal(t, "v", hSpy.ctx.Value(ctxKey{}))
	require.Equal(t, in, hSpy.event)
}

func TestMakePaymentsKafka_GatewayError_ReturnsError_AndDoesNotCallHandler(t *testing.T) {
	t.Parallel()

	hSpy := &spyHandler{}

	sentinel := errors.New("gw boom")
	gw := &stubReader{
		fetchFn: func(ctx context.Context, txn string) (*gatewaypay.Payment, error) {
			return nil, sentinel
		},
	}

	h := makePaymentsKafka(hSpy, gw)

	err := h(context.Background(), payment.Event{Type: payment.EventCaptured, TransactionID: "TXN-2"})
	require.ErrorIs(t, err, sentinel)

	require.Equal(t, 0, hSpy.called)

	require.Equal(t, "TXN-2", gw.capturedTxn)
	requireTimeout5s(t, gw.capturedCtx)
	requireCanceled(t, gw.capturedCtx)
}

func TestMakePaymentsKafka_UnknownTransaction_Dropped(t *testing.T) {
	t.Parallel()

	hSpy := &spyHandler{}
	gw := &stubReader{}

	h := makePaymentsKafka(hSpy, gw)

	err := h(context.Background(), payment.Event{Type: payment.EventCaptured, TransactionID: "TXN-3"})
	require.NoError(t, err)

	require.Equal(t, 0, hSpy.called)

	require.Equal(t, "TXN-3", gw.capturedTxn)
	requireTimeout5s(t, gw.capturedCtx)
	requireCanceled(t, gw.capturedCtx)
}

func TestMakePaymentsKafka_ProviderRecordOverridesEvent(t *testing.T) {
	t.Parallel()

	hSpy := &spyHandler{}

	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	gw := &stubReader{
		fetchFn: func(ctx context.Context, txn string) (*gatewaypay.Payment, error) {
			return &gatewaypay.Payment{
				TransactionID: txn,
				Status:        "FAILED",
				GatewayRef:    "gw-real",
				UpdatedAt:     ts,
			}, nil
		},
	}

	h := makePaymentsKafka(hSpy, gw)

	ctx := context.WithValue(context.Background(), ctxKey{}, "v")
	in := payment.Event{Type: payment.EventCaptured, TransactionID: "TXN-4", GatewayRef: "gw-forged"}

	err := h(ctx, in)
	require.NoError(t, err)

	require.Equal(t, 1, hSpy.called)
	require.Equal(t, "v", hSpy.ctx.Value(ctxKey{}))

	require.Equal(t, "TXN-4", hSpy.event.TransactionID)
	require.Equal(t, payment.EventFailed, hSpy.event.Type)
	require.Equal(t, "gw-real", hSpy.event.GatewayRef)
	require.Equal(t, ts, hSpy.event.OccurredAt)
}

func TestMakePaymentsKafka_UnrecognizedStatusKeepsEventType(t *testing.T) {
	t.Parallel()

	hSpy := &spyHandler{}
	gw := &stubReader{
		fetchFn: func(ctx context.Context, txn string) (*gatewaypay.Payment, error) {
			return &gatewaypay.Payment{TransactionID: txn, Status: "pending_review"}, nil
		},
	}

	h := makePaymentsKafka(hSpy, gw)

	in := payment.Event{Type: payment.EventCaptured, TransactionID: "TXN-5", GatewayRef: "gw-5"}
	err := h(context.Background(), in)
	require.NoError(t, err)

	require.Equal(t, 1, hSpy.called)
	require.Equal(t, payment.EventCaptured, hSpy.event.Type)
	require.Equal(t, "gw-5", hSpy.event.GatewayRef)
	require.True(t, hSpy.event.OccurredAt.IsZero())
}

func TestEventTypeForProviderStatus(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"captured":  payment.EventCaptured,
		" PAID ":    payment.EventCaptured,
		"completed": payment.EventCaptured,
		"succeeded": payment.EventCaptured,
		"failed":    payment.EventFailed,
		"Declined":  payment.EventFailed,
		"refunded":  "",
		"":          "",
	}
	for status, want := range cases {
		require.Equal(t, want, eventTypeForProviderStatus(status), "status %q", status)
	}
}
