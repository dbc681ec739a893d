package eventbus

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/ticketing-platform/core/internal/domain"
	"go.uber.org/mock/gomock"
)

func TestInventoryConsumerHandler_HoldExpired_CallsRelease(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := NewMockInventoryServiceTx(ctrl)
	holdID := domain.NewHoldIdFromUUID(uuid.New())
	svc.EXPECT().ReleaseTx(gomock.Any(), gomock.Nil(), holdID).Return(nil)

	handler := NewInventoryConsumerHandler(svc)
	payload, err := json.Marshal(holdExpiredEnvelopePayload{HoldID: holdID.String()})
	require.NoError(t, err)

	err = handler(context.Background(), nil, domain.Envelope{
		EventType: string(domain.EventTypeHoldExpired),
		Payload:   payload,
	})
	require.NoError(t, err)
}

func TestInventoryConsumerHandler_OrderConfirmed_CallsCommit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := NewMockInventoryServiceTx(ctrl)
	holdID := domain.NewHoldIdFromUUID(uuid.New())
	svc.EXPECT().CommitTx(gomock.Any(), gomock.Nil(), holdID).Return(nil)

	handler := NewInventoryConsumerHandler(svc)
	payload, err := json.Marshal(orderConfirmedEnvelopePayload{OrderID: "order-1", HoldID: holdID.String()})
	require.NoError(t, err)

	err = handler(context.Background(), nil, domain.Envelope{
		EventType: string(domain.EventTypeOrderConfirmed),
		Payload:   payload,
	})
	require.NoError(t, err)
}

func TestInventoryConsumerHandler_UnknownEventType_Acks(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := NewMockInventoryServiceTx(ctrl)
	handler := NewInventoryConsumerHandler(svc)

	err := handler(context.Background(), nil, domain.Envelope{
		EventType: "some.unbound.routing.key",
		Payload:   json.RawMessage(`{}`),
	})
	require.NoError(t, err)
}
