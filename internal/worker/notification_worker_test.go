package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tablebook/reservation-service/internal/config"
	"github.com/tablebook/reservation-service/internal/events"
	"github.com/tablebook/reservation-service/internal/service"
)

func TestStartNotificationWorkerSubscribes(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher()
	notifications := service.NewNotificationService(dispatcher, zap.New(core), config.NotificationConfig{
		EmailFrom:  "noreply@example.com",
		WebhookURL: "http://hooks.local/tables",
	})

	StartNotificationWorker(notifications)
	StartNotificationWorker(nil)

	ctx := context.Background()
	require.NoError(t, dispatcher.Publish(ctx, events.NewEvent(events.EventReservationCreated, 1, time.Now(), events.ReservationPayload{ReservationID: 9})))
	require.NoError(t, dispatcher.Publish(ctx, events.NewEvent(events.EventReservationCancelled, 1, time.Now(), nil)))
	require.NoError(t, dispatcher.Publish(ctx, events.NewEvent(events.EventTableDeleted, 1, time.Now(), events.TableDeletedPayload{TableID: 2})))

	assert.Equal(t, 1, logs.FilterMessage("ReservationCreated").Len())
	assert.Equal(t, 1, logs.FilterMessage("ReservationCancelled").Len())
	assert.Equal(t, 1, logs.FilterMessage("TableDeleted").Len())
	assert.Equal(t, 2, logs.FilterMessage("sendEmailNotificationStub").Len())
	assert.Equal(t, 2, logs.FilterMessage("sendWebhookNotificationStub").Len())
}
