package cron

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"interlingo/config"
	"interlingo/models"
)

// QueueClient enqueues settlement jobs for the async worker. Queue
// partitioning keeps one logical job per appointment-payment-operation;
// urgent work goes to the critical queue.
type QueueClient struct {
	client *asynq.Client
}

func NewQueueClient() *QueueClient {
	return &QueueClient{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     config.AppConfig.RedisAddr,
			Password: config.AppConfig.RedisPassword,
			DB:       config.AppConfig.RedisQueueDB,
		}),
	}
}

// EnqueueOperation schedules one settlement operation for an appointment.
func (q *QueueClient) EnqueueOperation(ctx context.Context, appointmentID string, op models.PaymentOperation, urgent bool) error {
	payload, err := json.Marshal(PaymentOperationPayload{
		AppointmentID: appointmentID,
		Operation:     string(op),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal operation payload: %w", err)
	}

	queue := "default"
	if urgent {
		queue = "critical"
	}
	_, err = q.client.EnqueueContext(ctx, asynq.NewTask(TypePaymentOperation, payload), asynq.Queue(queue))
	return err
}

// Close releases the underlying queue connection.
func (q *QueueClient) Close() error {
	return q.client.Close()
}
