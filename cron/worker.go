package cron

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"

	"interlingo/config"
	paymentRepo "interlingo/database/repository/payment"
	"interlingo/models"
	"interlingo/services/payment"
	"interlingo/services/waitlist"
)

const (
	TypePaymentOperation = "payment:operation"
	TypeWaitListScan     = "waitlist:scan"
)

// PaymentOperationPayload is the job body for one settlement operation.
// One logical job per appointment-payment-operation.
type PaymentOperationPayload struct {
	AppointmentID string `json:"appointmentId"`
	Operation     string `json:"operation"`
}

// InitPaymentWorker runs the async settlement worker in background.
func InitPaymentWorker(engine payment.SettlementEngine, repo paymentRepo.PaymentRepository, coordinator *waitlist.Coordinator) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: config.AppConfig.WorkerConcurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypePaymentOperation, handlePaymentOperationTask(engine, repo))
	mux.HandleFunc(TypeWaitListScan, handleWaitListScanTask(coordinator))

	// Periodic wait-list scan.
	scheduler := asynq.NewScheduler(redisOpts, nil)
	if _, err := scheduler.Register(
		config.AppConfig.WaitListScanSchedule,
		asynq.NewTask(TypeWaitListScan, nil),
		asynq.Queue("critical"),
	); err != nil {
		log.Fatalf("[PaymentWorker] failed to register wait-list scan: %v", err)
	}

	// Start Redis health monitor
	go monitorRedisConnection()

	go func() {
		log.Println("[PaymentWorker] starting wait-list scan scheduler...")
		if err := scheduler.Run(); err != nil {
			log.Printf("[PaymentWorker] scheduler stopped: %v", err)
		}
	}()

	// Start async worker with retry logic
	go func() {
		log.Println("[PaymentWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[PaymentWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[PaymentWorker] max retry attempts reached, exiting")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

func handlePaymentOperationTask(engine payment.SettlementEngine, repo paymentRepo.PaymentRepository) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p PaymentOperationPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[PaymentOperation] invalid payload: %v", err)
			return asynq.SkipRetry
		}

		op, err := models.ParsePaymentOperation(p.Operation)
		if err != nil {
			log.Printf("[PaymentOperation] %v", err)
			return asynq.SkipRetry
		}

		pay, err := repo.GetByAppointmentID(ctx, p.AppointmentID)
		if err != nil {
			return err
		}

		result, err := engine.RunOperation(ctx, pay, op)
		if err != nil {
			// Rejections and state conflicts are handled by the wait-list
			// and reconciliation paths; re-running the job cannot fix them.
			if errors.Is(err, payment.ErrProviderRejected) ||
				errors.Is(err, payment.ErrInvalidTransition) ||
				errors.Is(err, payment.ErrCannotCancelAfterCapture) ||
				errors.Is(err, payment.ErrPartialCapture) {
				log.Printf("[PaymentOperation] %s %s not retryable: %v", p.AppointmentID, op, err)
				return asynq.SkipRetry
			}
			return err
		}

		log.Printf("[PaymentOperation] %s %s done (providerRef=%s)", p.AppointmentID, op, result.ProviderReference)
		return nil
	}
}

func handleWaitListScanTask(coordinator *waitlist.Coordinator) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		report, err := coordinator.Scan(ctx)
		if err != nil {
			log.Printf("[WaitListScan] scan failed: %v", err)
			return err
		}
		log.Printf("[WaitListScan] processed=%d succeeded=%d remaining=%d exhausted=%d",
			report.Processed, report.Succeeded, report.Remaining, report.Exhausted)
		return nil
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[PaymentWorker] Redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}
