package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker

import (
	"context"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"lens-backend/internal/bootstrap"
	"lens-backend/internal/shared/config"
	"lens-backend/internal/shared/telemetry"
	"lens-backend/internal/workerproc"
)

type bodyHandler interface {
	HandleBody(ctx context.Context, body string) error
}

var (
	initOnce sync.Once
	initErr  error
	handler  bodyHandler
)

func initApp() {
	cfg := config.Load()
	telemetry.Configure(cfg.LogLevel)
	app, err := bootstrap.Build(context.Background(), cfg, bootstrap.Options{DisableLocalQueue: true})
	if err != nil {
		initErr = err
		return
	}
	handler = app.Worker
}

func handle(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		telemetry.Error("lambda_worker.bootstrap_failed", map[string]any{"error": initErr})
		failures := make([]events.SQSBatchItemFailure, 0, len(event.Records))
		for _, record := range event.Records {
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
		return events.SQSEventResponse{BatchItemFailures: failures}, initErr
	}
	return processBatch(ctx, handler, event), nil
}

// processBatch reports retryable failures back to SQS. Permanent failures are
// acknowledged so they do not cycle through the queue.
func processBatch(ctx context.Context, h bodyHandler, event events.SQSEvent) events.SQSEventResponse {
	failures := make([]events.SQSBatchItemFailure, 0)
	for _, record := range event.Records {
		err := h.HandleBody(ctx, record.Body)
		if err == nil {
			continue
		}
		fields := map[string]any{"sqs_message_id": record.MessageId, "error": err.Error()}
		if workerproc.ShouldDelete(err) {
			telemetry.Error("lambda_worker.failed_permanently", fields)
			continue
		}
		telemetry.Error("lambda_worker.failed", fields)
		failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
	}
	return events.SQSEventResponse{BatchItemFailures: failures}
}

func main() {
	lambda.Start(handle)
}
