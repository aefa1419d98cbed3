package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"golang.org/x/sync/errgroup"

	"lens-backend/internal/bootstrap"
	"lens-backend/internal/queue"
	"lens-backend/internal/shared/config"
	"lens-backend/internal/shared/metrics"
	"lens-backend/internal/shared/telemetry"
	"lens-backend/internal/workerproc"
)

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

type messageHandler interface {
	Handle(ctx context.Context, msg queue.Message) error
}

func main() {
	cfg := config.Load()
	telemetry.Configure(cfg.LogLevel)
	if cfg.SQSQueueURL == "" {
		log.Fatal("SQS_QUEUE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := queue.LoadAWSConfig(ctx, cfg.AWSRegion)
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}
	app, err := bootstrap.Build(ctx, cfg, bootstrap.Options{DisableLocalQueue: true})
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	defer app.Close()

	w := &worker{
		client:     sqs.NewFromConfig(awsCfg),
		queueURL:   cfg.SQSQueueURL,
		handler:    app.Worker,
		visibility: int32(cfg.VisibilityTimeoutSeconds),
	}
	telemetry.Info("worker.started", map[string]any{
		"queue":       cfg.SQSQueueURL,
		"concurrency": cfg.WorkerConcurrency,
		"visibility":  cfg.VisibilityTimeoutSeconds,
	})
	w.run(ctx, cfg.WorkerConcurrency, time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
}

type worker struct {
	client     sqsAPI
	queueURL   string
	handler    messageHandler
	visibility int32
}

// run polls until ctx is cancelled, then waits up to shutdownTimeout for in-flight jobs.
// Jobs keep running on a context detached from ctx so a signal does not abort them.
func (w *worker) run(ctx context.Context, concurrency int, shutdownTimeout time.Duration) {
	jobCtx := context.WithoutCancel(ctx)
	var g errgroup.Group
	g.SetLimit(max(1, concurrency))

	for ctx.Err() == nil {
		resp, err := w.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(w.queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
			VisibilityTimeout:   w.visibility,
			MessageSystemAttributeNames: []sqstypes.MessageSystemAttributeName{
				sqstypes.MessageSystemAttributeNameApproximateReceiveCount,
			},
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				break
			}
			telemetry.Error("worker.receive_failed", map[string]any{"error": err})
			continue
		}
		for _, msg := range resp.Messages {
			m := msg
			metrics.IncJobsReceived()
			g.Go(func() error {
				w.handle(jobCtx, m)
				return nil
			})
		}
	}

	telemetry.Info("worker.draining", map[string]any{"timeout": shutdownTimeout.String()})
	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		telemetry.Warn("worker.shutdown_timeout", nil)
	}
}

func (w *worker) handle(ctx context.Context, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)
	decoded, meta, err := workerproc.ParseMessage(body)
	if err != nil {
		fields := baseFields(msg, decoded)
		fields["body_len"] = meta.BodyLen
		if meta.BodySHA != "" {
			fields["body_sha256"] = meta.BodySHA
		}
		fields["error"] = err.Error()
		telemetry.Error("worker.message_rejected", fields)
		if w.delete(ctx, msg, decoded) {
			metrics.IncJobsDeletedUnrecoverable()
		}
		return
	}

	telemetry.Info("worker.received", baseFields(msg, decoded))
	if err := w.handler.Handle(ctx, decoded); err != nil {
		fields := baseFields(msg, decoded)
		fields["error"] = err.Error()
		metrics.IncJobsFailed()
		if workerproc.ShouldDelete(err) {
			telemetry.Error("worker.failed_permanently", fields)
			if w.delete(ctx, msg, decoded) {
				metrics.IncJobsDeletedUnrecoverable()
			}
			return
		}
		telemetry.Error("worker.failed", fields)
		return
	}

	if w.delete(ctx, msg, decoded) {
		telemetry.Info("worker.completed", baseFields(msg, decoded))
		metrics.IncJobsCompleted()
	}
}

func (w *worker) delete(ctx context.Context, msg sqstypes.Message, decoded queue.Message) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields := baseFields(msg, decoded)
		fields["error"] = "missing receipt handle"
		telemetry.Error("worker.delete_failed", fields)
		return false
	}
	if _, err := w.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(w.queueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields := baseFields(msg, decoded)
		fields["error"] = err.Error()
		telemetry.Error("worker.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(msg sqstypes.Message, decoded queue.Message) map[string]any {
	fields := map[string]any{
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
	}
	if decoded.Kind != "" {
		fields["kind"] = decoded.Kind
	}
	if decoded.FileID != "" {
		fields["candidate_id"] = decoded.FileID
	}
	if strings.TrimSpace(decoded.RequestID) != "" {
		fields["request_id"] = decoded.RequestID
	}
	return fields
}

func receiveCount(msg sqstypes.Message) int {
	raw := msg.Attributes[string(sqstypes.MessageSystemAttributeNameApproximateReceiveCount)]
	if raw == "" {
		return 0
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return parsed
}
