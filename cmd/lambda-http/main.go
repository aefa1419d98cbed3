package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"

	"lens-backend/internal/bootstrap"
	"lens-backend/internal/shared/config"
	"lens-backend/internal/shared/telemetry"
)

// proxy builds the app on the first invocation and reuses it for the life of
// the execution environment. A failed build is retried on the next invocation.
type proxy struct {
	mu      sync.Mutex
	adapter *ginadapter.GinLambdaV2
	build   func(ctx context.Context) (*ginadapter.GinLambdaV2, error)
}

func (p *proxy) get(ctx context.Context) (*ginadapter.GinLambdaV2, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.adapter != nil {
		return p.adapter, nil
	}
	adapter, err := p.build(ctx)
	if err != nil {
		return nil, err
	}
	p.adapter = adapter
	return adapter, nil
}

func (p *proxy) handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	adapter, err := p.get(ctx)
	if err != nil {
		telemetry.Error("lambda_http.bootstrap_failed", map[string]any{
			"error":      err,
			"request_id": req.RequestContext.RequestID,
		})
		body, _ := json.Marshal(map[string]any{"success": false, "error": "service unavailable", "code": "bootstrap_failed"})
		return events.APIGatewayV2HTTPResponse{
			StatusCode: http.StatusServiceUnavailable,
			Body:       string(body),
			Headers:    map[string]string{"Content-Type": "application/json"},
		}, nil
	}
	return adapter.ProxyWithContext(ctx, req)
}

// buildAdapter skips the in-process queue: a Lambda may freeze between
// invocations, so uploads are only dispatched when SQS_QUEUE_URL is set.
func buildAdapter(ctx context.Context) (*ginadapter.GinLambdaV2, error) {
	cfg := config.Load()
	telemetry.Configure(cfg.LogLevel)
	app, err := bootstrap.Build(ctx, cfg, bootstrap.Options{DisableLocalQueue: true})
	if err != nil {
		return nil, err
	}
	return ginadapter.NewV2(app.Router), nil
}

func main() {
	p := &proxy{build: buildAdapter}
	lambda.Start(p.handle)
}
