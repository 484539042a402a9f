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

	"github.com/karthik1704/rsr-v1/internal/bootstrap"
	"github.com/karthik1704/rsr-v1/internal/shared/config"
	"github.com/karthik1704/rsr-v1/internal/shared/server/respond"
	"github.com/karthik1704/rsr-v1/internal/shared/telemetry"
)

var (
	initOnce  sync.Once
	initErr   error
	ginLambda *ginadapter.GinLambdaV2
)

// initApp runs once per container. Stripe webhooks and the UI share this
// function, so a failed cold start answers every route with the same envelope.
func initApp() {
	cfg := config.Load()
	telemetry.Init(cfg.Env)
	app, err := bootstrap.Build(cfg)
	if err != nil {
		initErr = err
		telemetry.Error("lambda.cold_start_failed", map[string]any{"error": err.Error()})
		return
	}
	telemetry.Info("lambda.cold_start", map[string]any{"env": cfg.Env, "database": app.DB != nil})
	ginLambda = ginadapter.NewV2(app.Router)
}

func handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil || ginLambda == nil {
		return unavailable(req), nil
	}
	resp, err := ginLambda.ProxyWithContext(ctx, req)
	telemetry.Sync()
	return resp, err
}

func unavailable(req events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPResponse {
	telemetry.Error("lambda.unavailable", map[string]any{
		"route":      req.RouteKey,
		"request_id": req.RequestContext.RequestID,
	})
	body, _ := json.Marshal(respond.ErrorResponse{Error: respond.ErrorBody{
		Code:    "unavailable",
		Message: "service is starting up, retry shortly",
	}})
	return events.APIGatewayV2HTTPResponse{
		StatusCode: http.StatusServiceUnavailable,
		Body:       string(body),
		Headers:    map[string]string{"Content-Type": "application/json", "Retry-After": "5"},
	}
}

func main() {
	lambda.Start(handler)
}
