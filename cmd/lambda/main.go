package main

import (
	"context"
	"log"
	"strings"
	"time"

	"dashboard/infrastructure/config"
	"dashboard/infrastructure/di"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Global variables for Lambda lifecycle management
var (
	// chiLambda wraps the Chi router for AWS Lambda integration
	chiLambda *chiadapter.ChiLambdaV2

	// container holds the dependency injection container
	container *di.Container

	// coldStart tracks whether this is a cold start invocation
	coldStart = true

	// coldStartTime records when the cold start began
	coldStartTime time.Time
)

var trustedHeaders = []string{"X-API-Gateway-Authorized", "X-User-ID", "X-User-Roles", "X-User-Email"}

// init runs during cold start
func init() {
	coldStartTime = time.Now()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	// Requests arrive through API Gateway, which has already run the JWT authorizer
	cfg.IsLambda = true

	container, err = di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	// Create Lambda adapter - need to type assert to *chi.Mux
	chiRouter, ok := container.Router.Setup().(*chi.Mux)
	if !ok {
		log.Fatal("Failed to cast handler to chi.Mux")
	}
	chiLambda = chiadapter.NewV2(chiRouter)

	container.Logger.Info("Lambda cold start completed",
		zap.Duration("duration", time.Since(coldStartTime)),
	)
}

// Handler is the Lambda function handler
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	if req.Headers == nil {
		req.Headers = make(map[string]string)
	}

	// Caller identity only ever comes from the gateway authorizer
	for _, h := range trustedHeaders {
		delete(req.Headers, h)
		delete(req.Headers, strings.ToLower(h))
	}
	if authz := req.RequestContext.Authorizer; authz != nil && authz.JWT != nil {
		req.Headers["X-API-Gateway-Authorized"] = "true"
		if sub, ok := authz.JWT.Claims["sub"]; ok {
			req.Headers["X-User-ID"] = sub
		}
		if roles, ok := authz.JWT.Claims["roles"]; ok {
			req.Headers["X-User-Roles"] = roles
		}
	}

	resp, err := chiLambda.ProxyWithContextV2(ctx, req)
	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}

	if coldStart {
		resp.Headers["X-Cold-Start"] = "true"
		coldStart = false
	}
	if req.RequestContext.RequestID != "" {
		resp.Headers["X-Request-ID"] = req.RequestContext.RequestID
	}

	if resp.StatusCode >= 500 {
		container.Logger.Error("Lambda error response",
			zap.String("method", req.RequestContext.HTTP.Method),
			zap.String("path", req.RequestContext.HTTP.Path),
			zap.String("requestId", req.RequestContext.RequestID),
			zap.Int("statusCode", resp.StatusCode),
		)
	}

	// Lambda freezes between invocations, so buffered metrics go out now
	if ferr := container.Metrics.Flush(ctx); ferr != nil {
		container.Logger.Warn("Failed to flush metrics", zap.Error(ferr))
	}
	return resp, err
}

// main is the entry point for the Lambda function
func main() {
	lambda.Start(Handler)
}
