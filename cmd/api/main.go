package main

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/shopify-support-api/internal/aws"
	"github.com/imrishuroy/shopify-support-api/internal/config"
	"github.com/imrishuroy/shopify-support-api/internal/handlers"
	"github.com/imrishuroy/shopify-support-api/internal/llm"
	"github.com/imrishuroy/shopify-support-api/internal/logger"
	"github.com/imrishuroy/shopify-support-api/internal/shopify"
	"github.com/imrishuroy/shopify-support-api/internal/support"
	"github.com/imrishuroy/shopify-support-api/internal/tracking"
)

func setupRouter(log *zap.Logger, cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), handlers.RequestLogger(log))

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterSupportRoutes(r, cfg)

	return r
}

func buildService(ctx context.Context, cfg config.Config, recorder support.Recorder) (*support.Service, error) {
	opts := []support.Option{support.WithRecorder(recorder)}
	if cfg.Mode == config.ModeNarrative {
		gemini, err := llm.NewGemini(ctx, cfg.LLM)
		if err != nil {
			return nil, err
		}
		opts = append(opts, support.WithCompleter(gemini))
	}

	return support.NewService(cfg.Mode,
		shopify.NewClient(cfg.Shopify, http.DefaultClient),
		tracking.NewClient(cfg.Tracking, http.DefaultClient),
		opts...)
}

func main() {
	ctx := context.Background()

	log, err := logger.Init()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	var (
		handlerCfg handlers.HandlerConfig
		recorder   support.Recorder
	)
	if cfg.AWS.ReplyQueueURL != "" || cfg.AWS.MetricsNamespace != "" {
		clients, err := aws.NewAWSClients(ctx)
		if err != nil {
			log.Fatal("failed to init aws clients", zap.Error(err))
		}
		if cfg.AWS.ReplyQueueURL != "" {
			handlerCfg.Publisher = aws.NewPublisher(clients.SQS, cfg.AWS.ReplyQueueURL)
		}
		if cfg.AWS.MetricsNamespace != "" {
			recorder = aws.NewMetrics(clients.CloudWatch, cfg.AWS.MetricsNamespace,
				map[string]string{"Mode": string(cfg.Mode)})
		}
	}

	svc, err := buildService(ctx, cfg, recorder)
	if err != nil {
		log.Fatal("failed to build support service", zap.Error(err))
	}
	handlerCfg.Replier = svc

	r := setupRouter(log, handlerCfg)

	if cfg.RunLocal {
		log.Info("running local server", zap.String("addr", cfg.HTTPAddr), zap.String("mode", string(cfg.Mode)))
		if err := r.Run(cfg.HTTPAddr); err != nil {
			log.Fatal("failed to run local server", zap.Error(err))
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
