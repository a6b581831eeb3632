package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/imrishuroy/shopify-support-api/internal/aws"
	"github.com/imrishuroy/shopify-support-api/internal/config"
	"github.com/imrishuroy/shopify-support-api/internal/journal"
	"github.com/imrishuroy/shopify-support-api/internal/logger"
)

func main() {
	ctx := context.Background()

	log, err := logger.Init()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.LoadWorker()
	if err != nil {
		log.Fatal("failed to load worker config", zap.Error(err))
	}

	clients, err := aws.NewAWSClients(ctx)
	if err != nil {
		log.Fatal("failed to init aws clients", zap.Error(err))
	}

	p := NewProcessor(journal.NewStore(clients.DynamoDB, cfg.JournalTable, cfg.JournalTTL))

	// RUN_LOCAL processes LOCAL_SQS_BODY once instead of starting the Lambda runtime.
	if cfg.RunLocal {
		event := events.SQSEvent{
			Records: []events.SQSMessage{{MessageId: "local", Body: cfg.LocalBody}},
		}
		if err := p.Handle(logger.WithLogger(ctx, log), event); err != nil {
			log.Fatal("local handler error", zap.Error(err))
		}
		return
	}

	lambda.Start(func(ctx context.Context, ev events.SQSEvent) error {
		return p.Handle(logger.WithLogger(ctx, log), ev)
	})
}
