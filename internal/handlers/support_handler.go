package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/imrishuroy/shopify-support-api/internal/journal"
	"github.com/imrishuroy/shopify-support-api/internal/logger"
	"github.com/imrishuroy/shopify-support-api/internal/shopify"
	"github.com/imrishuroy/shopify-support-api/internal/support"
	"github.com/imrishuroy/shopify-support-api/internal/validation"
)

// NotFoundMessage is the body text for a lookup that matched nothing.
const NotFoundMessage = "No order found."

// Replier runs the lookup workflow.
type Replier interface {
	Reply(ctx context.Context, q shopify.Query) (support.Reply, error)
}

// EventPublisher sends reply events downstream.
type EventPublisher interface {
	Publish(ctx context.Context, payload any, attributes map[string]string) error
}

// HandlerConfig groups dependencies for the support handler.
type HandlerConfig struct {
	Replier Replier
	// Publisher is optional; nil disables reply events.
	Publisher EventPublisher
}

// RegisterSupportRoutes registers GET /order_info.
func RegisterSupportRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()

	r.GET("/order_info", func(c *gin.Context) {
		ctx := c.Request.Context()

		var q validation.OrderInfoQuery
		if err := validation.BindQueryAndValidate(c, &q, v); err != nil {
			// BindQueryAndValidate already wrote a 400
			return
		}

		reply, err := cfg.Replier.Reply(ctx, shopify.Query{OrderID: q.OrderID, CustomerName: q.CustomerName})
		if err != nil {
			writeLookupError(c, err)
			return
		}

		if cfg.Publisher != nil {
			publishReply(ctx, cfg.Publisher, reply)
		}

		c.JSON(http.StatusOK, reply.Body())
	})
}

// writeLookupError maps the workflow's error taxonomy onto status codes.
func writeLookupError(c *gin.Context, err error) {
	log := logger.FromContext(c.Request.Context())

	var upstream *shopify.UpstreamError
	switch {
	case errors.Is(err, shopify.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": NotFoundMessage})

	case errors.As(err, &upstream):
		log.Warn("order api failure", zap.Int("upstream_status", upstream.StatusCode))
		c.JSON(http.StatusBadGateway, gin.H{
			"error":       fmt.Sprintf("Error retrieving order: %d", upstream.StatusCode),
			"status_code": upstream.StatusCode,
			"body":        upstream.Body,
		})

	case errors.Is(err, support.ErrCompletionFailed):
		log.Error("completion failure", zap.Error(err))
		status := http.StatusBadGateway
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		c.JSON(status, gin.H{"error": "Error generating support response: " + err.Error()})

	case errors.Is(err, shopify.ErrEmptyQuery):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.MissingInputMessage})

	default:
		log.Error("order lookup failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Error retrieving order: " + err.Error()})
	}
}

func publishReply(ctx context.Context, p EventPublisher, reply support.Reply) {
	requestID := logger.RequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	ev := journal.ReplyEvent{
		RequestID:   requestID,
		OrderID:     reply.Summary.OrderID,
		OrderNumber: reply.Summary.OrderNumber,
		Mode:        string(reply.Mode),
		Status:      reply.Summary.Status,
		Tracking:    reply.Summary.Tracking,
		RepliedAt:   time.Now().UTC(),
	}
	attrs := map[string]string{
		"request_id": ev.RequestID,
		"order_id":   ev.OrderID,
		"mode":       ev.Mode,
	}
	if err := p.Publish(ctx, ev, attrs); err != nil {
		logger.FromContext(ctx).Warn("publish reply event failed", zap.Error(err))
	}
}
