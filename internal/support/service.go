package support

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/imrishuroy/shopify-support-api/internal/config"
	"github.com/imrishuroy/shopify-support-api/internal/logger"
	"github.com/imrishuroy/shopify-support-api/internal/shopify"
	"github.com/imrishuroy/shopify-support-api/internal/tracking"
)

// SystemInstruction is sent with every narrative completion.
const SystemInstruction = "You are a Shopify customer support assistant."

// Metric names counted by the service.
const (
	MetricOrderLookupFailure = "OrderLookupFailure"
	MetricOrderNotFound      = "OrderNotFound"
	MetricTrackingFailure    = "TrackingFailure"
	MetricCompletionFailure  = "CompletionFailure"
	MetricRepliesServed      = "RepliesServed"
)

// ErrCompletionFailed wraps any language-model failure so it stays distinct from lookup errors.
var ErrCompletionFailed = errors.New("completion failed")

// OrderFinder looks up one order.
type OrderFinder interface {
	FindOrder(ctx context.Context, q shopify.Query) (*shopify.Order, error)
}

// TrackingDescriber turns a tracking number into a status line. It never fails.
type TrackingDescriber interface {
	Describe(ctx context.Context, trackingNumber string) string
}

// Completer produces text from a system instruction and a prompt.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Recorder counts events; see the Metric* names.
type Recorder interface {
	Count(ctx context.Context, name string)
}

type nopRecorder struct{}

func (nopRecorder) Count(context.Context, string) {}

// Service runs the lookup workflow: order, then tracking, then reply composition.
type Service struct {
	mode      config.ReplyMode
	orders    OrderFinder
	tracking  TrackingDescriber
	completer Completer
	metrics   Recorder
}

type Option func(*Service)

// WithCompleter sets the language model used in narrative mode.
func WithCompleter(c Completer) Option {
	return func(s *Service) { s.completer = c }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.metrics = r
		}
	}
}

// NewService wires the workflow. Narrative mode requires WithCompleter.
func NewService(mode config.ReplyMode, orders OrderFinder, tracker TrackingDescriber, opts ...Option) (*Service, error) {
	s := &Service{
		mode:     mode,
		orders:   orders,
		tracking: tracker,
		metrics:  nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.mode == config.ModeNarrative && s.completer == nil {
		return nil, errors.New("narrative mode requires a completer")
	}
	return s, nil
}

// Reply looks up the order for q and composes the reply for the configured mode.
func (s *Service) Reply(ctx context.Context, q shopify.Query) (Reply, error) {
	log := logger.FromContext(ctx)

	order, err := s.orders.FindOrder(ctx, q)
	if err != nil {
		if errors.Is(err, shopify.ErrOrderNotFound) {
			s.metrics.Count(ctx, MetricOrderNotFound)
		} else {
			s.metrics.Count(ctx, MetricOrderLookupFailure)
		}
		return Reply{}, err
	}

	trackingNumber, _ := order.Tracking()
	trackingLine := tracking.NoTrackingNumber
	if trackingNumber != "" {
		trackingLine = s.tracking.Describe(ctx, trackingNumber)
		if trackingLine == tracking.Unavailable {
			s.metrics.Count(ctx, MetricTrackingFailure)
		}
	}

	reply := Reply{Mode: s.mode, Summary: Summarize(order, trackingLine)}

	if s.mode == config.ModeNarrative {
		text, err := s.completer.Complete(ctx, SystemInstruction, Prompt(reply.Summary))
		if err != nil {
			s.metrics.Count(ctx, MetricCompletionFailure)
			return Reply{}, fmt.Errorf("%w: %w", ErrCompletionFailed, err)
		}
		reply.Narrative = text
	}

	s.metrics.Count(ctx, MetricRepliesServed)
	log.Info("reply composed",
		zap.String("order_id", reply.Summary.OrderID),
		zap.String("mode", string(s.mode)),
		zap.Bool("has_tracking", trackingNumber != ""))
	return reply, nil
}

// Prompt builds the user prompt for a narrative reply.
func Prompt(s Summary) string {
	ref := s.OrderNumber
	if ref == Unknown {
		ref = s.OrderID
	}
	return fmt.Sprintf("A customer is asking about order %s. Here are the details: %s. Provide a support response.", ref, s.Details())
}
