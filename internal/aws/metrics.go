package aws

import (
	"context"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"

	"github.com/imrishuroy/shopify-support-api/internal/logger"
)

// Metrics publishes single-count CloudWatch data points under one namespace.
type Metrics struct {
	cw         CloudWatchAPI
	namespace  string
	dimensions []cwtypes.Dimension
}

// NewMetrics returns a recorder; every datum carries the given dimensions.
func NewMetrics(cw CloudWatchAPI, namespace string, dimensions map[string]string) *Metrics {
	dims := make([]cwtypes.Dimension, 0, len(dimensions))
	for k, v := range dimensions {
		dims = append(dims, cwtypes.Dimension{Name: sdkaws.String(k), Value: sdkaws.String(v)})
	}
	return &Metrics{cw: cw, namespace: namespace, dimensions: dims}
}

// Count adds one to metric name. Failures are logged, never returned.
func (m *Metrics) Count(ctx context.Context, name string) {
	_, err := m.cw.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: sdkaws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{{
			MetricName: sdkaws.String(name),
			Value:      sdkaws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: m.dimensions,
		}},
	})
	if err != nil {
		logger.FromContext(ctx).Warn("put metric failed", zap.String("metric", name), zap.Error(err))
	}
}
