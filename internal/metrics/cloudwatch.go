// Package metrics publishes service counters to CloudWatch.
package metrics

import (
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/imrishuroy/bargainbot/internal/aws"
)

// Metric names emitted by the service.
const (
	NegotiationSucceeded = "NegotiationSucceeded"
	NegotiationFailed    = "NegotiationFailed"
	PreferencesUpdated   = "PreferencesUpdated"
	OracleFailed         = "OracleFailed"
	OrdersPlaced         = "OrdersPlaced"
	OrdersDispatched     = "OrdersDispatched"
)

// Recorder counts named events.
type Recorder interface {
	Incr(ctx context.Context, name string, dims map[string]string) error
}

// Nop discards every metric.
type Nop struct{}

func (Nop) Incr(context.Context, string, map[string]string) error { return nil }

// CloudWatch writes one Count datum per Incr.
type CloudWatch struct {
	client    aws.CloudWatchAPI
	namespace string
	nowFunc   func() time.Time
}

// NewCloudWatch returns a CloudWatch recorder, or Nop when namespace is empty.
func NewCloudWatch(client aws.CloudWatchAPI, namespace string) Recorder {
	if client == nil || namespace == "" {
		return Nop{}
	}
	return &CloudWatch{
		client:    client,
		namespace: namespace,
		nowFunc:   time.Now,
	}
}

func (c *CloudWatch) Incr(ctx context.Context, name string, dims map[string]string) error {
	datum := cwtypes.MetricDatum{
		MetricName: sdkaws.String(name),
		Unit:       cwtypes.StandardUnitCount,
		Value:      sdkaws.Float64(1),
		Timestamp:  sdkaws.Time(c.nowFunc()),
	}
	for k, v := range dims {
		datum.Dimensions = append(datum.Dimensions, cwtypes.Dimension{
			Name:  sdkaws.String(k),
			Value: sdkaws.String(v),
		})
	}

	_, err := c.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  sdkaws.String(c.namespace),
		MetricData: []cwtypes.MetricDatum{datum},
	})
	if err != nil {
		return fmt.Errorf("put metric %s: %w", name, err)
	}
	return nil
}
