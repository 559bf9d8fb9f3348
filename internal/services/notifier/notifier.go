// internal/services/notifier/notifier.go
package notifier

import (
	"context"
	"encoding/json"
	"strings"

	commonaws "leadgenius/internal/common/aws"
	"leadgenius/internal/common/errors"
	"leadgenius/internal/common/logger"
	"leadgenius/internal/common/metrics"
	"leadgenius/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

const EventLeadAnalyzed = "lead.analyzed"

var scoreRank = map[string]int{
	models.OpportunityLow:    1,
	models.OpportunityMedium: 2,
	models.OpportunityHigh:   3,
}

type Config struct {
	Enabled  bool
	TopicARN string
	// MinScore is the lowest opportunity score that gets published.
	MinScore string
}

// Notifier publishes lead events to an SNS topic.
type Notifier struct {
	client commonaws.SNSPublisher
	config Config
	logger logger.Logger
}

func New(client commonaws.SNSPublisher, cfg Config, log logger.Logger) *Notifier {
	cfg.MinScore = strings.ToUpper(strings.TrimSpace(cfg.MinScore))
	if cfg.MinScore == "" {
		cfg.MinScore = models.OpportunityHigh
	}
	return &Notifier{client: client, config: cfg, logger: log.With(map[string]interface{}{"service": "notifier"})}
}

// Enabled reports whether publishing is switched on and a topic is set.
func (n *Notifier) Enabled() bool {
	return n != nil && n.config.Enabled && n.config.TopicARN != "" && n.client != nil
}

// Qualifies reports whether score is at or above the configured minimum.
func (n *Notifier) Qualifies(score string) bool {
	return scoreRank[strings.ToUpper(score)] >= scoreRank[n.config.MinScore]
}

// Publish sends event when publishing is enabled and the score qualifies.
// It returns the SNS message id and whether anything was sent.
func (n *Notifier) Publish(ctx context.Context, event models.LeadEvent) (string, bool, error) {
	if !n.Enabled() {
		return "", false, nil
	}
	if !n.Qualifies(event.OpportunityScore) {
		n.logger.Debug("lead below notification threshold", map[string]interface{}{
			"placeId":          event.PlaceID,
			"opportunityScore": event.OpportunityScore,
			"minScore":         n.config.MinScore,
		})
		return "", false, nil
	}
	if event.Type == "" {
		event.Type = EventLeadAnalyzed
	}

	body, err := json.Marshal(event)
	if err != nil {
		return "", false, errors.NewInternalError(err)
	}

	out, err := n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.config.TopicARN),
		Message:  aws.String(string(body)),
		Subject:  aws.String("Lead analyzed: " + truncate(event.Name, 80)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"opportunityScore": {DataType: aws.String("String"), StringValue: aws.String(event.OpportunityScore)},
			"eventType":        {DataType: aws.String("String"), StringValue: aws.String(event.Type)},
		},
	})
	metrics.ObserveExternalCall("sns", err)
	if err != nil {
		n.logger.Error("failed to publish lead event", map[string]interface{}{"placeId": event.PlaceID, "error": err.Error()})
		return "", false, errors.NewNotificationSendFailedError("sns", err)
	}

	messageID := aws.ToString(out.MessageId)
	n.logger.Info("lead event published", map[string]interface{}{"placeId": event.PlaceID, "messageId": messageID})
	return messageID, true, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
