// Package notify публикует почтовые уведомления в Kafka. Сам процесс
// доставки писем живёт за топиком и к этому сервису не относится.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// Message — конверт уведомления, как его видит потребитель топика.
type Message struct {
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	SentAt    time.Time `json:"sent_at"`
}

type KafkaSender struct {
	w *kafka.Writer
}

func NewKafkaSender(brokers []string, topic string) *KafkaSender {
	return &KafkaSender{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

func (s *KafkaSender) Send(ctx context.Context, recipient, subject, body string) error {
	value, err := json.Marshal(Message{
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		SentAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("notify: failed to marshal message: %w", err)
	}

	err = s.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(recipient),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("notify: failed to publish message: %w", err)
	}

	log.Debug().Str("recipient", recipient).Str("subject", subject).Msg("notify: message published")
	return nil
}

func (s *KafkaSender) Close() error {
	return s.w.Close()
}
