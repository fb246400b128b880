package events

import (
	"context"
	"time"

	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/domain/model"
	repo "github.com/JoGabriel-Carvalho/santuario-geek-server/internal/repository"

	"github.com/segmentio/kafka-go"
)

// kafka.Writer の送信部分だけ
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// 未送信の outbox_events を読んで Kafka に流す。送れたら sent_at を埋める。
// 少なくとも1回届く。重複は event_id ヘッダで弾いてもらう。
type OutboxPoller struct {
	repo     repo.OutboxRepository
	writer   MessageWriter
	interval time.Duration
	batch    int
	logger   Logger
	now      func() time.Time
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

func NewOutboxPoller(r repo.OutboxRepository, w MessageWriter, interval time.Duration, logger Logger) *OutboxPoller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &OutboxPoller{
		repo:     r,
		writer:   w,
		interval: interval,
		batch:    100,
		logger:   logger,
		now:      time.Now,
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := p.PublishPending(ctx); err != nil {
				p.logger.Warnf("outbox: fetch pending failed: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// 1バッチ分送る。送れた件数を返す。
// 送信失敗したイベントで止める（順序を崩さないため）。
func (p *OutboxPoller) PublishPending(ctx context.Context) (int, error) {
	events, err := p.repo.FetchPending(ctx, p.batch)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, ev := range events {
		if err := p.writer.WriteMessages(ctx, toMessage(ev)); err != nil {
			p.logger.Warnf("outbox: publish event id=%d type=%s failed: %v", ev.ID, ev.EventType, err)
			break
		}
		if err := p.repo.MarkSent(ctx, ev.ID, p.now()); err != nil {
			p.logger.Warnf("outbox: mark sent id=%d failed: %v", ev.ID, err)
			break
		}
		sent++
	}
	return sent, nil
}

func toMessage(ev model.OutboxEvent) kafka.Message {
	return kafka.Message{
		// 同じ注文のイベントは同じパーティションへ
		Key:   []byte(ev.AggregateID),
		Value: ev.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.EventType)},
			{Key: "event_id", Value: []byte(ev.EventID)},
		},
		Time: ev.CreatedAt.UTC(),
	}
}
