package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// subscriberBuffer 每个订阅者的缓冲大小
const subscriberBuffer = 64

// Publisher 事件发布接口（对外导出）
type Publisher interface {
	Publish(ctx context.Context, event *AcquisitionEvent) error
}

// Subscriber 事件订阅接口（对外导出）
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan *AcquisitionEvent, error)
}

// Bus 进程内事件总线（对外导出）
type Bus struct {
	pubsub *gochannel.GoChannel
}

// NewBus 创建事件总线（对外导出）
// 发布等待所有订阅者确认，同一发布方的事件按发布顺序送达
func NewBus() *Bus {
	logger := watermill.NewStdLogger(false, false)
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer:            subscriberBuffer,
				Persistent:                     false,
				BlockPublishUntilSubscriberAck: true,
			},
			logger,
		),
	}
}

// Publish 发布事件（对外导出）
func (b *Bus) Publish(ctx context.Context, event *AcquisitionEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("event_type", string(event.Type))
	msg.Metadata.Set("execution_id", event.ExecutionID)
	msg.Metadata.Set("timestamp", event.Timestamp.Format(time.RFC3339Nano))
	msg.SetContext(ctx)

	if err := b.pubsub.Publish(TopicExecutions, msg); err != nil {
		return fmt.Errorf("发布事件失败: %w", err)
	}
	return nil
}

// Subscribe 订阅执行事件，ctx结束后返回的channel被关闭（对外导出）
func (b *Bus) Subscribe(ctx context.Context) (<-chan *AcquisitionEvent, error) {
	messages, err := b.pubsub.Subscribe(ctx, TopicExecutions)
	if err != nil {
		return nil, fmt.Errorf("订阅事件失败: %w", err)
	}

	out := make(chan *AcquisitionEvent, subscriberBuffer)
	go func() {
		defer close(out)
		for msg := range messages {
			var event AcquisitionEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				log.Printf("⚠️ [事件总线] 反序列化事件失败: %v", err)
				msg.Ack()
				continue
			}
			msg.Ack()
			select {
			case out <- &event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close 关闭事件总线（对外导出）
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// 确保实现接口
var (
	_ Publisher  = (*Bus)(nil)
	_ Subscriber = (*Bus)(nil)
)
