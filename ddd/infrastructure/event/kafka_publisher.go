package event

import (
	"context"
	"encoding/json"
	"strconv"

	"transcription-service/ddd/domain/gateway"
)

// producer Kafka 客户端中用到的方法
type producer interface {
	Produce(ctx context.Context, topic string, key, value []byte) error
}

// KafkaPublisher 把视频事件写入 Kafka，key 为视频 id 以保证同一视频的事件有序
type KafkaPublisher struct {
	producer producer
	topic    string
}

// NewKafkaPublisher 创建 Kafka 事件发布器
func NewKafkaPublisher(p producer, topic string) gateway.EventPublisher {
	return &KafkaPublisher{producer: p, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e gateway.VideoEvent) error {
	value, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.producer.Produce(ctx, p.topic, []byte(strconv.FormatInt(e.VideoID, 10)), value)
}

// NopPublisher Kafka 未启用时使用
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, gateway.VideoEvent) error { return nil }
