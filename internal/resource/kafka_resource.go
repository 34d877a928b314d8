package resource

import (
	"transcription-service/pkg/config"
	"transcription-service/pkg/kafka"
	"transcription-service/pkg/logger"
	"transcription-service/pkg/manager"
)

// KafkaResource 事件总线，未启用时不创建客户端
type KafkaResource struct {
	enabled bool
}

type KafkaResourcePlugin struct{}

func (p *KafkaResourcePlugin) Name() string { return "kafka" }

func (p *KafkaResourcePlugin) MustCreateResource() manager.Resource { return defaultKafkaResource }

var defaultKafkaResource = &KafkaResource{}

// DefaultKafkaResource 获取 Kafka 资源
func DefaultKafkaResource() *KafkaResource { return defaultKafkaResource }

func (r *KafkaResource) MustOpen() {
	cfg := config.GetGlobalConfig()
	if cfg == nil || !cfg.Kafka.Enabled {
		return
	}
	kafka.DefaultClient().MustOpen()
	if err := kafka.DefaultClient().EnsureTopic(cfg.Kafka.Topics.VideoEvents, 3, 1); err != nil {
		logger.Warnf("ensure kafka topic %s failed: %v", cfg.Kafka.Topics.VideoEvents, err)
	}
	r.enabled = true
}

// Enabled 是否启用
func (r *KafkaResource) Enabled() bool { return r.enabled }

// Client 返回共享的 Kafka 客户端
func (r *KafkaResource) Client() *kafka.Client { return kafka.DefaultClient() }

func (r *KafkaResource) Close() {
	if r.enabled {
		kafka.DefaultClient().Close()
	}
}
