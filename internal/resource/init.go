package resource

import "transcription-service/pkg/manager"

func init() {
	// 注册资源插件，按注册顺序打开
	manager.RegisterResourcePlugin(&DatabaseResourcePlugin{})
	manager.RegisterResourcePlugin(&RedisResourcePlugin{})
	manager.RegisterResourcePlugin(&MinioResourcePlugin{})
	manager.RegisterResourcePlugin(&KafkaResourcePlugin{})
}
