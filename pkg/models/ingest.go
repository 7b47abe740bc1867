package models

import "time"

// IngestJob 音频入库任务（队列消息）
// 上传完成后入队，由 Worker 异步探测音频并把录音置为 ready/error
type IngestJob struct {
	RecordingID string    `json:"recording_id"`
	UserID      string    `json:"user_id"`
	FilePath    string    `json:"file_path"`
	CreatedAt   time.Time `json:"created_at"`

	// RabbitMQ 相关（不序列化到 JSON）
	DeliveryTag      uint64 `json:"-"` // RabbitMQ delivery tag
	RabbitMQDelivery any    `json:"-"` // RabbitMQ delivery 对象（用于 Ack/Nack）
}
