package queue

import "github.com/z-wentao/bakbak/pkg/models"

// Queue 音频入库任务队列接口
// 使用接口抽象，内存队列和 RabbitMQ 可以按配置切换
type Queue interface {
	// Enqueue 将任务加入队列
	Enqueue(job *models.IngestJob) error

	// Dequeue 从队列取出任务（阻塞）
	Dequeue() (*models.IngestJob, error)

	// Ack 确认消息（任务处理成功）
	Ack(job *models.IngestJob) error

	// Nack 拒绝消息（任务处理失败）
	// requeue: 是否重新入队
	Nack(job *models.IngestJob, requeue bool) error

	// Close 关闭队列
	Close() error
}
