package worker

import (
	"context"
	"log"

	"github.com/z-wentao/bakbak/pkg/media"
	"github.com/z-wentao/bakbak/pkg/models"
	"github.com/z-wentao/bakbak/pkg/queue"
	"github.com/z-wentao/bakbak/pkg/storage"
)

// Worker 音频入库处理器
// 消费 IngestJob：探测音频时长，把录音从 processing 推进到 ready / error
type Worker struct {
	queue  queue.Queue
	store  storage.Store
	ctx    context.Context
	cancel context.CancelFunc
}

// NewWorker 创建 Worker
func NewWorker(q queue.Queue, store storage.Store) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	return &Worker{
		queue:  q,
		store:  store,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start 启动 Worker（在独立的 Goroutine 中运行）
func (w *Worker) Start() {
	go w.run()
}

// Stop 停止 Worker
func (w *Worker) Stop() {
	log.Println("正在停止入库 Worker...")
	w.cancel()
}

// run Worker 主循环
func (w *Worker) run() {
	log.Println("入库 Worker 已启动，等待任务...")

	for {
		// 检查是否需要停止
		select {
		case <-w.ctx.Done():
			log.Println("入库 Worker 已停止")
			return
		default:
		}

		// 从队列获取任务（阻塞）
		job, err := w.queue.Dequeue()
		if err != nil {
			select {
			case <-w.ctx.Done():
				log.Println("入库 Worker 已停止")
				return
			default:
			}
			log.Printf("从队列获取任务失败: %v", err)
			continue
		}

		// 处理任务
		w.processJob(job)
	}
}

// processJob 处理单个入库任务
func (w *Worker) processJob(job *models.IngestJob) {
	log.Printf("📥 开始入库: 录音 %s (%s)", job.RecordingID, job.FilePath)

	// 1. 探测音频时长
	duration, probeErr := media.Duration(job.FilePath)

	// 2. 根据探测结果推进录音状态
	var updateErr error
	if probeErr != nil {
		log.Printf("❌ 音频探测失败: 录音 %s, 错误: %v", job.RecordingID, probeErr)
		updateErr = w.store.Update(job.RecordingID, job.UserID, func(r *models.Recording) {
			r.Status = models.RecordingError
			r.Error = probeErr.Error()
		})
	} else {
		updateErr = w.store.Update(job.RecordingID, job.UserID, func(r *models.Recording) {
			r.Status = models.RecordingReady
			r.Duration = duration
			r.Error = ""
		})
	}

	// 3. 写库失败则重新入队，等下次重试
	if updateErr != nil {
		log.Printf("⚠️ 更新录音状态失败: %s, 错误: %v", job.RecordingID, updateErr)
		w.queue.Nack(job, true)
		return
	}

	// 4. 确认消息
	w.queue.Ack(job)

	if probeErr == nil {
		log.Printf("✓ 入库完成: 录音 %s, 时长 %.2f 秒", job.RecordingID, duration)
	}
}
