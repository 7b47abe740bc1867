package queue

import (
	"testing"

	"github.com/z-wentao/bakbak/pkg/models"
)

func TestMemoryQueueEnqueueDequeue(t *testing.T) {
	q := NewMemoryQueue(2)

	job := &models.IngestJob{RecordingID: "r1", UserID: "u1", FilePath: "uploads/r1.mp3"}
	if err := q.Enqueue(job); err != nil {
		t.Fatalf("入队失败: %v", err)
	}

	got, err := q.Dequeue()
	if err != nil {
		t.Fatalf("出队失败: %v", err)
	}
	if got.RecordingID != "r1" {
		t.Errorf("取到的任务不对: %+v", got)
	}
}

func TestMemoryQueueFull(t *testing.T) {
	q := NewMemoryQueue(1)

	q.Enqueue(&models.IngestJob{RecordingID: "r1"})
	if err := q.Enqueue(&models.IngestJob{RecordingID: "r2"}); err == nil {
		t.Error("队列满时入队应返回错误")
	}
}

func TestMemoryQueueClose(t *testing.T) {
	q := NewMemoryQueue(1)
	q.Close()

	if _, err := q.Dequeue(); err == nil {
		t.Error("队列关闭后出队应返回错误")
	}
}
