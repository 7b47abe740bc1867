package storage

import (
	"testing"
	"time"

	"github.com/z-wentao/bakbak/pkg/models"
)

func newRecording(id, userID string) *models.Recording {
	now := time.Now()
	return &models.Recording{
		ID:       id,
		UserID:   userID,
		Title:    "测试录音",
		Language: "ja",
		Status:   models.RecordingReady,
		Transcription: models.Transcription{
			Status:   models.TranscriptionNotStarted,
			Language: "ja",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestMemoryStoreOwnership(t *testing.T) {
	store := NewMemoryStore()
	store.Save(newRecording("r1", "u1"))

	// 本人能读到
	if _, err := store.Get("r1", "u1"); err != nil {
		t.Fatalf("本人读取应该成功: %v", err)
	}

	// 别人的录音等同于不存在
	if _, err := store.Get("r1", "u2"); err != ErrNotFound {
		t.Errorf("跨用户读取应返回 ErrNotFound, 实际 %v", err)
	}
	if err := store.Update("r1", "u2", func(r *models.Recording) {}); err != ErrNotFound {
		t.Errorf("跨用户更新应返回 ErrNotFound, 实际 %v", err)
	}
	if err := store.Delete("r1", "u2"); err != ErrNotFound {
		t.Errorf("跨用户删除应返回 ErrNotFound, 实际 %v", err)
	}
}

func TestMemoryStoreUpdateReadAfterWrite(t *testing.T) {
	// poll 写完立刻重读必须看到自己的写入
	store := NewMemoryStore()
	store.Save(newRecording("r1", "u1"))

	err := store.Update("r1", "u1", func(r *models.Recording) {
		r.Transcription.Status = models.TranscriptionInProgress
		r.Transcription.JobID = "j1"
	})
	if err != nil {
		t.Fatalf("更新失败: %v", err)
	}

	rec, err := store.Get("r1", "u1")
	if err != nil {
		t.Fatalf("读取失败: %v", err)
	}
	if rec.Transcription.Status != models.TranscriptionInProgress || rec.Transcription.JobID != "j1" {
		t.Errorf("未读到自己的写入: %+v", rec.Transcription)
	}
}

func TestMemoryStoreUpdateRefreshesUpdatedAt(t *testing.T) {
	store := NewMemoryStore()
	rec := newRecording("r1", "u1")
	rec.UpdatedAt = time.Now().Add(-time.Hour)
	store.Save(rec)

	store.Update("r1", "u1", func(r *models.Recording) {
		r.Title = "新标题"
	})

	got, _ := store.Get("r1", "u1")
	if !got.UpdatedAt.After(rec.UpdatedAt) {
		t.Errorf("UpdatedAt 应被刷新: %v", got.UpdatedAt)
	}
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	// Get 返回副本：改副本不应影响存储里的数据
	store := NewMemoryStore()
	store.Save(newRecording("r1", "u1"))

	rec, _ := store.Get("r1", "u1")
	rec.Transcription.Status = models.TranscriptionCompleted
	rec.Notes = append(rec.Notes, models.Note{ID: "n1", Text: "偷偷改"})

	fresh, _ := store.Get("r1", "u1")
	if fresh.Transcription.Status != models.TranscriptionNotStarted {
		t.Errorf("存储内状态被副本污染: %s", fresh.Transcription.Status)
	}
	if len(fresh.Notes) != 0 {
		t.Errorf("存储内笔记被副本污染: %d 条", len(fresh.Notes))
	}
}

func TestMemoryStoreList(t *testing.T) {
	store := NewMemoryStore()

	r1 := newRecording("r1", "u1")
	r1.CreatedAt = time.Now().Add(-2 * time.Hour)
	store.Save(r1)

	r2 := newRecording("r2", "u1")
	r2.CreatedAt = time.Now().Add(-1 * time.Hour)
	store.Save(r2)

	store.Save(newRecording("r3", "u2"))

	recs, err := store.List("u1")
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("u1 应有 2 条录音, 实际 %d", len(recs))
	}
	// 按创建时间倒序
	if recs[0].ID != "r2" || recs[1].ID != "r1" {
		t.Errorf("排序不对: %s, %s", recs[0].ID, recs[1].ID)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore()
	store.Save(newRecording("r1", "u1"))

	if err := store.Delete("r1", "u1"); err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	if _, err := store.Get("r1", "u1"); err != ErrNotFound {
		t.Errorf("删除后应读不到, 实际 %v", err)
	}
	if err := store.Delete("r1", "u1"); err != ErrNotFound {
		t.Errorf("重复删除应返回 ErrNotFound, 实际 %v", err)
	}
}
