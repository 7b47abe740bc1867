package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/z-wentao/bakbak/pkg/models"
)

// MemoryStore 录音存储（内存实现）
// 使用 RWMutex 保证并发安全；读写都返回副本，避免调用方绕过 Update 直接改内部状态
type MemoryStore struct {
	recordings map[string]*models.Recording
	mu         sync.RWMutex // 读写锁
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		recordings: make(map[string]*models.Recording),
	}
}

// Save 保存录音
func (ms *MemoryStore) Save(rec *models.Recording) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.recordings[rec.ID] = cloneRecording(rec)
	return nil
}

// Get 获取录音（按用户隔离）
func (ms *MemoryStore) Get(id, userID string) (*models.Recording, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	rec, exists := ms.recordings[id]
	if !exists || rec.UserID != userID {
		return nil, ErrNotFound
	}

	return cloneRecording(rec), nil
}

// Update 更新录音（回调函数模式）
func (ms *MemoryStore) Update(id, userID string, updateFn func(*models.Recording)) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	rec, exists := ms.recordings[id]
	if !exists || rec.UserID != userID {
		return ErrNotFound
	}

	updateFn(rec)
	rec.UpdatedAt = time.Now()
	return nil
}

// List 列出某个用户的所有录音（按创建时间倒序）
func (ms *MemoryStore) List(userID string) ([]*models.Recording, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	recs := make([]*models.Recording, 0)
	for _, rec := range ms.recordings {
		if rec.UserID == userID {
			recs = append(recs, cloneRecording(rec))
		}
	}

	sort.Slice(recs, func(i, j int) bool {
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})

	return recs, nil
}

// Delete 删除录音
func (ms *MemoryStore) Delete(id, userID string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	rec, exists := ms.recordings[id]
	if !exists || rec.UserID != userID {
		return ErrNotFound
	}

	delete(ms.recordings, id)
	return nil
}

// Close 关闭存储（内存存储无需关闭）
func (ms *MemoryStore) Close() error {
	return nil
}

// cloneRecording 复制录音（包括嵌套的翻译和笔记切片）
func cloneRecording(rec *models.Recording) *models.Recording {
	c := *rec

	if len(rec.Transcription.Translations) > 0 {
		c.Transcription.Translations = make([]models.Translation, len(rec.Transcription.Translations))
		copy(c.Transcription.Translations, rec.Transcription.Translations)
	}

	if len(rec.Notes) > 0 {
		c.Notes = make([]models.Note, len(rec.Notes))
		copy(c.Notes, rec.Notes)
	}

	return &c
}
