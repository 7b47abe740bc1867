package storage

import (
	"log"
	"time"

	"github.com/z-wentao/bakbak/pkg/models"
)

// HybridStore 混合存储：Redis（热数据） + PostgreSQL（冷数据）
// 读写走 Redis，稳定下来的录音异步批量落库
type HybridStore struct {
	redis     Store                  // Redis 存储（快速缓存）
	db        Store                  // PostgreSQL 存储（持久化）
	syncQueue chan *models.Recording // 异步同步队列
	stopCh    chan struct{}          // 停止信号
}

// NewHybridStore 创建混合存储
func NewHybridStore(redis, db Store) *HybridStore {
	store := &HybridStore{
		redis:     redis,
		db:        db,
		syncQueue: make(chan *models.Recording, 100),
		stopCh:    make(chan struct{}),
	}

	// 启动后台同步 Worker
	go store.syncWorker()

	log.Println("✓ 混合存储初始化成功（Redis + PostgreSQL）")

	return store
}

// shouldPersist 录音是否应该落库
// 入库到达终态、或转写/某个翻译到达终态时，数据已经稳定
func shouldPersist(rec *models.Recording) bool {
	if rec.Status == models.RecordingReady || rec.Status == models.RecordingError {
		return true
	}
	return rec.Transcription.Status.IsTerminal()
}

// Save 保存录音
// 策略：立即写 Redis，稳定数据异步写数据库
func (s *HybridStore) Save(rec *models.Recording) error {
	// 1. 快速写入 Redis（用户立即可查询）
	if err := s.redis.Save(rec); err != nil {
		log.Printf("⚠️ Redis 写入失败: %v", err)
		// Redis 失败不影响业务，继续写数据库
	}

	// 2. 异步写入数据库
	if shouldPersist(rec) {
		s.asyncSyncToDB(rec)
	}

	return nil
}

// Get 获取录音
// 策略：优先 Redis，未命中查数据库并回写 Redis
func (s *HybridStore) Get(id, userID string) (*models.Recording, error) {
	// 1. 先查 Redis（缓存命中，快速返回）
	rec, err := s.redis.Get(id, userID)
	if err == nil {
		return rec, nil
	}

	// 2. Redis 未命中，查数据库
	rec, err = s.db.Get(id, userID)
	if err != nil {
		return nil, err
	}

	// 3. 回写 Redis（缓存预热，下次查询更快）
	go func() {
		if err := s.redis.Save(rec); err != nil {
			log.Printf("⚠️ 回写 Redis 失败: %v", err)
		}
	}()

	return rec, nil
}

// Update 更新录音
// 策略：优先更新 Redis，稳定数据同步数据库
func (s *HybridStore) Update(id, userID string, updateFn func(*models.Recording)) error {
	// 1. 更新 Redis（快速响应）
	err := s.redis.Update(id, userID, updateFn)
	if err != nil {
		if err == ErrNotFound {
			// Redis 里没有（可能已过期），尝试从数据库读出来再走一遍
			rec, dbErr := s.Get(id, userID)
			if dbErr != nil {
				return dbErr
			}
			if saveErr := s.redis.Save(rec); saveErr != nil {
				// Redis 不可用，直接更新数据库
				return s.db.Update(id, userID, updateFn)
			}
			return s.redis.Update(id, userID, updateFn)
		}
		log.Printf("⚠️ Redis 更新失败: %v, 尝试更新数据库", err)
		return s.db.Update(id, userID, updateFn)
	}

	// 2. 如果数据已稳定，同步到数据库
	rec, _ := s.redis.Get(id, userID)
	if rec != nil && shouldPersist(rec) {
		s.asyncSyncToDB(rec)
	}

	return nil
}

// List 列出某个用户的录音
// 策略：优先 Redis，失败降级到数据库
func (s *HybridStore) List(userID string) ([]*models.Recording, error) {
	recs, err := s.redis.List(userID)
	if err != nil {
		// Redis 失败，降级到数据库
		log.Printf("⚠️ Redis 列表查询失败: %v, 降级到数据库", err)
		return s.db.List(userID)
	}

	// Redis 索引可能因过期缺数据，空结果兜底查库
	if len(recs) == 0 {
		return s.db.List(userID)
	}

	return recs, nil
}

// Delete 删除录音
// 策略：同时删除 Redis 和数据库中的数据
func (s *HybridStore) Delete(id, userID string) error {
	// 1. 删除 Redis 中的数据
	redisErr := s.redis.Delete(id, userID)
	if redisErr != nil && redisErr != ErrNotFound {
		log.Printf("⚠️ Redis 删除失败: %v", redisErr)
		// Redis 删除失败不影响整体流程
	}

	// 2. 删除数据库中的数据（确保持久化数据被清理）
	dbErr := s.db.Delete(id, userID)
	if dbErr != nil && dbErr != ErrNotFound {
		log.Printf("⚠️ 数据库删除失败: %v", dbErr)
		return dbErr
	}

	// 两边都没有才算不存在
	if redisErr == ErrNotFound && dbErr == ErrNotFound {
		return ErrNotFound
	}

	return nil
}

// Close 关闭存储
func (s *HybridStore) Close() error {
	// 1. 停止同步 Worker
	close(s.stopCh)

	// 2. 等待队列清空（最多等待 5 秒）
	timeout := time.After(5 * time.Second)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			log.Printf("⚠️ 同步队列清空超时，剩余 %d 条录音", len(s.syncQueue))
			goto cleanup
		case <-ticker.C:
			if len(s.syncQueue) == 0 {
				goto cleanup
			}
		}
	}

cleanup:
	// 3. 关闭存储
	s.redis.Close()
	s.db.Close()

	log.Println("✓ 混合存储已关闭")
	return nil
}

// asyncSyncToDB 异步同步到数据库
func (s *HybridStore) asyncSyncToDB(rec *models.Recording) {
	select {
	case s.syncQueue <- rec:
	// 成功加入队列
	default:
		// 队列满，同步写入（阻塞）
		log.Printf("⚠️ 同步队列已满，同步写入数据库")
		if err := s.db.Save(rec); err != nil {
			log.Printf("❌ 同步写入数据库失败: %v", err)
		}
	}
}

// syncWorker 后台同步 Worker
// 策略：批量写入（50条或5秒）
func (s *HybridStore) syncWorker() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	batch := make([]*models.Recording, 0, 50)

	for {
		select {
		case rec, ok := <-s.syncQueue:
			if !ok {
				// 队列关闭，写入剩余数据
				s.batchSave(batch)
				return
			}

			batch = append(batch, rec)

			// 批量写入（达到 50 条）
			if len(batch) >= 50 {
				s.batchSave(batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			// 定时写入（5秒）
			if len(batch) > 0 {
				s.batchSave(batch)
				batch = batch[:0]
			}

		case <-s.stopCh:
			// 收到停止信号
			s.batchSave(batch)
			return
		}
	}
}

// batchSave 批量保存到数据库
func (s *HybridStore) batchSave(recs []*models.Recording) {
	if len(recs) == 0 {
		return
	}

	successCount := 0
	for _, rec := range recs {
		if err := s.db.Save(rec); err != nil {
			log.Printf("❌ 同步录音失败: %s, 错误: %v", rec.ID, err)
		} else {
			successCount++
		}
	}

	log.Printf("🔄 批量同步 %d/%d 条录音到数据库", successCount, len(recs))
}
