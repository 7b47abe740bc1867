package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/z-wentao/bakbak/pkg/models"
)

// RedisStore Redis 录音存储
// 录音按 ID 存 JSON，每个用户一个 Sorted Set 做索引（score 为创建时间戳）
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration // 数据过期时间
	ctx    context.Context
}

// NewRedisStore 创建 Redis 录音存储
func NewRedisStore(addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,     // Redis 地址，如 "localhost:6379"
		Password: password, // 密码，无密码留空
		DB:       db,       // 数据库编号，默认 0
	})

	// 测试连接
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("连接 Redis 失败: %w", err)
	}

	return &RedisStore{
		client: client,
		ttl:    ttl,
		ctx:    ctx,
	}, nil
}

// getKey 生成录音数据的 Redis key
// 格式: "bakbak:recording:{id}"
func (rs *RedisStore) getKey(id string) string {
	return fmt.Sprintf("bakbak:recording:%s", id)
}

// getIndexKey 生成用户索引的 Redis key
// 格式: "bakbak:user:{userID}:recordings"
func (rs *RedisStore) getIndexKey(userID string) string {
	return fmt.Sprintf("bakbak:user:%s:recordings", userID)
}

// Save 保存录音到 Redis
func (rs *RedisStore) Save(rec *models.Recording) error {
	// 1. 序列化为 JSON
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("序列化录音失败: %w", err)
	}

	// 2. 保存到 Redis，设置过期时间
	key := rs.getKey(rec.ID)
	if err := rs.client.Set(rs.ctx, key, data, rs.ttl).Err(); err != nil {
		return fmt.Errorf("保存到 Redis 失败: %w", err)
	}

	// 3. 将 ID 加入该用户的索引集合（用于 List 操作）
	indexKey := rs.getIndexKey(rec.UserID)
	score := float64(rec.CreatedAt.Unix())
	if err := rs.client.ZAdd(rs.ctx, indexKey, redis.Z{
		Score:  score,
		Member: rec.ID,
	}).Err(); err != nil {
		return fmt.Errorf("添加到索引失败: %w", err)
	}

	return nil
}

// Get 从 Redis 获取录音（按用户隔离）
func (rs *RedisStore) Get(id, userID string) (*models.Recording, error) {
	key := rs.getKey(id)

	// 1. 从 Redis 获取数据
	data, err := rs.client.Get(rs.ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("从 Redis 获取失败: %w", err)
	}

	// 2. 反序列化
	var rec models.Recording
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("反序列化录音失败: %w", err)
	}

	// 3. 校验归属（别人的录音等同于不存在）
	if rec.UserID != userID {
		return nil, ErrNotFound
	}

	return &rec, nil
}

// Update 更新录音
func (rs *RedisStore) Update(id, userID string, updateFn func(*models.Recording)) error {
	// 1. 获取现有录音
	rec, err := rs.Get(id, userID)
	if err != nil {
		return err
	}

	// 2. 执行更新函数并刷新 UpdatedAt
	updateFn(rec)
	rec.UpdatedAt = time.Now()

	// 3. 保存回 Redis
	return rs.Save(rec)
}

// List 列出某个用户的所有录音
func (rs *RedisStore) List(userID string) ([]*models.Recording, error) {
	indexKey := rs.getIndexKey(userID)

	// 1. 从索引获取该用户的所有录音 ID（按时间倒序）
	ids, err := rs.client.ZRevRange(rs.ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("获取录音索引失败: %w", err)
	}

	// 2. 批量获取录音详情
	recs := make([]*models.Recording, 0, len(ids))
	for _, id := range ids {
		rec, err := rs.Get(id, userID)
		if err != nil {
			// 录音可能已过期，跳过
			// 同时从索引中删除
			rs.client.ZRem(rs.ctx, indexKey, id)
			continue
		}
		recs = append(recs, rec)
	}

	return recs, nil
}

// Delete 删除录音
func (rs *RedisStore) Delete(id, userID string) error {
	// 先按用户校验归属
	if _, err := rs.Get(id, userID); err != nil {
		return err
	}

	// 1. 删除录音数据
	key := rs.getKey(id)
	if err := rs.client.Del(rs.ctx, key).Err(); err != nil {
		return fmt.Errorf("删除录音失败: %w", err)
	}

	// 2. 从用户索引中删除
	rs.client.ZRem(rs.ctx, rs.getIndexKey(userID), id)

	return nil
}

// Close 关闭 Redis 连接
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}
