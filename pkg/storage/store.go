package storage

import (
	"errors"

	"github.com/z-wentao/bakbak/pkg/models"
)

// ErrNotFound 录音不存在（或不属于该用户）
var ErrNotFound = errors.New("录音不存在")

// Store 录音存储接口
// 所有读操作都按用户隔离：id + userID 同时匹配才算命中
// Update 必须在同一请求内读到自己刚写入的数据（read-after-write）
type Store interface {
	// Save 保存录音
	Save(rec *models.Recording) error

	// Get 获取录音（按用户隔离）
	Get(id, userID string) (*models.Recording, error)

	// Update 更新录音（回调函数模式，部分字段更新，自动刷新 UpdatedAt）
	Update(id, userID string, updateFn func(*models.Recording)) error

	// List 列出某个用户的所有录音
	List(userID string) ([]*models.Recording, error)

	// Delete 删除录音（级联删除其转写和翻译）
	Delete(id, userID string) error

	// Close 关闭存储连接
	Close() error
}
