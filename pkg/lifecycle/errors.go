package lifecycle

import "errors"

// 错误分类：
//   - ErrRecordingNotFound / ErrJobNotStarted → 404，不改任何状态
//   - ErrAlreadyInProgress                    → 409，不改任何状态
//   - 外部服务的瞬时错误直接向上传（包一层 %w），同样不改状态，等下次重试
//
// 只有外部任务真正失败（JobFailed）和成功完成才会写状态
var (
	// ErrRecordingNotFound 录音不存在或不属于该用户
	ErrRecordingNotFound = errors.New("录音不存在")

	// ErrAlreadyInProgress 转写/翻译已在进行中（重复 start 的冲突信号）
	ErrAlreadyInProgress = errors.New("任务已在进行中")

	// ErrJobNotStarted 还没有发起过转写任务（和 FAILED 区分开）
	ErrJobNotStarted = errors.New("转写任务尚未发起")

	// ErrTranscriptionNotReady 转写还没完成，不能翻译
	ErrTranscriptionNotReady = errors.New("转写尚未完成")
)
