package lifecycle

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/z-wentao/bakbak/pkg/models"
	"github.com/z-wentao/bakbak/pkg/romanize"
	"github.com/z-wentao/bakbak/pkg/speech"
	"github.com/z-wentao/bakbak/pkg/storage"
)

// Translator 文本翻译服务
type Translator interface {
	TranslateText(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Controller 录音生命周期控制器
// 驱动转写状态机：NOT_STARTED → IN_PROGRESS → {COMPLETED, FAILED}
// 两个外部触发：start（发起转写）和 poll（查询进度）；轮询由客户端发起，服务端没有定时器
type Controller struct {
	store      storage.Store
	speech     speech.Service
	romanizer  *romanize.Romanizer
	translator Translator
}

// NewController 创建生命周期控制器（依赖全部注入，方便测试）
func NewController(store storage.Store, speechSvc speech.Service, romanizer *romanize.Romanizer, translator Translator) *Controller {
	return &Controller{
		store:      store,
		speech:     speechSvc,
		romanizer:  romanizer,
		translator: translator,
	}
}

// PollResult 一次 poll 的结果
type PollResult struct {
	Status        models.TranscriptionStatus `json:"status"`
	Text          string                     `json:"text,omitempty"`
	RomanizedText string                     `json:"romanized_text,omitempty"`
	ErrorMessage  string                     `json:"error,omitempty"`
}

// StartTranscription 发起转写任务
// 幂等规则：IN_PROGRESS 时重复 start 返回冲突，不会发起第二个外部任务；
// FAILED（或 COMPLETED 的重新转写）允许 start，进入新的一次任务尝试
func (c *Controller) StartTranscription(ctx context.Context, userID, recordingID string) (*models.Transcription, error) {
	// 1. 获取录音（按用户隔离）
	rec, err := c.store.Get(recordingID, userID)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, ErrRecordingNotFound
		}
		return nil, fmt.Errorf("查询录音失败: %w", err)
	}

	// 2. 冲突检查：已在进行中就拒绝，不写任何状态
	if !rec.Transcription.Status.CanStart() {
		return nil, ErrAlreadyInProgress
	}

	// 3. 先持久化 IN_PROGRESS 再调外部服务
	// 如果写库和外部调用之间崩溃，留下的是可人工重试的 IN_PROGRESS，
	// 而不是一个看似 NOT_STARTED 却带着孤儿外部任务的录音
	err = c.store.Update(recordingID, userID, func(r *models.Recording) {
		r.Transcription.Status = models.TranscriptionInProgress
		r.Transcription.JobID = ""
		r.Transcription.Text = ""
		r.Transcription.RomanizedText = ""
		r.Transcription.Error = ""
		r.Transcription.Translations = nil
		r.Transcription.Language = r.Language
		r.Transcription.StartedAt = time.Now()
		r.Transcription.CompletedAt = time.Time{}
	})
	if err != nil {
		return nil, fmt.Errorf("更新转写状态失败: %w", err)
	}

	// 4. 调用外部转写服务
	jobID, err := c.speech.StartJob(ctx, rec.FilePath, rec.Language)
	if err != nil {
		// 发起失败：置 FAILED，不存任务 ID，错误透给调用方
		log.Printf("❌ 发起转写任务失败: 录音 %s, 错误: %v", recordingID, err)
		c.store.Update(recordingID, userID, func(r *models.Recording) {
			r.Transcription.Status = models.TranscriptionFailed
			r.Transcription.Error = err.Error()
		})
		return nil, fmt.Errorf("发起转写任务失败: %w", err)
	}

	// 5. 持久化外部任务 ID
	var result models.Transcription
	err = c.store.Update(recordingID, userID, func(r *models.Recording) {
		r.Transcription.JobID = jobID
		result = r.Transcription
	})
	if err != nil {
		return nil, fmt.Errorf("保存任务 ID 失败: %w", err)
	}

	log.Printf("✓ 转写任务已发起: 录音 %s, 任务 %s", recordingID, jobID)
	return &result, nil
}

// PollTranscription 查询转写进度并推进状态机
// 短路规则：本地已是 COMPLETED 时直接返回缓存结果，不再调外部服务；
// 外部仍在运行时返回本地状态、不写库（避免任务进行期间的无谓写入）；
// 联系外部服务出错时不降级已记录的状态，错误返回给调用方等下次重试
func (c *Controller) PollTranscription(ctx context.Context, userID, recordingID string) (*PollResult, error) {
	// 1. 获取录音
	rec, err := c.store.Get(recordingID, userID)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, ErrRecordingNotFound
		}
		return nil, fmt.Errorf("查询录音失败: %w", err)
	}

	t := rec.Transcription

	// 2. 已完成：返回缓存的文本和罗马化结果，不碰外部服务
	if t.Status == models.TranscriptionCompleted {
		return &PollResult{
			Status:        t.Status,
			Text:          t.Text,
			RomanizedText: t.RomanizedText,
		}, nil
	}

	// 3. 从未发起过任务：和"任务失败"区分开
	if t.JobID == "" {
		return nil, ErrJobNotStarted
	}

	// 4. 查询外部任务状态（出错不写库，状态留给下次 poll）
	st, err := c.speech.GetJobStatus(ctx, t.JobID)
	if err != nil {
		return nil, fmt.Errorf("查询转写任务状态失败: %w", err)
	}

	switch st.Status {
	case models.TranscriptionCompleted:
		// 5a. 取结果产物；产物拿不到时不写状态，下次 poll 重试补水
		text, err := c.speech.GetJobResult(ctx, t.JobID)
		if err != nil {
			return nil, err
		}

		// 5b. 按需生成拉丁化版本（拉丁文字语言跳过；已有结果复用；失败回退原文）
		romanized := c.romanizer.Romanize(ctx, text, rec.Language, t.RomanizedText)

		// 5c. 文本 + 罗马化 + COMPLETED 一次写入
		err = c.store.Update(recordingID, userID, func(r *models.Recording) {
			r.Transcription.Status = models.TranscriptionCompleted
			r.Transcription.Text = text
			r.Transcription.RomanizedText = romanized
			r.Transcription.Error = ""
			r.Transcription.CompletedAt = time.Now()
		})
		if err != nil {
			return nil, fmt.Errorf("保存转写结果失败: %w", err)
		}

		log.Printf("✓ 转写完成: 录音 %s, 文本长度 %d", recordingID, len(text))
		return &PollResult{
			Status:        models.TranscriptionCompleted,
			Text:          text,
			RomanizedText: romanized,
		}, nil

	case models.TranscriptionFailed:
		// 6. 外部任务失败是终态：置 FAILED 并带上失败原因
		err = c.store.Update(recordingID, userID, func(r *models.Recording) {
			r.Transcription.Status = models.TranscriptionFailed
			r.Transcription.Error = st.ErrorMessage
			r.Transcription.CompletedAt = time.Now()
		})
		if err != nil {
			return nil, fmt.Errorf("保存转写状态失败: %w", err)
		}

		log.Printf("❌ 转写任务失败: 录音 %s, 原因: %s", recordingID, st.ErrorMessage)
		return &PollResult{
			Status:       models.TranscriptionFailed,
			ErrorMessage: st.ErrorMessage,
		}, nil

	default:
		// 7. 排队中/运行中/未知状态：返回本地状态原样，不写库
		return &PollResult{Status: t.Status}, nil
	}
}

// Translate 翻译已完成的转写文本
// 每个目标语言最多一条翻译：COMPLETED 的直接返回缓存，IN_PROGRESS 的返回冲突，FAILED 的允许重试
func (c *Controller) Translate(ctx context.Context, userID, recordingID, targetLang string) (*models.Translation, error) {
	// 1. 获取录音
	rec, err := c.store.Get(recordingID, userID)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, ErrRecordingNotFound
		}
		return nil, fmt.Errorf("查询录音失败: %w", err)
	}

	// 2. 只有转写完成之后才能翻译
	if rec.Transcription.Status != models.TranscriptionCompleted {
		return nil, ErrTranscriptionNotReady
	}

	// 3. 同一目标语言的幂等规则
	if existing := rec.Transcription.TranslationFor(targetLang); existing != nil {
		switch existing.Status {
		case models.TranscriptionCompleted:
			return existing, nil // 缓存命中，不重新翻译
		case models.TranscriptionInProgress:
			return nil, ErrAlreadyInProgress
		}
		// FAILED → 允许重试，走下面的流程
	}

	// 4. 先持久化 IN_PROGRESS 再调外部服务（和转写 start 相同的取舍）
	err = c.store.Update(recordingID, userID, func(r *models.Recording) {
		r.Transcription.SetTranslation(models.Translation{
			SourceLanguage: r.Language,
			TargetLanguage: targetLang,
			Status:         models.TranscriptionInProgress,
			CreatedAt:      time.Now(),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("更新翻译状态失败: %w", err)
	}

	// 5. 调用翻译服务（同步）
	text, err := c.translator.TranslateText(ctx, rec.Transcription.Text, rec.Language, targetLang)
	if err != nil {
		log.Printf("❌ 翻译失败: 录音 %s, 目标语言 %s, 错误: %v", recordingID, targetLang, err)
		c.store.Update(recordingID, userID, func(r *models.Recording) {
			r.Transcription.SetTranslation(models.Translation{
				SourceLanguage: r.Language,
				TargetLanguage: targetLang,
				Status:         models.TranscriptionFailed,
				Error:          err.Error(),
				CreatedAt:      time.Now(),
			})
		})
		return nil, fmt.Errorf("翻译失败: %w", err)
	}

	// 6. 持久化翻译结果
	result := models.Translation{
		Text:           text,
		SourceLanguage: rec.Language,
		TargetLanguage: targetLang,
		Status:         models.TranscriptionCompleted,
		CreatedAt:      time.Now(),
		CompletedAt:    time.Now(),
	}
	err = c.store.Update(recordingID, userID, func(r *models.Recording) {
		r.Transcription.SetTranslation(result)
	})
	if err != nil {
		return nil, fmt.Errorf("保存翻译结果失败: %w", err)
	}

	log.Printf("✓ 翻译完成: 录音 %s, %s → %s", recordingID, rec.Language, targetLang)
	return &result, nil
}
