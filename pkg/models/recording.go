package models

import "time"

// RecordingStatus 录音的入库状态（音频文件本身的处理状态）
type RecordingStatus string

const (
	RecordingProcessing RecordingStatus = "processing" // 音频正在处理（探测时长等）
	RecordingReady      RecordingStatus = "ready"      // 音频可用
	RecordingError      RecordingStatus = "error"      // 音频处理失败
)

// TranscriptionStatus 转写/翻译的状态机
// 状态只会向前推进：NOT_STARTED → IN_PROGRESS → {COMPLETED, FAILED}
// FAILED 之后允许重新 start（新的一次任务尝试）
type TranscriptionStatus string

const (
	TranscriptionNotStarted TranscriptionStatus = "NOT_STARTED"
	TranscriptionInProgress TranscriptionStatus = "IN_PROGRESS"
	TranscriptionCompleted  TranscriptionStatus = "COMPLETED"
	TranscriptionFailed     TranscriptionStatus = "FAILED"
)

// CanStart 是否允许发起新的转写任务
// 只有 IN_PROGRESS 拒绝（并发/重复 start 变成无害的冲突响应）
func (s TranscriptionStatus) CanStart() bool {
	return s != TranscriptionInProgress
}

// IsTerminal 是否是本次任务尝试的终态
func (s TranscriptionStatus) IsTerminal() bool {
	return s == TranscriptionCompleted || s == TranscriptionFailed
}

// Valid 是否是合法状态值
func (s TranscriptionStatus) Valid() bool {
	switch s {
	case TranscriptionNotStarted, TranscriptionInProgress, TranscriptionCompleted, TranscriptionFailed:
		return true
	}
	return false
}

// Translation 翻译结果（挂在 Transcription 下，每个目标语言最多一条）
type Translation struct {
	Text           string              `json:"text"`
	SourceLanguage string              `json:"source_language"`
	TargetLanguage string              `json:"target_language"`
	Status         TranscriptionStatus `json:"status"`
	Error          string              `json:"error,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	CompletedAt    time.Time           `json:"completed_at,omitempty"`
}

// Transcription 转写结果（每个录音恰好一条）
type Transcription struct {
	Status        TranscriptionStatus `json:"status"`
	JobID         string              `json:"job_id,omitempty"`         // 外部转写任务 ID（仅 IN_PROGRESS 之后有值）
	Text          string              `json:"text,omitempty"`           // 转写文本（仅 COMPLETED 有值）
	RomanizedText string              `json:"romanized_text,omitempty"` // 拉丁化文本（非拉丁文字的转写才需要）
	Language      string              `json:"language"`
	Error         string              `json:"error,omitempty"`
	Translations  []Translation       `json:"translations,omitempty"`
	StartedAt     time.Time           `json:"started_at,omitempty"`
	CompletedAt   time.Time           `json:"completed_at,omitempty"`
}

// TranslationFor 查找指定目标语言的翻译，不存在返回 nil
func (t *Transcription) TranslationFor(targetLang string) *Translation {
	for i := range t.Translations {
		if t.Translations[i].TargetLanguage == targetLang {
			return &t.Translations[i]
		}
	}
	return nil
}

// SetTranslation 写入指定目标语言的翻译（同一目标语言只保留一条）
func (t *Transcription) SetTranslation(tr Translation) {
	for i := range t.Translations {
		if t.Translations[i].TargetLanguage == tr.TargetLanguage {
			t.Translations[i] = tr
			return
		}
	}
	t.Translations = append(t.Translations, tr)
}

// Note 用户给录音添加的笔记
type Note struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Recording 一条录音记录（按用户隔离）
type Recording struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Title         string          `json:"title"`
	Filename      string          `json:"filename"`
	FilePath      string          `json:"file_path"`
	Language      string          `json:"language"` // 源语言代码，如 "ja"、"en"
	Duration      float64         `json:"duration"`
	Status        RecordingStatus `json:"status"`
	Error         string          `json:"error,omitempty"`
	Transcription Transcription   `json:"transcription"`
	Notes         []Note          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
