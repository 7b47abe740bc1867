package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/z-wentao/bakbak/pkg/models"
)

// PostgresStore PostgreSQL 录音存储
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore 创建 PostgreSQL 录音存储
func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("打开数据库连接失败: %w", err)
	}

	// 测试连接
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 设置连接池
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return &PostgresStore{db: db}, nil
}

const recordingColumns = `
id, user_id, title, filename, file_path, language, duration, status, error,
transcription_status, transcription_job_id, transcription_text,
transcription_romanized, transcription_error,
transcription_started_at, transcription_completed_at,
translations, notes, created_at, updated_at
`

// Save 保存录音（UPSERT）
func (s *PostgresStore) Save(rec *models.Recording) error {
	translationsJSON, err := json.Marshal(rec.Transcription.Translations)
	if err != nil {
		return fmt.Errorf("序列化 translations 失败: %w", err)
	}

	notesJSON, err := json.Marshal(rec.Notes)
	if err != nil {
		return fmt.Errorf("序列化 notes 失败: %w", err)
	}

	query := `
	INSERT INTO recordings (` + recordingColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	ON CONFLICT (id)
	DO UPDATE SET
	title = EXCLUDED.title,
	file_path = EXCLUDED.file_path,
	language = EXCLUDED.language,
	duration = EXCLUDED.duration,
	status = EXCLUDED.status,
	error = EXCLUDED.error,
	transcription_status = EXCLUDED.transcription_status,
	transcription_job_id = EXCLUDED.transcription_job_id,
	transcription_text = EXCLUDED.transcription_text,
	transcription_romanized = EXCLUDED.transcription_romanized,
	transcription_error = EXCLUDED.transcription_error,
	transcription_started_at = EXCLUDED.transcription_started_at,
	transcription_completed_at = EXCLUDED.transcription_completed_at,
	translations = EXCLUDED.translations,
	notes = EXCLUDED.notes,
	updated_at = EXCLUDED.updated_at
	`

	_, err = s.db.Exec(query,
		rec.ID,
		rec.UserID,
		rec.Title,
		rec.Filename,
		rec.FilePath,
		rec.Language,
		rec.Duration,
		rec.Status,
		rec.Error,
		rec.Transcription.Status,
		rec.Transcription.JobID,
		rec.Transcription.Text,
		rec.Transcription.RomanizedText,
		rec.Transcription.Error,
		nullTime(rec.Transcription.StartedAt),
		nullTime(rec.Transcription.CompletedAt),
		translationsJSON,
		notesJSON,
		rec.CreatedAt,
		rec.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("保存到数据库失败: %w", err)
	}

	return nil
}

// Get 获取录音（按用户隔离）
func (s *PostgresStore) Get(id, userID string) (*models.Recording, error) {
	query := `SELECT ` + recordingColumns + ` FROM recordings WHERE id = $1 AND user_id = $2`

	rec, err := s.scanRecording(s.db.QueryRow(query, id, userID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询数据库失败: %w", err)
	}

	return rec, nil
}

// Update 更新录音（读取-修改-写回）
func (s *PostgresStore) Update(id, userID string, updateFn func(*models.Recording)) error {
	// 1. 获取现有录音
	rec, err := s.Get(id, userID)
	if err != nil {
		return err
	}

	// 2. 执行更新函数并刷新 UpdatedAt
	updateFn(rec)
	rec.UpdatedAt = time.Now()

	// 3. 保存回数据库
	return s.Save(rec)
}

// List 列出某个用户的所有录音（按创建时间倒序）
func (s *PostgresStore) List(userID string) ([]*models.Recording, error) {
	query := `SELECT ` + recordingColumns + `
	FROM recordings
	WHERE user_id = $1
	ORDER BY created_at DESC
	LIMIT 100`

	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("查询数据库失败: %w", err)
	}
	defer rows.Close()

	recs := make([]*models.Recording, 0)

	for rows.Next() {
		rec, err := s.scanRecording(rows)
		if err != nil {
			continue
		}
		recs = append(recs, rec)
	}

	return recs, nil
}

// Delete 删除录音（转写和翻译随行内字段一起删除）
func (s *PostgresStore) Delete(id, userID string) error {
	query := `DELETE FROM recordings WHERE id = $1 AND user_id = $2`

	result, err := s.db.Exec(query, id, userID)
	if err != nil {
		return fmt.Errorf("删除录音失败: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("获取删除结果失败: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Close 关闭数据库连接
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// rowScanner 兼容 *sql.Row 和 *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRecording 从一行数据扫描出录音（处理 NULL 值和 JSON 字段）
func (s *PostgresStore) scanRecording(row rowScanner) (*models.Recording, error) {
	var rec models.Recording
	var translationsJSON, notesJSON []byte
	var filePath, recError, jobID, text, romanized, transError sql.NullString
	var duration sql.NullFloat64
	var startedAt, completedAt sql.NullTime

	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Title,
		&rec.Filename,
		&filePath,
		&rec.Language,
		&duration,
		&rec.Status,
		&recError,
		&rec.Transcription.Status,
		&jobID,
		&text,
		&romanized,
		&transError,
		&startedAt,
		&completedAt,
		&translationsJSON,
		&notesJSON,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	// 处理 NULL 值
	if filePath.Valid {
		rec.FilePath = filePath.String
	}
	if recError.Valid {
		rec.Error = recError.String
	}
	if duration.Valid {
		rec.Duration = duration.Float64
	}
	if jobID.Valid {
		rec.Transcription.JobID = jobID.String
	}
	if text.Valid {
		rec.Transcription.Text = text.String
	}
	if romanized.Valid {
		rec.Transcription.RomanizedText = romanized.String
	}
	if transError.Valid {
		rec.Transcription.Error = transError.String
	}
	if startedAt.Valid {
		rec.Transcription.StartedAt = startedAt.Time
	}
	if completedAt.Valid {
		rec.Transcription.CompletedAt = completedAt.Time
	}
	rec.Transcription.Language = rec.Language

	// 反序列化 JSON 字段
	if len(translationsJSON) > 0 {
		json.Unmarshal(translationsJSON, &rec.Transcription.Translations)
	}
	if len(notesJSON) > 0 {
		json.Unmarshal(notesJSON, &rec.Notes)
	}

	return &rec, nil
}

// nullTime 零值时间存为 NULL
func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
