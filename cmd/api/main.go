package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/z-wentao/bakbak/pkg/config"
	"github.com/z-wentao/bakbak/pkg/lifecycle"
	"github.com/z-wentao/bakbak/pkg/media"
	"github.com/z-wentao/bakbak/pkg/models"
	"github.com/z-wentao/bakbak/pkg/queue"
	"github.com/z-wentao/bakbak/pkg/romanize"
	"github.com/z-wentao/bakbak/pkg/speech"
	"github.com/z-wentao/bakbak/pkg/storage"
	"github.com/z-wentao/bakbak/pkg/translate"
	"github.com/z-wentao/bakbak/pkg/worker"
)

// App 应用上下文（依赖注入）
type App struct {
	config     *config.Config
	store      storage.Store
	queue      queue.Queue
	worker     *worker.Worker
	controller *lifecycle.Controller
}

func main() {
	// 1. 加载配置
	cfg, err := config.LoadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("❌ 加载配置失败: %v", err)
	}
	log.Println("✓ 配置加载成功")

	// 2. 确保上传目录存在
	if err := os.MkdirAll(cfg.Server.UploadDir, 0755); err != nil {
		log.Fatalf("❌ 创建上传目录失败: %v", err)
	}

	app := &App{config: cfg}

	// 3. 初始化存储（根据配置选择类型）
	store, err := buildStore(cfg)
	if err != nil {
		log.Fatalf("❌ 初始化存储失败: %v", err)
	}
	app.store = store
	log.Printf("✓ 存储初始化成功 (类型: %s)", cfg.Storage.Type)

	// 4. 初始化队列（根据配置选择类型）
	switch cfg.Queue.Type {
	case "memory":
		app.queue = queue.NewMemoryQueue(cfg.Queue.BufferSize)
		log.Println("✓ 使用内存队列")
	case "rabbitmq":
		q, err := queue.NewRabbitMQQueue(cfg.Queue.RabbitMQ.URL, cfg.Queue.RabbitMQ.QueueName, 3)
		if err != nil {
			log.Fatalf("❌ 初始化 RabbitMQ 失败: %v", err)
		}
		app.queue = q
	default:
		log.Fatalf("❌ 不支持的队列类型: %s", cfg.Queue.Type)
	}

	// 5. 初始化外部服务客户端和生命周期控制器
	speechClient := speech.NewClient(cfg.Speech.BaseURL, cfg.Speech.APIKey)
	translator := translate.NewClient(cfg.OpenAI.APIKey)
	romanizer := romanize.NewRomanizer(translator)
	app.controller = lifecycle.NewController(app.store, speechClient, romanizer, translator)
	log.Println("✓ 生命周期控制器初始化成功")

	// 6. 启动入库 Worker
	app.worker = worker.NewWorker(app.queue, app.store)
	app.worker.Start()
	log.Println("✓ 入库 Worker 已启动")

	// 7. 启动 HTTP 服务器
	router := app.setupRouter()
	port := fmt.Sprintf(":%d", cfg.Server.Port)

	log.Printf("🚀 BakBak 服务器启动在 http://localhost:%d", cfg.Server.Port)
	log.Printf("📝 配置信息:")
	log.Printf("   - 存储类型: %s", cfg.Storage.Type)
	log.Printf("   - 队列类型: %s", cfg.Queue.Type)
	log.Printf("   - 转写服务: %s", cfg.Speech.BaseURL)

	// 8. 优雅关闭
	go func() {
		if err := router.Run(port); err != nil {
			log.Fatalf("❌ 服务器启动失败: %v", err)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 正在关闭服务器...")
	app.worker.Stop()
	app.queue.Close()
	app.store.Close()
	log.Println("✓ 服务器已关闭")
}

// buildStore 根据配置创建存储
func buildStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Type {
	case "memory":
		return storage.NewMemoryStore(), nil
	case "postgres":
		return storage.NewPostgresStore(cfg.Storage.PostgresDSN)
	case "redis":
		ttl := time.Duration(cfg.Storage.Redis.TTLHours) * time.Hour
		return storage.NewRedisStore(cfg.Storage.Redis.Addr, cfg.Storage.Redis.Password, cfg.Storage.Redis.DB, ttl)
	case "hybrid":
		ttl := time.Duration(cfg.Storage.Redis.TTLHours) * time.Hour
		redisStore, err := storage.NewRedisStore(cfg.Storage.Redis.Addr, cfg.Storage.Redis.Password, cfg.Storage.Redis.DB, ttl)
		if err != nil {
			return nil, err
		}
		pgStore, err := storage.NewPostgresStore(cfg.Storage.PostgresDSN)
		if err != nil {
			redisStore.Close()
			return nil, err
		}
		return storage.NewHybridStore(redisStore, pgStore), nil
	default:
		return nil, fmt.Errorf("不支持的存储类型: %s", cfg.Storage.Type)
	}
}

// setupRouter 设置路由
func (app *App) setupRouter() *gin.Engine {
	r := gin.Default()

	// API 路由
	api := r.Group("/api")
	{
		api.GET("/ping", app.handlePing)
		api.POST("/recordings", app.handleUpload)                              // 上传录音
		api.GET("/recordings", app.handleListRecordings)                       // 列出当前用户的录音
		api.GET("/recordings/:id", app.handleGetRecording)                     // 获取单条录音
		api.DELETE("/recordings/:id", app.handleDeleteRecording)               // 删除录音
		api.GET("/recordings/:id/audio", app.handleGetAudio)                   // 播放音频
		api.POST("/recordings/:id/transcription", app.handleStartTranscription) // 发起转写
		api.GET("/recordings/:id/transcription", app.handlePollTranscription)   // 查询转写进度
		api.POST("/recordings/:id/translation", app.handleTranslate)           // 翻译转写文本
		api.POST("/recordings/:id/notes", app.handleAddNote)                   // 添加笔记
		api.GET("/recordings/:id/notes", app.handleListNotes)                  // 列出笔记
	}

	return r
}

// currentUser 从请求头取用户身份
// 认证由上游网关完成，这里只信任它注入的 X-User-ID
func currentUser(c *gin.Context) (string, bool) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "缺少用户身份"})
		return "", false
	}
	return userID, true
}

// handlePing 健康检查
func (app *App) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
		"version": "0.1.0",
	})
}

// handleUpload 处理录音上传
func (app *App) handleUpload(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	// 1. 获取文件
	file, err := c.FormFile("audio")
	if err != nil {
		c.JSON(400, gin.H{"error": "请上传文件"})
		return
	}

	// 2. 验证文件格式
	ext := filepath.Ext(file.Filename)
	if !media.IsValidAudioFormat(ext) {
		c.JSON(400, gin.H{
			"error": fmt.Sprintf("不支持的文件格式 %s，支持: .mp3, .wav, .m4a, .mp4, .flac, .aac, .ogg", ext),
		})
		return
	}

	// 3. 验证文件大小
	if file.Size > app.config.Server.MaxUploadSize {
		c.JSON(400, gin.H{
			"error": fmt.Sprintf("文件太大，最大 %.0f MB", float64(app.config.Server.MaxUploadSize)/1024/1024),
		})
		return
	}

	// 4. 生成唯一文件名并保存
	recordingID := uuid.New().String()
	savePath := filepath.Join(app.config.Server.UploadDir, recordingID+ext)

	if err := c.SaveUploadedFile(file, savePath); err != nil {
		c.JSON(500, gin.H{"error": "保存文件失败"})
		return
	}

	log.Printf("✓ 文件已保存: %s (%.2f MB)", savePath, float64(file.Size)/1024/1024)

	// 5. 创建录音记录（转写状态为 NOT_STARTED，随录音一起创建）
	title := c.PostForm("title")
	if title == "" {
		title = file.Filename
	}
	language := c.PostForm("language")
	if language == "" {
		language = "en"
	}

	now := time.Now()
	rec := &models.Recording{
		ID:       recordingID,
		UserID:   userID,
		Title:    title,
		Filename: file.Filename,
		FilePath: savePath,
		Language: language,
		Status:   models.RecordingProcessing,
		Transcription: models.Transcription{
			Status:   models.TranscriptionNotStarted,
			Language: language,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	// 6. 保存到存储
	if err := app.store.Save(rec); err != nil {
		c.JSON(500, gin.H{"error": "保存录音失败"})
		return
	}

	// 7. 加入入库队列（异步探测音频）
	job := &models.IngestJob{
		RecordingID: recordingID,
		UserID:      userID,
		FilePath:    savePath,
		CreatedAt:   now,
	}
	if err := app.queue.Enqueue(job); err != nil {
		c.JSON(500, gin.H{"error": "任务加入队列失败"})
		return
	}

	log.Printf("✓ 录音已创建并加入入库队列: %s", recordingID)

	// 8. 返回结果
	c.JSON(200, gin.H{
		"id":       recordingID,
		"title":    title,
		"filename": file.Filename,
		"size":     file.Size,
		"language": language,
		"status":   rec.Status,
		"message":  "上传成功，正在处理中...",
	})
}

// handleListRecordings 列出当前用户的录音
func (app *App) handleListRecordings(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	recs, err := app.store.List(userID)
	if err != nil {
		c.JSON(500, gin.H{"error": "查询录音列表失败"})
		return
	}

	c.JSON(200, gin.H{
		"recordings": recs,
		"total":      len(recs),
	})
}

// handleGetRecording 获取单条录音
func (app *App) handleGetRecording(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	rec, err := app.store.Get(c.Param("id"), userID)
	if err != nil {
		c.JSON(404, gin.H{"error": "录音不存在"})
		return
	}

	c.JSON(200, rec)
}

// handleDeleteRecording 删除录音（级联删除转写和翻译）
func (app *App) handleDeleteRecording(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	rec, err := app.store.Get(c.Param("id"), userID)
	if err != nil {
		c.JSON(404, gin.H{"error": "录音不存在"})
		return
	}

	if err := app.store.Delete(rec.ID, userID); err != nil {
		c.JSON(500, gin.H{"error": "删除录音失败"})
		return
	}

	// 删除音频文件（失败只记日志，存储里的记录已经没了）
	if rec.FilePath != "" {
		if err := os.Remove(rec.FilePath); err != nil && !os.IsNotExist(err) {
			log.Printf("⚠️ 删除音频文件失败: %s, 错误: %v", rec.FilePath, err)
		}
	}

	c.JSON(200, gin.H{"message": "删除成功"})
}

// handleGetAudio 播放音频文件
func (app *App) handleGetAudio(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	rec, err := app.store.Get(c.Param("id"), userID)
	if err != nil {
		c.JSON(404, gin.H{"error": "录音不存在"})
		return
	}

	if rec.FilePath == "" {
		c.JSON(404, gin.H{"error": "音频文件不存在"})
		return
	}

	c.File(rec.FilePath)
}

// handleStartTranscription 发起转写任务
func (app *App) handleStartTranscription(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	t, err := app.controller.StartTranscription(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, lifecycle.ErrRecordingNotFound):
			c.JSON(404, gin.H{"error": "录音不存在"})
		case errors.Is(err, lifecycle.ErrAlreadyInProgress):
			c.JSON(409, gin.H{"error": "转写已在进行中"})
		default:
			c.JSON(502, gin.H{"error": fmt.Sprintf("发起转写失败: %v", err)})
		}
		return
	}

	c.JSON(200, gin.H{
		"status": t.Status,
		"job_id": t.JobID,
	})
}

// handlePollTranscription 查询转写进度
func (app *App) handlePollTranscription(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := app.controller.PollTranscription(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, lifecycle.ErrRecordingNotFound):
			c.JSON(404, gin.H{"error": "录音不存在"})
		case errors.Is(err, lifecycle.ErrJobNotStarted):
			// 和"任务失败"区分开：任务从来没发起过
			c.JSON(404, gin.H{"error": "转写任务尚未发起"})
		default:
			c.JSON(502, gin.H{"error": fmt.Sprintf("查询转写进度失败: %v", err)})
		}
		return
	}

	c.JSON(200, result)
}

// TranslateRequest 翻译请求
type TranslateRequest struct {
	TargetLanguage string `json:"target_language" binding:"required"`
}

// handleTranslate 翻译转写文本
func (app *App) handleTranslate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "请求参数错误: " + err.Error()})
		return
	}

	tr, err := app.controller.Translate(c.Request.Context(), userID, c.Param("id"), req.TargetLanguage)
	if err != nil {
		switch {
		case errors.Is(err, lifecycle.ErrRecordingNotFound):
			c.JSON(404, gin.H{"error": "录音不存在"})
		case errors.Is(err, lifecycle.ErrTranscriptionNotReady):
			c.JSON(400, gin.H{"error": "转写尚未完成，无法翻译"})
		case errors.Is(err, lifecycle.ErrAlreadyInProgress):
			c.JSON(409, gin.H{"error": "翻译已在进行中"})
		default:
			c.JSON(502, gin.H{"error": fmt.Sprintf("翻译失败: %v", err)})
		}
		return
	}

	c.JSON(200, tr)
}

// AddNoteRequest 添加笔记的请求
type AddNoteRequest struct {
	Text string `json:"text" binding:"required"`
}

// handleAddNote 给录音添加笔记
func (app *App) handleAddNote(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "请求参数错误: " + err.Error()})
		return
	}

	note := models.Note{
		ID:        uuid.New().String(),
		Text:      req.Text,
		CreatedAt: time.Now(),
	}

	err := app.store.Update(c.Param("id"), userID, func(r *models.Recording) {
		r.Notes = append(r.Notes, note)
	})
	if err != nil {
		c.JSON(404, gin.H{"error": "录音不存在"})
		return
	}

	c.JSON(200, note)
}

// handleListNotes 列出录音的笔记
func (app *App) handleListNotes(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	rec, err := app.store.Get(c.Param("id"), userID)
	if err != nil {
		c.JSON(404, gin.H{"error": "录音不存在"})
		return
	}

	c.JSON(200, gin.H{
		"notes": rec.Notes,
		"total": len(rec.Notes),
	})
}
