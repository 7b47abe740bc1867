package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("写配置文件失败: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
speech:
  base_url: http://localhost:9000
  api_key: test-key
openai:
  api_key: sk-test
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	// 默认值
	if cfg.Server.Port != 8080 {
		t.Errorf("默认端口应为 8080, 实际 %d", cfg.Server.Port)
	}
	if cfg.Server.UploadDir != "uploads" {
		t.Errorf("默认上传目录应为 uploads, 实际 %q", cfg.Server.UploadDir)
	}
	if cfg.Storage.Type != "memory" {
		t.Errorf("默认存储类型应为 memory, 实际 %q", cfg.Storage.Type)
	}
	if cfg.Queue.Type != "memory" || cfg.Queue.BufferSize != 100 {
		t.Errorf("默认队列配置不对: %+v", cfg.Queue)
	}
}

func TestLoadConfigMissingSpeechURL(t *testing.T) {
	path := writeConfig(t, `
openai:
  api_key: sk-test
`)

	if _, err := LoadConfig(path); err == nil {
		t.Error("缺少转写服务地址应报错")
	}
}

func TestLoadConfigPostgresRequiresDSN(t *testing.T) {
	path := writeConfig(t, `
speech:
  base_url: http://localhost:9000
openai:
  api_key: sk-test
storage:
  type: postgres
`)

	if _, err := LoadConfig(path); err == nil {
		t.Error("postgres 存储缺少 DSN 应报错")
	}
}
