package media

import (
	"bytes"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// IsValidAudioFormat 验证音频文件格式
// 支持的格式：mp3, mp4, mpeg, mpga, m4a, wav, webm, flac, aac, ogg
func IsValidAudioFormat(ext string) bool {
	validFormats := map[string]bool{
		".mp3":  true,
		".mp4":  true, // 视频文件，转写服务可以提取音频
		".mpeg": true,
		".mpga": true,
		".m4a":  true,
		".wav":  true,
		".webm": true,
		".flac": true,
		".aac":  true,
		".ogg":  true,
	}

	// 转为小写比较
	ext = strings.ToLower(ext)
	return validFormats[ext]
}

// Duration 获取音频/视频文件时长（秒）
func Duration(audioPath string) (float64, error) {
	// 使用 FFprobe 获取时长
	// ffprobe -v error -show_entries format=duration -of default=noprint_wrappers=1:nokey=1 input.mp3
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		audioPath,
	)

	// 捕获 stdout 和 stderr
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe 执行失败: %v (stderr: %s)", err, stderr.String())
	}

	durationStr := strings.TrimSpace(stdout.String())
	if durationStr == "" {
		return 0, fmt.Errorf("ffprobe 未返回时长信息 (stderr: %s)", stderr.String())
	}

	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, fmt.Errorf("解析时长失败: %v (output: %s)", err, durationStr)
	}

	return duration, nil
}
