package romanize

import (
	"context"
	"log"
	"strings"
)

// nonLatinScripts 默认文字不是拉丁字母的语言 → 文字名称
// 不在表里的语言视为拉丁文字，跳过罗马化
var nonLatinScripts = map[string]string{
	"ja": "日语（假名/汉字）",
	"zh": "中文（汉字）",
	"ko": "韩语（谚文）",
	"ru": "俄语（西里尔字母）",
	"uk": "乌克兰语（西里尔字母）",
	"ar": "阿拉伯语（阿拉伯字母）",
	"fa": "波斯语（阿拉伯字母）",
	"ur": "乌尔都语（阿拉伯字母）",
	"hi": "印地语（天城文）",
	"mr": "马拉地语（天城文）",
	"ne": "尼泊尔语（天城文）",
	"bn": "孟加拉语（孟加拉文）",
	"pa": "旁遮普语（古木基文）",
	"gu": "古吉拉特语（古吉拉特文）",
	"ta": "泰米尔语（泰米尔文）",
	"te": "泰卢固语（泰卢固文）",
	"kn": "卡纳达语（卡纳达文）",
	"ml": "马拉雅拉姆语（马拉雅拉姆文）",
	"th": "泰语（泰文）",
	"el": "希腊语（希腊字母）",
	"he": "希伯来语（希伯来字母）",
	"my": "缅甸语（缅甸文）",
	"km": "高棉语（高棉文）",
	"ka": "格鲁吉亚语（格鲁吉亚字母）",
	"hy": "亚美尼亚语（亚美尼亚字母）",
	"am": "阿姆哈拉语（吉兹字母）",
}

// Transliterator 音译函数（AI 或算法实现均可）
type Transliterator interface {
	Transliterate(ctx context.Context, text, sourceScript string) (string, error)
}

// Romanizer 罗马化步骤：判断是否需要拉丁化并执行
type Romanizer struct {
	transliterator Transliterator
}

// NewRomanizer 创建罗马化器
func NewRomanizer(t Transliterator) *Romanizer {
	return &Romanizer{transliterator: t}
}

// NeedsRomanization 该语言的默认文字是否需要拉丁化
func NeedsRomanization(languageCode string) bool {
	// 语言代码可能带地区后缀，如 "zh-CN"
	code := strings.ToLower(languageCode)
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	_, ok := nonLatinScripts[code]
	return ok
}

// sourceScript 查语言对应的文字名称
func sourceScript(languageCode string) string {
	code := strings.ToLower(languageCode)
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	return nonLatinScripts[code]
}

// Romanize 为完成的转写文本生成拉丁化版本
// 规则：
//  1. 已有罗马化结果 → 直接复用（一次计算，除非重新转写否则不再算）
//  2. 源语言本身就是拉丁文字 → 原文透传，不调用音译服务
//  3. 其他情况调用音译；失败时记日志并回退原文（罗马化是增强，不阻塞转写完成）
//
// 输出统一转为小写再持久化
func (r *Romanizer) Romanize(ctx context.Context, text, languageCode, existing string) string {
	// 1. 幂等：已经算过就不再算
	if existing != "" {
		return existing
	}

	// 2. 拉丁文字语言无需罗马化
	if !NeedsRomanization(languageCode) {
		return text
	}

	// 3. 调用音译服务
	romanized, err := r.transliterator.Transliterate(ctx, text, sourceScript(languageCode))
	if err != nil {
		log.Printf("⚠️ 罗马化失败（回退原文）: %v", err)
		return text
	}

	return strings.ToLower(romanized)
}
