package analysis

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"bili-notes/app/cfg"
	"bili-notes/app/video"
)

const defaultSystemPrompt = "你是一个专业的知识整理助手，擅长从视频内容中提取关键信息并生成结构化的学习笔记。"

const defaultWithCaptionPrompt = `请分析以下B站视频内容并生成详细的学习笔记：

视频标题：{title}
UP主：{author}
视频时长：{duration}秒
更新时间：{update}

视频字幕内容：
{subtitle}

请生成结构化的Markdown文档，包括：
1. 视频概要
2. 核心知识点
3. 详细内容解析
4. 学习要点总结
5. 相关拓展思考
`

const defaultMetadataOnlyPrompt = `请基于以下B站视频信息生成学习笔记：

视频标题：{title}
UP主：{author}
视频时长：{duration}秒
更新时间：{update}
视频链接：{url}

由于无法获取字幕内容，请根据视频标题和基本信息进行分析，生成包含：
1. 基于标题的内容推测
2. 可能的知识点分析
3. 学习建议
4. 相关资源推荐

请用Markdown格式输出。
`

// PromptConfig is one analysis type's template set. Templates use {title},
// {author}, {duration}, {update}, {url} and {subtitle} placeholders.
type PromptConfig struct {
	System       string `yaml:"system"`
	WithCaption  string `yaml:"with_caption"`
	MetadataOnly string `yaml:"metadata_only"`
}

// PromptStore resolves prompt templates per analysis type, falling back to
// the built-in templates when no file overrides them.
type PromptStore struct {
	promptsDir string
	cache      map[string]*PromptConfig
	mu         sync.RWMutex
}

func NewPromptStore() *PromptStore {
	return &PromptStore{
		promptsDir: cfg.Get().PromptsDir,
		cache:      make(map[string]*PromptConfig),
	}
}

// Run preloads every template file in the prompts directory. A missing
// directory is not an error; defaults cover every analysis type.
func (ps *PromptStore) Run() error {
	if _, err := os.Stat(ps.promptsDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(ps.promptsDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		fileName := filepath.Base(file)
		analysisType := fileName[:len(fileName)-4]

		config, err := ps.LoadConfig(analysisType)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Prompt templates loaded", "analysis_type", analysisType, "has_system", config.System != "")
	}

	return nil
}

func (ps *PromptStore) LoadConfig(analysisType string) (*PromptConfig, error) {
	data, err := os.ReadFile(filepath.Join(ps.promptsDir, analysisType+".yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file: %w", err)
	}

	var config PromptConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file: %w", err)
	}

	ps.mu.Lock()
	ps.cache[analysisType] = &config
	ps.mu.Unlock()

	return &config, nil
}

// GetConfig returns the template set for an analysis type, with built-in
// defaults filling any field the override leaves empty.
func (ps *PromptStore) GetConfig(analysisType string) *PromptConfig {
	ps.mu.RLock()
	override, ok := ps.cache[analysisType]
	ps.mu.RUnlock()

	config := &PromptConfig{
		System:       defaultSystemPrompt,
		WithCaption:  defaultWithCaptionPrompt,
		MetadataOnly: defaultMetadataOnlyPrompt,
	}

	if ok {
		if override.System != "" {
			config.System = override.System
		}
		if override.WithCaption != "" {
			config.WithCaption = override.WithCaption
		}
		if override.MetadataOnly != "" {
			config.MetadataOnly = override.MetadataOnly
		}
	}

	return config
}

// Build renders the user prompt for one video. An empty caption selects the
// metadata-only template.
func (ps *PromptStore) Build(analysisType string, v video.Video, caption string) (system, prompt string) {
	config := ps.GetConfig(analysisType)

	template := config.MetadataOnly
	if caption != "" {
		template = config.WithCaption
	}

	replacer := strings.NewReplacer(
		"{title}", v.Title,
		"{author}", v.Author,
		"{duration}", v.Duration,
		"{update}", formatPubdate(v.Pubdate),
		"{url}", v.URL,
		"{subtitle}", caption,
	)

	return config.System, replacer.Replace(template)
}

func formatPubdate(pubdate int64) string {
	if pubdate == 0 {
		return "N/A"
	}
	return time.Unix(pubdate, 0).In(time.Local).Format("2006-01-02 15:04:05")
}
