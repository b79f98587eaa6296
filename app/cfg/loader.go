package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// HTTP server configuration
	Port string `long:"port" env:"PORT" default:"8000" description:"HTTP server port"`

	// Upstream platform configuration
	APIBase       string `long:"api-base" env:"API_BASE" default:"https://api.bilibili.com" description:"Base URL of the video platform API"`
	SessionCookie string `long:"session-cookie" env:"SESSION_COOKIE" description:"Session cookie for search and caption requests (optional)"`

	// Text-generation API configuration
	LLMURL    string `long:"llm-url" env:"LLM_URL" default:"https://dashscope.aliyuncs.com/api/v1/services/aigc/text-generation/generation" description:"Text-generation API endpoint"`
	LLMAPIKey string `long:"llm-api-key" env:"LLM_API_KEY" description:"Text-generation API key (required for analysis)"`
	LLMModel  string `long:"llm-model" env:"LLM_MODEL" default:"qwen-max" description:"Text-generation model name"`

	// Pipeline configuration
	OutputDir        string `long:"output-dir" env:"OUTPUT_DIR" default:"./output/markdowns" description:"Directory for rendered markdown notes"`
	MediaDir         string `long:"media-dir" env:"MEDIA_DIR" default:"./output/media" description:"Directory for downloaded media files"`
	PromptsDir       string `long:"prompts-dir" env:"PROMPTS_DIR" default:"./prompts" description:"Directory containing prompt template files"`
	WorkerCount      int    `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background workers for analysis tasks"`
	AnalysisInterval int    `long:"analysis-interval" env:"ANALYSIS_INTERVAL" default:"1" description:"Minimum interval between analysed items in seconds"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36" description:"User agent string for outbound HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Asia/Shanghai)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Port:             raw.Port,
		APIBase:          raw.APIBase,
		SessionCookie:    raw.SessionCookie,
		LLMURL:           raw.LLMURL,
		LLMAPIKey:        raw.LLMAPIKey,
		LLMModel:         raw.LLMModel,
		OutputDir:        raw.OutputDir,
		MediaDir:         raw.MediaDir,
		PromptsDir:       raw.PromptsDir,
		WorkerCount:      raw.WorkerCount,
		AnalysisInterval: raw.AnalysisInterval,
		UserAgent:        raw.UserAgent,
		Timezone:         raw.Timezone,
		Debug:            raw.Debug,
		Version:          GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set replaces the global configuration. Intended for tests.
func Set(cfg *Cfg) {
	globalCfg = cfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
