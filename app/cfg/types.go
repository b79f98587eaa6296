package cfg

type Cfg struct {
	// HTTP server configuration
	Port string

	// Upstream platform configuration
	APIBase       string
	SessionCookie string

	// Text-generation API configuration
	LLMURL    string
	LLMAPIKey string
	LLMModel  string

	// Pipeline configuration
	OutputDir        string
	MediaDir         string
	PromptsDir       string
	WorkerCount      int
	AnalysisInterval int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
