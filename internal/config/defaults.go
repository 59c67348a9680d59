package config

const (
	defaultConfigPath            = "~/.config/clipguard/config.toml"
	defaultWorkDir               = "~/.local/share/clipguard/work"
	defaultLogDir                = "~/.local/share/clipguard/logs"
	defaultCookiesDir            = "~/.config/clipguard/cookies"
	defaultDownloadBinary        = "yt-dlp"
	defaultDownloadFormat        = "best[ext=mp4]"
	defaultDownloadUserAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/91.0.4472.124 Safari/537.36"
	defaultDownloadRetries       = 2
	defaultDownloadTimeout       = 300
	defaultTranscriptionModel    = "medium"
	defaultTranscriptionLanguage = "pt"
	defaultTranscriptionVAD      = "silero"
	defaultTranscriptionTimeout  = 900
	defaultVisionBaseURL         = "http://localhost:11434/v1"
	defaultVisionAPIKey          = "ollama"
	defaultVisionModel           = "llama3.2-vision"
	defaultVisionTemperature     = 0.1
	defaultVisionMaxTokens       = 400
	defaultVisionFrameWidth      = 960
	defaultVisionTimeout         = 120
	defaultJudgeBaseURL          = "http://localhost:11434/v1/chat/completions"
	defaultJudgeModel            = "llama3.1"
	defaultJudgeReferer          = "https://github.com/clipguard/clipguard"
	defaultJudgeTitle            = "clipguard judge"
	defaultJudgeTimeout          = 180
	defaultAPIBind               = "127.0.0.1:8000"
	defaultAPIMaxConcurrent      = 2
	defaultAPIRateLimitPerMinute = 30
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultPipelineParallel      = true
	defaultDownloadSkipCertCheck = true
	defaultTranscriptionCUDA     = false
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:    defaultWorkDir,
			LogDir:     defaultLogDir,
			CookiesDir: defaultCookiesDir,
		},
		Download: Download{
			Binary:         defaultDownloadBinary,
			Format:         defaultDownloadFormat,
			UserAgent:      defaultDownloadUserAgent,
			SkipCertCheck:  defaultDownloadSkipCertCheck,
			Retries:        defaultDownloadRetries,
			TimeoutSeconds: defaultDownloadTimeout,
		},
		Transcription: Transcription{
			Model:          defaultTranscriptionModel,
			Language:       defaultTranscriptionLanguage,
			CUDAEnabled:    defaultTranscriptionCUDA,
			VADMethod:      defaultTranscriptionVAD,
			TimeoutSeconds: defaultTranscriptionTimeout,
		},
		Vision: Vision{
			BaseURL:        defaultVisionBaseURL,
			APIKey:         defaultVisionAPIKey,
			Model:          defaultVisionModel,
			Temperature:    defaultVisionTemperature,
			MaxTokens:      defaultVisionMaxTokens,
			FrameWidth:     defaultVisionFrameWidth,
			TimeoutSeconds: defaultVisionTimeout,
		},
		Judge: Judge{
			BaseURL:        defaultJudgeBaseURL,
			Model:          defaultJudgeModel,
			Referer:        defaultJudgeReferer,
			Title:          defaultJudgeTitle,
			TimeoutSeconds: defaultJudgeTimeout,
		},
		Pipeline: Pipeline{
			ParallelExtraction: defaultPipelineParallel,
		},
		API: API{
			Bind:               defaultAPIBind,
			MaxConcurrent:      defaultAPIMaxConcurrent,
			RateLimitPerMinute: defaultAPIRateLimitPerMinute,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
