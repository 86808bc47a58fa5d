package ai

import "time"

const (
	ProviderNameDeepSeek = "deepseek"

	DefaultDeepSeekBaseURL = "https://api.deepseek.com/v1"
	DefaultDeepSeekModel   = "deepseek-chat"

	DefaultTimeout = 60 * time.Second
)
