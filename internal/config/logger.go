package config

import "github.com/MonkyMars/gecho"

// NewLogger логгер приложения с уровнем из конфигурации
func NewLogger(cfg *Config, showCaller bool) *gecho.Logger {
	level := gecho.ParseLogLevel(cfg.LogLevel())
	return gecho.NewLogger(gecho.NewConfig(gecho.WithShowCaller(showCaller), gecho.WithLogLevel(level)))
}
