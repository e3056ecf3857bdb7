// Package logger 提供 go-pcp 的统一日志系统
//
// 基于标准库 log/slog，支持：
//   - 按子系统配置日志级别
//   - 环境变量配置（PCP_LOG_LEVEL, PCP_LOG_FORMAT）
//   - 结构化日志
//
// 使用示例:
//
//	package client
//
//	import "github.com/dep2p/go-pcp/internal/util/logger"
//
//	var log = logger.Logger("client")
//
//	func foo() {
//	    log.Info("映射已授予", "id", id, "lifetime", lifetime)
//	    log.Debug("重传调度", "rt", rt)
//	}
//
// 环境变量配置:
//
//	# 设置所有子系统为 info，client 子系统为 debug
//	PCP_LOG_LEVEL=client=debug,info
//
//	# 使用 JSON 格式输出
//	PCP_LOG_FORMAT=json
package logger

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	// loggers 缓存各子系统的 Logger
	loggers sync.Map // map[string]*slog.Logger

	// handlers 缓存各子系统的 Handler（用于动态调整级别）
	handlers sync.Map // map[string]*subsystemHandler
)

// Logger 获取指定子系统的 Logger
//
// Logger 会根据 PCP_LOG_LEVEL 环境变量配置日志级别。
// 同一子系统多次调用会返回相同的 Logger 实例。
//
// 示例:
//
//	var log = logger.Logger("wire")
//	log.Debug("解码响应", "opcode", op)
func Logger(subsystem string) *slog.Logger {
	if l, ok := loggers.Load(subsystem); ok {
		return l.(*slog.Logger)
	}

	cfg := configFromEnv()
	level := cfg.levelFor(subsystem)

	handler := newHandler(subsystem, level, cfg.format)
	l := slog.New(handler)

	actual, _ := loggers.LoadOrStore(subsystem, l)
	if h, ok := handler.(*subsystemHandler); ok {
		handlers.Store(subsystem, h)
	}

	return actual.(*slog.Logger)
}

// SetLevel 动态设置子系统的日志级别
//
// 允许在运行时调整日志级别，无需重启。
func SetLevel(subsystem string, level slog.Level) {
	if h, ok := handlers.Load(subsystem); ok {
		h.(*subsystemHandler).SetLevel(level)
	}
}

// Discard 返回一个丢弃所有日志的 Logger
//
// 主要用于测试，避免日志输出干扰测试结果。
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}

// ============================================================================
//                              环境变量配置
// ============================================================================

// envConfig 日志配置（从环境变量解析，进程内解析一次）
type envConfig struct {
	defaultLevel    slog.Level
	subsystemLevels map[string]slog.Level
	format          logFormat
}

type logFormat int

const (
	formatText logFormat = iota
	formatJSON
)

var (
	envCache *envConfig
	envOnce  sync.Once
)

// configFromEnv 解析环境变量配置
//
// 环境变量:
//   - PCP_LOG_LEVEL: 格式 子系统=级别,子系统=级别,默认级别
//     示例: client=debug,wire=warn,info
//   - PCP_LOG_FORMAT: text 或 json
func configFromEnv() *envConfig {
	envOnce.Do(func() {
		cfg := &envConfig{
			defaultLevel:    slog.LevelInfo,
			subsystemLevels: make(map[string]slog.Level),
			format:          formatText,
		}

		if levelStr := os.Getenv("PCP_LOG_LEVEL"); levelStr != "" {
			parseLevelConfig(cfg, levelStr)
		}

		if strings.EqualFold(os.Getenv("PCP_LOG_FORMAT"), "json") {
			cfg.format = formatJSON
		}

		envCache = cfg
	})
	return envCache
}

func (c *envConfig) levelFor(subsystem string) slog.Level {
	if level, ok := c.subsystemLevels[subsystem]; ok {
		return level
	}
	return c.defaultLevel
}

// parseLevelConfig 解析日志级别配置字符串
// 格式: subsystem=level,subsystem=level,defaultLevel
func parseLevelConfig(cfg *envConfig, levelStr string) {
	for _, part := range strings.Split(levelStr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if kv := strings.SplitN(part, "=", 2); len(kv) == 2 && strings.Contains(part, "=") {
			subsystem := strings.TrimSpace(kv[0])
			if level, ok := parseLevel(strings.TrimSpace(kv[1])); ok {
				cfg.subsystemLevels[subsystem] = level
			}
		} else if level, ok := parseLevel(part); ok {
			cfg.defaultLevel = level
		}
	}
}

// parseLevel 解析日志级别名称
func parseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
