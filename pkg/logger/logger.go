package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogOption 日志初始化选项，由 config.LogConfig.ToLogOption() 构造
type LogOption struct {
	Format   string // 日志格式："console" 或 "json"
	LogDir   string // 日志目录；为空时仅输出到 stdout
	Level    string // 日志级别：debug / info / warn / error
	Compress bool   // 是否压缩轮转后的旧日志
}

var sugar *zap.SugaredLogger

func init() {
	// 默认 logger，保证未调用 InitLogger 时（如单测）也可安全打日志
	l, _ := zap.NewDevelopment(zap.AddCallerSkip(1))
	sugar = l.Sugar()
}

// InitLogger 按选项初始化全局 logger。LogDir 非空时同时写入轮转文件与 stdout。
func InitLogger(opt LogOption) error {
	level, err := parseLevel(opt.Level)
	if err != nil {
		return err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var encoder zapcore.Encoder
	switch strings.ToLower(opt.Format) {
	case "", "console":
		encoder = zapcore.NewConsoleEncoder(encCfg)
	case "json":
		encoder = zapcore.NewJSONEncoder(encCfg)
	default:
		return fmt.Errorf("unsupported log format: %q", opt.Format)
	}

	syncers := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	if opt.LogDir != "" {
		if err := os.MkdirAll(opt.LogDir, 0o755); err != nil {
			return fmt.Errorf("create log dir %q: %w", opt.LogDir, err)
		}
		rotator := &lumberjack.Logger{
			Filename:   filepath.Join(opt.LogDir, "app.log"),
			MaxSize:    256, // 单文件上限（MB）
			MaxBackups: 10,
			MaxAge:     14, // 保留天数
			Compress:   opt.Compress,
		}
		syncers = append(syncers, zapcore.AddSync(rotator))
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(syncers...), level)
	logger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))

	if sugar != nil {
		_ = sugar.Sync()
	}
	sugar = logger.Sugar()
	return nil
}

func parseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unsupported log level: %q", s)
	}
}

// Sync 刷新缓冲日志，进程退出前调用
func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}

func Debugf(format string, args ...any) {
	sugar.Debugf(format, args...)
}

func Infof(format string, args ...any) {
	sugar.Infof(format, args...)
}

func Warnf(format string, args ...any) {
	sugar.Warnf(format, args...)
}

func Errorf(format string, args ...any) {
	sugar.Errorf(format, args...)
}
