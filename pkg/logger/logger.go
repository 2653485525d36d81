package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Глобальный экземпляр логгера
var (
	globalLogger = zap.NewNop()
	mu           sync.RWMutex
)

// Options настройки логгера
type Options struct {
	Level string
	// Базовое имя файла: пишутся <File>.log (читаемый) и <File>.json.log (JSON)
	File string
	// Очистить JSON-лог при старте
	Truncate bool
}

// Init инициализирует глобальный логгер. До вызова Init логгер ничего не пишет.
func Init(opts Options) error {
	l, err := newLogger(opts)
	if err != nil {
		return err
	}

	mu.Lock()
	globalLogger = l
	mu.Unlock()
	return nil
}

// GetLogger возвращает глобальный экземпляр логгера
func GetLogger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return globalLogger
}

// With возвращает дочерний логгер с постоянными полями
func With(fields ...zap.Field) *zap.Logger {
	return GetLogger().With(fields...)
}

// Вспомогательные функции для удобства использования
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	GetLogger().Fatal(msg, fields...)
}

// Sync сбрасывает буферы
func Sync() error {
	return GetLogger().Sync()
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// newLogger собирает tee из читаемого и JSON файлов
func newLogger(opts Options) (*zap.Logger, error) {
	if opts.File == "" {
		opts.File = "vpchart"
	}

	// Конфигурация энкодера
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("02.01.2006 - 15:04:05.000000000Z07:00")
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	readableFileEncoder := zapcore.NewConsoleEncoder(encoderConfig)
	jsonFileEncoder := zapcore.NewJSONEncoder(encoderConfig)

	readableFile, err := os.OpenFile(opts.File+".log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("открытие файла лога: %w", err)
	}

	jsonFlags := os.O_APPEND | os.O_CREATE | os.O_WRONLY
	if opts.Truncate {
		jsonFlags |= os.O_TRUNC
	}
	jsonFile, err := os.OpenFile(opts.File+".json.log", jsonFlags, 0644)
	if err != nil {
		readableFile.Close()
		return nil, fmt.Errorf("открытие JSON-лога: %w", err)
	}

	level := parseLevel(opts.Level)

	// Tee: читаемый файл + JSON файл. Консоль занята терминальным интерфейсом.
	core := zapcore.NewTee(
		zapcore.NewCore(readableFileEncoder, zapcore.AddSync(readableFile), level),
		zapcore.NewCore(jsonFileEncoder, zapcore.AddSync(jsonFile), level),
	)

	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)), nil
}
