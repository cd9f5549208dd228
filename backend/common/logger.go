package common

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	sysLogger   *zap.Logger
	sysLoggerMu sync.RWMutex
)

// SetupGinLog points gin's writers at the log directory (when one is
// configured) and rebuilds the system logger on top of them.
func SetupGinLog() {
	if *LogDir != "" {
		if err := os.MkdirAll(*LogDir, 0o755); err != nil {
			log.Fatal(err)
		}
		commonFd, err := os.OpenFile(filepath.Join(*LogDir, "common.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatal("failed to open log file")
		}
		errorFd, err := os.OpenFile(filepath.Join(*LogDir, "error.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatal("failed to open log file")
		}
		gin.DefaultWriter = io.MultiWriter(os.Stdout, commonFd)
		gin.DefaultErrorWriter = io.MultiWriter(os.Stderr, errorFd)
	}
	SetLogger(NewLogger(gin.DefaultWriter, gin.DefaultErrorWriter))
}

// NewLogger writes records below error level to out and the rest to errOut.
func NewLogger(out io.Writer, errOut io.Writer) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 - 15:04:05")
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.AddSync(out), zap.LevelEnablerFunc(func(l zapcore.Level) bool {
			return l >= zapcore.InfoLevel && l < zapcore.ErrorLevel
		})),
		zapcore.NewCore(encoder, zapcore.AddSync(errOut), zapcore.ErrorLevel),
	)
	return zap.New(core)
}

func SetLogger(l *zap.Logger) {
	sysLoggerMu.Lock()
	defer sysLoggerMu.Unlock()
	sysLogger = l
}

func Logger() *zap.Logger {
	sysLoggerMu.RLock()
	l := sysLogger
	sysLoggerMu.RUnlock()
	if l != nil {
		return l
	}

	sysLoggerMu.Lock()
	defer sysLoggerMu.Unlock()
	if sysLogger == nil {
		sysLogger = NewLogger(gin.DefaultWriter, gin.DefaultErrorWriter)
	}
	return sysLogger
}

func SysLog(s string) {
	Logger().Info(s, zap.String("scope", "SYS"))
}

func SysError(s string) {
	Logger().Error(s, zap.String("scope", "SYS"))
}

type requestIdKey struct{}

func WithRequestId(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIdKey{}, id)
}

func RequestIdFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIdKey{}).(string)
	return id
}

// SysErrorContext is SysError tagged with the request id carried by ctx.
func SysErrorContext(ctx context.Context, s string) {
	fields := []zap.Field{zap.String("scope", "SYS")}
	if id := RequestIdFromContext(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	Logger().Error(s, fields...)
}

func FatalLog(v ...any) {
	Logger().Fatal(fmt.Sprint(v...), zap.String("scope", "FATAL"))
}
