package logger

import (
	"go.uber.org/zap"

	"github.com/dotflow/refill-backend/internal/types/environments"
)

// serviceName is stamped on every structured record emitted outside
// development, so aggregated logs stay attributable.
const serviceName = "refill-backend"

type Logger struct {
	wrappedLogger *zap.Logger
}

func New(env environments.Environment) *Logger {
	var cfg zap.Config

	switch env {
	case environments.Development:
		cfg = newDevelopmentLoggerConfig()
	case environments.Test:
		cfg = newTestLoggerConfig()
	case environments.Staging:
		cfg = newStagingLoggerConfig()
	case environments.Production:
		cfg = newProductionLoggerConfig()
	default:
		cfg = newProductionLoggerConfig()
	}

	zapLogger, err := cfg.Build()
	if err != nil {
		panic(err)
	}

	return &Logger{
		wrappedLogger: zapLogger,
	}
}

func (l *Logger) Debug(msg string, inputFields ...map[string]string) {
	l.wrappedLogger.Debug(msg, foldFields(inputFields)...)
}

func (l *Logger) Error(msg string, inputFields ...map[string]string) {
	l.wrappedLogger.Error(msg, foldFields(inputFields)...)
}

func (l *Logger) Fatal(msg string, inputFields ...map[string]string) {
	l.wrappedLogger.Fatal(msg, foldFields(inputFields)...)
}

func (l *Logger) Info(msg string, inputFields ...map[string]string) {
	l.wrappedLogger.Info(msg, foldFields(inputFields)...)
}

// foldFields flattens every supplied map into one field set. A later map
// wins when the same key appears twice.
func foldFields(inputFields []map[string]string) []zap.Field {
	if len(inputFields) == 0 {
		return nil
	}
	if len(inputFields) == 1 {
		return transformStrMapToFields(inputFields[0])
	}

	merged := map[string]string{}
	for _, strMap := range inputFields {
		for k, v := range strMap {
			merged[k] = v
		}
	}
	return transformStrMapToFields(merged)
}

func transformStrMapToFields(strMap map[string]string) []zap.Field {
	fields := []zap.Field{}
	for k, v := range strMap {
		fields = append(fields, zap.String(k, v))
	}

	return fields
}
