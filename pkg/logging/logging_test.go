package logging

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestSetupLoggerVerbosityLevels(t *testing.T) {
	tests := []struct {
		name      string
		verbosity int
		expected  zerolog.Level
	}{
		{"default is warn", 0, zerolog.WarnLevel},
		{"single v is info", 1, zerolog.InfoLevel},
		{"double v is debug", 2, zerolog.DebugLevel},
		{"triple v is trace", 3, zerolog.TraceLevel},
		{"anything higher is trace", 5, zerolog.TraceLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetupLogger(tt.verbosity)
			assert.Equal(t, tt.expected, zerolog.GlobalLevel())
		})
	}
}

func TestGetLoggerAddsComponent(t *testing.T) {
	logger := GetLogger("bootstrap")
	assert.NotNil(t, logger)
}

func TestLogOperationStartReturnsCompletion(t *testing.T) {
	logger := GetLogger("test")
	done := LogOperationStart(logger, "noop")
	assert.NotNil(t, done)
	done()
}
