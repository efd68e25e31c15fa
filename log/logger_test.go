package log

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/pborman/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/perinatalhealth/nra-app/conf"
)

// TestLoggers verifies that all of our loggers are set up with the expected
// fields and write to the expected files.
func TestLoggers(t *testing.T) {
	env := uuid.New()

	tests := []struct {
		application string
	}{
		{"pipeline"},
		{"reference"},
		{"export"},
		{"cli"},
	}
	for _, tt := range tests {
		t.Run(tt.application, func(t *testing.T) {
			logFile, err := os.CreateTemp("", "*")
			assert.NoError(t, err)
			t.Cleanup(func() { assert.NoError(t, os.Remove(logFile.Name())) })

			logger := Logger(logrus.New(), logFile.Name(), tt.application, env)

			msg := uuid.New()
			logger.Info(msg)

			data, err := io.ReadAll(logFile)
			assert.NoError(t, err)

			res := strings.Split(string(data), "\n")
			// msg + new line
			assert.Len(t, res, 2)
			assert.Contains(t, res[0], msg)
			assert.Contains(t, res[0], "application="+tt.application)
			assert.Contains(t, res[0], "environment="+env)
		})
	}
}

func TestLoggerFallsBackToStderr(t *testing.T) {
	// An unwritable output file must not prevent logger construction.
	logger := Logger(logrus.New(), "/nonexistent-dir/out.log", "pipeline", conf.GetEnv("ENVIRONMENT"))
	assert.NotNil(t, logger)
}
