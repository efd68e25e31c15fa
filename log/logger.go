package log

import (
	"os"
	"path/filepath"

	"github.com/perinatalhealth/nra-app/conf"
	"github.com/sirupsen/logrus"
)

var (
	Pipeline  logrus.FieldLogger
	Reference logrus.FieldLogger
	Export    logrus.FieldLogger
	Cli       logrus.FieldLogger
)

func init() {
	Pipeline = Logger(logrus.New(), conf.GetEnv("NRA_PIPELINE_LOG"),
		"pipeline", conf.GetEnv("ENVIRONMENT"))
	Reference = Logger(logrus.New(), conf.GetEnv("NRA_REFERENCE_LOG"),
		"reference", conf.GetEnv("ENVIRONMENT"))
	Export = Logger(logrus.New(), conf.GetEnv("NRA_EXPORT_LOG"),
		"export", conf.GetEnv("ENVIRONMENT"))
	Cli = Logger(logrus.New(), conf.GetEnv("NRA_CLI_LOG"),
		"cli", conf.GetEnv("ENVIRONMENT"))
}

func Logger(logger *logrus.Logger, outputFile string,
	application, environment string) logrus.FieldLogger {

	if outputFile != "" {
		if file, err := os.OpenFile(filepath.Clean(outputFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640); err == nil {
			logger.SetOutput(file)
		} else {
			logger.Infof("Failed to open output file %s. Will use stderr. %s",
				outputFile, err.Error())
		}
	}

	return logger.WithFields(logrus.Fields{
		"application": application,
		"environment": environment})
}
