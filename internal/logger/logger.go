// Package logger configures the process-wide go-logging backend.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/op/go-logging"
)

const format = `%{time:2006-01-02 15:04:05} %{level:.5s}     %{message}`

// Module is the go-logging module name shared by every package.
const Module = "rpitems"

// Init parses level and installs a leveled, formatted backend writing to
// stderr. An invalid level is returned as an error.
func Init(level string) error {
	return InitWriter(os.Stderr, level)
}

func InitWriter(out io.Writer, level string) error {
	if strings.TrimSpace(level) == "" {
		level = "INFO"
	}
	baseBackend := logging.NewLogBackend(out, "", 0)
	backendFormatter := logging.NewBackendFormatter(baseBackend, logging.MustStringFormatter(format))

	backendLeveled := logging.AddModuleLevel(backendFormatter)
	logLevelCode, err := logging.LogLevel(strings.ToUpper(level))
	if err != nil {
		return err
	}
	backendLeveled.SetLevel(logLevelCode, "")

	logging.SetBackend(backendLeveled)
	return nil
}
