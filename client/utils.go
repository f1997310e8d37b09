package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/burntcarrot/linepad/config"
	"github.com/burntcarrot/linepad/crdt"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/writer"
)

// createConn creates a WebSocket connection.
func createConn(cfg config.ClientConfig) (*websocket.Conn, *http.Response, error) {
	u := url.URL{Scheme: "ws", Host: cfg.Server, Path: "/"}
	if cfg.Secure {
		u.Scheme = "wss"
	}

	// Get WebSocket connection.
	dialer := websocket.Dialer{
		HandshakeTimeout: 2 * time.Minute,
	}

	return dialer.Dial(u.String(), nil)
}

// ensureDirExists ensures that a directory exists, and if it isn't present, it tries to create a new one.
func ensureDirExists(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return true, nil
	}

	if err := os.Mkdir(path, 0700); err != nil {
		return false, err
	}
	return true, nil
}

// setupLogger initializes the client's logger (logrus). Nothing is written to
// the terminal since the editor owns it.
func setupLogger(logger *logrus.Logger) (*os.File, *os.File, error) {
	// define log file paths, based on the home directory.
	logPath := "linepad.log"
	debugLogPath := "linepad-debug.log"

	homeDir, err := os.UserHomeDir()
	if err == nil {
		linepadDir := filepath.Join(homeDir, ".linepad")

		dirExists, err := ensureDirExists(linepadDir)
		if err != nil {
			return nil, nil, err
		}
		if dirExists {
			logPath = filepath.Join(linepadDir, "linepad.log")
			debugLogPath = filepath.Join(linepadDir, "linepad-debug.log")
		}
	}

	// Open the log file and create if it does not exist.
	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644) // skipcq: GSC-G302
	if err != nil {
		return nil, nil, err
	}

	// Create a separate log file for verbose logs.
	debugLogFile, err := os.OpenFile(debugLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644) // skipcq: GSC-G302
	if err != nil {
		logFile.Close()
		return nil, nil, err
	}

	configureLogger(logger, logFile, debugLogFile)
	return logFile, debugLogFile, nil
}

// configureLogger routes warnings and errors to out, and everything else to debugOut.
func configureLogger(logger *logrus.Logger, out, debugOut io.Writer) {
	logger.SetOutput(io.Discard)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.TraceLevel)
	logger.AddHook(&writer.Hook{
		Writer: out,
		LogLevels: []logrus.Level{
			logrus.WarnLevel,
			logrus.ErrorLevel,
			logrus.FatalLevel,
			logrus.PanicLevel,
		},
	})
	logger.AddHook(&writer.Hook{
		Writer: debugOut,
		LogLevels: []logrus.Level{
			logrus.TraceLevel,
			logrus.DebugLevel,
			logrus.InfoLevel,
		},
	})
}

// closeLogFiles closes the log files created by the client.
// closeLogFiles is meant to be used for defer calls.
func closeLogFiles(logFile, debugLogFile *os.File) {
	if err := logFile.Close(); err != nil {
		fmt.Printf("Failed to close log file: %s", err)
		return
	}

	if err := debugLogFile.Close(); err != nil {
		fmt.Printf("Failed to close debug log file: %s", err)
		return
	}
}

// printDoc "prints" the document state to the logs.
// The default behavior is to NOT log anything, since documents can be large.
// This can be toggled via the `--debug` flag.
func printDoc(logger logrus.FieldLogger, debug bool, doc *crdt.Document) {
	if !debug || doc == nil {
		return
	}

	logger.Infof("---DOCUMENT STATE---")
	for i, c := range doc.Characters() {
		logger.WithFields(logrus.Fields{
			"index":    i,
			"value":    c.Value,
			"position": c.Position,
			"lamport":  c.Lamport,
		}).Info("character")
	}
}
