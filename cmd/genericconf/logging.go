// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package genericconf

import (
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ethereum/go-ethereum/log"
)

var globalFileLogger = &fileLogger{}

// fileLogger hands records to a rotating file through a bounded queue.
// Records are dropped while the queue is full so that a slow disk never
// blocks the sync loop.
type fileLogger struct {
	mutex   sync.Mutex
	writer  *lumberjack.Logger
	queue   chan []byte
	drained chan struct{}
}

func (l *fileLogger) Write(p []byte) (int, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.queue == nil {
		return len(p), nil
	}
	record := make([]byte, len(p))
	copy(record, p)
	select {
	case l.queue <- record:
	default:
	}
	return len(p), nil
}

func (l *fileLogger) open(config *FileLoggingConfig, filename string) io.Writer {
	writer := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		LocalTime:  config.LocalTime,
		Compress:   config.Compress,
	}
	bufSize := config.BufSize
	if bufSize < 1 {
		bufSize = 1
	}
	queue := make(chan []byte, bufSize)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for record := range queue {
			_, _ = writer.Write(record)
		}
	}()
	l.mutex.Lock()
	l.writer, l.queue, l.drained = writer, queue, drained
	l.mutex.Unlock()
	return l
}

func (l *fileLogger) close() error {
	l.mutex.Lock()
	writer, queue, drained := l.writer, l.queue, l.drained
	l.writer, l.queue, l.drained = nil, nil, nil
	l.mutex.Unlock()
	if queue == nil {
		return nil
	}
	close(queue)
	<-drained
	return writer.Close()
}

// InitLog installs the default logger. It may be called again to apply a new
// configuration, the previous log file is closed first.
func InitLog(logType string, logLevel string, fileLoggingConfig *FileLoggingConfig, pathResolver func(string) string) error {
	if err := globalFileLogger.close(); err != nil {
		return fmt.Errorf("failed to close file writer: %w", err)
	}
	var output io.Writer = os.Stderr
	if fileLoggingConfig.Enable {
		output = io.MultiWriter(os.Stderr, globalFileLogger.open(fileLoggingConfig, pathResolver(fileLoggingConfig.File)))
	}
	handler, err := HandlerFromLogType(logType, output)
	if err != nil {
		return fmt.Errorf("error parsing log type when creating handler: %w", err)
	}
	slogLevel, err := ToSlogLevel(logLevel)
	if err != nil {
		return fmt.Errorf("error parsing log level: %w", err)
	}
	glogger := log.NewGlogHandler(handler)
	glogger.Verbosity(slogLevel)
	log.SetDefault(log.NewLogger(glogger))
	return nil
}

// CloseLog flushes and closes the log file, if any.
func CloseLog() error {
	return globalFileLogger.close()
}
