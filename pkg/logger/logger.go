// Package logger provides the process-wide leveled loggers used by every
// pipeline component.
package logger

import (
	"io"
	"log"
	"os"
)

var (
	InfoLog  *log.Logger
	WarnLog  *log.Logger
	ErrorLog *log.Logger
	logFile  *os.File
)

// Init sets up console-only logging. Called lazily by the helpers when
// InitFile was never used.
func Init() {
	InfoLog = log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
	WarnLog = log.New(os.Stdout, "WARN: ", log.Ldate|log.Ltime|log.Lshortfile)
	ErrorLog = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
}

// InitFile mirrors all log output to the given file in addition to the
// console.
func InitFile(filename string) error {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return err
	}
	logFile = f

	multi := io.MultiWriter(os.Stdout, f)
	InfoLog = log.New(multi, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
	WarnLog = log.New(multi, "WARN: ", log.Ldate|log.Ltime|log.Lshortfile)
	ErrorLog = log.New(multi, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
	return nil
}

// Close releases the log file, if one was opened.
func Close() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

func Info(v ...interface{}) {
	if InfoLog == nil {
		Init()
	}
	InfoLog.Println(v...)
}

func Infof(format string, v ...interface{}) {
	if InfoLog == nil {
		Init()
	}
	InfoLog.Printf(format, v...)
}

func Warn(v ...interface{}) {
	if WarnLog == nil {
		Init()
	}
	WarnLog.Println(v...)
}

func Warnf(format string, v ...interface{}) {
	if WarnLog == nil {
		Init()
	}
	WarnLog.Printf(format, v...)
}

func Error(v ...interface{}) {
	if ErrorLog == nil {
		Init()
	}
	ErrorLog.Println(v...)
}

func Errorf(format string, v ...interface{}) {
	if ErrorLog == nil {
		Init()
	}
	ErrorLog.Printf(format, v...)
}
