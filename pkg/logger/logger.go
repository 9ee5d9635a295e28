package logger

import (
	"io"
	"log"
	"os"
	"strings"
)

var (
	// InfoLogger oddiy ish jarayoni loglari
	InfoLogger = log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime)
	// ErrorLogger xatolar uchun
	ErrorLogger = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
)

// Init loggerlarni sozlash. LOG_FILE berilsa, yozuvlar faylga ham ketadi.
func Init() {
	var infoOut io.Writer = os.Stdout
	var errOut io.Writer = os.Stderr

	if path := strings.TrimSpace(os.Getenv("LOG_FILE")); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Printf("log file %q ochilmadi: %v", path, err)
		} else {
			infoOut = io.MultiWriter(os.Stdout, f)
			errOut = io.MultiWriter(os.Stderr, f)
			log.SetOutput(infoOut)
		}
	}

	InfoLogger = log.New(infoOut, "INFO: ", log.Ldate|log.Ltime)
	ErrorLogger = log.New(errOut, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
}
