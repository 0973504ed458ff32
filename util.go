package plinkbed

import (
	"io"
	"log"
	"os"
)

var logger = log.New(os.Stderr, "", log.LstdFlags)

// SetLogger replaces the logger used for load summaries and warnings. A nil
// logger discards everything.
func SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	logger = l
}

// WhichSQLiteDriver reports the database/sql driver used for BIM indexes:
// "sqlite3" when built with cgo, "sqlite" otherwise.
func WhichSQLiteDriver() string {
	return whichSQLiteDriver
}
