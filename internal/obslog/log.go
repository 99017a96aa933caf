// This file is part of matstrip
//
// Package obslog centralizes the sanitizer's structured logging. Every
// failure spec.md §7 calls out is logged through here, at debug level
// for per-entry issues and error level for whole-file failures, always
// carrying the offending entry path and source archive path as fields.
//
// Copyright (c) 2026 matstrip Contributors
// Licensed under the MIT License
package obslog

import (
	"os"

	"github.com/sirupsen/logrus"
)

// L is the package-wide logger. Grounded on nabbar-golib/logger's choice
// of logrus as the structured-logging backend; matstrip needs only
// level-gated, field-carrying log lines, not the full multi-sink logger
// abstraction nabbar-golib builds around it.
var L = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetVerbose raises the logger to debug level, wired to the CLI's
// --verbose flag.
func SetVerbose(verbose bool) {
	if verbose {
		L.SetLevel(logrus.DebugLevel)
	} else {
		L.SetLevel(logrus.InfoLevel)
	}
}

// EntrySkipped logs a per-entry, non-fatal decision at debug level.
func EntrySkipped(archivePath, entryName, reason string) {
	L.WithFields(logrus.Fields{
		"archive": archivePath,
		"entry":   entryName,
	}).Debug(reason)
}

// WholeFileFailure logs a fatal, whole-file failure at error level.
func WholeFileFailure(sourcePath string, err error) {
	L.WithFields(logrus.Fields{
		"source": sourcePath,
	}).Error(err)
}

// NestedFailure logs a child stripper's failure propagating to its
// parent container at error level, carrying both paths.
func NestedFailure(archivePath, entryName string, err error) {
	L.WithFields(logrus.Fields{
		"archive": archivePath,
		"entry":   entryName,
	}).Error(err)
}
