// Package logging wires the engine's diagnostic logger: process
// lifecycle, config loads, and per-config hard errors. A config that
// fails to load is logged here while its siblings keep running, so the
// entries carry enough fields to tell which config produced what.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a logrus.Logger writing to stderr, with "json" selecting the
// JSON formatter (--log-format json) and anything else the default text
// formatter.
func New(format string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{})
	}
	return log
}

// ForConfig returns a child logger field-keyed to the config path being
// run, so every line logged while running that config carries it.
func ForConfig(log *logrus.Logger, path string) *logrus.Entry {
	return log.WithField("config", path)
}

// ForWorker narrows further to the worker name.
func ForWorker(entry *logrus.Entry, name string) *logrus.Entry {
	return entry.WithField("worker", name)
}

// ForCase narrows further to the case description/target.
func ForCase(entry *logrus.Entry, description, target string) *logrus.Entry {
	return entry.WithFields(logrus.Fields{"case": description, "target": target})
}
