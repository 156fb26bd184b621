// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2022-present Datadog, Inc.

// Package log provides the logging entry points used throughout this module.
// By default, messages are forwarded to the datadog-agent logger; embedding
// code can route them elsewhere using [SetBackend].
package log

import (
	"fmt"

	ddlog "github.com/DataDog/datadog-agent/pkg/util/log"
)

// Backend is the set of functions messages are dispatched to. The Errorf and
// Criticalf functions return the formatted message as an error, which must
// preserve any %w wrapping.
type Backend struct {
	Trace     func(string, ...any)
	Debug     func(string, ...any)
	Info      func(string, ...any)
	Warn      func(string, ...any)
	Errorf    func(string, ...any) error
	Criticalf func(string, ...any) error
}

var backend = defaultBackend()

// SetBackend replaces the logging functions with the non-nil ones from b.
// It is not safe to call concurrently with logging.
func SetBackend(b Backend) {
	if b.Trace != nil {
		backend.Trace = b.Trace
	}
	if b.Debug != nil {
		backend.Debug = b.Debug
	}
	if b.Info != nil {
		backend.Info = b.Info
	}
	if b.Warn != nil {
		backend.Warn = b.Warn
	}
	if b.Errorf != nil {
		backend.Errorf = b.Errorf
	}
	if b.Criticalf != nil {
		backend.Criticalf = b.Criticalf
	}
}

// ResetBackend restores the default datadog-agent backend.
func ResetBackend() {
	backend = defaultBackend()
}

// Trace logs a message at the trace level.
func Trace(format string, args ...any) {
	backend.Trace(format, args...)
}

// Debug logs a message at the debug level.
func Debug(format string, args ...any) {
	backend.Debug(format, args...)
}

// Info logs a message at the info level.
func Info(format string, args ...any) {
	backend.Info(format, args...)
}

// Warn logs a message at the warning level.
func Warn(format string, args ...any) {
	backend.Warn(format, args...)
}

// Errorf logs a message at the error level and returns it as an error.
func Errorf(format string, args ...any) error {
	return backend.Errorf(format, args...)
}

// Criticalf logs a message at the critical level and returns it as an error.
func Criticalf(format string, args ...any) error {
	return backend.Criticalf(format, args...)
}

func defaultBackend() Backend {
	return Backend{
		Trace: ddlog.Tracef,
		Debug: ddlog.Debugf,
		Info:  ddlog.Infof,
		Warn: func(format string, args ...any) {
			_ = ddlog.Warnf(format, args...)
		},
		// The agent's Errorf flattens its arguments, so the error is built here
		// to keep it unwrappable.
		Errorf: func(format string, args ...any) error {
			err := fmt.Errorf(format, args...)
			_ = ddlog.Error(err.Error())
			return err
		},
		Criticalf: func(format string, args ...any) error {
			err := fmt.Errorf(format, args...)
			_ = ddlog.Critical(err.Error())
			return err
		},
	}
}
