// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

// Package config holds the environment-driven settings of the intrusive
// containers.
package config

import (
	"os"
	"strconv"

	"github.com/DataDog/intrusive-go/log"
)

// Configuration environment variables
const (
	// EnvChecks enables structural verification after every list mutation.
	EnvChecks = "DD_INTRUSIVE_CHECKS"
)

// Configuration constants and default values
const (
	DefaultChecks = false
)

// Config holds the configuration of the intrusive containers.
type Config struct {
	// Checks makes every mutating list operation verify the list invariants
	// afterwards, panicking on violation. This turns O(1) operations into O(n)
	// ones and is meant for debugging embedding code.
	Checks bool
}

// checks is read once at start-up. It is a plain bool, read on every list
// mutation; only [SetChecks] writes it.
var checks = New().Checks

// New creates and returns a new configuration by reading the env.
func New() Config {
	return Config{
		Checks: readChecks(),
	}
}

// Checks reports whether invariant checks are enabled.
func Checks() bool {
	return checks
}

// SetChecks overrides the invariant checks setting, and returns a function
// restoring the previous value. It must not be called while lists are being
// used from other goroutines; it exists for tests.
func SetChecks(enabled bool) (restore func()) {
	previous := checks
	checks = enabled
	return func() { checks = previous }
}

func readChecks() bool {
	val, present := os.LookupEnv(EnvChecks)
	if !present || val == "" {
		return DefaultChecks
	}
	enabled, err := strconv.ParseBool(val)
	if err != nil {
		log.Debug("intrusive: could not parse %s=%q. Defaulting to %t", EnvChecks, val, DefaultChecks)
		return DefaultChecks
	}
	if enabled {
		log.Info("intrusive: %s is set, list invariants are verified after every mutation", EnvChecks)
	}
	return enabled
}
