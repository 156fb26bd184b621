// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package intrusive

import "github.com/pkg/errors"

// ErrCorrupted is wrapped by every error reporting a broken list structure
// (length mismatch, asymmetric links, cycles...). Use [errors.Is] to test for
// it.
var ErrCorrupted = errors.New("intrusive: list is corrupted")

// Corruptedf returns an error wrapping [ErrCorrupted] with the formatted
// message as context.
func Corruptedf(format string, args ...any) error {
	return errors.Wrapf(ErrCorrupted, format, args...)
}
