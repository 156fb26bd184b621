// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

//go:build !linux && !darwin

package blockpool

import "unsafe"

// mapArena allocates the arena on the Go heap, backed by words so that block
// headers are aligned. The garbage collector does not scan a []uint64, so the
// pointers in free-block headers are invisible to it. That holds only because
// every one of them points back into this same allocation, which the [Pool]
// keeps alive through its arena slice.
func mapArena(size int) ([]byte, error) {
	words := make([]uint64, (size+7)/8)
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(words))), size), nil
}

func unmapArena([]byte) error {
	return nil
}
