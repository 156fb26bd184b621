// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

//go:build linux || darwin

package blockpool

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// mapArena maps size bytes of anonymous, private memory outside of the Go
// heap.
func mapArena(size int) ([]byte, error) {
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, errors.Wrapf(err, "blockpool: mmap %d bytes", size)
	}
	return mem, nil
}

func unmapArena(mem []byte) error {
	return errors.Wrap(unix.Munmap(mem), "blockpool: munmap")
}
