//go:build darwin || linux

package main

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// lockImage takes an advisory, non-blocking exclusive lock on the
// image file, so two sffsutil invocations (or an emulator instance
// and sffsutil) cannot mutate the same backing file concurrently --
// an enforcement mechanism the engine itself does not provide.
func lockImage(f *os.File) error {
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		return fmt.Errorf("locking %s: %w", f.Name(), err)
	}
	return nil
}

func unlockImage(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
