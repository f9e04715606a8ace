//go:build unix

package mmfile

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Anon maps size bytes of private, zero-filled, read-write memory. The
// returned release function unmaps it and may be called more than once.
func Anon(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("mmfile: bad mapping size %d", size)
	}
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, fmt.Errorf("mmfile: map %d bytes: %w", size, err)
	}
	return data, unmapper(data), nil
}

// Map maps the file at path read-only and returns its contents.
func Map(path string) ([]byte, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close() // safe before return; mapping keeps pages alive

	info, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	size := info.Size()
	if size == 0 {
		return []byte{}, func() error { return nil }, nil
	}
	if size > int64(^uint(0)>>1) {
		return nil, nil, fmt.Errorf("mmfile: file too large to map (%d bytes)", size)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}
	return data, unmapper(data), nil
}

func unmapper(data []byte) func() error {
	done := false
	return func() error {
		if done {
			return nil
		}
		done = true
		err := unix.Munmap(data)
		if errors.Is(err, unix.EINVAL) {
			// Treat double-unmap as no-op for callers.
			return nil
		}
		return err
	}
}
