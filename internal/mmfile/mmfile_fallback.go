//go:build !unix

package mmfile

import (
	"fmt"
	"os"
)

// Anon allocates size zeroed bytes on the Go heap when mmap is not available.
func Anon(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("mmfile: bad mapping size %d", size)
	}
	return make([]byte, size), func() error { return nil }, nil
}

// Map reads the entire file when mmap is not available.
func Map(path string) ([]byte, func() error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, func() error { return nil }, err
	}
	return data, func() error { return nil }, nil
}
