//go:build !linux

package core

// RaiseThreadPriority is a no-op outside Linux
func RaiseThreadPriority(nice int) error {
	return nil
}
