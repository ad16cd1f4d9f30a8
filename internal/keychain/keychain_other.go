//go:build !darwin && !linux

package keychain

import "errors"

var ErrUnavailable = errors.New("keychain not available on this platform")

func set(_, _, _ string) error { return ErrUnavailable }

func get(_, _ string) (string, error) { return "", ErrUnavailable }

func remove(_, _ string) error { return ErrUnavailable }

func available() bool { return false }
