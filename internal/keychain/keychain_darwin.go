//go:build darwin

package keychain

import (
	"errors"
	"os/exec"
	"strings"
)

var ErrUnavailable = errors.New("macOS Keychain unavailable (security(1) not found or failed)")

const notFound = "could not be found"

func set(service, account, value string) error {
	out, err := exec.Command("security", "add-generic-password",
		"-s", service,
		"-a", account,
		"-w", value,
		"-U",
	).CombinedOutput()
	if err != nil {
		return errors.Join(ErrUnavailable, err, outputErr(out))
	}
	return nil
}

func get(service, account string) (string, error) {
	out, err := exec.Command("security", "find-generic-password",
		"-s", service,
		"-a", account,
		"-w",
	).CombinedOutput()
	if err != nil {
		if strings.Contains(string(out), notFound) {
			return "", nil
		}
		return "", errors.Join(ErrUnavailable, err, outputErr(out))
	}
	return strings.TrimSuffix(string(out), "\n"), nil
}

func remove(service, account string) error {
	_ = exec.Command("security", "delete-generic-password", "-s", service, "-a", account).Run()
	return nil
}

func available() bool {
	_, err := exec.LookPath("security")
	return err == nil
}

func outputErr(b []byte) error {
	if s := strings.TrimSpace(string(b)); s != "" {
		return errors.New(s)
	}
	return nil
}
