//go:build linux

package keychain

import (
	"errors"
	"os/exec"
	"strings"
)

var ErrUnavailable = errors.New("Secret Service unavailable (secret-tool not found or failed)")

func set(service, account, value string) error {
	cmd := exec.Command("secret-tool", "store", "--label="+service, "service", service, "account", account)
	cmd.Stdin = strings.NewReader(value)
	if out, err := cmd.CombinedOutput(); err != nil {
		return errors.Join(ErrUnavailable, err, outputErr(out))
	}
	return nil
}

func get(service, account string) (string, error) {
	cmd := exec.Command("secret-tool", "lookup", "service", service, "account", account)
	out, err := cmd.CombinedOutput()
	if err != nil {
		// lookup exits 1 with no output when nothing matches
		if cmd.ProcessState != nil && cmd.ProcessState.ExitCode() == 1 && len(strings.TrimSpace(string(out))) == 0 {
			return "", nil
		}
		return "", errors.Join(ErrUnavailable, err, outputErr(out))
	}
	return strings.TrimSuffix(string(out), "\n"), nil
}

func remove(service, account string) error {
	_ = exec.Command("secret-tool", "clear", "service", service, "account", account).Run()
	return nil
}

func available() bool {
	_, err := exec.LookPath("secret-tool")
	return err == nil
}

func outputErr(b []byte) error {
	if s := strings.TrimSpace(string(b)); s != "" {
		return errors.New(s)
	}
	return nil
}
