package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	old := [3]string{Version, Commit, BuildDate}
	t.Cleanup(func() { Version, Commit, BuildDate = old[0], old[1], old[2] })

	Version, Commit, BuildDate = "1.2.3", "abc123", "2026-10-18"
	assert.Equal(t, "keelctl 1.2.3 (commit abc123, built 2026-10-18)", String())
}
