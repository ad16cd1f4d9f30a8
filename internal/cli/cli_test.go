package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/keel-hq/keelctl/internal/config"
	"github.com/keel-hq/keelctl/internal/keeltest"
	"github.com/keel-hq/keelctl/internal/model"
	"github.com/keel-hq/keelctl/internal/version"
	"github.com/keel-hq/keelctl/internal/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) *keeltest.Server {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.PathEnv, "")
	srv := keeltest.New()
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	root := NewRootCommandWithIO(strings.NewReader(stdin), out, errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func login(t *testing.T, srv *keeltest.Server) {
	t.Helper()
	out, err := execute(t, keeltest.Password+"\n", "login", "--server", srv.APIURL(), "--username", keeltest.Username, "--password-stdin")
	require.NoError(t, err)
	require.Contains(t, out, "Logged in to "+srv.APIURL()+" as Administrator")
}

func TestLoginPersistsSession(t *testing.T) {
	srv := setup(t)
	login(t, srv)

	out, err := execute(t, "", "whoami", "--server", srv.APIURL(), "-o", "json")
	require.NoError(t, err)
	var who whoami
	require.NoError(t, json.Unmarshal([]byte(out), &who))
	assert.Equal(t, "Administrator", who.Name)
	assert.Equal(t, keeltest.Username, who.Username)
	assert.Equal(t, []string{"admin"}, who.Roles)
	assert.NotEmpty(t, who.Welcome)

	last := srv.Last(http.MethodGet)
	require.NotNil(t, last)
	assert.Equal(t, "/v1/auth/user", last.Path)
}

func TestLoginPromptsForUsername(t *testing.T) {
	srv := setup(t)
	out, err := execute(t, "admin\nadmin\n", "login", "--server", srv.APIURL())
	require.NoError(t, err)
	assert.Contains(t, out, "as Administrator")
}

func TestLoginRejected(t *testing.T) {
	srv := setup(t)
	_, err := execute(t, "wrong\n", "login", "--server", srv.APIURL(), "-u", keeltest.Username, "--password-stdin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	_, err = execute(t, "", "whoami", "--server", srv.APIURL())
	require.ErrorIs(t, err, errNotLoggedIn)
}

func TestLoginFallsBackToBasicAuth(t *testing.T) {
	srv := setup(t)
	srv.Fail["POST /v1/auth/login"] = http.StatusNotFound
	out, err := execute(t, keeltest.Password+"\n", "login", "--server", srv.APIURL(), "-u", keeltest.Username, "--password-stdin")
	require.NoError(t, err)
	assert.Contains(t, out, "has no login endpoint, using basic auth")
	assert.Contains(t, out, "Logged in to "+srv.APIURL()+" as Administrator")

	_, err = execute(t, "", "resources", "--server", srv.APIURL())
	require.NoError(t, err)
}

func TestLoginRefresh(t *testing.T) {
	srv := setup(t)
	_, err := execute(t, "", "login", "--refresh", "--server", srv.APIURL())
	require.ErrorIs(t, err, errNotLoggedIn)

	login(t, srv)
	out, err := execute(t, "", "login", "--refresh", "--server", srv.APIURL())
	require.NoError(t, err)
	assert.Contains(t, out, "Session refreshed for admin")
}

func TestLogout(t *testing.T) {
	srv := setup(t)
	login(t, srv)
	out, err := execute(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	_, err = execute(t, "", "whoami", "--server", srv.APIURL())
	require.ErrorIs(t, err, errNotLoggedIn)
}

func TestCommandsNeedLogin(t *testing.T) {
	srv := setup(t)
	_, err := execute(t, "", "resources", "--server", srv.APIURL())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keelctl login")
}

func TestResources(t *testing.T) {
	srv := setup(t)
	login(t, srv)

	out, err := execute(t, "", "resources", "--server", srv.APIURL())
	require.NoError(t, err)
	assert.Contains(t, out, "NAMESPACE")
	assert.Contains(t, out, "wd")
	assert.Contains(t, out, "api")
	assert.Contains(t, out, "3/3")

	out, err = execute(t, "", "resources", "--managed", "--server", srv.APIURL(), "-o", "json")
	require.NoError(t, err)
	var managed []model.Resource
	require.NoError(t, json.Unmarshal([]byte(out), &managed))
	require.Len(t, managed, 1)
	assert.Equal(t, "wd", managed[0].Name)
	assert.True(t, managed[0].TriggerPoll)

	out, err = execute(t, "", "resources", "-l", "tier=backend", "--server", srv.APIURL(), "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: api")
	assert.NotContains(t, out, "name: wd")

	_, err = execute(t, "", "resources", "-l", "app in (", "--server", srv.APIURL())
	require.Error(t, err)
}

func TestResourcePolicy(t *testing.T) {
	srv := setup(t)
	login(t, srv)

	_, err := execute(t, "", "resources", "policy", "deployment/default/wd", "sometimes", "--server", srv.APIURL())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid policy")
	assert.Nil(t, srv.Last(http.MethodPut))

	out, err := execute(t, "", "resources", "policy", "deployment/default/wd", "glob:1.2.*", "--server", srv.APIURL())
	require.NoError(t, err)
	assert.Contains(t, out, "Policy of deployment/default/wd set to glob:1.2.*")
	assert.Equal(t, "glob:1.2.*", srv.Resources[0].Policy)

	_, err = execute(t, "", "resources", "policy", "deployment/default/missing", "major", "--server", srv.APIURL())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "set policy")
}

func TestResourceTrack(t *testing.T) {
	srv := setup(t)
	login(t, srv)

	_, err := execute(t, "", "resources", "track", "deployment/prod/api", "--trigger", "default", "--schedule", "@every 5m", "--server", srv.APIURL())
	require.Error(t, err)

	_, err = execute(t, "", "resources", "track", "deployment/prod/api", "--server", srv.APIURL())
	require.Error(t, err)

	out, err := execute(t, "", "resources", "track", "deployment/prod/api", "--trigger", "poll", "--schedule", "@every 5m", "--server", srv.APIURL())
	require.NoError(t, err)
	assert.Contains(t, out, "Tracking of deployment/prod/api set to poll")
	assert.Equal(t, "poll", srv.Resources[1].Annotations[model.KeelTriggerKey])
	assert.Equal(t, "@every 5m", srv.Resources[1].Annotations[model.KeelPollSchedKey])
}

func TestApprovals(t *testing.T) {
	srv := setup(t)
	login(t, srv)

	out, err := execute(t, "", "approvals", "--pending", "--server", srv.APIURL())
	require.NoError(t, err)
	assert.Contains(t, out, "0.1.0 -> 0.2.0")
	assert.Contains(t, out, "pending")
	assert.NotContains(t, out, "rejected")

	out, err = execute(t, "", "approvals", "--server", srv.APIURL())
	require.NoError(t, err)
	assert.Contains(t, out, "rejected")
	assert.Contains(t, out, "approved")
}

func TestApprovalDecisions(t *testing.T) {
	srv := setup(t)
	login(t, srv)

	out, err := execute(t, "", "approvals", "approve", "deployment/default/wd:0.2.0", "--voter", "ops", "--server", srv.APIURL())
	require.NoError(t, err)
	assert.Contains(t, out, "Approved deployment/default/wd:0.2.0")
	assert.Equal(t, 2, srv.Approvals[0].VotesReceived)

	var decision model.ApprovalDecision
	require.NoError(t, json.Unmarshal(srv.Last(http.MethodPost).Body, &decision))
	assert.Equal(t, "ops", decision.Voter)
	assert.Equal(t, model.ApprovalActionApprove, decision.Action)

	_, err = execute(t, "", "approvals", "archive", "deployment/default/wd:0.3.0", "--server", srv.APIURL())
	require.NoError(t, err)
	assert.True(t, srv.Approvals[1].Archived)
	require.NoError(t, json.Unmarshal(srv.Last(http.MethodPost).Body, &decision))
	assert.Equal(t, keeltest.Username, decision.Voter)

	_, err = execute(t, "", "approvals", "delete", "deployment/default/wd:0.1.0", "--server", srv.APIURL())
	require.NoError(t, err)
	assert.Len(t, srv.Approvals, 2)
}

func TestApprovalRequire(t *testing.T) {
	srv := setup(t)
	login(t, srv)

	out, err := execute(t, "", "approvals", "require", "deployment/prod/api", "3", "--server", srv.APIURL())
	require.NoError(t, err)
	assert.Contains(t, out, "deployment/prod/api now requires 3 approval(s)")
	assert.Equal(t, "3", srv.Resources[1].Annotations[model.KeelApprovalsKey])

	_, err = execute(t, "", "approvals", "require", "deployment/prod/api", "101", "--server", srv.APIURL())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "between 0 and 100")

	_, err = execute(t, "", "approvals", "require", "deployment/prod/api", "many", "--server", srv.APIURL())
	require.Error(t, err)
}

func TestTrackedAndAudit(t *testing.T) {
	srv := setup(t)
	login(t, srv)

	out, err := execute(t, "", "tracked", "--server", srv.APIURL())
	require.NoError(t, err)
	assert.Contains(t, out, model.TriggerDefaultLabel)
	assert.Contains(t, out, "@every 1m")
	assert.Contains(t, out, "2 namespace(s), 2 registr(ies)")

	out, err = execute(t, "", "audit", "--filter", "approval", "--limit", "1", "--server", srv.APIURL())
	require.NoError(t, err)
	assert.Contains(t, out, "Showing 1-1 of 2")
	last := srv.Last(http.MethodGet)
	assert.Equal(t, "/v1/audit", last.Path)
	assert.Contains(t, last.Query, "filter=approval")

	out, err = execute(t, "", "audit", "-o", "json", "--server", srv.APIURL())
	require.NoError(t, err)
	var page auditPage
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Len(t, page.Data, 3)
	assert.Equal(t, 3, page.Pagination.Total)

	_, err = execute(t, "", "audit", "--limit", "0", "--server", srv.APIURL())
	require.Error(t, err)
}

func TestStats(t *testing.T) {
	srv := setup(t)
	login(t, srv)

	out, err := execute(t, "", "stats", "--server", srv.APIURL())
	require.NoError(t, err)
	assert.Contains(t, out, "2026-10-01")
	assert.Contains(t, out, "Updates this period: 5")

	out, err = execute(t, "", "stats", "--chart", "updates", "--server", srv.APIURL())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "UPDATES PER DAY\n"), out)
	assert.Contains(t, out, "█")
	assert.Contains(t, out, "2026-10-02")

	out, err = execute(t, "", "stats", "--chart", "approvals", "-o", "json", "--server", srv.APIURL())
	require.NoError(t, err)
	var points []model.ChartPoint
	require.NoError(t, json.Unmarshal([]byte(out), &points))
	require.Len(t, points, 2)
	assert.Equal(t, 1, points[0].Y)

	_, err = execute(t, "", "stats", "--chart", "pie", "--server", srv.APIURL())
	require.Error(t, err)
}

func TestStatsExport(t *testing.T) {
	srv := setup(t)
	login(t, srv)

	path := filepath.Join(t.TempDir(), "keel.prom")
	_, err := execute(t, "", "stats", "export", path, "--server", srv.APIURL())
	require.NoError(t, err)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "keel_resources")
}

func TestSummary(t *testing.T) {
	srv := setup(t)
	login(t, srv)

	out, err := execute(t, "", "summary", "-o", "json", "--server", srv.APIURL())
	require.NoError(t, err)
	var s views.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, 2, s.Resources)
	assert.Equal(t, 1, s.ManagedResources)
	assert.Equal(t, 1, s.PendingApprovals)
	assert.Equal(t, int64(5), s.Pods)
	assert.Equal(t, 5, s.UpdatesPeriod)

	out, err = execute(t, "", "summary", "--server", srv.APIURL())
	require.NoError(t, err)
	assert.Contains(t, out, "2 (1 managed)")
}

func TestSummaryReportsFailures(t *testing.T) {
	srv := setup(t)
	login(t, srv)
	srv.Fail["GET /v1/stats"] = http.StatusBadGateway

	_, err := execute(t, "", "summary", "--server", srv.APIURL())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestConfigCommandRoundTrip(t *testing.T) {
	setup(t)

	_, err := execute(t, "", "config", "set", "tui.refresh_interval", "3s")
	require.NoError(t, err)

	out, err := execute(t, "", "config", "get", "tui.refresh_interval")
	require.NoError(t, err)
	assert.Equal(t, "3s", strings.TrimSpace(out))

	_, err = execute(t, "", "config", "set", "tui.theme", "mauve")
	require.Error(t, err)

	out, err = execute(t, "", "config", "view", "-o", "json")
	require.NoError(t, err)
	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, "3s", cfg.TUI.RefreshInterval)
}

func TestConfigSetKeepsEnvironmentOutOfFile(t *testing.T) {
	setup(t)
	t.Setenv("KEELCTL_LOGGING_LEVEL", "debug")

	_, err := execute(t, "", "config", "set", "tui.theme", "purple")
	require.NoError(t, err)

	path, err := config.FilePath()
	require.NoError(t, err)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "purple")
	assert.NotContains(t, string(b), "debug")
}

func TestBrokenConfigOnlyAllowsConfigCommands(t *testing.T) {
	setup(t)
	path, err := config.FilePath()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("output:\n  format: xml\n"), 0o600))

	_, err = execute(t, "", "resources")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid")

	_, err = execute(t, "", "config", "set", "output.format", "yaml")
	require.NoError(t, err)
	_, err = execute(t, "", "version")
	require.NoError(t, err)
}

func TestVersion(t *testing.T) {
	setup(t)
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, version.String(), strings.TrimSpace(out))
}

func TestInvalidOutputFlag(t *testing.T) {
	setup(t)
	_, err := execute(t, "", "version", "-o", "xml")
	require.Error(t, err)
}

func TestUnderscoreFlags(t *testing.T) {
	srv := setup(t)
	out, err := execute(t, keeltest.Password+"\n", "login", "--server", srv.APIURL(), "--username", keeltest.Username, "--password_stdin")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in")
}
