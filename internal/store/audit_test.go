package store

import (
	"context"
	"net/http"
	"testing"

	"github.com/keel-hq/keelctl/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditDefaults(t *testing.T) {
	s := New(Options{})
	assert.Equal(t, model.Pagination{Limit: 100, Offset: 0, Total: 5}, s.Audit.Pagination())
	assert.False(t, s.Audit.Loading())
	assert.Empty(t, s.Audit.Items())
}

func TestGetAuditLogs(t *testing.T) {
	api := newFakeAPI().reply(http.MethodGet, "audit",
		`{"data":[{"id":"a1","action":"approved","resourceKind":"approval","email":"ops@example.com"}],"limit":20,"offset":40,"total":41}`)
	s := New(Options{})

	a := s.Audit.GetAuditLogs(model.AuditQuery{Filter: " approval,deployment ", Limit: 20, Offset: 40, Email: "ops@example.com"})
	a.Prepare()
	assert.True(t, s.Audit.Loading())
	a.Request(context.Background(), api)()

	require.NoError(t, s.Audit.Err())
	assert.False(t, s.Audit.Loading())
	require.Len(t, s.Audit.Items(), 1)
	assert.Equal(t, "approved", s.Audit.Items()[0].Action)
	assert.Equal(t, model.Pagination{Limit: 20, Offset: 40, Total: 41}, s.Audit.Pagination())

	q := api.calls[0].query
	assert.Equal(t, "approval,deployment", q.Get("filter"))
	assert.Equal(t, "20", q.Get("limit"))
	assert.Equal(t, "40", q.Get("offset"))
	assert.Equal(t, "ops@example.com", q.Get("email"))
}

func TestGetAuditLogsOmitsEmptyEmail(t *testing.T) {
	api := newFakeAPI().reply(http.MethodGet, "audit", `{"data":null,"limit":100,"offset":0,"total":0}`)
	s := New(Options{})
	Dispatch(context.Background(), api, s.Audit.GetAuditLogs(model.AuditQuery{Limit: 100}))
	require.NoError(t, s.Audit.Err())
	assert.False(t, api.calls[0].query.Has("email"))
	assert.NotNil(t, s.Audit.Items())
}

func TestGetAuditLogsFailureClearsLoading(t *testing.T) {
	api := newFakeAPI().fail(http.MethodGet, "audit", http.StatusBadGateway)
	s := New(Options{})
	Dispatch(context.Background(), api, s.Audit.GetAuditLogs(model.AuditQuery{Limit: 10}))
	require.Error(t, s.Audit.Err())
	assert.False(t, s.Audit.Loading())
	assert.Equal(t, model.DefaultPagination, s.Audit.Pagination())
}
