package store

import (
	"context"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/keel-hq/keelctl/internal/model"
	"github.com/keel-hq/keelctl/internal/transport"
	"go.uber.org/zap"
)

type AuditStore struct {
	logs       []model.AuditLogEntry
	pagination model.Pagination
	loading    bool
	err        error

	log *zap.Logger
}

func defaultPagination() model.Pagination { return model.DefaultPagination }

func (s *AuditStore) Items() []model.AuditLogEntry {
	return slices.Clone(s.logs)
}

func (s *AuditStore) Pagination() model.Pagination { return s.pagination }

func (s *AuditStore) Loading() bool { return s.loading }

func (s *AuditStore) Err() error { return s.err }

func (s *AuditStore) setError(err error) {
	if err != nil {
		s.log.Debug("action failed", zap.Error(err))
	}
	s.err = err
}

// GetAuditLogs loads one page of the audit trail.
func (s *AuditStore) GetAuditLogs(q model.AuditQuery) Action {
	return Action{
		Name: "GetAuditLogs",
		Prepare: func() {
			s.setError(nil)
			s.loading = true
		},
		Request: func(ctx context.Context, api transport.Adapter) Commit {
			page, err := auditEndpoint.fetch(ctx, api, auditValues(q))
			return func() {
				s.loading = false
				if err != nil {
					s.setError(err)
					return
				}
				s.logs = page.Data
				s.pagination = page.Pagination()
			}
		},
	}
}

func auditValues(q model.AuditQuery) url.Values {
	v := url.Values{}
	v.Set("filter", strings.TrimSpace(q.Filter))
	v.Set("limit", strconv.Itoa(q.Limit))
	v.Set("offset", strconv.Itoa(q.Offset))
	if email := strings.TrimSpace(q.Email); email != "" {
		v.Set("email", email)
	}
	return v
}
