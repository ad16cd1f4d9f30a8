package model

import "time"

// AuditLogEntry is one row of the server audit trail. The console only
// displays it.
type AuditLogEntry struct {
	ID           string         `json:"id" yaml:"id"`
	CreatedAt    time.Time      `json:"createdAt" yaml:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt" yaml:"updatedAt"`
	AccountID    string         `json:"accountId" yaml:"accountId"`
	Username     string         `json:"username" yaml:"username"`
	Email        string         `json:"email" yaml:"email"`
	Action       string         `json:"action" yaml:"action"`
	ResourceKind string         `json:"resourceKind" yaml:"resourceKind"`
	Identifier   string         `json:"identifier" yaml:"identifier"`
	Message      string         `json:"message" yaml:"message"`
	Payload      string         `json:"payload" yaml:"payload"`
	PayloadType  string         `json:"payloadType" yaml:"payloadType"`
	Metadata     map[string]any `json:"metadata" yaml:"metadata"`
}

type Pagination struct {
	Limit  int `json:"limit" yaml:"limit"`
	Offset int `json:"offset" yaml:"offset"`
	Total  int `json:"total" yaml:"total"`
}

// AuditPage is the envelope GET audit answers with.
type AuditPage struct {
	Data   []AuditLogEntry `json:"data"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
	Total  int             `json:"total"`
}

// Pagination extracts the page descriptor from the envelope.
func (p AuditPage) Pagination() Pagination {
	return Pagination{Limit: p.Limit, Offset: p.Offset, Total: p.Total}
}

// AuditQuery selects a page of audit entries. Filter is a comma separated
// list of resource kinds.
type AuditQuery struct {
	Filter string
	Email  string
	Limit  int
	Offset int
}

// DefaultPagination is what the audit store starts with before its first fetch.
var DefaultPagination = Pagination{Limit: 100, Offset: 0, Total: 5}
