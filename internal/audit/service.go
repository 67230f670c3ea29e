package audit

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/obs"
)

// ActorKind represents the source of an audited action.
type ActorKind string

const (
	// ActorKindAdmin is a logged-in back-office user.
	ActorKindAdmin ActorKind = "admin"
	// ActorKindSystem represents internal automated actions such as the seeder.
	ActorKindSystem ActorKind = "system"
	// ActorKindAnonymous is used when no admin could be resolved.
	ActorKindAnonymous ActorKind = "anonymous"
)

// Actor describes who performed the action.
type Actor struct {
	Kind    ActorKind
	AdminID string
}

// Store defines the database operations required for auditing.
type Store interface {
	InsertAuditLog(ctx context.Context, arg dbgen.InsertAuditLogParams) error
	ListAuditLogs(ctx context.Context, arg dbgen.ListAuditLogsParams) ([]dbgen.AdminAuditLog, error)
	CountAuditLogs(ctx context.Context) (int64, error)
}

// Entry is an audit log row as returned to the back office.
type Entry struct {
	ID           int64           `json:"id"`
	ActorKind    string          `json:"actor_kind"`
	AdminID      string          `json:"admin_id,omitempty"`
	Action       string          `json:"action"`
	ResourceType string          `json:"resource_type"`
	ResourceID   string          `json:"resource_id,omitempty"`
	Method       string          `json:"method"`
	Path         string          `json:"path"`
	Status       int             `json:"status"`
	IP           string          `json:"ip,omitempty"`
	RequestID    string          `json:"request_id,omitempty"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	CreatedAt    string          `json:"created_at"`
}

// Service persists admin activity on catalog, coupon, order and store writes.
type Service struct {
	Store        Store
	Enabled      bool
	SamplingRate float64
}

// Record persists an audit log entry when auditing is enabled.
func (s Service) Record(ctx context.Context, actor Actor, action, resourceType, resourceID string, req *http.Request, status int, metadata []byte) error {
	if !s.Enabled {
		return nil
	}
	if s.SamplingRate > 0 && s.SamplingRate < 1 && rand.Float64() > s.SamplingRate {
		return nil
	}
	if req == nil {
		return errors.New("audit: request is required")
	}
	if s.Store == nil {
		return errors.New("audit: store not configured")
	}

	route := obs.RoutePatternFromContext(req.Context())
	if route == "" {
		if rc := chi.RouteContext(req.Context()); rc != nil {
			route = rc.RoutePattern()
		}
	}
	if route == "" {
		route = strings.TrimSpace(req.URL.Path)
	}
	requestID := middleware.GetReqID(req.Context())
	if requestID == "" {
		requestID = req.Header.Get("X-Request-ID")
	}
	if status == 0 {
		status = http.StatusOK
	}

	return s.Store.InsertAuditLog(ctx, dbgen.InsertAuditLogParams{
		ActorKind:    string(normalizeActorKind(actor.Kind)),
		AdminID:      toNullUUID(actor.AdminID),
		Action:       buildAction(action, req.Method, route),
		ResourceType: buildResource(resourceType, route),
		ResourceID:   toNullText(resourceID),
		Method:       req.Method,
		Path:         req.URL.Path,
		Status:       int32(status),
		Ip:           toNullText(common.ClientIP(req)),
		UserAgent:    toNullText(req.UserAgent()),
		RequestID:    toNullText(requestID),
		Metadata:     toJSONB(metadata, req.URL.RawQuery),
	})
}

// Page is a page of audit entries plus the total count.
type Page struct {
	Entries    []Entry           `json:"entries"`
	Pagination common.Pagination `json:"pagination"`
}

// List returns audit entries newest first.
func (s Service) List(ctx context.Context, p common.PageParams) (Page, error) {
	if s.Store == nil {
		return Page{}, errors.New("audit: store not configured")
	}
	rows, err := s.Store.ListAuditLogs(ctx, dbgen.ListAuditLogsParams{Limit: int32(p.Limit), Offset: int32(p.Offset)})
	if err != nil {
		return Page{}, err
	}
	total, err := s.Store.CountAuditLogs(ctx)
	if err != nil {
		return Page{}, err
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, entryFromRow(row))
	}
	return Page{
		Entries:    entries,
		Pagination: p.Paginate(len(entries), total),
	}, nil
}

func entryFromRow(row dbgen.AdminAuditLog) Entry {
	e := Entry{
		ID:           row.ID,
		ActorKind:    row.ActorKind,
		Action:       row.Action,
		ResourceType: row.ResourceType,
		ResourceID:   row.ResourceID.String,
		Method:       row.Method,
		Path:         row.Path,
		Status:       int(row.Status),
		IP:           row.Ip.String,
		RequestID:    row.RequestID.String,
		CreatedAt:    row.CreatedAt.Time.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	if row.AdminID.Valid {
		e.AdminID = uuid.UUID(row.AdminID.Bytes).String()
	}
	if len(row.Metadata) > 0 && json.Valid(row.Metadata) {
		e.Metadata = json.RawMessage(row.Metadata)
	}
	return e
}

func buildAction(action, method, route string) string {
	if trimmed := strings.TrimSpace(action); trimmed != "" {
		return trimmed
	}
	if route == "" {
		route = "/"
	}
	return strings.ToUpper(strings.TrimSpace(method)) + " " + route
}

// buildResource derives "products", "orders.status" and similar from the
// admin route when no explicit resource type was configured.
func buildResource(resourceType, route string) string {
	if trimmed := strings.TrimSpace(resourceType); trimmed != "" {
		return trimmed
	}
	segments := strings.Split(strings.Trim(strings.TrimSpace(route), "/"), "/")
	kept := segments[:0]
	for _, seg := range segments {
		if seg == "" || seg == "api" || seg == "v1" || seg == "admin" || strings.HasPrefix(seg, "{") {
			continue
		}
		kept = append(kept, seg)
	}
	if len(kept) == 0 {
		return "unknown"
	}
	return strings.Join(kept, ".")
}

func normalizeActorKind(kind ActorKind) ActorKind {
	switch kind {
	case ActorKindAdmin, ActorKindSystem:
		return kind
	default:
		return ActorKindAnonymous
	}
}

func toNullUUID(value string) pgtype.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

func toNullText(value string) pgtype.Text {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: trimmed, Valid: true}
}

func toJSONB(metadata []byte, query string) []byte {
	if len(metadata) > 0 {
		return metadata
	}
	if strings.TrimSpace(query) == "" {
		return nil
	}
	data, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil
	}
	return data
}
