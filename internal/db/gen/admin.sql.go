package gen

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getAdminUserByEmail = `-- name: GetAdminUserByEmail :one
SELECT id, email, name, password_hash, created_at FROM admin_users WHERE lower(email) = lower($1)
`

func (q *Queries) GetAdminUserByEmail(ctx context.Context, email string) (AdminUser, error) {
	row := q.db.QueryRow(ctx, getAdminUserByEmail, email)
	var i AdminUser
	err := row.Scan(&i.ID, &i.Email, &i.Name, &i.PasswordHash, &i.CreatedAt)
	return i, err
}

const getAdminUserByID = `-- name: GetAdminUserByID :one
SELECT id, email, name, password_hash, created_at FROM admin_users WHERE id = $1
`

func (q *Queries) GetAdminUserByID(ctx context.Context, id pgtype.UUID) (AdminUser, error) {
	row := q.db.QueryRow(ctx, getAdminUserByID, id)
	var i AdminUser
	err := row.Scan(&i.ID, &i.Email, &i.Name, &i.PasswordHash, &i.CreatedAt)
	return i, err
}

const createAdminUser = `-- name: CreateAdminUser :one
INSERT INTO admin_users (email, name, password_hash) VALUES (lower($1), $2, $3)
ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, password_hash = EXCLUDED.password_hash
RETURNING id, email, name, password_hash, created_at
`

type CreateAdminUserParams struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"password_hash"`
}

func (q *Queries) CreateAdminUser(ctx context.Context, arg CreateAdminUserParams) (AdminUser, error) {
	row := q.db.QueryRow(ctx, createAdminUser, arg.Email, arg.Name, arg.PasswordHash)
	var i AdminUser
	err := row.Scan(&i.ID, &i.Email, &i.Name, &i.PasswordHash, &i.CreatedAt)
	return i, err
}

const insertAuditLog = `-- name: InsertAuditLog :exec
INSERT INTO admin_audit_logs (
    actor_kind, admin_id, action, resource_type, resource_id, method, path, status,
    ip, user_agent, request_id, metadata
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`

type InsertAuditLogParams struct {
	ActorKind    string      `json:"actor_kind"`
	AdminID      pgtype.UUID `json:"admin_id"`
	Action       string      `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   pgtype.Text `json:"resource_id"`
	Method       string      `json:"method"`
	Path         string      `json:"path"`
	Status       int32       `json:"status"`
	Ip           pgtype.Text `json:"ip"`
	UserAgent    pgtype.Text `json:"user_agent"`
	RequestID    pgtype.Text `json:"request_id"`
	Metadata     []byte      `json:"metadata"`
}

func (q *Queries) InsertAuditLog(ctx context.Context, arg InsertAuditLogParams) error {
	_, err := q.db.Exec(ctx, insertAuditLog,
		arg.ActorKind, arg.AdminID, arg.Action, arg.ResourceType, arg.ResourceID, arg.Method,
		arg.Path, arg.Status, arg.Ip, arg.UserAgent, arg.RequestID, arg.Metadata,
	)
	return err
}

const listAuditLogs = `-- name: ListAuditLogs :many
SELECT id, actor_kind, admin_id, action, resource_type, resource_id, method, path, status,
       ip, user_agent, request_id, metadata, created_at
FROM admin_audit_logs
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2
`

type ListAuditLogsParams struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

func (q *Queries) ListAuditLogs(ctx context.Context, arg ListAuditLogsParams) ([]AdminAuditLog, error) {
	rows, err := q.db.Query(ctx, listAuditLogs, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []AdminAuditLog{}
	for rows.Next() {
		var i AdminAuditLog
		if err := rows.Scan(
			&i.ID, &i.ActorKind, &i.AdminID, &i.Action, &i.ResourceType, &i.ResourceID, &i.Method,
			&i.Path, &i.Status, &i.Ip, &i.UserAgent, &i.RequestID, &i.Metadata, &i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countAuditLogs = `-- name: CountAuditLogs :one
SELECT count(*) FROM admin_audit_logs
`

func (q *Queries) CountAuditLogs(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, countAuditLogs)
	var count int64
	err := row.Scan(&count)
	return count, err
}
