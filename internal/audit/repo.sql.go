package audit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository provides PostgreSQL backed read access to the
// audit tables.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// AccessWindow mengambil satu jendela access log terurut terbaru dulu.
func (r *PostgresRepository) AccessWindow(ctx context.Context, filters AccessFilters, offset, limit int) ([]AccessRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT created_at, decision_id, user_id, role_id, capability_id, path, method, decision, reason
		FROM access_logs
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
		  AND ($2::timestamptz IS NULL OR created_at <= $2)
		  AND ($3::bigint IS NULL OR user_id = $3)
		  AND ($4::text IS NULL OR decision = $4)
		  AND ($5::text IS NULL OR reason = $5)
		ORDER BY created_at DESC
		OFFSET $6 LIMIT $7`,
		optionalTime(filters.From),
		optionalTime(filters.To),
		optionalID(filters.UserID),
		optionalText(filters.Decision),
		optionalText(filters.Reason),
		offset,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AccessRow
	for rows.Next() {
		var (
			row          AccessRow
			at           pgtype.Timestamptz
			userID       pgtype.Int8
			roleID       pgtype.Int8
			capabilityID pgtype.Int8
		)
		if err := rows.Scan(&at, &row.DecisionID, &userID, &roleID, &capabilityID, &row.Path, &row.Method, &row.Decision, &row.Reason); err != nil {
			return nil, err
		}
		row.At = at.Time
		row.UserID = userID.Int64
		row.RoleID = roleID.Int64
		row.CapabilityID = capabilityID.Int64
		result = append(result, row)
	}
	return result, rows.Err()
}

// ViolationWindow mengambil satu jendela pelanggaran policy.
func (r *PostgresRepository) ViolationWindow(ctx context.Context, filters ViolationFilters, offset, limit int) ([]ViolationRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT created_at, decision_id, user_id, capability_id, attribute, reason
		FROM policy_violations
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
		  AND ($2::timestamptz IS NULL OR created_at <= $2)
		  AND ($3::bigint IS NULL OR user_id = $3)
		  AND ($4::text IS NULL OR attribute = $4)
		ORDER BY created_at DESC
		OFFSET $5 LIMIT $6`,
		optionalTime(filters.From),
		optionalTime(filters.To),
		optionalID(filters.UserID),
		optionalText(filters.Attribute),
		offset,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ViolationRow
	for rows.Next() {
		var (
			row          ViolationRow
			at           pgtype.Timestamptz
			userID       pgtype.Int8
			capabilityID pgtype.Int8
		)
		if err := rows.Scan(&at, &row.DecisionID, &userID, &capabilityID, &row.Attribute, &row.Reason); err != nil {
			return nil, err
		}
		row.At = at.Time
		row.UserID = userID.Int64
		row.CapabilityID = capabilityID.Int64
		result = append(result, row)
	}
	return result, rows.Err()
}

func optionalTime(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func optionalID(id int64) pgtype.Int8 {
	if id == 0 {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: id, Valid: true}
}

func optionalText(value string) pgtype.Text {
	if value == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: value, Valid: true}
}
