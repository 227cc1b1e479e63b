package sensor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Repository defines the interface for sensor definition persistence.
// This abstraction allows for different implementations (PostgreSQL,
// SQLite, mock) and enables unit testing without a running database.
type Repository interface {
	// GetByID retrieves a definition by its system-generated id.
	// Returns ErrSensorNotFound if no row matches.
	GetByID(ctx context.Context, id string) (*SensorDefinition, error)

	// GetBySensorID retrieves a definition by its logical sensorId.
	// Returns ErrSensorNotFound if no row matches.
	GetBySensorID(ctx context.Context, sensorID string) (*SensorDefinition, error)

	// List retrieves definitions matching the filter, ordered by
	// sensor_id ascending, with the given window applied. The returned
	// total is the match count before the window.
	List(ctx context.Context, filter Filter, limit, offset int) ([]SensorDefinition, int, error)

	// ExistsBySensorID reports whether a definition with the given
	// logical sensorId is registered.
	ExistsBySensorID(ctx context.Context, sensorID string) (bool, error)

	// Create inserts a new definition.
	// Returns ErrSensorExists if the sensorId is already registered.
	Create(ctx context.Context, def *SensorDefinition) error

	// Update replaces the mutable fields of an existing definition.
	// Returns ErrSensorNotFound if the row does not exist.
	Update(ctx context.Context, def *SensorDefinition) error

	// Delete removes a definition by system id.
	// Returns ErrSensorNotFound if the row does not exist.
	Delete(ctx context.Context, id string) error
}

// SQLRepository implements Repository over database/sql.
//
// The SQL is engine-portable: ordinal placeholders appear in argument
// order and timestamps travel as RFC 3339 text, so the same queries run
// against PostgreSQL (pgx) in production and SQLite in tests.
type SQLRepository struct {
	db *sql.DB
}

// NewSQLRepository creates a repository over an open connection pool.
func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

// selectColumns is the column list shared by every row-returning query.
const selectColumns = `id, sensor_id, sensor_type, unit,
	operating_min, operating_max, warning_min, warning_max,
	interval_ms, enabled, simulate, created_at, updated_at`

// GetByID retrieves a definition by its system-generated id.
func (r *SQLRepository) GetByID(ctx context.Context, id string) (*SensorDefinition, error) {
	query := `SELECT ` + selectColumns + ` FROM sensors WHERE id = $1`

	def, err := scanSensor(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSensorNotFound
		}
		return nil, fmt.Errorf("querying sensor by id: %w", err)
	}
	return def, nil
}

// GetBySensorID retrieves a definition by its logical sensorId.
func (r *SQLRepository) GetBySensorID(ctx context.Context, sensorID string) (*SensorDefinition, error) {
	query := `SELECT ` + selectColumns + ` FROM sensors WHERE sensor_id = $1`

	def, err := scanSensor(r.db.QueryRowContext(ctx, query, sensorID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSensorNotFound
		}
		return nil, fmt.Errorf("querying sensor by sensor_id: %w", err)
	}
	return def, nil
}

// List retrieves definitions matching the filter, ordered by sensor_id.
func (r *SQLRepository) List(ctx context.Context, filter Filter, limit, offset int) ([]SensorDefinition, int, error) {
	where, args := buildFilterClause(filter)

	var total int
	countQuery := "SELECT COUNT(*) FROM sensors" + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting sensors: %w", err)
	}

	// Placeholders continue the filter's numbering.
	query := fmt.Sprintf(
		"SELECT "+selectColumns+" FROM sensors%s ORDER BY sensor_id LIMIT $%d OFFSET $%d",
		where, len(args)+1, len(args)+2,
	)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying sensors: %w", err)
	}
	defer rows.Close()

	var defs []SensorDefinition
	for rows.Next() {
		def, err := scanSensor(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning sensor: %w", err)
		}
		defs = append(defs, *def)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating sensors: %w", err)
	}

	return defs, total, nil
}

// buildFilterClause renders the filter as a WHERE clause with ordinal
// placeholders numbered from $1.
func buildFilterClause(filter Filter) (string, []any) {
	var clauses []string
	var args []any

	if filter.SensorType != "" {
		args = append(args, filter.SensorType)
		clauses = append(clauses, fmt.Sprintf("sensor_type = $%d", len(args)))
	}
	if filter.Enabled != nil {
		args = append(args, *filter.Enabled)
		clauses = append(clauses, fmt.Sprintf("enabled = $%d", len(args)))
	}
	if filter.Simulate != nil {
		args = append(args, *filter.Simulate)
		clauses = append(clauses, fmt.Sprintf("simulate = $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// ExistsBySensorID reports whether a logical sensorId is registered.
func (r *SQLRepository) ExistsBySensorID(ctx context.Context, sensorID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sensors WHERE sensor_id = $1", sensorID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking sensor exists: %w", err)
	}
	return count > 0, nil
}

// Create inserts a new definition.
func (r *SQLRepository) Create(ctx context.Context, def *SensorDefinition) error {
	now := time.Now().UTC()
	if def.CreatedAt.IsZero() {
		def.CreatedAt = now
	}
	def.UpdatedAt = now

	query := `
		INSERT INTO sensors (
			id, sensor_id, sensor_type, unit,
			operating_min, operating_max, warning_min, warning_max,
			interval_ms, enabled, simulate, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10, $11, $12, $13
		)`

	_, err := r.db.ExecContext(ctx, query,
		def.ID,
		def.SensorID,
		def.SensorType,
		def.Unit,
		def.OperatingMin,
		def.OperatingMax,
		def.WarningMin,
		def.WarningMax,
		def.IntervalMs,
		def.Enabled,
		def.Simulate,
		def.CreatedAt.Format(time.RFC3339),
		def.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrSensorExists
		}
		return fmt.Errorf("inserting sensor: %w", err)
	}

	return nil
}

// Update replaces the mutable fields of an existing definition.
// The sensor_id and created_at columns are never written after create.
func (r *SQLRepository) Update(ctx context.Context, def *SensorDefinition) error {
	def.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE sensors SET
			sensor_type = $1, unit = $2,
			operating_min = $3, operating_max = $4,
			warning_min = $5, warning_max = $6,
			interval_ms = $7, enabled = $8, simulate = $9,
			updated_at = $10
		WHERE id = $11`

	result, err := r.db.ExecContext(ctx, query,
		def.SensorType,
		def.Unit,
		def.OperatingMin,
		def.OperatingMax,
		def.WarningMin,
		def.WarningMax,
		def.IntervalMs,
		def.Enabled,
		def.Simulate,
		def.UpdatedAt.Format(time.RFC3339),
		def.ID,
	)
	if err != nil {
		return fmt.Errorf("updating sensor: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrSensorNotFound
	}

	return nil
}

// Delete removes a definition by system id.
func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sensors WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting sensor: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrSensorNotFound
	}

	return nil
}

// rowScanner is an interface that sql.Row and sql.Rows both implement.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanSensor scans a single row into a SensorDefinition.
func scanSensor(row rowScanner) (*SensorDefinition, error) {
	var def SensorDefinition
	var createdAt, updatedAt string

	err := row.Scan(
		&def.ID,
		&def.SensorID,
		&def.SensorType,
		&def.Unit,
		&def.OperatingMin,
		&def.OperatingMax,
		&def.WarningMin,
		&def.WarningMax,
		&def.IntervalMs,
		&def.Enabled,
		&def.Simulate,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if def.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if def.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &def, nil
}

// isUniqueConstraintError reports whether err is a unique index
// violation, for either backing engine.
func isUniqueConstraintError(err error) bool {
	// PostgreSQL: error code 23505 (unique_violation).
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	// SQLite: no structured code via database/sql, match the message.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
