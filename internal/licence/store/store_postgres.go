package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"licences/internal/licence/models"
	"licences/pkg/platform/sentinel"
	txcontext "licences/pkg/platform/tx"
)

// PostgresStore persists licences in PostgreSQL. Every method joins the
// transaction carried by ctx when there is one.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgres constructs a PostgreSQL-backed licence store.
func NewPostgres(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

var licenceColumns = []string{
	"kind", "type_code", "status_code", "policy_version", "licence_version",
	"noms_id", "booking_id", "crn", "pnc", "cro", "forename", "middle_names", "surname", "date_of_birth",
	"prison_code", "prison_description", "prison_telephone",
	"probation_area_code", "probation_area_description", "probation_pdu_code", "probation_pdu_description",
	"probation_lau_code", "probation_lau_description", "probation_team_code", "probation_team_description",
	"appointment_person", "appointment_time", "appointment_address", "appointment_telephone",
	"conditional_release_date", "actual_release_date", "sentence_start_date", "sentence_end_date",
	"licence_start_date", "licence_expiry_date", "topup_supervision_start_date",
	"topup_supervision_expiry_date", "post_recall_release_date",
	"date_created", "date_last_updated", "updated_by_username", "submitted_date", "approved_date",
	"approved_by_username", "approved_by_name", "superseded_date", "licence_activated_date",
	"created_by", "submitted_by", "responsible_com", "com_staff_identifier",
	"version_of_id", "variation_of_id", "substitute_of_id", "review_date",
	"payload", "conditions",
}

var (
	selectLicence = "SELECT id, row_version, " + strings.Join(licenceColumns, ", ") + " FROM licence"

	insertLicence = "INSERT INTO licence (row_version, " + strings.Join(licenceColumns, ", ") +
		") VALUES (1, :" + strings.Join(licenceColumns, ", :") + ") RETURNING id, row_version"

	updateLicence = "UPDATE licence SET row_version = row_version + 1, " + assignments(licenceColumns) +
		" WHERE id = :id AND row_version = :row_version RETURNING row_version"
)

func assignments(cols []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = c + " = :" + c
	}
	return strings.Join(parts, ", ")
}

func (s *PostgresStore) Create(ctx context.Context, l models.Licence) (models.Licence, error) {
	row, err := toRow(l)
	if err != nil {
		return models.Licence{}, err
	}
	rows, err := sqlx.NamedQueryContext(ctx, txcontext.Executor(ctx, s.db), insertLicence, row)
	if err != nil {
		return models.Licence{}, fmt.Errorf("insert licence: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return models.Licence{}, fmt.Errorf("insert licence: %w", err)
		}
		return models.Licence{}, fmt.Errorf("insert licence: no id returned")
	}
	if err := rows.Scan(&l.ID, &l.RowVersion); err != nil {
		return models.Licence{}, fmt.Errorf("scan licence id: %w", err)
	}
	return l.Clone(), nil
}

// Update writes l when its RowVersion still matches the stored row.
func (s *PostgresStore) Update(ctx context.Context, l models.Licence) (models.Licence, error) {
	row, err := toRow(l)
	if err != nil {
		return models.Licence{}, err
	}
	exec := txcontext.Executor(ctx, s.db)
	rows, err := sqlx.NamedQueryContext(ctx, exec, updateLicence, row)
	if err != nil {
		return models.Licence{}, fmt.Errorf("update licence %d: %w", l.ID, err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&l.RowVersion); err != nil {
			return models.Licence{}, fmt.Errorf("scan row version: %w", err)
		}
		return l.Clone(), nil
	}
	if err := rows.Err(); err != nil {
		return models.Licence{}, fmt.Errorf("update licence %d: %w", l.ID, err)
	}

	var exists bool
	if err := sqlx.GetContext(ctx, exec, &exists, `SELECT EXISTS (SELECT 1 FROM licence WHERE id = $1)`, l.ID); err != nil {
		return models.Licence{}, fmt.Errorf("check licence %d: %w", l.ID, err)
	}
	if !exists {
		return models.Licence{}, sentinel.ErrNotFound
	}
	return models.Licence{}, sentinel.ErrConflict
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (models.Licence, error) {
	var row licenceRow
	err := sqlx.GetContext(ctx, txcontext.Executor(ctx, s.db), &row, selectLicence+" WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Licence{}, sentinel.ErrNotFound
		}
		return models.Licence{}, fmt.Errorf("find licence %d: %w", id, err)
	}
	return row.toModel()
}

// List returns matching licences ordered by id.
func (s *PostgresStore) List(ctx context.Context, f Filter) ([]models.Licence, error) {
	where, args := filterClause(f)
	query := selectLicence + where + " ORDER BY id"

	var rows []licenceRow
	if err := sqlx.SelectContext(ctx, txcontext.Executor(ctx, s.db), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list licences: %w", err)
	}
	out := make([]models.Licence, 0, len(rows))
	for _, r := range rows {
		l, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

// filterClause renders f as a WHERE clause with positional arguments.
func filterClause(f Filter) (string, []any) {
	var conds []string
	var args []any
	add := func(expr string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}

	if len(f.IDs) > 0 {
		add("id = ANY($%d)", pq.Array(f.IDs))
	}
	if len(f.Kinds) > 0 {
		add("kind = ANY($%d)", pq.Array(toStrings(f.Kinds)))
	}
	if len(f.Statuses) > 0 {
		add("status_code = ANY($%d)", pq.Array(toStrings(f.Statuses)))
	}
	if len(f.TypeCodes) > 0 {
		add("type_code = ANY($%d)", pq.Array(toStrings(f.TypeCodes)))
	}
	if len(f.NomsIDs) > 0 {
		add("noms_id = ANY($%d)", pq.Array(f.NomsIDs))
	}
	if len(f.BookingIDs) > 0 {
		add("booking_id = ANY($%d)", pq.Array(f.BookingIDs))
	}
	if len(f.ComStaffIdentifiers) > 0 {
		add("com_staff_identifier = ANY($%d)", pq.Array(f.ComStaffIdentifiers))
	}
	if len(f.TeamCodes) > 0 {
		add("probation_team_code = ANY($%d)", pq.Array(f.TeamCodes))
	}
	if len(f.PrisonCodes) > 0 {
		add("prison_code = ANY($%d)", pq.Array(f.PrisonCodes))
	}
	if len(f.VariationOfIDs) > 0 {
		add("variation_of_id = ANY($%d)", pq.Array(f.VariationOfIDs))
	}
	if f.LicenceExpiryBefore != nil {
		add("licence_expiry_date < $%d", nullDate(f.LicenceExpiryBefore))
	}
	if f.TopupExpiryOnOrAfter != nil {
		add("topup_supervision_expiry_date >= $%d", nullDate(f.TopupExpiryOnOrAfter))
	}
	if f.ReviewPending {
		add("kind = ANY($%d) AND review_date IS NULL", pq.Array([]string{
			string(models.KindHardStop), string(models.KindTimeServed),
		}))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func toStrings[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}

// PostgresEventStore persists licence events.
type PostgresEventStore struct {
	db *sqlx.DB
}

func NewPostgresEventStore(db *sqlx.DB) *PostgresEventStore {
	return &PostgresEventStore{db: db}
}

func (s *PostgresEventStore) Append(ctx context.Context, e models.LicenceEvent) (int64, error) {
	query := `
		INSERT INTO licence_event (licence_id, event_type, username, forenames, surname, event_description, event_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var id int64
	err := sqlx.GetContext(ctx, txcontext.Executor(ctx, s.db), &id, query,
		e.LicenceID, string(e.Type), e.Username, e.FirstName, e.LastName, e.Description, e.At)
	if err != nil {
		return 0, fmt.Errorf("insert licence event: %w", err)
	}
	return id, nil
}

func (s *PostgresEventStore) ListByLicence(ctx context.Context, licenceID int64) ([]models.LicenceEvent, error) {
	query := `
		SELECT id, licence_id, event_type, username, forenames, surname, event_description, event_time
		FROM licence_event
		WHERE licence_id = $1
		ORDER BY event_time, id
	`
	var rows []eventRow
	if err := sqlx.SelectContext(ctx, txcontext.Executor(ctx, s.db), &rows, query, licenceID); err != nil {
		return nil, fmt.Errorf("list licence events: %w", err)
	}
	out := make([]models.LicenceEvent, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}
