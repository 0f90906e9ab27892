package profiles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpinghands/helpinghands/internal/apperr"
	"github.com/helpinghands/helpinghands/internal/catalog"
)

var (
	ErrNotFound        = apperr.NotFound("profile not found")
	ErrCompanyNotFound = apperr.NotFound("company not found")
	ErrCompanyExists   = apperr.Conflict("company already exists")
	ErrProfileExists   = apperr.Conflict("user already has a profile")
)

// Repository persists companies and the four profile kinds.
type Repository interface {
	CreateCompany(ctx context.Context, c Company) error
	GetCompany(ctx context.Context, id string) (Company, error)
	ListCompanies(ctx context.Context) ([]Company, error)

	CreatePIN(ctx context.Context, p PIN) error
	CreateCV(ctx context.Context, p CV) error
	CreateCSR(ctx context.Context, p CSR) error
	CreatePA(ctx context.Context, p PA) error

	GetPIN(ctx context.Context, id string) (PIN, error)
	GetCV(ctx context.Context, id string) (CV, error)
	GetCSR(ctx context.Context, id string) (CSR, error)
	// ProfileIDByUser returns the id of the user's profile of kind.
	ProfileIDByUser(ctx context.Context, kind Kind, userID string) (string, error)
	ListCVs(ctx context.Context) ([]CV, error)
	UpdatePIN(ctx context.Context, p PIN) error

	Count(ctx context.Context, kind Kind) (int, error)
	// CreatedBetween lists creation times of profiles of kind in [from, to).
	CreatedBetween(ctx context.Context, kind Kind, from, to time.Time) ([]time.Time, error)
	// Names maps profile ids of kind to display names. Unknown ids are skipped.
	Names(ctx context.Context, kind Kind, ids []string) (map[string]string, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed profile repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var tables = map[Kind]string{
	KindPIN: "pin_profiles",
	KindCV:  "cv_profiles",
	KindCSR: "csr_profiles",
	KindPA:  "pa_profiles",
}

func table(kind Kind) (string, error) {
	t, ok := tables[kind]
	if !ok {
		return "", fmt.Errorf("unknown profile kind %q", kind)
	}
	return t, nil
}

const baseColumns = `id, user_id::text, name, dob, phone, address, created_at, updated_at`

func (r *PostgresRepository) CreateCompany(ctx context.Context, c Company) error {
	_, err := r.db.Exec(ctx, `INSERT INTO companies (company_id, companyname, joined) VALUES ($1, $2, $3)`,
		c.ID, c.Name, c.Joined)
	if isUniqueViolation(err) {
		return ErrCompanyExists
	}
	return err
}

func (r *PostgresRepository) GetCompany(ctx context.Context, id string) (Company, error) {
	var c Company
	err := r.db.QueryRow(ctx, `SELECT company_id, companyname, joined FROM companies WHERE company_id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Joined)
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, ErrCompanyNotFound
	}
	return c, err
}

func (r *PostgresRepository) ListCompanies(ctx context.Context) ([]Company, error) {
	rows, err := r.db.Query(ctx, `SELECT company_id, companyname, joined FROM companies ORDER BY company_id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Company, error) {
		var c Company
		err := row.Scan(&c.ID, &c.Name, &c.Joined)
		return c, err
	})
}

func (r *PostgresRepository) CreatePIN(ctx context.Context, p PIN) error {
	return r.insert(ctx, `INSERT INTO pin_profiles (id, user_id, name, dob, phone, address, created_at, updated_at,
        preferred_cv_language, preferred_cv_gender) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''))`,
		p.Base, string(p.PreferredLanguage), string(p.PreferredGender))
}

func (r *PostgresRepository) CreateCV(ctx context.Context, p CV) error {
	return r.insert(ctx, `INSERT INTO cv_profiles (id, user_id, name, dob, phone, address, created_at, updated_at,
        gender, main_language, second_language, service_category_preference, company_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), $12, $13)`,
		p.Base, string(p.Gender), string(p.MainLanguage), string(p.SecondLanguage), string(p.CategoryPreference), p.CompanyID)
}

func (r *PostgresRepository) CreateCSR(ctx context.Context, p CSR) error {
	return r.insert(ctx, `INSERT INTO csr_profiles (id, user_id, name, dob, phone, address, created_at, updated_at,
        gender, company_id) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10)`,
		p.Base, string(p.Gender), p.CompanyID)
}

func (r *PostgresRepository) CreatePA(ctx context.Context, p PA) error {
	return r.insert(ctx, `INSERT INTO pa_profiles (id, user_id, name, dob, phone, address, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, p.Base)
}

func (r *PostgresRepository) insert(ctx context.Context, sql string, b Base, extra ...any) error {
	args := append([]any{b.ID, b.UserID, b.Name, b.DOB, b.Phone, b.Address, b.CreatedAt, b.UpdatedAt}, extra...)
	_, err := r.db.Exec(ctx, sql, args...)
	if isUniqueViolation(err) {
		return ErrProfileExists
	}
	return err
}

func (r *PostgresRepository) GetPIN(ctx context.Context, id string) (PIN, error) {
	var (
		p            PIN
		lang, gender string
	)
	err := r.db.QueryRow(ctx, `SELECT `+baseColumns+`, preferred_cv_language, COALESCE(preferred_cv_gender, '')
        FROM pin_profiles WHERE id = $1`, id).Scan(append(baseDest(&p.Base), &lang, &gender)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return PIN{}, ErrNotFound
	}
	if err != nil {
		return PIN{}, err
	}
	p.PreferredLanguage, p.PreferredGender = catalog.Language(lang), catalog.Gender(gender)
	return p, nil
}

const cvColumns = baseColumns + `, gender, main_language, COALESCE(second_language, ''), service_category_preference, company_id`

func scanCV(row pgx.Row) (CV, error) {
	var (
		p                          CV
		gender, main, second, pref string
	)
	err := row.Scan(append(baseDest(&p.Base), &gender, &main, &second, &pref, &p.CompanyID)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return CV{}, ErrNotFound
	}
	if err != nil {
		return CV{}, err
	}
	p.Gender = catalog.Gender(gender)
	p.MainLanguage, p.SecondLanguage = catalog.Language(main), catalog.Language(second)
	p.CategoryPreference = catalog.Category(pref)
	return p, nil
}

func (r *PostgresRepository) GetCV(ctx context.Context, id string) (CV, error) {
	return scanCV(r.db.QueryRow(ctx, `SELECT `+cvColumns+` FROM cv_profiles WHERE id = $1`, id))
}

func (r *PostgresRepository) ListCVs(ctx context.Context) ([]CV, error) {
	rows, err := r.db.Query(ctx, `SELECT `+cvColumns+` FROM cv_profiles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (CV, error) { return scanCV(row) })
}

func (r *PostgresRepository) GetCSR(ctx context.Context, id string) (CSR, error) {
	var (
		p      CSR
		gender string
	)
	err := r.db.QueryRow(ctx, `SELECT `+baseColumns+`, COALESCE(gender, ''), company_id FROM csr_profiles WHERE id = $1`, id).
		Scan(append(baseDest(&p.Base), &gender, &p.CompanyID)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return CSR{}, ErrNotFound
	}
	if err != nil {
		return CSR{}, err
	}
	p.Gender = catalog.Gender(gender)
	return p, nil
}

func (r *PostgresRepository) ProfileIDByUser(ctx context.Context, kind Kind, userID string) (string, error) {
	t, err := table(kind)
	if err != nil {
		return "", err
	}
	var id string
	err = r.db.QueryRow(ctx, `SELECT id FROM `+t+` WHERE user_id::text = $1`, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return id, err
}

func (r *PostgresRepository) UpdatePIN(ctx context.Context, p PIN) error {
	cmd, err := r.db.Exec(ctx, `UPDATE pin_profiles SET name = $2, phone = $3, address = $4,
        preferred_cv_language = $5, preferred_cv_gender = NULLIF($6, ''), updated_at = $7 WHERE id = $1`,
		p.ID, p.Name, p.Phone, p.Address, string(p.PreferredLanguage), string(p.PreferredGender), p.UpdatedAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Count(ctx context.Context, kind Kind) (int, error) {
	t, err := table(kind)
	if err != nil {
		return 0, err
	}
	var n int
	err = r.db.QueryRow(ctx, `SELECT count(*) FROM `+t).Scan(&n)
	return n, err
}

func (r *PostgresRepository) CreatedBetween(ctx context.Context, kind Kind, from, to time.Time) ([]time.Time, error) {
	t, err := table(kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, `SELECT created_at FROM `+t+` WHERE created_at >= $1 AND created_at < $2 ORDER BY created_at`, from, to)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[time.Time])
}

func (r *PostgresRepository) Names(ctx context.Context, kind Kind, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	t, err := table(kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, `SELECT id, name FROM `+t+` WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[id] = name
	}
	return out, rows.Err()
}

func baseDest(b *Base) []any {
	return []any{&b.ID, &b.UserID, &b.Name, &b.DOB, &b.Phone, &b.Address, &b.CreatedAt, &b.UpdatedAt}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
