package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/KrPrince19/CareNest/internal/model"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) CreateUser(ctx context.Context, user model.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, name, email, role, password_hash, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Name, user.Email, user.Role, user.PasswordHash, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrUserExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetUserByEmailAndRole(ctx context.Context, email string, role model.Role) (model.User, error) {
	var user model.User
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, role, password_hash, created_at FROM users WHERE email = $1 AND role = $2`,
		email, role).
		Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) UpdateUserPassword(ctx context.Context, email, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2 WHERE email = $1`, email, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *PostgresRepository) CreateMedication(ctx context.Context, med model.Medication) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO medications (id, name, time_of_day, dose, stock, for_whom, user_email, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		med.ID, med.Name, med.Time, med.Dose, med.Stock, med.ForWhom, med.UserEmail, med.Status)
	if err != nil {
		return fmt.Errorf("create medication: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListMedications(ctx context.Context, userEmail string) ([]model.Medication, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, time_of_day, dose, stock, for_whom, user_email, status
		 FROM medications WHERE user_email = $1 ORDER BY created_at`, userEmail)
	if err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	defer rows.Close()

	var meds []model.Medication
	for rows.Next() {
		var med model.Medication
		if err := rows.Scan(&med.ID, &med.Name, &med.Time, &med.Dose, &med.Stock, &med.ForWhom, &med.UserEmail, &med.Status); err != nil {
			return nil, fmt.Errorf("scan medication: %w", err)
		}
		meds = append(meds, med)
	}
	return meds, rows.Err()
}

// TakeMedication marks the record taken and decrements stock with a floor of
// zero, in a single statement so a repeated confirmation cannot decrement
// twice.
func (r *PostgresRepository) TakeMedication(ctx context.Context, id string) (model.Medication, error) {
	var med model.Medication
	err := r.pool.QueryRow(ctx,
		`UPDATE medications
		 SET status = 'taken',
		     stock = CASE WHEN status = 'taken' THEN stock ELSE GREATEST(stock - 1, 0) END
		 WHERE id = $1
		 RETURNING id, name, time_of_day, dose, stock, for_whom, user_email, status`, id).
		Scan(&med.ID, &med.Name, &med.Time, &med.Dose, &med.Stock, &med.ForWhom, &med.UserEmail, &med.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Medication{}, ErrMedicationNotFound
		}
		return model.Medication{}, fmt.Errorf("take medication: %w", err)
	}
	return med, nil
}

func (r *PostgresRepository) HealthCheck(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
