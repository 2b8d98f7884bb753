package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/magabrotheeeer/course-membership/internal/models"
)

const userColumns = `id, username, email, password_hash, name, phone, paid, plan, progress, created_at`

// RegisterUser сохраняет нового пользователя и возвращает его ID.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (int64, error) {
	const op = "storage.RegisterUser"

	query := `INSERT INTO users (username, email, password_hash)
			  VALUES ($1, $2, $3)
			  RETURNING id`
	var id int64
	err := s.DB.QueryRowContext(ctx, query, user.Username, user.Email, user.PasswordHash).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%s: %w", op, ErrUserExists)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetUserByUsername возвращает пользователя по его username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"

	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, username))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUser возвращает пользователя по ID.
func (s *Storage) GetUser(ctx context.Context, id int64) (*models.User, error) {
	const op = "storage.GetUser"

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// MarkPaid переводит пользователя в оплаченное состояние с указанным тарифом.
//
// Обновление условное: строка меняется только если paid = false, поэтому
// конкурентные вызовы для одного пользователя дают ровно одно изменение.
// Возвращает true, если строка была обновлена этим вызовом.
func (s *Storage) MarkPaid(ctx context.Context, id int64, plan models.Plan) (bool, error) {
	const op = "storage.MarkPaid"

	query := `UPDATE users
			  SET paid = TRUE, plan = $2
			  WHERE id = $1 AND paid = FALSE`
	res, err := s.DB.ExecContext(ctx, query, id, string(plan))
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return affected == 1, nil
}

// UpdateProfile обновляет имя и телефон пользователя.
func (s *Storage) UpdateProfile(ctx context.Context, id int64, name, phone string) error {
	const op = "storage.UpdateProfile"

	query := `UPDATE users SET name = $2, phone = $3 WHERE id = $1`
	res, err := s.DB.ExecContext(ctx, query, id, name, phone)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}

// AddProgress отмечает урок пройденным и возвращает актуальный список уроков.
// Повторная отметка того же урока список не меняет.
func (s *Storage) AddProgress(ctx context.Context, id int64, lesson string) ([]string, error) {
	const op = "storage.AddProgress"

	query := `UPDATE users
			  SET progress = CASE
			      WHEN progress @> jsonb_build_array($2::text) THEN progress
			      ELSE progress || jsonb_build_array($2::text)
			  END
			  WHERE id = $1
			  RETURNING progress`
	var raw []byte
	err := s.DB.QueryRowContext(ctx, query, id, lesson).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	progress, err := decodeProgress(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return progress, nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var plan sql.NullString
	var progress []byte
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Name, &u.Phone,
		&u.Paid, &plan, &progress, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if plan.Valid {
		p := models.Plan(plan.String)
		u.Plan = &p
	}
	if u.Progress, err = decodeProgress(progress); err != nil {
		return nil, err
	}
	return u, nil
}

func decodeProgress(raw []byte) ([]string, error) {
	progress := []string{}
	if len(raw) == 0 {
		return progress, nil
	}
	if err := json.Unmarshal(raw, &progress); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	return progress, nil
}
