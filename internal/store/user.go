package store

import (
	"context"

	"appointment-scheduler/internal/model"
)

const userCols = `id, full_name, username, email, password_hash, role, specialization, created_at, updated_at`

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, full_name, username, email, password_hash, role, specialization)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 RETURNING created_at, updated_at`,
		u.ID, u.FullName, u.Username, u.Email, u.PasswordHash, u.Role, u.Specialization,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	return mapErr(err)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.user(ctx, `SELECT `+userCols+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
}

func (s *Store) UserByID(ctx context.Context, id string) (*model.User, error) {
	return s.user(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id)
}

func (s *Store) user(ctx context.Context, q string, arg string) (*model.User, error) {
	u := &model.User{}
	err := s.pool.QueryRow(ctx, q, arg).Scan(
		&u.ID, &u.FullName, &u.Username, &u.Email, &u.PasswordHash,
		&u.Role, &u.Specialization, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

func (s *Store) UpdateProfile(ctx context.Context, id, fullName, specialization string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET full_name=$1, specialization=$2, updated_at=NOW() WHERE id=$3`,
		fullName, specialization, id,
	)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNoRecord
	}
	return nil
}

func (s *Store) Doctors(ctx context.Context) ([]model.Doctor, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, full_name, specialization FROM users
		 WHERE role = 'doctor'
		 ORDER BY full_name, id`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := []model.Doctor{}
	for rows.Next() {
		var d model.Doctor
		if err := rows.Scan(&d.ID, &d.FullName, &d.Specialization); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) Doctor(ctx context.Context, id string) (*model.Doctor, error) {
	d := &model.Doctor{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, full_name, specialization FROM users WHERE id = $1 AND role = 'doctor'`, id,
	).Scan(&d.ID, &d.FullName, &d.Specialization)
	if err != nil {
		return nil, mapErr(err)
	}
	return d, nil
}
