package core

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"leavedesk/internal/platform/querier"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrManagerCycle = errors.New("manager assignment would create a cycle")
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) UserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.DB.QueryRow(ctx, `
    SELECT id, email, first_name, last_name, COALESCE(gender, ''), role, COALESCE(manager_id::text, ''), is_active, created_at
    FROM users
    WHERE id = $1
  `, userID).Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.Gender, &user.Role, &user.ManagerID, &user.IsActive, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, email, first_name, last_name, COALESCE(gender, ''), role, COALESCE(manager_id::text, ''), is_active, created_at
    FROM users
    ORDER BY last_name, first_name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.Gender, &user.Role, &user.ManagerID, &user.IsActive, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Store) IsManagerOf(ctx context.Context, managerID, userID string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM users WHERE id = $1 AND manager_id = $2
  `, userID, managerID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SetManager assigns a manager to a user after verifying the new reporting
// chain contains no cycle.
func (s *Store) SetManager(ctx context.Context, userID, managerID string) error {
	if managerID != "" {
		if _, err := s.UserByID(ctx, managerID); err != nil {
			return err
		}
		managerOf, err := s.managerChains(ctx)
		if err != nil {
			return err
		}
		if WouldCreateManagerCycle(userID, managerID, managerOf) {
			return ErrManagerCycle
		}
	}

	var tag string
	value := any(nil)
	if managerID != "" {
		value = managerID
	}
	err := s.DB.QueryRow(ctx, `
    UPDATE users SET manager_id = $1 WHERE id = $2 RETURNING id
  `, value, userID).Scan(&tag)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrUserNotFound
	}
	return err
}

func (s *Store) managerChains(ctx context.Context) (map[string]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, COALESCE(manager_id::text, '') FROM users
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	managerOf := make(map[string]string)
	for rows.Next() {
		var id, managerID string
		if err := rows.Scan(&id, &managerID); err != nil {
			return nil, err
		}
		if managerID != "" {
			managerOf[id] = managerID
		}
	}
	return managerOf, nil
}
