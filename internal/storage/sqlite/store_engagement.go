package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Theras-Labs/theras-boost-protocol/internal/engagement"
	"github.com/Theras-Labs/theras-boost-protocol/internal/storage"
)

// Engagement ledger methods (projects, users, event records)

// CreateProject inserts one project row.
func (q queries) CreateProject(ctx context.Context, project engagement.Project) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(project.ProjectKey) == "" {
		return fmt.Errorf("project key is required")
	}
	if strings.TrimSpace(project.Authority) == "" {
		return fmt.Errorf("authority is required")
	}
	_, err := q.db.ExecContext(
		ctx,
		`INSERT INTO projects (
		   project_key,
		   authority,
		   boost_enabled,
		   total_users,
		   total_events,
		   created_at,
		   updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		project.ProjectKey,
		project.Authority,
		boolToInt(project.BoostEnabled),
		int64(project.TotalUsers),
		int64(project.TotalEvents),
		toMillis(project.CreatedAt),
		toMillis(project.UpdatedAt),
	)
	if err != nil {
		if isConstraintError(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// Project returns one project row by key.
func (q queries) Project(ctx context.Context, projectKey string) (engagement.Project, error) {
	if err := ctx.Err(); err != nil {
		return engagement.Project{}, err
	}
	if strings.TrimSpace(projectKey) == "" {
		return engagement.Project{}, fmt.Errorf("project key is required")
	}
	var (
		project     engagement.Project
		boost       int
		totalUsers  int64
		totalEvents int64
		createdAt   int64
		updatedAt   int64
	)
	row := q.db.QueryRowContext(
		ctx,
		`SELECT project_key, authority, boost_enabled, total_users, total_events, created_at, updated_at
		 FROM projects WHERE project_key = ?`,
		projectKey,
	)
	err := row.Scan(&project.ProjectKey, &project.Authority, &boost, &totalUsers, &totalEvents, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return engagement.Project{}, storage.ErrNotFound
		}
		return engagement.Project{}, fmt.Errorf("get project: %w", err)
	}
	project.BoostEnabled = boost != 0
	project.TotalUsers = uint64(totalUsers)
	project.TotalEvents = uint64(totalEvents)
	project.CreatedAt = fromMillis(createdAt)
	project.UpdatedAt = fromMillis(updatedAt)
	return project, nil
}

// UpdateProject overwrites one project row.
func (q queries) UpdateProject(ctx context.Context, project engagement.Project) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	result, err := q.db.ExecContext(
		ctx,
		`UPDATE projects SET
		   authority = ?,
		   boost_enabled = ?,
		   total_users = ?,
		   total_events = ?,
		   updated_at = ?
		 WHERE project_key = ?`,
		project.Authority,
		boolToInt(project.BoostEnabled),
		int64(project.TotalUsers),
		int64(project.TotalEvents),
		toMillis(project.UpdatedAt),
		project.ProjectKey,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update project rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CreateUser inserts one project user row.
func (q queries) CreateUser(ctx context.Context, user engagement.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(user.ProjectKey) == "" {
		return fmt.Errorf("project key is required")
	}
	if strings.TrimSpace(user.Wallet) == "" {
		return fmt.Errorf("wallet is required")
	}
	_, err := q.db.ExecContext(
		ctx,
		`INSERT INTO project_users (
		   project_key,
		   wallet,
		   daily_logins,
		   quests,
		   referrals,
		   total_earned,
		   last_login,
		   created_at,
		   updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ProjectKey,
		user.Wallet,
		int64(user.DailyLogins),
		int64(user.Quests),
		int64(user.Referrals),
		int64(user.TotalEarned),
		toMillisOrZero(user.LastLogin),
		toMillis(user.CreatedAt),
		toMillis(user.UpdatedAt),
	)
	if err != nil {
		if isConstraintError(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("insert project user: %w", err)
	}
	return nil
}

// User returns one project user row.
func (q queries) User(ctx context.Context, projectKey, wallet string) (engagement.User, error) {
	if err := ctx.Err(); err != nil {
		return engagement.User{}, err
	}
	if strings.TrimSpace(projectKey) == "" {
		return engagement.User{}, fmt.Errorf("project key is required")
	}
	if strings.TrimSpace(wallet) == "" {
		return engagement.User{}, fmt.Errorf("wallet is required")
	}
	var (
		user        engagement.User
		dailyLogins int64
		quests      int64
		referrals   int64
		totalEarned int64
		lastLogin   int64
		createdAt   int64
		updatedAt   int64
	)
	row := q.db.QueryRowContext(
		ctx,
		`SELECT project_key, wallet, daily_logins, quests, referrals, total_earned, last_login, created_at, updated_at
		 FROM project_users WHERE project_key = ? AND wallet = ?`,
		projectKey,
		wallet,
	)
	err := row.Scan(&user.ProjectKey, &user.Wallet, &dailyLogins, &quests, &referrals, &totalEarned, &lastLogin, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return engagement.User{}, storage.ErrNotFound
		}
		return engagement.User{}, fmt.Errorf("get project user: %w", err)
	}
	user.DailyLogins = uint64(dailyLogins)
	user.Quests = uint64(quests)
	user.Referrals = uint64(referrals)
	user.TotalEarned = uint64(totalEarned)
	user.LastLogin = fromMillisOrZero(lastLogin)
	user.CreatedAt = fromMillis(createdAt)
	user.UpdatedAt = fromMillis(updatedAt)
	return user, nil
}

// UpdateUser overwrites one project user row.
func (q queries) UpdateUser(ctx context.Context, user engagement.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	result, err := q.db.ExecContext(
		ctx,
		`UPDATE project_users SET
		   daily_logins = ?,
		   quests = ?,
		   referrals = ?,
		   total_earned = ?,
		   last_login = ?,
		   updated_at = ?
		 WHERE project_key = ? AND wallet = ?`,
		int64(user.DailyLogins),
		int64(user.Quests),
		int64(user.Referrals),
		int64(user.TotalEarned),
		toMillisOrZero(user.LastLogin),
		toMillis(user.UpdatedAt),
		user.ProjectKey,
		user.Wallet,
	)
	if err != nil {
		return fmt.Errorf("update project user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update project user rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// AppendEventRecord writes one emitted engagement event record.
func (q queries) AppendEventRecord(ctx context.Context, record engagement.EventRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("record id is required")
	}
	_, err := q.db.ExecContext(
		ctx,
		`INSERT INTO event_records (id, project_key, wallet, event_type, count, timestamp) VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.ProjectKey,
		record.Wallet,
		string(record.Type),
		int64(record.Count),
		toMillis(record.Timestamp),
	)
	if err != nil {
		if isConstraintError(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("insert event record: %w", err)
	}
	return nil
}
