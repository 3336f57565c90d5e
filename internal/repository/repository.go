package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"hrdesk/internal/db"
	"hrdesk/internal/model"
	"hrdesk/internal/store"
)

const uniqueViolation = "23505"

type Store struct {
	db      *db.Store
	timeout time.Duration
}

var _ store.Store = (*Store)(nil)

// NewStore wraps a pool-backed db.Store. A positive timeout bounds every query.
func NewStore(dbStore *db.Store, timeout time.Duration) *Store {
	return &Store{db: dbStore, timeout: timeout}
}

func (s *Store) Close() error {
	s.db.Pool.Close()
	return nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

const userColumns = `id, name, email, password_hash, role, position, company_name, phone, created_at`

func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	row := s.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE lower(email) = lower($1)
	`, email)
	return scanUser(row)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (model.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	row := s.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, pgUUIDFromString(id))
	return scanUser(row)
}

func (s *Store) CreateUser(ctx context.Context, user model.User, company *model.Company) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO users (id, name, email, password_hash, role, position, company_name, phone, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, pgUUIDFromString(user.ID), user.Name, user.Email, user.PasswordHash, string(user.Role), user.Position, user.CompanyName, user.Phone, user.CreatedAt); err != nil {
			return err
		}
		if company == nil {
			return nil
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO companies (id, name, owner_user_id, created_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT DO NOTHING
		`, pgUUIDFromString(company.ID), company.Name, pgUUIDFromString(company.OwnerUserID), company.CreatedAt)
		return err
	})
	return mapError("create user", err)
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY lower(name), created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	users := make([]model.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *Store) ListCompanies(ctx context.Context) ([]model.Company, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, name, owner_user_id, created_at
		FROM companies
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()
	companies := make([]model.Company, 0)
	for rows.Next() {
		var (
			company model.Company
			id      pgtype.UUID
			owner   pgtype.UUID
		)
		if err := rows.Scan(&id, &company.Name, &owner, &company.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		company.ID = uuidString(id)
		company.OwnerUserID = uuidString(owner)
		companies = append(companies, company)
	}
	return companies, rows.Err()
}

const attendanceColumns = `a.id, a.user_id, a.date, a.check_in_time, a.check_out_time, a.status`

func (s *Store) GetAttendance(ctx context.Context, userID, date string) (model.AttendanceRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	row := s.db.Pool.QueryRow(ctx, `
		SELECT `+attendanceColumns+`
		FROM attendance a
		WHERE a.user_id = $1 AND a.date = $2
	`, pgUUIDFromString(userID), pgDate(date))
	return scanAttendance(row)
}

func (s *Store) CreateAttendance(ctx context.Context, record model.AttendanceRecord) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO attendance (id, user_id, date, check_in_time, check_out_time, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, pgUUIDFromString(record.ID), pgUUIDFromString(record.UserID), pgDate(record.Date), record.CheckInTime, record.CheckOutTime, string(record.Status))
	return mapError("create attendance", err)
}

func (s *Store) SetCheckOut(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE attendance
		SET check_out_time = $1
		WHERE id = $2 AND check_out_time IS NULL
	`, at.UTC(), pgUUIDFromString(id))
	if err != nil {
		return fmt.Errorf("set check-out: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	return s.missOrStale(ctx, `SELECT EXISTS (SELECT 1 FROM attendance WHERE id = $1)`, id)
}

func (s *Store) ListAttendanceByUser(ctx context.Context, userID string) ([]model.AttendanceRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+attendanceColumns+`
		FROM attendance a
		WHERE a.user_id = $1
		ORDER BY a.date DESC, a.check_in_time DESC NULLS LAST
	`, pgUUIDFromString(userID))
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()
	records := make([]model.AttendanceRecord, 0)
	for rows.Next() {
		record, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *Store) ListAttendance(ctx context.Context) ([]model.AttendanceWithUser, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+attendanceColumns+`, u.name, u.email, u.role, u.position
		FROM attendance a
		JOIN users u ON u.id = a.user_id
		ORDER BY a.date DESC, a.check_in_time DESC NULLS LAST
	`)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()
	records := make([]model.AttendanceWithUser, 0)
	for rows.Next() {
		var (
			entry model.AttendanceWithUser
			id    pgtype.UUID
			user  pgtype.UUID
			date  pgtype.Date
			role  string
		)
		if err := rows.Scan(&id, &user, &date, &entry.CheckInTime, &entry.CheckOutTime, &entry.Status,
			&entry.User.Name, &entry.User.Email, &role, &entry.User.Position); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		entry.ID = uuidString(id)
		entry.UserID = uuidString(user)
		entry.Date = dateString(date)
		entry.User.ID = entry.UserID
		entry.User.Role = model.Role(role)
		records = append(records, entry)
	}
	return records, rows.Err()
}

const leaveColumns = `l.id, l.user_id, l.start_date, l.end_date, l.type, l.status, l.reason, l.attachment_url, l.created_at, l.decided_at, l.decided_by`

func (s *Store) CreateLeave(ctx context.Context, leave model.LeaveRequest) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO leaves (id, user_id, start_date, end_date, type, status, reason, attachment_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, pgUUIDFromString(leave.ID), pgUUIDFromString(leave.UserID), pgDate(leave.StartDate), pgDate(leave.EndDate),
		leave.Type, string(leave.Status), leave.Reason, leave.AttachmentURL, leave.CreatedAt)
	return mapError("create leave", err)
}

func (s *Store) GetLeave(ctx context.Context, id string) (model.LeaveRequest, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	row := s.db.Pool.QueryRow(ctx, `
		SELECT `+leaveColumns+`
		FROM leaves l
		WHERE l.id = $1
	`, pgUUIDFromString(id))
	return scanLeave(row)
}

func (s *Store) DecideLeave(ctx context.Context, id string, from, to model.LeaveStatus, at time.Time, by string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE leaves
		SET status = $1, decided_at = $2, decided_by = $3
		WHERE id = $4 AND status = $5
	`, string(to), at.UTC(), pgUUIDFromString(by), pgUUIDFromString(id), string(from))
	if err != nil {
		return fmt.Errorf("decide leave: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	return s.missOrStale(ctx, `SELECT EXISTS (SELECT 1 FROM leaves WHERE id = $1)`, id)
}

func (s *Store) ListLeavesByUser(ctx context.Context, userID string) ([]model.LeaveRequest, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+leaveColumns+`
		FROM leaves l
		WHERE l.user_id = $1
		ORDER BY l.created_at DESC
	`, pgUUIDFromString(userID))
	if err != nil {
		return nil, fmt.Errorf("list leaves: %w", err)
	}
	defer rows.Close()
	leaves := make([]model.LeaveRequest, 0)
	for rows.Next() {
		leave, err := scanLeave(rows)
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, leave)
	}
	return leaves, rows.Err()
}

func (s *Store) ListLeaves(ctx context.Context) ([]model.LeaveWithUser, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+leaveColumns+`, u.name, u.email, u.role, u.position
		FROM leaves l
		JOIN users u ON u.id = l.user_id
		ORDER BY l.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list leaves: %w", err)
	}
	defer rows.Close()
	leaves := make([]model.LeaveWithUser, 0)
	for rows.Next() {
		var (
			entry model.LeaveWithUser
			role  string
		)
		dest := leaveDest(&entry.LeaveRequest)
		dest.targets = append(dest.targets, &entry.User.Name, &entry.User.Email, &role, &entry.User.Position)
		if err := rows.Scan(dest.targets...); err != nil {
			return nil, fmt.Errorf("scan leave: %w", err)
		}
		dest.apply()
		entry.User.ID = entry.UserID
		entry.User.Role = model.Role(role)
		leaves = append(leaves, entry)
	}
	return leaves, rows.Err()
}

func (s *Store) missOrStale(ctx context.Context, query, id string) error {
	var exists bool
	if err := s.db.Pool.QueryRow(ctx, query, pgUUIDFromString(id)).Scan(&exists); err != nil {
		return fmt.Errorf("lookup %s: %w", id, err)
	}
	if !exists {
		return store.ErrNotFound
	}
	return store.ErrStale
}

func scanUser(row pgx.Row) (model.User, error) {
	var (
		user model.User
		id   pgtype.UUID
		role string
	)
	err := row.Scan(&id, &user.Name, &user.Email, &user.PasswordHash, &role, &user.Position, &user.CompanyName, &user.Phone, &user.CreatedAt)
	if err != nil {
		return model.User{}, mapError("scan user", err)
	}
	user.ID = uuidString(id)
	user.Role = model.Role(role)
	return user, nil
}

func scanAttendance(row pgx.Row) (model.AttendanceRecord, error) {
	var (
		record model.AttendanceRecord
		id     pgtype.UUID
		user   pgtype.UUID
		date   pgtype.Date
		status string
	)
	if err := row.Scan(&id, &user, &date, &record.CheckInTime, &record.CheckOutTime, &status); err != nil {
		return model.AttendanceRecord{}, mapError("scan attendance", err)
	}
	record.ID = uuidString(id)
	record.UserID = uuidString(user)
	record.Date = dateString(date)
	record.Status = model.AttendanceStatus(status)
	return record, nil
}

func scanLeave(row pgx.Row) (model.LeaveRequest, error) {
	var leave model.LeaveRequest
	dest := leaveDest(&leave)
	if err := row.Scan(dest.targets...); err != nil {
		return model.LeaveRequest{}, mapError("scan leave", err)
	}
	dest.apply()
	return leave, nil
}

type leaveScan struct {
	leave     *model.LeaveRequest
	id        pgtype.UUID
	user      pgtype.UUID
	start     pgtype.Date
	end       pgtype.Date
	status    string
	decidedBy pgtype.UUID
	targets   []any
}

func leaveDest(leave *model.LeaveRequest) *leaveScan {
	d := &leaveScan{leave: leave}
	d.targets = []any{&d.id, &d.user, &d.start, &d.end, &leave.Type, &d.status, &leave.Reason,
		&leave.AttachmentURL, &leave.CreatedAt, &leave.DecidedAt, &d.decidedBy}
	return d
}

func (d *leaveScan) apply() {
	d.leave.ID = uuidString(d.id)
	d.leave.UserID = uuidString(d.user)
	d.leave.StartDate = dateString(d.start)
	d.leave.EndDate = dateString(d.end)
	d.leave.Status = model.LeaveStatus(d.status)
	if d.decidedBy.Valid {
		by := uuidString(d.decidedBy)
		d.leave.DecidedBy = &by
	}
}

func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return store.ErrDuplicate
	}
	return fmt.Errorf("%s: %w", op, err)
}

func pgUUIDFromString(id string) pgtype.UUID {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

func uuidString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	return uuid.UUID(id.Bytes).String()
}

func pgDate(value string) pgtype.Date {
	parsed, err := time.Parse(model.DateLayout, value)
	if err != nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: parsed, Valid: true}
}

func dateString(date pgtype.Date) string {
	if !date.Valid {
		return ""
	}
	return date.Time.Format(model.DateLayout)
}
