// Package jsonstore keeps every table in memory and, when opened on a directory,
// mirrors each table to a JSON array file after every write.
package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"hrdesk/internal/model"
	"hrdesk/internal/store"
)

const (
	usersFile      = "users.json"
	attendanceFile = "attendance.json"
	leavesFile     = "leaves.json"
	companiesFile  = "companies.json"
)

// Store serializes all writes behind one mutex and replaces files atomically, so two
// concurrent requests can never lose each other's update.
type Store struct {
	mu  sync.RWMutex
	dir string

	users      []model.User
	companies  []model.Company
	attendance []model.AttendanceRecord
	leaves     []model.LeaveRequest
}

var _ store.Store = (*Store)(nil)

// NewMemory returns a store that never touches the filesystem.
func NewMemory() *Store {
	return &Store{}
}

// Open loads (or creates) the JSON tables under dir.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("jsonstore: data dir required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("jsonstore: create data dir: %w", err)
	}
	s := &Store{dir: dir}
	if err := load(dir, usersFile, &s.users); err != nil {
		return nil, err
	}
	if err := load(dir, companiesFile, &s.companies); err != nil {
		return nil, err
	}
	if err := load(dir, attendanceFile, &s.attendance); err != nil {
		return nil, err
	}
	if err := load(dir, leavesFile, &s.leaves); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return nil }

// Users

func (s *Store) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return model.User{}, store.ErrNotFound
}

func (s *Store) GetUserByID(_ context.Context, id string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.userByID(id); ok {
		return user, nil
	}
	return model.User{}, store.ErrNotFound
}

func (s *Store) CreateUser(_ context.Context, user model.User, company *model.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return store.ErrDuplicate
		}
	}
	users := append(slices.Clone(s.users), user)
	if err := s.persist(usersFile, users); err != nil {
		return err
	}
	s.users = users

	if company == nil || s.hasCompany(company.Name) {
		return nil
	}
	companies := append(slices.Clone(s.companies), *company)
	if err := s.persist(companiesFile, companies); err != nil {
		return err
	}
	s.companies = companies
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := slices.Clone(s.users)
	slices.SortStableFunc(users, func(a, b model.User) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return users, nil
}

func (s *Store) ListCompanies(_ context.Context) ([]model.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.companies), nil
}

// Attendance

func (s *Store) GetAttendance(_ context.Context, userID, date string) (model.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, record := range s.attendance {
		if record.UserID == userID && record.Date == date {
			return record, nil
		}
	}
	return model.AttendanceRecord{}, store.ErrNotFound
}

func (s *Store) CreateAttendance(_ context.Context, record model.AttendanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.attendance {
		if existing.UserID == record.UserID && existing.Date == record.Date {
			return store.ErrDuplicate
		}
	}
	attendance := append(slices.Clone(s.attendance), record)
	if err := s.persist(attendanceFile, attendance); err != nil {
		return err
	}
	s.attendance = attendance
	return nil
}

func (s *Store) SetCheckOut(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := slices.IndexFunc(s.attendance, func(r model.AttendanceRecord) bool { return r.ID == id })
	if idx < 0 {
		return store.ErrNotFound
	}
	if s.attendance[idx].CheckOutTime != nil {
		return store.ErrStale
	}
	attendance := slices.Clone(s.attendance)
	checkOut := at.UTC()
	attendance[idx].CheckOutTime = &checkOut
	if err := s.persist(attendanceFile, attendance); err != nil {
		return err
	}
	s.attendance = attendance
	return nil
}

func (s *Store) ListAttendanceByUser(_ context.Context, userID string) ([]model.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]model.AttendanceRecord, 0)
	for _, record := range s.attendance {
		if record.UserID == userID {
			records = append(records, record)
		}
	}
	store.SortAttendance(records)
	return records, nil
}

// ListAttendance joins users like the relational backend; records whose owner no
// longer exists are dropped, mirroring the inner join.
func (s *Store) ListAttendance(_ context.Context) ([]model.AttendanceWithUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]model.AttendanceWithUser, 0, len(s.attendance))
	for _, record := range s.attendance {
		user, ok := s.userByID(record.UserID)
		if !ok {
			continue
		}
		records = append(records, model.AttendanceWithUser{AttendanceRecord: record, User: user.Ref()})
	}
	store.SortAttendanceWithUser(records)
	return records, nil
}

// Leaves

func (s *Store) CreateLeave(_ context.Context, leave model.LeaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	leaves := append(slices.Clone(s.leaves), leave)
	if err := s.persist(leavesFile, leaves); err != nil {
		return err
	}
	s.leaves = leaves
	return nil
}

func (s *Store) GetLeave(_ context.Context, id string) (model.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, leave := range s.leaves {
		if leave.ID == id {
			return leave, nil
		}
	}
	return model.LeaveRequest{}, store.ErrNotFound
}

func (s *Store) DecideLeave(_ context.Context, id string, from, to model.LeaveStatus, at time.Time, by string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := slices.IndexFunc(s.leaves, func(l model.LeaveRequest) bool { return l.ID == id })
	if idx < 0 {
		return store.ErrNotFound
	}
	if s.leaves[idx].Status != from {
		return store.ErrStale
	}
	leaves := slices.Clone(s.leaves)
	decidedAt := at.UTC()
	decidedBy := by
	leaves[idx].Status = to
	leaves[idx].DecidedAt = &decidedAt
	leaves[idx].DecidedBy = &decidedBy
	if err := s.persist(leavesFile, leaves); err != nil {
		return err
	}
	s.leaves = leaves
	return nil
}

func (s *Store) ListLeavesByUser(_ context.Context, userID string) ([]model.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	leaves := make([]model.LeaveRequest, 0)
	for _, leave := range s.leaves {
		if leave.UserID == userID {
			leaves = append(leaves, leave)
		}
	}
	store.SortLeaves(leaves)
	return leaves, nil
}

func (s *Store) ListLeaves(_ context.Context) ([]model.LeaveWithUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	leaves := make([]model.LeaveWithUser, 0, len(s.leaves))
	for _, leave := range s.leaves {
		user, ok := s.userByID(leave.UserID)
		if !ok {
			continue
		}
		leaves = append(leaves, model.LeaveWithUser{LeaveRequest: leave, User: user.Ref()})
	}
	store.SortLeavesWithUser(leaves)
	return leaves, nil
}

// helpers; callers hold s.mu

func (s *Store) userByID(id string) (model.User, bool) {
	for _, user := range s.users {
		if user.ID == id {
			return user, true
		}
	}
	return model.User{}, false
}

func (s *Store) hasCompany(name string) bool {
	for _, company := range s.companies {
		if strings.EqualFold(company.Name, name) {
			return true
		}
	}
	return false
}

func (s *Store) persist(name string, table interface{}) error {
	if s.dir == "" {
		return nil
	}
	data, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonstore: encode %s: %w", name, err)
	}
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("jsonstore: write %s: %w", name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("jsonstore: write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("jsonstore: sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("jsonstore: close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("jsonstore: replace %s: %w", name, err)
	}
	return nil
}

// load treats a missing or empty file as an empty table. A corrupt file is an error:
// starting empty would overwrite it on the next write.
func load[T any](dir, name string, out *[]T) error {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("jsonstore: read %s: %w", name, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("jsonstore: decode %s: %w", name, err)
	}
	return nil
}
