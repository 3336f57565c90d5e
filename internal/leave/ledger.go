// Package leave handles intake and adjudication of leave requests.
package leave

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"hrdesk/internal/apperr"
	"hrdesk/internal/clock"
	"hrdesk/internal/lock"
	"hrdesk/internal/metrics"
	"hrdesk/internal/model"
	"hrdesk/internal/store"
)

var (
	ErrMissingRequiredField   = apperr.New(apperr.KindValidation, "missing_required_field", "startDate, endDate and type are required")
	ErrInvalidDate            = apperr.New(apperr.KindValidation, "invalid_date", "Dates must be valid calendar dates (YYYY-MM-DD)")
	ErrInvalidDateRange       = apperr.New(apperr.KindValidation, "invalid_date_range", "endDate must not be before startDate")
	ErrLeaveNotFound          = apperr.New(apperr.KindNotFound, "leave_not_found", "Leave request not found")
	ErrInvalidStateTransition = apperr.New(apperr.KindConflict, "invalid_state_transition", "Leave request has already been decided")
)

// AttachmentStore keeps attachment bytes outside the ledger; records hold only the URL
// returned by Save.
type AttachmentStore interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
	Remove(ctx context.Context, url string) error
}

type Attachment struct {
	Filename string
	Content  io.Reader
}

type CreateInput struct {
	StartDate  string
	EndDate    string
	Type       string
	Reason     string
	Attachment *Attachment
}

type Ledger struct {
	store       store.Leaves
	attachments AttachmentStore
	locker      lock.Locker
	clock       clock.Clock
}

func NewLedger(st store.Leaves, attachments AttachmentStore, locker lock.Locker, clk clock.Clock) *Ledger {
	if clk == nil {
		clk = clock.System{}
	}
	return &Ledger{store: st, attachments: attachments, locker: locker, clock: clk}
}

func (l *Ledger) Create(ctx context.Context, userID string, in CreateInput) (model.LeaveRequest, error) {
	leaveType := strings.TrimSpace(in.Type)
	if strings.TrimSpace(in.StartDate) == "" || strings.TrimSpace(in.EndDate) == "" || leaveType == "" {
		return model.LeaveRequest{}, ErrMissingRequiredField
	}
	start, err := ParseDate(in.StartDate)
	if err != nil {
		return model.LeaveRequest{}, ErrInvalidDate.WithMessage("startDate is not a valid date")
	}
	end, err := ParseDate(in.EndDate)
	if err != nil {
		return model.LeaveRequest{}, ErrInvalidDate.WithMessage("endDate is not a valid date")
	}
	// YYYY-MM-DD compares correctly as a string
	if end < start {
		return model.LeaveRequest{}, ErrInvalidDateRange
	}

	leave := model.LeaveRequest{
		ID:        uuid.NewString(),
		UserID:    userID,
		StartDate: start,
		EndDate:   end,
		Type:      leaveType,
		Status:    model.LeavePending,
		Reason:    strings.TrimSpace(in.Reason),
		CreatedAt: l.clock.Now().UTC(),
	}

	if in.Attachment != nil && in.Attachment.Content != nil {
		if l.attachments == nil {
			return model.LeaveRequest{}, errors.New("leave: attachments are not configured")
		}
		url, err := l.attachments.Save(ctx, in.Attachment.Filename, in.Attachment.Content)
		if err != nil {
			return model.LeaveRequest{}, fmt.Errorf("save attachment: %w", err)
		}
		leave.AttachmentURL = &url
	}

	if err := l.store.CreateLeave(ctx, leave); err != nil {
		if leave.AttachmentURL != nil {
			if rmErr := l.attachments.Remove(ctx, *leave.AttachmentURL); rmErr != nil {
				log.Printf("leave attachment cleanup failed for %s: %v", *leave.AttachmentURL, rmErr)
			}
		}
		return model.LeaveRequest{}, fmt.Errorf("create leave: %w", err)
	}
	metrics.LeaveTransitions.WithLabelValues(string(model.LeavePending)).Inc()
	return leave, nil
}

func (l *Ledger) Get(ctx context.Context, id string) (model.LeaveRequest, error) {
	leave, err := l.store.GetLeave(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return model.LeaveRequest{}, ErrLeaveNotFound
	}
	if err != nil {
		return model.LeaveRequest{}, fmt.Errorf("get leave: %w", err)
	}
	return leave, nil
}

func (l *Ledger) ListForUser(ctx context.Context, userID string) ([]model.LeaveRequest, error) {
	leaves, err := l.store.ListLeavesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list leaves: %w", err)
	}
	return leaves, nil
}

func (l *Ledger) ListAll(ctx context.Context) ([]model.LeaveWithUser, error) {
	leaves, err := l.store.ListLeaves(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leaves: %w", err)
	}
	return leaves, nil
}

func (l *Ledger) Approve(ctx context.Context, id, actorID string) (model.LeaveRequest, error) {
	return l.decide(ctx, id, actorID, model.LeaveApproved)
}

func (l *Ledger) Reject(ctx context.Context, id, actorID string) (model.LeaveRequest, error) {
	return l.decide(ctx, id, actorID, model.LeaveRejected)
}

// decide moves a PENDING request to a terminal status. Terminal statuses are final.
func (l *Ledger) decide(ctx context.Context, id, actorID string, to model.LeaveStatus) (model.LeaveRequest, error) {
	if l.locker != nil {
		unlock, err := l.locker.Lock(ctx, lock.LeaveKey(id))
		if errors.Is(err, lock.ErrBusy) {
			return model.LeaveRequest{}, apperr.ErrBusy.With(err)
		}
		if err != nil {
			return model.LeaveRequest{}, fmt.Errorf("lock leave %s: %w", id, err)
		}
		defer unlock()
	}

	leave, err := l.Get(ctx, id)
	if err != nil {
		return model.LeaveRequest{}, err
	}
	if leave.Status != model.LeavePending {
		return model.LeaveRequest{}, ErrInvalidStateTransition.WithMessage(
			fmt.Sprintf("Leave request is already %s", strings.ToLower(string(leave.Status))))
	}

	now := l.clock.Now().UTC()
	err = l.store.DecideLeave(ctx, id, model.LeavePending, to, now, actorID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return model.LeaveRequest{}, ErrLeaveNotFound
	case errors.Is(err, store.ErrStale):
		return model.LeaveRequest{}, ErrInvalidStateTransition
	case err != nil:
		return model.LeaveRequest{}, fmt.Errorf("decide leave: %w", err)
	}

	leave.Status = to
	leave.DecidedAt = &now
	leave.DecidedBy = &actorID
	metrics.LeaveTransitions.WithLabelValues(string(to)).Inc()
	return leave, nil
}

// ParseDate normalises a leave bound to YYYY-MM-DD. Full RFC 3339 timestamps are
// accepted and truncated to their UTC date.
func ParseDate(value string) (string, error) {
	value = strings.TrimSpace(value)
	if parsed, err := time.Parse(model.DateLayout, value); err == nil {
		return parsed.Format(model.DateLayout), nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return "", err
	}
	return parsed.UTC().Format(model.DateLayout), nil
}
