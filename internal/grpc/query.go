package grpc

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"hrdesk/internal/apperr"
	"hrdesk/internal/attendance"
	"hrdesk/internal/model"
	"hrdesk/internal/report"
)

type AttendanceQueryServer struct {
	ledger *attendance.Ledger
}

func NewAttendanceQueryServer(ledger *attendance.Ledger) *AttendanceQueryServer {
	return &AttendanceQueryServer{ledger: ledger}
}

// GetPeriodSummary reads {view, date, q} and answers {view, date, start, end, rows}.
// Day views list one row per record, week and month views one row per employee.
func (s *AttendanceQueryServer) GetPeriodSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	period, err := report.ParsePeriod(fields["view"].GetStringValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "view must be day, week or month")
	}
	date := fields["date"].GetStringValue()
	if date == "" {
		date = s.ledger.Today()
	}
	day, err := report.ParseDay(date)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid date")
	}

	records, err := s.ledger.ListAll(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	view := report.Build(records, period, day, fields["q"].GetStringValue(), s.ledger.Location())

	var rows interface{} = view.Employees
	if period == report.PeriodDay {
		rows = view.Days
	}
	rowList, err := listValue(rows)
	if err != nil {
		return nil, status.Error(codes.Internal, "summary encoding failed")
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"view":  structpb.NewStringValue(string(view.View)),
		"date":  structpb.NewStringValue(view.Date),
		"start": structpb.NewStringValue(view.Start),
		"end":   structpb.NewStringValue(view.End),
		"rows":  structpb.NewListValue(rowList),
	}}, nil
}

// ListIncompleteDays lists records dated before the given day (today when empty) that
// were never checked out.
func (s *AttendanceQueryServer) ListIncompleteDays(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	before := req.GetValue()
	if before != "" {
		if _, err := report.ParseDay(before); err != nil {
			return nil, status.Error(codes.InvalidArgument, "invalid date")
		}
	}
	records, err := s.ledger.Incomplete(ctx, before)
	if err != nil {
		return nil, toStatus(err)
	}
	values := make([]*structpb.Value, 0, len(records))
	for _, record := range records {
		values = append(values, structpb.NewStructValue(incompleteDay(record)))
	}
	return &structpb.ListValue{Values: values}, nil
}

func incompleteDay(record model.AttendanceWithUser) *structpb.Struct {
	checkIn := structpb.NewNullValue()
	if record.CheckInTime != nil {
		checkIn = structpb.NewStringValue(record.CheckInTime.UTC().Format(time.RFC3339))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":          structpb.NewStringValue(record.ID),
		"userId":      structpb.NewStringValue(record.UserID),
		"name":        structpb.NewStringValue(record.User.Name),
		"email":       structpb.NewStringValue(record.User.Email),
		"date":        structpb.NewStringValue(record.Date),
		"checkInTime": checkIn,
	}}
}

// listValue converts report rows through their JSON form so field names match the
// HTTP report.
func listValue(rows interface{}) (*structpb.ListValue, error) {
	data, err := json.Marshal(rows)
	if err != nil {
		return nil, err
	}
	var generic []interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	return structpb.NewList(generic)
}

func toStatus(err error) error {
	message := apperr.MessageOf(err)
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return status.Error(codes.InvalidArgument, message)
	case apperr.KindPrecondition:
		return status.Error(codes.FailedPrecondition, message)
	case apperr.KindAuthentication:
		return status.Error(codes.Unauthenticated, message)
	case apperr.KindAuthorization:
		return status.Error(codes.PermissionDenied, message)
	case apperr.KindNotFound:
		return status.Error(codes.NotFound, message)
	case apperr.KindConflict:
		return status.Error(codes.AlreadyExists, message)
	case apperr.KindBusy:
		return status.Error(codes.Unavailable, message)
	default:
		log.Printf("grpc query failed: %v", err)
		return status.Error(codes.Internal, message)
	}
}
