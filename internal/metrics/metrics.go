package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AttendanceEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hrdesk_attendance_events_total",
		Help: "Attendance check-ins and check-outs recorded.",
	}, []string{"event"})

	LeaveTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hrdesk_leave_transitions_total",
		Help: "Leave requests created or decided, by resulting status.",
	}, []string{"status"})

	IncompleteDays = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hrdesk_incomplete_days",
		Help: "Past attendance records still missing a check-out at the last scan.",
	})
)
