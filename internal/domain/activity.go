package domain

import "time"

// ActivityType captures which transition an activity entry records.
type ActivityType string

const (
	ActivityCreated            ActivityType = "Created"
	ActivityMovedToBranchStock ActivityType = "MovedToBranchStock"
	ActivityMovedToCar         ActivityType = "MovedToCar"
	ActivityDelivered          ActivityType = "Delivered"
)

// ActivityEntry is an immutable audit trail entry for a mail transition.
type ActivityEntry struct {
	ID       int64
	Type     ActivityType
	Message  string
	Time     time.Time
	UserName string
	MailID   int64
	BranchID *int64
	CarID    *int64
}
