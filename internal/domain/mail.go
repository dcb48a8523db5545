package domain

import "time"

// MailState enumerates lifecycle states for a mail item.
type MailState string

const (
	MailStateCreated                 MailState = "Created"
	MailStateInBranchStock           MailState = "InBranchStock"
	MailStateInDeliveryToBranchStock MailState = "InDeliveryToBranchStock"
	MailStateInDeliveryToPerson      MailState = "InDeliveryToPerson"
	MailStateDelivered               MailState = "Delivered"
)

// Valid reports whether s is a known state.
func (s MailState) Valid() bool {
	switch s {
	case MailStateCreated, MailStateInBranchStock, MailStateInDeliveryToBranchStock,
		MailStateInDeliveryToPerson, MailStateDelivered:
		return true
	}
	return false
}

// MailItem is the aggregate tracked through the postal network.
type MailItem struct {
	ID                  int64
	PersonFrom          string
	PersonTo            string
	AddressTo           string
	CurrentBranchID     *int64
	BranchStockAddress  *string
	CurrentCarID        *int64
	SourceBranchID      int64
	DestinationBranchID int64
	State               MailState
	CreatedAt           time.Time
	UpdatedAt           time.Time

	// Populated on reads.
	SourceBranch      *Branch
	DestinationBranch *Branch
	CurrentBranch     *Branch
	CurrentCar        *Car
}

// AtBranch reports whether the item currently sits in the given branch.
func (m *MailItem) AtBranch(branchID int64) bool {
	return m.CurrentBranchID != nil && *m.CurrentBranchID == branchID
}

// InCar reports whether the item is currently loaded in the given car.
func (m *MailItem) InCar(carID int64) bool {
	return m.CurrentCarID != nil && *m.CurrentCarID == carID
}
