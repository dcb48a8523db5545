package dto

import (
	"time"

	"github.com/postroute/postal-service/internal/domain"
)

// CreateMailRequest payload for registering an item at the operator's branch.
type CreateMailRequest struct {
	PersonFrom          string `json:"person_from"`
	PersonTo            string `json:"person_to"`
	AddressTo           string `json:"address_to"`
	DestinationBranchID int64  `json:"destination_branch_id"`
}

// StockRequest payload for shelving an item.
type StockRequest struct {
	BranchStockAddress string `json:"branch_stock_address"`
}

// BranchRef is a compact branch reference inside other responses.
type BranchRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CarRef is a compact car reference inside other responses.
type CarRef struct {
	ID     int64  `json:"id"`
	Model  string `json:"model"`
	Number string `json:"number"`
}

// MailResponse describes a mail item.
type MailResponse struct {
	ID                 int64            `json:"id"`
	PersonFrom         string           `json:"person_from"`
	PersonTo           string           `json:"person_to"`
	AddressTo          string           `json:"address_to"`
	State              domain.MailState `json:"state"`
	BranchStockAddress *string          `json:"branch_stock_address"`
	SourceBranch       *BranchRef       `json:"source_branch"`
	DestinationBranch  *BranchRef       `json:"destination_branch"`
	CurrentBranch      *BranchRef       `json:"current_branch"`
	CurrentCar         *CarRef          `json:"current_car"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// NewMailResponse converts a domain item.
func NewMailResponse(m domain.MailItem) MailResponse {
	return MailResponse{
		ID:                 m.ID,
		PersonFrom:         m.PersonFrom,
		PersonTo:           m.PersonTo,
		AddressTo:          m.AddressTo,
		State:              m.State,
		BranchStockAddress: m.BranchStockAddress,
		SourceBranch:       branchRef(m.SourceBranch),
		DestinationBranch:  branchRef(m.DestinationBranch),
		CurrentBranch:      branchRef(m.CurrentBranch),
		CurrentCar:         carRef(m.CurrentCar),
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func branchRef(b *domain.Branch) *BranchRef {
	if b == nil {
		return nil
	}
	return &BranchRef{ID: b.ID, Name: b.Name}
}

func carRef(c *domain.Car) *CarRef {
	if c == nil {
		return nil
	}
	return &CarRef{ID: c.ID, Model: c.Model, Number: c.Number}
}

// ActivityResponse describes an activity log entry.
type ActivityResponse struct {
	ID       int64               `json:"id"`
	Type     domain.ActivityType `json:"type"`
	Message  string              `json:"message"`
	Time     time.Time           `json:"time"`
	UserName string              `json:"user_name"`
	MailID   int64               `json:"mail_id"`
	BranchID *int64              `json:"branch_id"`
	CarID    *int64              `json:"car_id"`
}

// NewActivityResponse converts a domain entry.
func NewActivityResponse(e domain.ActivityEntry) ActivityResponse {
	return ActivityResponse{
		ID:       e.ID,
		Type:     e.Type,
		Message:  e.Message,
		Time:     e.Time,
		UserName: e.UserName,
		MailID:   e.MailID,
		BranchID: e.BranchID,
		CarID:    e.CarID,
	}
}
