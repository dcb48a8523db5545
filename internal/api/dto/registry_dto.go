package dto

import "github.com/postroute/postal-service/internal/domain"

// BranchRequest payload for creating or updating a branch.
type BranchRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// BranchResponse describes a branch.
type BranchResponse struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

func NewBranchResponse(b domain.Branch) BranchResponse {
	return BranchResponse{ID: b.ID, Name: b.Name, Address: b.Address}
}

// CarRequest payload for creating or updating a car.
type CarRequest struct {
	Model  string `json:"model"`
	Number string `json:"number"`
}

// CarResponse describes a car.
type CarResponse struct {
	ID     int64  `json:"id"`
	Model  string `json:"model"`
	Number string `json:"number"`
}

func NewCarResponse(c domain.Car) CarResponse {
	return CarResponse{ID: c.ID, Model: c.Model, Number: c.Number}
}
