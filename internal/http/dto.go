package http

import (
	"time"

	"attendance-tracker/internal/domain"
	"attendance-tracker/internal/service"
)

type UserResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

func userToResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

type RecordResponse struct {
	ID        string  `json:"id"`
	Kind      string  `json:"kind"`
	OwnerID   string  `json:"owner_id"`
	Owner     string  `json:"owner"`
	Start     string  `json:"start,omitempty"`
	End       string  `json:"end,omitempty"`
	Date      string  `json:"date,omitempty"`
	Hours     float64 `json:"hours"`
	Shift     string  `json:"shift,omitempty"`
	Room      string  `json:"room,omitempty"`
	Verified  bool    `json:"verified"`
	CreatedAt string  `json:"created_at"`
}

func recordToResponse(rec domain.Record) RecordResponse {
	owner := rec.RecordOwner()
	resp := RecordResponse{
		ID:       rec.RecordID(),
		Kind:     string(rec.Kind()),
		OwnerID:  owner.ID,
		Owner:    owner.Name,
		Hours:    rec.RecordHours(),
		Verified: rec.IsVerified(),
	}
	switch r := rec.(type) {
	case *domain.OvertimeRecord:
		resp.Start = r.Window.Start.Format(domain.DateTimeLayout)
		resp.End = r.Window.End.Format(domain.DateTimeLayout)
		resp.Shift, resp.Room = r.Shift, r.Room
		resp.CreatedAt = r.CreatedAt.Format(time.RFC3339)
	case *domain.CompensationRecord:
		resp.Start = r.Window.Start.Format(domain.DateTimeLayout)
		resp.End = r.Window.End.Format(domain.DateTimeLayout)
		resp.CreatedAt = r.CreatedAt.Format(time.RFC3339)
	case *domain.WriteOffRecord:
		resp.Date = r.Date.Format(domain.DateLayout)
		resp.CreatedAt = r.CreatedAt.Format(time.RFC3339)
	}
	return resp
}

func recordsToResponse(recs []domain.Record) []RecordResponse {
	out := make([]RecordResponse, len(recs))
	for i, rec := range recs {
		out[i] = recordToResponse(rec)
	}
	return out
}

type BatchFailureResponse struct {
	Recipient string `json:"recipient"`
	Reason    string `json:"reason"`
}

type BatchResponse struct {
	Kind      string                 `json:"kind"`
	Requested int                    `json:"requested"`
	Inserted  int                    `json:"inserted"`
	Failed    []BatchFailureResponse `json:"failed"`
	Summary   string                 `json:"summary"`
}

func batchToResponse(res *service.BatchResult) BatchResponse {
	resp := BatchResponse{
		Kind:      string(res.Kind),
		Requested: res.Requested,
		Inserted:  res.Inserted,
		Failed:    make([]BatchFailureResponse, len(res.Failed)),
		Summary:   res.Summary(),
	}
	for i, f := range res.Failed {
		resp.Failed[i] = BatchFailureResponse{Recipient: f.Recipient, Reason: f.Reason}
	}
	return resp
}
