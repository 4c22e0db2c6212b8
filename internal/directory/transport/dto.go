// Package transport contains request/response DTOs for the directory module.
package transport

import (
	"time"

	"fieldops_backend/internal/directory/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ── Requests ──────────────────────────────────────────────────────────────────

type CreateBusinessRequest struct {
	Name string `json:"name" binding:"required,min=1,max=200"`
}

type UpdateBusinessRequest struct {
	Name             *string    `json:"name" binding:"omitempty,min=1,max=200"`
	DefaultContactID *uuid.UUID `json:"defaultContactId"`
}

type CreateContactRequest struct {
	BusinessID    *uuid.UUID       `json:"businessId"`
	Name          string           `json:"name" binding:"required,min=1,max=200"`
	Email         *string          `json:"email" binding:"omitempty,email"`
	Phone         *string          `json:"phone" binding:"omitempty,max=40"`
	TaxMultiplier *decimal.Decimal `json:"taxMultiplier"`
}

type UpdateContactRequest struct {
	BusinessID    *uuid.UUID       `json:"businessId"`
	Name          *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Email         *string          `json:"email" binding:"omitempty,email"`
	Phone         *string          `json:"phone" binding:"omitempty,max=40"`
	TaxMultiplier *decimal.Decimal `json:"taxMultiplier"`
}

type DeleteContactRequest struct {
	NewDefaultContactID *uuid.UUID `json:"newDefaultContactId"`
}

type CreateDocumentRequest struct {
	ContactID *uuid.UUID `json:"contactId"`
	Number    string     `json:"number" binding:"required,min=1,max=40"`
}

type ExecuteDeletionRequest struct {
	Choices []domain.Choice `json:"choices" binding:"required"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

type BusinessResponse struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	DefaultContactID *uuid.UUID `json:"defaultContactId,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

type ContactResponse struct {
	ID            uuid.UUID        `json:"id"`
	BusinessID    *uuid.UUID       `json:"businessId,omitempty"`
	Name          string           `json:"name"`
	Email         *string          `json:"email,omitempty"`
	Phone         *string          `json:"phone,omitempty"`
	TaxMultiplier *decimal.Decimal `json:"taxMultiplier,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

type DocumentResponse struct {
	ID        uuid.UUID  `json:"id"`
	ContactID *uuid.UUID `json:"contactId,omitempty"`
	Number    string     `json:"number"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}
