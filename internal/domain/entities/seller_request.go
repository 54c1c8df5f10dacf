package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// SellerType represents the kind of seller applying
type SellerType string

const (
	SellerTypeIndividual SellerType = "individual"
	SellerTypeCompany    SellerType = "company"
)

// SellerRequestStatus represents the review state of a seller request
type SellerRequestStatus string

const (
	SellerRequestPending  SellerRequestStatus = "pending"
	SellerRequestApproved SellerRequestStatus = "approved"
	SellerRequestRejected SellerRequestStatus = "rejected"
)

// ActiveSellerRequestStatuses are the statuses that block a new submission.
var ActiveSellerRequestStatuses = []SellerRequestStatus{SellerRequestPending, SellerRequestApproved}

// IsActive reports whether a request in this status blocks resubmission.
func (s SellerRequestStatus) IsActive() bool {
	return s == SellerRequestPending || s == SellerRequestApproved
}

var sellerRequestTransitions = map[SellerRequestStatus][]SellerRequestStatus{
	SellerRequestPending: {SellerRequestApproved, SellerRequestRejected},
}

// CanTransition reports whether a seller request may move from one status to another.
func CanTransition(from, to SellerRequestStatus) bool {
	for _, next := range sellerRequestTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type PersonalInfo struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Address  string `json:"address" validate:"required"`
	TaxID    string `json:"taxId,omitempty"`
}

type BusinessInfo struct {
	ShopName    string `json:"shopName,omitempty"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
}

// Compliance holds the acknowledgements a seller must give before approval.
type Compliance struct {
	TermsAccepted        bool `json:"termsAccepted" validate:"eq=true"`
	PrivacyAccepted      bool `json:"privacyAccepted" validate:"eq=true"`
	SellerPolicyAccepted bool `json:"sellerPolicyAccepted" validate:"eq=true"`
}

// Complete reports whether every acknowledgement was given.
func (c Compliance) Complete() bool {
	return c.TermsAccepted && c.PrivacyAccepted && c.SellerPolicyAccepted
}

type Contract struct {
	Signed    bool   `json:"signed"`
	Reference string `json:"reference,omitempty"`
}

type VideoVerification struct {
	Completed bool   `json:"completed"`
	Reference string `json:"reference,omitempty"`
}

// Documents maps a document kind (e.g. "idCard") to a stored file reference.
type Documents map[string]string

// SellerRequest represents one onboarding attempt. Rows are never deleted.
type SellerRequest struct {
	ID                uuid.UUID           `json:"id"`
	UserID            uuid.UUID           `json:"userId"`
	Type              SellerType          `json:"type"`
	Status            SellerRequestStatus `json:"status"`
	PersonalInfo      PersonalInfo        `json:"personalInfo"`
	BusinessInfo      BusinessInfo        `json:"businessInfo"`
	Documents         Documents           `json:"documents"`
	Compliance        Compliance          `json:"compliance"`
	Contract          Contract            `json:"contract"`
	VideoVerification VideoVerification   `json:"videoVerification"`
	RejectionReason   null.String         `json:"rejectionReason,omitempty"`
	ReviewedBy        uuid.NullUUID       `json:"reviewedBy,omitempty"`
	ReviewedAt        null.Time           `json:"reviewedAt,omitempty"`
	VerifiedAt        null.Time           `json:"verifiedAt,omitempty"`
	CreatedAt         time.Time           `json:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`
}

// SellerRequestInput represents the seller registration payload
type SellerRequestInput struct {
	Type              SellerType        `json:"type" validate:"required,oneof=individual company"`
	PersonalInfo      *PersonalInfo     `json:"personalInfo" validate:"required"`
	BusinessInfo      BusinessInfo      `json:"businessInfo"`
	Compliance        *Compliance       `json:"compliance" validate:"required"`
	Contract          Contract          `json:"contract"`
	VideoVerification VideoVerification `json:"videoVerification"`
	Documents         Documents         `json:"documents,omitempty"`
}

// SellerValidationStatus is returned to a user checking on their application.
type SellerValidationStatus struct {
	HasRequest      bool                `json:"hasRequest"`
	RequestID       uuid.NullUUID       `json:"requestId,omitempty"`
	Status          SellerRequestStatus `json:"status,omitempty"`
	RejectionReason null.String         `json:"rejectionReason,omitempty"`
	SubmittedAt     null.Time           `json:"submittedAt,omitempty"`
	ReviewedAt      null.Time           `json:"reviewedAt,omitempty"`
	CanResubmit     bool                `json:"canResubmit"`
}

// RejectSellerRequestInput carries the admin's rejection reason.
type RejectSellerRequestInput struct {
	Reason string `json:"reason"`
}

// ApprovalResult is returned by a successful approval.
type ApprovalResult struct {
	Profile *SellerProfile `json:"profile"`
	Request *SellerRequest `json:"request"`
}
