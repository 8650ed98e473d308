package models

import id "safedesk/pkg/domain"

// Proof is the caller's capability for one case: either knowledge of the
// case PIN or an authenticated reviewer session. The zero value proves nothing.
type Proof struct {
	PIN      string
	Reviewer *ReviewerProof
}

// ReviewerProof is valid only for cases owned by OrganizationID.
type ReviewerProof struct {
	ID             id.ReviewerID
	OrganizationID id.OrganizationID
}

func PINProof(pin string) Proof {
	return Proof{PIN: pin}
}

func SessionProof(reviewerID id.ReviewerID, orgID id.OrganizationID) Proof {
	return Proof{Reviewer: &ReviewerProof{ID: reviewerID, OrganizationID: orgID}}
}

func (p Proof) HasPIN() bool { return p.PIN != "" }

func (p Proof) IsReviewer() bool {
	return p.Reviewer != nil && !p.Reviewer.ID.IsNil()
}
