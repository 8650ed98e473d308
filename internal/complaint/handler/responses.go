package handler

import (
	"safedesk/internal/complaint/models"
	"safedesk/internal/complaint/service"
)

// SubmitResponse carries the only copy of the plaintext PIN.
type SubmitResponse struct {
	CaseID      string `json:"caseId"`
	PIN         string `json:"pin"`
	ComplaintID string `json:"complaintId"`
}

func FromSubmitResult(res *service.SubmitResult) SubmitResponse {
	return SubmitResponse{
		CaseID:      res.CaseNumber.String(),
		PIN:         res.PIN,
		ComplaintID: res.ComplaintID.String(),
	}
}

type VerifyResponse struct {
	Complaint   *models.Complaint `json:"complaint"`
	ComplaintID string            `json:"complaintId"`
}
