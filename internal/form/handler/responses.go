package handler

import (
	"time"

	"shipform/internal/address"
	"shipform/internal/directory"
	"shipform/internal/form"
	"shipform/internal/form/store/receipt"
)

type RegionResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type DistrictResponse struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type NoticeResponse struct {
	Kind      string     `json:"kind"`
	Message   string     `json:"message"`
	RaisedAt  time.Time  `json:"raised_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type SubmissionResponse struct {
	Payload     address.Payload `json:"payload"`
	Tier        string          `json:"tier"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

// SessionResponse is the JSON view of a form session.
type SessionResponse struct {
	ID             string              `json:"id"`
	Phase          string              `json:"phase"`
	RegionsLoaded  bool                `json:"regions_loaded"`
	Regions        []RegionResponse    `json:"regions"`
	Region         *RegionResponse     `json:"region"`
	DistrictStatus string              `json:"district_status"`
	Districts      []DistrictResponse  `json:"districts"`
	District       *DistrictResponse   `json:"district"`
	Address        address.Fields      `json:"address"`
	Tier           string              `json:"tier"`
	Busy           bool                `json:"busy"`
	Error          *NoticeResponse     `json:"error"`
	LastSubmission *SubmissionResponse `json:"last_submission,omitempty"`
}

type TierResponse struct {
	Tier     string `json:"tier"`
	Label    string `json:"label"`
	Price    string `json:"price"`
	Currency string `json:"currency"`
	LeadTime string `json:"lead_time"`
}

type ReceiptResponse struct {
	Payload     address.Payload `json:"payload"`
	Tier        string          `json:"tier"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

func toRegion(r directory.Region) RegionResponse {
	return RegionResponse{ID: r.ID.String(), Name: r.Name}
}

func toDistrict(d directory.District) DistrictResponse {
	return DistrictResponse{Code: d.Code, Name: d.Name}
}

// FromSnapshot converts a session snapshot to its response.
func FromSnapshot(snap form.Snapshot) *SessionResponse {
	resp := &SessionResponse{
		ID:             snap.ID,
		Phase:          string(snap.Phase),
		RegionsLoaded:  snap.RegionsLoaded,
		Regions:        make([]RegionResponse, 0, len(snap.Regions)),
		DistrictStatus: string(snap.DistrictStatus),
		Districts:      make([]DistrictResponse, 0, len(snap.Districts)),
		Address:        snap.Fields,
		Tier:           string(snap.Tier),
		Busy:           snap.Busy,
	}
	for _, r := range snap.Regions {
		resp.Regions = append(resp.Regions, toRegion(r))
	}
	for _, d := range snap.Districts {
		resp.Districts = append(resp.Districts, toDistrict(d))
	}
	if snap.Region != nil {
		r := toRegion(*snap.Region)
		resp.Region = &r
	}
	if snap.District != nil {
		d := toDistrict(*snap.District)
		resp.District = &d
	}
	if snap.Error != nil {
		n := &NoticeResponse{
			Kind:     string(snap.Error.Kind),
			Message:  snap.Error.Message,
			RaisedAt: snap.Error.RaisedAt,
		}
		if !snap.ErrorExpiresAt.IsZero() {
			at := snap.ErrorExpiresAt
			n.ExpiresAt = &at
		}
		resp.Error = n
	}
	if snap.LastAck != nil {
		resp.LastSubmission = &SubmissionResponse{
			Payload:     snap.LastAck.Payload,
			Tier:        string(snap.LastAck.Tier),
			SubmittedAt: snap.LastAck.SubmittedAt,
		}
	}
	return resp
}

// FromTiers converts the tier catalogue to its response.
func FromTiers(tiers []address.TierInfo) []TierResponse {
	out := make([]TierResponse, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, TierResponse{
			Tier:     string(t.Tier),
			Label:    t.Label,
			Price:    t.PriceText(),
			Currency: t.Currency,
			LeadTime: t.LeadTime,
		})
	}
	return out
}

// FromReceipts converts stored receipts to their response.
func FromReceipts(list []receipt.Receipt) []ReceiptResponse {
	out := make([]ReceiptResponse, 0, len(list))
	for _, r := range list {
		out = append(out, ReceiptResponse{
			Payload:     r.Payload,
			Tier:        string(r.Tier),
			SubmittedAt: r.SubmittedAt,
		})
	}
	return out
}
