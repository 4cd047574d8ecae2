package leads

import (
	"strings"
	"time"
)

// Fixed values assigned to every stored lead.
const (
	StatusReceived = "received"
	PriorityNormal = "normal"
	DefaultSource  = "webhook"
)

// UTMKeys lists the attribution fields accepted on the payload.
var UTMKeys = []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content"}

// IncomingRequest is the transport-independent view of one webhook call.
type IncomingRequest struct {
	Body      []byte
	BodyErr   error
	Origin    string
	APIKey    string
	Signature string
	Timestamp string
	ClientIP  string
	UserAgent string
}

// LeadInput is a payload that passed validation.
type LeadInput struct {
	Name      string
	Email     string
	Phone     string
	City      string
	Street    string
	Message   string
	Notes     string
	Source    string
	UTM       map[string]string
	Timestamp *int64
}

// StoredLead is the projection handed to the store.
type StoredLead struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Email     string         `json:"email,omitempty"`
	Phone     string         `json:"phone,omitempty"`
	City      string         `json:"city,omitempty"`
	Street    string         `json:"street,omitempty"`
	Notes     string         `json:"notes,omitempty"`
	Status    string         `json:"status"`
	Priority  string         `json:"priority"`
	Source    string         `json:"source"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewStoredLead builds the persisted projection of in. receivedAt is the server
// receipt time and is also used as client_timestamp when the payload has none.
func NewStoredLead(in LeadInput, req IncomingRequest, receivedAt time.Time) *StoredLead {
	receivedAt = receivedAt.UTC()

	notes := in.Notes
	if notes == "" {
		notes = in.Message
	}

	source := in.Source
	if source == "" {
		source = strings.TrimSpace(req.Origin)
	}
	if source == "" {
		source = DefaultSource
	}

	clientTS := receivedAt.UnixMilli()
	if in.Timestamp != nil {
		clientTS = *in.Timestamp
	}

	meta := make(map[string]any, len(UTMKeys)+4)
	for _, key := range UTMKeys {
		meta[key] = in.UTM[key]
	}
	meta["ip"] = req.ClientIP
	meta["user_agent"] = req.UserAgent
	meta["client_timestamp"] = clientTS
	meta["received_at"] = receivedAt.Format(time.RFC3339Nano)

	return &StoredLead{
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		City:      in.City,
		Street:    in.Street,
		Notes:     notes,
		Status:    StatusReceived,
		Priority:  PriorityNormal,
		Source:    source,
		Metadata:  meta,
		CreatedAt: receivedAt,
	}
}
