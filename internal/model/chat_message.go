package model

import (
	"time"

	"github.com/trekware/fleetops/internal/tenantscope"
)

// Chat message directions.
const (
	MessageInbound  = "inbound"
	MessageOutbound = "outbound"
)

// ChatMessage represents a WhatsApp message ingested from the messaging
// webhook, attached to the matching contact. Visibility follows the
// contact's current tenant.
type ChatMessage struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ContactID  uint      `json:"contact_id" gorm:"index;not null"`
	Direction  string    `json:"direction" gorm:"type:varchar(10);not null;default:'inbound'"`
	Body       string    `json:"body" gorm:"type:text"`
	ExternalID string    `json:"external_id" gorm:"type:varchar(100);index"`
	SentAt     time.Time `json:"sent_at"`
	CreatedAt  time.Time `json:"created_at"`

	Contact Contact `json:"contact,omitempty" gorm:"foreignKey:ContactID"`
}

func (ChatMessage) ScopeKind() tenantscope.EntityKind { return tenantscope.KindChatMessage }

func (m *ChatMessage) OwnerEntityID() uint { return m.ContactID }
