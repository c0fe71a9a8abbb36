package models

import "fmt"

// Message is a raw natural-language note recorded on a given date. Tasks may
// later be derived from it by the extraction pipeline.
//
// ID is zero until the message is persisted; the repository assigns it
// exactly once on insert.
type Message struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	AddedAt Date   `json:"added_at" gorm:"type:text"`
	Body    string `json:"message" gorm:"column:message;type:text"`
	Tasks   []Task `json:"-" gorm:"foreignKey:FromMessage"`
}

// TableName specifies the table name for the Message model.
func (Message) TableName() string {
	return "messages"
}

// NewMessage builds a new, unpersisted message dated today. Empty bodies are
// rejected at this boundary.
func NewMessage(text string) (*Message, error) {
	if text == "" {
		return nil, newValidationError("message", "body must not be empty")
	}
	return &Message{
		AddedAt: Today(),
		Body:    text,
	}, nil
}

// String renders the message for logs and mail digests.
func (m *Message) String() string {
	return fmt.Sprintf("Message %d (%s):\n%s", m.ID, m.AddedAt, m.Body)
}
