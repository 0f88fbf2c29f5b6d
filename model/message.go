package model

import (
	"strconv"

	"gorm.io/gorm"
)

type Message struct {
	gorm.Model
	SenderID      uint    `gorm:"not null;index" json:"sender_id"`
	ReceiverID    uint    `gorm:"not null;index" json:"receiver_id"`
	Sender        User    `gorm:"foreignKey:SenderID" json:"-"`
	Receiver      User    `gorm:"foreignKey:ReceiverID" json:"-"`
	Text          string  `gorm:"not null;default:''" json:"text"`
	Image         string  `gorm:"not null;default:''" json:"image"`
	CorrelationID *string `gorm:"uniqueIndex" json:"correlation_id"`
}

// Image is a stored upload served by the database media store.
type Image struct {
	gorm.Model
	ContentType string `gorm:"not null" json:"content_type"`
	Data        string `gorm:"not null" json:"data"`
}

// Record converts a stored message into its wire shape.
func (m *Message) Record() MessageRecord {
	record := MessageRecord{
		ID:         FormatID(m.ID),
		SenderID:   FormatID(m.SenderID),
		ReceiverID: FormatID(m.ReceiverID),
		Text:       m.Text,
		ImageURL:   m.Image,
		CreatedAt:  m.CreatedAt,
	}
	if m.CorrelationID != nil {
		record.CorrelationID = *m.CorrelationID
	}
	return record
}

func FormatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func ParseID(id string) (uint, error) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(n), nil
}
