package entity

// Subscriber is a chat that receives link notifications. chat_id is the
// primary key; subscribing twice is a no-op.
type Subscriber struct {
	ChatId   int64  `json:"chat_id"`
	JoinedAt string `json:"joined_at"`
}
