package entity

// ScheduledJob is a pending broadcast created by the admin /schedule
// command. The dispatcher deletes the row after one send attempt,
// regardless of per-recipient outcome: at-most-once, never retried.
type ScheduledJob struct {
	Id          int64  `json:"id"`
	LinkId      int64  `json:"link_id"`
	ScheduledAt string `json:"scheduled_at"`
	MessageText string `json:"message_text"`
	CreatedBy   int64  `json:"created_by"`
	CreatedAt   string `json:"created_at"`
}
