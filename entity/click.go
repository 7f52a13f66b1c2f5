package entity

// Click is one redirect-resolution event. Rows are append-only; nothing
// ever updates or deletes them. ReferrerId is nil when the request carried
// no usable referrer.
type Click struct {
	Id         int64  `json:"id"`
	LinkId     int64  `json:"link_id"`
	ClickedAt  string `json:"clicked_at"`
	ReferrerId *int64 `json:"referrer_id,omitempty"`
	RefCode    string `json:"ref_code,omitempty"`
	SourceIp   string `json:"source_ip,omitempty"`
}
