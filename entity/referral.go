package entity

// Referral credits a referrer for one click on a link. Written in the same
// resolution that recorded the click, never on its own. Repeated clicks by
// the same referrer create repeated rows; counting rewards per click is the
// observed behavior and is kept.
type Referral struct {
	Id         int64  `json:"id"`
	ReferrerId int64  `json:"referrer_id"`
	LinkId     int64  `json:"link_id"`
	CreatedAt  string `json:"created_at"`
}
