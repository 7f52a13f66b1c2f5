package entity

// Notification is one personalized message handed to the outbound sender
// during a fan-out. TrackUrl carries the recipient's chat id as the ref
// parameter so a later click credits them as referrer.
type Notification struct {
	ChatId   int64
	Text     string
	TrackUrl string
	ShareUrl string
}

// SendResult is the outcome of one send attempt inside a fan-out.
type SendResult struct {
	ChatId int64  `json:"chat_id"`
	Error  string `json:"error,omitempty"`
}

func (r SendResult) Ok() bool {
	return r.Error == ""
}

// SendReport aggregates a fan-out: one result per recipient plus counts.
// A failed recipient never aborts the remaining ones, so Sent+Failed always
// equals len(Results).
type SendReport struct {
	Sent    int          `json:"sent"`
	Failed  int          `json:"failed"`
	Results []SendResult `json:"results,omitempty"`
}

func (r *SendReport) Add(chatId int64, err error) {
	res := SendResult{ChatId: chatId}
	if err != nil {
		res.Error = err.Error()
		r.Failed++
	} else {
		r.Sent++
	}
	r.Results = append(r.Results, res)
}
