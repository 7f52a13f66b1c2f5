package entity

import (
	"net/http"

	"linktrack/lib/validate"
)

// Link is a tracked destination URL. The destination is immutable after
// creation; only the title may change. Click, Referral and ScheduledJob
// reference links by id without enforced integrity, so a consumer must
// handle a missing link as a regular not-found case.
type Link struct {
	Id             int64  `json:"id"`
	DestinationUrl string `json:"destination_url" validate:"required,url"`
	OwnerId        int64  `json:"owner_id"`
	Title          string `json:"title"`
	CreatedAt      string `json:"created_at"`
}

// CreateLinkRequest is the payload of POST /v1/link.
type CreateLinkRequest struct {
	Url   string `json:"url" validate:"required,url"`
	Title string `json:"title" validate:"omitempty,max=200"`
}

func (r *CreateLinkRequest) Bind(_ *http.Request) error {
	return validate.Struct(r)
}

// LinkTitleRequest is the payload of PUT /v1/link/{id}/title.
type LinkTitleRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

func (r *LinkTitleRequest) Bind(_ *http.Request) error {
	return validate.Struct(r)
}
