// Package core owns the business logic of the tracker: redirect
// resolution with click/referral attribution, track-link composition,
// subscriber fan-out and scheduled broadcast dispatch. It is constructed
// once at startup and shared by the HTTP handlers, the Telegram bot and
// the dispatcher; no package-level state.
package core

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"linktrack/entity"
	"linktrack/internal/database"
	"linktrack/lib/clock"
	"linktrack/lib/sl"
	"linktrack/lib/validate"

	"github.com/google/uuid"
)

var (
	ErrInvalidRequest    = errors.New("invalid link identifier")
	ErrNotFound          = errors.New("link not found")
	ErrMalformedSchedule = errors.New("malformed schedule time")
)

const (
	utmSource       = "telegram_bot"
	defaultCampaign = "bot_share"
	trackPath       = "/track"
)

// Store defines the persistence operations the core depends on.
// Implemented by internal/database.SQLite.
type Store interface {
	CreateLink(url string, ownerId int64, title string) (int64, error)
	GetLink(id int64) (*entity.Link, error)
	LinksByOwner(ownerId int64) ([]*entity.Link, error)
	UpdateLinkTitle(id int64, title string) error
	RecordClick(linkId int64, referrerId *int64, refCode, sourceIp string) (int64, error)
	RecordReferral(referrerId, linkId int64) (int64, error)
	CountClicks(linkId int64) (int, error)
	CountReferrals(referrerId int64) (int, error)
	Subscribe(chatId int64) error
	Unsubscribe(chatId int64) error
	Subscribers() ([]int64, error)
	CreateJob(job *entity.ScheduledJob) (int64, error)
	DueJobs(now string) ([]*entity.ScheduledJob, error)
	DeleteJob(id int64) error
}

// Sender delivers one personalized notification. Implemented by bot.TgBot.
type Sender interface {
	Send(n *entity.Notification) error
}

type Core struct {
	store   Store
	sender  Sender
	baseUrl string
	log     *slog.Logger
}

func New(store Store, baseUrl string, log *slog.Logger) *Core {
	if store == nil {
		panic("store is nil")
	}
	return &Core{
		store:   store,
		baseUrl: strings.TrimRight(baseUrl, "/"),
		log:     log.With(sl.Module("core")),
	}
}

func (c *Core) SetSender(sender Sender) {
	c.sender = sender
}

// Resolve validates a raw /track request, records attribution and returns
// the destination URL with tracking parameters merged in.
//
// Ordering matters: no click is recorded for a malformed id or an unknown
// link, and a referral is written only after its click succeeded. Recording
// failures degrade to redirect-without-attribution; the caller never sees
// them.
func (c *Core) Resolve(rawLinkId, rawReferrer, campaign, sourceIp string) (string, error) {
	linkId, err := strconv.ParseInt(strings.TrimSpace(rawLinkId), 10, 64)
	if err != nil || linkId < 0 {
		return "", ErrInvalidRequest
	}

	link, err := c.store.GetLink(linkId)
	if errors.Is(err, database.ErrLinkNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("link lookup: %w", err)
	}

	var referrerId *int64
	if rawReferrer != "" {
		if id, perr := strconv.ParseInt(rawReferrer, 10, 64); perr == nil {
			referrerId = &id
		}
	}

	if _, rerr := c.store.RecordClick(linkId, referrerId, campaign, sourceIp); rerr != nil {
		c.log.Error("recording click",
			slog.Int64("link_id", linkId),
			sl.Err(rerr),
		)
	} else if referrerId != nil {
		if _, rerr := c.store.RecordReferral(*referrerId, linkId); rerr != nil {
			c.log.Error("recording referral",
				slog.Int64("link_id", linkId),
				slog.Int64("referrer_id", *referrerId),
				sl.Err(rerr),
			)
		}
	}

	return withTracking(link.DestinationUrl, campaign), nil
}

// withTracking merges utm_source and utm_campaign into the destination
// query, overwriting prior values of those two keys and preserving the
// rest. A destination that no longer parses is returned untouched.
func withTracking(dest, campaign string) string {
	u, err := url.Parse(dest)
	if err != nil {
		return dest
	}
	if campaign == "" {
		campaign = defaultCampaign
	}
	q := u.Query()
	q.Set("utm_source", utmSource)
	q.Set("utm_campaign", campaign)
	u.RawQuery = q.Encode()
	return u.String()
}

// TrackURL composes the absolute redirect URL for a link, optionally
// carrying the referrer's chat id and a campaign code.
func (c *Core) TrackURL(linkId int64, referrerId *int64, campaign string) string {
	params := url.Values{}
	params.Set("id", strconv.FormatInt(linkId, 10))
	if referrerId != nil {
		params.Set("ref", strconv.FormatInt(*referrerId, 10))
	}
	if campaign != "" {
		params.Set("campaign", campaign)
	}
	return c.baseUrl + trackPath + "?" + params.Encode()
}

// ShareURL wraps a track link into a Telegram share deep link.
func ShareURL(trackUrl, text string) string {
	params := url.Values{}
	params.Set("url", trackUrl)
	params.Set("text", text)
	return "https://t.me/share/url?" + params.Encode()
}

// ---- links ----

func (c *Core) CreateLink(rawUrl string, ownerId int64, title string) (*entity.Link, error) {
	link := &entity.Link{
		DestinationUrl: strings.TrimSpace(rawUrl),
		OwnerId:        ownerId,
		Title:          title,
	}
	if err := validate.Struct(link); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err)
	}
	id, err := c.store.CreateLink(link.DestinationUrl, ownerId, title)
	if err != nil {
		return nil, fmt.Errorf("create link: %w", err)
	}
	link.Id = id
	link.CreatedAt = clock.Now()
	c.log.Info("link created",
		slog.Int64("id", id),
		slog.Int64("owner_id", ownerId),
	)
	return link, nil
}

func (c *Core) Link(id int64) (*entity.Link, error) {
	link, err := c.store.GetLink(id)
	if errors.Is(err, database.ErrLinkNotFound) {
		return nil, ErrNotFound
	}
	return link, err
}

func (c *Core) LinksByOwner(ownerId int64) ([]*entity.Link, error) {
	return c.store.LinksByOwner(ownerId)
}

func (c *Core) UpdateLinkTitle(id int64, title string) error {
	err := c.store.UpdateLinkTitle(id, title)
	if errors.Is(err, database.ErrLinkNotFound) {
		return ErrNotFound
	}
	return err
}

func (c *Core) ClickCount(linkId int64) (int, error) {
	return c.store.CountClicks(linkId)
}

func (c *Core) ReferralCount(referrerId int64) (int, error) {
	return c.store.CountReferrals(referrerId)
}

// ---- subscribers ----

func (c *Core) Subscribe(chatId int64) error {
	return c.store.Subscribe(chatId)
}

func (c *Core) Unsubscribe(chatId int64) error {
	return c.store.Unsubscribe(chatId)
}

// ---- fan-out ----

// Broadcast sends a personalized notification for linkId to every current
// subscriber. Each recipient gets a track link carrying their own chat id
// as referrer. Per-recipient failures are recorded in the report and never
// abort the remaining sends. An empty campaign gets a generated short code
// so clicks from this broadcast stay attributable.
func (c *Core) Broadcast(linkId int64, text, campaign string) (*entity.SendReport, error) {
	if c.sender == nil {
		return nil, fmt.Errorf("sender not connected")
	}
	if _, err := c.Link(linkId); err != nil {
		return nil, err
	}
	if campaign == "" {
		campaign = "brd-" + uuid.New().String()[:8]
	}

	subscribers, err := c.store.Subscribers()
	if err != nil {
		return nil, fmt.Errorf("subscriber list: %w", err)
	}

	report := &entity.SendReport{}
	for _, chatId := range subscribers {
		trackUrl := c.TrackURL(linkId, &chatId, campaign)
		sendErr := c.sender.Send(&entity.Notification{
			ChatId:   chatId,
			Text:     text,
			TrackUrl: trackUrl,
			ShareUrl: ShareURL(trackUrl, text),
		})
		if sendErr != nil {
			c.log.Warn("notification send failed",
				slog.Int64("chat_id", chatId),
				slog.Int64("link_id", linkId),
				sl.Err(sendErr),
			)
		}
		report.Add(chatId, sendErr)
	}

	c.log.Info("broadcast finished",
		slog.Int64("link_id", linkId),
		slog.String("campaign", campaign),
		slog.Int("sent", report.Sent),
		slog.Int("failed", report.Failed),
	)
	return report, nil
}

// ---- scheduled jobs ----

func (c *Core) ScheduleBroadcast(linkId int64, rawTime, text string, createdBy int64) (*entity.ScheduledJob, error) {
	at, err := clock.ParseSchedule(rawTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedSchedule, rawTime)
	}

	job := &entity.ScheduledJob{
		LinkId:      linkId,
		ScheduledAt: clock.Format(at),
		MessageText: text,
		CreatedBy:   createdBy,
	}
	id, err := c.store.CreateJob(job)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	job.Id = id
	c.log.Info("broadcast scheduled",
		slog.Int64("job_id", id),
		slog.Int64("link_id", linkId),
		slog.String("at", job.ScheduledAt),
	)
	return job, nil
}

// DispatchDue runs one dispatcher tick: every job scheduled at or before
// now is broadcast to the current subscriber set and then deleted, even
// when every send failed. At-most-once by design; a job is never retried.
func (c *Core) DispatchDue(now time.Time) (int, error) {
	jobs, err := c.store.DueJobs(clock.Format(now))
	if err != nil {
		return 0, fmt.Errorf("due jobs: %w", err)
	}

	for _, job := range jobs {
		report, berr := c.Broadcast(job.LinkId, job.MessageText, "")
		if berr != nil {
			c.log.Error("dispatching job",
				slog.Int64("job_id", job.Id),
				slog.Int64("link_id", job.LinkId),
				sl.Err(berr),
			)
		} else {
			c.log.Info("job dispatched",
				slog.Int64("job_id", job.Id),
				slog.Int("sent", report.Sent),
				slog.Int("failed", report.Failed),
			)
		}
		if derr := c.store.DeleteJob(job.Id); derr != nil {
			c.log.Error("deleting job", slog.Int64("job_id", job.Id), sl.Err(derr))
		}
	}
	return len(jobs), nil
}
