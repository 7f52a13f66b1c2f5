package bot

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"linktrack/entity"
	"linktrack/impl/core"
	"linktrack/lib/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCore records fan-out and scheduling calls so tests can assert which
// commands actually reached the service.
type stubCore struct {
	broadcasts []int64
	scheduled  []entity.ScheduledJob
}

func (s *stubCore) CreateLink(url string, ownerId int64, title string) (*entity.Link, error) {
	return &entity.Link{Id: 1, DestinationUrl: url, OwnerId: ownerId, Title: title}, nil
}
func (s *stubCore) LinksByOwner(int64) ([]*entity.Link, error) { return nil, nil }
func (s *stubCore) ClickCount(int64) (int, error)              { return 0, nil }
func (s *stubCore) ReferralCount(int64) (int, error)           { return 0, nil }
func (s *stubCore) Subscribe(int64) error                      { return nil }
func (s *stubCore) Unsubscribe(int64) error                    { return nil }

func (s *stubCore) TrackURL(linkId int64, _ *int64, _ string) string {
	return fmt.Sprintf("https://go.example.com/track?id=%d", linkId)
}

func (s *stubCore) Broadcast(linkId int64, _, _ string) (*entity.SendReport, error) {
	s.broadcasts = append(s.broadcasts, linkId)
	return &entity.SendReport{Sent: 1}, nil
}

func (s *stubCore) ScheduleBroadcast(linkId int64, rawTime, text string, createdBy int64) (*entity.ScheduledJob, error) {
	if _, err := clock.ParseSchedule(rawTime); err != nil {
		return nil, core.ErrMalformedSchedule
	}
	job := entity.ScheduledJob{
		Id:          int64(len(s.scheduled) + 1),
		LinkId:      linkId,
		ScheduledAt: rawTime,
		MessageText: text,
		CreatedBy:   createdBy,
	}
	s.scheduled = append(s.scheduled, job)
	return &job, nil
}

func newTestBot(adminId int64) (*TgBot, *stubCore) {
	stub := &stubCore{}
	return &TgBot{
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		core:   stub,
		config: BotConfig{AdminId: adminId},
	}, stub
}

func TestRequireAdmin(t *testing.T) {
	bot, _ := newTestBot(99)
	assert.True(t, bot.requireAdmin(99))
	assert.False(t, bot.requireAdmin(7))

	locked, _ := newTestBot(0)
	assert.False(t, locked.requireAdmin(0), "unset admin id keeps admin commands locked")
}

func TestScheduleCommand_DeniedForNonAdmin(t *testing.T) {
	bot, stub := newTestBot(99)

	reply, err := bot.scheduleCommand(7, "/schedule 1 2030-01-01_12:00 hello")
	require.NoError(t, err)
	assert.Equal(t, "Not authorized\\.", reply)
	assert.Empty(t, stub.scheduled, "a denied command must not create a job")
}

func TestBroadcastCommand_DeniedForNonAdmin(t *testing.T) {
	bot, stub := newTestBot(99)

	reply, err := bot.broadcastCommand(7, "/broadcast 1 hello")
	require.NoError(t, err)
	assert.Equal(t, "Not authorized\\.", reply)
	assert.Empty(t, stub.broadcasts, "a denied command must not fan out")
}

func TestScheduleCommand_Admin(t *testing.T) {
	bot, stub := newTestBot(99)

	reply, err := bot.scheduleCommand(99, "/schedule 4 2030-01-01_12:00 fresh drop")
	require.NoError(t, err)
	require.Len(t, stub.scheduled, 1)
	assert.Equal(t, int64(4), stub.scheduled[0].LinkId)
	assert.Equal(t, "fresh drop", stub.scheduled[0].MessageText)
	assert.Equal(t, int64(99), stub.scheduled[0].CreatedBy)
	assert.Contains(t, reply, "scheduled")

	reply, err = bot.scheduleCommand(99, "/schedule 4 tomorrow fresh drop")
	require.NoError(t, err)
	assert.Contains(t, reply, "Wrong time format")
	assert.Len(t, stub.scheduled, 1)
}

func TestBroadcastCommand_Admin(t *testing.T) {
	bot, stub := newTestBot(99)

	reply, err := bot.broadcastCommand(99, "/broadcast 4 watch this")
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, stub.broadcasts)
	assert.Contains(t, reply, "Broadcast sent")

	reply, err = bot.broadcastCommand(99, "/broadcast")
	require.NoError(t, err)
	assert.Contains(t, reply, "Usage")
	assert.Len(t, stub.broadcasts, 1)
}
