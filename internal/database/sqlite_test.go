package database

import (
	"testing"
	"time"

	"linktrack/entity"
	"linktrack/lib/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLite {
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestLinks_CreateAndGet(t *testing.T) {
	store := newTestStore(t)

	id, err := store.CreateLink("https://tiktok.com/@x/video/1", 100, "first")
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	link, err := store.GetLink(id)
	require.NoError(t, err)
	assert.Equal(t, "https://tiktok.com/@x/video/1", link.DestinationUrl)
	assert.Equal(t, int64(100), link.OwnerId)
	assert.Equal(t, "first", link.Title)
	assert.NotEmpty(t, link.CreatedAt)
}

func TestLinks_GetMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetLink(42)
	assert.ErrorIs(t, err, ErrLinkNotFound)
}

func TestLinks_MonotonicIds(t *testing.T) {
	store := newTestStore(t)

	var prev int64
	for i := 0; i < 5; i++ {
		id, err := store.CreateLink("https://tiktok.com/@x/video/1", 1, "")
		require.NoError(t, err)
		require.Greater(t, id, prev)
		prev = id
	}
}

func TestLinks_ByOwnerNewestFirst(t *testing.T) {
	store := newTestStore(t)

	first, err := store.CreateLink("https://tiktok.com/@x/video/1", 7, "")
	require.NoError(t, err)
	second, err := store.CreateLink("https://tiktok.com/@x/video/2", 7, "")
	require.NoError(t, err)
	_, err = store.CreateLink("https://tiktok.com/@y/video/3", 8, "")
	require.NoError(t, err)

	links, err := store.LinksByOwner(7)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, second, links[0].Id)
	assert.Equal(t, first, links[1].Id)
}

func TestLinks_UpdateTitle(t *testing.T) {
	store := newTestStore(t)

	id, err := store.CreateLink("https://tiktok.com/@x/video/1", 1, "old")
	require.NoError(t, err)

	require.NoError(t, store.UpdateLinkTitle(id, "new"))
	link, err := store.GetLink(id)
	require.NoError(t, err)
	assert.Equal(t, "new", link.Title)

	assert.ErrorIs(t, store.UpdateLinkTitle(999, "x"), ErrLinkNotFound)
}

func TestClicks_RecordAndCount(t *testing.T) {
	store := newTestStore(t)

	_, err := store.RecordClick(5, nil, "spring", "10.0.0.1")
	require.NoError(t, err)

	ref := int64(42)
	_, err = store.RecordClick(5, &ref, "", "10.0.0.2")
	require.NoError(t, err)

	count, err := store.CountClicks(5)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = store.CountClicks(6)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestReferrals_RecordAndCount(t *testing.T) {
	store := newTestStore(t)

	_, err := store.RecordReferral(42, 5)
	require.NoError(t, err)
	_, err = store.RecordReferral(42, 6)
	require.NoError(t, err)
	_, err = store.RecordReferral(43, 5)
	require.NoError(t, err)

	count, err := store.CountReferrals(42)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSubscribers_IdempotentInsert(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Subscribe(100))
	require.NoError(t, store.Subscribe(100))
	require.NoError(t, store.Subscribe(200))

	chats, err := store.Subscribers()
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{100, 200}, chats)
}

func TestSubscribers_UnsubscribeAbsent(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Unsubscribe(100))

	require.NoError(t, store.Subscribe(100))
	require.NoError(t, store.Unsubscribe(100))
	chats, err := store.Subscribers()
	require.NoError(t, err)
	assert.Empty(t, chats)
}

func TestJobs_DueSelectionAndDelete(t *testing.T) {
	store := newTestStore(t)

	now := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)

	past, err := store.CreateJob(&entity.ScheduledJob{
		LinkId:      1,
		ScheduledAt: clock.Format(now.Add(-time.Hour)),
		MessageText: "past",
		CreatedBy:   9,
	})
	require.NoError(t, err)

	exact, err := store.CreateJob(&entity.ScheduledJob{
		LinkId:      2,
		ScheduledAt: clock.Format(now),
		MessageText: "exact",
		CreatedBy:   9,
	})
	require.NoError(t, err)

	_, err = store.CreateJob(&entity.ScheduledJob{
		LinkId:      3,
		ScheduledAt: clock.Format(now.Add(time.Hour)),
		MessageText: "future",
		CreatedBy:   9,
	})
	require.NoError(t, err)

	due, err := store.DueJobs(clock.Format(now))
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, past, due[0].Id)
	assert.Equal(t, exact, due[1].Id)

	require.NoError(t, store.DeleteJob(past))
	require.NoError(t, store.DeleteJob(exact))

	due, err = store.DueJobs(clock.Format(now))
	require.NoError(t, err)
	assert.Empty(t, due)
}
