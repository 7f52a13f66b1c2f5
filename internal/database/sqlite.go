package database

import (
	"database/sql"
	"errors"
	"fmt"

	"linktrack/entity"
	"linktrack/lib/clock"

	_ "github.com/mattn/go-sqlite3"
)

var ErrLinkNotFound = errors.New("link not found")

// SQLite is the single persistent store: tracked links, append-only click
// and referral events, the subscriber registry and the scheduled-job queue
// share one database file. SQLite serializes the interleaved writes coming
// from the HTTP path and the dispatcher tick; the busy timeout keeps a
// writer from failing fast while the other holds the lock.
type SQLite struct {
	db *sql.DB
}

func New(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection: serializes writes from the HTTP path and the
	// dispatcher, and keeps :memory: databases on a single handle.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err = migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &SQLite{db: db}, nil
}

func migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS links (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		destination_url TEXT NOT NULL,
		owner_id INTEGER,
		title TEXT,
		created_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS clicks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		link_id INTEGER,
		clicked_at DATETIME,
		referrer_id INTEGER,
		ref_code TEXT,
		source_ip TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_clicks_link_id ON clicks(link_id);

	CREATE TABLE IF NOT EXISTS referrals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		referrer_id INTEGER,
		link_id INTEGER,
		created_at DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_referrals_referrer_id ON referrals(referrer_id);

	CREATE TABLE IF NOT EXISTS subscribers (
		chat_id INTEGER PRIMARY KEY,
		joined_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS scheduled_jobs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		link_id INTEGER,
		scheduled_at DATETIME,
		message_text TEXT,
		created_by INTEGER,
		created_at DATETIME
	);
	`
	_, err := db.Exec(query)
	return err
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// ---- links ----

func (s *SQLite) CreateLink(url string, ownerId int64, title string) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO links (destination_url, owner_id, title, created_at) VALUES (?, ?, ?, ?)",
		url, ownerId, title, clock.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLite) GetLink(id int64) (*entity.Link, error) {
	link := &entity.Link{}
	err := s.db.QueryRow(
		"SELECT id, destination_url, owner_id, title, created_at FROM links WHERE id = ?",
		id,
	).Scan(&link.Id, &link.DestinationUrl, &link.OwnerId, &link.Title, &link.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, err
	}
	return link, nil
}

func (s *SQLite) LinksByOwner(ownerId int64) ([]*entity.Link, error) {
	rows, err := s.db.Query(
		"SELECT id, destination_url, owner_id, title, created_at FROM links WHERE owner_id = ? ORDER BY created_at DESC, id DESC",
		ownerId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []*entity.Link
	for rows.Next() {
		link := &entity.Link{}
		err = rows.Scan(&link.Id, &link.DestinationUrl, &link.OwnerId, &link.Title, &link.CreatedAt)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

func (s *SQLite) UpdateLinkTitle(id int64, title string) error {
	res, err := s.db.Exec("UPDATE links SET title = ? WHERE id = ?", title, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrLinkNotFound
	}
	return nil
}

// ---- clicks and referrals ----

func (s *SQLite) RecordClick(linkId int64, referrerId *int64, refCode, sourceIp string) (int64, error) {
	ref := sql.NullInt64{}
	if referrerId != nil {
		ref = sql.NullInt64{Int64: *referrerId, Valid: true}
	}
	res, err := s.db.Exec(
		"INSERT INTO clicks (link_id, clicked_at, referrer_id, ref_code, source_ip) VALUES (?, ?, ?, ?, ?)",
		linkId, clock.Now(), ref, refCode, sourceIp,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLite) RecordReferral(referrerId, linkId int64) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO referrals (referrer_id, link_id, created_at) VALUES (?, ?, ?)",
		referrerId, linkId, clock.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLite) CountClicks(linkId int64) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM clicks WHERE link_id = ?", linkId).Scan(&count)
	return count, err
}

func (s *SQLite) CountReferrals(referrerId int64) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM referrals WHERE referrer_id = ?", referrerId).Scan(&count)
	return count, err
}

// ---- subscribers ----

func (s *SQLite) Subscribe(chatId int64) error {
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO subscribers (chat_id, joined_at) VALUES (?, ?)",
		chatId, clock.Now(),
	)
	return err
}

func (s *SQLite) Unsubscribe(chatId int64) error {
	_, err := s.db.Exec("DELETE FROM subscribers WHERE chat_id = ?", chatId)
	return err
}

func (s *SQLite) Subscribers() ([]int64, error) {
	rows, err := s.db.Query("SELECT chat_id FROM subscribers")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []int64
	for rows.Next() {
		var chatId int64
		if err = rows.Scan(&chatId); err != nil {
			return nil, err
		}
		chats = append(chats, chatId)
	}
	return chats, rows.Err()
}

// ---- scheduled jobs ----

func (s *SQLite) CreateJob(job *entity.ScheduledJob) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO scheduled_jobs (link_id, scheduled_at, message_text, created_by, created_at) VALUES (?, ?, ?, ?, ?)",
		job.LinkId, job.ScheduledAt, job.MessageText, job.CreatedBy, clock.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// DueJobs returns jobs whose scheduled_at is at or before now. Timestamps
// share the clock.Layout format, so the string comparison is chronological.
func (s *SQLite) DueJobs(now string) ([]*entity.ScheduledJob, error) {
	rows, err := s.db.Query(
		"SELECT id, link_id, scheduled_at, message_text, created_by, created_at FROM scheduled_jobs WHERE scheduled_at <= ?",
		now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*entity.ScheduledJob
	for rows.Next() {
		job := &entity.ScheduledJob{}
		err = rows.Scan(&job.Id, &job.LinkId, &job.ScheduledAt, &job.MessageText, &job.CreatedBy, &job.CreatedAt)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (s *SQLite) DeleteJob(id int64) error {
	_, err := s.db.Exec("DELETE FROM scheduled_jobs WHERE id = ?", id)
	return err
}
