package session

import (
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"pixelgen/internal/pixelart"
)

// Session is the bot-side state of one user. Settings persist between photos
// so a user can tweak the tier and re-run the last photo.
type Session struct {
	UserID          int64
	Username        string
	Settings        pixelart.Settings
	LastPhotoFileID string
	Busy            bool
	LastActivity    time.Time
}

type Options struct {
	// TTL is how long an idle session is kept.
	TTL time.Duration
}

type Store struct {
	mu       sync.Mutex
	sessions *cache.Cache
}

func NewStore(opts Options) *Store {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}

	return &Store{
		sessions: cache.New(ttl, ttl/2),
	}
}

func (s *Store) Get(userID int64, username string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	return *s.getOrCreateLocked(userID, username)
}

func (s *Store) Update(userID int64, username string, fn func(*Session)) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getOrCreateLocked(userID, username)
	if fn != nil {
		fn(sess)
	}
	return *sess
}

// Reset restores default settings and forgets the last photo. An in-flight
// request stays marked busy.
func (s *Store) Reset(userID int64, username string) Session {
	return s.Update(userID, username, func(sess *Session) {
		sess.Settings = pixelart.DefaultSettings()
		sess.LastPhotoFileID = ""
	})
}

// TryBegin marks the user busy. It returns false when a request is already in
// flight for this user.
func (s *Store) TryBegin(userID int64, username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getOrCreateLocked(userID, username)
	if sess.Busy {
		return false
	}
	sess.Busy = true
	return true
}

func (s *Store) End(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.sessions.Get(key(userID)); ok {
		sess := v.(*Session)
		sess.Busy = false
		sess.LastActivity = time.Now()
	}
}

func (s *Store) Len() int {
	return s.sessions.ItemCount()
}

func (s *Store) getOrCreateLocked(userID int64, username string) *Session {
	k := key(userID)
	if v, ok := s.sessions.Get(k); ok {
		sess := v.(*Session)
		if sess.Username == "" && username != "" {
			sess.Username = username
		}
		sess.LastActivity = time.Now()
		s.sessions.Set(k, sess, cache.DefaultExpiration)
		return sess
	}

	sess := &Session{
		UserID:       userID,
		Username:     username,
		Settings:     pixelart.DefaultSettings(),
		LastActivity: time.Now(),
	}
	s.sessions.Set(k, sess, cache.DefaultExpiration)
	return sess
}

func key(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
