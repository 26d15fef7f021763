package session

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pixelgen/internal/pixelart"
)

func TestGetCreatesDefaults(t *testing.T) {
	s := NewStore(Options{})
	sess := s.Get(1, "alice")
	assert.Equal(t, int64(1), sess.UserID)
	assert.Equal(t, "alice", sess.Username)
	assert.Equal(t, pixelart.DefaultSettings(), sess.Settings)
	assert.Equal(t, 1, s.Len())
}

func TestUpdateAndReset(t *testing.T) {
	s := NewStore(Options{})
	s.Update(1, "", func(sess *Session) {
		sess.Settings.Tier = 4
		sess.Settings.Prompt = "spooky"
		sess.LastPhotoFileID = "file-1"
	})
	s.Get(1, "bob")

	sess := s.Get(1, "")
	assert.Equal(t, 4, sess.Settings.Tier)
	assert.Equal(t, "file-1", sess.LastPhotoFileID)
	assert.Equal(t, "bob", sess.Username)

	sess = s.Reset(1, "")
	assert.Equal(t, pixelart.DefaultSettings(), sess.Settings)
	assert.Empty(t, sess.LastPhotoFileID)
}

func TestSnapshotsAreCopies(t *testing.T) {
	s := NewStore(Options{})
	sess := s.Get(1, "")
	sess.Settings.Tier = 3
	assert.Equal(t, pixelart.DefaultTier, s.Get(1, "").Settings.Tier)
}

func TestTryBeginIsExclusivePerUser(t *testing.T) {
	s := NewStore(Options{})
	assert.True(t, s.TryBegin(1, ""))
	assert.False(t, s.TryBegin(1, ""))
	assert.True(t, s.TryBegin(2, ""))

	s.Reset(1, "")
	assert.False(t, s.TryBegin(1, ""), "reset keeps the in-flight mark")

	s.End(1)
	assert.True(t, s.TryBegin(1, ""))
	s.End(99)
}

func TestTryBeginConcurrent(t *testing.T) {
	s := NewStore(Options{})
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.TryBegin(7, "") {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestIdleSessionsExpire(t *testing.T) {
	s := NewStore(Options{TTL: 20 * time.Millisecond})
	s.Update(1, "", func(sess *Session) { sess.Settings.Tier = 4 })
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, pixelart.DefaultTier, s.Get(1, "").Settings.Tier)
}
