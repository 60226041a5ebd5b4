package sharelink

import (
	"sync"
	"testing"
	"time"

	"pyra-drive/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStore implements the same conditional-increment contract as the real
// store, guarded by a mutex so concurrent Consume calls are serialized the
// way a database UPDATE would be.
type fakeStore struct {
	mu    sync.Mutex
	links map[string]*model.ShareLink
}

func newFakeStore(links ...*model.ShareLink) *fakeStore {
	s := &fakeStore{links: make(map[string]*model.ShareLink)}
	for _, l := range links {
		s.links[l.ID] = l
	}
	return s
}

func (s *fakeStore) ByToken(token string) (*model.ShareLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.links {
		if l.Token == token {
			copied := *l
			return &copied, nil
		}
	}
	return nil, assert.AnError
}

func (s *fakeStore) Consume(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.links[id]
	if !ok || !l.Active {
		return false, nil
	}
	if l.MaxAccess > 0 && l.AccessCount >= l.MaxAccess {
		return false, nil
	}
	l.AccessCount++
	return true, nil
}

func activeLink() *model.ShareLink {
	return &model.ShareLink{
		ID:        "s_1",
		Token:     "tok",
		FilePath:  "clients/acme/report.pdf",
		ExpiresAt: time.Now().Add(time.Hour),
		Active:    true,
	}
}

func TestStateOf(t *testing.T) {
	t.Parallel()
	now := time.Now()

	link := activeLink()
	assert.Equal(t, StateActive, StateOf(link, now))

	expired := activeLink()
	expired.ExpiresAt = now.Add(-time.Minute)
	assert.Equal(t, StateExpired, StateOf(expired, now))

	dead := activeLink()
	dead.Active = false
	assert.Equal(t, StateDeactivated, StateOf(dead, now))

	limited := activeLink()
	limited.MaxAccess = 2
	limited.AccessCount = 2
	assert.Equal(t, StateLimitReached, StateOf(limited, now))

	// Deactivation outranks expiry in the report.
	both := activeLink()
	both.Active = false
	both.ExpiresAt = now.Add(-time.Minute)
	assert.Equal(t, StateDeactivated, StateOf(both, now))
}

func TestConsumeSuccess(t *testing.T) {
	t.Parallel()

	link := activeLink()
	ledger := NewLedger(newFakeStore(link), zap.NewNop())

	view := *link
	state, err := ledger.Consume(&view)
	require.NoError(t, err)
	assert.Equal(t, StateActive, state)
	assert.Equal(t, 1, view.AccessCount)
}

func TestConsumeTerminalStates(t *testing.T) {
	t.Parallel()

	ledger := NewLedger(newFakeStore(), zap.NewNop())

	expired := activeLink()
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	state, err := ledger.Consume(expired)
	require.NoError(t, err)
	assert.Equal(t, StateExpired, state)

	dead := activeLink()
	dead.Active = false
	state, err = ledger.Consume(dead)
	require.NoError(t, err)
	assert.Equal(t, StateDeactivated, state)

	limited := activeLink()
	limited.MaxAccess = 1
	limited.AccessCount = 1
	state, err = ledger.Consume(limited)
	require.NoError(t, err)
	assert.Equal(t, StateLimitReached, state)
}

// Two concurrent redemptions of a max_access=1 link must produce exactly one
// success: the limit cannot be oversold.
func TestConsumeConcurrentLimitRace(t *testing.T) {
	t.Parallel()

	link := activeLink()
	link.MaxAccess = 1
	store := newFakeStore(link)
	ledger := NewLedger(store, zap.NewNop())

	const racers = 8
	results := make(chan State, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			view := *link
			state, err := ledger.Consume(&view)
			assert.NoError(t, err)
			results <- state
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for state := range results {
		if state == StateActive {
			succeeded++
		} else {
			assert.Equal(t, StateLimitReached, state)
		}
	}
	assert.Equal(t, 1, succeeded)
}
