package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"backend-antrian-klinik/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu       sync.Mutex
	messages [][]byte
	fail     bool
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail {
		return errors.New("broken pipe")
	}
	f.messages = append(f.messages, data)
	return nil
}

func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeConn) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func (f *fakeConn) last() Message {
	f.mu.Lock()
	defer f.mu.Unlock()

	var m Message
	json.Unmarshal(f.messages[len(f.messages)-1], &m)
	return m
}

func countingSource(calls *int32) BoardSource {
	return func(_ context.Context, providerID int64) (models.Board, error) {
		n := atomic.AddInt32(calls, 1)
		return models.Board{ProviderID: providerID, TotalWaiting: int(n)}, nil
	}
}

func TestHub_SubscribeSendsInitialBoard(t *testing.T) {
	var calls int32
	hub := NewHub(countingSource(&calls))
	conn := &fakeConn{}

	hub.Subscribe(3, conn)

	require.Eventually(t, func() bool { return conn.count() == 1 }, time.Second, 5*time.Millisecond)
	msg := conn.last()
	assert.Equal(t, "board", msg.Type)
	assert.Equal(t, int64(3), msg.Data.ProviderID)
}

func TestHub_NotifyDebounces(t *testing.T) {
	var calls int32
	hub := NewHub(countingSource(&calls))
	conn := &fakeConn{}

	hub.Subscribe(1, conn)
	require.Eventually(t, func() bool { return conn.count() == 1 }, time.Second, 5*time.Millisecond)

	for i := 0; i < 10; i++ {
		hub.Notify(1)
	}

	require.Eventually(t, func() bool { return conn.count() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(3 * hub.delay)
	assert.Equal(t, 2, conn.count())
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestHub_NotifyOnlyReachesProviderSubscribers(t *testing.T) {
	var calls int32
	hub := NewHub(countingSource(&calls))
	one, two := &fakeConn{}, &fakeConn{}

	hub.Subscribe(1, one)
	hub.Subscribe(2, two)
	require.Eventually(t, func() bool { return one.count() == 1 && two.count() == 1 }, time.Second, 5*time.Millisecond)

	hub.Notify(1)

	require.Eventually(t, func() bool { return one.count() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(3 * hub.delay)
	assert.Equal(t, 1, two.count())
}

func TestHub_DropsBrokenClients(t *testing.T) {
	var calls int32
	hub := NewHub(countingSource(&calls))
	conn := &fakeConn{fail: true}

	hub.Subscribe(1, conn)

	require.Eventually(t, func() bool { return len(hub.subscribers(1)) == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_PublishFallsBackToLocal(t *testing.T) {
	var calls int32
	hub := NewHub(countingSource(&calls))
	hub.publish = func(context.Context, int64) error { return errors.New("redis down") }
	conn := &fakeConn{}

	hub.Subscribe(1, conn)
	require.Eventually(t, func() bool { return conn.count() == 1 }, time.Second, 5*time.Millisecond)

	hub.Notify(1)
	require.Eventually(t, func() bool { return conn.count() == 2 }, time.Second, 5*time.Millisecond)
}

func TestHub_Unsubscribe(t *testing.T) {
	var calls int32
	hub := NewHub(countingSource(&calls))
	conn := &fakeConn{}

	client := hub.Subscribe(1, conn)
	require.Eventually(t, func() bool { return conn.count() == 1 }, time.Second, 5*time.Millisecond)

	hub.Unsubscribe(client)
	hub.Unsubscribe(client)
	hub.Notify(1)

	time.Sleep(3 * hub.delay)
	assert.Equal(t, 1, conn.count())
	assert.Empty(t, hub.subscribers(1))
}

func TestBoardChannel(t *testing.T) {
	assert.Equal(t, "antrian:board:42", boardChannel(42))
}
