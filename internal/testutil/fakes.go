package testutil

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/adnan-tnd/flow-core/internal/notify"
)

// RecordingDispatcher captures outbound mail instead of sending it.
type RecordingDispatcher struct {
	mu       sync.Mutex
	Messages []notify.Message
	Err      error
}

func (d *RecordingDispatcher) Dispatch(_ context.Context, msgs ...notify.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}
	d.Messages = append(d.Messages, msgs...)
	return nil
}

// To returns the messages addressed to addr.
func (d *RecordingDispatcher) To(addr string) []notify.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []notify.Message
	for _, m := range d.Messages {
		if m.To == addr {
			out = append(out, m)
		}
	}
	return out
}

func (d *RecordingDispatcher) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Messages)
}

func (d *RecordingDispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Messages = nil
}

// MemoryStore is an in-memory storage.ObjectStore.
type MemoryStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Deleted []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Objects: make(map[string][]byte)}
}

const memoryBaseURL = "https://objects.test"

func (s *MemoryStore) Put(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	url := memoryBaseURL + "/" + key

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Objects[url] = data
	return url, nil
}

func (s *MemoryStore) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Objects[url]; !ok {
		return fmt.Errorf("no object at %s", url)
	}
	delete(s.Objects, url)
	s.Deleted = append(s.Deleted, url)
	return nil
}
