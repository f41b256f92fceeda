// Package storage persists the broadcast subscriber set. The set is a
// single JSON file rewritten in full on every mutation.
package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"sync"
)

// SubscriberStore is the durable set of chat IDs subscribed to
// broadcasts. All methods are safe for concurrent use.
type SubscriberStore struct {
	mu   sync.Mutex
	path string
	subs map[int64]struct{}
}

// NewSubscriberStore creates a store backed by the given file path.
// Call Load before first use.
func NewSubscriberStore(path string) *SubscriberStore {
	return &SubscriberStore{
		path: path,
		subs: make(map[int64]struct{}),
	}
}

// Load reads the subscriber file. A missing or corrupt file is logged
// and treated as an empty set; it is never fatal.
func (s *SubscriberStore) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Error reading subscriber file %s: %v", s.path, err)
		}
		return
	}

	ids, err := decodeSubscribers(data)
	if err != nil {
		log.Printf("Error parsing subscriber file %s: %v", s.path, err)
		return
	}
	for _, id := range ids {
		s.subs[id] = struct{}{}
	}
}

// decodeSubscribers accepts both historic encodings of the file: a JSON
// array of integers or an array of numeric strings.
func decodeSubscribers(data []byte) ([]int64, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(raw))
	for _, item := range raw {
		var id int64
		if err := json.Unmarshal(item, &id); err == nil {
			ids = append(ids, id)
			continue
		}
		var str string
		if err := json.Unmarshal(item, &str); err != nil {
			return nil, fmt.Errorf("subscriber entry %s is neither a number nor a string", item)
		}
		id, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("subscriber entry %q is not a chat ID", str)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Add inserts a chat ID and persists the set. It reports whether the
// set changed.
func (s *SubscriberStore) Add(chatID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subs[chatID]; ok {
		return false, nil
	}
	s.subs[chatID] = struct{}{}
	return true, s.save()
}

// Remove deletes a chat ID and persists the set. It reports whether the
// set changed.
func (s *SubscriberStore) Remove(chatID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subs[chatID]; !ok {
		return false, nil
	}
	delete(s.subs, chatID)
	return true, s.save()
}

// Contains reports whether a chat ID is subscribed.
func (s *SubscriberStore) Contains(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.subs[chatID]
	return ok
}

// All returns a snapshot of the subscriber set.
func (s *SubscriberStore) All() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Count returns the number of subscribers.
func (s *SubscriberStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// save rewrites the whole file. Callers must hold the lock. The file is
// always written as a sorted array of integers; loading still tolerates
// the old string encoding.
func (s *SubscriberStore) save() error {
	ids := make([]int64, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to encode subscribers: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write subscriber file: %w", err)
	}
	return nil
}
