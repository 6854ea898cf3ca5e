package speaker

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// VoiceProfile binds a speaker to the reference audio slice the synthesizer
// clones from. ReferencePath points at the exemplar clip on shared storage.
type VoiceProfile struct {
	ID            string    `json:"id"`
	SpeakerID     string    `json:"speaker_id"`
	ReferencePath string    `json:"reference_path"`
	CreatedAt     time.Time `json:"created_at"`
}

// ProfileStore is a bounded, concurrency-safe voice profile cache shared
// across simultaneous requests. When full, the oldest profile is evicted.
type ProfileStore struct {
	mu       sync.RWMutex
	capacity int
	profiles map[string]*VoiceProfile
	order    []string // insertion order, oldest first
}

// NewProfileStore creates a store holding at most capacity profiles.
func NewProfileStore(capacity int) *ProfileStore {
	if capacity <= 0 {
		capacity = 256
	}
	return &ProfileStore{
		capacity: capacity,
		profiles: make(map[string]*VoiceProfile),
	}
}

// GetOrCreate returns the existing profile for a speaker or registers a new
// one backed by the given reference audio. An empty referencePath with no
// existing profile yields an error: cloning needs a sample.
func (ps *ProfileStore) GetOrCreate(speakerID, referencePath string) (*VoiceProfile, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if p, ok := ps.profiles[speakerID]; ok {
		return p, nil
	}
	if referencePath == "" {
		return nil, fmt.Errorf("no voice profile for speaker %s and no reference sample", speakerID)
	}

	if len(ps.order) >= ps.capacity {
		oldest := ps.order[0]
		ps.order = ps.order[1:]
		delete(ps.profiles, oldest)
	}

	p := &VoiceProfile{
		ID:            uuid.NewString(),
		SpeakerID:     speakerID,
		ReferencePath: referencePath,
		CreatedAt:     time.Now(),
	}
	ps.profiles[speakerID] = p
	ps.order = append(ps.order, speakerID)
	return p, nil
}

// Lookup returns the profile for a speaker if one exists.
func (ps *ProfileStore) Lookup(speakerID string) (*VoiceProfile, bool) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	p, ok := ps.profiles[speakerID]
	return p, ok
}

// Len reports the number of cached profiles.
func (ps *ProfileStore) Len() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.profiles)
}
