// Package cache provides the injected pipeline cache service. The backend is
// pluggable: an in-process LRU with TTL, a remote Redis store, or the remote
// store with the in-process one as fallback. No global singletons; callers
// receive a *Service and share it explicitly.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mfonda/simhash"

	"github.com/voxlate/voxlate/cmd/internal/turns"
)

// Backend is the minimal KV contract the service needs. Implementations must
// be safe for concurrent use across simultaneous requests.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Service exposes typed accessors over a Backend.
type Service struct {
	backend Backend
	ttl     time.Duration
}

// NewService creates a cache service with a default entry TTL.
func NewService(backend Backend, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{backend: backend, ttl: ttl}
}

// Close releases the underlying backend.
func (s *Service) Close() error {
	return s.backend.Close()
}

// GetVersion returns a previously assembled track for (message, attachment,
// language), if cached. Cache errors read as misses: the pipeline can always
// recompute.
func (s *Service) GetVersion(ctx context.Context, messageID, attachmentID, lang string) (*turns.TranslatedAudioVersion, bool) {
	raw, ok, err := s.backend.Get(ctx, versionKey(messageID, attachmentID, lang))
	if err != nil || !ok {
		return nil, false
	}
	var version turns.TranslatedAudioVersion
	if err := json.Unmarshal(raw, &version); err != nil {
		return nil, false
	}
	return &version, true
}

// PutVersion stores an assembled track.
func (s *Service) PutVersion(ctx context.Context, version *turns.TranslatedAudioVersion) error {
	raw, err := json.Marshal(version)
	if err != nil {
		return fmt.Errorf("marshal version: %w", err)
	}
	return s.backend.Set(ctx, versionKey(version.MessageID, version.AttachmentID, version.TargetLanguage), raw, s.ttl)
}

// GetTranslation returns a cached machine translation for the exact text.
// The key carries a simhash fingerprint namespace for observability of
// near-duplicate traffic, but only exact sha-256 matches are ever served.
func (s *Service) GetTranslation(ctx context.Context, text, sourceLang, targetLang string) (string, bool) {
	raw, ok, err := s.backend.Get(ctx, translationKey(text, sourceLang, targetLang))
	if err != nil || !ok {
		return "", false
	}
	return string(raw), true
}

// PutTranslation stores a machine translation result.
func (s *Service) PutTranslation(ctx context.Context, text, sourceLang, targetLang, translated string) error {
	return s.backend.Set(ctx, translationKey(text, sourceLang, targetLang), []byte(translated), s.ttl)
}

// GetNormalizedPath returns the canonical audio path cached for a source
// path, for reuse across processes.
func (s *Service) GetNormalizedPath(ctx context.Context, sourcePath string) (string, bool) {
	raw, ok, err := s.backend.Get(ctx, "voxlate:norm:"+hashKey(sourcePath))
	if err != nil || !ok {
		return "", false
	}
	return string(raw), true
}

// PutNormalizedPath stores the canonical path for a source path.
func (s *Service) PutNormalizedPath(ctx context.Context, sourcePath, canonicalPath string) error {
	return s.backend.Set(ctx, "voxlate:norm:"+hashKey(sourcePath), []byte(canonicalPath), s.ttl)
}

func versionKey(messageID, attachmentID, lang string) string {
	return fmt.Sprintf("voxlate:version:%s:%s:%s", messageID, attachmentID, lang)
}

// translationKey namespaces by simhash fingerprint and confirms with sha-256
// so near-duplicate texts cluster under one prefix without ever colliding.
func translationKey(text, sourceLang, targetLang string) string {
	fp := simhash.Simhash(simhash.NewWordFeatureSet([]byte(text)))
	return fmt.Sprintf("voxlate:mt:%s:%s:%016x:%s", sourceLang, targetLang, fp, hashKey(text))
}

// hashKey 生成文本的哈希键
func hashKey(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}
