// Package snapshot persists engine state blobs as versioned JSON envelopes
// in the key-value store.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/linkdex/internal/db"
	"github.com/kailas-cloud/linkdex/internal/domain"
)

// Version is the envelope format written by this build.
const Version = 1

const keySegment = "state:"

// store is the consumer interface for snapshots (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

type envelope struct {
	Version int             `json:"version"`
	SavedAt time.Time       `json:"saved_at"`
	Payload json.RawMessage `json:"payload"`
}

// Repo reads and writes named state blobs.
type Repo struct {
	store  store
	prefix string
	logger *zap.Logger
	now    func() time.Time
}

// New creates a snapshot repository. prefix defaults to domain.KeyPrefix.
func New(s store, prefix string, logger *zap.Logger) *Repo {
	if prefix == "" {
		prefix = domain.KeyPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repo{store: s, prefix: prefix + keySegment, logger: logger, now: time.Now}
}

// Save writes payload under name, replacing the previous blob.
func (r *Repo) Save(ctx context.Context, name string, payload any) error {
	return r.SaveWithTTL(ctx, name, payload, 0)
}

// SaveWithTTL writes payload under name with an expiry. ttl <= 0 keeps it forever.
func (r *Repo) SaveWithTTL(ctx context.Context, name string, payload any, ttl time.Duration) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	data, err := json.Marshal(envelope{Version: Version, SavedAt: r.now().UTC(), Payload: body})
	if err != nil {
		return fmt.Errorf("marshal envelope %s: %w", name, err)
	}
	if ttl > 0 {
		err = r.store.SetWithTTL(ctx, r.key(name), data, ttl)
	} else {
		err = r.store.Set(ctx, r.key(name), data)
	}
	if err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

// Load decodes the blob stored under name into dst. It reports false, with
// no error, when the blob is missing or was written by an unknown version.
func (r *Repo) Load(ctx context.Context, name string, dst any) (bool, error) {
	data, err := r.store.Get(ctx, r.key(name))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load %s: %w", name, err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		r.logger.Warn("Ignoring undecodable snapshot", zap.String("name", name), zap.Error(err))
		return false, nil
	}
	if env.Version != Version {
		r.logger.Warn("Ignoring snapshot with unknown version",
			zap.String("name", name),
			zap.Int("version", env.Version),
		)
		return false, nil
	}
	if err := json.Unmarshal(env.Payload, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", name, err)
	}
	return true, nil
}

// Delete removes the blob stored under name. Missing blobs are not an error.
func (r *Repo) Delete(ctx context.Context, name string) error {
	if err := r.store.Del(ctx, r.key(name)); err != nil && !errors.Is(err, db.ErrKeyNotFound) {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

func (r *Repo) key(name string) string {
	return r.prefix + name
}
