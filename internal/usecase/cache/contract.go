package cache

import "context"

// Snapshotter persists and restores named state blobs.
type Snapshotter interface {
	Save(ctx context.Context, name string, payload any) error
	Load(ctx context.Context, name string, dst any) (bool, error)
	Delete(ctx context.Context, name string) error
}

// Submitter runs fire-and-forget tasks on a bounded worker pool.
type Submitter interface {
	Submit(task func()) error
}
