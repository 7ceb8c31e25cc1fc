package opdb

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("opdb: key not found")

// Store persists operational state as opaque values grouped by namespace.
type Store interface {
	Put(ctx context.Context, namespace, key string, value []byte) error
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	Delete(ctx context.Context, namespace, key string) error
	Load(ctx context.Context, namespace string, fn LoadFunc) error
	Count(ctx context.Context, namespace string) (int, error)
	Clear(ctx context.Context, namespace string) error
	Close() error
}

type LoadFunc func(key string, value []byte) error

const (
	NamespaceAttachments     = "olt_attachments"
	NamespaceSubscriberVlans = "olt_subscriber_vlans"
)
