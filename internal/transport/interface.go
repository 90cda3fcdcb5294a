package transport

import "context"

// Connection is one live telephony media stream.
type Connection interface {
	Messages() <-chan Inbound
	SendMedia(ctx context.Context, streamSID string, seq uint64, payload []byte) error
	SendMark(ctx context.Context, streamSID, name string) error
	Close() error
	Done() <-chan struct{}
}
