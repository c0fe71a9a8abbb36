// Package mail delivers finished message bodies to a recipient. The pipeline
// itself never depends on it; the entry point uses it to send task digests.
package mail

import "context"

// Sender delivers a plain-text email.
type Sender interface {
	Send(ctx context.Context, to string, subject string, body string) error
}
