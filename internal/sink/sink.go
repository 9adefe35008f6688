// package sink delivers rendered payloads to their destinations.
//
// Two destinations exist: the local filesystem and a chat webhook. Both sit
// behind [Sink] so the export engine never branches on destination kind.
package sink

import (
	"context"

	"github.com/desertthunder/spx/internal/formatter"
)

// Sink delivers one playlist's rendered payload.
//
// name is the sanitized, collision-free base name chosen by the caller.
// Implementations return the paths of any files created.
type Sink interface {
	Deliver(ctx context.Context, name string, payload *formatter.Payload) ([]string, error)
}
