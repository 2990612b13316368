// Package auth carries the calling user between the transport and use cases.
// Credential checks happen upstream; this service trusts the forwarded id.
package auth

import (
	"context"
	"strconv"

	"google.golang.org/grpc/metadata"
)

// ActorHeader is the metadata key the gateway forwards the authenticated user id in.
const ActorHeader = "x-user-id"

type actorKey struct{}

func WithActorID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, actorKey{}, id)
}

// ActorID returns the user id placed on ctx, falling back to incoming metadata.
func ActorID(ctx context.Context) (int64, bool) {
	if id, ok := ctx.Value(actorKey{}).(int64); ok {
		return id, true
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return 0, false
	}
	vals := md.Get(ActorHeader)
	if len(vals) == 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(vals[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
