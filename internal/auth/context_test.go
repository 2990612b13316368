package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/metadata"
)

func TestActorID(t *testing.T) {
	tests := []struct {
		name   string
		ctx    context.Context
		want   int64
		wantOK bool
	}{
		{"empty", context.Background(), 0, false},
		{"context value", WithActorID(context.Background(), 7), 7, true},
		{"metadata", metadata.NewIncomingContext(context.Background(), metadata.Pairs(ActorHeader, "12")), 12, true},
		{"garbage metadata", metadata.NewIncomingContext(context.Background(), metadata.Pairs(ActorHeader, "abc")), 0, false},
		{"negative metadata", metadata.NewIncomingContext(context.Background(), metadata.Pairs(ActorHeader, "-3")), 0, false},
		{
			"context value wins",
			WithActorID(metadata.NewIncomingContext(context.Background(), metadata.Pairs(ActorHeader, "12")), 5),
			5, true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ActorID(tt.ctx)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, id)
		})
	}
}
