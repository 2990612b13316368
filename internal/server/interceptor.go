package server

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/apperr"
	"github.com/fekuna/omnipos-sales-service/internal/auth"
	"github.com/fekuna/omnipos-sales-service/internal/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// UnaryInterceptor moves the forwarded actor id onto the context, logs every
// call and turns domain errors into gRPC status errors.
func UnaryInterceptor(log logger.ZapLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		fields := []zap.Field{zap.String("method", info.FullMethod)}
		if actor, ok := auth.ActorID(ctx); ok {
			ctx = auth.WithActorID(ctx, actor)
			fields = append(fields, zap.Int64("actor_id", actor))
		}

		resp, err := handler(ctx, req)
		fields = append(fields, zap.Duration("duration", time.Since(start)))
		if err == nil {
			log.Debug("grpc call", fields...)
			return resp, nil
		}

		if _, ok := status.FromError(err); ok {
			log.Warn("grpc call failed", append(fields, zap.Error(err))...)
			return nil, err
		}
		st := apperr.ToGRPCStatus(err)
		if apperr.IsBusiness(err) {
			log.Info("grpc call rejected", append(fields, zap.Error(err))...)
		} else {
			log.Error("grpc call failed", append(fields, zap.Error(err))...)
		}
		return nil, st
	}
}
