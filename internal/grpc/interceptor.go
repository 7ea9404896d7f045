package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// OriginMetadataKey carries the staff caller's origin, mirroring the HTTP
// Origin header checked on GET /orders.
const OriginMetadataKey = "origin"

var staffMethods = map[string]bool{
	"/" + ServiceName + "/GetOrder":   true,
	"/" + ServiceName + "/ListOrders": true,
}

// RequireOrigin rejects GetOrder and ListOrders unless the caller's origin
// metadata equals allowed exactly. An empty allowed closes both methods.
func RequireOrigin(allowed string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if staffMethods[info.FullMethod] {
			if allowed == "" || metadataValue(ctx, OriginMetadataKey) != allowed {
				return nil, status.Error(codes.PermissionDenied, "origin not allowed")
			}
		}
		return handler(ctx, req)
	}
}
