package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tradehub/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var ErrUnavailable = errors.New("server unavailable")

// mapError turns a gRPC status back into the sentinel the server started
// from.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return common.ErrorNotFound
	case codes.AlreadyExists:
		return common.ErrorAlreadyExists
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", common.ErrorInvalidArgument, st.Message())
	case codes.PermissionDenied:
		return common.ErrPermissionDenied
	case codes.Unauthenticated:
		if st.Message() == common.ErrRefreshTokenExpired.Error() {
			return common.ErrRefreshTokenExpired
		}
		return common.ErrorUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	case codes.Canceled:
		return context.Canceled
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
