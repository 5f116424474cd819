package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/tradehub/internal/common"
	"github.com/dmitrijs2005/tradehub/internal/logging"
	"github.com/dmitrijs2005/tradehub/internal/server/metrics"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestToStatus(t *testing.T) {
	s := NewGRPCServer("", logging.Discard(), nil, nil, metrics.Nop{}, 0, 0)

	tests := []struct {
		err  error
		code codes.Code
	}{
		{fmt.Errorf("get: %w", common.ErrorNotFound), codes.NotFound},
		{common.ErrorAlreadyExists, codes.AlreadyExists},
		{fmt.Errorf("%w: name required", common.ErrorInvalidArgument), codes.InvalidArgument},
		{common.ErrPermissionDenied, codes.PermissionDenied},
		{common.ErrorUnauthorized, codes.Unauthenticated},
		{common.ErrRefreshTokenExpired, codes.Unauthenticated},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{errors.New("disk on fire"), codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			got := s.toStatus(context.Background(), tt.err)
			assert.Equal(t, tt.code, status.Code(got))
		})
	}

	assert.NoError(t, s.toStatus(context.Background(), nil))

	st, _ := status.FromError(s.toStatus(context.Background(), errors.New("secret detail")))
	assert.Equal(t, "internal error", st.Message())
}

func TestPeerLimiters(t *testing.T) {
	p := newPeerLimiters(0.001, 2)
	assert.True(t, p.allow("a"))
	assert.True(t, p.allow("a"))
	assert.False(t, p.allow("a"))
	assert.True(t, p.allow("b"))

	unlimited := newPeerLimiters(0, 0)
	for i := 0; i < 100; i++ {
		assert.True(t, unlimited.allow("a"))
	}
}
