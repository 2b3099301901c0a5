// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package utils

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWithTransferRetrySucceedsWithoutBackoff(t *testing.T) {
	require := require.New(t)

	attempts := 0
	err := WithTransferRetry(context.Background(), func(_ context.Context) error {
		attempts++
		return nil
	})
	require.NoError(err)
	require.Equal(1, attempts)
}

func TestWithTransferRetryStopsWhenContextExpires(t *testing.T) {
	require := require.New(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	attempts := 0
	err := WithTransferRetry(ctx, func(_ context.Context) error {
		attempts++
		return fmt.Errorf("still down")
	})
	require.ErrorIs(err, context.DeadlineExceeded)
	require.Equal(1, attempts)
}
