// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package utils

import (
	"context"

	"github.com/eth-fabric/fabric/pkg/constants"
	"github.com/sethvargo/go-retry"
)

// WithTransferRetry runs fn under the bounded exponential backoff policy
// applied to every external transfer. The last error is returned once the
// retry budget is spent.
func WithTransferRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff, err := retry.NewExponential(constants.TransferRetryBase)
	if err != nil {
		return err
	}
	backoff = retry.WithMaxRetries(constants.TransferMaxRetries, backoff)
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
