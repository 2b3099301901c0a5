// Copyright (C) 2022, Lux Partners Limited, All rights reserved.
// See the file LICENSE for licensing terms.

package testutils

import (
	"io"
	"testing"

	"github.com/eth-fabric/fabric/pkg/application"
	"github.com/eth-fabric/fabric/pkg/config"
	"github.com/eth-fabric/fabric/pkg/ux"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func SetupTest(t *testing.T) *require.Assertions {
	// use io.Discard to not print anything
	ux.NewUserLog(zap.NewNop().Sugar(), io.Discard)
	return require.New(t)
}

func SetupTestApp(t *testing.T) *application.Fabric {
	testDir := t.TempDir()

	app := application.New()
	app.Setup(testDir, zap.NewNop().Sugar(), &config.Config{}, nil)
	ux.NewUserLog(zap.NewNop().Sugar(), io.Discard)
	return app
}
