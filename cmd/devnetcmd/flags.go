// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package devnetcmd

import (
	"github.com/spf13/pflag"

	"github.com/eth-fabric/fabric/pkg/constants"
)

// Flag values shared across the devnet subcommands.
var (
	enclaveName  string
	outputRoot   string
	composeDir   string
	packageDir   string
	argsFile     string
	feeRecipient string
	skipCluster  bool
	purge        bool
	force        bool
)

func addEnclaveFlag(fs *pflag.FlagSet) {
	fs.StringVar(&enclaveName, "enclave", "",
		"enclave name (defaults to "+constants.DefaultEnclaveName+", override with "+constants.EnvEnclaveName+")")
}

func addOutputRootFlag(fs *pflag.FlagSet) {
	fs.StringVar(&outputRoot, "output-root", "",
		"directory receiving keys, secrets and network configs (override with "+constants.EnvOutputRoot+")")
}

func addComposeDirFlag(fs *pflag.FlagSet) {
	fs.StringVar(&composeDir, "compose-dir", constants.DefaultComposeDir,
		"deployment directory holding "+constants.ComposeFileName+" and "+constants.ComposeConfigDirName+"/")
}

func addForceFlag(fs *pflag.FlagSet) {
	fs.BoolVar(&force, "force", false, "skip confirmation prompts")
}
