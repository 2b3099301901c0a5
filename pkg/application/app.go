// Copyright (C) 2022, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package application

import (
	"path/filepath"

	"github.com/eth-fabric/fabric/pkg/config"
	"github.com/eth-fabric/fabric/pkg/constants"
	"github.com/eth-fabric/fabric/pkg/prompts"
	"github.com/eth-fabric/fabric/pkg/utils"
	"go.uber.org/zap"
)

// Fabric is the shared application object carried by every command.
type Fabric struct {
	Log     *zap.SugaredLogger
	baseDir string
	Conf    *config.Config
	Prompt  prompts.Prompter
}

func New() *Fabric {
	return &Fabric{}
}

func (app *Fabric) Setup(baseDir string, log *zap.SugaredLogger, conf *config.Config, prompt prompts.Prompter) {
	app.baseDir = baseDir
	app.Log = log
	app.Conf = conf
	app.Prompt = prompt
}

func (app *Fabric) GetBaseDir() string {
	return app.baseDir
}

func (app *Fabric) GetLogDir() string {
	return filepath.Join(app.baseDir, constants.LogDir)
}

// GetDefaultOutputRoot is where consolidated devnet outputs land unless
// overridden by flag, environment, or config file.
func (app *Fabric) GetDefaultOutputRoot() string {
	return filepath.Join(app.baseDir, "devnet")
}

// ResolveOutputRoot applies the precedence flag > env/config > default.
func (app *Fabric) ResolveOutputRoot(flagValue string) string {
	if flagValue != "" {
		return utils.ExpandHome(flagValue)
	}
	if v := app.Conf.GetConfigStringValue(constants.ConfigOutputRootKey); v != "" {
		return utils.ExpandHome(v)
	}
	return app.GetDefaultOutputRoot()
}

// ResolveEnclaveName applies the precedence flag > env/config > default.
func (app *Fabric) ResolveEnclaveName(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := app.Conf.GetConfigStringValue(constants.ConfigEnclaveKey); v != "" {
		return v
	}
	return constants.DefaultEnclaveName
}

// ResolveKurtosisPath returns the orchestrator binary, defaulting to a PATH
// lookup by name.
func (app *Fabric) ResolveKurtosisPath() string {
	if v := app.Conf.GetConfigStringValue(constants.ConfigKurtosisPathKey); v != "" {
		return utils.ExpandHome(v)
	}
	return constants.KurtosisBinName
}

func (app *Fabric) ConfigFileExists() bool {
	return app.Conf.ConfigFileExists()
}
