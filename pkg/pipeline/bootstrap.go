// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/eth-fabric/fabric/pkg/artifacts"
	"github.com/eth-fabric/fabric/pkg/configpatch"
	"github.com/eth-fabric/fabric/pkg/constants"
	"github.com/eth-fabric/fabric/pkg/enclave"
	"github.com/eth-fabric/fabric/pkg/netdata"
	"github.com/eth-fabric/fabric/pkg/peering"
	"github.com/eth-fabric/fabric/pkg/utils"
	"github.com/eth-fabric/fabric/pkg/ux"
)

// Options configure one devnet bootstrap run.
type Options struct {
	EnclaveName  string
	PackageDir   string
	ArgsFile     string
	OutputRoot   string
	ComposeDir   string
	FeeRecipient string
	// SkipCluster bypasses teardown and bring-up and requires a live enclave.
	SkipCluster bool
}

// Bootstrap owns one full bring-up of the devnet, from enclave teardown to
// Compose activation.
type Bootstrap struct {
	orchestrator enclave.Orchestrator
	consolidator *artifacts.Consolidator
	fetcher      *netdata.Fetcher
	extractor    *configpatch.Extractor
	resolver     *peering.Resolver
	activator    *ComposeActivator
	opts         Options
	log          *zap.SugaredLogger

	// state handed from step to step
	stagingDir string
	params     *configpatch.ChainParameters
	identity   *peering.Identity
	activation *ActivationConfig
}

func New(orchestrator enclave.Orchestrator, opts Options, log *zap.SugaredLogger) *Bootstrap {
	if opts.FeeRecipient == "" {
		opts.FeeRecipient = constants.ZeroAddress
	}
	return &Bootstrap{
		orchestrator: orchestrator,
		consolidator: artifacts.NewConsolidator(orchestrator, log),
		fetcher:      netdata.NewFetcher(orchestrator, log),
		extractor:    configpatch.NewExtractor(orchestrator, log),
		resolver:     peering.NewResolver(orchestrator, log),
		activator:    NewComposeActivator(opts.ComposeDir, log),
		opts:         opts,
		log:          log,
	}
}

// Run executes the whole sequence. The private staging area is removed on
// every exit path, including an interrupt mid-run.
func (b *Bootstrap) Run(ctx context.Context) error {
	staging, err := os.MkdirTemp("", "fabric-staging-*")
	if err != nil {
		return fmt.Errorf("creating staging area: %w", err)
	}
	b.stagingDir = staging

	// Remove the staging area if user calls ctrl ^ c
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		for range c {
			_ = os.RemoveAll(staging)
			os.Exit(1)
		}
	}()
	defer func() {
		signal.Stop(c)
		_ = os.RemoveAll(staging)
	}()

	return NewSequencer(b.log, b.steps()...).Execute(ctx)
}

func (b *Bootstrap) steps() []Step {
	return []Step{
		{Name: "tear down previous enclave", Run: b.runTeardown, Skip: b.skipCluster, Advisory: true},
		{Name: "launch devnet cluster", Run: b.runBringUp, Skip: b.skipCluster},
		{Name: "extract chain parameters", Run: b.runParameterExtraction},
		{Name: "patch chain parameters", Run: b.runChainPatch},
		{Name: "consolidate validator keys", Run: b.runConsolidation},
		{Name: "fetch network data", Run: b.runNetworkFetch},
		{Name: "resolve builder peer identity", Run: b.runPeerResolution},
		{Name: "clean downstream databases", Run: b.runDatabaseCleanup},
		{Name: "generate deployment configs", Run: b.runConfigGeneration},
		{Name: "activate downstream services", Run: b.runActivation},
	}
}

func (b *Bootstrap) skipCluster() bool {
	return b.opts.SkipCluster
}

func (b *Bootstrap) keysDir() string {
	return filepath.Join(b.opts.OutputRoot, constants.KeysDirName)
}

func (b *Bootstrap) secretsDir() string {
	return filepath.Join(b.opts.OutputRoot, constants.SecretsDirName)
}

func (b *Bootstrap) networkConfigsDir() string {
	return filepath.Join(b.opts.OutputRoot, constants.NetworkConfigsDirName)
}

func (b *Bootstrap) configDir() string {
	return filepath.Join(b.opts.ComposeDir, constants.ComposeConfigDirName)
}

func (b *Bootstrap) runTeardown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.EnclaveQueryTimeout)
	defer cancel()
	exists, err := b.orchestrator.EnclaveExists(ctx, b.opts.EnclaveName)
	if err != nil {
		return err
	}
	if !exists {
		ux.Logger.PrintToUser("no enclave named %s, nothing to remove", b.opts.EnclaveName)
		return nil
	}
	if err := b.orchestrator.RemoveEnclave(ctx, b.opts.EnclaveName); err != nil {
		return err
	}
	ux.Logger.PrintToUser("removed previous enclave %s", b.opts.EnclaveName)
	return nil
}

func (b *Bootstrap) runBringUp(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.ClusterBringUpTimeout)
	defer cancel()
	ux.Logger.PrintToUser("launching %s from %s, this takes a few minutes", b.opts.EnclaveName, b.opts.PackageDir)
	cancelWait := make(chan struct{})
	defer close(cancelWait)
	go ux.PrintWait(cancelWait)
	if err := b.orchestrator.RunPackage(ctx, b.opts.EnclaveName, b.opts.PackageDir, b.opts.ArgsFile); err != nil {
		return err
	}
	ux.Logger.GreenCheckmarkToUser("devnet cluster %s is up", b.opts.EnclaveName)
	return nil
}

func (b *Bootstrap) runParameterExtraction(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DownloadTimeout)
	defer cancel()
	exists, err := b.orchestrator.EnclaveExists(ctx, b.opts.EnclaveName)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: enclave %s is not running", constants.ErrPreconditionMissing, b.opts.EnclaveName)
	}
	manifest, err := b.fetcher.FetchManifest(ctx, b.opts.EnclaveName, b.stagingDir)
	if err != nil {
		return err
	}
	params, err := configpatch.ReadChainParameters(manifest)
	if err != nil {
		return err
	}
	b.params = params
	ux.Logger.PrintToUser(
		"chain %d: genesis at %d, %ds slots, fork version %s",
		params.ChainID, params.GenesisTimeSecs, params.SlotTimeSecs, params.GenesisForkVersion,
	)
	return nil
}

func (b *Bootstrap) runChainPatch(_ context.Context) error {
	path := filepath.Join(b.configDir(), constants.FabricConfigFileName)
	line, err := configpatch.PatchChainLine(path, b.params)
	if err != nil {
		return err
	}
	ux.Logger.GreenCheckmarkToUser("%s now pins %s", constants.FabricConfigFileName, line)
	return nil
}

func (b *Bootstrap) runConsolidation(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DownloadTimeout)
	defer cancel()
	_, err := b.consolidator.Consolidate(ctx, b.opts.EnclaveName, b.stagingDir, b.keysDir(), b.secretsDir())
	return err
}

func (b *Bootstrap) runNetworkFetch(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DownloadTimeout)
	defer cancel()
	return b.fetcher.FetchNetworkConfigs(ctx, b.opts.EnclaveName, b.stagingDir, b.networkConfigsDir())
}

func (b *Bootstrap) runPeerResolution(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.EnclaveQueryTimeout)
	defer cancel()
	identity, err := b.resolver.Resolve(ctx, b.opts.EnclaveName, constants.BuilderBeaconServiceName)
	if err != nil {
		return err
	}
	b.identity = identity
	return nil
}

func (b *Bootstrap) runDatabaseCleanup(_ context.Context) error {
	if err := CleanDatabases(b.opts.ComposeDir); err != nil {
		return err
	}
	ux.Logger.PrintToUser("removed stale databases under %s", filepath.Join(b.opts.ComposeDir, constants.DBDirName))
	return nil
}

func (b *Bootstrap) runConfigGeneration(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.EnclaveQueryTimeout)
	defer cancel()
	if _, err := b.extractor.ExtractAndPatch(ctx, b.opts.EnclaveName, b.configDir(), configpatch.DefaultPortMappings()); err != nil {
		return err
	}
	cfg, err := b.buildActivationConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	path, err := cfg.WriteEnvFile(b.opts.ComposeDir)
	if err != nil {
		return err
	}
	b.activation = cfg
	ux.Logger.GreenCheckmarkToUser("activation environment written to %s", path)
	return nil
}

func (b *Bootstrap) runActivation(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.ComposeTimeout)
	defer cancel()

	tracker := ux.NewStepTracker(ux.Logger, constants.ComposeSlowWarning)
	tracker.Start("starting downstream services")
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				tracker.CheckWarn()
			case <-done:
				return
			}
		}
	}()

	if err := b.activator.Up(ctx, b.activation); err != nil {
		tracker.Failed(err.Error())
		return err
	}
	tracker.CompleteSuccess()
	return nil
}

func (b *Bootstrap) buildActivationConfig() (*ActivationConfig, error) {
	bootnodes, err := b.readNodeList(constants.BootnodeFileName)
	if err != nil {
		return nil, err
	}
	bootstrapNodes, err := b.readNodeList(constants.BootstrapNodesFileName)
	if err != nil {
		return nil, err
	}
	return &ActivationConfig{
		PeerMultiaddr:    b.identity.Multiaddr,
		PeerID:           b.identity.PeerID,
		ELBootnodes:      bootnodes,
		CLBootstrapNodes: bootstrapNodes,
		FeeRecipient:     b.opts.FeeRecipient,
		JWTPath:          filepath.Join(b.networkConfigsDir(), constants.JWTDirName, constants.JWTFileName),
		KeysPath:         b.keysDir(),
		SecretsPath:      b.secretsDir(),
		GenesisPath:      filepath.Join(b.networkConfigsDir(), constants.GenesisDirName),
	}, nil
}

// readNodeList loads one bootnode file from the fetched genesis tree.
// Activation cannot peer without these, so a missing file is fatal.
func (b *Bootstrap) readNodeList(name string) ([]string, error) {
	path := filepath.Join(b.networkConfigsDir(), constants.GenesisDirName, name)
	lines, err := utils.ReadNonEmptyLines(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", constants.ErrPreconditionMissing, path, err)
	}
	return lines, nil
}
