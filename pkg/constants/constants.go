// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package constants

import (
	"time"
)

const (
	DefaultPerms755        = 0o755
	WriteReadReadPerms     = 0o644
	WriteReadUserOnlyPerms = 0o600

	AppName     = "fabric"
	BaseDirName = ".fabric"
	LogDir      = "logs"
	LogFileName = "fabric.log"

	DefaultConfigFileName = "cli"
	DefaultConfigFileType = "json"

	MaxLogFileSize   = 4
	MaxNumOfLogFiles = 5

	// enclave defaults
	DefaultEnclaveName = "preconf-testnet"
	DefaultPackageDir  = "./kurtosis"
	DefaultArgsFile    = "./kurtosis/network_params.yaml"
	DefaultComposeDir  = "."

	KurtosisBinName    = "kurtosis"
	MinKurtosisVersion = "v1.3.0"
	DockerBinName      = "docker"

	// cluster services the pipeline reads from
	BeaconServiceName        = "cl-1-lighthouse-geth"
	ExecutionServiceName     = "el-1-geth-lighthouse"
	RelayServiceName         = "mev-relay-api"
	BuilderBeaconServiceName = "cl-2-lighthouse-reth-builder"
	FileServerServiceName    = "apache"

	HTTPPortID = "http"
	RPCPortID  = "rpc"

	// fixed p2p listen port advertised by the consensus clients
	P2PPort = 9000

	// beacon API route returning the node's libp2p identity
	IdentityEndpointPath = "/eth/v1/node/identity"

	// launch argument carrying the address a node advertises for itself
	ENRAddressArg = "--enr-address"

	// named artifacts with fixed identifiers
	GenesisArtifactName = "el_cl_genesis_data"
	JWTArtifactName     = "jwt_file"

	// consolidated output tree, relative to the output root
	KeysDirName             = "keys"
	SecretsDirName          = "secrets"
	NetworkConfigsDirName   = "network-configs"
	GenesisDirName          = "genesis"
	JWTDirName              = "jwt"
	JWTFileName             = "jwtsecret"
	BootnodeFileName        = "bootnode.txt"
	BootstrapNodesFileName  = "bootstrap_nodes.txt"
	GenesisManifestFileName = "config.yaml"

	// file server bulk channel
	NetworkConfigArchivePath = "/network-config.tar.gz"

	// downstream deployment tree, relative to the compose dir
	ComposeFileName        = "docker-compose.yml"
	ComposeConfigDirName   = "config"
	FabricConfigFileName   = "fabric.toml"
	RbuilderConfigFileName = "rbuilder.toml"
	ComposeEnvFileName     = ".env"
	DBDirName              = "db"
	DBGatewayDirName       = "gateway"
	DBProposerDirName      = "proposer"
	DBRelayDirName         = "relay"

	BackupSuffix = ".bak"

	// reserved keyword owning the chain-parameter line
	ChainLineKey = "chain"

	// accounts
	ZeroAddress = "0x0000000000000000000000000000000000000000"

	// how many consolidated key identifiers to echo back for verification
	KeyListingSample = 5

	// external call limits
	EnclaveQueryTimeout   = 30 * time.Second
	DownloadTimeout       = 5 * time.Minute
	HTTPRequestTimeout    = 15 * time.Second
	ClusterBringUpTimeout = 15 * time.Minute
	ComposeTimeout        = 5 * time.Minute

	// image pulls can stretch an activation; warn once past this
	ComposeSlowWarning = time.Minute

	TransferRetryBase  = 2 * time.Second
	TransferMaxRetries = 3

	// environment overrides
	EnvEnclaveName  = "FABRIC_ENCLAVE"
	EnvOutputRoot   = "FABRIC_OUTPUT_ROOT"
	EnvKurtosisPath = "FABRIC_KURTOSIS_PATH"

	// viper keys the env overrides bind to
	ConfigEnclaveKey      = "enclave"
	ConfigOutputRootKey   = "output-root"
	ConfigKurtosisPathKey = "kurtosis-path"
)
