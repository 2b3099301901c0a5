// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package netdata fetches the genesis/bootnode bundle and the JWT secret out
// of a running enclave. The bundle travels over the in-cluster file server's
// bulk HTTP channel when that service is up; the JWT secret always travels
// over the cluster's file transfer API because the file server does not
// expose it.
package netdata

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/eth-fabric/fabric/pkg/constants"
	"github.com/eth-fabric/fabric/pkg/enclave"
	"github.com/eth-fabric/fabric/pkg/utils"
	"github.com/eth-fabric/fabric/pkg/ux"
	"github.com/hashicorp/go-multierror"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// Fetcher pulls network data out of an enclave into local directories.
type Fetcher struct {
	orchestrator enclave.Orchestrator
	client       *http.Client
	log          *zap.SugaredLogger
}

func NewFetcher(orchestrator enclave.Orchestrator, log *zap.SugaredLogger) *Fetcher {
	return &Fetcher{
		orchestrator: orchestrator,
		client:       &http.Client{Timeout: constants.DownloadTimeout},
		log:          log,
	}
}

// FetchManifest downloads the genesis data artifact into stagingDir and
// returns the path of the genesis manifest inside it.
func (f *Fetcher) FetchManifest(ctx context.Context, enclaveName, stagingDir string) (string, error) {
	dest, err := f.ensureGenesisArtifact(ctx, enclaveName, stagingDir)
	if err != nil {
		return "", err
	}
	manifest, err := findFile(dest, constants.GenesisManifestFileName)
	if err != nil {
		return "", fmt.Errorf("%w: genesis manifest: %v", constants.ErrPreconditionMissing, err)
	}
	return manifest, nil
}

// FetchNetworkConfigs populates destRoot with the genesis bundle under
// genesis/ and the JWT secret under jwt/. Both subtrees are wiped first.
func (f *Fetcher) FetchNetworkConfigs(ctx context.Context, enclaveName, stagingDir, destRoot string) error {
	genesisDir := filepath.Join(destRoot, constants.GenesisDirName)
	jwtDir := filepath.Join(destRoot, constants.JWTDirName)
	if err := utils.ResetDir(genesisDir); err != nil {
		return fmt.Errorf("resetting %s: %w", genesisDir, err)
	}
	if err := utils.ResetDir(jwtDir); err != nil {
		return fmt.Errorf("resetting %s: %w", jwtDir, err)
	}

	if err := f.fetchGenesisBundle(ctx, enclaveName, stagingDir, genesisDir); err != nil {
		return err
	}
	return f.fetchJWT(ctx, enclaveName, stagingDir, jwtDir)
}

// fetchGenesisBundle tries the bulk archive first and falls back to the
// per-artifact path. Only the combined failure is fatal.
func (f *Fetcher) fetchGenesisBundle(ctx context.Context, enclaveName, stagingDir, genesisDir string) error {
	bulkErr := f.fetchBulk(ctx, enclaveName, stagingDir, genesisDir)
	if bulkErr == nil {
		return nil
	}
	ux.Logger.Warn("bulk channel unavailable, falling back to artifact download: %s", bulkErr)
	f.log.Debugw("bulk genesis fetch failed", "error", bulkErr)

	if fallbackErr := f.fetchGenesisArtifact(ctx, enclaveName, stagingDir, genesisDir); fallbackErr != nil {
		combined := multierror.Append(bulkErr, fallbackErr)
		return fmt.Errorf("%w: genesis bundle: confirm the file server service is enabled and re-run: %v",
			constants.ErrTransferFailed, combined)
	}
	return nil
}

func (f *Fetcher) fetchBulk(ctx context.Context, enclaveName, stagingDir, genesisDir string) error {
	base, err := f.orchestrator.PortURL(ctx, enclaveName, constants.FileServerServiceName, constants.HTTPPortID)
	if err != nil {
		return fmt.Errorf("resolving file server endpoint: %w", err)
	}
	archiveURL := utils.HTTPBaseURL(base) + constants.NetworkConfigArchivePath
	archivePath := filepath.Join(stagingDir, filepath.Base(constants.NetworkConfigArchivePath))

	err = utils.WithTransferRetry(ctx, func(ctx context.Context) error {
		return f.downloadFile(ctx, archiveURL, archivePath)
	})
	if err != nil {
		return fmt.Errorf("downloading %s: %w", archiveURL, err)
	}

	if err := ExtractTarGz(archivePath, genesisDir); err != nil {
		return fmt.Errorf("extracting %s: %w", archivePath, err)
	}
	return normalizeBundleRoot(genesisDir)
}

// fetchGenesisArtifact copies the genesis files out of the manifest artifact
// already sitting in staging, downloading it first if needed.
func (f *Fetcher) fetchGenesisArtifact(ctx context.Context, enclaveName, stagingDir, genesisDir string) error {
	dest, err := f.ensureGenesisArtifact(ctx, enclaveName, stagingDir)
	if err != nil {
		return err
	}
	manifest, err := findFile(dest, constants.GenesisManifestFileName)
	if err != nil {
		return fmt.Errorf("genesis artifact has no manifest: %w", err)
	}
	return utils.CopyDir(filepath.Dir(manifest), genesisDir)
}

func (f *Fetcher) fetchJWT(ctx context.Context, enclaveName, stagingDir, jwtDir string) error {
	dest := filepath.Join(stagingDir, constants.JWTArtifactName)
	if !utils.DirExists(dest) {
		err := utils.WithTransferRetry(ctx, func(ctx context.Context) error {
			return f.orchestrator.DownloadArtifact(ctx, enclaveName, constants.JWTArtifactName, dest)
		})
		if err != nil {
			return fmt.Errorf("%w: artifact %s: %v", constants.ErrTransferFailed, constants.JWTArtifactName, err)
		}
	}

	src, err := findFile(dest, constants.JWTFileName)
	if err != nil {
		// some cluster versions name the secret differently inside the artifact
		src, err = firstRegularFile(dest)
		if err != nil {
			return fmt.Errorf("%w: jwt secret: %v", constants.ErrPreconditionMissing, err)
		}
	}
	return utils.CopyFile(src, filepath.Join(jwtDir, constants.JWTFileName))
}

func (f *Fetcher) ensureGenesisArtifact(ctx context.Context, enclaveName, stagingDir string) (string, error) {
	dest := filepath.Join(stagingDir, constants.GenesisArtifactName)
	if utils.DirExists(dest) {
		return dest, nil
	}
	err := utils.WithTransferRetry(ctx, func(ctx context.Context) error {
		return f.orchestrator.DownloadArtifact(ctx, enclaveName, constants.GenesisArtifactName, dest)
	})
	if err != nil {
		return "", fmt.Errorf("%w: artifact %s: %v", constants.ErrTransferFailed, constants.GenesisArtifactName, err)
	}
	return dest, nil
}

func (f *Fetcher) downloadFile(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status code %d", url, resp.StatusCode)
	}

	out, err := os.Create(dest) //nolint:gosec // G304: Writing to the private staging area
	if err != nil {
		return err
	}
	defer out.Close()

	var w io.Writer = out
	if bar := transferBar(resp.ContentLength, filepath.Base(dest)); bar != nil {
		w = io.MultiWriter(out, bar)
		defer func() { _ = bar.Finish() }()
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return err
	}
	return out.Sync()
}

// transferBar returns nil when the size is unknown or stdout is not a
// terminal, so plain logs stay clean.
func transferBar(total int64, label string) *progressbar.ProgressBar {
	if total <= 0 || !isatty.IsTerminal(os.Stdout.Fd()) {
		return nil
	}
	return progressbar.NewOptions64(
		total,
		progressbar.OptionSetWriter(os.Stdout),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(15),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan]%s[reset]", label)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// normalizeBundleRoot lifts a lone wrapping directory so the fixed relative
// paths (bootnode.txt, bootstrap_nodes.txt, config.yaml) hold at the root.
func normalizeBundleRoot(dir string) error {
	if utils.FileExists(filepath.Join(dir, constants.GenesisManifestFileName)) {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		return nil
	}
	inner := filepath.Join(dir, entries[0].Name())
	innerEntries, err := os.ReadDir(inner)
	if err != nil {
		return err
	}
	for _, entry := range innerEntries {
		if err := os.Rename(filepath.Join(inner, entry.Name()), filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return os.Remove(inner)
}

func findFile(root, name string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == name {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", fmt.Errorf("no file named %s under %s", name, root)
	}
	return found, nil
}

func firstRegularFile(root string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", fmt.Errorf("no files under %s", root)
	}
	return found, nil
}
