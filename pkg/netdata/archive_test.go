// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package netdata

import (
	"archive/tar"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/eth-fabric/fabric/internal/testutils"
)

func TestExtractTarGzRoundTrip(t *testing.T) {
	require := testutils.SetupTest(t)

	src := t.TempDir()
	require.NoError(os.MkdirAll(filepath.Join(src, "nested"), 0o755))
	require.NoError(os.WriteFile(filepath.Join(src, "bootnode.txt"), []byte("enode://abc@10.0.0.1:30303\n"), 0o644))
	require.NoError(os.WriteFile(filepath.Join(src, "nested", "run.sh"), []byte("#!/bin/sh\n"), 0o755))

	archive := filepath.Join(t.TempDir(), "bundle.tar.gz")
	testutils.CreateTarGz(require, src, archive)

	dst := filepath.Join(t.TempDir(), "out")
	require.NoError(ExtractTarGz(archive, dst))

	data, err := os.ReadFile(filepath.Join(dst, "bootnode.txt"))
	require.NoError(err)
	require.Equal("enode://abc@10.0.0.1:30303\n", string(data))

	info, err := os.Stat(filepath.Join(dst, "nested", "run.sh"))
	require.NoError(err)
	require.Equal(os.FileMode(0o755), info.Mode().Perm())
}

func TestExtractTarGzRejectsPathTraversal(t *testing.T) {
	require := testutils.SetupTest(t)

	archive := filepath.Join(t.TempDir(), "evil.tar.gz")
	out, err := os.Create(archive)
	require.NoError(err)
	gw := gzip.NewWriter(out)
	tw := tar.NewWriter(gw)
	content := []byte("pwned")
	require.NoError(tw.WriteHeader(&tar.Header{
		Name:     "../escape.txt",
		Typeflag: tar.TypeReg,
		Mode:     0o644,
		Size:     int64(len(content)),
	}))
	_, err = tw.Write(content)
	require.NoError(err)
	require.NoError(tw.Close())
	require.NoError(gw.Close())
	require.NoError(out.Close())

	parent := t.TempDir()
	dst := filepath.Join(parent, "out")
	err = ExtractTarGz(archive, dst)
	require.ErrorContains(err, "invalid file path in archive")
	require.NoFileExists(filepath.Join(parent, "escape.txt"))
}
