// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package testutils

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/stretchr/testify/require"
)

// CreateTarGz packs the contents of src into a gzipped tarball at dest.
func CreateTarGz(require *require.Assertions, src string, dest string) {
	tgz, err := os.Create(dest) //nolint:gosec // G304: Test utility for creating archives
	require.NoError(err)
	defer func() { _ = tgz.Close() }()

	gw := gzip.NewWriter(tgz)
	defer func() { _ = gw.Close() }()

	tarball := tar.NewWriter(gw)
	defer func() { _ = tarball.Close() }()

	err = filepath.Walk(src,
		func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if path == src {
				return nil
			}
			header, err := tar.FileInfoHeader(info, info.Name())
			if err != nil {
				return err
			}
			rel := strings.TrimPrefix(strings.TrimPrefix(path, src), string(os.PathSeparator))
			header.Name = filepath.ToSlash(rel)

			if err := tarball.WriteHeader(header); err != nil {
				return err
			}

			if info.IsDir() {
				return nil
			}

			file, err := os.Open(path) //nolint:gosec // G304: Test utility, path from internal walk
			if err != nil {
				return err
			}

			defer func() {
				err := file.Close()
				require.NoError(err)
			}()
			_, err = io.Copy(tarball, file)
			return err
		})
	require.NoError(err)
}
