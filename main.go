// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"github.com/eth-fabric/fabric/cmd"
)

func main() {
	cmd.Execute()
}
