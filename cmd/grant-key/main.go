package main

import (
	"os"

	"github.com/Theras-Labs/theras-boost-protocol/internal/platform/config"
	"github.com/Theras-Labs/theras-boost-protocol/internal/tools/grantkey"
)

func main() {
	if err := grantkey.Run(os.Stdout, nil); err != nil {
		config.Exitf("generate grant key: %v", err)
	}
}
