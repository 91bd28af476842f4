// Package main provides the substrate CLI: version info and a backend
// probe for diagnosing the local compute environment.
package main

import (
	"fmt"
	"os"

	"github.com/causalml/substrate/backend/reference"
	"github.com/causalml/substrate/backend/webgpu"
	"github.com/causalml/substrate/config"
	"github.com/causalml/substrate/tensor"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("substrate %s\n", version)
			return
		case "probe":
			probe()
			return
		}
	}

	fmt.Println("substrate - backend-agnostic numeric layer")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  probe      Probe compute backends and print defaults")
}

func probe() {
	ref := reference.New()
	fmt.Printf("reference backend: %s\n", ref.Name())

	if webgpu.IsAvailable() {
		gpu, err := webgpu.New()
		if err != nil {
			fmt.Printf("webgpu backend:    unavailable (%v)\n", err)
		} else {
			fmt.Printf("webgpu backend:    %s\n", gpu.Name())
			gpu.Release()
		}
	} else {
		fmt.Println("webgpu backend:    unavailable")
	}

	cfg := config.Default()
	dtype, _ := cfg.DataType()
	fmt.Printf("default backend:   %s\n", cfg.Backend)
	fmt.Printf("default scalar:    %s\n", dtype)
	fmt.Printf("dispatch:          dim >= %d or batch >= %d\n",
		cfg.Dispatch.DimensionThreshold, cfg.Dispatch.BatchThreshold)
	fmt.Printf("gamma cache:       dim <= %d, %d MiB\n",
		cfg.Gamma.MaxDimension, cfg.Gamma.ByteBudgetMiB)

	// Tiny end-to-end sanity check on the reference backend.
	x := tensor.Eye[float64](4, ref)
	y, err := x.MatMul(x)
	if err != nil {
		fmt.Printf("self-check:        failed (%v)\n", err)
		return
	}
	fmt.Printf("self-check:        ok (I·I trace = %g)\n", trace(y))
}

func trace(t *tensor.Tensor[float64, *reference.Backend]) float64 {
	var sum float64
	n := t.Shape()[0]
	for i := 0; i < n; i++ {
		sum += t.At(i, i)
	}
	return sum
}
