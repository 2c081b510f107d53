// Package main provides the Aster ML Framework CLI.
package main

import (
	"fmt"
	"os"

	"github.com/aster-ml/aster/checkpoint"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("Aster ML Framework %s\n", version)
			return
		case "inspect":
			if len(os.Args) < 3 {
				fmt.Fprintln(os.Stderr, "usage: aster inspect <file.aster>")
				os.Exit(1)
			}
			if err := inspect(os.Args[2]); err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
				os.Exit(1)
			}
			return
		}
	}

	fmt.Println("Aster ML Framework - Autodiff and Neural Networks for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version              Show version")
	fmt.Println("  inspect <file>       Describe a .aster checkpoint")
}

func inspect(path string) error {
	stateDict, header, err := checkpoint.Load(path)
	if err != nil {
		return err
	}

	fmt.Printf("format version: %d (aster %s, created %s)\n",
		header.FormatVersion, header.AsterVersion, header.CreatedAt.Format("2006-01-02 15:04:05"))
	if header.Training != nil {
		fmt.Printf("training: epoch %d, step %d, loss %g",
			header.Training.Epoch, header.Training.Step, header.Training.Loss)
		if header.Training.Optimizer != "" {
			fmt.Printf(" (%s)", header.Training.Optimizer)
		}
		fmt.Println()
	}
	for k, v := range header.Metadata {
		fmt.Printf("metadata: %s = %s\n", k, v)
	}

	var total int64
	for _, meta := range header.Tensors {
		fmt.Printf("  %-30s %-8s %v (%d bytes)\n", meta.Name, meta.DType, meta.Shape, meta.Size)
		total += meta.Size
	}
	fmt.Printf("%d tensors, %d bytes of parameters\n", len(stateDict), total)
	return nil
}
