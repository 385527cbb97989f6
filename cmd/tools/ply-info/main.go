// Command ply-info prints a summary of one or more captured point-cloud
// files: vertex count and coordinate bounds.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/banshee-data/cloudcapture/internal/capture/ply"
)

var headerOnly = flag.Bool("header", false, "Print only the header, skip bounds")

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		log.Fatal("usage: ply-info [-header] file.ply [file.ply ...]")
	}

	exitCode := 0
	for _, path := range flag.Args() {
		if err := describe(path); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

func describe(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if *headerOnly {
		hdr, err := ply.ReadHeader(f)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d vertices\n", path, hdr.VertexCount)
		return nil
	}

	cloud, hdr, err := ply.Read(f)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d vertices\n", path, hdr.VertexCount)
	if hdr.VertexCount == 0 {
		return nil
	}

	min := [3]float32{cloud.XYZ[0], cloud.XYZ[1], cloud.XYZ[2]}
	max := min
	for i := 0; i < hdr.VertexCount; i++ {
		for c := 0; c < 3; c++ {
			v := cloud.XYZ[i*3+c]
			if v < min[c] {
				min[c] = v
			}
			if v > max[c] {
				max[c] = v
			}
		}
	}
	fmt.Printf("  x: [%g, %g]  y: [%g, %g]  z: [%g, %g]\n",
		min[0], max[0], min[1], max[1], min[2], max[2])
	return nil
}
