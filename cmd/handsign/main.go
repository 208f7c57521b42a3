// Command handsign collects hand-sign samples, trains a classifier on them
// and recognizes signs live from a camera.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
