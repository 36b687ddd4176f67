package main

import (
	"log"

	"github.com/mogaika/assetcodec/pack"
	"github.com/mogaika/assetcodec/status"
	"github.com/mogaika/assetcodec/vfs"
)

// parseCheck decodes every known asset of rootfs and reports failures
// without stopping at them. It returns the number of failed files.
func parseCheck(rootfs vfs.Directory) int {
	names, err := rootfs.List()
	if err != nil {
		log.Fatal(err)
	}

	failed := 0
	for i, name := range names {
		if !pack.HasHandler(name) {
			continue
		}
		status.Progress(float32(i)/float32(len(names)), "Checking %s", name)
		if _, err := pack.GetInstanceHandler(rootfs, name); err != nil {
			log.Printf("[check] %s: %v", name, err)
			status.Error("%s: %v", name, err)
			failed++
		} else {
			log.Printf("[check] %s: ok", name)
		}
	}
	status.Info("Checked %d files, %d failed", len(names), failed)
	return failed
}
