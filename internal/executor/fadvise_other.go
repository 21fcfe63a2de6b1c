//go:build !linux

package executor

import "os"

// fadviseDontNeed is a no-op outside Linux; fadvise has no equivalent
// the stdlib exposes portably, and the staleness mode it defends
// against is specifically a Linux page-cache behavior.
func fadviseDontNeed(f *os.File) {}
