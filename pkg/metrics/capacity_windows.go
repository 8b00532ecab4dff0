//go:build windows

package metrics

// RegisterCapacity is a no-op on Windows; statfs sampling is only wired on
// Unix-like systems.
func RegisterCapacity(root string) {}
