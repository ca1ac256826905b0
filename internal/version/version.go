// ABOUTME: Version and product identity constants
// ABOUTME: Shared by the control server hello, mDNS TXT records, and the CLI
package version

const (
	// Version is the ToneForge release version.
	Version = "0.1.0"

	// Product is the human-readable product name.
	Product = "ToneForge"

	// Manufacturer identifies the project organization.
	Manufacturer = "ToneForge Audio"
)
