// Package buildinfo carries the product identity reported in the Server
// header and the startup banner.
package buildinfo

// Product is the name announced in the Server header.
const Product = "tws"

// Version is overridden at link time with -ldflags "-X example.com/tws/internal/buildinfo.Version=...".
var Version = "0.1.0"

// ServerHeader returns the value of the Server response header, e.g. "tws/0.1.0".
func ServerHeader() string {
	return Product + "/" + Version
}
