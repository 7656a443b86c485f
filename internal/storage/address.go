package storage

import (
	"fmt"
	"strings"
)

// DefaultNamespace tags addresses produced by this module.
const DefaultNamespace = "fluree"

// Address identifies stored content as "namespace:method://local-path".
// The method names the store implementation that produced the address; the
// local part is backend-specific but always reconstructible from a write
// result. Namespace and method must not contain ':'.
type Address struct {
	Namespace string
	Method    string
	Local     string
}

func (a Address) String() string {
	return BuildAddress(a.Namespace, a.Method, a.Local)
}

// BuildAddress joins the three address parts, sanitizing the local path so
// it begins with a double-slash separator.
func BuildAddress(namespace, method, path string) string {
	local := "//" + strings.TrimLeft(path, "/")
	return namespace + ":" + method + ":" + local
}

// ParseAddress splits an address into its three parts. The local part is
// returned with the leading double slash stripped.
func ParseAddress(address string) (Address, error) {
	parts := strings.SplitN(address, ":", 3)
	if len(parts) < 3 {
		return Address{}, fmt.Errorf("%w: %q", ErrMalformedAddress, address)
	}
	return Address{
		Namespace: parts[0],
		Method:    parts[1],
		Local:     strings.TrimPrefix(parts[2], "//"),
	}, nil
}
