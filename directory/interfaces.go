package directory

import (
	"github.com/feltstack/holdem/gateway"
	"github.com/feltstack/holdem/table"
)

// Compile-time checks that both concrete Services satisfy the
// narrower interfaces table and gateway each depend on.
var (
	_ Service             = (*HTTPClient)(nil)
	_ Service             = (*LocalDirectory)(nil)
	_ table.DirectoryClient = (*HTTPClient)(nil)
	_ table.DirectoryClient = (*LocalDirectory)(nil)
	_ gateway.TokenVerifier = (*HTTPClient)(nil)
	_ gateway.TokenVerifier = (*LocalDirectory)(nil)
)
