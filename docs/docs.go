package docs

import _ "embed"

// OpenAPI is the description of the pen API served by the gateway.
//
//go:embed pen.openapi.yaml
var OpenAPI []byte
