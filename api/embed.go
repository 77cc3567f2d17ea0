// Package api carries the OpenAPI document compiled into the binary.
package api

import _ "embed"

//go:embed openapi.yml
var OpenAPI []byte
