// File: lixenwraith/nodeconf/doc.go

// Package nodeconf builds typed, validated configuration trees from layered
// raw input: YAML, JSON, JSONC or TOML files, environment variables and
// "path=value" command-line overrides.
//
// Features:
//   - Schemas declared in code with ordered union, literal and element-typed list types
//   - Nested nodes, node maps keyed by the input data and node lists
//   - Deterministic left-to-right merging where later sources win
//   - Strict (default) or lenient handling of undeclared keys, flex schemas that keep them
//   - "${a.b}" references between values, resolved after construction
//   - Depth-first traversal records for tree and table renderers
//   - Export to YAML, JSON, TOML and CBOR, plus a BLAKE3 fingerprint
//   - Decoding into Go structs, and schemas derived from structs
//
// Quick Start:
//
//	schema := nodeconf.NewSchema("server").
//	    Optional("host", "localhost", nodeconf.String).
//	    Optional("port", 8080, nodeconf.Int).
//	    Optional("mode", "dev", nodeconf.Literal(nodeconf.String, "dev", "prod")).
//	    MustBuild()
//
//	root, err := nodeconf.Quick(schema, "MYAPP_", "config.yaml", []string{"port=9090"})
//	if err != nil && !errors.Is(err, nodeconf.ErrConfigNotFound) {
//	    log.Fatal(err)
//	}
//
//	port, _ := root.Int("port")
//
// Default Precedence (highest to lowest):
//  1. Command-line overrides (port=9090)
//  2. Environment variables (MYAPP_PORT=9090)
//  3. Configuration file (config.yaml)
//  4. Programmatic defaults given to the builder
//  5. Schema defaults
//
// Casting:
// A value that already has one of the declared types is kept unchanged.
// Otherwise the declared types are tried in order and the first successful
// conversion wins: Union(Int, Float) turns "3" into int64(3) and "0.5" into
// 0.5, while Union(Int, String) keeps "3" as the string it already is.
//
// Errors:
// Construction fails fast with a *ValidationError carrying the dotted path
// of the offending parameter. Schema misuse is a *ConfigError, malformed
// overrides a *CLIParseError and failed conversions a *CastError; each
// matches its sentinel through errors.Is.
//
// Thread Safety:
// Constructed nodes are never modified and may be read concurrently.
package nodeconf
