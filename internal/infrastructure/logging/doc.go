// Package logging builds the log/slog logger shared by every FieldMesh
// component.
//
// Entries carry "service" and "version" attributes. Components derive
// their own logger with With("component", name), so a rejected device
// create logged by the API reads:
//
//	{"level":"WARN","msg":"request rejected","service":"fieldmesh","component":"api","entity":"device","code":"missing_reference",...}
//
// The logging section of config.yaml selects level (debug, info, warn,
// error), format (json or text) and output (stdout or stderr). Tests use
// Discard.
//
// Never log passwords, password hashes or broker credentials.
package logging
