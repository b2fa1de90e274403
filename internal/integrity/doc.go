// Package integrity defines the failure kinds shared by the entity rule
// packages (user, zone, sensor, device, reading).
//
// The entity store enforces no foreign keys. Each rule package performs its
// own existence checks before a create and dependency checks before a
// delete, and reports refusals as *Error values carrying a Kind. The Kind is
// the single place where a refusal is mapped to an HTTP status:
//
//	not_found          404
//	conflict           409
//	missing_reference  400
//	duplicate          409
//	invalid            400
//
// Anything without a Kind (driver failures, cancelled contexts) maps to 500.
//
// # Consistency
//
// A check and the write that follows it are separate store round-trips with
// no isolation between them. Two concurrent deletes of the same zone can both
// observe "no devices", and a device can be created against an owner removed
// between the lookup and the insert. Callers must not assume more.
package integrity
