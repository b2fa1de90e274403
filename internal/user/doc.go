// Package user manages FieldMesh user accounts.
//
// Users own devices. A user cannot be deleted while any device names it as
// owner; the check is made against the device store immediately before the
// delete and is not isolated from concurrent writers.
//
// Passwords are optional. When given they are stored as Argon2id PHC
// strings and never serialised.
package user
