/*
Package session serializes access to studio sessions.

A Manager guards every session with a reference-counted mutex and, when a
ports.DistributedLocker is configured, with a lock shared by all replicas.
Update is the read-modify-write primitive the runtime builds on.
*/
package session
