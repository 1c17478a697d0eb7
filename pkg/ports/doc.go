/*
Package ports defines the driven ports (interfaces) of the atelier studio.

These interfaces decouple the session logic from external implementations,
allowing the studio to work with various storage backends.

# Key Interfaces

  - DocumentStore: Responsible for persisting and loading session documents.
  - DistributedLocker: Provides distributed locking for concurrent session access.
*/
package ports
