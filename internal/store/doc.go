// Package store keeps compiled LVM programs in SQLite.
//
// Programs are content addressed: the primary key is lvm.ProgramID, so
// saving the same program twice is a no-op. Every save also records a build
// row carrying a UUIDv7 build id, the source path and the parallel strategy
// used for the run.
//
// # Ordering
//
// Rows carry a logical seq assigned inside the insert transaction. Listing
// queries always use ORDER BY seq ASC, id COLLATE BINARY ASC, never wall
// time.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: 5-second wait on lock contention
//   - foreign_keys=ON: builds must reference a stored program
package store
