/*
File Name:  Exit.go

Exit codes signal why the node exited. Callers are encouraged to log
additional details before exiting; the code alone only distinguishes
broad failure classes.
*/

package core

const (
	ExitSuccess           = 0 // Graceful shutdown, or the zero value before any failure.
	ExitErrorGeneric      = 1 // Multicast join failed, duplicate hash in catalog, catastrophic I/O.
	ExitErrorHashMismatch = 2 // Metadata whole_hash did not match the requested hash.
	ExitErrorLogInit      = 6 // Logger initialization failure.
	ExitErrorUDPBind      = 8 // UDP bind failure.
)
