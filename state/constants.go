package state

import "time"

var (
	// AddressPrefix is the leading component of every channel address.
	AddressPrefix = "sec30"

	DefaultHelloPeriod     = 3  // seconds between hellos
	DefaultHelloMisses     = 10 // missed hello periods before a neighbor is dead
	DefaultRemoteAge       = 60 // seconds a relayed adjacency stays fresh
	DefaultStableThreshold = 25 // no-change receptions before a stability checkpoint
	DefaultTTL             = 16

	RemoteAgeTick = time.Second
	LspInterval   = time.Second * 5

	DispatchBuffer   = 128
	PreflightTimeout = time.Second * 30
)

// debug toggles, bound to run flags
var (
	DBG_log_inbound     = false
	DBG_log_publish     = false
	DBG_log_router      = false
	DBG_log_route_table = false
)
