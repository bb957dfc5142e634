package bus

// Well-known bus endpoints and topic names, per spec §9 ("Global state":
// treat these as process-wide constants in a module dedicated to bus
// protocol, not hidden behind discovery).
const (
	// AggregatorEndpoint is where every Publisher connects to push a
	// frame onto the bus.
	AggregatorEndpoint = "inproc://webx-router/bus/aggregator"
	// FanoutEndpoint is where every Subscriber connects to receive the
	// bus's re-broadcast of every frame published to the aggregator.
	FanoutEndpoint = "inproc://webx-router/bus/fanout"
)

// Topic prefixes, per spec §4.1.
const (
	// TopicApp carries system lifecycle commands, notably CmdShutdown.
	TopicApp = "app"
	// TopicSession carries engine activity pings: "session:{hex}".
	TopicSession = "session"
)

// CmdShutdown is the reserved app-topic payload that tells every
// subscriber, and the bus itself, to stop.
const CmdShutdown = "app:shutdown"
