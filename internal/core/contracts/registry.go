package contracts

import "context"

// Registry tracks live client connections on this node and the snapshot
// streams each connection holds open.
type Registry interface {
	// Register adds a connection to the local node memory.
	Register(c Client)
	// Unregister removes the connection and cancels all of its streams.
	Unregister(c Client)
	// AddSubscription records a stream's cancel func under the given key,
	// cancelling any previous stream held by the client under the same key.
	AddSubscription(c Client, key string, cancel func())
	// DropSubscription cancels and forgets the stream under the key, if any.
	DropSubscription(c Client, key string)
}

// Client represents the minimal interface required for the Registry to
// communicate with an individual WebSocket connection.
type Client interface {
	IdentityID() string
	Send(ctx context.Context, data []byte) error
	Close()
}
