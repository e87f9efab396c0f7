package events

// Subscriber receives raw event payloads, as used by `agl watch`.
type Subscriber interface {
	// Subscribe delivers payloads published on subject (wildcards allowed)
	// until the returned cancel function is called.
	Subscribe(subject string) (<-chan []byte, func(), error)
	Close() error
}
