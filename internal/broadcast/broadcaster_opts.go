package broadcast

type BroadcasterOpt func(*Broadcaster)

// WithMirror publishes every broadcast message to p as well.
func WithMirror(p Publisher) BroadcasterOpt {
	return func(b *Broadcaster) {
		b.mirror = p
	}
}
