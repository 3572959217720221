package sequencer

// Spec holds the configuration of a sequencer.
type Spec struct {
	// AckTimeout is the number of cycles a bus request may wait for its
	// acknowledge before the sequencer reports a fault. Zero waits forever.
	AckTimeout uint64
}

func defaults() Spec {
	return Spec{
		AckTimeout: 0,
	}
}
