package shm

// serverRegion is the typed view over a server's shm region: header,
// server-state, and the MPSC ServerEventQueue.
type serverRegion struct {
	region   *Region
	state    *uint32
	events   *serverEventQueue
	capacity int
}

func newServerRegion(r *Region, capacity int) *serverRegion {
	if capacity <= 0 {
		capacity = DefaultEventQueueCapacity
	}
	data := r.Bytes()
	return &serverRegion{
		region:   r,
		state:    uint32At(data, serverStateOffset),
		events:   newServerEventQueue(data, capacity),
		capacity: capacity,
	}
}

func createServerRegion(dir, name string, capacity int) (*serverRegion, error) {
	size := ServerRegionSize(capacity)
	r, err := Create(dir, name, size)
	if err != nil {
		return nil, err
	}
	writeMagic(r.Bytes())
	sr := newServerRegion(r, capacity)
	sr.setState(ServerInitializing)
	return sr, nil
}

func openServerRegion(dir, name string, capacity int) (*serverRegion, error) {
	size := ServerRegionSize(capacity)
	r, err := Open(dir, name, size)
	if err != nil {
		return nil, err
	}
	if !checkMagic(r.Bytes()) {
		r.Close()
		return nil, errRegionMismatch(name)
	}
	return newServerRegion(r, capacity), nil
}

func (s *serverRegion) State() ServerState { return ServerState(loadIndex(s.state)) }

func (s *serverRegion) setState(st ServerState) { storeIndex(s.state, uint32(st)) }

func (s *serverRegion) Close() error { return s.region.Close() }
