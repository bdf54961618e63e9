package shm

// clientRegion is the typed view over a per-client region's bytes (§4.8):
// changes-count, client-state, and the two byte rings (client->server,
// server->client).
type clientRegion struct {
	region  *Region
	changes *changesCount
	state   *uint32
	c2s     *ringBuffer // client -> server
	s2c     *ringBuffer
	ringCap int
}

func newClientRegion(r *Region, ringCap int) *clientRegion {
	if ringCap <= 0 {
		ringCap = DefaultRingCapacity
	}
	data := r.Bytes()

	c2sHeader := data[c2sRingHeaderOffset : c2sRingHeaderOffset+ringHeaderSize]
	c2sBuf := data[c2sRingBufferOffset : c2sRingBufferOffset+ringCap]

	s2cHeaderOffset := c2sRingBufferOffset + ringCap
	s2cBufferOffset := s2cHeaderOffset + ringHeaderSize
	s2cHeader := data[s2cHeaderOffset : s2cHeaderOffset+ringHeaderSize]
	s2cBuf := data[s2cBufferOffset : s2cBufferOffset+ringCap]

	return &clientRegion{
		region:  r,
		changes: newChangesCount(uint32At(data, clientChangesOffset)),
		state:   uint32At(data, clientStateOffset),
		c2s:     newRingBuffer(uint32At(c2sHeader, 0), uint32At(c2sHeader, 4), c2sBuf),
		s2c:     newRingBuffer(uint32At(s2cHeader, 0), uint32At(s2cHeader, 4), s2cBuf),
		ringCap: ringCap,
	}
}

// createClientRegion creates and initializes a fresh per-client region:
// writes the header magic and sets the client state to Created.
func createClientRegion(dir, name string, ringCap int) (*clientRegion, error) {
	size := ClientRegionSize(ringCap)
	r, err := Create(dir, name, size)
	if err != nil {
		return nil, err
	}
	writeMagic(r.Bytes())
	cr := newClientRegion(r, ringCap)
	cr.setState(ClientCreated)
	return cr, nil
}

// openClientRegion attaches to an existing per-client region created by a
// peer (server opening a client's region, or vice versa).
func openClientRegion(dir, name string, ringCap int) (*clientRegion, error) {
	size := ClientRegionSize(ringCap)
	r, err := Open(dir, name, size)
	if err != nil {
		return nil, err
	}
	if !checkMagic(r.Bytes()) {
		r.Close()
		return nil, errRegionMismatch(name)
	}
	return newClientRegion(r, ringCap), nil
}

func (c *clientRegion) State() ClientState { return ClientState(loadIndex(c.state)) }

func (c *clientRegion) setState(s ClientState) { storeIndex(c.state, uint32(s)) }

func (c *clientRegion) Close() error { return c.region.Close() }
