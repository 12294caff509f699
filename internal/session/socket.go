package session

import "sync"

// socketBuffer is how many frames a socket may fall behind before it is
// dropped.
const socketBuffer = 16

// Socket is one attached client connection as seen by an actor. The transport
// drains C and writes each frame to the wire; Done is closed once the actor
// stops delivering to it.
type Socket struct {
	frames chan []byte
	done   chan struct{}
	once   sync.Once
}

func NewSocket() *Socket {
	return &Socket{
		frames: make(chan []byte, socketBuffer),
		done:   make(chan struct{}),
	}
}

// C returns the frames to deliver, in commit order.
func (s *Socket) C() <-chan []byte {
	return s.frames
}

// Done is closed when the socket was dropped or its game shut down.
func (s *Socket) Done() <-chan struct{} {
	return s.done
}

func (s *Socket) send(frame []byte) bool {
	select {
	case s.frames <- frame:
		return true
	default:
		return false
	}
}

func (s *Socket) close() {
	s.once.Do(func() { close(s.done) })
}

// socketSet is the broadcast set of one actor. Only the actor goroutine
// touches it.
type socketSet map[*Socket]struct{}

func (set socketSet) attach(s *Socket) {
	set[s] = struct{}{}
}

func (set socketSet) detach(s *Socket) {
	if _, ok := set[s]; ok {
		delete(set, s)
		s.close()
	}
}

// broadcast sends frame to every socket and drops those that cannot keep up.
// It returns the number dropped.
func (set socketSet) broadcast(frame []byte) int {
	dropped := 0
	for s := range set {
		if !s.send(frame) {
			set.detach(s)
			dropped++
		}
	}
	return dropped
}

func (set socketSet) closeAll() {
	for s := range set {
		set.detach(s)
	}
}
