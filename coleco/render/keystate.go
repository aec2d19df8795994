package render

import (
	"sync"

	"github.com/tanagra/coleco/input"
)

// KeyState tracks which controller bits are currently held down for both
// ports, and exposes a Poll method satisfying input.Poller.
type KeyState struct {
	mutex sync.Mutex
	word  [2]uint16
}

// Poll implements input.Poller.
func (k *KeyState) Poll(port int) uint16 {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	if port < 0 || port > 1 {
		return 0
	}
	return k.word[port]
}

// Press sets bits in a port's button word (1 = held, matching the packed
// numpad/joystick encoding the bus complements on read).
func (k *KeyState) Press(port int, bits uint16) {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	if port < 0 || port > 1 {
		return
	}
	k.word[port] |= bits
}

// Release clears bits in a port's button word.
func (k *KeyState) Release(port int, bits uint16) {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	if port < 0 || port > 1 {
		return
	}
	k.word[port] &^= bits
}

var _ input.Poller = (&KeyState{}).Poll
