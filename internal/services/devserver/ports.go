package devserver

import (
	"fmt"
	"net"
	"sort"
	"sync"

	"github.com/riordanpawley/azedarach/internal/config"
)

// PortAllocator assigns the shared ENV_NAME -> port map used by every dev
// server belonging to a single bead. Ports are drawn from one global set so
// no two beads, or two servers of different beads, ever collide.
type PortAllocator struct {
	mu     sync.Mutex
	global map[int]string // port -> beadID
	byBead map[string]map[string]int
}

// NewPortAllocator creates an empty PortAllocator.
func NewPortAllocator() *PortAllocator {
	return &PortAllocator{
		global: make(map[int]string),
		byBead: make(map[string]map[string]int),
	}
}

// Allocate assigns a port to every (ENV_NAME, basePort) pair across every
// server in servers, skipping duplicate env names after the first
// definition (servers are walked in sorted-name order for determinism).
// A bead that already has an allocation gets the same map back unchanged;
// the set is only ever computed once, when the first server for a bead
// starts.
func (p *PortAllocator) Allocate(beadID string, servers map[string]config.ServerConfig) (map[string]int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if existing, ok := p.byBead[beadID]; ok {
		return existing, nil
	}

	result := make(map[string]int)

	names := make([]string, 0, len(servers))
	for name := range servers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		envNames := make([]string, 0, len(servers[name].Ports))
		for env := range servers[name].Ports {
			envNames = append(envNames, env)
		}
		sort.Strings(envNames)

		for _, env := range envNames {
			if _, ok := result[env]; ok {
				continue // first definition wins
			}
			basePort := servers[name].Ports[env]
			port, err := p.findFreePort(basePort)
			if err != nil {
				return nil, err
			}
			result[env] = port
			p.global[port] = beadID
		}
	}

	p.byBead[beadID] = result
	return result, nil
}

// findFreePort returns the smallest port >= basePort not already in the
// global allocation set and actually available on the loopback interface.
// Caller must hold p.mu.
func (p *PortAllocator) findFreePort(basePort int) (int, error) {
	const maxAttempts = 1000
	for i := 0; i < maxAttempts; i++ {
		port := basePort + i
		if _, taken := p.global[port]; taken {
			continue
		}
		if !isPortAvailable(port) {
			continue
		}
		return port, nil
	}
	return 0, fmt.Errorf("no available ports found (tried %d ports starting from %d)", maxAttempts, basePort)
}

// Restore reinstates a previously allocated port map for beadID, merging it
// into the global set. Used when rebuilding state from persisted dev-server
// metadata after a restart; restoring the same map twice is harmless.
func (p *PortAllocator) Restore(beadID string, ports map[string]int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	merged := p.byBead[beadID]
	if merged == nil {
		merged = make(map[string]int, len(ports))
		p.byBead[beadID] = merged
	}
	for env, port := range ports {
		merged[env] = port
		p.global[port] = beadID
	}
}

// Release frees every port held by beadID's shared allocation. Called once
// all of a bead's dev servers have stopped.
func (p *PortAllocator) Release(beadID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, port := range p.byBead[beadID] {
		delete(p.global, port)
	}
	delete(p.byBead, beadID)
}

// Get returns the shared port map currently held by beadID, if any.
func (p *PortAllocator) Get(beadID string) (map[string]int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	m, ok := p.byBead[beadID]
	return m, ok
}

func isPortAvailable(port int) bool {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	ln.Close()
	return true
}
