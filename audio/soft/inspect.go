package soft

import "github.com/simukka/trance/audio"

// The methods below let tests see the wiring a generator left behind.

func nodeOf(n audio.Node) *node {
	if b, ok := n.(baser); ok {
		return b.base()
	}
	return nil
}

// InputCount returns how many nodes feed n.
func (c *Context) InputCount(n audio.Node) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b := nodeOf(n); b != nil {
		return len(b.inputs)
	}
	return 0
}

// ParamInputCount returns how many nodes modulate p.
func (c *Context) ParamInputCount(p audio.Param) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sp, ok := p.(*Param); ok {
		return len(sp.inputs)
	}
	return 0
}

// ActiveSources counts started sources that have not been stopped.
func (c *Context) ActiveSources() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, n := range c.nodes {
		if n.source && n.sounding() {
			count++
		}
	}
	return count
}

// AudibleSources counts sounding sources with a path to the destination.
func (c *Context) AudibleSources() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, n := range c.nodes {
		if n.source && n.sounding() && c.reaches(n, c.dest) {
			count++
		}
	}
	return count
}

// ConnectedNodes returns the kinds of every node that still has an outgoing
// connection.
func (c *Context) ConnectedNodes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var kinds []string
	for _, n := range c.nodes {
		if len(n.outputs) > 0 || len(n.targets) > 0 {
			kinds = append(kinds, n.kind)
		}
	}
	return kinds
}

// Reaches reports whether src feeds dst directly, through other nodes, or
// through a parameter of a node on the way.
func (c *Context) Reaches(src, dst audio.Node) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, d := nodeOf(src), nodeOf(dst)
	if s == nil || d == nil {
		return false
	}
	return c.reaches(s, d)
}

func (c *Context) reaches(s, d *node) bool {
	seen := map[*node]bool{}
	stack := []*node{s}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == d {
			return true
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		stack = append(stack, n.outputs...)
		for _, p := range n.targets {
			if p.owner != nil {
				stack = append(stack, p.owner)
			}
		}
	}
	return false
}

// NodeCount returns how many nodes the context has ever created.
func (c *Context) NodeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.created
}

// LiveNodes returns how many nodes the context still tracks: the
// destination plus every node that is connected or sounding.
func (c *Context) LiveNodes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.nodes)
}

// MediaPlayers returns how many media players are attached and how many of
// them hold an open file.
func (c *Context) MediaPlayers() (attached, open int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.media {
		if m.file != nil {
			open++
		}
	}
	return len(c.media), open
}
