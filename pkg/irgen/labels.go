package irgen

import "fmt"

// loopContext is where break and continue jump to, and how many local
// slots were live when the loop started
type loopContext struct {
	cont string
	exit string
	live int64
}

// labelManager hands out labels named <tag>_<n>, with one counter per tag,
// and tracks the enclosing loops
type labelManager struct {
	counts map[string]int
	loops  []loopContext
}

func newLabelManager() *labelManager {
	return &labelManager{counts: make(map[string]int)}
}

func (m *labelManager) newLabel(tag string) string {
	m.counts[tag]++
	return fmt.Sprintf("%s_%d", tag, m.counts[tag])
}

func (m *labelManager) enterLoop(cont, exit string, live int64) {
	m.loops = append(m.loops, loopContext{cont: cont, exit: exit, live: live})
}

func (m *labelManager) exitLoop() {
	m.loops = m.loops[:len(m.loops)-1]
}

func (m *labelManager) innermost() (loopContext, bool) {
	if len(m.loops) == 0 {
		return loopContext{}, false
	}
	return m.loops[len(m.loops)-1], true
}
