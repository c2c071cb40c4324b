package ppl

// The inliner's scoped environment: a stack of frames mapping surface names
// to replacement nodes. Each frame carries the hygienic rename suffix of the
// binding construct that opened it.

import (
	"github.com/Tobias-Kohn/PyPPLCompiler/symbol"
)

// scopeFrame is one frame of the environment stack.
type scopeFrame struct {
	// suffix is appended to names bound in this frame when they are renamed.
	suffix string
	vars   map[symbol.ID]ASTNode
}

// scopeStack is the full environment. The bottom frame is the global scope
// with the empty suffix.
type scopeStack struct {
	frames []*scopeFrame
}

func newScopeStack() *scopeStack {
	return &scopeStack{frames: []*scopeFrame{{vars: map[symbol.ID]ASTNode{}}}}
}

// push enters a new scope with the given suffix.
func (s *scopeStack) push(suffix string) {
	s.frames = append(s.frames, &scopeFrame{suffix: suffix, vars: map[symbol.ID]ASTNode{}})
}

// pop leaves the innermost scope.
func (s *scopeStack) pop() {
	if len(s.frames) == 1 {
		Panicf(nil, InternalError, "pop of global scope")
	}
	s.frames = s.frames[:len(s.frames)-1]
}

// suffix returns the innermost scope's rename suffix.
func (s *scopeStack) suffix() string {
	return s.frames[len(s.frames)-1].suffix
}

// define binds a name in the innermost scope. Later definitions of the same
// name shadow earlier ones.
func (s *scopeStack) define(name symbol.ID, node ASTNode) {
	s.frames[len(s.frames)-1].vars[name] = node
}

// defineGlobal binds a name in the global scope.
func (s *scopeStack) defineGlobal(name symbol.ID, node ASTNode) {
	s.frames[0].vars[name] = node
}

// resolve searches the frames inner to outer.
func (s *scopeStack) resolve(name symbol.ID) (ASTNode, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if node, ok := s.frames[i].vars[name]; ok {
			return node, true
		}
	}
	return nil, false
}

// atGlobal reports whether the innermost scope is the global one.
func (s *scopeStack) atGlobal() bool { return len(s.frames) == 1 }
