package mdplugin

import (
	"errors"
	"fmt"
)

// Sentinel errors for library operations.
var (
	ErrInvalidRoot   = errors.New("invalid document root")
	ErrUnknownEngine = errors.New("unknown rendering engine")
	ErrRender        = errors.New("markdown rendering failed")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// NodeError describes the failure of a single marked element. The element keeps
// its original content when a NodeError is reported for it.
type NodeError struct {
	Marker  string
	Index   int
	Element string
	Err     error
}

func (e *NodeError) Error() string {
	if e.Element != "" {
		return fmt.Sprintf("%s element #%d %s: %v", e.Marker, e.Index, e.Element, e.Err)
	}
	return fmt.Sprintf("%s element #%d: %v", e.Marker, e.Index, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}
