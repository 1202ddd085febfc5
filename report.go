package mdplugin

import "errors"

// NodeResult is the outcome of rendering one marked element. Err is nil when
// the element content was replaced with Output.
type NodeResult struct {
	Marker  string
	Index   int
	Element Element
	Output  string
	Err     error
}

// OK reports whether the element was rendered.
func (r NodeResult) OK() bool {
	return r.Err == nil
}

// Report lists the per-element results of one Process call, block pass first.
type Report struct {
	Results []NodeResult
}

// Rendered returns the number of elements whose content was replaced.
func (r Report) Rendered() int {
	n := 0
	for _, res := range r.Results {
		if res.OK() {
			n++
		}
	}
	return n
}

// Failed returns the results of elements that kept their original content.
func (r Report) Failed() []NodeResult {
	var failed []NodeResult
	for _, res := range r.Results {
		if !res.OK() {
			failed = append(failed, res)
		}
	}
	return failed
}

// Err joins the errors of all failed elements, or returns nil.
func (r Report) Err() error {
	var errs []error
	for _, res := range r.Failed() {
		errs = append(errs, res.Err)
	}
	return errors.Join(errs...)
}
