package router

import (
	"fmt"
	"strings"

	"github.com/wefthq/weft/core/pipeline"
)

// node is one segment of the routing tree. Static children win over a
// parameter child, which wins over a trailing wildcard. Parameters are
// declared as {name} segments, the wildcard as a final * segment capturing
// the rest of the path.
type node struct {
	children map[string]*node
	param    *node
	paramKey string
	wildcard *node
	handlers map[string]pipeline.Composed
}

func newNode() *node {
	return &node{}
}

// insert registers a composed handler for method under pattern. Invalid
// patterns and duplicate registrations panic: both are programmer errors
// detectable at startup.
func (n *node) insert(method, pattern string, h pipeline.Composed) {
	segments := splitPath(pattern)
	cur := n

	for i, seg := range segments {
		switch {
		case seg == "*":
			if i != len(segments)-1 {
				panic(fmt.Errorf("%w: '%s'", ErrWildcardPosition, pattern))
			}
			if cur.wildcard == nil {
				cur.wildcard = newNode()
			}
			cur = cur.wildcard

		case strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}"):
			key := seg[1 : len(seg)-1]
			if key == "" {
				panic(fmt.Errorf("%w: empty parameter in '%s'", ErrInvalidPattern, pattern))
			}
			if cur.param == nil {
				cur.param = newNode()
				cur.paramKey = key
			} else if cur.paramKey != key {
				panic(fmt.Errorf("%w: '%s' vs '%s' in '%s'", ErrDuplicateParam, cur.paramKey, key, pattern))
			}
			cur = cur.param

		default:
			if cur.children == nil {
				cur.children = make(map[string]*node)
			}
			child, ok := cur.children[seg]
			if !ok {
				child = newNode()
				cur.children[seg] = child
			}
			cur = child
		}
	}

	if cur.handlers == nil {
		cur.handlers = make(map[string]pipeline.Composed)
	}
	if _, exists := cur.handlers[method]; exists {
		panic(fmt.Errorf("%w: %s '%s'", ErrDuplicateRoute, method, pattern))
	}
	cur.handlers[method] = h
}

// match resolves a request path. On a path match without a method match it
// returns the methods that would have matched, for the Allow header.
func (n *node) match(method, path string) (pipeline.Composed, map[string]string, []string) {
	segments := splitPath(path)
	params := make(map[string]string)

	target := n.walk(segments, params)
	if target == nil || target.handlers == nil {
		return nil, nil, nil
	}

	if h, ok := target.handlers[method]; ok {
		return h, params, nil
	}

	allowed := make([]string, 0, len(target.handlers))
	for m := range target.handlers {
		allowed = append(allowed, m)
	}
	return nil, nil, allowed
}

// walk descends the tree trying static children first, then the parameter
// child, then the wildcard. Backtracking is handled by the recursion: a
// static branch that dead-ends falls through to the parameter branch.
func (n *node) walk(segments []string, params map[string]string) *node {
	if len(segments) == 0 {
		if n.handlers != nil {
			return n
		}
		// An empty remainder still matches a wildcard route.
		if n.wildcard != nil && n.wildcard.handlers != nil {
			params["*"] = ""
			return n.wildcard
		}
		return nil
	}

	seg := segments[0]
	rest := segments[1:]

	if child, ok := n.children[seg]; ok {
		if target := child.walk(rest, params); target != nil {
			return target
		}
	}

	if n.param != nil && seg != "" {
		if target := n.param.walk(rest, params); target != nil {
			params[n.paramKey] = seg
			return target
		}
	}

	if n.wildcard != nil && n.wildcard.handlers != nil {
		params["*"] = strings.Join(segments, "/")
		return n.wildcard
	}

	return nil
}

// splitPath breaks a cleaned path into segments, dropping the leading
// slash. The root path yields no segments.
func splitPath(path string) []string {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
