package sexp

import (
	"fmt"
	"strconv"
)

// IsList reports whether n is a list rather than an atom.
func (n *Node) IsList() bool {
	return n != nil && n.Open
}

// Value returns the text of an atom; quoted strings come back unescaped.
// Lists return "".
func (n *Node) Value() string {
	switch {
	case n == nil:
		return ""
	case n.Quoted != nil:
		return unquote(*n.Quoted)
	case n.Atom != nil:
		return *n.Atom
	}
	return ""
}

// Name returns the keyword at the head of a list, e.g. "wire" for (wire ...).
func (n *Node) Name() string {
	if !n.IsList() || len(n.Items) == 0 || n.Items[0].IsList() {
		return ""
	}
	return n.Items[0].Value()
}

// Len is the number of items in a list including the keyword.
func (n *Node) Len() int {
	if !n.IsList() {
		return 0
	}
	return len(n.Items)
}

// Child returns the first sub-list whose keyword is key.
func (n *Node) Child(key string) (*Node, bool) {
	if !n.IsList() {
		return nil, false
	}
	for _, item := range n.Items {
		if item.IsList() && item.Name() == key {
			return item, true
		}
	}
	return nil, false
}

// Children returns every sub-list whose keyword is key, in file order.
func (n *Node) Children(key string) []*Node {
	var out []*Node
	if !n.IsList() {
		return out
	}
	for _, item := range n.Items {
		if item.IsList() && item.Name() == key {
			out = append(out, item)
		}
	}
	return out
}

// Text returns the atom at index i (0 is the keyword).
func (n *Node) Text(i int) (string, error) {
	if !n.IsList() {
		return "", fmt.Errorf("expected list at %s", n.Pos)
	}
	if i < 0 || i >= len(n.Items) {
		return "", fmt.Errorf("index %d out of bounds (length %d) in (%s)", i, len(n.Items), n.Name())
	}
	if n.Items[i].IsList() {
		return "", fmt.Errorf("expected atom at index %d in (%s)", i, n.Name())
	}
	return n.Items[i].Value(), nil
}

// Float parses the atom at index i as a float64.
func (n *Node) Float(i int) (float64, error) {
	s, err := n.Text(i)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse float %q: %w", s, err)
	}
	return v, nil
}

// Int parses the atom at index i as an int.
func (n *Node) Int(i int) (int, error) {
	s, err := n.Text(i)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("failed to parse int %q: %w", s, err)
	}
	return v, nil
}

// ChildText returns item i of the first (key ...) child, or "" if absent.
func (n *Node) ChildText(key string, i int) string {
	c, ok := n.Child(key)
	if !ok {
		return ""
	}
	s, _ := c.Text(i)
	return s
}

// ChildFloat returns item i of the first (key ...) child as a float.
func (n *Node) ChildFloat(key string, i int) (float64, bool) {
	c, ok := n.Child(key)
	if !ok {
		return 0, false
	}
	v, err := c.Float(i)
	return v, err == nil
}

// HasFlag reports whether a bare atom equal to flag appears in the list, or
// a (flag yes) child is present. KiCad 6/7 write the former, KiCad 8+ the
// latter.
func (n *Node) HasFlag(flag string) bool {
	if !n.IsList() {
		return false
	}
	for i, item := range n.Items {
		if i == 0 {
			continue
		}
		if !item.IsList() && item.Quoted == nil && item.Value() == flag {
			return true
		}
	}
	if c, ok := n.Child(flag); ok {
		v, _ := c.Text(1)
		return v == "" || v == "yes"
	}
	return false
}
