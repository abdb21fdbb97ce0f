// Package ast drives renderers over a parsed markup tree.
//
// Process hands the root to an element callback. Callbacks never see
// descendants unless they ask for them with State.VisitChildren, which lets
// a renderer skip or special-case whole subtrees. The accumulator carried in
// State.Data is the only channel through which callbacks share results.
package ast

import (
	"github.com/FocuswithJustin/boarpig/core/errors"
	"github.com/FocuswithJustin/boarpig/core/markup"
)

// ElementFunc handles an element.
type ElementFunc[A any] func(s *State[A], e *markup.Element) error

// TextFunc handles a text run.
type TextFunc[A any] func(s *State[A], t *markup.Text) error

// State is the visitor state for one node.
type State[A any] struct {
	// Node is the node being visited.
	Node markup.Node
	// Parent is the element holding Node, or nil at the root.
	Parent *markup.Element
	// Data is the caller's accumulator, shared by every State of a walk.
	Data A

	onElement ElementFunc[A]
	onText    TextFunc[A]
}

// Process dispatches root to onElement with data as accumulator.
func Process[A any](onElement ElementFunc[A], onText TextFunc[A], root *markup.Element, data A) error {
	if root == nil || root.Tag != markup.TagProject {
		return &errors.ProtocolError{Message: "tree is not rooted at a project element"}
	}
	s := &State[A]{
		Node:      root,
		Data:      data,
		onElement: onElement,
		onText:    onText,
	}
	return onElement(s, root)
}

// VisitChildren dispatches every child of the current node in order.
func (s *State[A]) VisitChildren() error {
	e, ok := s.Node.(*markup.Element)
	if !ok {
		return nil
	}
	return s.Visit(e.Children)
}

// Visit dispatches nodes as if they were children of the current node.
// Renderers use it to emit a locally rewritten child list without
// modifying the tree.
func (s *State[A]) Visit(nodes []markup.Node) error {
	parent, _ := s.Node.(*markup.Element)
	for _, n := range nodes {
		child := &State[A]{
			Node:      n,
			Parent:    parent,
			Data:      s.Data,
			onElement: s.onElement,
			onText:    s.onText,
		}
		var err error
		switch n := n.(type) {
		case *markup.Element:
			if !n.Tag.Valid() {
				return &errors.ProtocolError{Message: "element with unrecognized tag " + n.Tag.String()}
			}
			err = s.onElement(child, n)
		case *markup.Text:
			err = s.onText(child, n)
		default:
			return &errors.ProtocolError{Message: "child is neither an element nor text"}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// ParentTag returns the tag of the parent element, or TagInvalid at the root.
func (s *State[A]) ParentTag() markup.Tag {
	if s.Parent == nil {
		return markup.TagInvalid
	}
	return s.Parent.Tag
}
