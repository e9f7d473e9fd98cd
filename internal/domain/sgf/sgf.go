package sgf

import (
	"fmt"
	"strings"

	errs "leela_client/internal/errors"
)

// GameTree is one SGF tree: a node sequence plus its variations.
type GameTree struct {
	Nodes    []Node
	Children []*GameTree
}

// Node is a single SGF node. Properties may repeat (AB[aa][bb]).
type Node struct {
	Properties map[string][]string
}

type SGF struct {
	Root *GameTree
}

// property order for the root node; anything else follows in map order
var orderedKeys = []string{"FF", "GM", "SZ", "PB", "PW", "DT", "RE", "KM", "HA", "RU", "C", "B", "W"}

func Serialize(s *SGF) string {
	var builder strings.Builder
	builder.WriteString("(")
	if s.Root != nil {
		serializeGameTree(&builder, s.Root)
	}
	builder.WriteString(")")
	return builder.String()
}

func serializeGameTree(builder *strings.Builder, tree *GameTree) {
	for _, node := range tree.Nodes {
		builder.WriteString(";")

		used := make(map[string]bool)
		for _, key := range orderedKeys {
			if values, ok := node.Properties[key]; ok {
				used[key] = true
				writeProperty(builder, key, values)
			}
		}
		for key, values := range node.Properties {
			if !used[key] {
				writeProperty(builder, key, values)
			}
		}
	}

	for _, child := range tree.Children {
		builder.WriteString("(")
		serializeGameTree(builder, child)
		builder.WriteString(")")
	}
}

func writeProperty(builder *strings.Builder, key string, values []string) {
	builder.WriteString(key)
	for _, v := range values {
		builder.WriteString("[")
		builder.WriteString(escape(v))
		builder.WriteString("]")
	}
}

func escape(v string) string {
	return strings.NewReplacer(`\`, `\\`, "]", `\]`).Replace(v)
}

// Parse reads an SGF collection and returns its first game tree.
func Parse(text string) (*SGF, error) {
	p := &parser{src: text}
	p.skipSpace()
	if !p.consume('(') {
		return nil, fmt.Errorf("%w: sgf must start with '('", errs.ErrMalformedResponse)
	}
	tree, err := p.tree()
	if err != nil {
		return nil, err
	}
	return &SGF{Root: tree}, nil
}

// MainLine flattens the first variation of every branch into one node list.
func (s *SGF) MainLine() []Node {
	var nodes []Node
	for tree := s.Root; tree != nil; {
		nodes = append(nodes, tree.Nodes...)
		if len(tree.Children) == 0 {
			break
		}
		tree = tree.Children[0]
	}
	return nodes
}

// Property returns the first value of key in the root node.
func (s *SGF) Property(key string) (string, bool) {
	if s.Root == nil || len(s.Root.Nodes) == 0 {
		return "", false
	}
	values := s.Root.Nodes[0].Properties[key]
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

type parser struct {
	src string
	pos int
}

func (p *parser) tree() (*GameTree, error) {
	tree := &GameTree{}
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, fmt.Errorf("%w: unterminated sgf tree", errs.ErrMalformedResponse)
		}
		switch p.src[p.pos] {
		case ';':
			p.pos++
			node, err := p.node()
			if err != nil {
				return nil, err
			}
			tree.Nodes = append(tree.Nodes, node)
		case '(':
			p.pos++
			child, err := p.tree()
			if err != nil {
				return nil, err
			}
			tree.Children = append(tree.Children, child)
		case ')':
			p.pos++
			return tree, nil
		default:
			return nil, fmt.Errorf("%w: unexpected %q at %d", errs.ErrMalformedResponse, p.src[p.pos], p.pos)
		}
	}
}

func (p *parser) node() (Node, error) {
	node := Node{Properties: map[string][]string{}}
	for {
		p.skipSpace()
		start := p.pos
		for p.pos < len(p.src) && p.src[p.pos] >= 'A' && p.src[p.pos] <= 'Z' {
			p.pos++
		}
		if start == p.pos {
			return node, nil
		}
		key := p.src[start:p.pos]
		for {
			p.skipSpace()
			if !p.consume('[') {
				break
			}
			value, err := p.value()
			if err != nil {
				return node, err
			}
			node.Properties[key] = append(node.Properties[key], value)
		}
	}
}

func (p *parser) value() (string, error) {
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		p.pos++
		switch c {
		case '\\':
			if p.pos < len(p.src) {
				b.WriteByte(p.src[p.pos])
				p.pos++
			}
		case ']':
			return b.String(), nil
		default:
			b.WriteByte(c)
		}
	}
	return "", fmt.Errorf("%w: unterminated sgf value", errs.ErrMalformedResponse)
}

func (p *parser) consume(c byte) bool {
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && strings.ContainsRune(" \t\r\n", rune(p.src[p.pos])) {
		p.pos++
	}
}
