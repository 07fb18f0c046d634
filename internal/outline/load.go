package outline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"

	"github.com/aidanlsb/outsearch/internal/dates"
)

// Format names an outline file format.
type Format string

const (
	FormatAuto     Format = ""
	FormatYAML     Format = "yaml"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// DetectFormat picks a format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json", ".jsonc":
		return FormatJSON, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
}

// LoadFile reads an outline from disk.
func LoadFile(path string, format Format) (*Memory, error) {
	if format == FormatAuto {
		var err error
		format, err = DetectFormat(path)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read outline: %w", err)
	}

	switch format {
	case FormatYAML:
		return LoadYAML(data)
	case FormatJSON:
		return LoadJSON(data)
	case FormatMarkdown:
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat outline: %w", err)
		}
		return LoadMarkdown(data, info.ModTime())
	default:
		return nil, fmt.Errorf("%s: %w", format, ErrUnsupportedFormat)
	}
}

// yamlItem is the on-disk shape of one outline item. JSON is a subset of
// YAML, so the same decoder handles both.
type yamlItem struct {
	ID       string     `yaml:"id"`
	Edge     string     `yaml:"edge"`
	Text     string     `yaml:"text"`
	Inline   []Span     `yaml:"inline"`
	Tags     []string   `yaml:"tags"`
	Todo     *bool      `yaml:"todo"`
	Created  string     `yaml:"created"`
	Updated  string     `yaml:"updated"`
	Mirror   string     `yaml:"mirror"`
	Collapse bool       `yaml:"collapsed"`
	Children []yamlItem `yaml:"children"`
}

type yamlFile struct {
	Items []yamlItem `yaml:"items"`
}

// LoadYAML builds an outline from the nested item format:
//
//	items:
//	  - id: plan
//	    text: Project Plan
//	    tags: [work]
//	    children:
//	      - text: Milestones
//	      - mirror: plan
//
// Items without an id get a positional one ("1.2.1"), and edges without an
// explicit id are named "<parent>><child>" so reloads of the same file keep
// stable identities.
func LoadYAML(data []byte) (*Memory, error) {
	var f yamlFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse outline: %w", err)
	}

	b := newBuilder()
	var mirrors []pendingMirror
	var walk func(parent NodeID, items []yamlItem, prefix string) error
	walk = func(parent NodeID, items []yamlItem, prefix string) error {
		for i, item := range items {
			pos := fmt.Sprintf("%s%d", prefix, i+1)
			if item.Mirror != "" {
				mirrors = append(mirrors, pendingMirror{parent: parent, target: NodeID(item.Mirror), edge: EdgeID(item.Edge), position: i})
				continue
			}

			id := NodeID(item.ID)
			if id == "" {
				id = NodeID(pos)
			}
			if _, dup := b.mem.nodes[id]; dup {
				return fmt.Errorf("item %s: duplicate id %q", pos, id)
			}

			// Rich content wins over the plain text field when both are given.
			node := Node{ID: id, Text: item.Text, Inline: item.Inline}
			switch {
			case len(node.Inline) > 0:
				node.Text = PlainText(node.Inline)
			case node.Text != "":
				node.Inline = []Span{{Text: node.Text}}
			}
			node.Meta.Tags = item.Tags
			node.Meta.Todo = item.Todo
			var err error
			if node.Meta.CreatedAt, err = parseStamp(item.Created); err != nil {
				return fmt.Errorf("item %s: created: %w", pos, err)
			}
			if node.Meta.UpdatedAt, err = parseStamp(item.Updated); err != nil {
				return fmt.Errorf("item %s: updated: %w", pos, err)
			}
			if node.Meta.UpdatedAt == 0 {
				node.Meta.UpdatedAt = node.Meta.CreatedAt
			}

			b.node(node)
			b.edge(Edge{ID: EdgeID(item.Edge), ParentNodeID: parent, ChildNodeID: id, Collapsed: item.Collapse, Position: i})

			if err := walk(id, item.Children, pos+"."); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk("", f.Items, ""); err != nil {
		return nil, err
	}

	for _, m := range mirrors {
		if _, ok := b.mem.nodes[m.target]; !ok {
			return nil, fmt.Errorf("mirror of unknown item %q", m.target)
		}
		b.edge(Edge{ID: m.edge, ParentNodeID: m.parent, ChildNodeID: m.target, MirrorOfNodeID: m.target, Position: m.position})
	}

	return b.mem, nil
}

// LoadJSON reads the same item format as LoadYAML written as JSON. Comments
// and trailing commas are allowed.
func LoadJSON(data []byte) (*Memory, error) {
	standard, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse outline: %w", err)
	}
	return LoadYAML(standard)
}

type pendingMirror struct {
	parent   NodeID
	target   NodeID
	edge     EdgeID
	position int
}

func parseStamp(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return dates.ParseMillis(s)
}

// builder assembles a Memory without emitting change notifications.
type builder struct {
	mem *Memory
}

func newBuilder() *builder {
	return &builder{mem: NewMemory()}
}

func (b *builder) node(n Node) {
	b.mem.nodes[n.ID] = &n
}

func (b *builder) edge(e Edge) {
	if e.ID == "" {
		base := string(e.ParentNodeID) + ">" + string(e.ChildNodeID)
		e.ID = EdgeID(base)
		for i := 2; ; i++ {
			if _, taken := b.mem.edges[e.ID]; !taken {
				break
			}
			e.ID = EdgeID(fmt.Sprintf("%s#%d", base, i))
		}
	}
	b.mem.edges[e.ID] = &e
	b.mem.placeEdge(e.ID)
}

func (b *builder) stampAll(t time.Time) {
	ms := t.UnixMilli()
	for _, n := range b.mem.nodes {
		if n.Meta.CreatedAt == 0 {
			n.Meta.CreatedAt = ms
		}
		if n.Meta.UpdatedAt == 0 {
			n.Meta.UpdatedAt = ms
		}
	}
}
