package refs

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/jlewallen/dimsum/internal/decode"
	"github.com/jlewallen/dimsum/internal/model"
)

// Edge is one reference held by an entity. Path locates it within the
// entity, e.g. "scopes.containing.holding[0]".
type Edge struct {
	Path string          `json:"path"`
	Ref  model.EntityRef `json:"ref"`
}

// Collect returns every reference held by d, sorted by path. Index entries
// that only carry a key (well-known names, usernames, queued posts) are
// included with empty Klass and Name.
func Collect(d *decode.Decoded) []Edge {
	c := &collector{}

	c.ref("parent", d.Entity.Parent)
	c.ref("creator", d.Entity.Creator)

	for tag, comp := range d.Components {
		c.component("scopes."+tag, comp)
	}

	slices.SortFunc(c.edges, func(a, b Edge) int {
		return comparePaths(a.Path, b.Path)
	})
	return c.edges
}

// comparePaths orders paths bytewise except that runs of digits compare by
// numeric value, so "holding[2]" sorts before "holding[10]".
func comparePaths(a, b string) int {
	for a != "" && b != "" {
		if isDigit(a[0]) && isDigit(b[0]) {
			na, ra := digitRun(a)
			nb, rb := digitRun(b)
			if c := cmp.Compare(len(na), len(nb)); c != 0 {
				return c
			}
			if c := strings.Compare(na, nb); c != 0 {
				return c
			}
			a, b = ra, rb
			continue
		}
		if c := cmp.Compare(a[0], b[0]); c != 0 {
			return c
		}
		a, b = a[1:], b[1:]
	}
	return cmp.Compare(len(a), len(b))
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

// digitRun splits s after its leading digits, dropping leading zeros from the
// number.
func digitRun(s string) (string, string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	n := strings.TrimLeft(s[:i], "0")
	return n, s[i:]
}

type collector struct {
	edges []Edge
}

func (c *collector) ref(path string, ref *model.EntityRef) {
	if ref == nil {
		return
	}
	c.edges = append(c.edges, Edge{Path: path, Ref: *ref})
}

func (c *collector) list(path string, refs []model.EntityRef) {
	for i := range refs {
		c.ref(fmt.Sprintf("%s[%d]", path, i), &refs[i])
	}
}

func (c *collector) keys(path string, index map[string]string) {
	for name, key := range index {
		c.edges = append(c.edges, Edge{Path: path + "." + name, Ref: model.EntityRef{Key: key}})
	}
}

func (c *collector) component(path string, comp model.Component) {
	switch v := comp.(type) {
	case model.Containing:
		c.list(path+".holding", v.Holding)
	case model.Location:
		c.ref(path+".container", v.Container)
	case model.Occupyable:
		c.list(path+".occupied", v.Occupied)
	case model.Occupying:
		c.ref(path+".area", &v.Area)
	case model.Exit:
		c.ref(path+".area", &v.Area)
	case model.Ownership:
		c.ref(path+".owner", &v.Owner)
	case model.WellKnown:
		c.keys(path+".entities", v.Entities)
	case model.Usernames:
		c.keys(path+".users", v.Users)
	case model.Post:
		for i, p := range v.Queue {
			c.edges = append(c.edges, Edge{
				Path: fmt.Sprintf("%s.queue[%d]", path, i),
				Ref:  model.EntityRef{Key: p.EntityKey},
			})
		}
	}
}
