package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"tyck/internal/snapshot"
)

type dumpStyles struct {
	header, kind, label, stub, dim lipgloss.Style
}

func newDumpStyles(r *lipgloss.Renderer, enabled bool) dumpStyles {
	if !enabled {
		plain := r.NewStyle()
		return dumpStyles{header: plain, kind: plain, label: plain, stub: plain, dim: plain}
	}
	return dumpStyles{
		header: r.NewStyle().Bold(true).Foreground(lipgloss.Color("7")),
		kind:   r.NewStyle().Foreground(lipgloss.Color("6")),
		label:  r.NewStyle().Foreground(lipgloss.Color("4")),
		stub:   r.NewStyle().Foreground(lipgloss.Color("1")),
		dim:    r.NewStyle().Faint(true),
	}
}

// Dump prints the resolved classes of each snapshot: kind, superclass,
// mixins, linearization and type members.
func Dump(w io.Writer, snaps []*snapshot.Snapshot, opts DumpOpts) error {
	st := newDumpStyles(lipgloss.NewRenderer(w), opts.Color)
	var b strings.Builder
	for i, snap := range snaps {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(st.header.Render("# "+snap.Source) + "\n")
		for j := range snap.Classes {
			c := &snap.Classes[j]
			if c.Kind == "singleton" && !opts.Singletons {
				continue
			}
			dumpClass(&b, c, st, opts)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func dumpClass(b *strings.Builder, c *snapshot.Class, st dumpStyles, opts DumpOpts) {
	head := st.kind.Render(c.Kind) + " " + c.Name
	if c.Super != "" {
		head += " < " + c.Super
	}
	var marks []string
	if c.Stub {
		marks = append(marks, st.stub.Render("stub"))
	}
	if c.Abstract {
		marks = append(marks, "abstract")
	}
	if c.Undeclared {
		marks = append(marks, st.dim.Render("undeclared"))
	}
	if len(marks) > 0 {
		head += " [" + strings.Join(marks, ", ") + "]"
	}
	b.WriteString(head + "\n")

	field := func(name string, values []string) {
		if len(values) == 0 {
			return
		}
		fmt.Fprintf(b, "  %s %s\n", st.label.Render(name+":"), strings.Join(values, ", "))
	}
	field("mixins", c.Mixins)
	field("linearization", c.Linearization)
	for _, tm := range c.TypeMembers {
		line := fmt.Sprintf("%s (%s)", tm.Name, tm.Variance)
		if tm.Fixed {
			line += " fixed " + tm.Upper
		} else {
			line += " " + tm.Lower + ".." + tm.Upper
		}
		fmt.Fprintf(b, "  %s %s\n", st.label.Render("type_member:"), line)
	}
	if opts.Members {
		field("methods", c.Methods)
		field("fields", c.Fields)
	}
}
