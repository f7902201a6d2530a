// Package graph draws roadmaps as Mermaid flowcharts.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/skillflow/pkg/domain"
)

// RoadmapMermaid produces a Mermaid flowchart of a roadmap:
// - Topic: ((Circle))
// - Section: [Rectangle], chained in study order
// - Concept: ([Stadium]), hanging off its section
// - Lesson: [/Parallelogram/], only when planned
// Nodes are styled by status (current, locked).
func RoadmapMermaid(r *domain.Roadmap) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	root := "roadmap"
	fmt.Fprintf(&sb, "    %s((\"%s\"))\n", root, label(r.Topic))

	var current, locked []string
	track := func(id string, s domain.Status) {
		switch s {
		case domain.StatusCurrent:
			current = append(current, id)
		case domain.StatusLocked:
			locked = append(locked, id)
		}
	}

	prev := root
	for i, s := range r.Sections {
		sid := fmt.Sprintf("s%d", i)
		fmt.Fprintf(&sb, "    %s[\"%s\"]\n", sid, label(s.Title))
		fmt.Fprintf(&sb, "    %s --> %s\n", prev, sid)
		track(sid, s.Status)
		prev = sid

		for j, c := range s.Concepts {
			cid := fmt.Sprintf("s%dc%d", i, j)
			fmt.Fprintf(&sb, "    %s([\"%s\"])\n", cid, label(c.Title))
			fmt.Fprintf(&sb, "    %s -.-> %s\n", sid, cid)
			track(cid, c.Status)

			for k, l := range c.Lessons {
				lid := fmt.Sprintf("%sl%d", cid, k)
				fmt.Fprintf(&sb, "    %s[/\"%s\"/]\n", lid, label(l.Title))
				fmt.Fprintf(&sb, "    %s --> %s\n", cid, lid)
				track(lid, l.Status)
			}
		}
	}

	if len(current)+len(locked) > 0 {
		sb.WriteString("\n    %% Progress Styles\n")
		// Force black text (color:#000) for contrast regardless of theme (Light/Dark)
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:3px,color:#000;\n")
		sb.WriteString("    classDef locked fill:#eeeeee,stroke:#9e9e9e,stroke-dasharray:4 2,color:#000;\n")
		if len(current) > 0 {
			fmt.Fprintf(&sb, "    class %s current;\n", strings.Join(current, ","))
		}
		if len(locked) > 0 {
			fmt.Fprintf(&sb, "    class %s locked;\n", strings.Join(locked, ","))
		}
	}

	return sb.String()
}

// label escapes text for a quoted Mermaid label.
func label(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.ReplaceAll(s, "\n", " ")
}
