package core

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/encodeous/rankd/state"
)

// FormatTable renders a snapshot for humans
func FormatTable(s Snapshot) string {
	sb := strings.Builder{}
	sb.WriteString("--- Current Neighbour Table ---\n")
	if len(s.Neighbours) == 0 {
		sb.WriteString("No neighbours present.\n")
	}
	for _, n := range s.Neighbours {
		flags := make([]string, 0)
		if n.Parent {
			flags = append(flags, "parent")
		}
		if n.Probing {
			flags = append(flags, "probing")
		}
		sb.WriteString(fmt.Sprintf(" - %s: distance = %.4f, tx cost = %d", n.Id, n.Distance, n.TxCost))
		if len(flags) > 0 {
			sb.WriteString(" [" + strings.Join(flags, ",") + "]")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\nPotential Parents:\n")
	if len(s.PotentialParents) == 0 {
		sb.WriteString(" (none)\n")
	}
	for _, id := range slices.Sorted(maps.Keys(s.PotentialParents)) {
		sb.WriteString(fmt.Sprintf(" - %s: %.4f\n", id, s.PotentialParents[id]))
	}

	if s.Rank >= state.InfRank {
		sb.WriteString("\nRank: infinite (no parent)\n")
	} else {
		sb.WriteString(fmt.Sprintf("\nRank: %.4f via %s\n", s.Rank, s.Parent))
	}
	sb.WriteString("-------------------------------\n")
	return sb.String()
}
