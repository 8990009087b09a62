// SPDX-License-Identifier: GPL-3.0-or-later

package trace

// Stats is an aggregate projection over one [Analysis], for the `stats`
// CLI subcommand: counts a reader would otherwise have to derive by
// scrolling every view.
type Stats struct {
	TotalItems       int
	ItemsByProtocol  map[string]int
	TotalPairs       int
	PairsByStatus    map[PairStatus]int
	TotalSessions    int
	SessionsByRole   map[Role]int
	IssuesBySeverity map[Severity]int
	Iccid            string
}

// ComputeStats reduces a completed [Analysis] to the [Stats] summary.
func ComputeStats(a Analysis) Stats {
	s := Stats{
		TotalItems:       len(a.Model.Items),
		ItemsByProtocol:  map[string]int{},
		TotalPairs:       len(a.Pairs),
		PairsByStatus:    map[PairStatus]int{},
		TotalSessions:    len(a.Sessions),
		SessionsByRole:   map[Role]int{},
		IssuesBySeverity: map[Severity]int{},
		Iccid:            a.Model.Iccid,
	}
	for _, it := range a.Model.Items {
		s.ItemsByProtocol[it.Protocol]++
	}
	for _, p := range a.Pairs {
		s.PairsByStatus[p.Status]++
	}
	for _, sess := range a.Sessions {
		s.SessionsByRole[sess.Role]++
	}
	for _, iss := range a.Issues {
		s.IssuesBySeverity[iss.Severity]++
	}
	return s
}
