package audit

// Compliance heuristics over a registry's audit trail. All advisory: a raised
// flag means "a human should look", never an automated rejection. Each check
// is a pure function over a finite slice of entries so it can be tested in
// isolation and re-run over historical data.

// Flag names surfaced in compliance reports.
const (
	FlagSameActorCreateVoid   = "same_actor_create_void"
	FlagExcessiveStatusChange = "excessive_status_changes"
	FlagManyDistinctIPs       = "many_distinct_ips"
	FlagOutsideBusinessHours  = "outside_business_hours"
)

const (
	statusChangeThreshold = 5
	distinctIPThreshold   = 10
)

// BusinessHours is the window considered normal working time, in server-local
// hours. Start is inclusive, End exclusive.
type BusinessHours struct {
	Start int
	End   int
}

// DefaultBusinessHours is 07:00-19:00.
var DefaultBusinessHours = BusinessHours{Start: 7, End: 19}

// Report lists the flags raised for one registry's trail.
type Report struct {
	RegistryID string
	Flags      []string
}

// Analyze runs every heuristic and collects the raised flags.
func Analyze(registryID string, entries []Entry, hours BusinessHours) Report {
	report := Report{RegistryID: registryID}
	if SameActorCreateAndVoid(entries) {
		report.Flags = append(report.Flags, FlagSameActorCreateVoid)
	}
	if ExcessiveStatusChanges(entries) {
		report.Flags = append(report.Flags, FlagExcessiveStatusChange)
	}
	if ManyDistinctIPs(entries) {
		report.Flags = append(report.Flags, FlagManyDistinctIPs)
	}
	if HasActivityOutsideHours(entries, hours) {
		report.Flags = append(report.Flags, FlagOutsideBusinessHours)
	}
	return report
}

// SameActorCreateAndVoid reports whether one actor both created and voided
// the document. Creating a number and later destroying it is the classic
// single-actor fraud shape.
func SameActorCreateAndVoid(entries []Entry) bool {
	var creator, voider string
	for _, e := range entries {
		switch e.Action {
		case ActionCreate:
			creator = e.PerformedBy.String()
		case ActionVoid:
			voider = e.PerformedBy.String()
		}
	}
	return creator != "" && creator == voider
}

// ExcessiveStatusChanges reports whether any single actor performed more than
// statusChangeThreshold status changes.
func ExcessiveStatusChanges(entries []Entry) bool {
	counts := make(map[string]int)
	for _, e := range entries {
		if e.Action != ActionStatusChange {
			continue
		}
		actor := e.PerformedBy.String()
		counts[actor]++
		if counts[actor] > statusChangeThreshold {
			return true
		}
	}
	return false
}

// ManyDistinctIPs reports whether the trail spans more than
// distinctIPThreshold distinct client IPs.
func ManyDistinctIPs(entries []Entry) bool {
	ips := make(map[string]struct{})
	for _, e := range entries {
		if e.IPAddress == "" {
			continue
		}
		ips[e.IPAddress] = struct{}{}
		if len(ips) > distinctIPThreshold {
			return true
		}
	}
	return false
}

// HasActivityOutsideHours reports whether any entry falls outside the window.
func HasActivityOutsideHours(entries []Entry, hours BusinessHours) bool {
	for _, e := range entries {
		h := e.PerformedAt.Hour()
		if h < hours.Start || h >= hours.End {
			return true
		}
	}
	return false
}
