package paludis

// JobKind discriminates the sealed Job union the orderer emits (§3, §4.8.3).
type JobKind uint8

const (
	JobFetch JobKind = iota
	JobPretend
	JobInstall
	JobUninstall
)

// JobRequirementKind tags how strictly the orderer must honor one of a
// Job's predecessor edges when it breaks a cycle (§4.8.2).
type JobRequirementKind uint8

const (
	// RequireAlways must never be dropped, even to break a cycle; a cycle
	// that can only be broken by dropping a RequireAlways edge is reported
	// as CircularDependency instead.
	RequireAlways JobRequirementKind = iota
	// RequireForSatisfied may be dropped to break a cycle once the cycle
	// has no RequireForIndependent edge left to drop.
	RequireForSatisfied
	// RequireForIndependent is the first kind dropped to break a cycle.
	RequireForIndependent
)

// JobRequirement is one predecessor edge a Job carries into the orderer.
type JobRequirement struct {
	On   Resolvent
	Kind JobRequirementKind
}

// Job is one scheduled unit of work the orderer hands back, in final
// dependency-respecting order (§3, §4.8.3).
type Job struct {
	Kind         JobKind
	Resolvent    Resolvent
	ID           PackageID
	Requirements []JobRequirement
}

// jobsFor turns a single Decision into its Job sequence: a ChangesToMake
// decision becomes pretend-then-fetch-then-install, with the install job
// carrying a RequireAlways requirement on its own resolvent's fetch (§4.8.3);
// BuildNAG fills in the install job's remaining cross-resolvent requirements
// once every node's edges are known. A RemoveDecision becomes one uninstall
// job per removed ID.
func jobsFor(resolvent Resolvent, d *Decision) []Job {
	if d == nil {
		return nil
	}
	switch d.Kind {
	case DecisionChangesToMake:
		return []Job{
			{Kind: JobPretend, Resolvent: resolvent, ID: d.OriginID},
			{Kind: JobFetch, Resolvent: resolvent, ID: d.OriginID},
			{
				Kind:         JobInstall,
				Resolvent:    resolvent,
				ID:           d.OriginID,
				Requirements: []JobRequirement{{On: resolvent, Kind: RequireAlways}},
			},
		}
	case DecisionRemove:
		jobs := make([]Job, 0, len(d.RemoveIDs))
		for _, id := range d.RemoveIDs {
			jobs = append(jobs, Job{Kind: JobUninstall, Resolvent: resolvent, ID: id})
		}
		return jobs
	default:
		return nil
	}
}
