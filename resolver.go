package paludis

import (
	"context"
	"fmt"
	"sort"
)

// Resolver drives the fixed-point loop described in §4.7: constraints are
// added against Resolvents, each pending Resolvent is decided in turn, and
// deciding one Resolvent may add fresh constraints against others (or, via
// SuggestRestart, force an already-decided one back onto the worklist).
type Resolver struct {
	env     Environment
	options Options
	cmp     PackageIDComparator
	sink    NotificationSink

	resolutions map[Resolvent]*Resolution
	order       []Resolvent // first-seen order, used for deterministic iteration/debugDump

	worklist []Resolvent
	queued   map[Resolvent]bool

	// virtuals is the rewrite table consulted by §4.7.5: a virtual/foo
	// Package/Block spec is expanded into Any/All groups over its entries.
	virtuals map[QualifiedPackageName][]QualifiedPackageName

	// suggestedBacklog holds SuggestedHandling==SuggestedInstall items
	// deferred to the second pass described in SPEC_FULL.md's "two-pass
	// suggestion gating": the first pass resolves hard dependencies only,
	// and suggested-as-install dependencies are only added once the first
	// pass has reached a fixed point, so a failing suggestion never forces
	// an otherwise-successful resolution to restart from scratch.
	suggestedBacklog []suggestedItem

	depth int
}

type suggestedItem struct {
	from Resolvent
	dep  SanitisedDependency
}

// NewResolver builds a Resolver against env using opts (callers that want
// the documented defaults should pass DefaultOptions(), not the zero value)
// and cmp to order candidates.
func NewResolver(env Environment, opts Options, cmp PackageIDComparator) *Resolver {
	sink := NotificationSink(NoopSink{})
	if env != nil {
		sink = envSink{env}
	}
	return &Resolver{
		env:         env,
		options:     opts,
		cmp:         cmp,
		sink:        sink,
		resolutions: map[Resolvent]*Resolution{},
		queued:      map[Resolvent]bool{},
		virtuals:    map[QualifiedPackageName][]QualifiedPackageName{},
	}
}

// envSink forwards to the Environment's own notifier, so Resolver never
// needs a second sink wired up by callers that already have one via env.
type envSink struct{ env Environment }

func (s envSink) Notify(e NotificationEvent) { s.env.TriggerNotifier(e) }

// SetVirtualProviders registers qpn's provider set for §4.7.5 rewriting.
func (r *Resolver) SetVirtualProviders(qpn QualifiedPackageName, providers []QualifiedPackageName) {
	r.virtuals[qpn] = providers
}

// AddTarget seeds the resolver with a top-level target spec (§4.7.1's
// initial step before the fixed-point loop starts).
func (r *Resolver) AddTarget(spec *PackageDepSpec, destination DestinationType) {
	resolvent := Resolvent{Package: spec.QPN(), Slot: slotHintOf(spec), Destination: destination}
	r.addConstraint(resolvent, Constraint{
		Spec:            spec,
		Reason:          Reason{Kind: ReasonTarget},
		DestinationType: destination,
		UseExisting:     targetUseExisting(r.options),
	})
}

// AddSetTarget expands a named set and seeds every entry as a target.
func (r *Resolver) AddSetTarget(name string, destination DestinationType) error {
	set, ok := r.env.Set(name)
	if !ok || set == nil {
		return &NoSuchPackage{Name: "@" + name}
	}
	var err error
	ForEach(set.Tree, func(child *DepSpecNode) {
		if err != nil || child.Kind != NodePackage {
			return
		}
		resolvent := Resolvent{Package: child.Package.QPN(), Slot: slotHintOf(child.Package), Destination: destination}
		r.addConstraint(resolvent, Constraint{
			Spec:            child.Package,
			Reason:          Reason{Kind: ReasonSet, SetName: name},
			DestinationType: destination,
			UseExisting:     targetUseExisting(r.options),
		})
	})
	return err
}

func targetUseExisting(o Options) UseExistingPolicy {
	switch o.Upgrade {
	case UpgradeAlways:
		return UseExistingNever
	default:
		return UseExistingIfPossible
	}
}

func slotHintOf(spec *PackageDepSpec) SlotHint {
	if spec.Slot.Kind == SlotExact {
		return SlotHint{Kind: SlotHintExact, Slot: spec.Slot.Slot}
	}
	return SlotHint{Kind: SlotHintAny}
}

// addConstraint records c against resolvent and enqueues it for (re)decision
// if it is not already pending.
func (r *Resolver) addConstraint(resolvent Resolvent, c Constraint) {
	res, ok := r.resolutions[resolvent]
	if !ok {
		res = &Resolution{Resolvent: resolvent}
		r.resolutions[resolvent] = res
		r.order = append(r.order, resolvent)
	}
	res.Constraints = append(res.Constraints, c)
	if !r.queued[resolvent] {
		r.queued[resolvent] = true
		r.worklist = append(r.worklist, resolvent)
	}
}

// Resolve runs the fixed-point loop to completion: pop a Resolvent, decide
// it, let deciding add fresh constraints elsewhere, repeat until the
// worklist drains, then run the deferred suggested-install pass (§4.7.3,
// SPEC_FULL.md's two-pass suggestion gating).
func (r *Resolver) Resolve(ctx context.Context) error {
	for len(r.worklist) > 0 {
		resolvent := r.worklist[0]
		r.worklist = r.worklist[1:]
		r.queued[resolvent] = false

		if err := r.decideOne(ctx, resolvent); err != nil {
			if restart, ok := err.(*suggestRestart); ok {
				r.applyRestart(restart)
				continue
			}
			return err
		}
	}

	if r.options.DepsSuggested == SuggestedInstall {
		for _, item := range r.suggestedBacklog {
			r.addDependencyConstraint(item.from, item.dep)
		}
		r.suggestedBacklog = nil
		for len(r.worklist) > 0 {
			resolvent := r.worklist[0]
			r.worklist = r.worklist[1:]
			r.queued[resolvent] = false
			if err := r.decideOne(ctx, resolvent); err != nil {
				if restart, ok := err.(*suggestRestart); ok {
					r.applyRestart(restart)
					continue
				}
				return err
			}
		}
	}
	return nil
}

// applyRestart implements §4.7.3's restart: roll the resolvent's decision
// back to old, re-queue it, and re-queue the resolvent whose new constraint
// triggered the conflict so it is reconsidered against the rolled-back
// state.
func (r *Resolver) applyRestart(s *suggestRestart) {
	res := r.resolutions[s.resolvent]
	if res == nil {
		return
	}
	old := s.old
	res.Decision = &old
	r.sink.Notify(NotificationEvent{Kind: EventStep, Label: "restart", Reason: s.resolvent.String()})
	if !r.queued[s.resolvent] {
		r.queued[s.resolvent] = true
		r.worklist = append(r.worklist, s.resolvent)
	}
}

// decideOne computes (or recomputes) a Resolution's Decision and, on
// success, walks its dependencies to add fresh constraints on other
// Resolvents.
func (r *Resolver) decideOne(ctx context.Context, resolvent Resolvent) error {
	r.depth++
	defer func() { r.depth-- }()
	if r.depth > r.options.maxDepth() {
		return &StackTooDeep{Depth: r.depth}
	}

	res := r.resolutions[resolvent]
	decision, err := r.decide(ctx, res)
	if err != nil {
		return err
	}
	res.Decision = decision
	r.sink.Notify(NotificationEvent{Kind: EventStep, Label: resolvent.String()})

	if !decision.IsChangeOrRemove() && decision.Kind != DecisionExistingNoChange {
		return nil
	}
	id := decision.ID()
	if id == nil {
		return nil
	}
	return r.applyDependenciesOf(resolvent, id)
}

// decide implements §4.7.2: gather every constraint, query candidates,
// apply the strictest use-existing policy in play, and pick a winner.
func (r *Resolver) decide(ctx context.Context, res *Resolution) (*Decision, error) {
	if len(res.Constraints) == 0 {
		return &Decision{Kind: DecisionNothingNoChange}, nil
	}

	db := r.env.PackageDatabase()
	candidates, err := r.candidatesFor(ctx, res, db)
	if err != nil {
		return nil, err
	}

	useExisting := UseExistingIfPossible
	nothingFineCount := 0
	for _, c := range res.Constraints {
		useExisting = stricterUseExisting(useExisting, c.UseExisting)
		if c.NothingIsFineToo {
			nothingFineCount++
		}
	}

	// §4.7.3: a previously-settled "use existing" decision that a freshly
	// added constraint now forbids can't just be overwritten in place — the
	// resolvents that already depended on the old decision may have made
	// choices premised on it, so ask the driver loop to restart them.
	if res.Decision != nil && res.Decision.Kind == DecisionExistingNoChange && useExisting == UseExistingNever {
		return nil, &suggestRestart{resolvent: res.Resolvent, old: *res.Decision, constraint: res.Constraints[len(res.Constraints)-1]}
	}

	var unsuitable []UnsuitableCandidate
	var best PackageID
	for _, id := range candidates {
		if id.Masked() {
			if !NotStronglyMasked(id, r.options.OverridePredicates) {
				unsuitable = append(unsuitable, UnsuitableCandidate{ID: id, MaskReasons: id.Masks()})
				continue
			}
		}
		if !r.matchesEveryConstraint(res.Resolvent, id) {
			unsuitable = append(unsuitable, UnsuitableCandidate{ID: id, UnmetReasons: []string{"constraint not satisfied"}})
			continue
		}
		best = id
		break
	}

	if best == nil {
		if nothingFineCount == len(res.Constraints) {
			return &Decision{Kind: DecisionNothingNoChange}, nil
		}
		// Whether there were no candidates at all or every one of them was
		// masked/unmet, this resolvent simply can't be decided; record it
		// rather than aborting the whole run, so a caller still gets every
		// other resolvent's result and finds this one in ResolutionLists
		// (§6 "Exposed to collaborators").
		return &Decision{Kind: DecisionUnableToMake, UnsuitableCandidates: unsuitable}, nil
	}

	if useExisting != UseExistingNever && r.isInstalled(best) {
		return &Decision{
			Kind:          DecisionExistingNoChange,
			ExistingID:    best,
			IsSame:        true,
			IsSameVersion: true,
			IsTransient:   IsTransient(best),
		}, nil
	}

	dest := res.Resolvent.Destination
	return &Decision{Kind: DecisionChangesToMake, OriginID: best, Best: true, Destination: &dest}, nil
}

// candidatesFor runs the generator for a resolvent's package, keeps IDs that
// support install and (for an exact slot hint) sit in that slot, and sorts
// them best-first by r.cmp. The destination is not used to filter.
func (r *Resolver) candidatesFor(ctx context.Context, res *Resolution, db PackageDatabase) ([]PackageID, error) {
	gen := GeneratorPackage(res.Resolvent.Package)
	ids, err := gen(ctx, db)
	if err != nil {
		return nil, err
	}
	ids = FilterSupportsAction(ActionInstall)(ids)
	if res.Resolvent.Slot.Kind == SlotHintExact {
		ids = FilterSlot(res.Resolvent.Slot.Slot)(ids)
	}
	return SelectAllVersionsSorted(ids, r.cmp), nil
}

func (r *Resolver) matchesEveryConstraint(resolvent Resolvent, id PackageID) bool {
	res := r.resolutions[resolvent]
	for _, c := range res.Constraints {
		if !c.Matches(r.env, id) {
			return false
		}
	}
	return true
}

// isInstalled reports whether id's repository is an installed-root
// repository, used to decide whether "use existing" applies.
func (r *Resolver) isInstalled(id PackageID) bool {
	repo, ok := r.env.PackageDatabase().RepositoryNamed(id.Repository())
	return ok && repo.InstalledRootKey() != ""
}

// installedLookup adapts the resolver's environment into the narrow
// InstalledLookup interface SanitiseDependencies needs to compute AlreadyMet.
type installedLookup struct {
	r *Resolver
}

func (l installedLookup) HasInstalledMatch(spec *PackageDepSpec) bool {
	db := l.r.env.PackageDatabase()
	ids, err := GeneratorMatches(l.r.env, spec, MatchOptions{})(context.Background(), db)
	if err != nil {
		return false
	}
	for _, id := range ids {
		if l.r.isInstalled(id) {
			return true
		}
	}
	return false
}

// applyDependenciesOf sanitizes id's dependency roles and turns each
// SanitisedDependency into a fresh constraint elsewhere (§4.7.3).
func (r *Resolver) applyDependenciesOf(resolvent Resolvent, id PackageID) error {
	roles := []struct {
		key  *MetadataKey
		eapi EAPI
	}{
		{id.BuildDependenciesKey(), DefaultEAPI},
		{id.RunDependenciesKey(), DefaultEAPI},
		{id.PostDependenciesKey(), DefaultEAPI},
		{id.SuggestedDependenciesKey(), DefaultEAPI},
	}
	lookup := installedLookup{r}
	for _, role := range roles {
		if role.key == nil {
			continue
		}
		tree, err := role.key.SpecTree()
		if err != nil {
			return err
		}
		deps, err := SanitiseDependencies(r.env, role.eapi, id, tree, lookup)
		if err != nil {
			return err
		}
		if err := r.applySanitisedDeps(resolvent, deps); err != nil {
			return err
		}
	}
	return nil
}

// applySanitisedDeps walks a flattened dependency list, grouping Any-group
// members for scored selection (§4.7.4) and routing everything else straight
// to addDependencyConstraint.
func (r *Resolver) applySanitisedDeps(from Resolvent, deps []SanitisedDependency) error {
	groups := map[AnyGroupID][]SanitisedDependency{}
	var groupOrder []AnyGroupID
	for _, d := range deps {
		if d.AlreadyMet || d.Untaken {
			continue
		}
		if classDiscarded(r.options, d.Labels) {
			continue
		}
		if isSuggestion(d.Labels) {
			switch r.options.DepsSuggested {
			case SuggestedDiscard:
				continue
			case SuggestedInstall:
				r.suggestedBacklog = append(r.suggestedBacklog, suggestedItem{from: from, dep: d})
				continue
			default: // SuggestedShow: record as an untaken constraint for visibility only.
				d.Untaken = true
			}
		}
		if d.AnyGroup != 0 {
			if _, seen := groups[d.AnyGroup]; !seen {
				groupOrder = append(groupOrder, d.AnyGroup)
			}
			groups[d.AnyGroup] = append(groups[d.AnyGroup], d)
			continue
		}
		r.addDependencyConstraint(from, d)
	}

	for _, g := range groupOrder {
		if err := r.resolveAnyGroup(from, groups[g]); err != nil {
			return err
		}
	}
	return nil
}

func isSuggestion(labels []DependencyLabel) bool {
	for _, l := range labels {
		if l == LabelSuggestion || l == LabelRecommendation {
			return true
		}
	}
	return false
}

// classDiscarded maps a dependency's labels onto Options' per-class
// DepsHandling and reports whether that class is configured to be dropped
// entirely (§9).
func classDiscarded(o Options, labels []DependencyLabel) bool {
	handling := DepsRuntime
	for _, l := range labels {
		switch l {
		case LabelBuild, LabelCompileAgainst, LabelFetch:
			handling = o.DepsPre
		case LabelPost:
			handling = o.DepsPost
		case LabelRun:
			handling = o.DepsRuntime
		}
	}
	return handling == DepsDiscard || handling == DepsDiscardAlways
}

// resolveAnyGroup implements §4.7.4: score every still-viable child, try
// existing-satisfying children first, then installable ones, and fail with
// NoResolvableOption only once every child has been tried.
func (r *Resolver) resolveAnyGroup(from Resolvent, items []SanitisedDependency) error {
	type scored struct {
		dep   SanitisedDependency
		score int
	}
	lookup := installedLookup{r}
	var scoredItems []scored
	for _, d := range items {
		spec := d.Package
		if spec == nil && d.Block != nil {
			spec = d.Block.Spec
		}
		scoredItems = append(scoredItems, scored{dep: d, score: anyGroupScore(r.env, r.env.PackageDatabase(), spec, lookup, nil)})
	}
	sort.SliceStable(scoredItems, func(i, j int) bool { return scoredItems[i].score > scoredItems[j].score })

	var errs []error
	for _, s := range scoredItems {
		resolvent, ok := r.resolventForDependency(from, s.dep)
		if !ok {
			continue
		}
		if r.probeViable(resolvent, s.dep) {
			r.addDependencyConstraint(from, s.dep)
			return nil
		}
		errs = append(errs, fmt.Errorf("%s not viable", resolvent))
	}
	return &NoResolvableOption{Errors: errs}
}

// probeViable runs a quick existence check (ignoring masks) so
// resolveAnyGroup can skip a child with zero matching candidates without
// fully committing to it first.
func (r *Resolver) probeViable(resolvent Resolvent, d SanitisedDependency) bool {
	spec := d.Package
	if spec == nil {
		return true // a Block child is viable unless proven otherwise by apply.
	}
	ids, err := GeneratorMatches(r.env, spec, MatchOptions{})(context.Background(), r.env.PackageDatabase())
	return err == nil && len(ids) > 0
}

// resolventForDependency derives the target Resolvent for a sanitized
// dependency, applying §4.7.5's virtual rewriting first.
func (r *Resolver) resolventForDependency(from Resolvent, d SanitisedDependency) (Resolvent, bool) {
	var qpn QualifiedPackageName
	var slot SlotHint
	switch {
	case d.Package != nil:
		if isVirtual(d.Package.QPN()) {
			rewritten := rewriteVirtualPackage(d.Package, r.virtuals)
			if rewritten.Kind == NodeAny && len(rewritten.Children) > 0 {
				first := rewritten.Children[0].Package
				qpn, slot = first.QPN(), slotHintOf(first)
				break
			}
		}
		qpn, slot = d.Package.QPN(), slotHintOf(d.Package)
	case d.Block != nil:
		qpn, slot = d.Block.Spec.QPN(), slotHintOf(d.Block.Spec)
	default:
		return Resolvent{}, false
	}
	return Resolvent{Package: qpn, Slot: slot, Destination: from.Destination}, true
}

// addDependencyConstraint converts one sanitized dependency into a
// Constraint against its target Resolvent, recording an Arrow on the
// dependent side for the orderer's NAG construction (§4.8).
func (r *Resolver) addDependencyConstraint(from Resolvent, d SanitisedDependency) {
	resolvent, ok := r.resolventForDependency(from, d)
	if !ok {
		return
	}

	if d.Block != nil && resolvent.Package == from.Package {
		r.sink.Notify(NotificationEvent{Kind: EventSelfBlockWarning, Label: from.String(), Reason: d.Block.Render()})
		return
	}

	c := Constraint{
		Reason:          Reason{Kind: ReasonDependency, FromResolvent: from, SanitisedDep: d},
		DestinationType: from.Destination,
		Untaken:         d.Untaken,
		UseExisting:     UseExistingIfPossible,
	}
	if d.Package != nil {
		c.Spec = d.Package
	}
	if d.Block != nil {
		c.Block = d.Block
		if d.Block.Strong {
			c.UseExisting = UseExistingOnlyIfTransient
		}
	}
	r.addConstraint(resolvent, c)

	fromRes := r.resolutions[from]
	fromRes.Arrows = append(fromRes.Arrows, Arrow{To: resolvent, Labels: d.Labels})
}

// Resolutions returns every Resolution reached so far, in first-seen order
// (stable for tests and for debugDump, even though map iteration is not).
func (r *Resolver) Resolutions() []*Resolution {
	out := make([]*Resolution, 0, len(r.order))
	for _, resolvent := range r.order {
		out = append(out, r.resolutions[resolvent])
	}
	return out
}

// ResolutionLists partitions Resolutions() into the three buckets a
// collaborator inspects once Resolve returns (§6 "Exposed to
// collaborators"): Ordered holds every resolvent whose Decision produced
// real work, Errors holds every resolvent the resolver couldn't decide, and
// Untaken holds resolvents whose constraints were all recorded for
// visibility only (e.g. SuggestedShow) and never became part of the plan.
func (r *Resolver) ResolutionLists() ResolutionLists {
	var lists ResolutionLists
	for _, res := range r.Resolutions() {
		switch {
		case res.Decision != nil && res.Decision.Kind == DecisionUnableToMake:
			lists.Errors = append(lists.Errors, &UnableToMakeDecision{
				Resolvent:  res.Resolvent,
				Candidates: res.Decision.UnsuitableCandidates,
			})
		case res.Decision != nil && res.Decision.IsChangeOrRemove():
			lists.Ordered = append(lists.Ordered, res)
		case allConstraintsUntaken(res.Constraints):
			lists.Untaken = append(lists.Untaken, res)
		}
	}
	return lists
}

func allConstraintsUntaken(cs []Constraint) bool {
	if len(cs) == 0 {
		return false
	}
	for _, c := range cs {
		if !c.Untaken {
			return false
		}
	}
	return true
}

// ResolutionLists is the §6 partition Resolver.ResolutionLists returns.
type ResolutionLists struct {
	Ordered []*Resolution
	Errors  []*UnableToMakeDecision
	Untaken []*Resolution
}
