package paludis

import "context"

// anyGroupScore implements the per-child scoring table from §4.7.4, used
// only when a caller wants a best-first ordering rather than first-fit
// (e.g. any-group reordering for readability).
func anyGroupScore(env Environment, db PackageDatabase, spec *PackageDepSpec, installed InstalledLookup, beingInstalled func(QualifiedPackageName) bool) int {
	bias := 9 // no version operator: scored like ">="
	if len(spec.Versions.Items) > 0 {
		bias = operatorBias(spec.Versions.Items[0].Op)
	}

	if installed != nil && installed.HasInstalledMatch(spec) {
		return 50 + bias
	}
	if installed != nil {
		loose := spec.Clone()
		loose.AdditionalRequirements = nil
		if installed.HasInstalledMatch(loose) {
			return 40 + bias
		}
	}
	if beingInstalled != nil && beingInstalled(spec.QPN()) {
		return 30 + bias
	}
	ids, err := GeneratorMatches(env, spec, MatchOptions{}).run1(db)
	if err == nil {
		for _, id := range ids {
			if !id.Masked() {
				return 20 + bias
			}
		}
		if len(ids) > 0 {
			return 10 + bias
		}
	}
	return 0
}

// run1 is a tiny adapter so anyGroupScore can call a Generator without
// threading a caller-supplied context through the scoring helper (scoring
// never blocks on I/O in this module's fixtures/test backends).
func (g Generator) run1(db PackageDatabase) ([]PackageID, error) {
	return g(context.Background(), db)
}

// operatorBias implements §4.7.4's operator bias table.
func operatorBias(op VersionOperator) int {
	switch op {
	case OpGreaterEqual, OpGreater:
		return 9
	case OpEqualStarNum, OpEqualStarText, OpEqual, OpTilde, OpTildeGreater:
		return 2
	case OpLess, OpLessEqual:
		return 1
	default:
		return 9
	}
}

// rewriteVirtualPackage implements §4.7.5: a Package(virtual/foo) spec
// becomes Any(Package(prov1), Package(prov2), ...) using the resolver's
// virtuals rewrite table.
func rewriteVirtualPackage(spec *PackageDepSpec, rewrite map[QualifiedPackageName][]QualifiedPackageName) *DepSpecNode {
	provided, ok := rewrite[spec.QPN()]
	if !ok || len(provided) == 0 {
		return PackageNode(spec)
	}
	children := make([]*DepSpecNode, 0, len(provided))
	for _, qpn := range provided {
		sub := spec.Clone()
		sub.Category = qpn.Category
		sub.Package = qpn.Package
		children = append(children, PackageNode(sub))
	}
	return Any(children...)
}

// rewriteVirtualBlock implements §4.7.5: a Block(virtual/foo) becomes
// All(Block(prov1), Block(prov2), ...), excluding the current resolvent's
// own package name (the open-question self-block tolerance in §9 is
// handled by the resolver's apply step, not here).
func rewriteVirtualBlock(block *BlockSpec, rewrite map[QualifiedPackageName][]QualifiedPackageName, selfQPN QualifiedPackageName) *DepSpecNode {
	provided, ok := rewrite[block.Spec.QPN()]
	if !ok || len(provided) == 0 {
		return BlockNode(block)
	}
	var children []*DepSpecNode
	for _, qpn := range provided {
		if qpn == selfQPN {
			continue
		}
		sub := block.Spec.Clone()
		sub.Category = qpn.Category
		sub.Package = qpn.Package
		children = append(children, BlockNode(&BlockSpec{Spec: sub, Strong: block.Strong}))
	}
	return All(children...)
}

const virtualCategory = CategoryName("virtual")

// isVirtual reports whether qpn belongs to the "virtual" category (§4.7.5).
func isVirtual(qpn QualifiedPackageName) bool { return qpn.Category == virtualCategory }
