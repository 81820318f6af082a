package paludis

// The enumerations below are the recognized DepListOptions-style fields
// from §9, each a struct of enumerated fields with a documented default.

type ReinstallPolicy uint8

const (
	ReinstallNever ReinstallPolicy = iota
	ReinstallAlways
	ReinstallIfUseChanged
)

type ReinstallSCMPolicy uint8

const (
	ReinstallSCMNever ReinstallSCMPolicy = iota
	ReinstallSCMAlways
	ReinstallSCMDaily
	ReinstallSCMWeekly
)

type TargetType uint8

const (
	TargetTypePackage TargetType = iota
	TargetTypeSet
)

type UpgradePolicy uint8

const (
	UpgradeAlways UpgradePolicy = iota
	UpgradeAsNeeded
)

type DowngradePolicy uint8

const (
	DowngradeAsNeeded DowngradePolicy = iota
	DowngradeWarning
	DowngradeError
)

type NewSlotsPolicy uint8

const (
	NewSlotsAlways NewSlotsPolicy = iota
	NewSlotsAsNeeded
)

type FallBackPolicy uint8

const (
	FallBackNever FallBackPolicy = iota
	FallBackAsNeededExceptTargets
	FallBackAsNeeded
)

type DepsHandling uint8

const (
	DepsDiscard DepsHandling = iota
	DepsPre
	DepsRuntime
	DepsPost
	DepsPreOrPost
	DepsTryPost
	DepsDiscardAlways
)

type SuggestedHandling uint8

const (
	SuggestedShow SuggestedHandling = iota
	SuggestedInstall
	SuggestedDiscard
)

type CircularHandling uint8

const (
	CircularError CircularHandling = iota
	CircularDiscard
	CircularDiscardSilently
)

type UsePolicy uint8

const (
	UseStandard UsePolicy = iota
	UseTakeAll
	UseTakeAllTargets
)

type BlocksHandling uint8

const (
	BlocksAccumulate BlocksHandling = iota
	BlocksError
	BlocksDiscard
)

// Options is the resolver/orderer's single option bag, mirroring the
// teacher's SolveParameters / dep.Config pattern (context.go): a struct of
// enumerated fields with documented defaults, never a dynamic named-
// parameter map (§9).
type Options struct {
	Reinstall      ReinstallPolicy
	ReinstallSCM   ReinstallSCMPolicy
	TargetType     TargetType
	Upgrade        UpgradePolicy
	Downgrade      DowngradePolicy
	NewSlots       NewSlotsPolicy
	FallBack       FallBackPolicy

	DepsPre       DepsHandling
	DepsRuntime   DepsHandling
	DepsPost      DepsHandling
	DepsSuggested SuggestedHandling

	Circular CircularHandling
	Use      UsePolicy
	Blocks   BlocksHandling

	OverridePredicates OverridePredicates
	DependencyTags     bool
	MatchOptions       MatchOptions

	// MaxResolveDepth bounds decide()'s recursion (§4.7.6); 0 means use the
	// documented default of 100.
	MaxResolveDepth int
}

// DefaultOptions returns the documented defaults from §9.
func DefaultOptions() Options {
	return Options{
		Reinstall:     ReinstallNever,
		ReinstallSCM:  ReinstallSCMNever,
		TargetType:    TargetTypePackage,
		Upgrade:       UpgradeAsNeeded,
		Downgrade:     DowngradeAsNeeded,
		NewSlots:      NewSlotsAsNeeded,
		FallBack:      FallBackAsNeededExceptTargets,
		DepsPre:       DepsDiscard,
		DepsRuntime:   DepsRuntime,
		DepsPost:      DepsPost,
		DepsSuggested: SuggestedShow,
		Circular:      CircularError,
		Use:           UseStandard,
		Blocks:        BlocksAccumulate,
		MaxResolveDepth: 100,
	}
}

func (o Options) maxDepth() int {
	if o.MaxResolveDepth <= 0 {
		return 100
	}
	return o.MaxResolveDepth
}
