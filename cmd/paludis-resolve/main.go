package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/sdboyer/constext"
	"github.com/sirupsen/logrus"

	paludis "github.com/exherbo/paludis-resolve"
	"github.com/exherbo/paludis-resolve/internal/cache"
	"github.com/exherbo/paludis-resolve/internal/digest"
	"github.com/exherbo/paludis-resolve/internal/localrepo"
	"github.com/exherbo/paludis-resolve/internal/lockfile"
	"github.com/exherbo/paludis-resolve/log"
)

var (
	overlayDir   = flag.String("overlay", "testdata", "root of the on-disk repository tree to resolve against")
	repoName     = flag.String("repository", "testrepo", "name assigned to the overlay repository")
	distribution = flag.String("distribution", "amd64", "active keyword/distribution tag")
	cacheDir     = flag.String("cache", "", "directory for the resolve-result cache (disabled if empty)")
	lockOut      = flag.String("lock", "", "path to write a lockfile of the resolution (skipped if empty)")
	useFlags     = flag.String("use", "", "comma-separated USE flags to force, prefix with - to disable")
	verbose      = flag.Bool("v", false, "log resolver/orderer progress to stderr")
	timeout      = flag.Duration("timeout", 2*time.Minute, "abandon the resolve/order run after this long")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	targets := flag.Args()
	if len(targets) == 0 {
		usage()
		os.Exit(1)
	}

	if err := run(targets); err != nil {
		fmt.Fprintf(os.Stderr, "paludis-resolve: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: paludis-resolve [flags] <target...>")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Resolves one or more package targets against an on-disk overlay and")
	fmt.Fprintln(os.Stderr, "prints the ordered job list that would satisfy them.")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Flags:")
	w := tabwriter.NewWriter(os.Stderr, 0, 4, 2, ' ', 0)
	flag.VisitAll(func(f *flag.Flag) {
		fmt.Fprintf(w, "\t-%s\t%s (default %q)\n", f.Name, f.Usage, f.DefValue)
	})
	w.Flush()
}

func run(targets []string) error {
	logger := log.New(os.Stderr)
	if !*verbose {
		logger.SetLevel(logrus.WarnLevel)
	}
	sink := cliSink{log.NewSink(logger)}

	name, err := paludis.NewRepositoryName(*repoName)
	if err != nil {
		return errors.Wrap(err, "repository name")
	}
	repo := localrepo.New(localrepo.Config{Name: name, Root: *overlayDir})
	db := paludis.NewPackageDatabase(repo)

	var extraUse []string
	if *useFlags != "" {
		extraUse = strings.Split(*useFlags, ",")
	}
	env := newSimpleEnvironment(db, *distribution, extraUse, nil, sink)

	digestInput := make([]digest.Input, 0, len(targets))
	for _, t := range targets {
		digestInput = append(digestInput, digest.Input{Rendered: t, Reason: "target"})
	}
	runDigest := digest.HashInputs(digestInput, fmt.Sprintf("%s/%s", *distribution, *useFlags))

	var resultCache *cache.Cache
	if *cacheDir != "" {
		resultCache, err = cache.Open(*cacheDir)
		if err != nil {
			return errors.Wrap(err, "opening cache")
		}
		defer resultCache.Close()

		if cached, ok, err := resultCache.Get(runDigest); err == nil && ok {
			fmt.Fprintln(os.Stderr, "paludis-resolve: using cached resolution")
			os.Stdout.Write(cached)
			return nil
		}
	}

	resolver := paludis.NewResolver(env, paludis.DefaultOptions(), paludis.PackageIDComparator{})
	for _, t := range targets {
		spec, err := parseTargetAtom(t)
		if err != nil {
			return errors.Wrapf(err, "parsing target %q", t)
		}
		resolver.AddTarget(spec, paludis.DestinationInstallToRoot)
	}

	ctx, stopSignal := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stopSignal()
	deadlineCtx, cancelDeadline := context.WithTimeout(context.Background(), *timeout)
	defer cancelDeadline()

	// Two independent cancellation sources — an interrupt from the terminal
	// and the run's own deadline — neither of which should have to know
	// about the other, the same combining need deducers.go's callManager
	// solves by merging its caller's context with its own bookkeeping one.
	runCtx, cancelRun := constext.Cons(ctx, deadlineCtx)
	defer cancelRun()

	if err := resolver.Resolve(runCtx); err != nil {
		return errors.Wrap(err, "resolving")
	}

	lists := resolver.ResolutionLists()
	for _, unable := range lists.Errors {
		fmt.Fprintf(os.Stderr, "paludis-resolve: %v\n", unable)
	}
	if len(lists.Errors) > 0 {
		return errors.Errorf("%d resolvent(s) could not be decided", len(lists.Errors))
	}

	nag := paludis.BuildNAG(resolver.Resolutions())
	orderer := paludis.NewOrderer(nag, sink)
	jobs, err := orderer.Order()
	if err != nil {
		return errors.Wrap(err, "ordering")
	}

	rendered := renderJobs(jobs)
	fmt.Print(rendered)

	if resultCache != nil {
		if err := resultCache.Put(runDigest, []byte(rendered)); err != nil {
			return errors.Wrap(err, "writing cache entry")
		}
	}

	if *lockOut != "" {
		lock := lockfile.Lock{InputsDigest: runDigest}
		for _, j := range jobs {
			if j.ID == nil {
				continue
			}
			lock.Entries = append(lock.Entries, lockfile.Entry{
				Package:     j.ID.Name().String(),
				Slot:        string(paludis.SlotOf(j.ID)),
				Destination: int(j.Resolvent.Destination),
				Version:     j.ID.Version().String(),
				Repository:  string(j.ID.Repository()),
			})
		}
		data, err := lockfile.Marshal(lock)
		if err != nil {
			return errors.Wrap(err, "marshaling lockfile")
		}
		if err := os.WriteFile(*lockOut, data, 0o644); err != nil {
			return errors.Wrap(err, "writing lockfile")
		}
	}

	return nil
}

// parseTargetAtom parses a single "category/package[-version][:slot]" CLI
// argument into a PackageDepSpec by running it through the same dependency
// grammar metadata files use, then unwrapping the single Package leaf it
// must produce.
func parseTargetAtom(text string) (*paludis.PackageDepSpec, error) {
	tree, err := paludis.ParseDependency(text, paludis.DefaultEAPI, false)
	if err != nil {
		return nil, err
	}
	var spec *paludis.PackageDepSpec
	paludis.ForEach(tree, func(n *paludis.DepSpecNode) {
		if n.Kind == paludis.NodePackage {
			spec = n.Package
		}
	})
	if spec == nil {
		return nil, errors.Errorf("%q is not a single package atom", text)
	}
	return spec, nil
}

func renderJobs(jobs []paludis.Job) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	for _, j := range jobs {
		verb := jobVerb(j.Kind)
		if j.ID != nil {
			fmt.Fprintf(w, "%s\t%s\n", verb, j.ID.CanonicalForm(paludis.CanonicalFull))
		} else {
			fmt.Fprintf(w, "%s\t%s\n", verb, j.Resolvent.String())
		}
	}
	w.Flush()
	return b.String()
}

// cliSink adapts log.Sink (which stays free of a domain import) into
// paludis.NotificationSink for the one place this CLI needs that interface.
type cliSink struct {
	log.Sink
}

func (s cliSink) Notify(ev paludis.NotificationEvent) {
	s.Sink.NotifyEvent(log.EventKind(ev.Kind), ev.Label, ev.Reason)
}

func jobVerb(kind paludis.JobKind) string {
	switch kind {
	case paludis.JobFetch:
		return "fetch"
	case paludis.JobPretend:
		return "pretend"
	case paludis.JobInstall:
		return "install"
	case paludis.JobUninstall:
		return "uninstall"
	default:
		return "?"
	}
}
