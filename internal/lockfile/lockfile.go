// Package lockfile persists a resolver run's final decisions to a TOML
// document, the Paludis-domain analogue of the teacher's manifest.go/
// lock.go/toml.go trio: a typed tree of raw rows, mapped to/from a
// *toml.Tree by hand (go-toml does not support struct tags for this
// project's vintage, matching the teacher's own manual mapper functions).
package lockfile

import (
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// Entry is one locked Resolvent: the package it names, the slot and
// destination it was resolved against, the exact version chosen, and the
// repository it came from.
type Entry struct {
	Package     string
	Slot        string
	Destination int
	Version     string
	Repository  string
}

// Lock is the full set of locked entries plus the digest of the inputs that
// produced them (see internal/digest), so a caller can tell whether the
// lock is still valid for the current target set.
type Lock struct {
	InputsDigest string
	Entries      []Entry
}

// Marshal renders l as a TOML document.
func Marshal(l Lock) ([]byte, error) {
	tree, err := toml.TreeFromMap(map[string]interface{}{
		"digest": l.InputsDigest,
	})
	if err != nil {
		return nil, errors.Wrap(err, "building lock tree")
	}

	rows := make([]*toml.Tree, 0, len(l.Entries))
	for _, e := range l.Entries {
		row, err := toml.TreeFromMap(map[string]interface{}{
			"package":     e.Package,
			"slot":        e.Slot,
			"destination": e.Destination,
			"version":     e.Version,
			"repository":  e.Repository,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "building row for %s", e.Package)
		}
		rows = append(rows, row)
	}
	tree.SetPath([]string{"entry"}, rows)
	return tree.Marshal()
}

// Unmarshal parses data into a Lock, per the teacher's tomlMapper-style
// query-then-coerce approach (go-toml's Query returns []interface{}, which
// has to be hand-asserted back into the concrete shapes we expect).
func Unmarshal(data []byte) (Lock, error) {
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return Lock{}, errors.Wrap(err, "parsing lock toml")
	}

	l := Lock{}
	if v, ok := tree.Get("digest").(string); ok {
		l.InputsDigest = v
	}

	rowsVal := tree.Get("entry")
	rows, ok := rowsVal.([]*toml.Tree)
	if !ok {
		if rowsVal != nil {
			return Lock{}, errors.Errorf("entry: expected array of tables, got %T", rowsVal)
		}
		return l, nil
	}

	for i, row := range rows {
		e := Entry{}
		if v, ok := row.Get("package").(string); ok {
			e.Package = v
		}
		if v, ok := row.Get("slot").(string); ok {
			e.Slot = v
		}
		if v, ok := row.Get("destination").(int64); ok {
			e.Destination = int(v)
		}
		if v, ok := row.Get("version").(string); ok {
			e.Version = v
		}
		if v, ok := row.Get("repository").(string); ok {
			e.Repository = v
		}
		if e.Package == "" {
			return Lock{}, errors.Errorf("entry %d: missing package", i)
		}
		l.Entries = append(l.Entries, e)
	}
	return l, nil
}
