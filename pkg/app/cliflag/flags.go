// Package cliflag groups pflag flag sets by section so help output and
// config binding stay ordered.
package cliflag

import (
	"github.com/spf13/pflag"
)

// NamedFlagSets stores named flag sets in the order of calling FlagSet.
type NamedFlagSets struct {
	// Order is an ordered list of flag set names.
	Order []string
	// FlagSets stores the flag sets by name.
	FlagSets map[string]*pflag.FlagSet
}

// FlagSet returns the flag set with the given name and adds it to the
// ordered name list if it is not in there yet.
func (nfs *NamedFlagSets) FlagSet(name string) *pflag.FlagSet {
	if nfs.FlagSets == nil {
		nfs.FlagSets = map[string]*pflag.FlagSet{}
	}
	if _, ok := nfs.FlagSets[name]; !ok {
		nfs.FlagSets[name] = pflag.NewFlagSet(name, pflag.ExitOnError)
		nfs.Order = append(nfs.Order, name)
	}
	return nfs.FlagSets[name]
}

// VisitAll calls fn for every flag of every set, in set order.
func (nfs *NamedFlagSets) VisitAll(fn func(section string, f *pflag.Flag)) {
	for _, name := range nfs.Order {
		nfs.FlagSets[name].VisitAll(func(f *pflag.Flag) { fn(name, f) })
	}
}
