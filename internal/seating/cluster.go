package seating

import (
	"sort"
	"strconv"
	"strings"
)

type keyKind uint8

const (
	householdKey keyKind = iota + 1
	surnameGroupKey
	surnameKey
)

// ClusterKey identifies a cohesion unit.  It is one of Household(id),
// SurnameGroup(surname, group) or Surname(surname) and is comparable, so it
// can be used directly as a map key.
type ClusterKey struct {
	kind      keyKind
	household uint64
	surname   string
	group     string
}

func HouseholdKey(id uint64) ClusterKey { return ClusterKey{kind: householdKey, household: id} }

func SurnameGroupKey(surname, group string) ClusterKey {
	return ClusterKey{kind: surnameGroupKey, surname: surname, group: group}
}

func SurnameKey(surname string) ClusterKey { return ClusterKey{kind: surnameKey, surname: surname} }

// IsHousehold reports whether the key comes from an explicit household link.
func (k ClusterKey) IsHousehold() bool { return k.kind == householdKey }

// String renders the key in the "H:<id>", "LN:<surname>|G:<group>" or
// "LN:<surname>" form used in logs.
func (k ClusterKey) String() string {
	switch k.kind {
	case householdKey:
		return "H:" + strconv.FormatUint(k.household, 10)
	case surnameGroupKey:
		return "LN:" + k.surname + "|G:" + k.group
	case surnameKey:
		return "LN:" + k.surname
	}
	return ""
}

// Cluster is a set of guests that should share a table.
type Cluster struct {
	Key      ClusterKey
	GuestIDs []uint64
}

// Size returns the number of guests in the cluster.
func (c Cluster) Size() int { return len(c.GuestIDs) }

// Surname returns the last whitespace separated token of the trimmed name.
// A single token name is its own surname.
//
// This is a heuristic: unrelated guests sharing a surname and no group tag
// end up in the same cluster.
func Surname(fullName string) string {
	parts := strings.Fields(fullName)
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

// KeyFor applies the grouping policy to one guest: household first, then
// surname plus group tag, then surname alone.
func KeyFor(g Guest) ClusterKey {
	if g.HouseholdID != nil {
		return HouseholdKey(*g.HouseholdID)
	}
	surname := Surname(g.FullName)
	if group := strings.TrimSpace(g.Group); group != "" {
		return SurnameGroupKey(surname, group)
	}
	return SurnameKey(surname)
}

// BuildClusters partitions guests into clusters in a single pass.  Clusters
// appear in order of first encounter and keep their guests in input order.
func BuildClusters(guests []Guest) []Cluster {
	index := make(map[ClusterKey]int, len(guests))
	clusters := make([]Cluster, 0, len(guests))
	for _, g := range guests {
		key := KeyFor(g)
		i, ok := index[key]
		if !ok {
			i = len(clusters)
			index[key] = i
			clusters = append(clusters, Cluster{Key: key})
		}
		clusters[i].GuestIDs = append(clusters[i].GuestIDs, g.ID)
	}
	return clusters
}

// OrderClusters sorts clusters largest first.  Equal sizes keep their
// relative order.
func OrderClusters(clusters []Cluster) []Cluster {
	out := make([]Cluster, len(clusters))
	copy(out, clusters)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Size() > out[j].Size()
	})
	return out
}
