// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package physical

import (
	"strconv"
	"strings"
)

// DistributionType describes how the rows of a relational expression are
// spread across the processes that produce them.
type DistributionType uint8

const (
	// AnyDistribution places no requirement on the distribution.
	AnyDistribution DistributionType = iota
	// SingletonDistribution means all rows are produced by a single process.
	SingletonDistribution
	// HashDistribution means rows are partitioned by a hash of the key fields.
	HashDistribution
	// BroadcastDistribution means every process has a copy of every row.
	BroadcastDistribution
	// RandomDistribution means rows are spread without regard to content.
	RandomDistribution
)

var distributionNames = [...]string{
	AnyDistribution:       "any",
	SingletonDistribution: "singleton",
	HashDistribution:      "hash",
	BroadcastDistribution: "broadcast",
	RandomDistribution:    "random",
}

// Distribution is the physical partitioning of the rows of a relational
// expression. Keys are field ordinals and are only set for
// HashDistribution.
type Distribution struct {
	Type DistributionType
	Keys []int
}

// HashDistributed returns a distribution hashed on the given fields.
func HashDistributed(keys ...int) Distribution {
	return Distribution{Type: HashDistribution, Keys: keys}
}

// Any returns true if the distribution places no requirement.
func (d Distribution) Any() bool {
	return d.Type == AnyDistribution
}

// Equals returns true if the two distributions are identical.
func (d Distribution) Equals(other Distribution) bool {
	if d.Type != other.Type || len(d.Keys) != len(other.Keys) {
		return false
	}
	for i := range d.Keys {
		if d.Keys[i] != other.Keys[i] {
			return false
		}
	}
	return true
}

// Satisfies returns true if rows distributed according to d also satisfy the
// required distribution.
func (d Distribution) Satisfies(required Distribution) bool {
	if required.Any() {
		return true
	}
	return d.Equals(required)
}

func (d Distribution) String() string {
	var sb strings.Builder
	sb.WriteString(distributionNames[d.Type])
	if len(d.Keys) > 0 {
		sb.WriteByte('(')
		for i, k := range d.Keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Itoa(k))
		}
		sb.WriteByte(')')
	}
	return sb.String()
}
