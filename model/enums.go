package model

import (
	"fmt"
	"strings"
)

// ProductLevel identifies a CYGNSS data product level.
type ProductLevel int

const (
	ProductL1 ProductLevel = 1
	ProductL2 ProductLevel = 2
	ProductL3 ProductLevel = 3
)

func (p ProductLevel) String() string {
	return fmt.Sprintf("L%d", int(p))
}

// ParseProductLevel converts a string such as "L1" into a ProductLevel.
func ParseProductLevel(s string) (ProductLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "L1":
		return ProductL1, nil
	case "L2":
		return ProductL2, nil
	case "L3":
		return ProductL3, nil
	default:
		return 0, fmt.Errorf("unknown product level %q", s)
	}
}

// AggregationMethod selects how irregular observations are reduced onto a grid.
type AggregationMethod int

const (
	// DropInBucket assigns each observation to its nearest cell and averages.
	DropInBucket AggregationMethod = iota
	// InverseDistance spreads each observation across nearby cells weighted
	// by inverse squared great-circle distance.
	InverseDistance
)

func (m AggregationMethod) String() string {
	switch m {
	case DropInBucket:
		return "drop-in-bucket"
	case InverseDistance:
		return "inverse-distance"
	default:
		return fmt.Sprintf("AggregationMethod(%d)", int(m))
	}
}

// ParseAggregationMethod converts a CLI/config string into an AggregationMethod.
func ParseAggregationMethod(s string) (AggregationMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "drop-in-bucket", "dropinbucket", "bucket":
		return DropInBucket, nil
	case "inverse-distance", "inversedistance", "idw":
		return InverseDistance, nil
	default:
		return 0, fmt.Errorf("unknown aggregation method %q", s)
	}
}
