package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseIDs expands a comma separated list of 1-based id phrases over ids
// [1, max]:
//
//	":"   = every id, from 1 to max
//	"end" = last id, max
//	"N"   = single id N
//	"A:B" = ids A through B
//	":B"  = ids 1 through B
//	"A:"  = ids A through max
//
// Ids are returned in phrase order and may repeat. An empty list returns nil.
func ParseIDs(list string, max int) (I Index, err error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	I = Index{}
	for _, phrase := range strings.Split(list, ",") {
		var i1, i2 int
		if i1, i2, err = ParseDim(strings.TrimSpace(phrase), max); err != nil {
			return nil, err
		}
		for _, id := range []int{i1, i2} {
			if id < 1 || id > max {
				return nil, NewIndexError("utils.ParseIDs", fmt.Sprintf("id in %q", phrase), id, 1, max+1)
			}
		}
		I = append(I, NewRange(i1, i2)...)
	}
	return
}

// ParseDim converts one id phrase into an inclusive 1-based range.
func ParseDim(dim string, max int) (i1, i2 int, err error) {
	switch dim {
	case "end":
		i1, i2 = max, max
	case ":":
		i1, i2 = 1, max
	case "":
		err = fmt.Errorf("empty id phrase")
	default:
		i1, i2, err = parseRange(dim, max)
	}
	return
}

func parseRange(dim string, max int) (i1, i2 int, err error) {
	var (
		splits = strings.Split(dim, ":")
	)
	if len(splits) > 2 {
		err = fmt.Errorf("invalid id range %q", dim)
		return
	}
	atoi := func(s string, missing int) (int, error) {
		switch s {
		case "":
			return missing, nil
		case "end":
			return max, nil
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("invalid id range %q: %w", dim, err)
		}
		return v, nil
	}
	if len(splits) == 1 {
		if i1, err = atoi(splits[0], 0); err == nil {
			i2 = i1
		}
		return
	}
	if i1, err = atoi(splits[0], 1); err != nil {
		return
	}
	if i2, err = atoi(splits[1], max); err != nil {
		return
	}
	if i2 < i1 {
		err = fmt.Errorf("invalid id range %q: %d > %d", dim, i1, i2)
	}
	return
}
