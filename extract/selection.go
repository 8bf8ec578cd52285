package extract

import (
	"fmt"

	"github.com/notargets/fvmesh/utils"
)

// Selection is either every entity of a kind or an explicit list of 1-based
// ids. An explicit list may be empty, which is distinct from All.
type Selection struct {
	all bool
	ids []int
}

func All() Selection {
	return Selection{all: true}
}

// List selects ids explicitly. The slice is normalized in place when the
// selection is used.
func List(ids ...int) Selection {
	return Selection{ids: ids}
}

// FromSlice maps a nil slice to All and anything else to an explicit list.
func FromSlice(ids []int) Selection {
	if ids == nil {
		return All()
	}
	return List(ids...)
}

func (s Selection) IsAll() bool { return s.all }

func (s Selection) IDs() []int { return s.ids }

// empty reports whether s selects nothing explicitly.
func (s Selection) empty() bool { return !s.all && len(s.ids) == 0 }

func (s Selection) String() string {
	if s.all {
		return "all"
	}
	return fmt.Sprintf("%d ids", len(s.ids))
}

// Normalize sorts ids ascending and removes duplicates in place, then checks
// every id lies in [1, n]. The returned slice is a prefix of ids.
func Normalize(fn, entity string, ids []int, n int) ([]int, error) {
	canon := utils.Index(ids).SortUnique()
	if err := canon.CheckRange(fn, entity, 1, n+1); err != nil {
		return nil, err
	}
	return canon, nil
}
