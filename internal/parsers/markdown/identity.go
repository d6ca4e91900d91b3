package markdown

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
)

// blockNamespace scopes block ids. Changing it changes every id.
var blockNamespace = uuid.MustParse("6f1c7a52-3b0e-4d8e-9a55-2c1b7e0f4d31")

const (
	pathSeparator = "\x1f"
	keySeparator  = "\x1e"
)

// identities hands out block ids for one parse.
type identities struct {
	ordinals map[string]int
}

func newIdentities() *identities {
	return &identities{ordinals: make(map[string]int)}
}

// next returns the id for the next block of kind under path.
func (ids *identities) next(path []string, kind domain.BlockKind) domain.BlockID {
	scope := strings.Join(path, pathSeparator) + keySeparator + kind.String()
	ordinal := ids.ordinals[scope]
	ids.ordinals[scope] = ordinal + 1
	return BlockID(path, kind, ordinal)
}

// BlockID derives the identity of a block from its heading path, kind and
// ordinal among blocks of the same kind under the same path.
func BlockID(path []string, kind domain.BlockKind, ordinal int) domain.BlockID {
	key := strings.Join(path, pathSeparator) + keySeparator + kind.String() + keySeparator + strconv.Itoa(ordinal)
	return domain.BlockID(uuid.NewSHA1(blockNamespace, []byte(key)).String())
}

// headingStack tracks the chain of enclosing headings.
type headingStack struct {
	levels []int
	texts  []string
}

// push enters a heading, dropping any at the same or deeper level.
func (s *headingStack) push(level int, text string) {
	n := len(s.levels)
	for n > 0 && s.levels[n-1] >= level {
		n--
	}
	s.levels = append(s.levels[:n], level)
	s.texts = append(s.texts[:n], text)
}

// path returns a copy of the current heading texts.
func (s *headingStack) path() []string {
	if len(s.texts) == 0 {
		return []string{}
	}
	return append([]string(nil), s.texts...)
}
