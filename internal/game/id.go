package game

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// idNamespace scopes every engine-generated id.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("boardgame.engine"))

// NewID derives a stable UUIDv5 from its parts. The engine never uses random
// or wall-clock ids so replays produce identical ids.
func NewID(parts ...any) string {
	s := make([]string, len(parts))
	for i, p := range parts {
		s[i] = fmt.Sprint(p)
	}
	return uuid.NewSHA1(idNamespace, []byte(strings.Join(s, "/"))).String()
}
