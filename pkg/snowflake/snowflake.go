package snowflake

import (
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

var Module = fx.Module("snowflake",
	fx.Provide(NewNode),
)

// Node wraps snowflake.Node to abstract dependency
type Node struct {
	*snowflake.Node
}

// NewNode uses SNOWFLAKE_NODE_ID (0-1023) so that horizontally scaled
// processes hand out distinct ids; it defaults to 1.
func NewNode() (*Node, error) {
	id := int64(1)
	if v := os.Getenv("SNOWFLAKE_NODE_ID"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, err
		}
		id = parsed
	}
	node, err := snowflake.NewNode(id)
	if err != nil {
		return nil, err
	}
	return &Node{node}, nil
}

// ShortID returns a new id in base36, short enough for log lines and headers.
func (n *Node) ShortID() string {
	return n.Generate().Base36()
}
