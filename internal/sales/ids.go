package sales

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// IDGenerator hands out sale ids together with their ordering sequence.
type IDGenerator interface {
	NextSaleID() (id string, seq int64)
}

// SnowflakeIDs issues time-ordered ids of the form sale-<snowflake>.
type SnowflakeIDs struct {
	node *snowflake.Node
}

// NewSnowflakeIDs builds a generator for the given node number (0-1023).
func NewSnowflakeIDs(nodeID int64) (*SnowflakeIDs, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", nodeID, err)
	}
	return &SnowflakeIDs{node: node}, nil
}

func (g *SnowflakeIDs) NextSaleID() (string, int64) {
	id := g.node.Generate()
	return "sale-" + id.String(), id.Int64()
}
