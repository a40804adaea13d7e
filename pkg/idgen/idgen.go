// Package idgen 基于雪花算法生成全局唯一、按时间递增的 ID
package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Generator 雪花 ID 生成器，可并发使用
type Generator struct {
	node *snowflake.Node
}

// New nodeID 取值 [0, 1023]
func New(nodeID int64) (*Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node %d: %w", nodeID, err)
	}
	return &Generator{node: node}, nil
}

// NextID 返回十进制字符串形式的新 ID
func (g *Generator) NextID() string {
	return g.node.Generate().String()
}
