// Package idgen 基于雪花算法提供全局唯一 ID 生成
package idgen

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init 初始化雪花节点，nodeID 在部署拓扑内必须唯一
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// GenID 生成一个全局唯一 ID
// 未显式 Init 时使用节点 1，便于单进程与测试场景
func GenID() int64 {
	if node == nil {
		_ = Init(1)
	}
	return node.Generate().Int64()
}
