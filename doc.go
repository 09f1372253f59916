// Package hybridrec 是一个混合推荐与语义搜索引擎。
//
// 设计要点：
// - 双信号: 协同过滤（交互矩阵低秩分解）+ 内容相似（描述向量近邻检索）
// - 产物整体发布: ID 映射、因子模型、向量索引作为一个不可变单元原子替换
// - 训练不阻塞服务: 后台构建基于数据快照，失败不影响已发布产物
package hybridrec

import (
	"github.com/rushteam/hybridrec/engine"
)

// 轻量 facade：便于用户直接 import "hybridrec" 使用核心抽象。
type Engine = engine.Engine
type Trainer = engine.Trainer
type State = engine.State

const (
	StateIdle       = engine.StateIdle
	StateBuilding   = engine.StateBuilding
	StatePublishing = engine.StatePublishing
	StateFailed     = engine.StateFailed
)
