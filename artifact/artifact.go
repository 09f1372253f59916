package artifact

import (
	"fmt"
	"time"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/factor"
	"github.com/rushteam/hybridrec/idmap"
	"github.com/rushteam/hybridrec/vector"
)

// Artifact 是一次训练产出的不可变模型产物：
// ID 映射快照、隐因子模型、向量索引与物品元信息的整体。
//
// 约定：
//   - 由一次训练完整构建，发布后不再修改
//   - 映射表、因子矩阵、向量索引始终作为一个单元整体替换，
//     读者不会观察到新旧混搭
//   - 只读共享，多 goroutine 并发读取无需加锁
type Artifact struct {
	// Version 是产物版本号（构建时间戳派生，单调可比较）
	Version string

	// BuiltAt 是构建完成时间
	BuiltAt time.Time

	// Users 是用户外部 ID ↔ 内部下标映射快照
	Users *idmap.Registry

	// Items 是物品外部 ID ↔ 内部下标映射快照
	Items *idmap.Registry

	// Factors 是协同信号：低秩隐因子模型
	Factors *factor.Model

	// Index 是内容信号：物品描述向量的精确索引
	Index *vector.FlatIndex

	// Meta 是物品元信息（展示/统计用，不参与打分）
	Meta map[string]core.ItemMeta
}

// ErrCorrupt 表示持久化的产物未通过完整性/形状校验，整体拒绝加载。
var ErrCorrupt = core.NewDomainError(core.ModuleArtifact, core.ErrorCodeCorrupt,
	"artifact: bundle failed integrity check")

// Validate 校验产物内部一致性：
// 因子矩阵、向量索引与映射表的规模必须互相吻合。
func (a *Artifact) Validate() error {
	if a.Users == nil || a.Items == nil || a.Factors == nil || a.Index == nil {
		return corrupt("missing component")
	}
	if a.Factors.NumUsers() != a.Users.Len() {
		return corrupt(fmt.Sprintf("user factors rows %d != users %d",
			a.Factors.NumUsers(), a.Users.Len()))
	}
	if a.Factors.NumItems() != a.Items.Len() {
		return corrupt(fmt.Sprintf("item factors cols %d != items %d",
			a.Factors.NumItems(), a.Items.Len()))
	}
	if a.Index.Len() != a.Items.Len() {
		return corrupt(fmt.Sprintf("index vectors %d != items %d",
			a.Index.Len(), a.Items.Len()))
	}
	for j, row := range a.Factors.ItemFactors {
		if len(row) != a.Items.Len() {
			return corrupt(fmt.Sprintf("item factors row %d has %d cols", j, len(row)))
		}
	}
	for u, row := range a.Factors.UserFactors {
		if len(row) != a.Factors.Rank {
			return corrupt(fmt.Sprintf("user factors row %d has %d cols", u, len(row)))
		}
	}
	return nil
}

func corrupt(detail string) *core.DomainError {
	return core.NewDomainError(core.ModuleArtifact, core.ErrorCodeCorrupt,
		"artifact: "+detail)
}
