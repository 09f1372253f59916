package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/goccy/go-json"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/factor"
	"github.com/rushteam/hybridrec/idmap"
	"github.com/rushteam/hybridrec/vector"
)

const (
	bundleMagic   = "HYBRIDREC"
	bundleVersion = 1
)

// envelope 是持久化 bundle 的外层：魔数 + 格式版本 + 校验和 + 载荷。
// 任意一项不符都按整体损坏处理，绝不部分加载。
type envelope struct {
	Magic         string          `json:"magic"`
	FormatVersion int             `json:"format_version"`
	Checksum      string          `json:"checksum"` // 载荷的 sha256（hex）
	Payload       json.RawMessage `json:"payload"`
}

// payload 是产物的序列化形态：映射表、因子矩阵、原始向量、元信息。
type payload struct {
	Version     string                   `json:"version"`
	BuiltAt     time.Time                `json:"built_at"`
	Users       []string                 `json:"users"`
	Items       []string                 `json:"items"`
	Rank        int                      `json:"rank"`
	UserFactors [][]float64              `json:"user_factors"`
	ItemFactors [][]float64              `json:"item_factors"`
	Dimension   int                      `json:"dimension"`
	Vectors     [][]float64              `json:"vectors"`
	Meta        map[string]core.ItemMeta `json:"meta"`
}

// Encode 将产物序列化为带校验和的单体 bundle。
func Encode(a *Artifact) ([]byte, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	p := payload{
		Version:     a.Version,
		BuiltAt:     a.BuiltAt,
		Users:       a.Users.IDs(),
		Items:       a.Items.IDs(),
		Rank:        a.Factors.Rank,
		UserFactors: a.Factors.UserFactors,
		ItemFactors: a.Factors.ItemFactors,
		Dimension:   a.Index.Dimension(),
		Vectors:     a.Index.Vectors(),
		Meta:        a.Meta,
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(raw)
	env := envelope{
		Magic:         bundleMagic,
		FormatVersion: bundleVersion,
		Checksum:      hex.EncodeToString(sum[:]),
		Payload:       raw,
	}
	return json.Marshal(env)
}

// Decode 加载并校验持久化的 bundle。
// 魔数、格式版本、校验和、形状不变量任一不符都返回 CORRUPT，
// 调用方保持 NoArtifact 状态，绝不部分加载。
func Decode(data []byte) (*Artifact, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, ErrCorrupt
	}
	if env.Magic != bundleMagic || env.FormatVersion != bundleVersion {
		return nil, ErrCorrupt
	}
	sum := sha256.Sum256(env.Payload)
	if hex.EncodeToString(sum[:]) != env.Checksum {
		return nil, ErrCorrupt
	}

	var p payload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return nil, ErrCorrupt
	}
	if p.Dimension <= 0 {
		return nil, ErrCorrupt
	}

	idx, err := vector.NewFlatIndex(p.Dimension)
	if err != nil {
		return nil, ErrCorrupt
	}
	if err := idx.AddBatch(p.Vectors); err != nil {
		return nil, ErrCorrupt
	}

	a := &Artifact{
		Version: p.Version,
		BuiltAt: p.BuiltAt,
		Users:   idmap.New(p.Users),
		Items:   idmap.New(p.Items),
		Factors: &factor.Model{
			UserFactors: p.UserFactors,
			ItemFactors: p.ItemFactors,
			Rank:        p.Rank,
		},
		Index: idx,
		Meta:  p.Meta,
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}
