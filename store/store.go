package store

// 注意：此包只包含实现，接口定义在 core 包。
// 使用 core.Store 和 core.KeyValueStore 接口。
//
// 示例：
//   var s core.Store = NewMemoryStore()
//   var kv core.KeyValueStore = NewMemoryStore()
//
// 本系统中存储承担两个职责：
//   - 模型产物 bundle 的持久化（artifact.BundleStore）
//   - 热门物品有序集合（训练发布时写入，冷启动接口读取）
