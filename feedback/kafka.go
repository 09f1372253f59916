package feedback

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/rushteam/hybridrec/core"
)

// KafkaCollector Kafka 采集器（生产环境推荐）。
// 事件先进内存缓冲，按批量大小或刷新间隔异步发送，不阻塞服务路径。
type KafkaCollector struct {
	client        *kgo.Client
	topic         string
	batchSize     int
	flushInterval time.Duration

	mu        sync.Mutex
	buffer    []*Event
	lastFlush time.Time
	closed    bool
	closeOnce sync.Once
	wg        sync.WaitGroup
	stopCh    chan struct{}
}

// KafkaCollectorConfig Kafka 采集器配置
type KafkaCollectorConfig struct {
	// Kafka 配置
	Brokers []string // Kafka Broker 地址列表
	Topic   string   // Kafka Topic

	// 性能配置
	BatchSize     int           // 批量大小（建议 100-1000）
	FlushInterval time.Duration // 刷新间隔（建议 1-5 秒）

	// Kafka 客户端配置
	ClientID     string // 客户端 ID
	RequiredAcks int16  // 需要的 ACK 数量（1=leader, -1=all）
	Compression  string // 压缩类型（gzip, snappy, lz4, zstd）
	Idempotent   bool   // 是否启用幂等性
	MaxRetries   int    // 最大重试次数
}

// NewKafkaCollector 创建 Kafka 采集器。
func NewKafkaCollector(config KafkaCollectorConfig) (*KafkaCollector, error) {
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = 1 * time.Second
	}
	if config.ClientID == "" {
		config.ClientID = "hybridrec-feedback-collector"
	}
	if config.RequiredAcks == 0 {
		config.RequiredAcks = 1
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(config.Brokers...),
		kgo.ClientID(config.ClientID),
	}

	var acks kgo.Acks
	switch config.RequiredAcks {
	case -1:
		acks = kgo.AllISRAcks()
	default:
		acks = kgo.LeaderAck()
	}
	opts = append(opts, kgo.RequiredAcks(acks))

	if config.MaxRetries > 0 {
		opts = append(opts, kgo.RecordRetries(config.MaxRetries))
	}
	if !config.Idempotent {
		opts = append(opts, kgo.DisableIdempotentWrite())
	}

	switch config.Compression {
	case "gzip":
		opts = append(opts, kgo.ProducerBatchCompression(kgo.GzipCompression()))
	case "snappy":
		opts = append(opts, kgo.ProducerBatchCompression(kgo.SnappyCompression()))
	case "lz4":
		opts = append(opts, kgo.ProducerBatchCompression(kgo.Lz4Compression()))
	case "zstd":
		opts = append(opts, kgo.ProducerBatchCompression(kgo.ZstdCompression()))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, err
	}

	c := &KafkaCollector{
		client:        client,
		topic:         config.Topic,
		batchSize:     config.BatchSize,
		flushInterval: config.FlushInterval,
		buffer:        make([]*Event, 0, config.BatchSize),
		lastFlush:     time.Now(),
		stopCh:        make(chan struct{}),
	}

	c.wg.Add(1)
	go c.flushLoop()

	return c, nil
}

func (c *KafkaCollector) RecordImpressions(_ context.Context, userID string, recs []core.Recommendation) error {
	if c.isClosed() {
		return nil
	}
	return c.bufferEvents(impressionEvents(userID, recs))
}

func (c *KafkaCollector) RecordSearch(_ context.Context, query string, hits []core.SearchHit) error {
	if c.isClosed() {
		return nil
	}
	return c.bufferEvents(searchEvents(query, hits))
}

func (c *KafkaCollector) RecordPurchase(_ context.Context, userID, itemID string, quantity, price float64) error {
	if c.isClosed() {
		return nil
	}
	return c.bufferEvents([]*Event{{
		UserID:    userID,
		ItemID:    itemID,
		Type:      EventTypePurchase,
		Timestamp: time.Now().Unix(),
		Quantity:  quantity,
		Price:     price,
	}})
}

// bufferEvents 非阻塞缓冲事件。
func (c *KafkaCollector) bufferEvents(events []*Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.buffer = append(c.buffer, events...)

	// 达到批量大小，触发发送
	if len(c.buffer) >= c.batchSize {
		go c.flush()
	}
	return nil
}

// flushLoop 定时刷新循环
func (c *KafkaCollector) flushLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			shouldFlush := len(c.buffer) > 0 && time.Since(c.lastFlush) >= c.flushInterval
			c.mu.Unlock()

			if shouldFlush {
				c.flush()
			}
		case <-c.stopCh:
			return
		}
	}
}

// flush 刷新缓冲到 Kafka。
func (c *KafkaCollector) flush() {
	c.mu.Lock()
	if len(c.buffer) == 0 {
		c.mu.Unlock()
		return
	}
	events := make([]*Event, len(c.buffer))
	copy(events, c.buffer)
	c.buffer = c.buffer[:0]
	c.lastFlush = time.Now()
	c.mu.Unlock()

	for _, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		record := &kgo.Record{
			Topic: c.topic,
			// UserID 作 Key，保证同一用户的事件有序
			Key:   []byte(event.UserID),
			Value: data,
		}
		c.client.Produce(context.Background(), record, nil)
	}
}

func (c *KafkaCollector) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close 优雅关闭（等待缓冲数据发送完成）。
func (c *KafkaCollector) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		close(c.stopCh)
		c.flush()
		c.wg.Wait()
		c.client.Close()
	})
	return nil
}

var _ Collector = (*KafkaCollector)(nil)
