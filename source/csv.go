package source

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rushteam/hybridrec/core"
)

// RetailCSV 是零售交易流水 CSV 的数据源（Online Retail II 格式）。
// 同时实现 InteractionSource 与 ItemSource。
//
// 期望列：Invoice, StockCode, Description, Quantity, InvoiceDate, Price,
// Customer ID, Country。
//
// 清洗规则：
//   - 丢弃缺失 Customer ID 的行
//   - 丢弃 Price <= 0 的行
//   - 丢弃 Quantity <= 0 的行（退货为负数量）
//   - Customer ID 去掉末尾的 ".0"（浮点导出遗留）
//
// 物品记录由流水派生：同一 StockCode 取出现最多的描述、平均价格，
// 频次为清洗后的行数。
//
// 每次快照重新读取文件，保证一次构建内数据一致。
type RetailCSV struct {
	Path string
}

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"1/2/2006 15:04",
	"1/2/06 15:04",
}

func (s *RetailCSV) Interactions(ctx context.Context) ([]core.Interaction, error) {
	rows, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.Interaction, len(rows))
	for i, r := range rows {
		out[i] = r.Interaction
	}
	return out, nil
}

func (s *RetailCSV) Items(ctx context.Context) ([]core.ItemRecord, error) {
	rows, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	type agg struct {
		descCount map[string]int
		firstDesc []string // 按首次出现顺序，众数并列时取先出现者
		priceSum  float64
		count     int
	}
	byItem := make(map[string]*agg)
	order := make([]string, 0)

	for _, r := range rows {
		a, ok := byItem[r.ItemID]
		if !ok {
			a = &agg{descCount: make(map[string]int)}
			byItem[r.ItemID] = a
			order = append(order, r.ItemID)
		}
		desc := strings.TrimSpace(r.description)
		if _, seen := a.descCount[desc]; !seen {
			a.firstDesc = append(a.firstDesc, desc)
		}
		a.descCount[desc]++
		a.priceSum += r.UnitPrice
		a.count++
	}

	out := make([]core.ItemRecord, 0, len(order))
	for _, id := range order {
		a := byItem[id]
		best, bestCount := "", -1
		for _, desc := range a.firstDesc {
			if a.descCount[desc] > bestCount {
				best, bestCount = desc, a.descCount[desc]
			}
		}
		out = append(out, core.ItemRecord{
			ID:          id,
			Description: best,
			Price:       a.priceSum / float64(a.count),
			Frequency:   a.count,
		})
	}
	return out, nil
}

type csvRow struct {
	core.Interaction
	description string
}

func (s *RetailCSV) load(ctx context.Context) ([]csvRow, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, err
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}

	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []csvRow
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		customer := strings.TrimSuffix(field(rec, "Customer ID"), ".0")
		if customer == "" {
			continue
		}
		price, err := strconv.ParseFloat(field(rec, "Price"), 64)
		if err != nil || price <= 0 {
			continue
		}
		qty, err := strconv.ParseFloat(field(rec, "Quantity"), 64)
		if err != nil || qty <= 0 {
			continue
		}

		var occurred time.Time
		for _, layout := range dateLayouts {
			if ts, err := time.Parse(layout, field(rec, "InvoiceDate")); err == nil {
				occurred = ts
				break
			}
		}

		rows = append(rows, csvRow{
			Interaction: core.Interaction{
				UserID:     customer,
				ItemID:     field(rec, "StockCode"),
				Quantity:   qty,
				UnitPrice:  price,
				Invoice:    field(rec, "Invoice"),
				OccurredAt: occurred,
			},
			description: field(rec, "Description"),
		})
	}
	return rows, nil
}

var _ core.InteractionSource = (*RetailCSV)(nil)
var _ core.ItemSource = (*RetailCSV)(nil)
