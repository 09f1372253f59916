package source

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rushteam/hybridrec/core"
)

const retailSample = `Invoice,StockCode,Description,Quantity,InvoiceDate,Price,Customer ID,Country
536365,85123A,WHITE HANGING HEART,6,2009-12-01 07:45:00,2.55,13085.0,United Kingdom
536366,85123A,WHITE HANGING HEART,2,2009-12-01 07:46:00,2.55,13086.0,United Kingdom
536367,85123A,WHITE HEART,1,2009-12-01 07:47:00,2.95,13085.0,United Kingdom
536368,84406B,CREAM CUPID HEARTS,4,2009-12-01 08:00:00,3.39,13087,France
536369,85123A,WHITE HANGING HEART,3,2009-12-01 08:05:00,2.55,,United Kingdom
536370,84406B,CREAM CUPID HEARTS,5,2009-12-01 08:10:00,0,13085.0,France
C536371,85123A,WHITE HANGING HEART,-6,2009-12-01 08:15:00,2.55,13085.0,United Kingdom
`

func writeSample(t *testing.T) *RetailCSV {
	t.Helper()
	path := filepath.Join(t.TempDir(), "retail.csv")
	if err := os.WriteFile(path, []byte(retailSample), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	return &RetailCSV{Path: path}
}

func TestRetailCSV_Interactions(t *testing.T) {
	src := writeSample(t)
	got, err := src.Interactions(context.Background())
	if err != nil {
		t.Fatalf("Interactions: %v", err)
	}

	// 缺 Customer ID、价格为 0、负数量（退货）共 3 行被清洗掉
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4 rows after cleaning: %v", len(got), got)
	}

	first := got[0]
	if first.UserID != "13085" {
		t.Errorf("UserID = %q, want \"13085\" with \".0\" stripped", first.UserID)
	}
	if first.ItemID != "85123A" || first.Quantity != 6 || first.UnitPrice != 2.55 {
		t.Errorf("first row = %+v", first)
	}
	if first.Invoice != "536365" {
		t.Errorf("Invoice = %q, want 536365", first.Invoice)
	}
	if first.OccurredAt.IsZero() {
		t.Error("OccurredAt must be parsed from InvoiceDate")
	}
}

func TestRetailCSV_Items(t *testing.T) {
	src := writeSample(t)
	got, err := src.Items(context.Background())
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 items: %v", len(got), got)
	}

	// 首次出现顺序
	if got[0].ID != "85123A" || got[1].ID != "84406B" {
		t.Fatalf("order = [%s %s], want [85123A 84406B]", got[0].ID, got[1].ID)
	}

	heart := got[0]
	if heart.Description != "WHITE HANGING HEART" {
		t.Errorf("Description = %q, want mode description", heart.Description)
	}
	if heart.Frequency != 3 {
		t.Errorf("Frequency = %d, want 3 cleaned rows", heart.Frequency)
	}
	wantPrice := (2.55 + 2.55 + 2.95) / 3
	if math.Abs(heart.Price-wantPrice) > 1e-9 {
		t.Errorf("Price = %v, want mean %v", heart.Price, wantPrice)
	}
}

func TestMemorySource_SnapshotIsolation(t *testing.T) {
	ctx := context.Background()
	src := NewMemorySource()
	src.AddInteractions(core.Interaction{UserID: "u1", ItemID: "A", Quantity: 1})

	snap, err := src.Interactions(ctx)
	if err != nil {
		t.Fatalf("Interactions: %v", err)
	}

	// 快照取出后追加的数据不影响已取快照
	src.AddInteractions(core.Interaction{UserID: "u2", ItemID: "B", Quantity: 2})
	if len(snap) != 1 {
		t.Errorf("snapshot len = %d, want 1", len(snap))
	}
	later, _ := src.Interactions(ctx)
	if len(later) != 2 {
		t.Errorf("second snapshot len = %d, want 2", len(later))
	}
}
