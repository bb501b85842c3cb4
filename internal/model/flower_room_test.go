package model

import (
	"testing"
	"time"
)

func TestFlowerRoom_CurrentDay(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	start := now.AddDate(0, 0, -10)
	room := &FlowerRoom{IsActive: true, StartDate: &start, FloweringDays: 56}

	if got := room.CurrentDay(now); got != 11 {
		t.Errorf("期望第11天，实际=%d", got)
	}

	inactive := &FlowerRoom{FloweringDays: 56}
	if got := inactive.CurrentDay(now); got != 0 {
		t.Errorf("非活跃房间期望第0天，实际=%d", got)
	}

	// 开始日期在未来时最小为第1天
	future := now.AddDate(0, 0, 3)
	room.StartDate = &future
	if got := room.CurrentDay(now); got != 1 {
		t.Errorf("期望第1天，实际=%d", got)
	}
}

func TestFlowerRoom_ProgressCapped(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	start := now.AddDate(0, 0, -100)
	room := &FlowerRoom{IsActive: true, StartDate: &start, FloweringDays: 56}

	if got := room.Progress(now); got != 100 {
		t.Errorf("超期进度应封顶100，实际=%v", got)
	}
	if got := room.DaysRemaining(now); got != 0 {
		t.Errorf("超期剩余天数应为0，实际=%d", got)
	}

	// 经过28天（第29天）= 56 天周期的一半
	half := now.AddDate(0, 0, -28)
	room.StartDate = &half
	if got := room.Progress(now); got != 50 {
		t.Errorf("期望进度=50，实际=%v", got)
	}
	if got := room.DaysRemaining(now); got != 28 {
		t.Errorf("期望剩余28天，实际=%d", got)
	}

	// 经过10天 → round(10/56*100)=18，进度按经过天数而非显示天数计算
	tenth := now.AddDate(0, 0, -10)
	room.StartDate = &tenth
	if got := room.Progress(now); got != 18 {
		t.Errorf("期望进度=18，实际=%v", got)
	}
	if got := room.DaysRemaining(now); got != 46 {
		t.Errorf("期望剩余46天，实际=%d", got)
	}
}

func TestStrainAllocations_LabelAndTotal(t *testing.T) {
	allocs := StrainAllocations{
		{Name: "Gelato", PlantsCount: 10},
		{Name: "Wedding Cake", PlantsCount: 5},
	}
	if got := allocs.Label(); got != "Gelato / Wedding Cake" {
		t.Errorf("期望标签=Gelato / Wedding Cake，实际=%s", got)
	}
	if got := allocs.TotalPlants(); got != 15 {
		t.Errorf("期望总株数=15，实际=%d", got)
	}
	if got := len(allocs.Names()); got != 2 {
		t.Errorf("期望2个品种名，实际=%d", got)
	}
}

func TestLighting_TotalWatts(t *testing.T) {
	l := Lighting{LampType: "HPS", LampCount: 12, WattsPerLamp: 600}
	if got := l.TotalWatts(); got != 7200 {
		t.Errorf("期望总功率=7200，实际=%d", got)
	}
	if got := (Lighting{}).TotalWatts(); got != 0 {
		t.Errorf("空配置期望总功率=0，实际=%d", got)
	}
}
