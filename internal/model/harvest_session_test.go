package model

import "testing"

func TestHarvestSession_StrainBreakdown_KeepsFirstSeenOrder(t *testing.T) {
	session := &HarvestSession{
		Strain: "Fallback",
		Plants: []HarvestPlant{
			{PlantNumber: 11, Strain: "Wedding Cake", WetWeight: 300},
			{PlantNumber: 1, Strain: "Gelato", WetWeight: 400},
			{PlantNumber: 2, Strain: "Gelato", WetWeight: 420},
			{PlantNumber: 3, Strain: "", WetWeight: 100},
		},
	}

	breakdown := session.StrainBreakdown()
	if len(breakdown) != 3 {
		t.Fatalf("期望3个品种，实际=%d", len(breakdown))
	}
	if breakdown[0].Name != "Wedding Cake" || breakdown[1].Name != "Gelato" {
		t.Errorf("应保持首次出现顺序，实际=%v", breakdown)
	}
	if breakdown[1].PlantsCount != 2 || breakdown[1].WetWeight != 820 {
		t.Errorf("期望 Gelato 2株820克，实际=%v", breakdown[1])
	}
	// 无品种的株回退到会话标签
	if breakdown[2].Name != "Fallback" {
		t.Errorf("期望回退品种=Fallback，实际=%s", breakdown[2].Name)
	}

	if got := session.TotalWetWeight(); got != 1220 {
		t.Errorf("期望总湿重=1220，实际=%v", got)
	}
}

func TestCrewMembers_FindAndHasRole(t *testing.T) {
	crew := CrewMembers{
		{UserID: "u1", Name: "张三", Role: CrewRoleWeighing},
		{UserID: "u2", Name: "李四", Role: CrewRoleCarrying},
	}

	if idx := crew.FindByUser("u2"); idx != 1 {
		t.Errorf("期望索引=1，实际=%d", idx)
	}
	if idx := crew.FindByUser("u9"); idx != -1 {
		t.Errorf("不存在的用户期望-1，实际=%d", idx)
	}
	if !crew.HasRole(CrewRoleWeighing) {
		t.Error("应存在称重角色")
	}
	if crew.HasRole(CrewRoleCutting) {
		t.Error("不应存在剪枝角色")
	}
}
