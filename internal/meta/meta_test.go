package meta

import "testing"

func TestUpgradeCostGrowth(t *testing.T) {
	if got := UpgradeCost(40, 1.65, 0); got != 40 {
		t.Fatalf("level 0 cost = %d, want 40", got)
	}
	if got := UpgradeCost(40, 1.65, 1); got != 66 {
		t.Fatalf("level 1 cost = %d, want 66", got)
	}
}

func TestAddSpendSouls(t *testing.T) {
	s := NewStore()
	s.AddSouls(-5)
	if s.Souls() != 0 {
		t.Fatalf("negative credit should be ignored, got %d", s.Souls())
	}
	s.AddSouls(10)
	if s.SpendSouls(11) {
		t.Fatal("overspend should fail")
	}
	if !s.SpendSouls(4) || s.Souls() != 6 {
		t.Fatalf("spend failed, balance %d", s.Souls())
	}
}

func TestBuyUpgrade(t *testing.T) {
	s := NewStore()
	s.AddSouls(500)
	if !s.BuyUpgrade("u", 40, 1.65, 2) {
		t.Fatal("first purchase should succeed")
	}
	if s.Souls() != 460 {
		t.Fatalf("balance %d, want 460", s.Souls())
	}
	if !s.BuyUpgrade("u", 40, 1.65, 2) {
		t.Fatal("second purchase should succeed")
	}
	if s.Souls() != 394 {
		t.Fatalf("balance %d, want 394 after a 66 soul level", s.Souls())
	}
	if s.BuyUpgrade("u", 40, 1.65, 2) {
		t.Fatal("purchase past maxLevel should fail")
	}
	if s.UpgradeLevel("u") != 2 {
		t.Fatalf("level %d, want 2", s.UpgradeLevel("u"))
	}
}

func TestBuyUpgradeInsufficient(t *testing.T) {
	s := NewStore()
	s.AddSouls(10)
	if s.BuyUpgrade("u", 40, 1.65, 0) {
		t.Fatal("purchase without souls should fail")
	}
	if s.UpgradeLevel("u") != 0 || s.Souls() != 10 {
		t.Fatal("failed purchase must not mutate state")
	}
}

func TestBuyNodeFlatPrice(t *testing.T) {
	s := NewStore()
	s.AddSouls(30)
	if !s.BuyNode("n", 12, 2) || !s.BuyNode("n", 12, 2) {
		t.Fatal("two purchases should succeed")
	}
	if s.Souls() != 6 {
		t.Fatalf("balance %d, want 6", s.Souls())
	}
	if s.BuyNode("n", 12, 2) {
		t.Fatal("purchase past maxLevel should fail")
	}
}

func TestRestoreSanitizes(t *testing.T) {
	s := NewStore()
	s.Restore(Progress{
		CatSouls:          -4,
		PermanentUpgrades: map[string]int{"a": 2, "b": 0, "c": -1},
	})
	if s.Souls() != 0 {
		t.Fatalf("negative balance should clamp, got %d", s.Souls())
	}
	if s.UpgradeLevel("a") != 2 {
		t.Fatalf("valid level lost: %d", s.UpgradeLevel("a"))
	}
	if s.UpgradeLevel("b") != 0 || s.UpgradeLevel("c") != 0 {
		t.Fatal("non-positive levels should be dropped")
	}
}
