package game

import (
	"math"
	"testing"
)

func TestClampKeepsDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Clamp()
	if cfg != DefaultConfig() {
		t.Errorf("clamping the defaults changed them:\n%+v", cfg)
	}
}

func TestClampRepairsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Hearts = 50
	cfg.MaxHearts = 0
	cfg.BottleChance = 3
	cfg.PipeSeparation = 10
	cfg.Gravity = math.NaN()
	cfg.PoliceShotDelay = 10
	cfg.Clamp()

	if cfg.MaxHearts != 1 || cfg.Hearts != 1 {
		t.Errorf("expected hearts clamped to 1/1, got %d/%d", cfg.Hearts, cfg.MaxHearts)
	}
	if cfg.BottleChance != 1 {
		t.Errorf("expected bottle chance 1, got %v", cfg.BottleChance)
	}
	if cfg.PipeSeparation != cfg.PipeWidth {
		t.Errorf("expected separation raised to pipe width, got %v", cfg.PipeSeparation)
	}
	if cfg.Gravity != 0 {
		t.Errorf("expected NaN gravity to clamp to 0, got %v", cfg.Gravity)
	}
	if cfg.PoliceShotDelay != cfg.PoliceReload {
		t.Errorf("expected shot delay capped at reload, got %v", cfg.PoliceShotDelay)
	}
}
