package store

import (
	"errors"
	"testing"
)

func TestSettingRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	if _, err := repo.Get("gift_rate"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	if err := repo.Set("gift_rate", "0.05"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := repo.Set("gift_rate", "0.06"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	if got, _ := repo.Get("gift_rate"); got != "0.06" {
		t.Errorf("Get() = %q, want 0.06", got)
	}

	if err := repo.SetAll(map[string]string{"bauble_rate": "0.1", "threshold": "3"}); err != nil {
		t.Fatalf("SetAll() error = %v", err)
	}
	all, err := repo.All()
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	want := map[string]string{"gift_rate": "0.06", "bauble_rate": "0.1", "threshold": "3"}
	if len(all) != len(want) {
		t.Fatalf("All() = %v, want %v", all, want)
	}
	for k, v := range want {
		if all[k] != v {
			t.Errorf("All()[%q] = %q, want %q", k, all[k], v)
		}
	}

	if err := repo.Delete("threshold"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete("threshold"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}
