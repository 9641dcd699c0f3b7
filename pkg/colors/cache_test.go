package colors

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func TestColorIDStableAndRecycled(t *testing.T) {
	cache, err := Open(filepath.Join(t.TempDir(), "colors.json"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	if got := cache.ColorID(""); got != DefaultColorID {
		t.Errorf("Expected default color for empty category, got %s", got)
	}

	work := cache.ColorID("Work")
	if again := cache.ColorID("Work"); again != work {
		t.Errorf("Expected stable color, got %s then %s", work, again)
	}
	if work == CompletedColorID {
		t.Errorf("Category must not receive the completed color")
	}

	// Ten colors are assignable; the eleventh category recycles the least
	// recently used one.
	for i := 0; i < 9; i++ {
		cache.ColorID(fmt.Sprintf("cat%d", i))
	}
	cache.ColorID("Work")
	recycled := cache.ColorID("overflow")
	if _, ok := cache.Categories["cat0"]; ok {
		t.Errorf("Expected cat0 to be evicted")
	}
	if recycled == work {
		t.Errorf("Recently used Work color should not be recycled")
	}

	if err := cache.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	reopened, err := Open(cache.Path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	if reopened.Categories["Work"].ColorID != work {
		t.Errorf("Expected Work color to persist")
	}
}
