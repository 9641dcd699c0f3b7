package colors

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// CategoryState is the calendar color held by one task category.
type CategoryState struct {
	ColorID  string    `json:"color_id"`
	LastUsed time.Time `json:"last_used"`
}

// ColorCache hands out Google Calendar event colors per category. There are
// only eleven, so when all are taken the least recently used category gives
// its color up.
type ColorCache struct {
	Path       string
	Categories map[string]*CategoryState `json:"categories"`
	dirty      bool
	now        func() time.Time
}

const (
	// DefaultColorID is used for tasks without a category.
	DefaultColorID = "8"
	// CompletedColorID marks completed tasks regardless of category.
	CompletedColorID = "8"

	maxColorID = 11
)

// Open loads the cache from path; a missing file is an empty cache.
func Open(path string) (*ColorCache, error) {
	cache := &ColorCache{
		Path:       path,
		Categories: make(map[string]*CategoryState),
		now:        time.Now,
	}
	if _, err := os.Stat(path); err == nil {
		if err := cache.Load(); err != nil {
			return nil, err
		}
	}
	return cache, nil
}

func (c *ColorCache) Load() error {
	f, err := os.Open(c.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(&c.Categories)
}

func (c *ColorCache) Save() error {
	if !c.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.Path), 0700); err != nil {
		log.Printf("Error creating color cache directory: %v", err)
		return err
	}

	f, err := os.Create(c.Path)
	if err != nil {
		log.Printf("Error creating color cache file: %v", err)
		return err
	}
	defer f.Close()
	err = json.NewEncoder(f).Encode(c.Categories)
	if err == nil {
		c.dirty = false
	}
	return err
}

// ColorID returns the color for a category, assigning one on first use.
func (c *ColorCache) ColorID(category string) string {
	if category == "" {
		return DefaultColorID
	}
	if state, ok := c.Categories[category]; ok {
		state.LastUsed = c.now()
		c.dirty = true
		return state.ColorID
	}
	return c.assign(category)
}

func (c *ColorCache) assign(category string) string {
	used := make(map[string]bool)
	for _, s := range c.Categories {
		used[s.ColorID] = true
	}
	for i := 1; i <= maxColorID; i++ {
		id := strconv.Itoa(i)
		if id == CompletedColorID || used[id] {
			continue
		}
		c.Categories[category] = &CategoryState{ColorID: id, LastUsed: c.now()}
		c.dirty = true
		return id
	}

	// Every color is taken: recycle the least recently used one.
	var oldest string
	for name, s := range c.Categories {
		if oldest == "" || s.LastUsed.Before(c.Categories[oldest].LastUsed) {
			oldest = name
		}
	}
	recycled := c.Categories[oldest].ColorID
	delete(c.Categories, oldest)
	c.Categories[category] = &CategoryState{ColorID: recycled, LastUsed: c.now()}
	c.dirty = true
	return recycled
}
