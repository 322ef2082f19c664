package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCacheStoresNothing(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "k", []byte("A. UpperRight"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if data, hit, err := c.Get(ctx, "k"); hit || data != nil || err != nil {
		t.Errorf("Get after Set = %q, %v, %v; want a miss", data, hit, err)
	}
	if _, err := Lookup(ctx, c, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Lookup = %v, want ErrCacheMiss", err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Fatalf("empty cache Get = %v, %v", hit, err)
	}

	if err := c.Set(ctx, "k", []byte("C. LowerLeft"), time.Hour); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "C. LowerLeft" {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry survived Delete")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("deleting a missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "old", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "old"); hit {
		t.Error("expired entry returned")
	}

	// Corrupt entries are treated as misses and removed.
	bad := c.path("bad")
	if err := os.MkdirAll(filepath.Dir(bad), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "bad"); hit || err != nil {
		t.Errorf("corrupt entry Get = %v, %v", hit, err)
	}
	if _, err := os.Stat(bad); !os.IsNotExist(err) {
		t.Error("corrupt entry not removed")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	n, err := c.Clear()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry survived Clear")
	}
}

func TestLookup(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	if _, err := Lookup(ctx, c, "nope"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Lookup miss err = %v", err)
	}
	_ = c.Set(ctx, "yes", []byte("1"), 0)
	if data, err := Lookup(ctx, c, "yes"); err != nil || string(data) != "1" {
		t.Errorf("Lookup hit = %q, %v", data, err)
	}
}

func TestHash(t *testing.T) {
	// sha256("abc")
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := Hash([]byte("abc")); got != want {
		t.Errorf("Hash(abc) = %s, want %s", got, want)
	}
	if got := hashKey("answer", "p", 1); !strings.HasPrefix(got, "answer:") || len(got) != len("answer:")+64 {
		t.Errorf("hashKey = %q", got)
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()
	opts := AnswerKeyOpts{Provider: "gemini", Model: "gemini-2.0-flash", ImageHash: Hash([]byte("png"))}

	k1 := k.AnswerKey("which direction?", opts)
	if !strings.HasPrefix(k1, "answer:gemini:gemini-2.0-flash:") {
		t.Errorf("AnswerKey prefix unexpected: %s", k1)
	}
	if k1 != k.AnswerKey("which direction?", opts) {
		t.Error("AnswerKey should be deterministic")
	}

	if k1 == k.AnswerKey("which direction? (tips)", opts) {
		t.Error("Different prompts should produce different keys")
	}
	other := opts
	other.ImageHash = Hash([]byte("other"))
	if k1 == k.AnswerKey("which direction?", other) {
		t.Error("Different images should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	opts := AnswerKeyOpts{Provider: "openai", Model: "m"}
	for _, inner := range []Keyer{NewDefaultKeyer(), nil} {
		key := NewScopedKeyer(inner, "exp:7:").AnswerKey("p", opts)
		if !strings.HasPrefix(key, "exp:7:answer:openai:m:") {
			t.Errorf("scoped key = %s", key)
		}
	}
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, RedisConfig{Addr: addr, Prefix: "spatialbench-test:"})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry survived Delete")
	}
}

func TestRedisCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	_, err := NewRedisCache(ctx, RedisConfig{Addr: "127.0.0.1:1"})
	if !errors.Is(err, ErrBackend) {
		t.Errorf("err = %v, want ErrBackend", err)
	}
}

func TestFileCacheStatsAndPrune(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	if err := c.Set(ctx, "fresh", []byte("B. UpperLeft"), time.Hour); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "forever", []byte("D. LowerRight"), 0); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "stale", []byte("A. UpperRight"), time.Minute); err != nil {
		t.Fatal(err)
	}

	st, err := c.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if st.Entries != 3 || st.Expired != 0 || st.Bytes == 0 {
		t.Errorf("Stats = %+v, want 3 live entries", st)
	}

	n, err := c.Prune(time.Now().Add(2 * time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("Prune removed %d, want 1", n)
	}
	for key, want := range map[string]bool{"fresh": true, "forever": true, "stale": false} {
		if _, hit, _ := c.Get(ctx, key); hit != want {
			t.Errorf("Get(%s) hit = %v, want %v", key, hit, want)
		}
	}
}

func TestFileCacheMissingDir(t *testing.T) {
	c, _ := NewFileCache(t.TempDir())
	c.dir = filepath.Join(c.dir, "gone")

	if n, err := c.Clear(); n != 0 || err != nil {
		t.Errorf("Clear on missing dir = %d, %v", n, err)
	}
	if st, err := c.Stats(); st.Entries != 0 || err != nil {
		t.Errorf("Stats on missing dir = %+v, %v", st, err)
	}
}
