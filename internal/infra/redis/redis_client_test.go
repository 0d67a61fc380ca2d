//go:build !integration

package redis

import (
	"context"
	"testing"
	"time"

	"telegram-storefront-bot/internal/config"
)

func TestClient(t *testing.T) {
	ctx := context.Background()

	t.Run("should round-trip basic commands", func(t *testing.T) {
		c, mr := newTestClient(t)

		if err := c.Set(ctx, "k", "v", time.Minute); err != nil {
			t.Fatalf("Set: %v", err)
		}
		got, err := c.Get(ctx, "k")
		if err != nil || got != "v" {
			t.Fatalf("Get = %q, %v", got, err)
		}
		if err := c.Del(ctx, "k"); err != nil {
			t.Fatalf("Del: %v", err)
		}
		if mr.Exists("k") {
			t.Error("key still exists after Del")
		}
	})

	t.Run("should accept a redis url", func(t *testing.T) {
		opts, err := options(&config.RedisConfig{URL: "redis://:secret@localhost:6390/3"})
		if err != nil {
			t.Fatalf("options: %v", err)
		}
		if opts.Addr != "localhost:6390" || opts.Password != "secret" || opts.DB != 3 {
			t.Errorf("unexpected options: %+v", opts)
		}
	})

	t.Run("should fail when the server is unreachable", func(t *testing.T) {
		cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if _, err := NewClient(cctx, &config.RedisConfig{URL: "127.0.0.1:1"}); err == nil {
			t.Fatal("expected ping error")
		}
	})
}

func TestRateLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("should block after the limit and reset after the window", func(t *testing.T) {
		c, mr := newTestClient(t)
		rl := NewRateLimiter(c)
		key := UserCommandKey(42, "/start")

		for i := 0; i < 3; i++ {
			ok, _, err := rl.Take(ctx, key, 3, time.Minute)
			if err != nil || !ok {
				t.Fatalf("call %d: allowed=%v err=%v", i+1, ok, err)
			}
		}
		ok, _, err := rl.Take(ctx, key, 3, time.Minute)
		if err != nil || ok {
			t.Fatalf("4th call should be blocked: allowed=%v err=%v", ok, err)
		}

		mr.FastForward(time.Minute + time.Second)
		ok, _, err = rl.Take(ctx, key, 3, time.Minute)
		if err != nil || !ok {
			t.Fatalf("window should have reset: allowed=%v err=%v", ok, err)
		}
	})

	t.Run("should flag only the first denied hit", func(t *testing.T) {
		c, _ := newTestClient(t)
		rl := NewRateLimiter(c)
		key := UserCommandKey(7, "text")

		_, _, _ = rl.Take(ctx, key, 1, time.Minute)
		ok, first, err := rl.Take(ctx, key, 1, time.Minute)
		if err != nil || ok || !first {
			t.Fatalf("second hit: allowed=%v first=%v err=%v", ok, first, err)
		}
		ok, first, _ = rl.Take(ctx, key, 1, time.Minute)
		if ok || first {
			t.Fatalf("third hit: allowed=%v first=%v", ok, first)
		}
	})

	t.Run("should keep users apart", func(t *testing.T) {
		c, _ := newTestClient(t)
		rl := NewRateLimiter(c)

		if ok, _, _ := rl.Take(ctx, UserCommandKey(1, "x"), 1, time.Minute); !ok {
			t.Fatal("first user blocked")
		}
		if ok, _, _ := rl.Take(ctx, UserCommandKey(2, "x"), 1, time.Minute); !ok {
			t.Fatal("second user blocked by first user's counter")
		}
	})
}

func TestLocker(t *testing.T) {
	ctx := context.Background()

	t.Run("should grant the lock once until unlocked", func(t *testing.T) {
		c, _ := newTestClient(t)
		l := NewLocker(c)
		l.tries = 1

		token, err := l.TryLock(ctx, "lock:export", time.Minute)
		if err != nil || token == "" {
			t.Fatalf("TryLock: %q %v", token, err)
		}
		if _, err := l.TryLock(ctx, "lock:export", time.Minute); err == nil {
			t.Fatal("second TryLock should fail")
		}
		if err := l.Unlock(ctx, "lock:export", token); err != nil {
			t.Fatalf("Unlock: %v", err)
		}
		if _, err := l.TryLock(ctx, "lock:export", time.Minute); err != nil {
			t.Fatalf("TryLock after unlock: %v", err)
		}
	})

	t.Run("should ignore unlock with a foreign token", func(t *testing.T) {
		c, mr := newTestClient(t)
		l := NewLocker(c)

		if _, err := l.TryLock(ctx, "lock:broadcast", time.Minute); err != nil {
			t.Fatalf("TryLock: %v", err)
		}
		if err := l.Unlock(ctx, "lock:broadcast", "someone-else"); err != nil {
			t.Fatalf("Unlock: %v", err)
		}
		if !mr.Exists("lock:broadcast") {
			t.Error("foreign token released the lock")
		}
	})
}
