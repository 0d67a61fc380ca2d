package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"telegram-storefront-bot/internal/config"
	"telegram-storefront-bot/internal/domain/model"
	"telegram-storefront-bot/internal/infra/db"
	"telegram-storefront-bot/internal/infra/logging"
)

// seedUsers covers every funnel state and the coordinate edge cases the
// export has to render.
var seedUsers = []struct {
	ID    int64
	Patch model.UserPatch
}{
	{100001, model.PhonePatch("+79990000001")},
	{100002, merge(model.PhonePatch("+79990000002"), model.LocationPatch(55.751244, 37.618423))},
	{100003, merge(model.PhonePatch("+79990000003"), model.LocationPatch(59.938732, 30.316229))},
	{100004, model.LocationPatch(0, 0)},
	{100005, merge(model.PhonePatch("+79990000005"), model.LocationPatch(-33.868820, 151.209296))},
	{100006, model.UserPatch{}},
}

func merge(a, b model.UserPatch) model.UserPatch {
	if b.Phone != nil {
		a.Phone = b.Phone
	}
	if b.Latitude != nil {
		a.Latitude = b.Latitude
	}
	if b.Longitude != nil {
		a.Longitude = b.Longitude
	}
	if b.Registered != nil {
		a.Registered = b.Registered
	}
	return a
}

func main() {
	// ---- Config ----
	cfg, err := config.LoadConfig()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := db.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open store")
	}
	defer store.Close()

	for _, s := range seedUsers {
		if err := store.Users.Upsert(ctx, s.ID, s.Patch); err != nil {
			logger.Fatal().Err(err).Int64("tg_id", s.ID).Msg("seed user")
		}
	}

	n, err := store.Users.CountRegistered(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("count registered")
	}
	fmt.Printf("Seeded %d users into %s (%d registered).\n", len(seedUsers), store.Driver, n)
}
