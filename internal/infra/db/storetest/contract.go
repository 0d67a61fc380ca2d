// Package storetest holds behaviour checks shared by every UserRepository
// backend.
package storetest

import (
	"context"
	"errors"
	"testing"

	"telegram-storefront-bot/internal/domain"
	"telegram-storefront-bot/internal/domain/model"
	"telegram-storefront-bot/internal/domain/ports/repository"
)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
func boolPtr(b bool) *bool        { return &b }

// RunUserRepository runs the contract against a fresh, empty store returned
// by newRepo for every subtest.
func RunUserRepository(t *testing.T, newRepo func(t *testing.T) repository.UserRepository) {
	t.Helper()
	ctx := context.Background()

	t.Run("should merge partial upserts field by field", func(t *testing.T) {
		repo := newRepo(t)

		if err := repo.Upsert(ctx, 100, model.UserPatch{Phone: strPtr("+100")}); err != nil {
			t.Fatalf("upsert phone: %v", err)
		}
		if err := repo.Upsert(ctx, 100, model.UserPatch{Latitude: floatPtr(55.75), Longitude: floatPtr(37.61)}); err != nil {
			t.Fatalf("upsert coords: %v", err)
		}
		if err := repo.Upsert(ctx, 100, model.UserPatch{Phone: strPtr("+200")}); err != nil {
			t.Fatalf("upsert second phone: %v", err)
		}

		u, err := repo.FindByID(ctx, 100)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if u.Phone == nil || *u.Phone != "+200" {
			t.Errorf("expected last phone +200, got %v", u.Phone)
		}
		if u.Latitude == nil || *u.Latitude != 55.75 || u.Longitude == nil || *u.Longitude != 37.61 {
			t.Errorf("coordinates lost: %v %v", u.Latitude, u.Longitude)
		}
		if u.Registered {
			t.Error("user must not be registered yet")
		}
	})

	t.Run("should never revert registered", func(t *testing.T) {
		repo := newRepo(t)

		if err := repo.Upsert(ctx, 7, model.LocationPatch(1.5, 2.5)); err != nil {
			t.Fatalf("upsert location: %v", err)
		}
		if err := repo.Upsert(ctx, 7, model.UserPatch{Registered: boolPtr(false), Phone: strPtr("+7")}); err != nil {
			t.Fatalf("upsert with false: %v", err)
		}

		ok, err := repo.IsRegistered(ctx, 7)
		if err != nil {
			t.Fatalf("IsRegistered: %v", err)
		}
		if !ok {
			t.Error("registered flag reverted")
		}
	})

	t.Run("should report unknown users as not registered", func(t *testing.T) {
		repo := newRepo(t)

		ok, err := repo.IsRegistered(ctx, 999)
		if err != nil {
			t.Fatalf("IsRegistered: %v", err)
		}
		if ok {
			t.Error("unknown user reported as registered")
		}
		if _, err := repo.FindByID(ctx, 999); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("should list and count registered users only", func(t *testing.T) {
		repo := newRepo(t)

		for _, id := range []int64{30, 10, 20} {
			if err := repo.Upsert(ctx, id, model.LocationPatch(1, 1)); err != nil {
				t.Fatalf("upsert %d: %v", id, err)
			}
		}
		if err := repo.Upsert(ctx, 40, model.PhonePatch("+40")); err != nil {
			t.Fatalf("upsert phone-only: %v", err)
		}

		ids, err := repo.ListRegisteredIDs(ctx)
		if err != nil {
			t.Fatalf("ListRegisteredIDs: %v", err)
		}
		want := []int64{10, 20, 30}
		if len(ids) != len(want) {
			t.Fatalf("expected %v, got %v", want, ids)
		}
		for i := range want {
			if ids[i] != want[i] {
				t.Errorf("expected %v, got %v", want, ids)
				break
			}
		}

		n, err := repo.CountRegistered(ctx)
		if err != nil {
			t.Fatalf("CountRegistered: %v", err)
		}
		if n != 3 {
			t.Errorf("expected 3 registered, got %d", n)
		}
	})

	t.Run("should snapshot rows for export", func(t *testing.T) {
		repo := newRepo(t)

		if err := repo.Upsert(ctx, 2, model.PhonePatch("+2")); err != nil {
			t.Fatalf("upsert: %v", err)
		}
		if err := repo.Upsert(ctx, 1, model.LocationPatch(10, 20)); err != nil {
			t.Fatalf("upsert: %v", err)
		}

		all, err := repo.ListForExport(ctx, false)
		if err != nil {
			t.Fatalf("ListForExport(all): %v", err)
		}
		if len(all) != 2 || all[0].UserID != 1 || all[1].UserID != 2 {
			t.Fatalf("unexpected export snapshot: %+v", all)
		}
		if all[1].Latitude != nil || all[1].Longitude != nil {
			t.Error("phone-only row must have no coordinates")
		}

		regOnly, err := repo.ListForExport(ctx, true)
		if err != nil {
			t.Fatalf("ListForExport(registered): %v", err)
		}
		if len(regOnly) != 1 || regOnly[0].UserID != 1 || !regOnly[0].Registered {
			t.Errorf("unexpected registered snapshot: %+v", regOnly)
		}
	})

	t.Run("should reject invalid ids", func(t *testing.T) {
		repo := newRepo(t)
		if err := repo.Upsert(ctx, 0, model.PhonePatch("+0")); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("should answer ping", func(t *testing.T) {
		if err := newRepo(t).Ping(ctx); err != nil {
			t.Errorf("Ping: %v", err)
		}
	})
}
