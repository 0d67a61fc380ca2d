//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"telegram-storefront-bot/internal/domain/ports/adapter"
	"telegram-storefront-bot/internal/usecase"
)

const adminChat = int64(42)

func TestBroadcastUseCase(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	tr := newTestTranslator()

	t.Run("should count one failure without aborting", func(t *testing.T) {
		// Arrange
		repo := NewMockUserRepo()
		repo.ListRegisteredIDsFunc = func(context.Context) ([]int64, error) { return []int64{1, 2, 3}, nil }
		bot := &MockTelegramBot{
			SendMessageFunc: func(ctx context.Context, p adapter.SendMessageParams) error {
				if p.ChatID == 2 {
					return errors.New("bot was blocked by the user")
				}
				return nil
			},
		}
		uc := usecase.NewBroadcastUseCase(repo, bot, tr, nil, 0, logger)

		// Act
		rep, err := uc.Broadcast(ctx, adminChat, usecase.BroadcastRequest{Kind: usecase.BroadcastText, Text: "  Hello  "})

		// Assert
		if err != nil {
			t.Fatalf("Broadcast failed: %v", err)
		}
		if rep != (usecase.BroadcastReport{Attempted: 3, Succeeded: 2, Failed: 1}) {
			t.Errorf("unexpected report: %+v", rep)
		}
		msgs := bot.Messages()
		if len(msgs) != 4 {
			t.Fatalf("expected 3 deliveries and a summary, got %d", len(msgs))
		}
		for _, m := range msgs[:3] {
			if m.Text != "Hello" {
				t.Errorf("text should be trimmed, got %q", m.Text)
			}
		}
		if want := tr.T("broadcast.text_done", 2, 1); msgs[3].ChatID != adminChat || msgs[3].Text != want {
			t.Errorf("unexpected summary: %+v", msgs[3])
		}
	})

	t.Run("should reply with usage on empty text", func(t *testing.T) {
		repo := NewMockUserRepo()
		repo.ListRegisteredIDsFunc = func(context.Context) ([]int64, error) {
			t.Fatal("recipients must not be listed")
			return nil, nil
		}
		bot := &MockTelegramBot{}
		uc := usecase.NewBroadcastUseCase(repo, bot, tr, nil, 0, logger)

		rep, err := uc.Broadcast(ctx, adminChat, usecase.BroadcastRequest{Kind: usecase.BroadcastText, Text: "   "})

		if err != nil || rep.Attempted != 0 {
			t.Fatalf("unexpected result %+v %v", rep, err)
		}
		if texts := bot.Texts(); len(texts) != 1 || texts[0] != tr.T("broadcast.usage") {
			t.Errorf("expected usage reply, got %v", texts)
		}
	})

	t.Run("should relay photos and videos by file id", func(t *testing.T) {
		repo := NewMockUserRepo()
		repo.ListRegisteredIDsFunc = func(context.Context) ([]int64, error) { return []int64{7, 8}, nil }
		bot := &MockTelegramBot{}
		uc := usecase.NewBroadcastUseCase(repo, bot, tr, nil, 1000, logger)

		_, err := uc.Broadcast(ctx, adminChat, usecase.BroadcastRequest{Kind: usecase.BroadcastPhoto, Text: "sale", FileID: "ph-1"})
		if err != nil {
			t.Fatalf("photo broadcast failed: %v", err)
		}
		_, err = uc.Broadcast(ctx, adminChat, usecase.BroadcastRequest{Kind: usecase.BroadcastVideo, FileID: "vd-1"})
		if err != nil {
			t.Fatalf("video broadcast failed: %v", err)
		}

		if len(bot.Photos) != 2 || bot.Photos[1] != (adapter.SendMediaParams{ChatID: 8, FileID: "ph-1", Caption: "sale"}) {
			t.Errorf("unexpected photos: %+v", bot.Photos)
		}
		if len(bot.Videos) != 2 || bot.Videos[0].Caption != "" {
			t.Errorf("unexpected videos: %+v", bot.Videos)
		}
		texts := bot.Texts()
		if texts[0] != tr.T("broadcast.photo_done", 2, 0) || texts[1] != tr.T("broadcast.video_done", 2, 0) {
			t.Errorf("unexpected summaries: %v", texts)
		}
	})

	t.Run("should refuse to overlap a running broadcast", func(t *testing.T) {
		repo := NewMockUserRepo()
		locker := NewMockLocker()
		if _, err := locker.TryLock(ctx, "lock:job:broadcast", 0); err != nil {
			t.Fatal(err)
		}
		bot := &MockTelegramBot{}
		uc := usecase.NewBroadcastUseCase(repo, bot, tr, locker, 0, logger)

		rep, err := uc.Broadcast(ctx, adminChat, usecase.BroadcastRequest{Kind: usecase.BroadcastText, Text: "x"})

		if err != nil || rep.Attempted != 0 {
			t.Fatalf("unexpected result %+v %v", rep, err)
		}
		if texts := bot.Texts(); len(texts) != 1 || texts[0] != tr.T("job.busy") {
			t.Errorf("expected busy reply, got %v", texts)
		}
	})

	t.Run("should fail when recipients cannot be loaded", func(t *testing.T) {
		repo := NewMockUserRepo()
		boom := fmt.Errorf("db down")
		repo.ListRegisteredIDsFunc = func(context.Context) ([]int64, error) { return nil, boom }
		bot := &MockTelegramBot{}
		uc := usecase.NewBroadcastUseCase(repo, bot, tr, NewMockLocker(), 0, logger)

		_, err := uc.Broadcast(ctx, adminChat, usecase.BroadcastRequest{Kind: usecase.BroadcastText, Text: "x"})

		if !errors.Is(err, boom) {
			t.Fatalf("expected storage error, got %v", err)
		}
		if len(bot.Messages()) != 0 {
			t.Error("no summary expected on failure")
		}
	})
}
