package support

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/support-bot-backend/internal/data/repos/testutil"
	types "github.com/yungbote/support-bot-backend/internal/domain"
	"github.com/yungbote/support-bot-backend/internal/platform/dbctx"
)

func TestConversationRepoUpsert(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewConversationRepo(db, testutil.Logger(t))

	first, err := repo.Upsert(dbc, types.PlatformTelegram, "12345", "alice")
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if first.Handle != "alice" || first.FirstSeenAt.IsZero() {
		t.Fatalf("unexpected row: %+v", first)
	}

	second, err := repo.Upsert(dbc, types.PlatformTelegram, "12345", "")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Fatal("same (platform, chat_id) must resolve to one conversation")
	}
	if second.Handle != "alice" {
		t.Fatalf("empty handle should not clear the stored one, got %q", second.Handle)
	}
	if second.LastSeenAt.Before(first.LastSeenAt) {
		t.Fatal("last_seen_at went backwards")
	}
	if !second.FirstSeenAt.Equal(first.FirstSeenAt) {
		t.Fatal("first_seen_at must not change on revisit")
	}

	renamed, err := repo.Upsert(dbc, types.PlatformTelegram, "12345", "alice_new")
	if err != nil {
		t.Fatalf("third upsert: %v", err)
	}
	if renamed.Handle != "alice_new" {
		t.Fatalf("non-empty handle should replace, got %q", renamed.Handle)
	}

	other, err := repo.Upsert(dbc, types.PlatformTelegram, "67890", "bob")
	if err != nil {
		t.Fatalf("other upsert: %v", err)
	}
	if other.ID == first.ID {
		t.Fatal("distinct chat ids must map to distinct conversations")
	}
}

func TestConversationRepoUpsertConcurrent(t *testing.T) {
	db := testutil.DB(t)
	repo := NewConversationRepo(db, testutil.Logger(t))

	// Races go through the pool, not the per-test transaction, so the rows
	// are cleaned up explicitly.
	chatID := "race-" + uuid.NewString()
	t.Cleanup(func() {
		db.Where("platform = ? AND chat_id = ?", types.PlatformTelegram, chatID).
			Delete(&types.Conversation{})
	})

	const racers = 16
	var wg sync.WaitGroup
	errs := make(chan error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			dbc := dbctx.Context{Ctx: context.Background()}
			if _, err := repo.Upsert(dbc, types.PlatformTelegram, chatID, fmt.Sprintf("racer_%d", i)); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent upsert: %v", err)
	}

	var rows []*types.Conversation
	if err := db.Where("platform = ? AND chat_id = ?", types.PlatformTelegram, chatID).
		Find(&rows).Error; err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("concurrent upserts left %d rows, want 1", len(rows))
	}

	latest := rows[0].LastSeenAt
	touched, err := repo.Upsert(dbctx.Context{Ctx: context.Background()}, types.PlatformTelegram, chatID, "")
	if err != nil {
		t.Fatalf("follow-up upsert: %v", err)
	}
	if touched.ID != rows[0].ID {
		t.Fatal("follow-up upsert resolved a different conversation")
	}
	if touched.LastSeenAt.Before(latest) {
		t.Fatal("last_seen_at went backwards after the race")
	}
}

func TestConversationRepoRiskFlag(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewConversationRepo(db, testutil.Logger(t))

	convo := testutil.SeedConversation(t, ctx, tx, "555")
	if convo.RiskFlag {
		t.Fatal("risk flag should default false")
	}

	if err := repo.SetRiskFlag(dbc, convo.ID); err != nil {
		t.Fatalf("set risk flag: %v", err)
	}
	got, err := repo.GetByID(dbc, convo.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.RiskFlag {
		t.Fatal("risk flag not persisted")
	}

	// Sticky: setting again stays true.
	if err := repo.SetRiskFlag(dbc, convo.ID); err != nil {
		t.Fatalf("re-set risk flag: %v", err)
	}
	got, _ = repo.GetByID(dbc, convo.ID)
	if !got.RiskFlag {
		t.Fatal("risk flag must stay set")
	}
}

func TestConversationRepoList(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewConversationRepo(db, testutil.Logger(t))

	a := testutil.SeedConversation(t, ctx, tx, "111")
	b := testutil.SeedConversation(t, ctx, tx, "222")
	if err := tx.WithContext(ctx).Model(b).Update("last_seen_at", time.Now().UTC().Add(time.Hour)).Error; err != nil {
		t.Fatalf("bump last_seen_at: %v", err)
	}

	items, total, err := repo.List(dbc, "", 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("total=%d len=%d, want 2/2", total, len(items))
	}
	if items[0].ID != b.ID {
		t.Fatal("list should order by last_seen_at desc")
	}

	items, total, err = repo.List(dbc, "111", 10, 0)
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].ID != a.ID {
		t.Fatalf("filter by chat_id failed: total=%d", total)
	}
}
