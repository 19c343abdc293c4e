package store_test

import (
	"context"
	"testing"

	"github.com/edwardcox/sticky-idea-pad/internal/errs"
	"github.com/edwardcox/sticky-idea-pad/internal/store"
	"github.com/edwardcox/sticky-idea-pad/internal/storetest"
	"pgregory.net/rapid"
)

func setupStore(t testing.TB) *store.Store {
	t.Helper()
	s, err := storetest.NewInMemory()
	if err != nil {
		t.Fatalf("failed to create in-memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func floatPtr(v float64) *float64 { return &v }

func sampleRecord(id string) store.Record {
	return store.Record{
		ID:        id,
		Title:     "Title " + id,
		Content:   "Content " + id,
		Color:     "#FFE4B5",
		Priority:  "normal",
		CreatedAt: "2026-01-02T03:04:05.000000006Z",
		UpdatedAt: "2026-01-02T03:04:05.000000006Z",
		PosX:      floatPtr(100),
		PosY:      floatPtr(250),
		Width:     floatPtr(280),
		Height:    nil,
	}
}

// =============================================================================
// Namespace lifecycle
// =============================================================================

func TestGetAll_NewNamespaceIsEmpty(t *testing.T) {
	t.Parallel()
	s := setupStore(t)
	ctx := context.Background()

	records, err := s.GetAll(ctx, "notes-alice")
	if err != nil {
		t.Fatalf("GetAll on fresh namespace failed: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("fresh namespace not empty: %d records", len(records))
	}

	names, err := s.Namespaces(ctx)
	if err != nil {
		t.Fatalf("Namespaces failed: %v", err)
	}
	if len(names) != 1 || names[0] != "notes-alice" {
		t.Fatalf("expected [notes-alice], got %v", names)
	}
}

func TestEnsureNamespace_EmptyNameRejected(t *testing.T) {
	t.Parallel()
	s := setupStore(t)

	_, err := s.GetAll(context.Background(), "")
	if errs.CodeOf(err) != errs.InvalidArgument {
		t.Fatalf("expected invalid_argument for empty namespace, got %v", err)
	}
}

// Creating a second namespace must bump the schema version and leave the
// first namespace's contents intact.
func TestNamespaceMigration_PreservesExistingNamespaces(t *testing.T) {
	t.Parallel()
	s := setupStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "notes-alice", sampleRecord("a1")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	v1, err := s.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}

	if err := s.Put(ctx, "notes-bob", sampleRecord("b1")); err != nil {
		t.Fatalf("Put into second namespace failed: %v", err)
	}
	v2, err := s.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if v2 != v1+1 {
		t.Fatalf("expected schema version %d after second namespace, got %d", v1+1, v2)
	}

	alice, err := s.GetAll(ctx, "notes-alice")
	if err != nil {
		t.Fatalf("GetAll after migration failed: %v", err)
	}
	if len(alice) != 1 || alice[0].ID != "a1" {
		t.Fatalf("first namespace lost contents after migration: %+v", alice)
	}

	bob, err := s.GetAll(ctx, "notes-bob")
	if err != nil {
		t.Fatalf("GetAll on second namespace failed: %v", err)
	}
	if len(bob) != 1 || bob[0].ID != "b1" {
		t.Fatalf("second namespace contents wrong: %+v", bob)
	}
}

func TestNamespaces_IsolatedContents(t *testing.T) {
	t.Parallel()
	s := setupStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "notes-alice", sampleRecord("shared-id")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Same id in another namespace must not collide.
	r := sampleRecord("shared-id")
	r.Title = "bob's note"
	if err := s.Put(ctx, "notes-bob", r); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := s.Get(ctx, "notes-alice", "shared-id")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Title == "bob's note" {
		t.Fatal("namespaces are not isolated")
	}

	if err := s.Delete(ctx, "notes-alice", "shared-id"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(ctx, "notes-bob", "shared-id"); err != nil {
		t.Fatalf("delete in one namespace removed record from another: %v", err)
	}
}

// A namespace table created before the spatial columns existed gets them
// added on first access, with existing rows reading back as NULL.
func TestLegacyNamespace_SpatialColumnsAdded(t *testing.T) {
	t.Parallel()
	s := setupStore(t)
	ctx := context.Background()

	db := s.DB()
	if _, err := db.Exec(`CREATE TABLE ns_legacy (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		color TEXT NOT NULL,
		priority TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`); err != nil {
		t.Fatalf("failed to create legacy table: %v", err)
	}
	if _, err := db.Exec(
		`INSERT INTO namespaces (name, table_name, created_at) VALUES (?, ?, ?)`,
		"legacy", "ns_legacy", "2025-01-01T00:00:00Z"); err != nil {
		t.Fatalf("failed to register legacy namespace: %v", err)
	}
	if _, err := db.Exec(
		`INSERT INTO ns_legacy (id, title, content, color, priority, created_at, updated_at)
		 VALUES ('old1', 'Old', 'Body', '#FFE4B5', 'normal',
		         '2025-01-01T00:00:00Z', '2025-01-01T00:00:00Z')`); err != nil {
		t.Fatalf("failed to seed legacy row: %v", err)
	}

	records, err := s.GetAll(ctx, "legacy")
	if err != nil {
		t.Fatalf("GetAll on legacy namespace failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 legacy record, got %d", len(records))
	}
	r := records[0]
	if r.PosX != nil || r.PosY != nil || r.Width != nil || r.Height != nil {
		t.Fatalf("legacy record should have NULL spatial fields, got %+v", r)
	}

	// The migrated table must accept spatial writes.
	r.PosX = floatPtr(10)
	r.PosY = floatPtr(20)
	if err := s.Put(ctx, "legacy", r); err != nil {
		t.Fatalf("Put after column migration failed: %v", err)
	}
	got, err := s.Get(ctx, "legacy", "old1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.PosX == nil || *got.PosX != 10 {
		t.Fatalf("spatial write not persisted: %+v", got)
	}
}

// =============================================================================
// Record round-trip
// =============================================================================

func recordGenerator() *rapid.Generator[store.Record] {
	optional := func(t *rapid.T, label string) *float64 {
		if rapid.Bool().Draw(t, label+"Nil") {
			return nil
		}
		v := rapid.Float64Range(0, 4000).Draw(t, label)
		return &v
	}
	return rapid.Custom(func(t *rapid.T) store.Record {
		return store.Record{
			ID:        rapid.StringMatching(`[a-f0-9-]{8,36}`).Draw(t, "id"),
			Title:     rapid.StringMatching(`[A-Za-z0-9 .,!?]{0,60}`).Draw(t, "title"),
			Content:   rapid.StringMatching(`[A-Za-z0-9 .,!?*_\n]{0,200}`).Draw(t, "content"),
			Color:     rapid.SampledFrom([]string{"#FFE4B5", "#E6E6FA", "#F0FFF0"}).Draw(t, "color"),
			Priority:  rapid.SampledFrom([]string{"normal", "action", "urgent"}).Draw(t, "priority"),
			CreatedAt: "2026-01-02T03:04:05Z",
			UpdatedAt: "2026-01-02T03:04:05Z",
			PosX:      optional(t, "posX"),
			PosY:      optional(t, "posY"),
			Width:     optional(t, "width"),
			Height:    optional(t, "height"),
		}
	})
}

func sameFloatPtr(a, b *float64) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

func testPutGet_Roundtrip(t *rapid.T) {
	s, err := storetest.NewInMemory()
	if err != nil {
		t.Fatalf("failed to create in-memory store: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	want := recordGenerator().Draw(t, "record")
	if err := s.Put(ctx, "notes-roundtrip", want); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := s.Get(ctx, "notes-roundtrip", want.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ID != want.ID || got.Title != want.Title || got.Content != want.Content ||
		got.Color != want.Color || got.Priority != want.Priority ||
		got.CreatedAt != want.CreatedAt || got.UpdatedAt != want.UpdatedAt {
		t.Fatalf("scalar fields changed in round trip:\nwant %+v\ngot  %+v", want, got)
	}
	if !sameFloatPtr(got.PosX, want.PosX) || !sameFloatPtr(got.PosY, want.PosY) ||
		!sameFloatPtr(got.Width, want.Width) || !sameFloatPtr(got.Height, want.Height) {
		t.Fatalf("spatial fields changed in round trip:\nwant %+v\ngot  %+v", want, got)
	}
}

func TestPutGet_Roundtrip(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testPutGet_Roundtrip)
}

func TestPut_UpsertsByID(t *testing.T) {
	t.Parallel()
	s := setupStore(t)
	ctx := context.Background()

	r := sampleRecord("n1")
	if err := s.Put(ctx, "notes-up", r); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	r.Title = "Updated"
	r.Height = floatPtr(300)
	if err := s.Put(ctx, "notes-up", r); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}

	all, err := s.GetAll(ctx, "notes-up")
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("upsert duplicated row: %d rows", len(all))
	}
	if all[0].Title != "Updated" || all[0].Height == nil || *all[0].Height != 300 {
		t.Fatalf("upsert did not replace fields: %+v", all[0])
	}
}

func TestPutAll_ReplacesContents(t *testing.T) {
	t.Parallel()
	s := setupStore(t)
	ctx := context.Background()

	if err := s.PutAll(ctx, "notes-bulk", []store.Record{sampleRecord("a"), sampleRecord("b")}); err != nil {
		t.Fatalf("PutAll failed: %v", err)
	}
	if err := s.PutAll(ctx, "notes-bulk", []store.Record{sampleRecord("c")}); err != nil {
		t.Fatalf("second PutAll failed: %v", err)
	}

	all, err := s.GetAll(ctx, "notes-bulk")
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 1 || all[0].ID != "c" {
		t.Fatalf("PutAll did not replace contents: %+v", all)
	}
}

func TestGet_NotFound(t *testing.T) {
	t.Parallel()
	s := setupStore(t)

	_, err := s.Get(context.Background(), "notes-miss", "no-such-id")
	if !errs.IsNotFound(err) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestDelete_MissingIDIsNoop(t *testing.T) {
	t.Parallel()
	s := setupStore(t)

	if err := s.Delete(context.Background(), "notes-del", "no-such-id"); err != nil {
		t.Fatalf("deleting a missing id must be a no-op, got %v", err)
	}
}
