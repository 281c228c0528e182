package contactstore_test

import (
	"testing"

	contactstore "github.com/provident1031/exchangehub/internal/app/store/contacts"
	"github.com/provident1031/exchangehub/internal/domain/models"
	"github.com/provident1031/exchangehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestEnsureByEmail_ReturnsExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	existing := fx.CreateContact(ctx, "Morgan", "Fields", "morgan@example.com")

	store := contactstore.New(db)
	got, err := store.EnsureByEmail(ctx, "MORGAN@example.com", "Different", "Name")
	if err != nil {
		t.Fatalf("EnsureByEmail: %v", err)
	}
	if got.ID != existing.ID {
		t.Error("existing contact should be returned, not a duplicate")
	}
	if got.FirstName != "Morgan" {
		t.Error("existing contact's name must not be rewritten")
	}

	n, err := db.Collection("contacts").CountDocuments(ctx, bson.M{"email_ci": "morgan@example.com"})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("contacts: got %d, want 1", n)
	}
}

func TestEnsureByEmail_CreatesWhenMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := contactstore.New(db)
	got, err := store.EnsureByEmail(ctx, "new@example.com", "Nina", "Yew")
	if err != nil {
		t.Fatalf("EnsureByEmail: %v", err)
	}
	if got.FirstName != "Nina" || got.LastName != "Yew" {
		t.Errorf("created contact: %+v", got)
	}
	if got.EmailCI != "new@example.com" {
		t.Errorf("email_ci: got %q", got.EmailCI)
	}

	again, err := store.GetByEmail(ctx, "new@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if again.ID != got.ID {
		t.Error("created contact should be persisted")
	}
}

func TestCreate_RequiresEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := contactstore.New(db)
	if _, err := store.Create(ctx, models.Contact{FirstName: "No", LastName: "Email"}); err == nil {
		t.Error("missing email should be rejected")
	}
}
