package bootstrap

import (
	"context"
	"testing"

	userstore "github.com/provident1031/exchangehub/internal/app/store/users"
	"github.com/provident1031/exchangehub/internal/domain/models"
	"github.com/provident1031/exchangehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func TestEnsureAdmin_CreatesWhenMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := ensureAdmin(ctx, db, "ops@example.com", zap.NewNop()); err != nil {
		t.Fatalf("ensureAdmin: %v", err)
	}

	u, err := userstore.New(db).GetByEmail(ctx, "ops@example.com")
	if err != nil {
		t.Fatalf("admin user not created: %v", err)
	}
	if u.Role != models.RoleAdmin {
		t.Errorf("role: got %q, want %q", u.Role, models.RoleAdmin)
	}
	if !u.IsActive {
		t.Error("bootstrap admin should be active")
	}
}

func TestEnsureAdmin_PromotesExistingUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	existing := fx.CreateUser(ctx, "Casey Ops", "casey@example.com", models.RoleCoordinator)

	if err := ensureAdmin(ctx, db, "casey@example.com", zap.NewNop()); err != nil {
		t.Fatalf("ensureAdmin: %v", err)
	}

	u, err := userstore.New(db).GetByID(ctx, existing.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u.Role != models.RoleAdmin {
		t.Errorf("role: got %q, want %q", u.Role, models.RoleAdmin)
	}
}

func TestEnsureAdmin_BlankEmailIsNoOp(t *testing.T) {
	// Blank email must return before touching the database.
	if err := ensureAdmin(context.Background(), nil, "", zap.NewNop()); err != nil {
		t.Fatalf("ensureAdmin with blank email: %v", err)
	}
}

func TestEnsureAdmin_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < 2; i++ {
		if err := ensureAdmin(ctx, db, "ops@example.com", zap.NewNop()); err != nil {
			t.Fatalf("ensureAdmin run %d: %v", i+1, err)
		}
	}

	n, err := db.Collection("users").CountDocuments(ctx, bson.M{"email_ci": "ops@example.com"})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("admin users: got %d, want 1", n)
	}
}
