package participantstore_test

import (
	"testing"
	"time"

	participantstore "github.com/provident1031/exchangehub/internal/app/store/participants"
	"github.com/provident1031/exchangehub/internal/app/system/indexes"
	"github.com/provident1031/exchangehub/internal/domain/capability"
	"github.com/provident1031/exchangehub/internal/domain/models"
	"github.com/provident1031/exchangehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAdd_RequiresAnIdentityKey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := participantstore.New(db)
	_, err := store.Add(ctx, primitive.NewObjectID(), models.Identity{Role: models.RoleClient}, models.RoleClient, nil)
	if err != participantstore.ErrMissingIdentity {
		t.Fatalf("expected ErrMissingIdentity, got %v", err)
	}
}

func TestAdd_DuplicateActiveUserRowRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	store := participantstore.New(db)
	exchangeID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	ident := models.UserIdentity(userID, nil, models.RoleThirdParty)

	if _, err := store.Add(ctx, exchangeID, ident, models.RoleThirdParty, nil); err != nil {
		t.Fatalf("first Add: %v", err)
	}
	if _, err := store.Add(ctx, exchangeID, ident, models.RoleThirdParty, nil); err != participantstore.ErrDuplicateParticipant {
		t.Fatalf("expected ErrDuplicateParticipant, got %v", err)
	}

	// A deactivated row frees the pair for re-adding.
	rows, err := store.ListByExchange(ctx, exchangeID)
	if err != nil {
		t.Fatalf("ListByExchange: %v", err)
	}
	if err := store.Deactivate(ctx, rows[0].ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if _, err := store.Add(ctx, exchangeID, ident, models.RoleThirdParty, nil); err != nil {
		t.Fatalf("re-add after deactivate: %v", err)
	}
}

func TestListByIdentity_MatchesEitherKey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	contactID := primitive.NewObjectID()
	exByUser := fx.CreateExchange(ctx, "Keyed By User")
	exByContact := fx.CreateExchange(ctx, "Keyed By Contact")
	fx.CreateParticipantForUser(ctx, exByUser.ID, userID, models.RoleThirdParty)
	fx.CreateParticipantForContact(ctx, exByContact.ID, contactID, models.RoleThirdParty)

	store := participantstore.New(db)
	ident := models.UserIdentity(userID, &contactID, models.RoleThirdParty)

	rows, err := store.ListByIdentity(ctx, ident)
	if err != nil {
		t.Fatalf("ListByIdentity: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows: got %d, want 2 (one per identity key)", len(rows))
	}

	// A single-key identity only sees its own rows.
	userOnly := models.UserIdentity(userID, nil, models.RoleThirdParty)
	rows, err = store.ListByIdentity(ctx, userOnly)
	if err != nil {
		t.Fatalf("ListByIdentity user-only: %v", err)
	}
	if len(rows) != 1 || rows[0].ExchangeID != exByUser.ID {
		t.Fatalf("user-only rows: got %+v, want the user-keyed row", rows)
	}
}

func TestListByIdentity_NormalizesStoredPermissions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	ex := fx.CreateExchange(ctx, "Legacy Permissions")
	// Legacy array shape: named keys granted on top of the role template.
	fx.CreateParticipantWithPermissions(ctx, ex.ID, userID, models.RoleThirdParty,
		[]string{"can_view_overview", "can_view_documents"})

	store := participantstore.New(db)
	rows, err := store.ListByIdentity(ctx, models.UserIdentity(userID, nil, models.RoleThirdParty))
	if err != nil {
		t.Fatalf("ListByIdentity: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows: got %d, want 1", len(rows))
	}

	caps, ok := rows[0].Permissions.(capability.Set)
	if !ok {
		t.Fatalf("permissions not normalized: %T", rows[0].Permissions)
	}
	if !caps.Has(capability.ViewOverview) || !caps.Has(capability.ViewDocuments) {
		t.Error("named keys should be granted")
	}
	if caps.Has(capability.DeleteExchange) {
		t.Error("unnamed keys should stay denied")
	}
}

func TestBindUser_IsSingleShot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	contactID := primitive.NewObjectID()
	ex := fx.CreateExchange(ctx, "Bind Target")
	row := fx.CreateParticipantForContact(ctx, ex.ID, contactID, models.RoleThirdParty)

	store := participantstore.New(db)
	userID := primitive.NewObjectID()

	bound, err := store.BindUser(ctx, row.ID, userID)
	if err != nil || !bound {
		t.Fatalf("first bind: bound=%v err=%v", bound, err)
	}

	// Second bind must be a no-op: user_id is already set.
	bound, err = store.BindUser(ctx, row.ID, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("second bind: %v", err)
	}
	if bound {
		t.Error("second bind should not modify the row")
	}

	got, err := store.GetByID(ctx, row.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.UserID == nil || *got.UserID != userID {
		t.Errorf("user_id: got %v, want %s", got.UserID, userID.Hex())
	}
}

func TestContactOnly_ReturnsUnboundRowsOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ex := fx.CreateExchange(ctx, "Sweep Input")
	unbound := fx.CreateParticipantForContact(ctx, ex.ID, primitive.NewObjectID(), models.RoleThirdParty)
	fx.CreateParticipantForUser(ctx, ex.ID, primitive.NewObjectID(), models.RoleClient)

	store := participantstore.New(db)
	rows, err := store.ContactOnly(ctx)
	if err != nil {
		t.Fatalf("ContactOnly: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != unbound.ID {
		t.Fatalf("rows: got %+v, want only the contact-only row", rows)
	}
}

func TestContactOnly_MatchesExplicitNullUserID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Rows written by the old system carry user_id: null rather than
	// omitting the field. The sweep must still see and bind them.
	rowID := primitive.NewObjectID()
	now := time.Now().UTC()
	_, err := db.Collection("exchange_participants").InsertOne(ctx, bson.M{
		"_id":         rowID,
		"exchange_id": primitive.NewObjectID(),
		"user_id":     nil,
		"contact_id":  primitive.NewObjectID(),
		"role":        models.RoleThirdParty,
		"is_active":   true,
		"created_at":  now,
		"updated_at":  now,
	})
	if err != nil {
		t.Fatalf("insert legacy row: %v", err)
	}

	store := participantstore.New(db)
	rows, err := store.ContactOnly(ctx)
	if err != nil {
		t.Fatalf("ContactOnly: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != rowID {
		t.Fatalf("rows: got %+v, want the explicit-null row", rows)
	}

	userID := primitive.NewObjectID()
	bound, err := store.BindUser(ctx, rowID, userID)
	if err != nil || !bound {
		t.Fatalf("bind explicit-null row: bound=%v err=%v", bound, err)
	}
	got, err := store.GetByID(ctx, rowID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.UserID == nil || *got.UserID != userID {
		t.Errorf("user_id: got %v, want %s", got.UserID, userID.Hex())
	}
}
