package admin_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/provident1031/exchangehub/internal/app/access/identity"
	"github.com/provident1031/exchangehub/internal/app/access/reconcile"
	"github.com/provident1031/exchangehub/internal/app/features/admin"
	contactstore "github.com/provident1031/exchangehub/internal/app/store/contacts"
	participantstore "github.com/provident1031/exchangehub/internal/app/store/participants"
	userstore "github.com/provident1031/exchangehub/internal/app/store/users"
	"github.com/provident1031/exchangehub/internal/domain/models"
	"github.com/provident1031/exchangehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newHandler(db *mongo.Database) *admin.Handler {
	users := userstore.New(db)
	contacts := contactstore.New(db)
	return admin.NewHandler(
		reconcile.New(users, contacts, participantstore.New(db), zap.NewNop()),
		identity.New(users, contacts, zap.NewNop()),
		zap.NewNop(),
	)
}

func TestHandleReconcile_ReturnsReport(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// One unlinked user whose email matches an existing contact; the
	// sweep should link them and report it.
	contact := fx.CreateContact(ctx, "Robin", "Vale", "robin@example.com")
	ex := fx.CreateExchange(ctx, "Sweep Deal")
	fx.CreateParticipantForContact(ctx, ex.ID, contact.ID, models.RoleClient)
	user := fx.CreateUser(ctx, "Robin Vale", "robin@example.com", models.RoleClient)

	req := testutil.WithUser(testutil.NewRequest("POST", "/admin/reconcile"), testutil.AdminUser())
	rec := httptest.NewRecorder()
	newHandler(db).HandleReconcile(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", rec.Code, rec.Body.String())
	}
	var report reconcile.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("parse report: %v", err)
	}
	if report.UsersLinked != 1 || report.ParticipantsBound != 1 {
		t.Errorf("report: %+v, want 1 user linked and 1 row bound", report)
	}

	linked, err := userstore.New(db).GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if linked.ContactID == nil || *linked.ContactID != contact.ID {
		t.Error("sweep should have linked the user to the contact")
	}
}

func TestHandleIdentityLookup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Unlinked user with a matching contact: the lookup should surface
	// the contact as a hint without linking anything.
	contact := fx.CreateContact(ctx, "Hinted", "Person", "hint@example.com")
	user := fx.CreateUser(ctx, "Hinted Person", "hint@example.com", models.RoleThirdParty)

	h := newHandler(db)
	lookup := func(id string) *httptest.ResponseRecorder {
		req := testutil.WithUser(testutil.NewRequest("GET", "/admin/identity/"+id), testutil.AdminUser())
		req = testutil.WithChiURLParam(req, "user_id", id)
		rec := httptest.NewRecorder()
		h.HandleIdentityLookup(rec, req)
		return rec
	}

	rec := lookup(user.ID.Hex())
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", rec.Code, rec.Body.String())
	}
	var view struct {
		UserID      string  `json:"user_id"`
		ContactID   *string `json:"contact_id"`
		Role        string  `json:"role"`
		ContactHint *string `json:"contact_hint"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("parse view: %v", err)
	}
	if view.UserID != user.ID.Hex() || view.Role != models.RoleThirdParty {
		t.Errorf("view: %+v", view)
	}
	if view.ContactID != nil {
		t.Error("lookup must not claim a link that does not exist")
	}
	if view.ContactHint == nil || *view.ContactHint != contact.ID.Hex() {
		t.Errorf("contact_hint: got %v, want %s", view.ContactHint, contact.ID.Hex())
	}

	if rec := lookup(primitive.NewObjectID().Hex()); rec.Code != http.StatusNotFound {
		t.Errorf("unknown user: got %d, want 404", rec.Code)
	}
	if rec := lookup("not-hex"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: got %d, want 400", rec.Code)
	}
}
