package participants_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/provident1031/exchangehub/internal/app/access/delegation"
	"github.com/provident1031/exchangehub/internal/app/access/visibility"
	"github.com/provident1031/exchangehub/internal/app/features/participants"
	assignmentstore "github.com/provident1031/exchangehub/internal/app/store/assignments"
	exchangestore "github.com/provident1031/exchangehub/internal/app/store/exchanges"
	participantstore "github.com/provident1031/exchangehub/internal/app/store/participants"
	userstore "github.com/provident1031/exchangehub/internal/app/store/users"
	"github.com/provident1031/exchangehub/internal/domain/models"
	"github.com/provident1031/exchangehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newHandler(db *mongo.Database) *participants.Handler {
	pstore := participantstore.New(db)
	engine := visibility.New(
		exchangestore.New(db),
		pstore,
		delegation.New(assignmentstore.New(db), pstore),
		zap.NewNop(),
	)
	return participants.NewHandler(pstore, userstore.New(db), engine, zap.NewNop())
}

func addRequest(exchangeID primitive.ObjectID, actor testutil.TestUser, payload string) *http.Request {
	req := httptest.NewRequest("POST",
		"/exchanges/"+exchangeID.Hex()+"/participants", strings.NewReader(payload))
	req = testutil.WithUser(req, actor)
	return testutil.WithChiURLParam(req, "id", exchangeID.Hex())
}

func TestHandleAddParticipant_CoordinatorCanManage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	coord := fx.CreateUser(ctx, "Cory Coordinator", "cory@example.com", models.RoleCoordinator)
	ex := fx.CreateExchange(ctx, "Managed Deal")
	fx.SetPrimaryCoordinator(ctx, ex.ID, coord.ID)
	newcomer := fx.CreateUser(ctx, "Tina Third", "tina@example.com", models.RoleThirdParty)

	actor := testutil.TestUser{ID: coord.ID.Hex(), Role: models.RoleCoordinator}
	payload := fmt.Sprintf(`{"user_id": %q, "role": "third_party"}`, newcomer.ID.Hex())
	rec := httptest.NewRecorder()
	newHandler(db).HandleAddParticipant(rec, addRequest(ex.ID, actor, payload))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var row struct {
		UserID *primitive.ObjectID `json:"user_id"`
		Role   string              `json:"role"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &row); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if row.UserID == nil || *row.UserID != newcomer.ID || row.Role != models.RoleThirdParty {
		t.Errorf("roster row: %+v", row)
	}
}

func TestHandleAddParticipant_OutsiderGets404Not403(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ex := fx.CreateExchange(ctx, "Private Deal")
	target := fx.CreateUser(ctx, "Tina Third", "tina2@example.com", models.RoleThirdParty)

	outsider := testutil.TestUser{ID: primitive.NewObjectID().Hex(), Role: models.RoleClient}
	payload := fmt.Sprintf(`{"user_id": %q}`, target.ID.Hex())
	rec := httptest.NewRecorder()
	newHandler(db).HandleAddParticipant(rec, addRequest(ex.ID, outsider, payload))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404 (never 403)", rec.Code)
	}
}

func TestHandleAddParticipant_DuplicateConflicts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	coord := fx.CreateUser(ctx, "Cory Coordinator", "cory2@example.com", models.RoleCoordinator)
	ex := fx.CreateExchange(ctx, "Repeat Deal")
	fx.SetPrimaryCoordinator(ctx, ex.ID, coord.ID)
	target := fx.CreateUser(ctx, "Dup Dana", "dana@example.com", models.RoleClient)
	fx.CreateParticipantForUser(ctx, ex.ID, target.ID, models.RoleClient)

	actor := testutil.TestUser{ID: coord.ID.Hex(), Role: models.RoleCoordinator}
	payload := fmt.Sprintf(`{"user_id": %q, "role": "client"}`, target.ID.Hex())
	rec := httptest.NewRecorder()
	newHandler(db).HandleAddParticipant(rec, addRequest(ex.ID, actor, payload))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want 409", rec.Code)
	}
}

func TestHandleAddParticipant_RejectsDivergentIdentityPair(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	coord := fx.CreateUser(ctx, "Cory Coordinator", "cory5@example.com", models.RoleCoordinator)
	ex := fx.CreateExchange(ctx, "Careful Deal")
	fx.SetPrimaryCoordinator(ctx, ex.ID, coord.ID)

	ownContact := fx.CreateContact(ctx, "Lena", "Linked", "lena@example.com")
	someoneElse := fx.CreateContact(ctx, "Other", "Person", "other@example.com")
	linked := fx.CreateLinkedUser(ctx, "Lena Linked", "lena@example.com", models.RoleClient, ownContact.ID)

	actor := testutil.TestUser{ID: coord.ID.Hex(), Role: models.RoleCoordinator}
	h := newHandler(db)

	// Pairing the user with a contact that is a different person would
	// grant both people access through one row.
	payload := fmt.Sprintf(`{"user_id": %q, "contact_id": %q, "role": "client"}`,
		linked.ID.Hex(), someoneElse.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleAddParticipant(rec, addRequest(ex.ID, actor, payload))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("divergent pair: got %d, want 400", rec.Code)
	}

	// The user's own contact is fine.
	payload = fmt.Sprintf(`{"user_id": %q, "contact_id": %q, "role": "client"}`,
		linked.ID.Hex(), ownContact.ID.Hex())
	rec = httptest.NewRecorder()
	h.HandleAddParticipant(rec, addRequest(ex.ID, actor, payload))
	if rec.Code != http.StatusCreated {
		t.Fatalf("matching pair: got %d, want 201: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleAddParticipant_BadInput(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	coord := fx.CreateUser(ctx, "Cory Coordinator", "cory3@example.com", models.RoleCoordinator)
	ex := fx.CreateExchange(ctx, "Strict Deal")
	fx.SetPrimaryCoordinator(ctx, ex.ID, coord.ID)
	actor := testutil.TestUser{ID: coord.ID.Hex(), Role: models.RoleCoordinator}
	h := newHandler(db)

	// Neither identity key present.
	rec := httptest.NewRecorder()
	h.HandleAddParticipant(rec, addRequest(ex.ID, actor, `{"role": "client"}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("keyless row: got %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.HandleAddParticipant(rec, addRequest(ex.ID, actor, `{"user_id": "zzzz"}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad hex: got %d, want 400", rec.Code)
	}
}

func TestHandleDeactivate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	coord := fx.CreateUser(ctx, "Cory Coordinator", "cory4@example.com", models.RoleCoordinator)
	ex := fx.CreateExchange(ctx, "Shrinking Deal")
	fx.SetPrimaryCoordinator(ctx, ex.ID, coord.ID)
	row := fx.CreateParticipantForUser(ctx, ex.ID, primitive.NewObjectID(), models.RoleThirdParty)

	h := newHandler(db)
	actor := testutil.TestUser{ID: coord.ID.Hex(), Role: models.RoleCoordinator}

	deactivate := func(id string, who testutil.TestUser) int {
		req := httptest.NewRequest("POST", "/participants/"+id+"/deactivate", nil)
		req = testutil.WithUser(req, who)
		req = testutil.WithChiURLParam(req, "id", id)
		rec := httptest.NewRecorder()
		h.HandleDeactivate(rec, req)
		return rec.Code
	}

	outsider := testutil.TestUser{ID: primitive.NewObjectID().Hex(), Role: models.RoleClient}
	if code := deactivate(row.ID.Hex(), outsider); code != http.StatusNotFound {
		t.Errorf("outsider: got %d, want 404", code)
	}
	if code := deactivate(row.ID.Hex(), actor); code != http.StatusNoContent {
		t.Errorf("coordinator: got %d, want 204", code)
	}
	if code := deactivate(primitive.NewObjectID().Hex(), actor); code != http.StatusNotFound {
		t.Errorf("missing row: got %d, want 404", code)
	}

	got, err := participantstore.New(db).GetByID(ctx, row.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.IsActive {
		t.Error("row should be inactive after deactivation")
	}
}
