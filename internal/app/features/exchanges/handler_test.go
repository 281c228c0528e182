package exchanges_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/provident1031/exchangehub/internal/app/access/delegation"
	"github.com/provident1031/exchangehub/internal/app/access/visibility"
	"github.com/provident1031/exchangehub/internal/app/features/exchanges"
	assignmentstore "github.com/provident1031/exchangehub/internal/app/store/assignments"
	exchangestore "github.com/provident1031/exchangehub/internal/app/store/exchanges"
	participantstore "github.com/provident1031/exchangehub/internal/app/store/participants"
	"github.com/provident1031/exchangehub/internal/domain/models"
	"github.com/provident1031/exchangehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newHandler(db *mongo.Database) *exchanges.Handler {
	participants := participantstore.New(db)
	engine := visibility.New(
		exchangestore.New(db),
		participants,
		delegation.New(assignmentstore.New(db), participants),
		zap.NewNop(),
	)
	return exchanges.NewHandler(exchangestore.New(db), engine, zap.NewNop())
}

func TestServeExchangeList_ScopedToIdentity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	client := fx.CreateUser(ctx, "Casey Client", "casey@example.com", models.RoleClient)
	mine := fx.CreateExchange(ctx, "My Deal")
	fx.SetPrimaryClient(ctx, mine.ID, client.ID)
	fx.CreateExchange(ctx, "Someone Else's Deal")

	req := testutil.NewRequest("GET", "/exchanges")
	req = testutil.WithUser(req, testutil.TestUser{
		ID: client.ID.Hex(), Name: client.FullName, Email: client.Email, Role: models.RoleClient,
	})
	rec := httptest.NewRecorder()
	newHandler(db).ServeExchangeList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	var resp struct {
		Exchanges []struct {
			ID           primitive.ObjectID `json:"id"`
			Capabilities []string           `json:"capabilities"`
		} `json:"exchanges"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(resp.Exchanges) != 1 || resp.Exchanges[0].ID != mine.ID {
		t.Fatalf("exchanges: got %+v, want only the client's deal", resp.Exchanges)
	}
	if len(resp.Exchanges[0].Capabilities) == 0 {
		t.Error("capabilities should be included")
	}
}

func TestServeExchangeList_EmptyIsOK(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateExchange(ctx, "Not Yours")

	req := testutil.WithUser(testutil.NewRequest("GET", "/exchanges"), testutil.TestUser{
		ID: primitive.NewObjectID().Hex(), Role: models.RoleThirdParty,
	})
	rec := httptest.NewRecorder()
	newHandler(db).ServeExchangeList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (empty list, not an error)", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"exchanges":[]`) {
		t.Errorf("body: %s", rec.Body.String())
	}
}

func TestServeExchangeView_InvisibleLooksLikeMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ex := fx.CreateExchange(ctx, "Hidden Deal")
	h := newHandler(db)
	outsider := testutil.TestUser{ID: primitive.NewObjectID().Hex(), Role: models.RoleThirdParty}

	serve := func(id string) int {
		req := testutil.WithUser(testutil.NewRequest("GET", "/exchanges/"+id), outsider)
		req = testutil.WithChiURLParam(req, "id", id)
		rec := httptest.NewRecorder()
		h.ServeExchangeView(rec, req)
		return rec.Code
	}

	invisible := serve(ex.ID.Hex())
	missing := serve(primitive.NewObjectID().Hex())
	if invisible != http.StatusNotFound || missing != http.StatusNotFound {
		t.Errorf("invisible=%d missing=%d, both must be 404", invisible, missing)
	}
}

func TestHandleCreateExchange_CoordinatorSelfAssigns(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	coordID := primitive.NewObjectID()
	body := strings.NewReader(`{"name": "Fresh Deal", "status": "active"}`)
	req := httptest.NewRequest("POST", "/exchanges", body)
	req = testutil.WithUser(req, testutil.TestUser{ID: coordID.Hex(), Role: models.RoleCoordinator})
	rec := httptest.NewRecorder()
	newHandler(db).HandleCreateExchange(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var created models.Exchange
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if created.CoordinatorID == nil || *created.CoordinatorID != coordID {
		t.Error("creating coordinator should become primary coordinator")
	}

	stored, err := exchangestore.New(db).GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.NameCI != "fresh deal" {
		t.Errorf("name_ci: got %q", stored.NameCI)
	}
}

func TestHandleCreateExchange_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)

	h := newHandler(db)
	admin := testutil.AdminUser()

	post := func(payload string) int {
		req := httptest.NewRequest("POST", "/exchanges", strings.NewReader(payload))
		req = testutil.WithUser(req, admin)
		rec := httptest.NewRecorder()
		h.HandleCreateExchange(rec, req)
		return rec.Code
	}

	if code := post(`{"name": ""}`); code != http.StatusBadRequest {
		t.Errorf("blank name: got %d, want 400", code)
	}
	if code := post(`{"name": "X", "client_user_id": "not-a-hex"}`); code != http.StatusBadRequest {
		t.Errorf("bad id: got %d, want 400", code)
	}
	if code := post(`{broken`); code != http.StatusBadRequest {
		t.Errorf("bad json: got %d, want 400", code)
	}
}
