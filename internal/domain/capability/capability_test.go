package capability_test

import (
	"reflect"
	"testing"

	"github.com/provident1031/exchangehub/internal/domain/capability"
	"github.com/provident1031/exchangehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var allRoles = []string{
	models.RoleAdmin,
	models.RoleCoordinator,
	models.RoleClient,
	models.RoleThirdParty,
	models.RoleAgency,
}

func TestTemplate_TotalForEveryRole(t *testing.T) {
	for _, role := range allRoles {
		tmpl := capability.Template(role)
		if len(tmpl) != len(capability.Keys()) {
			t.Errorf("role %s: template has %d keys, want %d", role, len(tmpl), len(capability.Keys()))
		}
		for _, k := range capability.Keys() {
			if _, ok := tmpl[k]; !ok {
				t.Errorf("role %s: key %s undefined in template", role, k)
			}
		}
	}
}

func TestTemplate_UnknownRoleFailsClosed(t *testing.T) {
	tmpl := capability.Template("superuser")
	for k, v := range tmpl {
		if v {
			t.Errorf("unknown role granted %s", k)
		}
	}
	if len(tmpl) != len(capability.Keys()) {
		t.Errorf("unknown role template not total: %d keys", len(tmpl))
	}
}

func TestTemplate_AdminIsFull(t *testing.T) {
	for k, v := range capability.Template(models.RoleAdmin) {
		if !v {
			t.Errorf("admin template missing %s", k)
		}
	}
}

func TestTemplate_ThirdPartyIsViewOnly(t *testing.T) {
	tmpl := capability.Template(models.RoleThirdParty)
	for _, k := range []capability.Key{
		capability.EditTasks, capability.DeleteTasks,
		capability.UploadDocuments, capability.EditDocuments, capability.DeleteDocuments,
		capability.SendMessages, capability.ManageParticipants,
		capability.EditFinancial, capability.DeleteExchange,
	} {
		if tmpl[k] {
			t.Errorf("third_party template grants %s", k)
		}
	}
	if !tmpl[capability.ViewOverview] {
		t.Error("third_party template should grant can_view_overview")
	}
}

func TestNormalize_NilAppliesTemplate(t *testing.T) {
	for _, role := range allRoles {
		got := capability.Normalize(role, nil)
		if !reflect.DeepEqual(got, capability.Template(role)) {
			t.Errorf("role %s: Normalize(nil) differs from template", role)
		}
	}
}

func TestNormalize_LegacyArray(t *testing.T) {
	// A coordinator row stored as ['read','comment'] keeps every
	// coordinator default and gains the token-implied keys; the array
	// never forces keys the template already decides.
	got := capability.Normalize(models.RoleCoordinator, primitive.A{"read", "comment"})
	tmpl := capability.Template(models.RoleCoordinator)

	if !got[capability.ViewOverview] {
		t.Error("read token should grant can_view_overview")
	}
	if !got[capability.SendMessages] {
		t.Error("comment token should grant can_send_messages")
	}
	if got[capability.DeleteExchange] != tmpl[capability.DeleteExchange] {
		t.Errorf("can_delete_exchange = %v, want coordinator default %v",
			got[capability.DeleteExchange], tmpl[capability.DeleteExchange])
	}
	if !tmpl.SubsetOf(got) {
		t.Error("legacy tokens must only widen the role template")
	}
}

func TestNormalize_LegacyArrayOnNarrowRole(t *testing.T) {
	got := capability.Normalize(models.RoleThirdParty, []string{"upload_documents"})
	if !got[capability.UploadDocuments] {
		t.Error("upload_documents token should grant can_upload_documents")
	}
	if got[capability.ManageParticipants] {
		t.Error("token array should not grant unrelated capabilities")
	}
}

func TestNormalize_CapabilityShapedTokens(t *testing.T) {
	got := capability.Normalize(models.RoleThirdParty, primitive.A{"can_send_messages", "bogus_token"})
	if !got[capability.SendMessages] {
		t.Error("can_* token in a legacy array should set its key")
	}
}

func TestNormalize_AdminToken(t *testing.T) {
	got := capability.Normalize(models.RoleThirdParty, primitive.A{"admin"})
	for _, k := range capability.Keys() {
		if !got[k] {
			t.Errorf("admin token should grant %s", k)
		}
	}
}

func TestNormalize_PartialObjectFillsFromTemplate(t *testing.T) {
	stored := primitive.M{
		"can_edit_tasks":     true,
		"can_view_overview":  false,
		"not_a_real_key":     true,
		"can_view_documents": "yes", // non-bool values are ignored
	}
	got := capability.Normalize(models.RoleClient, stored)
	tmpl := capability.Template(models.RoleClient)

	if !got[capability.EditTasks] {
		t.Error("explicit true in stored object must survive")
	}
	if got[capability.ViewOverview] {
		t.Error("explicit false in stored object must win over the template")
	}
	if got[capability.ViewDocuments] != tmpl[capability.ViewDocuments] {
		t.Error("non-bool value should fall back to the template default")
	}
	if len(got) != len(capability.Keys()) {
		t.Errorf("normalized object not total: %d keys", len(got))
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []any{
		nil,
		primitive.A{"read", "write", "manage"},
		primitive.M{"can_view_overview": true, "can_delete_exchange": false},
	}
	for _, role := range allRoles {
		for _, in := range inputs {
			once := capability.Normalize(role, in)
			twice := capability.Normalize(role, once)
			if !reflect.DeepEqual(once, twice) {
				t.Errorf("role %s: Normalize not idempotent for %v", role, in)
			}
		}
	}
}

func TestNormalize_UnrecognizedShapeFallsBack(t *testing.T) {
	got := capability.Normalize(models.RoleClient, 42)
	if !reflect.DeepEqual(got, capability.Template(models.RoleClient)) {
		t.Error("unrecognized stored shape should yield the role template")
	}
}

func TestDelegated_SubsetOfAgencyTemplate(t *testing.T) {
	agency := capability.Template(models.RoleAgency)
	for _, gated := range []bool{true, false} {
		if !capability.Delegated(gated).SubsetOf(agency) {
			t.Errorf("Delegated(%v) exceeds the agency template", gated)
		}
	}
	if capability.Delegated(false)[capability.ViewPerformance] {
		t.Error("performance must stay gated off")
	}
	if !capability.Delegated(true)[capability.ViewPerformance] {
		t.Error("performance gate should open with the assignment flag")
	}
}

func TestMerge_MostPermissiveWins(t *testing.T) {
	a := capability.Template(models.RoleThirdParty)
	b := capability.Delegated(true)
	merged := a.Merge(b)

	if !a.SubsetOf(merged) || !b.SubsetOf(merged) {
		t.Error("merge must be at least as permissive as both inputs")
	}
	for k, v := range merged {
		if v && !a[k] && !b[k] {
			t.Errorf("merge invented capability %s", k)
		}
	}
}

func TestMerge_DoesNotMutateReceiver(t *testing.T) {
	a := capability.Delegated(false)
	before := a.Clone()
	_ = a.Merge(capability.Template(models.RoleAdmin))
	if !reflect.DeepEqual(a, before) {
		t.Error("Merge mutated its receiver")
	}
}
