package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func sampleRule(controlID, category string) Rule {
	return Rule{
		ControlID:    controlID,
		Description:  "Check passport validity",
		MetaCategory: category,
		PromptInstructions: []string{
			"Locate the passport expiry date in the document.",
			"Verify the date is in the future.",
		},
		ExpectedFormat: `{"expiry_date": "...", "valid": true}`,
	}
}

func TestCreateAndGet(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Create(sampleRule("KYC_002", "KYC")))

	rule, err := store.Get("KYC_002")
	require.NoError(t, err)
	assert.Equal(t, "KYC_002", rule.ControlID)
	assert.Equal(t, "KYC", rule.MetaCategory)
	assert.Len(t, rule.PromptInstructions, 2)
}

func TestCreateDuplicate(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Create(sampleRule("KYC_001", "KYC")))
	err := store.Create(sampleRule("KYC_001", "KYC"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestListSortedByControlID(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Create(sampleRule("KYC_003", "KYC")))
	require.NoError(t, store.Create(sampleRule("KYC_001", "KYC")))
	require.NoError(t, store.Create(sampleRule("KYC_002", "KYC")))
	require.NoError(t, store.Create(sampleRule("RGPD_001", "RGPD")))

	list, err := store.List("KYC")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "KYC_001", list[0].ControlID)
	assert.Equal(t, "KYC_002", list[1].ControlID)
	assert.Equal(t, "KYC_003", list[2].ControlID)
}

func TestListEmptyCategory(t *testing.T) {
	store := newTestStore(t)

	list, err := store.List("MIFID")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListCaseInsensitiveCategory(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Create(sampleRule("KYC_001", "KYC")))

	list, err := store.List("kyc")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUpdateKeepsIdentity(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Create(sampleRule("KYC_001", "KYC")))

	updated := sampleRule("KYC_001", "KYC")
	updated.Description = "Revised description"
	require.NoError(t, store.Update(updated))

	rule, err := store.Get("KYC_001")
	require.NoError(t, err)
	assert.Equal(t, "Revised description", rule.Description)

	list, err := store.List("KYC")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUpdateMovesCategory(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Create(sampleRule("CTRL_001", "KYC")))

	moved := sampleRule("CTRL_001", "RGPD")
	require.NoError(t, store.Update(moved))

	kycList, err := store.List("KYC")
	require.NoError(t, err)
	assert.Empty(t, kycList)

	rgpdList, err := store.List("RGPD")
	require.NoError(t, err)
	require.Len(t, rgpdList, 1)
	assert.Equal(t, "CTRL_001", rgpdList[0].ControlID)
}

func TestUpdateMissingRule(t *testing.T) {
	store := newTestStore(t)

	err := store.Update(sampleRule("NOPE_001", "KYC"))
	assert.ErrorIs(t, err, ErrRuleNotFound)
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Create(sampleRule("KYC_001", "KYC")))
	require.NoError(t, store.Delete("KYC_001"))

	_, err := store.Get("KYC_001")
	assert.ErrorIs(t, err, ErrRuleNotFound)
}

func TestCategories(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Create(sampleRule("RGPD_001", "RGPD")))
	require.NoError(t, store.Create(sampleRule("KYC_001", "KYC")))

	categories, err := store.Categories()
	require.NoError(t, err)
	assert.Equal(t, []string{"KYC", "RGPD"}, categories)
}

func TestValidate(t *testing.T) {
	rule := sampleRule("KYC_001", "KYC")
	assert.NoError(t, rule.Validate())

	missing := rule
	missing.ControlID = " "
	assert.Error(t, missing.Validate())

	missing = rule
	missing.MetaCategory = ""
	assert.Error(t, missing.Validate())

	missing = rule
	missing.PromptInstructions = nil
	assert.Error(t, missing.Validate())
}
