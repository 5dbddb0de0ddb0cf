package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EricBlanvillain/control-automation/api/model"
)

func uploadDocument(t *testing.T, env *testEnv, filename, content string) model.DocumentUploadResponse {
	t.Helper()
	w := env.doUpload(t, filename, content, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	env2 := decodeEnvelope(t, w)
	var resp model.DocumentUploadResponse
	require.NoError(t, json.Unmarshal(env2.Data, &resp))
	return resp
}

func TestUploadDocument(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := uploadDocument(t, env, "kyc_dossier.txt", "passport on file")

	assert.NotEmpty(t, resp.DocumentID)
	assert.Equal(t, "kyc_dossier.txt", resp.FileName)
	assert.Equal(t, "uploaded", resp.Status)

	doc, err := env.docRepo.GetByID(resp.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "kyc_dossier.txt", doc.FileName)
	assert.Greater(t, doc.FileSize, int64(0))
}

func TestUploadDocument_PinnedCategory(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.doUpload(t, "dossier.txt", "content", map[string]string{"meta_category": "rgpd"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp model.DocumentUploadResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &resp))
	assert.Equal(t, "RGPD", resp.MetaCategory)
}

func TestUploadDocument_UnknownCategory(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.doUpload(t, "dossier.txt", "content", map[string]string{"meta_category": "nonsense"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadDocument_UnsupportedType(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.doUpload(t, "malware.exe", "binary", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadDocument_MissingFile(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.doJSON(t, http.MethodPost, "/api/documents", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetDocument(t *testing.T) {
	env := newTestEnv(t, nil)
	uploaded := uploadDocument(t, env, "kyc_dossier.txt", "passport on file")

	w := env.doJSON(t, http.MethodGet, "/api/documents/"+uploaded.DocumentID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var info model.DocumentInfo
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &info))
	assert.Equal(t, uploaded.DocumentID, info.DocumentID)
	assert.Equal(t, "uploaded", info.Status)
}

func TestGetDocument_NotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.doJSON(t, http.MethodGet, "/api/documents/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListDocuments(t *testing.T) {
	env := newTestEnv(t, nil)
	uploadDocument(t, env, "first.txt", "alpha")
	uploadDocument(t, env, "second.txt", "beta")

	w := env.doJSON(t, http.MethodGet, "/api/documents?page=1&page_size=10", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list model.DocumentListResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &list))
	assert.Equal(t, int64(2), list.Total)
	assert.Len(t, list.Documents, 2)
}

func TestListDocuments_StatusFilter(t *testing.T) {
	env := newTestEnv(t, nil)
	uploadDocument(t, env, "first.txt", "alpha")

	w := env.doJSON(t, http.MethodGet, "/api/documents?status=completed", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list model.DocumentListResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &list))
	assert.Equal(t, int64(0), list.Total)
}

func TestDeleteDocument(t *testing.T) {
	env := newTestEnv(t, nil)
	uploaded := uploadDocument(t, env, "kyc_dossier.txt", "passport on file")

	w := env.doJSON(t, http.MethodDelete, "/api/documents/"+uploaded.DocumentID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.doJSON(t, http.MethodGet, "/api/documents/"+uploaded.DocumentID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteDocument_NotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.doJSON(t, http.MethodDelete, "/api/documents/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
