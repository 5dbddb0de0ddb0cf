package api

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EricBlanvillain/control-automation/api/model"
	"github.com/EricBlanvillain/control-automation/pkg/taskqueue"
)

func setupTestQueue(t *testing.T) taskqueue.Queue {
	t.Helper()
	mr := miniredis.RunT(t)

	queue, err := taskqueue.NewRedisQueue(&taskqueue.Config{
		RedisAddr:   mr.Addr(),
		Concurrency: 2,
		RetryLimit:  2,
		RetryDelay:  time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { queue.Close() })
	return queue
}

func TestStartRun_Async(t *testing.T) {
	queue := setupTestQueue(t)
	env := newTestEnv(t, queue)
	uploaded := uploadDocument(t, env, "kyc_dossier.txt", "passport on file")

	w := env.doJSON(t, http.MethodPost, "/api/runs", model.ControlRunRequest{
		DocumentID: uploaded.DocumentID,
		Async:      true,
	})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var resp model.ControlRunResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &resp))
	assert.NotEmpty(t, resp.TaskID)
	assert.Equal(t, "pending", resp.Status)
	assert.Empty(t, resp.RunID)

	w = env.doJSON(t, http.MethodGet, "/api/tasks/"+resp.TaskID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var info taskqueue.TaskInfo
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &info))
	assert.Equal(t, taskqueue.TaskControlRun, info.Type)
	assert.Equal(t, uploaded.DocumentID, info.DocumentID)
}

func TestStartRun_AsyncWithoutQueue(t *testing.T) {
	env := newTestEnv(t, nil)
	uploaded := uploadDocument(t, env, "kyc_dossier.txt", "passport on file")

	w := env.doJSON(t, http.MethodPost, "/api/runs", model.ControlRunRequest{
		DocumentID: uploaded.DocumentID,
		Async:      true,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTaskStatus_NotFound(t *testing.T) {
	queue := setupTestQueue(t)
	env := newTestEnv(t, queue)

	w := env.doJSON(t, http.MethodGet, "/api/tasks/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListDocumentTasks(t *testing.T) {
	queue := setupTestQueue(t)
	env := newTestEnv(t, queue)
	uploaded := uploadDocument(t, env, "kyc_dossier.txt", "passport on file")

	for i := 0; i < 2; i++ {
		w := env.doJSON(t, http.MethodPost, "/api/runs", model.ControlRunRequest{
			DocumentID: uploaded.DocumentID,
			Async:      true,
		})
		require.Equal(t, http.StatusAccepted, w.Code)
	}

	w := env.doJSON(t, http.MethodGet, "/api/documents/"+uploaded.DocumentID+"/tasks", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var infos []taskqueue.TaskInfo
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &infos))
	assert.Len(t, infos, 2)
}
