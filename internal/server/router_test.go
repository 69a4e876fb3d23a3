package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-retail/fedhui/internal/coordinator"
	"github.com/ridgeline-retail/fedhui/internal/handlers"
	"github.com/ridgeline-retail/fedhui/internal/repos"
	"github.com/ridgeline-retail/fedhui/internal/repos/testutil"
	"github.com/ridgeline-retail/fedhui/internal/services"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	gdb := testutil.DB(t)
	log := testutil.Logger(t)

	storeRepo := repos.NewStoreRepo(gdb, log)
	txnRepo := repos.NewTransactionRepo(gdb, log)
	jobRepo := repos.NewMiningJobRepo(gdb, log)
	patternRepo := repos.NewLocalPatternRepo(gdb, log)
	roundRepo := repos.NewFederatedRoundRepo(gdb, log)
	globalRepo := repos.NewGlobalPatternRepo(gdb, log)

	storeSvc := services.NewStoreService(log, storeRepo, nil, time.Minute)
	txnSvc := services.NewTransactionService(log, storeRepo, txnRepo)
	miningSvc := services.NewMiningService(log, storeRepo, jobRepo, patternRepo)
	ledger := coordinator.NewBudgetLedger(log, nil, roundRepo, 100)
	coord := coordinator.NewCoordinator(log, gdb, roundRepo, patternRepo, globalRepo, txnRepo, storeSvc, ledger)
	federatedSvc := services.NewFederatedService(log, coord, roundRepo, globalRepo, 1, 0.5, 1.0)

	return NewRouter(RouterConfig{
		StoreHandler:       handlers.NewStoreHandler(storeSvc),
		TransactionHandler: handlers.NewTransactionHandler(txnSvc),
		MiningHandler:      handlers.NewMiningHandler(miningSvc),
		FederatedHandler:   handlers.NewFederatedHandler(federatedSvc),
	})
}

func TestRouter_Healthcheck(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_RegisterThenUploadThenList(t *testing.T) {
	router := newTestRouter(t)

	storeID := uuid.New()
	registerBody, err := json.Marshal(map[string]interface{}{
		"store_id":   storeID,
		"store_name": "corner-store",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/stores/register", bytes.NewReader(registerBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	uploadBody, err := json.Marshal([]map[string]interface{}{
		{"items": []int64{1, 2}, "quantities": []int64{1, 2}, "unit_utilities": []float64{3.0, 1.5}},
	})
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodPost, "/api/transactions/upload/"+storeID.String(), bytes.NewReader(uploadBody))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/transactions/"+storeID.String(), nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	txns, ok := payload["transactions"].([]interface{})
	require.True(t, ok)
	require.Len(t, txns, 1)
}

func TestRouter_UploadToUnknownStoreReturnsNotFound(t *testing.T) {
	router := newTestRouter(t)

	body, err := json.Marshal([]map[string]interface{}{
		{"items": []int64{1}, "quantities": []int64{1}, "unit_utilities": []float64{1}},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/transactions/upload/"+uuid.New().String(), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
