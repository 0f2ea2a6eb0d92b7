/*
handlers_test.go - HTTP tests for the ledger API

Tests for:
- Submit / query round trips for each policy
- Identity handling
- Error mapping (400 / 401 / 500)
*/
package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/pnl-ledger/aggregate"
	"github.com/warp/pnl-ledger/aggregate/store"
	"github.com/warp/pnl-ledger/factory"
)

func newTestServer(t *testing.T, policy string, s aggregate.Store) *httptest.Server {
	t.Helper()
	if s == nil {
		s = store.NewMemory("")
	}
	variant, err := factory.New(s, factory.PolicyJSON{Policy: policy}, nil)
	require.NoError(t, err)

	srv := httptest.NewServer(NewRouter(NewHandler(variant, nil), RouterOptions{}))
	t.Cleanup(srv.Close)
	return srv
}

func submit(t *testing.T, srv *httptest.Server, account, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/submissions", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if account != "" {
		req.Header.Set(AccountHeader, account)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getAccount(t *testing.T, srv *httptest.Server, account string) map[string]any {
	t.Helper()
	resp, err := http.Get(srv.URL + "/api/accounts/" + account)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func decodeError(t *testing.T, resp *http.Response) ErrorResponse {
	t.Helper()
	var out ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// =============================================================================
// ROUND TRIPS
// =============================================================================

func TestAPI_LastWrite(t *testing.T) {
	srv := newTestServer(t, aggregate.PolicyLastWrite, nil)

	assert.Equal(t, "Hello", getAccount(t, srv, "bob_near")["value"])

	resp := submit(t, srv, "bob_near", `{"value":"howdy"}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	got := getAccount(t, srv, "bob_near")
	assert.Equal(t, "howdy", got["value"])
	assert.Equal(t, "bob_near", got["account_id"])
	assert.Equal(t, "last_write", got["policy"])
}

func TestAPI_PairwiseAverage(t *testing.T) {
	srv := newTestServer(t, aggregate.PolicyPairwiseAverage, nil)

	submit(t, srv, "bob_near", `{"value":20}`)
	assert.Equal(t, 20.0, getAccount(t, srv, "bob_near")["value"])

	submit(t, srv, "bob_near", `{"value":10}`)
	assert.Equal(t, 15.0, getAccount(t, srv, "bob_near")["value"])
}

func TestAPI_CumulativeSum(t *testing.T) {
	srv := newTestServer(t, aggregate.PolicyCumulativeSum, nil)

	submit(t, srv, "alice", `{"value":-1.0}`)
	submit(t, srv, "alice", `{"value":-3.0}`)
	submit(t, srv, "bob", `{"value":0.1}`)
	submit(t, srv, "bob", `{"value":0.2}`)

	assert.Equal(t, -4.0, getAccount(t, srv, "alice")["value"])
	assert.Equal(t, 0.3, getAccount(t, srv, "bob")["value"])
	assert.Equal(t, 0.0, getAccount(t, srv, "carol")["value"])
}

func TestAPI_AnyCallerMayQueryAnyAccount(t *testing.T) {
	srv := newTestServer(t, aggregate.PolicyLastWrite, nil)
	submit(t, srv, "bob_near", `{"value":"howdy"}`)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/accounts/bob_near", nil)
	require.NoError(t, err)
	req.Header.Set(AccountHeader, "alice_near")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_ConcurrentSubmissionsAreSerialized(t *testing.T) {
	// GIVEN: Many concurrent submissions of 1.0 for the same account
	srv := newTestServer(t, aggregate.PolicyCumulativeSum, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/submissions", strings.NewReader(`{"value":1}`))
			req.Header.Set(AccountHeader, "bob_near")
			resp, err := http.DefaultClient.Do(req)
			if err == nil {
				resp.Body.Close()
			}
		}()
	}
	wg.Wait()

	// THEN: No read-combine-write cycle was lost
	assert.Equal(t, 50.0, getAccount(t, srv, "bob_near")["value"])
}

// =============================================================================
// ERRORS
// =============================================================================

func TestAPI_SubmitWithoutIdentity(t *testing.T) {
	srv := newTestServer(t, aggregate.PolicyLastWrite, nil)

	resp := submit(t, srv, "", `{"value":"howdy"}`)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, CodeMissingIdentity, decodeError(t, resp).Code)
}

func TestAPI_SubmitInvalidBody(t *testing.T) {
	srv := newTestServer(t, aggregate.PolicyLastWrite, nil)

	resp := submit(t, srv, "bob_near", `{"value":`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, CodeInvalidJSON, decodeError(t, resp).Code)
}

func TestAPI_SubmitWrongValueType(t *testing.T) {
	srv := newTestServer(t, aggregate.PolicyPairwiseAverage, nil)

	resp := submit(t, srv, "bob_near", `{"value":"twenty"}`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, CodeInvalidValue, decodeError(t, resp).Code)
	assert.Equal(t, 0.0, getAccount(t, srv, "bob_near")["value"], "nothing was stored")
}

func TestAPI_StoreWriteFailure(t *testing.T) {
	failing := &store.Failing{Inner: store.NewMemory(""), FailPut: errors.New("disk full")}
	srv := newTestServer(t, aggregate.PolicyLastWrite, failing)

	resp := submit(t, srv, "bob_near", `{"value":"howdy"}`)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decodeError(t, resp)
	assert.Equal(t, CodeStoreFailure, body.Code)
	assert.Nil(t, body.Details, "backend errors are not leaked")
	assert.Equal(t, "Hello", getAccount(t, srv, "bob_near")["value"])
}

func TestAPI_StoreReadFailure(t *testing.T) {
	failing := &store.Failing{Inner: store.NewMemory(""), FailGet: errors.New("connection reset")}
	srv := newTestServer(t, aggregate.PolicyLastWrite, failing)

	resp, err := http.Get(srv.URL + "/api/accounts/bob_near")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

// =============================================================================
// INTROSPECTION
// =============================================================================

func TestAPI_Policy(t *testing.T) {
	srv := newTestServer(t, aggregate.PolicyCumulativeSum, nil)

	resp, err := http.Get(srv.URL + "/api/policy")
	require.NoError(t, err)
	defer resp.Body.Close()

	var dto PolicyDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&dto))
	assert.Equal(t, "cumulative_sum", dto.Name)
	assert.Equal(t, "float64", dto.ValueType)
	assert.Equal(t, "non_zero", dto.Guard)
	assert.Equal(t, 0.0, dto.Default)
}

func TestAPI_Health(t *testing.T) {
	srv := newTestServer(t, aggregate.PolicyLastWrite, nil)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestJSONValue_NonFinite(t *testing.T) {
	assert.Equal(t, "+Inf", jsonValue(math.Inf(1)))
	assert.Equal(t, 1.5, jsonValue(1.5))
	assert.Equal(t, "howdy", jsonValue("howdy"))
}

// =============================================================================
// IDENTITY
// =============================================================================

func TestIdentity_PassesHeaderThroughUnchanged(t *testing.T) {
	var got aggregate.AccountID
	var present bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, present = AccountFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodPost, "/api/submissions", nil)
	req.Header.Set(AccountHeader, "  bob_near ")
	Identity(next).ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, present)
	assert.Equal(t, aggregate.AccountID("  bob_near "), got)
}

func TestIdentity_EmptyHeaderIsNoIdentity(t *testing.T) {
	present := true
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present = AccountFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodPost, "/api/submissions", nil)
	Identity(next).ServeHTTP(httptest.NewRecorder(), req)

	assert.False(t, present)
}
