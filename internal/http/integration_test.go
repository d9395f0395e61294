package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"weatherhub/server/internal/config"
	"weatherhub/server/internal/db"
	httpserver "weatherhub/server/internal/http"
	"weatherhub/server/internal/model"
	"weatherhub/server/internal/repository"
)

func newTestServer(t *testing.T) (*httptest.Server, *repository.Store) {
	t.Helper()
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("set DATABASE_URL to run")
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	pool, err := db.NewPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		t.Fatalf("connect database: %v", err)
	}
	t.Cleanup(pool.Close)

	store := repository.NewStore(pool)
	server := httpserver.NewServer(cfg, store, zerolog.Nop())
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)
	return ts, store
}

func doJSON(t *testing.T, method, url, key string, payload interface{}) (int, map[string]interface{}) {
	t.Helper()
	var bodyBytes []byte
	if payload != nil {
		var err error
		bodyBytes, err = json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, bytes.NewBuffer(bodyBytes))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-AUTH-KEY", key)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	var decoded map[string]interface{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("decode response %s: %v", raw, err)
		}
	}
	return resp.StatusCode, decoded
}

func uniqueEmail(t *testing.T) string {
	t.Helper()
	return uuid.NewString() + "@example.com"
}

func registerAndLogin(t *testing.T, baseURL string) (string, string) {
	t.Helper()
	email := uniqueEmail(t)
	status, _ := doJSON(t, http.MethodPost, baseURL+"/auth/register", "", map[string]string{
		"email": email, "password": "secret-pass",
	})
	if status != http.StatusCreated {
		t.Fatalf("register status %d", status)
	}
	status, body := doJSON(t, http.MethodPost, baseURL+"/auth/login", "", map[string]string{
		"email": email, "password": "secret-pass",
	})
	if status != http.StatusOK {
		t.Fatalf("login status %d", status)
	}
	key, _ := body["authenticationKey"].(string)
	if key == "" {
		t.Fatalf("missing authentication key in %v", body)
	}
	return email, key
}

// createAccount provisions an account with an explicit role through the users
// API and logs it in.
func createAccount(t *testing.T, baseURL, teacherKey, role string) (string, string) {
	t.Helper()
	email := uniqueEmail(t)
	status, _ := doJSON(t, http.MethodPost, baseURL+"/users/", teacherKey, map[string]string{
		"email": email, "password": "secret-pass", "role": role,
	})
	if status != http.StatusCreated {
		t.Fatalf("create user status %d", status)
	}
	status, body := doJSON(t, http.MethodPost, baseURL+"/auth/login", "", map[string]string{
		"email": email, "password": "secret-pass",
	})
	if status != http.StatusOK {
		t.Fatalf("login status %d", status)
	}
	key, _ := body["authenticationKey"].(string)
	if key == "" {
		t.Fatalf("missing authentication key in %v", body)
	}
	return email, key
}

func TestAuthLifecycle(t *testing.T) {
	ts, _ := newTestServer(t)

	email := uniqueEmail(t)
	status, body := doJSON(t, http.MethodPost, ts.URL+"/auth/register", "", map[string]string{
		"email": email, "password": "secret-pass",
	})
	if status != http.StatusCreated {
		t.Fatalf("register status %d", status)
	}
	user, _ := body["user"].(map[string]interface{})
	if user["role"] != model.RoleTeacher {
		t.Fatalf("expected registered role Teacher, got %v", user["role"])
	}

	// Duplicate email is a conflict.
	status, _ = doJSON(t, http.MethodPost, ts.URL+"/auth/register", "", map[string]string{
		"email": email, "password": "other-pass",
	})
	if status != http.StatusConflict {
		t.Fatalf("duplicate register status %d", status)
	}

	// Unknown email and wrong password are reported distinctly.
	status, body = doJSON(t, http.MethodPost, ts.URL+"/auth/login", "", map[string]string{
		"email": "nobody-" + email, "password": "secret-pass",
	})
	if status != http.StatusNotFound {
		t.Fatalf("unknown email login status %d", status)
	}
	if body["message"] != "User not found." {
		t.Fatalf("unexpected message %v", body["message"])
	}
	status, body = doJSON(t, http.MethodPost, ts.URL+"/auth/login", "", map[string]string{
		"email": email, "password": "wrong-pass",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("wrong password login status %d", status)
	}
	if body["message"] != "Incorrect password." {
		t.Fatalf("unexpected message %v", body["message"])
	}

	status, body = doJSON(t, http.MethodPost, ts.URL+"/auth/login", "", map[string]string{
		"email": email, "password": "secret-pass",
	})
	if status != http.StatusOK {
		t.Fatalf("login status %d", status)
	}
	key, _ := body["authenticationKey"].(string)
	if key == "" {
		t.Fatalf("missing authentication key")
	}
	user, _ = body["user"].(map[string]interface{})
	if user["lastLogin"] == nil {
		t.Fatalf("expected lastLogin to be stamped on login")
	}

	// The key resolves back to the account.
	status, body = doJSON(t, http.MethodGet, ts.URL+"/users/key/"+key, key, nil)
	if status != http.StatusOK {
		t.Fatalf("get by key status %d", status)
	}
	user, _ = body["user"].(map[string]interface{})
	if user["email"] != email {
		t.Fatalf("expected email %s, got %v", email, user["email"])
	}

	status, _ = doJSON(t, http.MethodPost, ts.URL+"/auth/logout", "", map[string]string{
		"authenticationKey": key,
	})
	if status != http.StatusOK {
		t.Fatalf("logout status %d", status)
	}

	// The revoked key no longer passes the gate.
	status, _ = doJSON(t, http.MethodGet, ts.URL+"/users/", key, nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("revoked key status %d", status)
	}

	// Revoking it again is a client error.
	status, _ = doJSON(t, http.MethodPost, ts.URL+"/auth/logout", "", map[string]string{
		"authenticationKey": key,
	})
	if status != http.StatusBadRequest {
		t.Fatalf("double logout status %d", status)
	}
}

func TestRoleGate(t *testing.T) {
	ts, _ := newTestServer(t)
	_, teacherKey := registerAndLogin(t, ts.URL)

	// No key at all.
	status, _ := doJSON(t, http.MethodGet, ts.URL+"/weather/", "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("missing key status %d", status)
	}

	_, sensorKey := createAccount(t, ts.URL, teacherKey, model.RoleSensor)

	// Sensors may ingest readings but not list them.
	status, _ = doJSON(t, http.MethodPost, ts.URL+"/weather/", sensorKey, map[string]interface{}{
		"deviceName": "gate_sensor_" + uuid.NewString(), "temperature": 21.5,
	})
	if status != http.StatusCreated {
		t.Fatalf("sensor ingest status %d", status)
	}
	status, _ = doJSON(t, http.MethodGet, ts.URL+"/weather/", sensorKey, nil)
	if status != http.StatusForbidden {
		t.Fatalf("sensor list status %d", status)
	}

	// Users may read pages but not ingest.
	_, userKey := createAccount(t, ts.URL, teacherKey, model.RoleUser)
	status, _ = doJSON(t, http.MethodGet, ts.URL+"/weather/page/0", userKey, nil)
	if status != http.StatusOK {
		t.Fatalf("user page status %d", status)
	}
	status, _ = doJSON(t, http.MethodPost, ts.URL+"/weather/", userKey, map[string]interface{}{
		"deviceName": "gate_user_" + uuid.NewString(), "temperature": 21.5,
	})
	if status != http.StatusForbidden {
		t.Fatalf("user ingest status %d", status)
	}
	status, _ = doJSON(t, http.MethodGet, ts.URL+"/users/", userKey, nil)
	if status != http.StatusForbidden {
		t.Fatalf("user listing users status %d", status)
	}
}

func TestReadingLifecycle(t *testing.T) {
	ts, store := newTestServer(t)
	email, key := registerAndLogin(t, ts.URL)
	deviceName := "lifecycle_" + uuid.NewString()

	// The sensor invariants reject out-of-range values.
	status, _ := doJSON(t, http.MethodPost, ts.URL+"/weather/", key, map[string]interface{}{
		"deviceName": deviceName, "temperature": 70.0,
	})
	if status != http.StatusBadRequest {
		t.Fatalf("hot reading status %d", status)
	}
	status, _ = doJSON(t, http.MethodPost, ts.URL+"/weather/", key, map[string]interface{}{
		"deviceName": deviceName, "humidity": 100.5,
	})
	if status != http.StatusBadRequest {
		t.Fatalf("wet reading status %d", status)
	}

	status, body := doJSON(t, http.MethodPost, ts.URL+"/weather/", key, map[string]interface{}{
		"deviceName": deviceName, "temperature": 23.4, "humidity": 71.5,
	})
	if status != http.StatusCreated {
		t.Fatalf("create reading status %d", status)
	}
	data, _ := body["data"].(map[string]interface{})
	id, _ := data["_id"].(string)
	if len(id) != 24 {
		t.Fatalf("expected 24-char id, got %q", id)
	}
	if data["readingDateTime"] == nil {
		t.Fatalf("expected server-side reading timestamp")
	}

	// Malformed ids never reach the store.
	status, _ = doJSON(t, http.MethodGet, ts.URL+"/weather/not-a-valid-id", key, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("malformed id status %d", status)
	}

	status, body = doJSON(t, http.MethodGet, ts.URL+"/weather/"+id, key, nil)
	if status != http.StatusOK {
		t.Fatalf("get reading status %d", status)
	}
	data, _ = body["data"].(map[string]interface{})
	if data["temperature"] != 23.4 {
		t.Fatalf("expected temperature 23.4, got %v", data["temperature"])
	}

	status, _ = doJSON(t, http.MethodPatch, ts.URL+"/weather/"+id+"/precipitation", key, map[string]interface{}{
		"precipitation": 4.25,
	})
	if status != http.StatusOK {
		t.Fatalf("patch precipitation status %d", status)
	}

	status, _ = doJSON(t, http.MethodPut, ts.URL+"/weather/"+id, key, map[string]interface{}{
		"temperature": 25.0,
	})
	if status != http.StatusOK {
		t.Fatalf("update reading status %d", status)
	}

	status, body = doJSON(t, http.MethodGet, ts.URL+"/weather/"+id, key, nil)
	if status != http.StatusOK {
		t.Fatalf("get reading status %d", status)
	}
	data, _ = body["data"].(map[string]interface{})
	if data["temperature"] != 25.0 || data["precipitation"] != 4.25 {
		t.Fatalf("unexpected patched reading %v", data)
	}

	// An empty update is rejected before touching the store.
	status, _ = doJSON(t, http.MethodPut, ts.URL+"/weather/"+id, key, map[string]interface{}{})
	if status != http.StatusBadRequest {
		t.Fatalf("empty update status %d", status)
	}

	// The logged deletion removes the row and records who removed it.
	status, _ = doJSON(t, http.MethodDelete, ts.URL+"/weather/"+id, key, nil)
	if status != http.StatusOK {
		t.Fatalf("delete reading status %d", status)
	}
	status, _ = doJSON(t, http.MethodGet, ts.URL+"/weather/"+id, key, nil)
	if status != http.StatusNotFound {
		t.Fatalf("deleted reading status %d", status)
	}

	originalID, err := model.ParseObjectID(id)
	if err != nil {
		t.Fatalf("parse id: %v", err)
	}
	entries, err := store.GetDeletionsByOriginalID(context.Background(), originalID)
	if err != nil {
		t.Fatalf("load deletion log: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one deletion entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.DeletedBy != email {
		t.Fatalf("expected deletion attributed to %s, got %s", email, entry.DeletedBy)
	}
	if entry.Reading.DeviceName != deviceName {
		t.Fatalf("expected archived device %s, got %s", deviceName, entry.Reading.DeviceName)
	}
	if entry.Reading.Temperature == nil || *entry.Reading.Temperature != 25.0 {
		t.Fatalf("expected archived temperature 25.0, got %v", entry.Reading.Temperature)
	}

	// Deleting a missing reading is a not-found, not a log entry.
	status, _ = doJSON(t, http.MethodDelete, ts.URL+"/weather/"+id, key, nil)
	if status != http.StatusNotFound {
		t.Fatalf("delete missing reading status %d", status)
	}
}

func TestBatchAndPagination(t *testing.T) {
	ts, _ := newTestServer(t)
	_, key := registerAndLogin(t, ts.URL)
	deviceName := "batch_" + uuid.NewString()

	batch := make([]map[string]interface{}, 0, 7)
	for i := 0; i < 7; i++ {
		batch = append(batch, map[string]interface{}{
			"deviceName":  "ignored-by-the-route",
			"temperature": 10.0 + float64(i),
		})
	}
	status, body := doJSON(t, http.MethodPost, ts.URL+"/weather/readings/"+deviceName, key, batch)
	if status != http.StatusCreated {
		t.Fatalf("batch insert status %d", status)
	}
	if body["insertedCount"] != 7.0 {
		t.Fatalf("expected insertedCount 7, got %v", body["insertedCount"])
	}

	// The path device name wins over whatever the body claims.
	status, body = doJSON(t, http.MethodGet, ts.URL+"/weather/", key, nil)
	if status != http.StatusOK {
		t.Fatalf("get all status %d", status)
	}
	all, _ := body["weatherData"].([]interface{})
	var allIDs []string
	for _, item := range all {
		reading := item.(map[string]interface{})
		if reading["deviceName"] == deviceName {
			if reading["_id"] == nil {
				t.Fatalf("missing id in %v", reading)
			}
		}
		allIDs = append(allIDs, reading["_id"].(string))
	}

	// Page 0 is the first slice of the full listing, in the same order.
	status, body = doJSON(t, http.MethodGet, ts.URL+"/weather/page/0", key, nil)
	if status != http.StatusOK {
		t.Fatalf("page status %d", status)
	}
	page, _ := body["weatherData"].([]interface{})
	if len(page) == 0 || len(page) > 5 {
		t.Fatalf("expected between 1 and 5 readings on page 0, got %d", len(page))
	}
	for i, item := range page {
		reading := item.(map[string]interface{})
		if reading["_id"].(string) != allIDs[i] {
			t.Fatalf("page order diverges from listing at %d", i)
		}
	}

	status, _ = doJSON(t, http.MethodGet, ts.URL+"/weather/page/-1", key, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("negative page status %d", status)
	}

	// A page whose offset would overflow is rejected, not a server error.
	status, _ = doJSON(t, http.MethodGet, ts.URL+"/weather/page/9223372036854775807", key, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("overflowing page status %d", status)
	}

	// An empty batch is rejected.
	status, _ = doJSON(t, http.MethodPost, ts.URL+"/weather/readings/"+deviceName, key, []map[string]interface{}{})
	if status != http.StatusBadRequest {
		t.Fatalf("empty batch status %d", status)
	}
}

func TestBulkUpdateAndDelete(t *testing.T) {
	ts, _ := newTestServer(t)
	_, key := registerAndLogin(t, ts.URL)
	deviceName := "bulk_" + uuid.NewString()

	var ids []string
	for i := 0; i < 3; i++ {
		status, body := doJSON(t, http.MethodPost, ts.URL+"/weather/", key, map[string]interface{}{
			"deviceName": deviceName, "temperature": 15.0 + float64(i),
		})
		if status != http.StatusCreated {
			t.Fatalf("create reading status %d", status)
		}
		data, _ := body["data"].(map[string]interface{})
		ids = append(ids, data["_id"].(string))
	}

	status, body := doJSON(t, http.MethodPatch, ts.URL+"/weather/", key, map[string]interface{}{
		"ids":    ids,
		"update": map[string]interface{}{"precipitation": 9.75},
	})
	if status != http.StatusOK {
		t.Fatalf("bulk update status %d", status)
	}
	if body["modifiedCount"] != 3.0 {
		t.Fatalf("expected modifiedCount 3, got %v", body["modifiedCount"])
	}

	status, body = doJSON(t, http.MethodGet, ts.URL+"/weather/"+ids[0], key, nil)
	if status != http.StatusOK {
		t.Fatalf("get reading status %d", status)
	}
	data, _ := body["data"].(map[string]interface{})
	if data["precipitation"] != 9.75 {
		t.Fatalf("expected precipitation 9.75, got %v", data["precipitation"])
	}

	// Malformed ids fail the whole batch up front.
	status, _ = doJSON(t, http.MethodPatch, ts.URL+"/weather/", key, map[string]interface{}{
		"ids":    []string{"nope"},
		"update": map[string]interface{}{"precipitation": 1.0},
	})
	if status != http.StatusBadRequest {
		t.Fatalf("malformed bulk id status %d", status)
	}

	// So does an empty id list, for update and delete alike.
	status, _ = doJSON(t, http.MethodPatch, ts.URL+"/weather/", key, map[string]interface{}{
		"ids":    []string{},
		"update": map[string]interface{}{"precipitation": 1.0},
	})
	if status != http.StatusBadRequest {
		t.Fatalf("empty bulk update ids status %d", status)
	}
	status, _ = doJSON(t, http.MethodDelete, ts.URL+"/weather/", key, map[string]interface{}{
		"ids": []string{},
	})
	if status != http.StatusBadRequest {
		t.Fatalf("empty bulk delete ids status %d", status)
	}

	status, body = doJSON(t, http.MethodDelete, ts.URL+"/weather/", key, map[string]interface{}{
		"ids": ids,
	})
	if status != http.StatusOK {
		t.Fatalf("bulk delete status %d", status)
	}
	if body["deletedCount"] != 3.0 {
		t.Fatalf("expected deletedCount 3, got %v", body["deletedCount"])
	}
	status, _ = doJSON(t, http.MethodGet, ts.URL+"/weather/"+ids[0], key, nil)
	if status != http.StatusNotFound {
		t.Fatalf("deleted reading status %d", status)
	}
}

func TestDeviceHourAndAggregates(t *testing.T) {
	ts, _ := newTestServer(t)
	_, key := registerAndLogin(t, ts.URL)
	deviceA := "agg_a_" + uuid.NewString()
	deviceB := "agg_b_" + uuid.NewString()

	// Fixed timestamps far in the past keep this run isolated from other data.
	inHour := time.Date(1993, 2, 15, 10, 12, 0, 0, time.UTC)
	alsoInHour := time.Date(1993, 2, 15, 10, 47, 0, 0, time.UTC)
	nextHour := time.Date(1993, 2, 15, 11, 5, 0, 0, time.UTC)

	batchA := []map[string]interface{}{
		{"readingDateTime": inHour, "temperature": 18.5, "precipitation": 0.5, "solarRadiation": 400.0},
		{"readingDateTime": alsoInHour, "temperature": 19.5, "precipitation": 1.5},
		{"readingDateTime": nextHour, "temperature": 31.0, "precipitation": 7.25},
	}
	status, _ := doJSON(t, http.MethodPost, ts.URL+"/weather/readings/"+deviceA, key, batchA)
	if status != http.StatusCreated {
		t.Fatalf("batch insert status %d", status)
	}
	batchB := []map[string]interface{}{
		{"readingDateTime": inHour, "temperature": 24.0},
	}
	status, _ = doJSON(t, http.MethodPost, ts.URL+"/weather/readings/"+deviceB, key, batchB)
	if status != http.StatusCreated {
		t.Fatalf("batch insert status %d", status)
	}

	// Any timestamp inside the hour selects the whole bucket and nothing else.
	status, body := doJSON(t, http.MethodGet, ts.URL+"/weather/device/"+deviceA+"?dateTime=1993-02-15T10:30:00Z", key, nil)
	if status != http.StatusOK {
		t.Fatalf("device hour status %d", status)
	}
	samples, _ := body["data"].([]interface{})
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples in the hour bucket, got %d", len(samples))
	}
	first, _ := samples[0].(map[string]interface{})
	if first["temperature"] != 18.5 {
		t.Fatalf("expected first sample temperature 18.5, got %v", first["temperature"])
	}

	status, _ = doJSON(t, http.MethodGet, ts.URL+"/weather/device/"+deviceA+"?dateTime=gibberish", key, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("bad dateTime status %d", status)
	}

	// Highest precipitation across the five months ending on the given day.
	status, body = doJSON(t, http.MethodGet, ts.URL+"/weather/max-prep/"+deviceA+"/1993-04-01", key, nil)
	if status != http.StatusOK {
		t.Fatalf("max precipitation status %d", status)
	}
	data, _ := body["data"].(map[string]interface{})
	if data["precipitation"] != 7.25 {
		t.Fatalf("expected max precipitation 7.25, got %v", data["precipitation"])
	}
	if data["deviceName"] != deviceA {
		t.Fatalf("expected device %s, got %v", deviceA, data["deviceName"])
	}

	status, _ = doJSON(t, http.MethodGet, ts.URL+"/weather/max-prep/no_such_device/1993-04-01", key, nil)
	if status != http.StatusNotFound {
		t.Fatalf("unknown device status %d", status)
	}

	// Per-device maxima over a closed day range.
	status, body = doJSON(t, http.MethodGet, ts.URL+"/weather/max-temp/19930214/19930216", key, nil)
	if status != http.StatusOK {
		t.Fatalf("max temperature status %d", status)
	}
	result, _ := body["result"].([]interface{})
	maxima := map[string]float64{}
	for _, item := range result {
		entry := item.(map[string]interface{})
		name, _ := entry["deviceName"].(string)
		if temp, ok := entry["temperature"].(float64); ok {
			maxima[name] = temp
		}
	}
	if maxima[deviceA] != 31.0 {
		t.Fatalf("expected max 31.0 for %s, got %v", deviceA, maxima[deviceA])
	}
	if maxima[deviceB] != 24.0 {
		t.Fatalf("expected max 24.0 for %s, got %v", deviceB, maxima[deviceB])
	}

	status, _ = doJSON(t, http.MethodGet, ts.URL+"/weather/max-temp/1993x214/19930216", key, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("bad date literal status %d", status)
	}
}

func TestUserManagement(t *testing.T) {
	ts, _ := newTestServer(t)
	_, teacherKey := registerAndLogin(t, ts.URL)

	email := uniqueEmail(t)
	status, body := doJSON(t, http.MethodPost, ts.URL+"/users/", teacherKey, map[string]string{
		"email": email, "password": "secret-pass", "role": model.RoleSensor,
	})
	if status != http.StatusCreated {
		t.Fatalf("create user status %d", status)
	}
	user, _ := body["user"].(map[string]interface{})
	id, _ := user["_id"].(string)
	if len(id) != 24 {
		t.Fatalf("expected 24-char id, got %q", id)
	}

	status, _ = doJSON(t, http.MethodPost, ts.URL+"/users/", teacherKey, map[string]string{
		"email": uniqueEmail(t), "password": "secret-pass", "role": "Wizard",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("unknown role status %d", status)
	}

	status, body = doJSON(t, http.MethodGet, ts.URL+"/users/"+id, teacherKey, nil)
	if status != http.StatusOK {
		t.Fatalf("get user status %d", status)
	}
	user, _ = body["user"].(map[string]interface{})
	if user["email"] != email {
		t.Fatalf("expected email %s, got %v", email, user["email"])
	}

	// The listing substitutes createdAt for accounts that never logged in.
	status, body = doJSON(t, http.MethodGet, ts.URL+"/users/", teacherKey, nil)
	if status != http.StatusOK {
		t.Fatalf("list users status %d", status)
	}
	users, _ := body["usersData"].([]interface{})
	if len(users) == 0 {
		t.Fatalf("expected at least one user")
	}
	for _, item := range users {
		account := item.(map[string]interface{})
		if account["lastLogin"] == nil {
			t.Fatalf("expected lastLogin fallback for %v", account["email"])
		}
	}

	status, _ = doJSON(t, http.MethodPut, ts.URL+"/users/"+id, teacherKey, map[string]string{
		"email": email, "password": "new-pass", "role": model.RoleUser,
	})
	if status != http.StatusOK {
		t.Fatalf("update user status %d", status)
	}
	status, body = doJSON(t, http.MethodPost, ts.URL+"/auth/login", "", map[string]string{
		"email": email, "password": "new-pass",
	})
	if status != http.StatusOK {
		t.Fatalf("login after update status %d", status)
	}
	user, _ = body["user"].(map[string]interface{})
	if user["role"] != model.RoleUser {
		t.Fatalf("expected updated role User, got %v", user["role"])
	}

	status, _ = doJSON(t, http.MethodDelete, ts.URL+"/users/"+id, teacherKey, nil)
	if status != http.StatusOK {
		t.Fatalf("delete user status %d", status)
	}
	status, _ = doJSON(t, http.MethodGet, ts.URL+"/users/"+id, teacherKey, nil)
	if status != http.StatusNotFound {
		t.Fatalf("deleted user status %d", status)
	}
	status, _ = doJSON(t, http.MethodGet, ts.URL+"/users/not-an-id", teacherKey, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("malformed user id status %d", status)
	}
}

func TestRangeMaintenance(t *testing.T) {
	ts, _ := newTestServer(t)
	_, teacherKey := registerAndLogin(t, ts.URL)
	today := time.Now().UTC().Format("20060102")

	// Re-assigning Teacher to accounts created today matches at least this
	// test's own accounts without demoting anyone.
	status, body := doJSON(t, http.MethodPatch, ts.URL+"/users/", teacherKey, map[string]string{
		"startDate": today, "endDate": today, "role": model.RoleTeacher,
	})
	if status != http.StatusOK {
		t.Fatalf("promote status %d", status)
	}
	matched, _ := body["matchedCount"].(float64)
	if matched < 1 {
		t.Fatalf("expected at least one matched account, got %v", body["matchedCount"])
	}

	status, _ = doJSON(t, http.MethodPatch, ts.URL+"/users/", teacherKey, map[string]string{
		"startDate": "2021-01-01", "endDate": today, "role": model.RoleTeacher,
	})
	if status != http.StatusBadRequest {
		t.Fatalf("bad literal status %d", status)
	}

	// Purge User-role accounts that logged in today; the account created here
	// must be among them.
	userEmail, _ := createAccount(t, ts.URL, teacherKey, model.RoleUser)
	status, body = doJSON(t, http.MethodDelete, ts.URL+"/users/last-login", teacherKey, map[string]string{
		"startDate": today, "endDate": today,
	})
	if status != http.StatusOK {
		t.Fatalf("purge status %d", status)
	}
	deleted, _ := body["deletedCount"].(float64)
	if deleted < 1 {
		t.Fatalf("expected at least one deleted account, got %v", body["deletedCount"])
	}
	status, _ = doJSON(t, http.MethodPost, ts.URL+"/auth/login", "", map[string]string{
		"email": userEmail, "password": "secret-pass",
	})
	if status != http.StatusNotFound {
		t.Fatalf("purged account login status %d", status)
	}
}
