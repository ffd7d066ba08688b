package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recibo-export/internal/clients"
	"recibo-export/internal/domain"
	"recibo-export/internal/layout"
	"recibo-export/internal/repository"
	"recibo-export/internal/service"
	ws "recibo-export/internal/transport/websocket"
)

type testEnv struct {
	server  *httptest.Server
	storage *clients.StorageClient
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	storage, err := clients.NewLocalStorage(t.TempDir(), "/files", "")
	require.NoError(t, err)

	svc := service.NewSessionService(
		repository.NewMemorySessionRepository(time.Hour),
		storage,
		clients.NewWebSocketClient(hub),
		layout.NewRenderer(nil),
		domain.ReceiptDefaults{ReceivedBy: "Teresita Portillo", Phone: "6682311921"},
	)

	server := httptest.NewServer(NewHandler(svc, storage, hub).InitRouter())
	t.Cleanup(server.Close)
	return &testEnv{server: server, storage: storage}
}

type envelope struct {
	ErrorCode int             `json:"error_code"`
	Status    string          `json:"status"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers ...string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.server.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func (e *testEnv) createSession(t *testing.T) service.SessionState {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/sessions", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var st service.SessionState
	decodeEnvelope(t, resp, &st)
	require.NotEmpty(t, st.ID)
	return st
}

func (e *testEnv) fillForm(t *testing.T, id string) {
	t.Helper()
	resp := e.do(t, http.MethodPatch, "/sessions/"+id+"/form",
		`{"from":"Juan Pérez","concept":"Renta","date":"2025-01-15"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = e.do(t, http.MethodPost, "/sessions/"+id+"/items", `{"description":"Mes de enero","amount":1500}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	resp := e.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	env := decodeEnvelope(t, resp, nil)
	assert.Equal(t, "success", env.Status)
}

func TestSession_CreateDefaults(t *testing.T) {
	e := newTestEnv(t)
	st := e.createSession(t)
	assert.Equal(t, "Teresita Portillo", st.ReceivedBy)
	assert.Equal(t, "6682311921", st.Phone)
	assert.Equal(t, "0.00", st.FormattedTotal)
	assert.Empty(t, st.Items)
}

func TestSession_NotFound(t *testing.T) {
	e := newTestEnv(t)
	resp := e.do(t, http.MethodGet, "/sessions/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	env := decodeEnvelope(t, resp, nil)
	assert.Equal(t, 404, env.ErrorCode)
	assert.Equal(t, "error", env.Status)
}

func TestSession_UpdateForm(t *testing.T) {
	e := newTestEnv(t)
	st := e.createSession(t)

	resp := e.do(t, http.MethodPatch, "/sessions/"+st.ID+"/form", `{"from":"Juan Pérez","date":"2025-09-03"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeEnvelope(t, resp, &st)
	assert.Equal(t, "Juan Pérez", st.From)
	assert.Equal(t, "3 de septiembre de 2025", st.FormattedDate)
	assert.Equal(t, "Teresita Portillo", st.ReceivedBy)

	resp = e.do(t, http.MethodPatch, "/sessions/"+st.ID+"/form", `{"from":["x"]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.do(t, http.MethodPatch, "/sessions/"+st.ID+"/form", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSession_ModalAndDraft(t *testing.T) {
	e := newTestEnv(t)
	st := e.createSession(t)

	resp := e.do(t, http.MethodPost, "/sessions/"+st.ID+"/modal", "")
	decodeEnvelope(t, resp, &st)
	assert.True(t, st.ModalOpen)

	resp = e.do(t, http.MethodPut, "/sessions/"+st.ID+"/draft", `{"description":"Luz","amount":"12a"}`)
	decodeEnvelope(t, resp, &st)
	assert.Equal(t, "12a", st.Draft.Amount)
	assert.True(t, st.DraftViolations.Has("amount"))

	resp = e.do(t, http.MethodPost, "/sessions/"+st.ID+"/items", "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var body struct {
		Violations domain.Violations    `json:"violations"`
		State      service.SessionState `json:"state"`
	}
	decodeEnvelope(t, resp, &body)
	assert.True(t, body.Violations.Has("amount"))
	assert.True(t, body.State.ModalOpen)
	assert.Empty(t, body.State.Items)

	resp = e.do(t, http.MethodDelete, "/sessions/"+st.ID+"/modal", "")
	decodeEnvelope(t, resp, &st)
	assert.False(t, st.ModalOpen)
	assert.True(t, st.Draft.IsEmpty())
}

func TestSession_ItemsAndTotal(t *testing.T) {
	e := newTestEnv(t)
	st := e.createSession(t)
	id := st.ID

	for _, body := range []string{
		`{"description":"a","amount":"100"}`,
		`{"description":"b","amount":20}`,
		`{"description":"c","amount":"3"}`,
	} {
		resp := e.do(t, http.MethodPost, "/sessions/"+id+"/items", body)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp := e.do(t, http.MethodGet, "/sessions/"+id+"/total", "")
	var total struct {
		Total     int64  `json:"total"`
		Formatted string `json:"formatted"`
	}
	decodeEnvelope(t, resp, &total)
	assert.Equal(t, int64(123), total.Total)
	assert.Equal(t, "123.00", total.Formatted)

	resp = e.do(t, http.MethodDelete, "/sessions/"+id+"/items/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeEnvelope(t, resp, &st)
	assert.Equal(t, int64(103), st.Total)
	require.Len(t, st.Items, 2)
	assert.Equal(t, "$3", st.Items[1].DisplayAmount)

	resp = e.do(t, http.MethodDelete, "/sessions/"+id+"/items/7", "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = e.do(t, http.MethodDelete, "/sessions/"+id+"/items/x", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/sessions/"+id+"/items", `{"description":"d","amount":1.5}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestSession_UnquotedAmountKeepsDigits(t *testing.T) {
	e := newTestEnv(t)
	st := e.createSession(t)

	resp := e.do(t, http.MethodPut, "/sessions/"+st.ID+"/draft", `{"description":"Renta","amount":12345678901234567}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeEnvelope(t, resp, &st)
	assert.Equal(t, "12345678901234567", st.Draft.Amount)

	resp = e.do(t, http.MethodPost, "/sessions/"+st.ID+"/items", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decodeEnvelope(t, resp, &st)
	require.Len(t, st.Items, 1)
	assert.Equal(t, int64(12345678901234567), st.Items[0].Amount)

	resp = e.do(t, http.MethodPut, "/sessions/"+st.ID+"/draft", `{"description":"x","amount":1e3}`)
	decodeEnvelope(t, resp, &st)
	assert.Equal(t, "1e3", st.Draft.Amount)
	assert.True(t, st.DraftViolations.Has("amount"))
}

func TestSession_SubmitInvalid(t *testing.T) {
	e := newTestEnv(t)
	st := e.createSession(t)

	resp := e.do(t, http.MethodPost, "/sessions/"+st.ID+"/submit", "")
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var body struct {
		Violations domain.Violations `json:"violations"`
	}
	decodeEnvelope(t, resp, &body)
	assert.True(t, body.Violations.Has("from"))
	assert.True(t, body.Violations.Has("concept"))

	resp = e.do(t, http.MethodGet, "/sessions/"+st.ID, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSession_SubmitStream(t *testing.T) {
	e := newTestEnv(t)
	st := e.createSession(t)
	e.fillForm(t, st.ID)

	resp := e.do(t, http.MethodPost, "/sessions/"+st.ID+"/submit", "", "Accept", "application/pdf")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="recibo-pago.pdf"`, resp.Header.Get("Content-Disposition"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF-")))

	resp = e.do(t, http.MethodGet, "/sessions/"+st.ID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSession_SubmitStoresAndServesFile(t *testing.T) {
	e := newTestEnv(t)
	st := e.createSession(t)
	e.fillForm(t, st.ID)

	resp := e.do(t, http.MethodPost, "/sessions/"+st.ID+"/submit", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out struct {
		FileURL  string `json:"file_url"`
		FileName string `json:"file_name"`
	}
	decodeEnvelope(t, resp, &out)
	assert.Equal(t, "recibo-pago.pdf", out.FileName)
	require.True(t, strings.HasPrefix(out.FileURL, "/files/"))

	resp = e.do(t, http.MethodGet, out.FileURL, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="recibo-pago.pdf"`, resp.Header.Get("Content-Disposition"))
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF-")))

	resp = e.do(t, http.MethodGet, "/files/missing.pdf", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSession_Close(t *testing.T) {
	e := newTestEnv(t)
	st := e.createSession(t)

	resp := e.do(t, http.MethodDelete, "/sessions/"+st.ID, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = e.do(t, http.MethodDelete, "/sessions/"+st.ID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRenderReceipt(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do(t, http.MethodPost, "/receipts", `{
		"from": "Juan Pérez",
		"concept": "Renta",
		"date": "2025-01-15",
		"items": [{"description": "Mes de enero", "amount": "1500"}]
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF-")))

	entries, err := os.ReadDir(e.storage.BaseDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRenderReceipt_Violations(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do(t, http.MethodPost, "/receipts", `{"concept":"Renta","date":"2025-01-15","items":[{"description":"","amount":"x"}]}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var body struct {
		Violations domain.Violations `json:"violations"`
	}
	decodeEnvelope(t, resp, &body)
	assert.True(t, body.Violations.Has("from"))
	assert.True(t, body.Violations.Has("items[0].description"))
	assert.True(t, body.Violations.Has("items[0].amount"))

	resp = e.do(t, http.MethodPost, "/receipts", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebSocket_SessionUpdates(t *testing.T) {
	e := newTestEnv(t)
	st := e.createSession(t)

	wsURL := "ws" + e.server.URL[4:] + "/ws?session_id=" + st.ID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	time.Sleep(100 * time.Millisecond)

	resp := e.do(t, http.MethodPost, "/sessions/"+st.ID+"/modal", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var msg struct {
		Type    string               `json:"type"`
		Channel string               `json:"channel"`
		Data    service.SessionState `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "session_updated", msg.Type)
	assert.Equal(t, "receipt_session#"+st.ID, msg.Channel)
	assert.True(t, msg.Data.ModalOpen)
}

func TestWebSocket_UnknownSession(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do(t, http.MethodGet, "/ws?session_id=nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/ws", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
