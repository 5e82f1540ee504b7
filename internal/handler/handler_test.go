package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marsgrid/internal/app/live"
	"marsgrid/internal/app/payment"
	"marsgrid/internal/app/store"
	"marsgrid/internal/configs"
	"marsgrid/internal/pkg/errs"
	"marsgrid/internal/pkg/metrics"
	"marsgrid/internal/pkg/randx"
)

var fixtureRooms = []byte(`[
	{"id": "1", "q": 0, "r": 0, "size": "large", "desc": "Central dome plot", "price": 8},
	{"id": "2", "q": 1, "r": 0, "size": "medium", "desc": "East habitat module", "price": 5},
	{"id": "3", "q": 0, "r": 1, "size": "small", "desc": "Compact capsule", "price": 3}
]`)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T, providerURL string) *httptest.Server {
	t.Helper()

	dir := t.TempDir()

	cfg := &configs.AppConfig{
		Environment:       "development",
		Port:              8080,
		DataDir:           dir,
		AllowedOrigins:    []string{},
		DefaultNickname:   "Guest_Mars",
		DefaultCoupons:    10,
		PaymentAPIBaseURL: providerURL,
		PaymentSecretKey:  "test_sk",
	}

	usersRes, err := store.NewResource(dir, "users.json", nil)
	require.NoError(t, err)
	roomsRes, err := store.NewResource(dir, "rooms.json", fixtureRooms)
	require.NoError(t, err)

	users := store.NewUserStore(usersRes)
	rooms := store.NewRoomStore(roomsRes, users)

	hub := live.NewHub()
	t.Cleanup(hub.Shutdown)

	deps := &AppDeps{
		Config:  cfg,
		Users:   users,
		Rooms:   rooms,
		Hub:     hub,
		Payment: payment.NewClient(providerURL, cfg.PaymentSecretKey),
		Metrics: metrics.New(),
	}

	srv := httptest.NewServer(Router(deps))
	t.Cleanup(srv.Close)

	return srv
}

// doJSON performs a request with an optional identity cookie and JSON body,
// returning the response and decoded envelope.
func doJSON(t *testing.T, method, url, cookie string, body any) (*http.Response, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: IdentityCookieName, Value: cookie})
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })

	var env envelope
	require.NoError(t, json.NewDecoder(res.Body).Decode(&env))

	return res, env
}

// identityCookie extracts the issued user_uuid cookie value.
func identityCookie(t *testing.T, res *http.Response) string {
	t.Helper()

	for _, c := range res.Cookies() {
		if c.Name == IdentityCookieName {
			return c.Value
		}
	}
	t.Fatal("no identity cookie issued")
	return ""
}

func TestIdentityCookieIssuedToNewVisitor(t *testing.T) {
	srv := newTestServer(t, "http://unused.invalid")

	res, env := doJSON(t, http.MethodGet, srv.URL+"/api/me", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	id := identityCookie(t, res)
	_, valid := randx.ParseIdentity(id)
	assert.True(t, valid, "issued cookie must be a UUID")

	var me struct {
		ID       string `json:"id"`
		Nickname string `json:"nickname"`
		Coupons  int    `json:"coupons"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, id, me.ID)
	assert.Equal(t, "Guest_Mars", me.Nickname)
	assert.Equal(t, 10, me.Coupons)
}

func TestIdentityCookieRecognizesReturningVisitor(t *testing.T) {
	srv := newTestServer(t, "http://unused.invalid")

	res, _ := doJSON(t, http.MethodGet, srv.URL+"/api/me", "", nil)
	id := identityCookie(t, res)

	res2, env := doJSON(t, http.MethodGet, srv.URL+"/api/me", id, nil)
	assert.Equal(t, id, identityCookie(t, res2))

	var me struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, id, me.ID)
}

func TestMalformedIdentityCookieGetsFreshIdentity(t *testing.T) {
	srv := newTestServer(t, "http://unused.invalid")

	res, _ := doJSON(t, http.MethodGet, srv.URL+"/api/me", "definitely-not-a-uuid", nil)
	id := identityCookie(t, res)

	_, valid := randx.ParseIdentity(id)
	assert.True(t, valid)
	assert.NotEqual(t, "definitely-not-a-uuid", id)
}

func TestListRoomsReturnsGridWithIdentity(t *testing.T) {
	srv := newTestServer(t, "http://unused.invalid")

	res, env := doJSON(t, http.MethodGet, srv.URL+"/api/rooms", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var data struct {
		Rooms map[string]store.Room `json:"rooms"`
		Me    struct {
			Nickname string `json:"nickname"`
			Coupons  int    `json:"coupons"`
		} `json:"me"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Len(t, data.Rooms, 3)
	assert.Equal(t, "Guest_Mars", data.Me.Nickname)
}

func TestSearchRoomsFiltersBySubstring(t *testing.T) {
	srv := newTestServer(t, "http://unused.invalid")

	_, env := doJSON(t, http.MethodGet, srv.URL+"/api/rooms?q=habitat", "", nil)

	var data struct {
		Rooms map[string]store.Room `json:"rooms"`
		Query string                `json:"query"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Rooms, 1)
	assert.Contains(t, data.Rooms, "2")
	assert.Equal(t, "habitat", data.Query)
}

func TestGetRoomByID(t *testing.T) {
	srv := newTestServer(t, "http://unused.invalid")

	res, env := doJSON(t, http.MethodGet, srv.URL+"/api/rooms/1", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var data struct {
		Room store.Room `json:"room"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "large", data.Room.Size)

	res, env = doJSON(t, http.MethodGet, srv.URL+"/api/rooms/999", "", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, errs.ErrRoomNotFound, env.Code)
}

func TestPurchaseRoomEndToEnd(t *testing.T) {
	srv := newTestServer(t, "http://unused.invalid")

	res, _ := doJSON(t, http.MethodGet, srv.URL+"/api/me", "", nil)
	buyer := identityCookie(t, res)

	res, env := doJSON(t, http.MethodPost, srv.URL+"/api/rooms/3/purchase", buyer, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var data struct {
		Room    store.Room `json:"room"`
		Coupons int        `json:"coupons"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, buyer, data.Room.OwnerID)
	assert.Equal(t, 7, data.Coupons, "price 3 deducted from the default 10")

	// A different visitor cannot buy the same room again.
	res, env = doJSON(t, http.MethodPost, srv.URL+"/api/rooms/3/purchase", "", nil)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Equal(t, errs.ErrRoomAlreadyOwned, env.Code)
}

func TestPurchaseRejectedWhenBalanceTooLow(t *testing.T) {
	srv := newTestServer(t, "http://unused.invalid")

	res, _ := doJSON(t, http.MethodGet, srv.URL+"/api/me", "", nil)
	buyer := identityCookie(t, res)

	// Default balance is 10; rooms 3 (price 3) and 1 (price 8) together
	// exceed it.
	res, _ = doJSON(t, http.MethodPost, srv.URL+"/api/rooms/3/purchase", buyer, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, env := doJSON(t, http.MethodPost, srv.URL+"/api/rooms/1/purchase", buyer, nil)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Equal(t, errs.ErrInsufficientCoupons, env.Code)
}

func TestChangeNickname(t *testing.T) {
	srv := newTestServer(t, "http://unused.invalid")

	res, _ := doJSON(t, http.MethodGet, srv.URL+"/api/me", "", nil)
	visitor := identityCookie(t, res)

	res, env := doJSON(t, http.MethodPost, srv.URL+"/api/me/nickname", visitor, map[string]string{"nickname": "  Ana  "})
	require.Equal(t, http.StatusOK, res.StatusCode)

	var data struct {
		Nickname string `json:"nickname"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "Ana", data.Nickname)

	res, env = doJSON(t, http.MethodPost, srv.URL+"/api/me/nickname", visitor, map[string]string{"nickname": " a "})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, errs.ErrNicknameTooShort, env.Code)

	// The failed rename must not clobber the previous nickname.
	_, env = doJSON(t, http.MethodGet, srv.URL+"/api/me", visitor, nil)
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "Ana", data.Nickname)
}

func TestUsersDirectoryListsOwnedRooms(t *testing.T) {
	srv := newTestServer(t, "http://unused.invalid")

	res, _ := doJSON(t, http.MethodGet, srv.URL+"/api/me", "", nil)
	buyer := identityCookie(t, res)

	res, _ = doJSON(t, http.MethodPost, srv.URL+"/api/rooms/2/purchase", buyer, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	_, env := doJSON(t, http.MethodGet, srv.URL+"/api/users", buyer, nil)

	var data struct {
		Users []struct {
			ID         string   `json:"id"`
			OwnedRooms []string `json:"ownedRooms"`
		} `json:"users"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))

	found := false
	for _, u := range data.Users {
		if u.ID == buyer {
			found = true
			assert.Equal(t, []string{"2"}, u.OwnedRooms)
		}
	}
	assert.True(t, found, "the buyer must appear in the directory")
}

func TestConfirmPaymentGrantsCoupons(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"DONE"}`))
	}))
	defer provider.Close()

	srv := newTestServer(t, provider.URL)

	res, _ := doJSON(t, http.MethodGet, srv.URL+"/api/me", "", nil)
	visitor := identityCookie(t, res)

	res, _ = doJSON(t, http.MethodPost, srv.URL+"/api/payments/confirm", visitor, payment.ConfirmRequest{
		PaymentKey: "pk_1",
		OrderID:    "mars_1",
		Amount:     "5000",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)

	// The raw confirm response is not enveloped; re-request /api/me for
	// the balance.
	_, env := doJSON(t, http.MethodGet, srv.URL+"/api/me", visitor, nil)

	var me struct {
		Coupons int `json:"coupons"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, 15, me.Coupons, "5000 won converts to 5 coupons on top of the default 10")
}

func TestConfirmPaymentDeclinedGrantsNothing(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":"REJECTED"}`))
	}))
	defer provider.Close()

	srv := newTestServer(t, provider.URL)

	res, _ := doJSON(t, http.MethodGet, srv.URL+"/api/me", "", nil)
	visitor := identityCookie(t, res)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/payments/confirm",
		bytes.NewReader([]byte(`{"paymentKey":"pk","orderId":"o","amount":"5000"}`)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: IdentityCookieName, Value: visitor})

	confirmRes, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer confirmRes.Body.Close()
	assert.Equal(t, http.StatusBadRequest, confirmRes.StatusCode, "the provider status passes through")

	_, env := doJSON(t, http.MethodGet, srv.URL+"/api/me", visitor, nil)

	var me struct {
		Coupons int `json:"coupons"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, 10, me.Coupons)
}

func TestLiveUpdatesOverRouter(t *testing.T) {
	srv := newTestServer(t, "http://unused.invalid")

	// The upgrade must succeed through the full middleware chain, not just
	// against a bare handler.
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	viewer, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { viewer.Close() })

	// Registration races the purchase broadcast without a short settle period.
	time.Sleep(50 * time.Millisecond)

	res, _ := doJSON(t, http.MethodGet, srv.URL+"/api/me", "", nil)
	buyer := identityCookie(t, res)

	res, _ = doJSON(t, http.MethodPost, srv.URL+"/api/rooms/3/purchase", buyer, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	viewer.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := viewer.ReadMessage()
	require.NoError(t, err)

	var event live.Event
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, live.EventRoomPurchased, event.Type)
	assert.Equal(t, "3", event.Room.ID)
	assert.Equal(t, buyer, event.Room.OwnerID)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, "http://unused.invalid")

	res, env := doJSON(t, http.MethodGet, srv.URL+"/health", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 0, env.Code)
}
