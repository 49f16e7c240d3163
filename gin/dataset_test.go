package gin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/bobinette/datanet"
	"github.com/bobinette/datanet/jwt"
	"github.com/bobinette/datanet/log"
)

const testUUID = "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"

type testServer struct {
	router http.Handler

	users       *datanet.InMemUserStore
	baseURIs    *datanet.InMemBaseURIStore
	datasets    *datanet.InMemDatasetStore
	documents   *datanet.InMemDocumentStore
	permissions *datanet.PermissionService

	registrations *datanet.RegistrationService
	encoder       *jwt.EncodeDecoder
}

func createServer(t *testing.T) *testServer {
	gin.SetMode(gin.ReleaseMode) // avoid unnecessary log

	db := datanet.NewInMemAdminDB()
	users := &datanet.InMemUserStore{DB: db}
	baseURIs := &datanet.InMemBaseURIStore{DB: db}
	datasets := &datanet.InMemDatasetStore{DB: db}
	permissionStore := &datanet.InMemPermissionStore{DB: db}
	documents := datanet.NewInMemDocumentStore()
	index := datanet.NewInMemIndex()

	registrations := datanet.NewRegistrationService(baseURIs, datasets, documents, index, log.New("dev"))
	permissions := datanet.NewPermissionService(users, baseURIs, permissionStore)
	queries := datanet.NewQueryService(users, datasets, documents, permissionStore, index)

	encoder := jwt.NewEncodeDecoder([]byte("test-key"))
	router, err := New(registrations, permissions, queries, users, baseURIs, encoder)
	if err != nil {
		t.Fatal("could not create router:", err)
	}

	return &testServer{
		router:        router,
		users:         users,
		baseURIs:      baseURIs,
		datasets:      datasets,
		documents:     documents,
		permissions:   permissions,
		registrations: registrations,
		encoder:       encoder,
	}
}

// loadFixtures registers an admin, a plain user with search and register
// permissions on s3://bucket, and a user with no permissions at all.
func (s *testServer) loadFixtures(t *testing.T) {
	_, err := s.users.Register([]datanet.UserRegistration{
		{Username: "grumpy", IsAdmin: true},
		{Username: "sleepy"},
		{Username: "dopey"},
	})
	if err != nil {
		t.Fatal("could not register users:", err)
	}

	if _, err := s.baseURIs.Register("s3://bucket"); err != nil {
		t.Fatal("could not register base uri:", err)
	}

	_, err = s.permissions.Update(datanet.PermissionUpdate{
		BaseURI:                      "s3://bucket",
		UsersWithSearchPermissions:   []string{"sleepy"},
		UsersWithRegisterPermissions: []string{"sleepy"},
	})
	if err != nil {
		t.Fatal("could not update permissions:", err)
	}
}

func (s *testServer) token(t *testing.T, username string) string {
	token, err := s.encoder.Encode(username)
	if err != nil {
		t.Fatal("could not encode token:", err)
	}
	return fmt.Sprintf("bearer %s", token)
}

func (s *testServer) register(t *testing.T, info datanet.Document) {
	if _, err := s.registrations.Register(context.Background(), info); err != nil {
		t.Fatal("could not register dataset:", err)
	}
}

func createReader(i interface{}, t *testing.T) io.Reader {
	data, err := json.Marshal(i)
	if err != nil {
		t.Fatal("cannot marshal:", err)
	}

	buf := bytes.Buffer{}
	_, err = buf.Write(data)
	if err != nil {
		t.Fatal("cannot write:", err)
	}

	return &buf
}

func datasetInfo(uuid, uri string) datanet.Document {
	return datanet.Document{
		"uuid":     uuid,
		"base_uri": "s3://bucket",
		"uri":      uri,
		"name":     "climate-monthly",
		"type":     "dataset",
		"readme":   "# Climate data\n\nMonthly measurements.",
	}
}

func TestDatasetHandler_Register(t *testing.T) {
	server := createServer(t)
	server.loadFixtures(t)

	var tts = []struct {
		Name  string
		Token string
		Info  datanet.Document
		Code  int
	}{
		{
			Name: "no token",
			Info: datasetInfo(testUUID, "s3://bucket/abc"),
			Code: 401,
		},
		{
			Name:  "no register permission",
			Token: server.token(t, "dopey"),
			Info:  datasetInfo(testUUID, "s3://bucket/abc"),
			Code:  403,
		},
		{
			Name:  "user with register permission",
			Token: server.token(t, "sleepy"),
			Info:  datasetInfo(testUUID, "s3://bucket/abc"),
			Code:  200,
		},
		{
			Name:  "admin without explicit permission",
			Token: server.token(t, "grumpy"),
			Info:  datasetInfo(testUUID, "s3://bucket/abc"),
			Code:  200,
		},
		{
			Name:  "missing key",
			Token: server.token(t, "sleepy"),
			Info: datanet.Document{
				"uuid": testUUID,
			},
			Code: 400,
		},
		{
			Name:  "unregistered base uri",
			Token: server.token(t, "grumpy"),
			Info: datanet.Document{
				"uuid":     testUUID,
				"base_uri": "s3://unknown",
				"uri":      "s3://unknown/abc",
				"name":     "n",
				"type":     "dataset",
				"readme":   "r",
			},
			Code: 400,
		},
	}

	for _, tt := range tts {
		req := httptest.NewRequest("POST", "/register_dataset", createReader(tt.Info, t))
		req.Header.Add("authorization", tt.Token)
		resp := httptest.NewRecorder()
		server.router.ServeHTTP(resp, req)
		if resp.Code != tt.Code {
			t.Errorf("%s - incorrect code: expected %d got %d (body: %v)", tt.Name, tt.Code, resp.Code, resp.Body.String())
			continue
		}

		if tt.Code >= 400 {
			continue
		}

		if body := resp.Body.String(); body != tt.Info.String("uri") {
			t.Errorf("%s - incorrect body: expected %s got %s", tt.Name, tt.Info.String("uri"), body)
		}
	}
}

func TestDatasetHandler_Lookup(t *testing.T) {
	server := createServer(t)
	server.loadFixtures(t)

	server.register(t, datasetInfo(testUUID, "s3://bucket/abc"))

	var tts = []struct {
		Name  string
		Token string
		UUID  string
		Code  int
		Len   int
	}{
		{
			Name: "no token",
			UUID: testUUID,
			Code: 401,
		},
		{
			Name:  "token for unregistered user",
			Token: server.token(t, "ghost"),
			UUID:  testUUID,
			Code:  401,
		},
		{
			Name:  "user with search permission",
			Token: server.token(t, "sleepy"),
			UUID:  testUUID,
			Code:  200,
			Len:   1,
		},
		{
			Name:  "user without search permission",
			Token: server.token(t, "dopey"),
			UUID:  testUUID,
			Code:  200,
			Len:   0,
		},
		{
			Name:  "unknown uuid",
			Token: server.token(t, "sleepy"),
			UUID:  "ffffffff-0000-1111-2222-333333333333",
			Code:  200,
			Len:   0,
		},
	}

	for _, tt := range tts {
		req := httptest.NewRequest("GET", fmt.Sprintf("/lookup_datasets/%s", tt.UUID), nil)
		req.Header.Add("authorization", tt.Token)
		resp := httptest.NewRecorder()
		server.router.ServeHTTP(resp, req)
		if resp.Code != tt.Code {
			t.Errorf("%s - incorrect code: expected %d got %d (body: %v)", tt.Name, tt.Code, resp.Code, resp.Body.String())
			continue
		}

		if tt.Code >= 400 {
			continue
		}

		var datasets []datanet.Dataset
		if err := json.Unmarshal(resp.Body.Bytes(), &datasets); err != nil {
			t.Errorf("%s - could not read json body: %v", tt.Name, err)
		} else if len(datasets) != tt.Len {
			t.Errorf("%s - incorrect number of datasets: expected %d got %d", tt.Name, tt.Len, len(datasets))
		}
	}
}

func TestDatasetHandler_Search(t *testing.T) {
	server := createServer(t)
	server.loadFixtures(t)

	server.register(t, datasetInfo(testUUID, "s3://bucket/abc"))

	var tts = []struct {
		Name  string
		Token string
		Query datanet.Document
		Code  int
		Len   int
	}{
		{
			Name:  "empty query returns the whole scope",
			Token: server.token(t, "sleepy"),
			Query: datanet.Document{},
			Code:  200,
			Len:   1,
		},
		{
			Name:  "query on name",
			Token: server.token(t, "sleepy"),
			Query: datanet.Document{"name": "climate-monthly"},
			Code:  200,
			Len:   1,
		},
		{
			Name:  "query matching nothing",
			Token: server.token(t, "sleepy"),
			Query: datanet.Document{"name": "other"},
			Code:  200,
			Len:   0,
		},
		{
			Name:  "empty scope",
			Token: server.token(t, "dopey"),
			Query: datanet.Document{},
			Code:  200,
			Len:   0,
		},
		{
			Name:  "no token",
			Query: datanet.Document{},
			Code:  401,
		},
	}

	for _, tt := range tts {
		req := httptest.NewRequest("POST", "/search_for_datasets", createReader(tt.Query, t))
		req.Header.Add("authorization", tt.Token)
		resp := httptest.NewRecorder()
		server.router.ServeHTTP(resp, req)
		if resp.Code != tt.Code {
			t.Errorf("%s - incorrect code: expected %d got %d (body: %v)", tt.Name, tt.Code, resp.Code, resp.Body.String())
			continue
		}

		if tt.Code >= 400 {
			continue
		}

		var documents []datanet.Document
		if err := json.Unmarshal(resp.Body.Bytes(), &documents); err != nil {
			t.Errorf("%s - could not read json body: %v", tt.Name, err)
		} else if len(documents) != tt.Len {
			t.Errorf("%s - incorrect number of documents: expected %d got %d", tt.Name, tt.Len, len(documents))
		}
	}
}

func TestDatasetHandler_Count(t *testing.T) {
	server := createServer(t)
	server.loadFixtures(t)

	server.register(t, datasetInfo(testUUID, "s3://bucket/abc"))
	server.register(t, datasetInfo("ffffffff-0000-1111-2222-333333333333", "s3://bucket/def"))

	req := httptest.NewRequest("GET", "/", nil)
	resp := httptest.NewRecorder()
	server.router.ServeHTTP(resp, req)
	if resp.Code != 200 {
		t.Fatalf("incorrect code: expected 200 got %d (body: %v)", resp.Code, resp.Body.String())
	}

	if body := resp.Body.String(); body != "2 registered datasets" {
		t.Errorf("incorrect body: expected \"2 registered datasets\" got %q", body)
	}
}

func TestDatasetHandler_Readme(t *testing.T) {
	server := createServer(t)
	server.loadFixtures(t)

	server.register(t, datasetInfo(testUUID, "s3://bucket/abc"))

	var tts = []struct {
		Name     string
		Query    string
		Code     int
		Contains string
	}{
		{
			Name:     "raw readme",
			Query:    "/api/datasets/readme?uri=s3://bucket/abc",
			Code:     200,
			Contains: "# Climate data",
		},
		{
			Name:     "rendered readme",
			Query:    "/api/datasets/readme?uri=s3://bucket/abc&format=html",
			Code:     200,
			Contains: "<h1>Climate data</h1>",
		},
		{
			Name:  "missing uri parameter",
			Query: "/api/datasets/readme",
			Code:  400,
		},
		{
			Name:  "unknown uri",
			Query: "/api/datasets/readme?uri=s3://bucket/unknown",
			Code:  404,
		},
	}

	for _, tt := range tts {
		req := httptest.NewRequest("GET", tt.Query, nil)
		req.Header.Add("authorization", server.token(t, "sleepy"))
		resp := httptest.NewRecorder()
		server.router.ServeHTTP(resp, req)
		if resp.Code != tt.Code {
			t.Errorf("%s - incorrect code: expected %d got %d (body: %v)", tt.Name, tt.Code, resp.Code, resp.Body.String())
			continue
		}

		if tt.Code >= 400 {
			continue
		}

		var r struct {
			Readme string `json:"readme"`
		}
		if err := json.Unmarshal(resp.Body.Bytes(), &r); err != nil {
			t.Errorf("%s - could not read json body: %v", tt.Name, err)
		} else if !strings.Contains(r.Readme, tt.Contains) {
			t.Errorf("%s - readme should contain %q, got %q", tt.Name, tt.Contains, r.Readme)
		}
	}
}

func TestDatasetHandler_SearchText(t *testing.T) {
	server := createServer(t)
	server.loadFixtures(t)

	server.register(t, datasetInfo(testUUID, "s3://bucket/abc"))

	var tts = []struct {
		Name  string
		Token string
		Q     string
		Code  int
		Len   int
	}{
		{
			Name:  "match on name",
			Token: server.token(t, "sleepy"),
			Q:     "climate",
			Code:  200,
			Len:   1,
		},
		{
			Name:  "no match",
			Token: server.token(t, "sleepy"),
			Q:     "traffic",
			Code:  200,
			Len:   0,
		},
		{
			Name:  "match outside the scope",
			Token: server.token(t, "dopey"),
			Q:     "climate",
			Code:  200,
			Len:   0,
		},
	}

	for _, tt := range tts {
		req := httptest.NewRequest("GET", fmt.Sprintf("/api/datasets/search?q=%s", tt.Q), nil)
		req.Header.Add("authorization", tt.Token)
		resp := httptest.NewRecorder()
		server.router.ServeHTTP(resp, req)
		if resp.Code != tt.Code {
			t.Errorf("%s - incorrect code: expected %d got %d (body: %v)", tt.Name, tt.Code, resp.Code, resp.Body.String())
			continue
		}

		var r struct {
			Data []datanet.Document `json:"data"`
		}
		if err := json.Unmarshal(resp.Body.Bytes(), &r); err != nil {
			t.Errorf("%s - could not read json body: %v", tt.Name, err)
		} else if len(r.Data) != tt.Len {
			t.Errorf("%s - incorrect number of documents: expected %d got %d", tt.Name, tt.Len, len(r.Data))
		}
	}
}
