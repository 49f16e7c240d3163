package gin

import (
	"encoding/json"
	"net/http/httptest"
	"reflect"
	"sort"
	"testing"

	"github.com/bobinette/datanet"
)

func TestAdminHandler_RegisterUsers(t *testing.T) {
	server := createServer(t)
	server.loadFixtures(t)

	var tts = []struct {
		Name    string
		Token   string
		Users   []datanet.UserRegistration
		Code    int
		Skipped []string
	}{
		{
			Name:  "no token",
			Users: []datanet.UserRegistration{{Username: "bashful"}},
			Code:  401,
		},
		{
			Name:  "non-admin user",
			Token: server.token(t, "sleepy"),
			Users: []datanet.UserRegistration{{Username: "bashful"}},
			Code:  403,
		},
		{
			Name:    "new users",
			Token:   server.token(t, "grumpy"),
			Users:   []datanet.UserRegistration{{Username: "bashful"}, {Username: "doc", IsAdmin: true}},
			Code:    200,
			Skipped: []string{},
		},
		{
			Name:    "existing users are skipped",
			Token:   server.token(t, "grumpy"),
			Users:   []datanet.UserRegistration{{Username: "bashful"}, {Username: "happy"}},
			Code:    200,
			Skipped: []string{"bashful"},
		},
	}

	for _, tt := range tts {
		req := httptest.NewRequest("POST", "/admin/users", createReader(tt.Users, t))
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

		var r struct {
			Skipped []string `json:"skipped"`
		}
		if err := json.Unmarshal(resp.Body.Bytes(), &r); err != nil {
			t.Errorf("%s - could not read json body: %v", tt.Name, err)
		} else if !reflect.DeepEqual(r.Skipped, tt.Skipped) {
			t.Errorf("%s - incorrect skipped users: expected %v got %v", tt.Name, tt.Skipped, r.Skipped)
		}
	}
}

func TestAdminHandler_SetAdmin(t *testing.T) {
	server := createServer(t)
	server.loadFixtures(t)

	var tts = []struct {
		Name     string
		Username string
		IsAdmin  bool
		Code     int
	}{
		{
			Name:     "promote",
			Username: "sleepy",
			IsAdmin:  true,
			Code:     200,
		},
		{
			Name:     "unknown user",
			Username: "ghost",
			IsAdmin:  true,
			Code:     404,
		},
	}

	for _, tt := range tts {
		reader := createReader(map[string]interface{}{"is_admin": tt.IsAdmin}, t)
		req := httptest.NewRequest("PUT", "/admin/users/"+tt.Username+"/admin", reader)
		req.Header.Add("authorization", server.token(t, "grumpy"))
		resp := httptest.NewRecorder()
		server.router.ServeHTTP(resp, req)
		if resp.Code != tt.Code {
			t.Errorf("%s - incorrect code: expected %d got %d (body: %v)", tt.Name, tt.Code, resp.Code, resp.Body.String())
		}
	}

	// sleepy was promoted above and can now hit admin routes.
	req := httptest.NewRequest("GET", "/admin/users", nil)
	req.Header.Add("authorization", server.token(t, "sleepy"))
	resp := httptest.NewRecorder()
	server.router.ServeHTTP(resp, req)
	if resp.Code != 200 {
		t.Errorf("promoted user should be admin: expected 200 got %d (body: %v)", resp.Code, resp.Body.String())
	}
}

func TestAdminHandler_RegisterBaseURI(t *testing.T) {
	server := createServer(t)
	server.loadFixtures(t)

	var tts = []struct {
		Name     string
		BaseURI  string
		Code     int
		Expected string
	}{
		{
			Name:     "new base uri",
			BaseURI:  "s3://other",
			Code:     200,
			Expected: "s3://other",
		},
		{
			Name:     "trailing slash is trimmed",
			BaseURI:  "s3://slashed/",
			Code:     200,
			Expected: "s3://slashed",
		},
		{
			Name:    "duplicate",
			BaseURI: "s3://bucket",
			Code:    409,
		},
		{
			Name:    "empty",
			BaseURI: "",
			Code:    400,
		},
	}

	for _, tt := range tts {
		reader := createReader(map[string]interface{}{"base_uri": tt.BaseURI}, t)
		req := httptest.NewRequest("POST", "/admin/base_uris", reader)
		req.Header.Add("authorization", server.token(t, "grumpy"))
		resp := httptest.NewRecorder()
		server.router.ServeHTTP(resp, req)
		if resp.Code != tt.Code {
			t.Errorf("%s - incorrect code: expected %d got %d (body: %v)", tt.Name, tt.Code, resp.Code, resp.Body.String())
			continue
		}

		if tt.Code >= 400 {
			continue
		}

		var r datanet.BaseURI
		if err := json.Unmarshal(resp.Body.Bytes(), &r); err != nil {
			t.Errorf("%s - could not read json body: %v", tt.Name, err)
		} else if r.URI != tt.Expected {
			t.Errorf("%s - incorrect base uri: expected %s got %s", tt.Name, tt.Expected, r.URI)
		}
	}
}

func TestAdminHandler_Permissions(t *testing.T) {
	server := createServer(t)
	server.loadFixtures(t)

	update := datanet.PermissionUpdate{
		BaseURI:                      "s3://bucket",
		UsersWithSearchPermissions:   []string{"dopey", "ghost"},
		UsersWithRegisterPermissions: []string{"ghost"},
	}
	req := httptest.NewRequest("POST", "/admin/permissions", createReader(update, t))
	req.Header.Add("authorization", server.token(t, "grumpy"))
	resp := httptest.NewRecorder()
	server.router.ServeHTTP(resp, req)
	if resp.Code != 200 {
		t.Fatalf("incorrect code: expected 200 got %d (body: %v)", resp.Code, resp.Body.String())
	}

	var ur struct {
		Skipped []string `json:"skipped"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &ur); err != nil {
		t.Fatal("could not read json body:", err)
	}
	if !reflect.DeepEqual(ur.Skipped, []string{"ghost"}) {
		t.Errorf("incorrect skipped users: expected [ghost] got %v", ur.Skipped)
	}

	req = httptest.NewRequest("GET", "/admin/permissions?base_uri=s3://bucket", nil)
	req.Header.Add("authorization", server.token(t, "grumpy"))
	resp = httptest.NewRecorder()
	server.router.ServeHTTP(resp, req)
	if resp.Code != 200 {
		t.Fatalf("incorrect code: expected 200 got %d (body: %v)", resp.Code, resp.Body.String())
	}

	var permissions datanet.BaseURIPermissions
	if err := json.Unmarshal(resp.Body.Bytes(), &permissions); err != nil {
		t.Fatal("could not read json body:", err)
	}

	sort.Strings(permissions.UsersWithSearchPermissions)
	if expected := []string{"dopey", "sleepy"}; !reflect.DeepEqual(permissions.UsersWithSearchPermissions, expected) {
		t.Errorf("incorrect search permissions: expected %v got %v", expected, permissions.UsersWithSearchPermissions)
	}
	if expected := []string{"sleepy"}; !reflect.DeepEqual(permissions.UsersWithRegisterPermissions, expected) {
		t.Errorf("incorrect register permissions: expected %v got %v", expected, permissions.UsersWithRegisterPermissions)
	}

	// Showing an unregistered base URI is a 400, like updating one.
	req = httptest.NewRequest("GET", "/admin/permissions?base_uri=s3://unknown", nil)
	req.Header.Add("authorization", server.token(t, "grumpy"))
	resp = httptest.NewRecorder()
	server.router.ServeHTTP(resp, req)
	if resp.Code != 400 {
		t.Errorf("incorrect code: expected 400 got %d (body: %v)", resp.Code, resp.Body.String())
	}
}
