package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sessionservice "scrawl/contexts/identity/session-service"
	articleservice "scrawl/contexts/publishing/article-service"
	bloghttp "scrawl/contexts/publishing/article-service/transport/http"
)

type client struct {
	t       *testing.T
	server  *httptest.Server
	cookies []*http.Cookie
}

func newClient(t *testing.T) *client {
	t.Helper()
	sessions := sessionservice.NewInMemoryModule(nil)
	blog := articleservice.NewInMemoryModule(nil)
	server := New(sessions, blog, nil, ":0", "scrawl_session", time.Hour)

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return &client{t: t, server: ts}
}

func (c *client) do(method string, path string, body any) (*http.Response, []byte) {
	c.t.Helper()
	var reader bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&reader).Encode(body); err != nil {
			c.t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.server.URL+path, &reader)
	if err != nil {
		c.t.Fatalf("build request: %v", err)
	}
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if issued := resp.Cookies(); len(issued) > 0 {
		c.cookies = issued
	}
	var payload bytes.Buffer
	if _, err := payload.ReadFrom(resp.Body); err != nil {
		c.t.Fatalf("read body: %v", err)
	}
	return resp, payload.Bytes()
}

func (c *client) mustJSON(method string, path string, body any, wantStatus int, out any) {
	c.t.Helper()
	resp, payload := c.do(method, path, body)
	if resp.StatusCode != wantStatus {
		c.t.Fatalf("%s %s = %d, want %d (body %s)", method, path, resp.StatusCode, wantStatus, payload)
	}
	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			c.t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
}

func (c *client) registerAndLogin(username string) {
	c.t.Helper()
	c.mustJSON("POST", "/api/auth/v1/register", map[string]string{
		"username": username,
		"password": "opensesame",
	}, http.StatusCreated, nil)
	c.mustJSON("POST", "/api/auth/v1/login", map[string]string{
		"username": username,
		"password": "opensesame",
	}, http.StatusNoContent, nil)
}

func TestSessionCookieIssuedOnFirstTouch(t *testing.T) {
	c := newClient(t)

	resp, _ := c.do("GET", "/api/blog/v1/articles", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if len(c.cookies) == 0 || c.cookies[0].Name != "scrawl_session" || c.cookies[0].Value == "" {
		t.Fatalf("expected a scrawl_session cookie, got %v", c.cookies)
	}

	// A repeated request with the live cookie keeps the same key.
	key := c.cookies[0].Value
	resp, _ = c.do("GET", "/api/blog/v1/articles", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("second status = %d, want 200", resp.StatusCode)
	}
	if len(c.cookies) > 0 && c.cookies[0].Value != key {
		t.Fatalf("live session key changed from %s to %s", key, c.cookies[0].Value)
	}
}

func TestLoginRejectsUnknownUser(t *testing.T) {
	c := newClient(t)

	resp, _ := c.do("POST", "/api/auth/v1/login", map[string]string{
		"username": "nobody",
		"password": "opensesame",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("login as unknown user = %d, want 403", resp.StatusCode)
	}
}

func TestRegisterLoginPublishFlow(t *testing.T) {
	c := newClient(t)
	c.do("GET", "/api/blog/v1/articles", nil)
	c.registerAndLogin("alice")

	var me struct {
		Username string `json:"username"`
	}
	c.mustJSON("GET", "/api/auth/v1/me", nil, http.StatusOK, &me)
	if me.Username != "alice" {
		t.Fatalf("me = %q, want alice", me.Username)
	}

	var created bloghttp.ArticleResponse
	c.mustJSON("POST", "/api/blog/v1/articles", bloghttp.CreateArticleRequest{
		Title:   "hello world",
		Content: "first post",
		Shares:  []bloghttp.ShareSpecRequest{{GroupID: "", Visible: true}},
	}, http.StatusCreated, &created)
	if created.ID == "" {
		t.Fatal("created article must carry an id")
	}

	// A second, anonymous client sees the public article.
	anon := newClientAgainst(t, c.server)
	var feed bloghttp.ArticleListResponse
	anon.mustJSON("GET", "/api/blog/v1/articles", nil, http.StatusOK, &feed)
	if len(feed.Articles) != 1 || feed.Articles[0].ID != created.ID {
		t.Fatalf("anonymous feed = %v, want the public article", feed.Articles)
	}

	// But cannot mutate it.
	resp, _ := anon.do("DELETE", "/api/blog/v1/articles/"+created.ID, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("anonymous delete = %d, want 403", resp.StatusCode)
	}
}

func newClientAgainst(t *testing.T, ts *httptest.Server) *client {
	t.Helper()
	return &client{t: t, server: ts}
}

func TestPatchRejectsUnknownFields(t *testing.T) {
	c := newClient(t)
	c.do("GET", "/api/blog/v1/articles", nil)
	c.registerAndLogin("alice")

	var created bloghttp.ArticleResponse
	c.mustJSON("POST", "/api/blog/v1/articles", bloghttp.CreateArticleRequest{
		Title: "hello",
	}, http.StatusCreated, &created)

	resp, _ := c.do("PATCH", "/api/blog/v1/articles/"+created.ID, map[string]string{
		"author_id": "mallory",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("patch with unknown field = %d, want 400", resp.StatusCode)
	}

	var updated bloghttp.ArticleResponse
	c.mustJSON("PATCH", "/api/blog/v1/articles/"+created.ID, map[string]string{
		"title": "renamed",
	}, http.StatusOK, &updated)
	if updated.Title != "renamed" {
		t.Fatalf("title = %q, want renamed", updated.Title)
	}
}

func TestDeletedArticleReportsNotFound(t *testing.T) {
	c := newClient(t)
	c.do("GET", "/api/blog/v1/articles", nil)
	c.registerAndLogin("alice")

	var created bloghttp.ArticleResponse
	c.mustJSON("POST", "/api/blog/v1/articles", bloghttp.CreateArticleRequest{Title: "gone soon"}, http.StatusCreated, &created)

	c.mustJSON("DELETE", "/api/blog/v1/articles/"+created.ID, nil, http.StatusNoContent, nil)

	resp, _ := c.do("GET", "/api/blog/v1/articles/"+created.ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete = %d, want 404", resp.StatusCode)
	}
	resp, _ = c.do("DELETE", "/api/blog/v1/articles/"+created.ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete = %d, want 404", resp.StatusCode)
	}
}

func TestGroupShareRoundTrip(t *testing.T) {
	c := newClient(t)
	c.do("GET", "/api/blog/v1/articles", nil)
	c.registerAndLogin("alice")

	var group struct {
		ID string `json:"id"`
	}
	c.mustJSON("POST", "/api/blog/v1/groups", bloghttp.CreateGroupRequest{Name: "family"}, http.StatusCreated, &group)

	var created bloghttp.ArticleResponse
	c.mustJSON("POST", "/api/blog/v1/articles", bloghttp.CreateArticleRequest{Title: "for family"}, http.StatusCreated, &created)
	c.mustJSON("POST", "/api/blog/v1/articles/"+created.ID+"/share", bloghttp.ShareArticleRequest{
		GroupID: group.ID,
		Visible: true,
	}, http.StatusOK, nil)

	// bob joins the group and can read the article.
	bob := newClientAgainst(t, c.server)
	bob.do("GET", "/api/blog/v1/articles", nil)
	bob.registerAndLogin("bob")
	bob.mustJSON("POST", "/api/blog/v1/groups/"+group.ID+"/join", nil, http.StatusOK, nil)

	var article bloghttp.ArticleResponse
	bob.mustJSON("GET", "/api/blog/v1/articles/"+created.ID, nil, http.StatusOK, &article)
	if len(article.Shares) != 1 || article.Shares[0].GroupName != "family" {
		t.Fatalf("shares = %v, want the family share", article.Shares)
	}

	// Revoking the share withdraws bob's access.
	c.mustJSON("DELETE", "/api/blog/v1/articles/"+created.ID+"/share", bloghttp.RevokeShareRequest{GroupID: group.ID}, http.StatusNoContent, nil)
	resp, _ := bob.do("GET", "/api/blog/v1/articles/"+created.ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after revoke = %d, want 404", resp.StatusCode)
	}
}

func TestLogoffClearsCookieAndSession(t *testing.T) {
	c := newClient(t)
	c.do("GET", "/api/blog/v1/articles", nil)
	c.registerAndLogin("alice")

	resp, _ := c.do("POST", "/api/auth/v1/logoff", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logoff = %d, want 204", resp.StatusCode)
	}
	cleared := false
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "scrawl_session" && cookie.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("logoff must clear the session cookie")
	}
}

func TestDeleteGroupEndsMembershipAccess(t *testing.T) {
	c := newClient(t)
	c.do("GET", "/api/blog/v1/articles", nil)
	c.registerAndLogin("alice")

	var group struct {
		ID string `json:"id"`
	}
	c.mustJSON("POST", "/api/blog/v1/groups", bloghttp.CreateGroupRequest{Name: "family"}, http.StatusCreated, &group)

	var created bloghttp.ArticleResponse
	c.mustJSON("POST", "/api/blog/v1/articles", bloghttp.CreateArticleRequest{Title: "for family"}, http.StatusCreated, &created)
	c.mustJSON("POST", "/api/blog/v1/articles/"+created.ID+"/share", bloghttp.ShareArticleRequest{
		GroupID: group.ID,
		Visible: true,
	}, http.StatusOK, nil)

	bob := newClientAgainst(t, c.server)
	bob.do("GET", "/api/blog/v1/articles", nil)
	bob.registerAndLogin("bob")
	bob.mustJSON("POST", "/api/blog/v1/groups/"+group.ID+"/join", nil, http.StatusOK, nil)
	bob.mustJSON("GET", "/api/blog/v1/articles/"+created.ID, nil, http.StatusOK, nil)

	// Only the owner may delete the group.
	resp, _ := bob.do("DELETE", "/api/blog/v1/groups/"+group.ID, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-owner group delete = %d, want 403", resp.StatusCode)
	}

	c.mustJSON("DELETE", "/api/blog/v1/groups/"+group.ID, nil, http.StatusNoContent, nil)
	resp, _ = bob.do("GET", "/api/blog/v1/articles/"+created.ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after group delete = %d, want 404", resp.StatusCode)
	}
	resp, _ = c.do("DELETE", "/api/blog/v1/groups/"+group.ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second group delete = %d, want 404", resp.StatusCode)
	}
}

func TestJoinGroupChunkedBodyCarriesWriteFlag(t *testing.T) {
	c := newClient(t)
	c.do("GET", "/api/blog/v1/articles", nil)
	c.registerAndLogin("alice")

	var group struct {
		ID string `json:"id"`
	}
	c.mustJSON("POST", "/api/blog/v1/groups", bloghttp.CreateGroupRequest{Name: "family"}, http.StatusCreated, &group)

	bob := newClientAgainst(t, c.server)
	bob.do("GET", "/api/blog/v1/articles", nil)
	bob.registerAndLogin("bob")

	// Hide the body length so the request goes out chunked and the
	// handler cannot rely on Content-Length.
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(bloghttp.JoinGroupRequest{WriteAllowed: true}); err != nil {
		t.Fatalf("encode body: %v", err)
	}
	req, err := http.NewRequest("POST", bob.server.URL+"/api/blog/v1/groups/"+group.ID+"/join", struct{ io.Reader }{&buf})
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	for _, cookie := range bob.cookies {
		req.AddCookie(cookie)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chunked join = %d, want 200", resp.StatusCode)
	}
	var membership bloghttp.MembershipResponse
	if err := json.NewDecoder(resp.Body).Decode(&membership); err != nil {
		t.Fatalf("decode membership: %v", err)
	}
	if !membership.WriteAllowed {
		t.Fatal("write_allowed from a chunked body must not be dropped")
	}
}

func TestMeReportsBoundUser(t *testing.T) {
	c := newClient(t)
	resp, _ := c.do("GET", "/api/auth/v1/me", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("anonymous me = %d, want 403", resp.StatusCode)
	}

	c.registerAndLogin("alice")
	var me struct {
		Username string `json:"username"`
	}
	c.mustJSON("GET", "/api/auth/v1/me", nil, http.StatusOK, &me)
	if me.Username != "alice" {
		t.Fatalf("me.username = %q, want alice", me.Username)
	}
}
