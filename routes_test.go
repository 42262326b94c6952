package trybeauth

import "testing"

func TestRouteTableExclusionIsExact(t *testing.T) {
	rt := newRouteTable(DefaultConfig().Gate)

	if !rt.isExcluded("POST", "/v1/auth/login") || !rt.isExcluded("post", "/v1/auth/register") {
		t.Fatal("expected login and register to be excluded")
	}
	if rt.isExcluded("GET", "/v1/auth/login") {
		t.Fatal("expected exclusion to be method-specific")
	}
	if rt.isExcluded("POST", "/v1/auth/login/") {
		t.Fatal("expected exclusion to be path-exact")
	}
}

func TestRouteTableProtectedIsPrefix(t *testing.T) {
	rt := newRouteTable(DefaultConfig().Gate)

	for _, p := range []string{"/v1/users/me", "/v1/users/me/avatar", "/v1/users/meta", "/v1/auth/logout"} {
		if !rt.isProtected(p) {
			t.Fatalf("expected %s to be protected", p)
		}
	}
	for _, p := range []string{"/v1/users", "/v1/posts", "/", "/V1/USERS/ME"} {
		if rt.isProtected(p) {
			t.Fatalf("expected %s to be unprotected", p)
		}
	}
}
